package lens

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrEigenFailed is returned when the eigendecomposition of the
// normalized Laplacian cannot be computed.
var ErrEigenFailed = errors.New("eigendecomposition failed")

// multiplicityTol groups eigenvalues closer than this into one
// multiplicity class. Symmetric shapes (spheres, tori) produce
// repeated eigenvalues whose eigenvectors are only defined up to
// rotation within the class.
const multiplicityTol = 1e-3

// nodalZeroTol is the eigenfunction magnitude below which a vertex
// sits on a nodal line and belongs to no domain.
const nodalZeroTol = 1e-6

// minDomainVertices is the smallest vertex count a connected
// same-sign component must exceed to become a region. Smaller
// components are numerical debris around nodal lines.
const minDomainVertices = 10

// EigenMode is one eigenpair of the normalized Laplace-Beltrami
// operator. Mode 0 has eigenvalue zero and an eigenfunction without
// sign changes; higher modes oscillate across the surface with nodal
// lines at their zero crossings.
type EigenMode struct {
	// Index is the 0-based mode number in ascending eigenvalue order.
	Index int

	// Eigenvalue is the mode's eigenvalue, nonnegative up to floating
	// point noise.
	Eigenvalue float64

	// Eigenfunction holds the per-vertex values of the mode. The
	// global sign is arbitrary.
	Eigenfunction []float64

	// Multiplicity counts the computed modes whose eigenvalue lies
	// within the grouping tolerance of this one, itself included.
	Multiplicity int
}

// SpectralDecomposer discovers regions from the low eigenmodes of the
// mesh's Laplace-Beltrami operator. Nodal domains of an eigenfunction,
// the connected components of same-sign vertices, form natural region
// boundaries along the function's zero crossings.
//
// Eigenmodes must be called before NodalDomains. The decomposer is
// not safe for concurrent use.
type SpectralDecomposer struct {
	mesh    *Mesh
	builder *LaplacianBuilder

	modes   []EigenMode
	tris    [][3]int
	parents []int
}

// NewSpectralDecomposer creates a decomposer over the mesh.
func NewSpectralDecomposer(m *Mesh) *SpectralDecomposer {
	tris, parents := m.Triangulate()
	return &SpectralDecomposer{
		mesh:    m,
		builder: NewLaplacianBuilder(m),
		tris:    tris,
		parents: parents,
	}
}

// Eigenmodes computes the k smallest-eigenvalue modes of the
// normalized Laplacian, ascending, with multiplicities annotated. The
// mode count is capped at one less than the vertex count. Computed
// modes are retained for NodalDomains.
func (s *SpectralDecomposer) Eigenmodes(k int) ([]EigenMode, error) {
	n := s.mesh.VertexCount()
	if n < 2 {
		return nil, fmt.Errorf("%w: mesh has %d vertices, need at least 2", ErrEigenFailed, n)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: requested %d modes", ErrEigenFailed, k)
	}
	if k > n-1 {
		k = n - 1
	}

	norm, err := s.builder.Normalized()
	if err != nil {
		return nil, err
	}

	// The normalized Laplacian is negative semidefinite; factorizing
	// its negation yields the usual nonnegative spectrum with the
	// constant mode first.
	var psd mat.SymDense
	psd.ScaleSym(-1, norm)

	var eig mat.EigenSym
	if ok := eig.Factorize(&psd, true); !ok {
		return nil, fmt.Errorf("%w: factorization did not converge", ErrEigenFailed)
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	modes := make([]EigenMode, k)
	for i := 0; i < k; i++ {
		fn := make([]float64, n)
		mat.Col(fn, i, &vecs)
		modes[i] = EigenMode{
			Index:         i,
			Eigenvalue:    vals[i],
			Eigenfunction: fn,
		}
	}
	annotateMultiplicities(modes)

	Logger().Debug("eigenmodes computed",
		"modes", k,
		"vertices", n,
		"lambda_max", modes[k-1].Eigenvalue)

	s.modes = modes
	return modes, nil
}

// annotateMultiplicities counts, for every mode, how many computed
// eigenvalues fall within the grouping tolerance of its own.
func annotateMultiplicities(modes []EigenMode) {
	for i := range modes {
		count := 0
		for j := range modes {
			if math.Abs(modes[j].Eigenvalue-modes[i].Eigenvalue) < multiplicityTol {
				count++
			}
		}
		modes[i].Multiplicity = count
	}
}

// Modes returns the eigenmodes computed by the last Eigenmodes call,
// or nil.
func (s *SpectralDecomposer) Modes() []EigenMode {
	return s.modes
}

// NodalDomains extracts the nodal domains of the given mode as
// regions. Vertices split by eigenfunction sign, near-zero values
// marking the nodal lines themselves; each sufficiently large
// connected same-sign component becomes one region whose faces are
// chosen by majority vote of their triangle vertices.
//
// Mode 0 is the constant eigenfunction and has no nodal domains;
// requesting it is an error, as is any index outside the computed
// modes.
func (s *SpectralDecomposer) NodalDomains(modeIndex int) ([]Region, error) {
	if len(s.modes) == 0 {
		return nil, errors.New("no eigenmodes computed; call Eigenmodes first")
	}
	if modeIndex == 0 {
		return nil, errors.New("mode 0 is the constant eigenfunction and has no nodal domains")
	}
	if modeIndex < 0 || modeIndex >= len(s.modes) {
		return nil, fmt.Errorf("mode %d out of range [1, %d]", modeIndex, len(s.modes)-1)
	}

	fn := s.modes[modeIndex].Eigenfunction
	signs := make([]int, len(fn))
	for v, phi := range fn {
		switch {
		case math.Abs(phi) < nodalZeroTol:
			signs[v] = 0
		case phi > 0:
			signs[v] = 1
		default:
			signs[v] = -1
		}
	}

	adj := triangleVertexAdjacency(s.tris, len(fn))
	visited := make([]bool, len(fn))
	var regions []Region

	for start := range signs {
		if visited[start] {
			continue
		}
		if signs[start] == 0 {
			visited[start] = true
			continue
		}

		component := sameSignComponent(start, signs, adj, visited)
		if len(component) <= minDomainVertices {
			continue
		}

		faces := s.domainFaces(component)
		side := "neg"
		domain := "negative"
		if signs[start] > 0 {
			side = "pos"
			domain = "positive"
		}
		regions = append(regions, Region{
			ID:             fmt.Sprintf("spectral_mode%d_%s_%s", modeIndex, side, uuid.NewString()[:8]),
			Faces:          faces,
			Kind:           SurfaceUnknown,
			UnityPrinciple: fmt.Sprintf("Spectral eigenmode %d (%s domain)", modeIndex, domain),
		})
	}

	Logger().Debug("nodal domains extracted",
		"mode", modeIndex,
		"domains", len(regions))
	return regions, nil
}

// triangleVertexAdjacency builds per-vertex neighbor lists over the
// triangulated mesh, ascending and without duplicates. Unlike the
// one-ring used by curvature, quad diagonals connect here because the
// flood fill walks triangle edges.
func triangleVertexAdjacency(tris [][3]int, vertexCount int) [][]int {
	adj := make([][]int, vertexCount)
	for _, tri := range tris {
		i, j, k := tri[0], tri[1], tri[2]
		adj[i] = append(adj[i], j, k)
		adj[j] = append(adj[j], i, k)
		adj[k] = append(adj[k], i, j)
	}
	for v := range adj {
		adj[v] = sortedUnique(adj[v])
	}
	return adj
}

// sameSignComponent flood-fills from start across vertices sharing its
// sign, marking them visited, and returns the component.
func sameSignComponent(start int, signs []int, adj [][]int, visited []bool) []int {
	target := signs[start]
	component := []int{start}
	visited[start] = true

	for head := 0; head < len(component); head++ {
		for _, nb := range adj[component[head]] {
			if visited[nb] || signs[nb] != target {
				continue
			}
			visited[nb] = true
			component = append(component, nb)
		}
	}
	return component
}

// domainFaces maps a vertex component to face indices: a triangle
// joins when at least two of its vertices belong, and votes for its
// source face. The result is ascending and duplicate-free.
func (s *SpectralDecomposer) domainFaces(component []int) []int {
	member := make(map[int]bool, len(component))
	for _, v := range component {
		member[v] = true
	}

	var faces []int
	for t, tri := range s.tris {
		count := 0
		for _, v := range tri {
			if member[v] {
				count++
			}
		}
		if count >= 2 {
			faces = append(faces, s.parents[t])
		}
	}
	return sortedUnique(faces)
}

// ResonanceScore rates how well a set of regions matches the natural
// structure of a shape, in [0, 1]. Region counts of 3 to 8 score
// best, tapering off outside that band, and uniform region sizes
// score higher than lopsided ones; the two criteria blend 60/40.
func ResonanceScore(regions []Region) float64 {
	if len(regions) == 0 {
		return 0
	}

	n := len(regions)
	var countScore float64
	switch {
	case n < 3:
		countScore = float64(n) / 3
	case n <= 8:
		countScore = 1
	default:
		countScore = math.Max(0, 1-float64(n-8)/10)
	}

	sizes := make([]float64, n)
	for i, r := range regions {
		sizes[i] = float64(len(r.Faces))
	}
	mean := stat.Mean(sizes, nil)
	sigma := stat.PopStdDev(sizes, nil)
	uniformity := 1 - math.Min(1, sigma/(mean+1))

	return clamp(0.6*countScore+0.4*uniformity, 0, 1)
}
