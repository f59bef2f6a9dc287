package lens

import (
	"math"
	"runtime"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/meshlens/lens/internal/parallel"
)

// classifyTolerance separates near-zero curvature from signal when
// classifying a surface point. Kind always uses this fixed cutoff; the
// configurable GaussianThreshold/MeanThreshold parameters are not
// consulted here (see their doc comments).
const classifyTolerance = 1e-6

// degenerateTol is the length/area scale below which geometry is
// treated as degenerate and resolved by fallback values instead of
// errors.
const degenerateTol = 1e-10

// SurfaceKind classifies the local shape of a surface point from its
// curvature signs. The declaration order after SurfaceUnknown is the
// canonical order used for deterministic tie-breaking when counting
// kinds over a region.
type SurfaceKind int

const (
	// SurfaceUnknown is the zero value. Kind never returns it; regions
	// produced by analyses that do not classify curvature carry it.
	SurfaceUnknown SurfaceKind = iota

	// SurfaceElliptic indicates bowl-like curvature (K > 0).
	SurfaceElliptic

	// SurfaceHyperbolic indicates saddle-like curvature (K < 0).
	SurfaceHyperbolic

	// SurfaceParabolic indicates cylindrical curvature (K ~ 0, H != 0).
	SurfaceParabolic

	// SurfacePlanar indicates flat geometry (K ~ 0, H ~ 0).
	SurfacePlanar

	surfaceKindCount
)

// String returns the lower-case name of the kind.
func (k SurfaceKind) String() string {
	switch k {
	case SurfaceElliptic:
		return "elliptic"
	case SurfaceHyperbolic:
		return "hyperbolic"
	case SurfaceParabolic:
		return "parabolic"
	case SurfacePlanar:
		return "planar"
	}
	return "unknown"
}

// CurvatureData is the discrete curvature estimate at one mesh
// location: signed principal curvatures (PrincipalMin <= PrincipalMax),
// mean curvature H = (k1+k2)/2 and Gaussian curvature K = k1*k2.
// Records are computed once per analysis run and read-only afterwards.
type CurvatureData struct {
	PrincipalMin float64 // k1, minimum principal curvature
	PrincipalMax float64 // k2, maximum principal curvature
	Mean         float64 // H = (k1+k2)/2
	Gaussian     float64 // K = k1*k2
}

// Kind classifies the surface point. The classification is a pure
// function of the Gaussian and mean curvature against fixed 1e-6
// cutoffs: planar when both are negligible, parabolic when only K is,
// elliptic for positive K and hyperbolic for negative K.
func (c CurvatureData) Kind() SurfaceKind {
	switch {
	case math.Abs(c.Gaussian) < classifyTolerance && math.Abs(c.Mean) < classifyTolerance:
		return SurfacePlanar
	case math.Abs(c.Gaussian) < classifyTolerance:
		return SurfaceParabolic
	case c.Gaussian > classifyTolerance:
		return SurfaceElliptic
	default:
		return SurfaceHyperbolic
	}
}

// Estimator computes discrete differential-geometry quantities over a
// mesh: per-face and per-vertex normals, Voronoi vertex areas, and
// per-vertex principal/mean/Gaussian curvature following Meyer et al.,
// "Discrete Differential-Geometry Operators for Triangulated
// 2-Manifolds", with uniform Laplace-Beltrami edge weights.
//
// Shared geometry caches (normals, areas, incidence) are built once on
// first use. An Estimator is safe for concurrent reads after that; the
// one-time build is guarded internally.
type Estimator struct {
	mesh    *Mesh
	workers int

	prep          sync.Once
	faceNormals   []r3.Vector
	faceAreas     []float64
	vertexNormals []r3.Vector
	vertexAreas   []float64
	vertexFaces   [][]int
	vertexRing    [][]int
}

// parallelThreshold is the vertex count below which AllFaceCurvatures
// stays sequential; the fan-out overhead dominates under it.
const parallelThreshold = 512

// curvatureChunk is the number of vertices handled per work item when
// curvature computation runs on the worker pool.
const curvatureChunk = 256

// NewEstimator creates a curvature estimator for the mesh.
//
// By default AllFaceCurvatures uses all available CPUs for large
// meshes; pass WithWorkers to change that.
func NewEstimator(m *Mesh, opts ...Option) *Estimator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Estimator{mesh: m, workers: cfg.workers}
}

// ensure builds the shared geometry caches exactly once.
func (e *Estimator) ensure() {
	e.prep.Do(func() {
		e.vertexFaces = e.mesh.VertexFaces()
		e.vertexRing = e.mesh.VertexNeighbors()
		e.computeFaceGeometry()
		e.computeVertexGeometry()
	})
}

// computeFaceGeometry fills per-face unit normals and areas. The
// normal comes from the first three vertices of the face; faces whose
// edge cross product is degenerate get the fallback normal (0,0,1).
func (e *Estimator) computeFaceGeometry() {
	normals := make([]r3.Vector, len(e.mesh.Faces))
	areas := make([]float64, len(e.mesh.Faces))
	degenerate := 0

	for f, face := range e.mesh.Faces {
		v0 := e.mesh.Vertices[face[0]]
		cross := e.mesh.Vertices[face[1]].Sub(v0).Cross(e.mesh.Vertices[face[2]].Sub(v0))
		if n := cross.Norm(); n > degenerateTol {
			normals[f] = cross.Mul(1 / n)
		} else {
			normals[f] = r3.Vector{Z: 1}
			degenerate++
		}
		areas[f] = e.mesh.faceArea(f)
	}

	e.faceNormals = normals
	e.faceAreas = areas
	if degenerate > 0 {
		Logger().Warn("degenerate faces assigned fallback normal", "count", degenerate)
	}
}

// computeVertexGeometry fills area-weighted vertex normals and the
// Voronoi-area proxy: each face contributes area/3 (triangles) or
// area/4 (quads) to every one of its vertices.
func (e *Estimator) computeVertexGeometry() {
	normals := make([]r3.Vector, len(e.mesh.Vertices))
	vareas := make([]float64, len(e.mesh.Vertices))

	for f, face := range e.mesh.Faces {
		area := e.faceAreas[f]
		weighted := e.faceNormals[f].Mul(area)
		share := area / float64(len(face))
		for _, v := range face {
			normals[v] = normals[v].Add(weighted)
			vareas[v] += share
		}
	}

	for v := range normals {
		if n := normals[v].Norm(); n > degenerateTol {
			normals[v] = normals[v].Mul(1 / n)
		} else {
			normals[v] = r3.Vector{Z: 1}
		}
	}

	e.vertexNormals = normals
	e.vertexAreas = vareas
}

// FaceNormals returns per-face unit normals. The slice is shared
// estimator state; callers must not modify it.
func (e *Estimator) FaceNormals() []r3.Vector {
	e.ensure()
	return e.faceNormals
}

// VertexNormals returns per-vertex unit normals, the area-weighted
// average of incident face normals. The slice is shared estimator
// state; callers must not modify it.
func (e *Estimator) VertexNormals() []r3.Vector {
	e.ensure()
	return e.vertexNormals
}

// VertexAreas returns the per-vertex Voronoi-area proxy. The slice is
// shared estimator state; callers must not modify it.
func (e *Estimator) VertexAreas() []float64 {
	e.ensure()
	return e.vertexAreas
}

// VertexCurvature estimates curvature at vertex v.
//
// Vertices with a degenerate area or fewer than three one-ring
// neighbors return the zero record. The mean curvature vector uses
// uniform edge weights, H = |1/(4A) * sum(neighbor - v)|, signed by its
// alignment with the vertex normal. Gaussian curvature comes from the
// angle defect K = (2*pi - sum of interior angles) / A. When the
// principal-curvature discriminant H^2-K turns negative, the record is
// clamped to k1 = k2 = H with K = H^2 so the four fields stay mutually
// consistent.
func (e *Estimator) VertexCurvature(v int) CurvatureData {
	e.ensure()
	return e.vertexCurvature(v)
}

func (e *Estimator) vertexCurvature(v int) CurvatureData {
	area := e.vertexAreas[v]
	if area < degenerateTol {
		return CurvatureData{}
	}
	ring := e.vertexRing[v]
	if len(ring) < 3 {
		return CurvatureData{}
	}

	p := e.mesh.Vertices[v]
	var hvec r3.Vector
	for _, nb := range ring {
		hvec = hvec.Add(e.mesh.Vertices[nb].Sub(p))
	}
	hvec = hvec.Mul(1 / (4 * area))

	h := hvec.Norm()
	if hvec.Dot(e.vertexNormals[v]) < 0 {
		h = -h
	}

	k := (2*math.Pi - e.angleSum(v)) / area

	disc := h*h - k
	if disc < 0 {
		// Numerical clamp: keep H and force K, k1, k2 consistent with it.
		return CurvatureData{PrincipalMin: h, PrincipalMax: h, Mean: h, Gaussian: h * h}
	}
	s := math.Sqrt(disc)
	return CurvatureData{PrincipalMin: h - s, PrincipalMax: h + s, Mean: h, Gaussian: k}
}

// angleSum accumulates the interior angles meeting at vertex v across
// its incident faces. Edges shorter than the degeneracy tolerance are
// skipped; the cosine is clamped to [-1,1] before acos.
func (e *Estimator) angleSum(v int) float64 {
	p := e.mesh.Vertices[v]
	var sum float64

	for _, f := range e.vertexFaces[v] {
		face := e.mesh.Faces[f]
		i := indexOf(face, v)
		n := len(face)
		du := e.mesh.Vertices[face[(i+n-1)%n]].Sub(p)
		dw := e.mesh.Vertices[face[(i+1)%n]].Sub(p)

		nu, nw := du.Norm(), dw.Norm()
		if nu <= degenerateTol || nw <= degenerateTol {
			continue
		}
		cos := clamp(du.Dot(dw)/(nu*nw), -1, 1)
		sum += math.Acos(cos)
	}
	return sum
}

// FaceCurvature returns the curvature record of face f: the arithmetic
// mean of the per-vertex records over the face's vertices, each field
// averaged independently.
func (e *Estimator) FaceCurvature(f int) CurvatureData {
	e.ensure()
	face := e.mesh.Faces[f]
	var acc CurvatureData
	for _, v := range face {
		acc = addCurvature(acc, e.vertexCurvature(v))
	}
	return scaleCurvature(acc, 1/float64(len(face)))
}

// AllFaceCurvatures computes the curvature record of every face.
//
// Per-vertex curvature has no cross-vertex data dependency, so large
// meshes are fanned out across a worker pool; the result is identical
// to the sequential computation.
func (e *Estimator) AllFaceCurvatures() []CurvatureData {
	e.ensure()

	vertexCurvs := make([]CurvatureData, len(e.mesh.Vertices))
	workers := e.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > 1 && len(vertexCurvs) >= parallelThreshold {
		e.fillVertexCurvatures(vertexCurvs, workers)
	} else {
		for v := range vertexCurvs {
			vertexCurvs[v] = e.vertexCurvature(v)
		}
	}

	out := make([]CurvatureData, len(e.mesh.Faces))
	for f, face := range e.mesh.Faces {
		var acc CurvatureData
		for _, v := range face {
			acc = addCurvature(acc, vertexCurvs[v])
		}
		out[f] = scaleCurvature(acc, 1/float64(len(face)))
	}
	return out
}

// fillVertexCurvatures computes per-vertex curvature on a worker pool.
// Chunks write disjoint index ranges of dst, so no synchronization
// beyond pool completion is needed.
func (e *Estimator) fillVertexCurvatures(dst []CurvatureData, workers int) {
	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()

	work := make([]func(), 0, (len(dst)+curvatureChunk-1)/curvatureChunk)
	for start := 0; start < len(dst); start += curvatureChunk {
		lo, hi := start, min(start+curvatureChunk, len(dst))
		work = append(work, func() {
			for v := lo; v < hi; v++ {
				dst[v] = e.vertexCurvature(v)
			}
		})
	}
	pool.ExecuteAll(work)
}

func addCurvature(a, b CurvatureData) CurvatureData {
	return CurvatureData{
		PrincipalMin: a.PrincipalMin + b.PrincipalMin,
		PrincipalMax: a.PrincipalMax + b.PrincipalMax,
		Mean:         a.Mean + b.Mean,
		Gaussian:     a.Gaussian + b.Gaussian,
	}
}

func scaleCurvature(c CurvatureData, s float64) CurvatureData {
	return CurvatureData{
		PrincipalMin: c.PrincipalMin * s,
		PrincipalMax: c.PrincipalMax * s,
		Mean:         c.Mean * s,
		Gaussian:     c.Gaussian * s,
	}
}

// indexOf returns the position of v in face, or -1.
func indexOf(face []int, v int) int {
	for i, fv := range face {
		if fv == v {
			return i
		}
	}
	return -1
}

// clamp limits x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
