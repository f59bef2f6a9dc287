package lens

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Decomposer partitions a mesh into curvature-coherent regions.
//
// The pipeline classifies every face by surface kind, grows regions
// outward from high-|K| seed faces through the face-adjacency graph,
// scores each region's coherence, and finally folds undersized regions
// into their best-matching neighbor. Growth is sequential: later seeds
// must observe the face claims left by earlier ones.
type Decomposer struct {
	cfg config
}

// NewDecomposer creates a decomposer. Defaults: minimum region size 3,
// curvature tolerance 0.3, small-region merging enabled.
func NewDecomposer(opts ...Option) *Decomposer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Decomposer{cfg: cfg}
}

// workRegion is the mutable region representation used while growing
// and merging. It is frozen into a Region at the end of the pipeline.
type workRegion struct {
	faces     []int
	kind      SurfaceKind
	coherence float64
}

// Decompose partitions the mesh's faces into regions.
//
// Faces listed in pinned are excluded entirely: they are never visited
// during growth or merging and appear in no output region. Every other
// face appears in exactly one region. An empty mesh, or one whose
// faces are all pinned, yields an empty slice. The call never fails
// for a valid mesh; all numeric edge cases resolve inside the
// curvature estimator.
func (d *Decomposer) Decompose(m *Mesh, pinned []int) []Region {
	est := &Estimator{mesh: m, workers: d.cfg.workers}
	return d.decompose(m, est.AllFaceCurvatures(), pinned)
}

// decompose runs the pipeline on precomputed face curvatures. The
// differential lens calls this directly so ridge and valley detection
// can share one curvature pass with region growing.
func (d *Decomposer) decompose(m *Mesh, curvs []CurvatureData, pinned []int) []Region {
	start := time.Now()

	kinds := classifyFaces(curvs)
	adj := m.FaceAdjacency()

	pinnedMask := make([]bool, len(m.Faces))
	for _, f := range pinned {
		if f >= 0 && f < len(pinnedMask) {
			pinnedMask[f] = true
		}
	}

	var kindCounts [surfaceKindCount]int
	for _, k := range kinds {
		kindCounts[k]++
	}
	Logger().Debug("classified faces",
		"elliptic", kindCounts[SurfaceElliptic],
		"hyperbolic", kindCounts[SurfaceHyperbolic],
		"parabolic", kindCounts[SurfaceParabolic],
		"planar", kindCounts[SurfacePlanar])

	regions := discoverRegions(adj, curvs, kinds, pinnedMask, d.cfg.curvatureTolerance)
	Logger().Debug("discovered regions", "count", len(regions))

	if d.cfg.mergeSmallRegions {
		regions = mergeSmallRegions(regions, adj, curvs, d.cfg.minRegionSize)
		Logger().Debug("merged small regions", "count", len(regions))
	}

	out := materializeRegions(regions)
	Logger().Info("differential decomposition complete",
		"faces", len(m.Faces), "regions", len(out), "duration", time.Since(start))
	return out
}

// classifyFaces maps every face curvature record to its surface kind.
func classifyFaces(curvs []CurvatureData) []SurfaceKind {
	kinds := make([]SurfaceKind, len(curvs))
	for i, c := range curvs {
		kinds[i] = c.Kind()
	}
	return kinds
}

// discoverRegions grows regions from seed faces ordered by descending
// |K|, so the most extreme curvature anchors the most distinctive
// regions first. Ties order by ascending face index. The assigned mask
// is owned by this one run; pinned faces start out assigned so growth
// never touches them. Any face left unassigned afterwards becomes its
// own singleton region with coherence 1, in ascending index order.
func discoverRegions(adj FaceAdjacency, curvs []CurvatureData, kinds []SurfaceKind, pinned []bool, tol float64) []*workRegion {
	assigned := make([]bool, len(curvs))
	copy(assigned, pinned)

	seeds := make([]int, 0, len(curvs))
	for f := range curvs {
		if !pinned[f] {
			seeds = append(seeds, f)
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		return math.Abs(curvs[seeds[i]].Gaussian) > math.Abs(curvs[seeds[j]].Gaussian)
	})

	var regions []*workRegion
	for _, seed := range seeds {
		if assigned[seed] {
			continue
		}
		faces := growRegion(seed, adj, curvs, kinds, assigned, tol)
		regions = append(regions, &workRegion{
			faces:     faces,
			kind:      dominantKind(faces, kinds),
			coherence: regionCoherence(faces, curvs),
		})
	}

	for f := range curvs {
		if !assigned[f] {
			assigned[f] = true
			regions = append(regions, &workRegion{faces: []int{f}, kind: kinds[f], coherence: 1.0})
		}
	}
	return regions
}

// growRegion claims faces breadth-first starting at seed. A neighbor
// joins when it is unassigned and compatible with the seed; the check
// is always against the seed, never against the frontier face that
// reached it. Accepted faces, the seed included, are marked assigned
// immediately, so a face claimed once is permanently unavailable to
// later seeds.
func growRegion(seed int, adj FaceAdjacency, curvs []CurvatureData, kinds []SurfaceKind, assigned []bool, tol float64) []int {
	faces := []int{seed}
	assigned[seed] = true
	queue := []int{seed}
	seedCurv := curvs[seed]
	seedKind := kinds[seed]

	for head := 0; head < len(queue); head++ {
		for _, nb := range adj[queue[head]] {
			if assigned[nb] {
				continue
			}
			if !compatible(seedCurv, curvs[nb], seedKind, kinds[nb], tol) {
				continue
			}
			assigned[nb] = true
			faces = append(faces, nb)
			queue = append(queue, nb)
		}
	}
	return faces
}

// compatible reports whether a candidate face may join a region seeded
// at seed: the surface kinds must match and both curvature quantities
// must agree within the relative tolerance.
func compatible(seed, cand CurvatureData, seedKind, candKind SurfaceKind, tol float64) bool {
	if seedKind != candKind {
		return false
	}
	return withinRelative(seed.Gaussian, cand.Gaussian, tol) &&
		withinRelative(seed.Mean, cand.Mean, tol)
}

// withinRelative compares |a-b| against tol relative to the average
// magnitude of a and b. Near-zero averages pass unconditionally rather
// than dividing by a vanishing value.
func withinRelative(a, b, tol float64) bool {
	avg := (math.Abs(a) + math.Abs(b)) / 2
	if avg <= nearZero {
		return true
	}
	return math.Abs(a-b)/avg <= tol
}

// mergeSmallRegions folds every region smaller than minSize into the
// adjacent surviving region whose coherence is numerically closest to
// its own. Merged faces update the face-to-region table immediately,
// so later small regions can chain onto an enlarged region. Small
// regions with no adjacent large region are kept unchanged, appended
// after the large regions. Coherence is recomputed for every surviving
// region at the end; region kind is not.
func mergeSmallRegions(regions []*workRegion, adj FaceAdjacency, curvs []CurvatureData, minSize int) []*workRegion {
	var small, large []*workRegion
	for _, r := range regions {
		if len(r.faces) < minSize {
			small = append(small, r)
		} else {
			large = append(large, r)
		}
	}
	if len(small) == 0 {
		return regions
	}

	faceToRegion := make(map[int]int, len(curvs))
	for i, r := range large {
		for _, f := range r.faces {
			faceToRegion[f] = i
		}
	}

	merged := large
	for _, s := range small {
		candidates := adjacentRegions(s, adj, faceToRegion)
		if len(candidates) == 0 {
			merged = append(merged, s)
			continue
		}

		best := candidates[0]
		bestDiff := math.Abs(merged[best].coherence - s.coherence)
		for _, c := range candidates[1:] {
			if diff := math.Abs(merged[c].coherence - s.coherence); diff < bestDiff {
				best, bestDiff = c, diff
			}
		}

		merged[best].faces = append(merged[best].faces, s.faces...)
		for _, f := range s.faces {
			faceToRegion[f] = best
		}
	}

	for _, r := range merged {
		r.coherence = regionCoherence(r.faces, curvs)
	}
	return merged
}

// adjacentRegions returns the ascending list of surviving-region
// indices adjacent to any face of s. Faces of unmerged small regions
// are absent from faceToRegion and so never appear as targets.
func adjacentRegions(s *workRegion, adj FaceAdjacency, faceToRegion map[int]int) []int {
	var ids []int
	for _, f := range s.faces {
		for _, nb := range adj[f] {
			if idx, ok := faceToRegion[nb]; ok {
				ids = append(ids, idx)
			}
		}
	}
	return sortedUnique(ids)
}

// materializeRegions freezes the working regions into output records.
func materializeRegions(regions []*workRegion) []Region {
	out := make([]Region, len(regions))
	for i, r := range regions {
		out[i] = Region{
			ID:             fmt.Sprintf("differential_region_%d", i),
			Faces:          r.faces,
			Kind:           r.kind,
			UnityPrinciple: unityDescription(r.kind, len(r.faces)),
			Coherence:      r.coherence,
		}
	}
	return out
}
