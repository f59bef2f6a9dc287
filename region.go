package lens

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// nearZero is the magnitude below which an averaged curvature is
// treated as zero by the coherence score and the growth compatibility
// predicate, so relative comparisons never divide by vanishing values.
const nearZero = 1e-6

// Region is one coherent piece of a mesh decomposition.
//
// Regions partition the analyzed faces: every non-pinned face index
// belongs to exactly one region. Face order within a region carries no
// meaning.
type Region struct {
	// ID uniquely identifies the region within one analysis run.
	ID string

	// Faces lists the member face indices.
	Faces []int

	// Kind is the dominant surface classification of the member faces.
	Kind SurfaceKind

	// UnityPrinciple is a human-readable description of what holds the
	// region together.
	UnityPrinciple string

	// Coherence scores curvature uniformity across the region in
	// [0,1]; 1 means curvature is essentially constant.
	Coherence float64

	// Pinned is always false on freshly discovered regions. Callers
	// own pin state transitions.
	Pinned bool
}

// regionCoherence scores curvature uniformity over a set of faces.
//
// For both the Gaussian and the mean curvature the score is the
// inverse coefficient of variation 1/(1+sigma/mean), using the
// population standard deviation of the signed values and the mean of
// their absolute values. A quantity whose mean magnitude is negligible
// counts as perfectly coherent. The overall score is the average of
// the two, clamped to [0,1]; a singleton region always scores 1.
func regionCoherence(faces []int, curvs []CurvatureData) float64 {
	if len(faces) == 1 {
		return 1.0
	}

	gaussians := make([]float64, len(faces))
	means := make([]float64, len(faces))
	absG := make([]float64, len(faces))
	absH := make([]float64, len(faces))
	for i, f := range faces {
		gaussians[i] = curvs[f].Gaussian
		means[i] = curvs[f].Mean
		absG[i] = math.Abs(gaussians[i])
		absH[i] = math.Abs(means[i])
	}

	kCoh := spreadCoherence(stat.PopStdDev(gaussians, nil), stat.Mean(absG, nil))
	hCoh := spreadCoherence(stat.PopStdDev(means, nil), stat.Mean(absH, nil))
	return clamp((kCoh+hCoh)/2, 0, 1)
}

// spreadCoherence maps a (sigma, mean magnitude) pair to [0,1].
func spreadCoherence(sigma, mean float64) float64 {
	if mean > nearZero {
		return 1 / (1 + sigma/mean)
	}
	return 1.0
}

// dominantKind returns the most frequent classification among the
// faces. Ties resolve to the smallest kind in declaration order
// (elliptic, hyperbolic, parabolic, planar).
func dominantKind(faces []int, kinds []SurfaceKind) SurfaceKind {
	var counts [surfaceKindCount]int
	for _, f := range faces {
		counts[kinds[f]]++
	}
	best := SurfaceElliptic
	for k := best + 1; k < surfaceKindCount; k++ {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// describe returns the human-readable curvature characterization used
// in unity principles.
func (k SurfaceKind) describe() string {
	switch k {
	case SurfaceElliptic:
		return "bowl-like curvature (convex/concave)"
	case SurfaceHyperbolic:
		return "saddle-like curvature (anticlastic)"
	case SurfaceParabolic:
		return "cylindrical curvature (developable)"
	case SurfacePlanar:
		return "flat/minimal curvature"
	}
	return "unknown curvature"
}

// unityDescription builds the unity principle line for a region.
func unityDescription(kind SurfaceKind, faceCount int) string {
	return fmt.Sprintf("Similar %s across %d faces", kind.describe(), faceCount)
}
