package lens

// Option configures analysis entry points (NewEstimator, NewDecomposer,
// the lenses and the Manager). Options not meaningful to an entry point
// are ignored by it.
//
// Example:
//
//	// Default decomposition
//	d := lens.NewDecomposer()
//
//	// Looser growth, keep tiny regions
//	d := lens.NewDecomposer(
//	    lens.WithCurvatureTolerance(0.5),
//	    lens.WithMergeSmallRegions(false),
//	)
type Option func(*config)

// config holds every tunable shared across the analysis entry points.
type config struct {
	// Classification thresholds. Carried on the parameter surface but
	// not consulted by CurvatureData.Kind, which applies its own fixed
	// 1e-6 cutoffs; see WithGaussianThreshold.
	gaussianThreshold float64
	meanThreshold     float64

	// Region growing.
	minRegionSize      int
	curvatureTolerance float64
	mergeSmallRegions  bool

	// Curvature computation.
	workers int

	// Spectral analysis.
	numModes    int
	modeIndices []int

	// Ridge and valley detection.
	detectRidgeValley bool
	ridgePercentile   float64
	valleyPercentile  float64

	// Manager result cache.
	cacheSize int
}

// defaultConfig returns the default analysis configuration.
func defaultConfig() config {
	return config{
		gaussianThreshold:  0.01,
		meanThreshold:      0.01,
		minRegionSize:      3,
		curvatureTolerance: 0.3,
		mergeSmallRegions:  true,
		workers:            0,
		numModes:           10,
		modeIndices:        []int{1, 2, 3},
		detectRidgeValley:  true,
		ridgePercentile:    90,
		valleyPercentile:   10,
		cacheSize:          32,
	}
}

// WithGaussianThreshold sets the nominal Gaussian-curvature
// classification threshold carried on the parameters.
//
// Note that surface classification in [CurvatureData.Kind] applies
// fixed 1e-6 cutoffs and does not read this value; the knob is kept
// for parameter-surface compatibility. The same applies to
// WithMeanThreshold.
func WithGaussianThreshold(t float64) Option {
	return func(c *config) {
		c.gaussianThreshold = t
	}
}

// WithMeanThreshold sets the nominal mean-curvature classification
// threshold carried on the parameters. See WithGaussianThreshold for
// why classification does not read it.
func WithMeanThreshold(t float64) Option {
	return func(c *config) {
		c.meanThreshold = t
	}
}

// WithMinRegionSize sets the face count under which a region is
// considered small and becomes a merge candidate. Default 3.
func WithMinRegionSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.minRegionSize = n
		}
	}
}

// WithCurvatureTolerance sets the relative curvature tolerance for
// region growth: a candidate face joins a region when its Gaussian and
// mean curvature each differ from the seed's by at most this fraction
// of their average magnitude. Default 0.3.
func WithCurvatureTolerance(tol float64) Option {
	return func(c *config) {
		if tol > 0 {
			c.curvatureTolerance = tol
		}
	}
}

// WithMergeSmallRegions enables or disables the small-region merge
// pass. Enabled by default.
func WithMergeSmallRegions(merge bool) Option {
	return func(c *config) {
		c.mergeSmallRegions = merge
	}
}

// WithWorkers sets the number of goroutines used for per-vertex
// curvature computation. Zero or negative selects GOMAXPROCS; one
// forces the sequential path. Region growing is unaffected, it is
// sequential by construction.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithNumModes sets how many Laplacian eigenmodes the spectral path
// computes. Default 10; values are clamped to the mesh size.
func WithNumModes(k int) Option {
	return func(c *config) {
		if k > 0 {
			c.numModes = k
		}
	}
}

// WithModeIndices selects which eigenmodes the spectral lens cuts into
// nodal domains. Default 1, 2, 3 (mode 0 is the constant mode and
// carries no sign structure).
func WithModeIndices(indices ...int) Option {
	return func(c *config) {
		if len(indices) > 0 {
			c.modeIndices = indices
		}
	}
}

// WithRidgeValleyDetection enables or disables ridge/valley candidate
// detection in the differential lens. Enabled by default.
func WithRidgeValleyDetection(detect bool) Option {
	return func(c *config) {
		c.detectRidgeValley = detect
	}
}

// WithRidgeValleyPercentiles sets the cutoffs on the distribution of
// |k2| over all faces: a face is a ridge candidate at or above the
// ridge percentile and a valley candidate at or below the valley
// percentile. Defaults 90 and 10.
func WithRidgeValleyPercentiles(ridge, valley float64) Option {
	return func(c *config) {
		if ridge > 0 && ridge <= 100 {
			c.ridgePercentile = ridge
		}
		if valley >= 0 && valley < 100 {
			c.valleyPercentile = valley
		}
	}
}

// WithCacheSize sets the soft limit of the Manager's result cache.
// Zero disables caching. Default 32.
func WithCacheSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.cacheSize = n
		}
	}
}
