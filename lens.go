package lens

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/meshlens/lens/internal/cache"
)

// LensKind identifies one analysis strategy.
type LensKind int

const (
	// LensUnknown is the zero value, reported where no lens applies.
	LensUnknown LensKind = iota

	// LensDifferential is curvature-coherence decomposition.
	LensDifferential

	// LensSpectral is Laplacian eigenfunction decomposition.
	LensSpectral

	lensKindCount
)

// String returns the lower-case name of the kind.
func (k LensKind) String() string {
	switch k {
	case LensDifferential:
		return "differential"
	case LensSpectral:
		return "spectral"
	}
	return "unknown"
}

// Lens is one complete analysis strategy over a mesh. Each lens
// reveals a different aspect of the shape's structure; their results
// share the Region vocabulary so they can be compared.
type Lens interface {
	// Kind identifies the strategy.
	Kind() LensKind

	// Analyze decomposes the mesh into regions. Lenses that support
	// pinning exclude the pinned faces from analysis; others ignore
	// the argument.
	Analyze(m *Mesh, pinned []int) (Result, error)
}

// Result is the outcome of one lens analysis.
type Result struct {
	// Kind is the lens that produced the result.
	Kind LensKind

	// Regions are the discovered regions.
	Regions []Region

	// Resonance scores how well the decomposition matches the shape,
	// in [0, 1]. It equals the mean unity strength of the regions.
	Resonance float64

	// Duration is the wall time of the analysis.
	Duration time.Duration

	// Metadata carries lens-specific extras such as ridge faces or
	// mode indices.
	Metadata map[string]any
}

// meanCoherence averages region coherence; no regions scores zero.
func meanCoherence(regions []Region) float64 {
	if len(regions) == 0 {
		return 0
	}
	var sum float64
	for _, r := range regions {
		sum += r.Coherence
	}
	return sum / float64(len(regions))
}

// DifferentialLens discovers regions through curvature coherence. It
// wraps the Decomposer pipeline and additionally marks ridge and
// valley candidate faces from the tails of the principal-curvature
// distribution.
type DifferentialLens struct {
	cfg config
	dec *Decomposer
}

// NewDifferentialLens creates the lens. It honors the decomposition
// options plus WithRidgeValleyDetection and
// WithRidgeValleyPercentiles.
func NewDifferentialLens(opts ...Option) *DifferentialLens {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &DifferentialLens{cfg: cfg, dec: &Decomposer{cfg: cfg}}
}

// Kind returns LensDifferential.
func (l *DifferentialLens) Kind() LensKind { return LensDifferential }

// Analyze decomposes the mesh by curvature coherence. Pinned faces
// are excluded from every region. The metadata reports the region
// count and, when detection is enabled, the ridge and valley faces
// under keys "ridge_faces" and "valley_faces".
func (l *DifferentialLens) Analyze(m *Mesh, pinned []int) (Result, error) {
	start := time.Now()

	est := &Estimator{mesh: m, workers: l.cfg.workers}
	curvs := est.AllFaceCurvatures()
	regions := l.dec.decompose(m, curvs, pinned)

	meta := map[string]any{
		"num_regions": len(regions),
		"params": fmt.Sprintf("tol=%g min_size=%d merge=%t",
			l.cfg.curvatureTolerance, l.cfg.minRegionSize, l.cfg.mergeSmallRegions),
	}
	if l.cfg.detectRidgeValley {
		ridges, valleys := ridgeValleyFaces(curvs, l.cfg.ridgePercentile, l.cfg.valleyPercentile)
		meta["ridge_faces"] = ridges
		meta["valley_faces"] = valleys
		Logger().Debug("ridge/valley candidates",
			"ridges", len(ridges), "valleys", len(valleys))
	}

	return Result{
		Kind:      LensDifferential,
		Regions:   regions,
		Resonance: meanCoherence(regions),
		Duration:  time.Since(start),
		Metadata:  meta,
	}, nil
}

// ridgeValleyFaces splits faces by percentile cutoffs on the
// magnitude of the maximum principal curvature: ridge candidates sit
// at or above the ridge cutoff, valley candidates at or below the
// valley cutoff. On near-constant curvature the cutoffs collapse and
// faces can qualify as both.
func ridgeValleyFaces(curvs []CurvatureData, ridgePct, valleyPct float64) (ridges, valleys []int) {
	if len(curvs) == 0 {
		return nil, nil
	}

	magnitudes := make([]float64, len(curvs))
	for i, c := range curvs {
		magnitudes[i] = math.Abs(c.PrincipalMax)
	}
	ordered := append([]float64(nil), magnitudes...)
	sort.Float64s(ordered)

	ridgeCut := stat.Quantile(ridgePct/100, stat.LinInterp, ordered, nil)
	valleyCut := stat.Quantile(valleyPct/100, stat.LinInterp, ordered, nil)

	for f, mag := range magnitudes {
		if mag >= ridgeCut {
			ridges = append(ridges, f)
		}
		if mag <= valleyCut {
			valleys = append(valleys, f)
		}
	}
	return ridges, valleys
}

// SpectralLens discovers regions as nodal domains of low Laplacian
// eigenmodes. Every returned region's coherence is set to the
// decomposition-wide resonance score, since unity here is a property
// of the whole modal cut rather than of individual regions.
type SpectralLens struct {
	cfg config
}

// NewSpectralLens creates the lens. It honors WithNumModes and
// WithModeIndices.
func NewSpectralLens(opts ...Option) *SpectralLens {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SpectralLens{cfg: cfg}
}

// Kind returns LensSpectral.
func (l *SpectralLens) Kind() LensKind { return LensSpectral }

// Analyze cuts the mesh along the nodal lines of the configured
// eigenmodes. Mode indices beyond the computed modes stop the sweep.
// The pinned argument is ignored; spectral cuts span the whole
// surface. Metadata reports "num_regions", "num_modes" and
// "mode_indices".
func (l *SpectralLens) Analyze(m *Mesh, pinned []int) (Result, error) {
	start := time.Now()

	dec := NewSpectralDecomposer(m)
	modes, err := dec.Eigenmodes(l.cfg.numModes)
	if err != nil {
		return Result{}, err
	}

	var regions []Region
	for _, mode := range l.cfg.modeIndices {
		if mode >= len(modes) {
			break
		}
		domains, err := dec.NodalDomains(mode)
		if err != nil {
			return Result{}, err
		}
		regions = append(regions, domains...)
	}

	resonance := ResonanceScore(regions)
	for i := range regions {
		regions[i].Coherence = resonance
	}

	return Result{
		Kind:      LensSpectral,
		Regions:   regions,
		Resonance: resonance,
		Duration:  time.Since(start),
		Metadata: map[string]any{
			"num_regions":  len(regions),
			"num_modes":    len(modes),
			"mode_indices": append([]int(nil), l.cfg.modeIndices...),
		},
	}, nil
}

// resultKey identifies one cached analysis: the lens kind plus a
// canonical fingerprint of the pinned-face set. The manager's mesh is
// fixed for its lifetime, so it does not participate in the key.
type resultKey struct {
	kind   LensKind
	params string
}

// pinnedFingerprint canonicalizes a pinned-face set so equivalent
// sets share one cache entry regardless of order or duplicates.
func pinnedFingerprint(pinned []int) string {
	if len(pinned) == 0 {
		return ""
	}
	return fmt.Sprint(sortedUnique(append([]int(nil), pinned...)))
}

// Manager coordinates the available lenses over one mesh: it runs
// analyses, caches their results, and compares decompositions across
// lenses.
//
// Manager is safe for concurrent use. The mesh must not be mutated
// while the manager holds results for it; call Invalidate after any
// geometry change.
type Manager struct {
	mesh   *Mesh
	lenses map[LensKind]Lens
	memo   *cache.Cache[resultKey, Result]

	mu     sync.Mutex
	latest map[LensKind]Result
}

// NewManager creates a manager over the mesh with both built-in
// lenses registered. The options configure the lenses and the result
// cache; WithCacheSize(0) disables caching entirely.
func NewManager(m *Mesh, opts ...Option) *Manager {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	mgr := &Manager{
		mesh: m,
		lenses: map[LensKind]Lens{
			LensDifferential: NewDifferentialLens(opts...),
			LensSpectral:     NewSpectralLens(opts...),
		},
		latest: make(map[LensKind]Result),
	}
	if cfg.cacheSize > 0 {
		mgr.memo = cache.New[resultKey, Result](cfg.cacheSize)
	}
	return mgr
}

// Analyze runs the lens of the given kind over the manager's mesh,
// serving repeated calls with the same kind and pinned set from the
// cache.
func (mgr *Manager) Analyze(kind LensKind, pinned []int) (Result, error) {
	l, ok := mgr.lenses[kind]
	if !ok {
		return Result{}, fmt.Errorf("no lens registered for kind %q", kind)
	}

	if mgr.memo == nil {
		return mgr.runLens(l, pinned)
	}
	key := resultKey{kind: kind, params: pinnedFingerprint(pinned)}
	return mgr.memo.GetOrCreate(key, func() (Result, error) {
		return mgr.runLens(l, pinned)
	})
}

// runLens executes the lens and records its result as the latest for
// its kind.
func (mgr *Manager) runLens(l Lens, pinned []int) (Result, error) {
	r, err := l.Analyze(mgr.mesh, pinned)
	if err != nil {
		return Result{}, err
	}

	mgr.mu.Lock()
	mgr.latest[l.Kind()] = r
	mgr.mu.Unlock()

	Logger().Info("lens analysis complete",
		"lens", l.Kind(),
		"regions", len(r.Regions),
		"resonance", r.Resonance,
		"duration", r.Duration)
	return r, nil
}

// LatestResult returns the most recent result for the kind, if any.
func (mgr *Manager) LatestResult(kind LensKind) (Result, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	r, ok := mgr.latest[kind]
	return r, ok
}

// CompareLenses returns, per analyzed kind, the mean unity strength
// of its latest regions. Kinds that produced no regions are absent
// from the map.
func (mgr *Manager) CompareLenses() map[LensKind]float64 {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	scores := make(map[LensKind]float64, len(mgr.latest))
	for kind, r := range mgr.latest {
		if len(r.Regions) == 0 {
			continue
		}
		scores[kind] = meanCoherence(r.Regions)
	}
	return scores
}

// BestLens returns the analyzed kind with the highest comparison
// score, or LensUnknown when nothing has been analyzed. Ties resolve
// to the kind declared first.
func (mgr *Manager) BestLens() LensKind {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.bestLocked()
}

// bestLocked scans the latest results in declaration order. Caller
// holds mu.
func (mgr *Manager) bestLocked() LensKind {
	best := LensUnknown
	bestScore := math.Inf(-1)
	for kind := LensDifferential; kind < lensKindCount; kind++ {
		r, ok := mgr.latest[kind]
		if !ok || len(r.Regions) == 0 {
			continue
		}
		if score := meanCoherence(r.Regions); score > bestScore {
			best, bestScore = kind, score
		}
	}
	return best
}

// LensReport summarizes one cached lens analysis.
type LensReport struct {
	NumRegions int
	Resonance  float64
	Duration   time.Duration
	Metadata   map[string]any
}

// Summary aggregates every cached analysis.
type Summary struct {
	// Analyzed counts lens kinds with a cached result.
	Analyzed int

	// Lenses maps each analyzed kind to its report.
	Lenses map[LensKind]LensReport

	// Best is the winning kind, LensUnknown when nothing qualifies.
	Best LensKind

	// BestScore is the winner's resonance score.
	BestScore float64
}

// Summary reports region counts, scores and timings of every cached
// analysis plus the current best lens.
func (mgr *Manager) Summary() Summary {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s := Summary{
		Analyzed: len(mgr.latest),
		Lenses:   make(map[LensKind]LensReport, len(mgr.latest)),
	}
	for kind, r := range mgr.latest {
		s.Lenses[kind] = LensReport{
			NumRegions: len(r.Regions),
			Resonance:  r.Resonance,
			Duration:   r.Duration,
			Metadata:   r.Metadata,
		}
	}
	if best := mgr.bestLocked(); best != LensUnknown {
		s.Best = best
		s.BestScore = mgr.latest[best].Resonance
	}
	return s
}

// Invalidate drops every cached result. Call it after the mesh
// geometry backing the manager changes.
func (mgr *Manager) Invalidate() {
	if mgr.memo != nil {
		mgr.memo.Clear()
	}
	mgr.mu.Lock()
	mgr.latest = make(map[LensKind]Result)
	mgr.mu.Unlock()
}
