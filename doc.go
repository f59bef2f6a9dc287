// Package lens decomposes polygonal meshes into geometrically
// coherent regions.
//
// # Overview
//
// lens estimates discrete differential-geometry quantities (principal,
// mean and Gaussian curvature) on triangle and quad meshes and uses
// them to partition a surface into regions that belong together: the
// bowl of a cup, the saddle between two handles, a flat base. Two
// analysis strategies ("lenses") are built in and produce comparable
// results:
//
//   - Differential: classifies faces by curvature signs and grows
//     regions from high-curvature seeds through face adjacency.
//   - Spectral: cuts the surface along the nodal lines of low
//     Laplace-Beltrami eigenmodes.
//
// # Quick Start
//
//	import "github.com/meshlens/lens"
//
//	mesh := lens.SphereMesh(1.0, 3)
//
//	// One-shot curvature decomposition
//	d := lens.NewDecomposer()
//	regions := d.Decompose(mesh, nil)
//
//	// Or run both lenses and compare
//	mgr := lens.NewManager(mesh)
//	mgr.Analyze(lens.LensDifferential, nil)
//	mgr.Analyze(lens.LensSpectral, nil)
//	best := mgr.BestLens()
//
// # Architecture
//
// The package is organized into:
//   - Mesh layer: Mesh, adjacency, triangulation, analytic generators
//   - Estimation: Estimator (curvature), LaplacianBuilder (operators)
//   - Decomposition: Decomposer (region growing), SpectralDecomposer
//   - Coordination: Lens implementations and Manager
//   - Internal: parallel (worker pool), cache (result memoization)
//
// # Determinism
//
// Every operation is deterministic for a given mesh: seed ordering,
// tie-breaking and merge order are all fully specified, and the
// parallel curvature path produces results identical to the
// sequential one. The exceptions are eigenvector global signs, which
// may flip between runs (nodal domains are stable up to swapping
// their positive and negative labels), and the random suffix that
// keeps spectral region IDs unique.
//
// # Performance
//
// Curvature estimation parallelizes across vertices for large meshes.
// Region growing is sequential by construction: later seeds must
// observe earlier claims. The spectral path factorizes a dense
// operator and is intended for control cages and decimated meshes
// rather than raw scan data.
package lens

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
