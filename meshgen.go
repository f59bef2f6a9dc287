package lens

import (
	"math"

	"github.com/golang/geo/r3"
)

// Analytic test shapes with known curvature. Each generator produces
// a triangulated mesh whose discrete curvature estimates converge to
// the closed-form values as subdivisions increase, which makes them
// the reference surfaces for validation, benchmarks and the demo
// binary. Subdivisions below zero are treated as zero.

// SphereMesh builds a UV sphere. Analytically k1 = k2 = 1/r,
// H = 1/r and K = 1/r^2 everywhere: an elliptic surface.
//
// Longitude resolution is 2^(s+2) segments and latitude 2^(s+1)
// bands; the quad cells at the poles degenerate and are emitted as
// single triangles.
func SphereMesh(radius float64, subdivisions int) *Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	nu := 1 << (subdivisions + 2)
	nv := 1 << (subdivisions + 1)

	vertices := make([]r3.Vector, 0, (nv+1)*nu)
	for i := 0; i <= nv; i++ {
		theta := math.Pi * float64(i) / float64(nv)
		for j := 0; j < nu; j++ {
			phi := 2 * math.Pi * float64(j) / float64(nu)
			vertices = append(vertices, r3.Vector{
				X: radius * math.Sin(theta) * math.Cos(phi),
				Y: radius * math.Sin(theta) * math.Sin(phi),
				Z: radius * math.Cos(theta),
			})
		}
	}

	faces := make([][]int, 0, 2*nv*nu)
	for i := 0; i < nv; i++ {
		for j := 0; j < nu; j++ {
			v0 := i*nu + j
			v1 := i*nu + (j+1)%nu
			v2 := (i+1)*nu + (j+1)%nu
			v3 := (i+1)*nu + j
			if i > 0 {
				faces = append(faces, []int{v0, v1, v2})
			}
			if i < nv-1 {
				faces = append(faces, []int{v0, v2, v3})
			}
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}

// CylinderMesh builds an open-ended cylinder along z, centered at the
// origin. Analytically k1 = 0, k2 = 1/r, H = 1/(2r) and K = 0: a
// parabolic surface.
//
// Circumference resolution is 2^(s+3) segments and height 2^(s+2)
// bands.
func CylinderMesh(radius, height float64, subdivisions int) *Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	ntheta := 1 << (subdivisions + 3)
	nz := 1 << (subdivisions + 2)

	vertices := make([]r3.Vector, 0, (nz+1)*ntheta)
	for i := 0; i <= nz; i++ {
		z := -height/2 + height*float64(i)/float64(nz)
		for j := 0; j < ntheta; j++ {
			theta := 2 * math.Pi * float64(j) / float64(ntheta)
			vertices = append(vertices, r3.Vector{
				X: radius * math.Cos(theta),
				Y: radius * math.Sin(theta),
				Z: z,
			})
		}
	}

	// Wind faces so normals match the sphere's orientation and mean
	// curvature comes out positive.
	faces := make([][]int, 0, 2*nz*ntheta)
	for i := 0; i < nz; i++ {
		for j := 0; j < ntheta; j++ {
			v0 := i*ntheta + j
			v1 := i*ntheta + (j+1)%ntheta
			v2 := (i+1)*ntheta + (j+1)%ntheta
			v3 := (i+1)*ntheta + j
			faces = append(faces, []int{v0, v2, v1}, []int{v0, v3, v2})
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}

// SaddleMesh builds a hyperbolic paraboloid z = (x^2 - y^2)/scale
// over the grid [-scale, scale]^2. At the origin k1 = -2/scale and
// k2 = +2/scale, so H = 0 and K < 0: a hyperbolic surface.
//
// Grid resolution is 2^(s+3) cells per side.
func SaddleMesh(scale float64, subdivisions int) *Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	n := 1 << (subdivisions + 3)

	vertices := make([]r3.Vector, 0, (n+1)*(n+1))
	for i := 0; i <= n; i++ {
		x := -scale + 2*scale*float64(i)/float64(n)
		for j := 0; j <= n; j++ {
			y := -scale + 2*scale*float64(j)/float64(n)
			vertices = append(vertices, r3.Vector{X: x, Y: y, Z: (x*x - y*y) / scale})
		}
	}

	faces := make([][]int, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v0 := i*(n+1) + j
			v1 := i*(n+1) + j + 1
			v2 := (i+1)*(n+1) + j + 1
			v3 := (i+1)*(n+1) + j
			faces = append(faces, []int{v0, v1, v2}, []int{v0, v2, v3})
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}

// TorusMesh builds a torus with the given major radius (center to
// tube center) and minor radius (tube). Curvature varies by location:
// the outer equator is elliptic (K > 0), the inner one hyperbolic
// (K < 0), and the bending around the tube is 1/minor everywhere.
//
// Resolution is 2^(s+3) segments around the major circle and 2^(s+2)
// around the tube; both directions wrap.
func TorusMesh(major, minor float64, subdivisions int) *Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	nmajor := 1 << (subdivisions + 3)
	nminor := 1 << (subdivisions + 2)

	vertices := make([]r3.Vector, 0, nmajor*nminor)
	for i := 0; i < nmajor; i++ {
		theta := 2 * math.Pi * float64(i) / float64(nmajor)
		for j := 0; j < nminor; j++ {
			phi := 2 * math.Pi * float64(j) / float64(nminor)
			ring := major + minor*math.Cos(phi)
			vertices = append(vertices, r3.Vector{
				X: ring * math.Cos(theta),
				Y: ring * math.Sin(theta),
				Z: minor * math.Sin(phi),
			})
		}
	}

	// The major loop runs opposite-handed to the cylinder's height
	// axis, so the unflipped winding is the one that points normals
	// into the tube and keeps mean curvature positive.
	faces := make([][]int, 0, 2*nmajor*nminor)
	for i := 0; i < nmajor; i++ {
		for j := 0; j < nminor; j++ {
			v0 := i*nminor + j
			v1 := i*nminor + (j+1)%nminor
			v2 := ((i+1)%nmajor)*nminor + (j+1)%nminor
			v3 := ((i+1)%nmajor)*nminor + j
			faces = append(faces, []int{v0, v1, v2}, []int{v0, v2, v3})
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}

// PlaneMesh builds a flat n-by-n vertex grid in the z = 0 plane
// spanning size in both x and y, split into triangles. All curvature
// quantities vanish: a planar surface. Grids below 2 vertices per
// side are raised to 2.
func PlaneMesh(size float64, n int) *Mesh {
	if n < 2 {
		n = 2
	}

	vertices := make([]r3.Vector, 0, n*n)
	for i := 0; i < n; i++ {
		x := size*float64(i)/float64(n-1) - size/2
		for j := 0; j < n; j++ {
			y := size*float64(j)/float64(n-1) - size/2
			vertices = append(vertices, r3.Vector{X: x, Y: y})
		}
	}

	faces := make([][]int, 0, 2*(n-1)*(n-1))
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			v0 := i*n + j
			v1 := i*n + j + 1
			v2 := (i+1)*n + j + 1
			v3 := (i+1)*n + j
			faces = append(faces, []int{v0, v1, v2}, []int{v0, v2, v3})
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}
