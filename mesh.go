package lens

import (
	"errors"
	"fmt"
	"sort"

	"github.com/golang/geo/r3"
)

// ErrInvalidMesh is returned by NewMesh when the face data does not
// describe a valid indexed mesh.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is an indexed polygonal surface: an ordered list of vertex
// positions and an ordered list of faces, each face holding 3 or 4
// indices into Vertices. Vertex and face identity is positional, and
// indices are stable for the lifetime of an analysis run.
//
// Mesh is treated as immutable by every component in this package.
// Mutating a mesh between analysis calls invalidates cached results
// derived from it.
type Mesh struct {
	Vertices []r3.Vector
	Faces    [][]int
}

// NewMesh validates vertex indices and face arity and returns the mesh.
// Faces must have 3 or 4 vertices, and every index must address an
// existing vertex. These are the only conditions reported as errors by
// this package; all downstream numeric edge cases (degenerate faces,
// isolated vertices) resolve to documented fallback values instead.
func NewMesh(vertices []r3.Vector, faces [][]int) (*Mesh, error) {
	for i, face := range faces {
		if len(face) != 3 && len(face) != 4 {
			return nil, fmt.Errorf("%w: face %d has %d vertices, want 3 or 4", ErrInvalidMesh, i, len(face))
		}
		for _, v := range face {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidMesh, i, v, len(vertices))
			}
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// VertexFaces returns, per vertex, the ascending list of face indices
// that reference it.
func (m *Mesh) VertexFaces() [][]int {
	incidence := make([][]int, len(m.Vertices))
	for f, face := range m.Faces {
		for _, v := range face {
			incidence[v] = append(incidence[v], f)
		}
	}
	return incidence
}

// VertexNeighbors returns the one-ring neighborhood of every vertex:
// the vertices connected to it by a face edge, ascending and without
// duplicates. For a quad face only the two vertices adjacent along the
// face boundary are neighbors, not the diagonal.
func (m *Mesh) VertexNeighbors() [][]int {
	ring := make([][]int, len(m.Vertices))
	for _, face := range m.Faces {
		n := len(face)
		for i, v := range face {
			ring[v] = append(ring[v], face[(i+n-1)%n], face[(i+1)%n])
		}
	}
	for v := range ring {
		ring[v] = sortedUnique(ring[v])
	}
	return ring
}

// Triangulate returns the triangle list of the mesh together with the
// index of the source face of each triangle. Triangles pass through
// unchanged; quads split along the first diagonal into (v0,v1,v2) and
// (v0,v2,v3), both mapping back to the quad's face index.
func (m *Mesh) Triangulate() (tris [][3]int, parents []int) {
	tris = make([][3]int, 0, len(m.Faces))
	parents = make([]int, 0, len(m.Faces))
	for f, face := range m.Faces {
		tris = append(tris, [3]int{face[0], face[1], face[2]})
		parents = append(parents, f)
		if len(face) == 4 {
			tris = append(tris, [3]int{face[0], face[2], face[3]})
			parents = append(parents, f)
		}
	}
	return tris, parents
}

// faceArea returns the area of face f: the triangle area, or for quads
// the summed area of the two first-diagonal triangles.
func (m *Mesh) faceArea(f int) float64 {
	face := m.Faces[f]
	v0 := m.Vertices[face[0]]
	area := triangleArea(v0, m.Vertices[face[1]], m.Vertices[face[2]])
	if len(face) == 4 {
		area += triangleArea(v0, m.Vertices[face[2]], m.Vertices[face[3]])
	}
	return area
}

// triangleArea returns the area of the triangle (a, b, c).
func triangleArea(a, b, c r3.Vector) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Norm()
}

// sortedUnique sorts s ascending and removes duplicates in place.
func sortedUnique(s []int) []int {
	if len(s) < 2 {
		return s
	}
	sort.Ints(s)
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
