package lens

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// faceNormal is the unwound cross product of the first three corners,
// pointing by the right-hand rule of the winding order.
func faceNormal(m *Mesh, face []int) r3.Vector {
	a, b, c := m.Vertices[face[0]], m.Vertices[face[1]], m.Vertices[face[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

func faceCentroid(m *Mesh, face []int) r3.Vector {
	var c r3.Vector
	for _, v := range face {
		c = c.Add(m.Vertices[v])
	}
	return c.Mul(1 / float64(len(face)))
}

// ===== Resolution =====

func TestGeneratorCounts(t *testing.T) {
	tests := []struct {
		name  string
		mesh  *Mesh
		verts int
		faces int
	}{
		{"sphere s0", SphereMesh(1.0, 0), 12, 8},
		{"sphere s1", SphereMesh(1.0, 1), 40, 48},
		{"cylinder s0", CylinderMesh(1.0, 2.0, 0), 40, 64},
		{"saddle s0", SaddleMesh(1.0, 0), 81, 128},
		{"torus s0", TorusMesh(2.0, 0.5, 0), 32, 64},
		{"plane n5", PlaneMesh(2.0, 5), 25, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.VertexCount(); got != tt.verts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.verts)
			}
			if got := tt.mesh.FaceCount(); got != tt.faces {
				t.Errorf("FaceCount() = %d, want %d", got, tt.faces)
			}
		})
	}
}

func TestGenerators_NegativeSubdivisionsClamp(t *testing.T) {
	tests := []struct {
		name     string
		mesh     *Mesh
		baseline *Mesh
	}{
		{"sphere", SphereMesh(1.0, -3), SphereMesh(1.0, 0)},
		{"cylinder", CylinderMesh(1.0, 2.0, -1), CylinderMesh(1.0, 2.0, 0)},
		{"saddle", SaddleMesh(1.0, -1), SaddleMesh(1.0, 0)},
		{"torus", TorusMesh(2.0, 0.5, -2), TorusMesh(2.0, 0.5, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := tt.mesh.VertexCount(), tt.baseline.VertexCount(); got != want {
				t.Errorf("VertexCount() = %d, want %d", got, want)
			}
			if got, want := tt.mesh.FaceCount(), tt.baseline.FaceCount(); got != want {
				t.Errorf("FaceCount() = %d, want %d", got, want)
			}
		})
	}
}

func TestPlaneMesh_MinimumGrid(t *testing.T) {
	for _, n := range []int{-7, 0, 1, 2} {
		m := PlaneMesh(1.0, n)
		if m.VertexCount() != 4 || m.FaceCount() != 2 {
			t.Errorf("PlaneMesh(1.0, %d) = %d vertices, %d faces, want 4 and 2",
				n, m.VertexCount(), m.FaceCount())
		}
	}
}

// ===== Geometry =====

func TestSphereMesh_OnSurface(t *testing.T) {
	const radius = 2.0
	m := SphereMesh(radius, 1)
	for i, v := range m.Vertices {
		if !almostEqual(v.Norm(), radius, 1e-9) {
			t.Fatalf("vertex %d at distance %g, want %g", i, v.Norm(), radius)
		}
	}
}

func TestCylinderMesh_OnSurface(t *testing.T) {
	const (
		radius = 1.5
		height = 3.0
	)
	m := CylinderMesh(radius, height, 1)

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for i, v := range m.Vertices {
		if !almostEqual(math.Hypot(v.X, v.Y), radius, 1e-9) {
			t.Fatalf("vertex %d at radial distance %g, want %g", i, math.Hypot(v.X, v.Y), radius)
		}
		minZ = math.Min(minZ, v.Z)
		maxZ = math.Max(maxZ, v.Z)
	}
	if !almostEqual(minZ, -height/2, 1e-12) || !almostEqual(maxZ, height/2, 1e-12) {
		t.Errorf("z spans [%g, %g], want [%g, %g]", minZ, maxZ, -height/2, height/2)
	}
}

func TestSaddleMesh_HeightFunction(t *testing.T) {
	const scale = 1.5
	m := SaddleMesh(scale, 0)
	for i, v := range m.Vertices {
		want := (v.X*v.X - v.Y*v.Y) / scale
		if !almostEqual(v.Z, want, 1e-12) {
			t.Fatalf("vertex %d: z = %g, want %g", i, v.Z, want)
		}
		if v.X < -scale-1e-12 || v.X > scale+1e-12 {
			t.Fatalf("vertex %d: x = %g outside [-%g, %g]", i, v.X, scale, scale)
		}
	}
}

func TestTorusMesh_TubeDistance(t *testing.T) {
	const (
		major = 2.0
		minor = 0.5
	)
	m := TorusMesh(major, minor, 1)
	for i, v := range m.Vertices {
		ring := math.Hypot(v.X, v.Y)
		dist := math.Hypot(ring-major, v.Z)
		if !almostEqual(dist, minor, 1e-9) {
			t.Fatalf("vertex %d at tube distance %g, want %g", i, dist, minor)
		}
	}
}

func TestPlaneMesh_FlatAndCentered(t *testing.T) {
	const size = 2.0
	m := PlaneMesh(size, 6)

	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, v := range m.Vertices {
		if v.Z != 0 {
			t.Fatalf("vertex %d: z = %g, want 0", i, v.Z)
		}
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
	}
	if !almostEqual(minX, -size/2, 1e-12) || !almostEqual(maxX, size/2, 1e-12) {
		t.Errorf("x spans [%g, %g], want [%g, %g]", minX, maxX, -size/2, size/2)
	}
}

// ===== Orientation =====

// The closed and curved generators agree on orientation: normals point
// to the concave side, which keeps discrete mean curvature positive.

func TestSphereMesh_WindsInward(t *testing.T) {
	m := SphereMesh(1.0, 1)
	for f, face := range m.Faces {
		if faceNormal(m, face).Dot(faceCentroid(m, face)) >= 0 {
			t.Fatalf("face %d winds outward", f)
		}
	}
}

func TestCylinderMesh_WindsInward(t *testing.T) {
	m := CylinderMesh(1.0, 2.0, 1)
	for f, face := range m.Faces {
		c := faceCentroid(m, face)
		radial := r3.Vector{X: c.X, Y: c.Y}
		if faceNormal(m, face).Dot(radial) >= 0 {
			t.Fatalf("face %d winds outward", f)
		}
	}
}

func TestTorusMesh_WindsIntoTube(t *testing.T) {
	const (
		major = 2.0
		minor = 0.5
	)
	m := TorusMesh(major, minor, 1)
	for f, face := range m.Faces {
		c := faceCentroid(m, face)
		theta := math.Atan2(c.Y, c.X)
		tubeCenter := r3.Vector{X: major * math.Cos(theta), Y: major * math.Sin(theta)}
		if faceNormal(m, face).Dot(c.Sub(tubeCenter)) >= 0 {
			t.Fatalf("face %d winds out of the tube", f)
		}
	}
}

// ===== Validity =====

func TestGenerators_ProduceValidMeshes(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
	}{
		{"sphere", SphereMesh(1.0, 1)},
		{"cylinder", CylinderMesh(1.0, 2.0, 1)},
		{"saddle", SaddleMesh(1.0, 1)},
		{"torus", TorusMesh(2.0, 0.5, 1)},
		{"plane", PlaneMesh(2.0, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMesh(tt.mesh.Vertices, tt.mesh.Faces); err != nil {
				t.Errorf("NewMesh() = %v", err)
			}
		})
	}
}
