package lens

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
)

func TestCurvatureData_Kind(t *testing.T) {
	tests := []struct {
		name string
		data CurvatureData
		want SurfaceKind
	}{
		{"flat", CurvatureData{}, SurfacePlanar},
		{"near zero", CurvatureData{Gaussian: 5e-7, Mean: 5e-7}, SurfacePlanar},
		{"cylinder like", CurvatureData{Gaussian: 0, Mean: 0.5}, SurfaceParabolic},
		{"tiny gaussian", CurvatureData{Gaussian: 5e-7, Mean: 2e-6}, SurfaceParabolic},
		{"sphere like", CurvatureData{Gaussian: 1, Mean: 1}, SurfaceElliptic},
		{"barely elliptic", CurvatureData{Gaussian: 2e-6, Mean: 1}, SurfaceElliptic},
		{"saddle like", CurvatureData{Gaussian: -1, Mean: 0}, SurfaceHyperbolic},
		{"barely hyperbolic", CurvatureData{Gaussian: -2e-6, Mean: 0}, SurfaceHyperbolic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSurfaceKindString(t *testing.T) {
	tests := []struct {
		kind SurfaceKind
		want string
	}{
		{SurfaceUnknown, "unknown"},
		{SurfaceElliptic, "elliptic"},
		{SurfaceHyperbolic, "hyperbolic"},
		{SurfaceParabolic, "parabolic"},
		{SurfacePlanar, "planar"},
		{SurfaceKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("SurfaceKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestVertexCurvature_IsolatedVertex(t *testing.T) {
	m := &Mesh{
		Vertices: []r3.Vector{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 5, Y: 5, Z: 5}, // not referenced by any face
		},
		Faces: [][]int{{0, 1, 2}},
	}
	est := NewEstimator(m)

	if got := est.VertexCurvature(3); got != (CurvatureData{}) {
		t.Errorf("isolated vertex curvature = %+v, want zero record", got)
	}
	// A single triangle's vertices have two-vertex rings, also zero.
	if got := est.VertexCurvature(0); got != (CurvatureData{}) {
		t.Errorf("two-ring vertex curvature = %+v, want zero record", got)
	}
}

func TestFaceNormals_DegenerateFallback(t *testing.T) {
	m := &Mesh{
		Vertices: []r3.Vector{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 2, Y: 0, Z: 0}, // collinear
		},
		Faces: [][]int{{0, 1, 2}},
	}
	est := NewEstimator(m)

	want := r3.Vector{Z: 1}
	if got := est.FaceNormals()[0]; got != want {
		t.Errorf("degenerate face normal = %v, want %v", got, want)
	}
}

func TestSphereCurvature(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
	}{
		{"unit", 1.0},
		{"radius2", 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radius := tt.radius
			m := SphereMesh(radius, 2)
			est := NewEstimator(m)
			curvs := est.AllFaceCurvatures()

			wantH := 1 / radius
			wantK := 1 / (radius * radius)

			var errH, errK, errK1, errK2, sumH float64
			elliptic := 0
			for _, c := range curvs {
				errH += math.Abs(c.Mean-wantH) / wantH
				errK += math.Abs(c.Gaussian-wantK) / wantK
				errK1 += math.Abs(c.PrincipalMin-wantH) / wantH
				errK2 += math.Abs(c.PrincipalMax-wantH) / wantH
				sumH += c.Mean
				if c.Kind() == SurfaceElliptic {
					elliptic++
				}
			}
			n := float64(len(curvs))

			if mean := errH / n; mean > 0.35 {
				t.Errorf("mean curvature error = %.3f, want <= 0.35", mean)
			}
			if mean := errK / n; mean > 0.35 {
				t.Errorf("gaussian curvature error = %.3f, want <= 0.35", mean)
			}
			// The principal split sqrt(H^2-K) amplifies the noise in
			// K, so the per-principal error runs well above the H and
			// K errors even though the estimates straddle 1/r.
			if mean := errK1 / n; mean > 1.5 {
				t.Errorf("principal min error = %.3f, want <= 1.5", mean)
			}
			if mean := errK2 / n; mean > 1.5 {
				t.Errorf("principal max error = %.3f, want <= 1.5", mean)
			}
			if sumH <= 0 {
				t.Error("mean curvature should be positive on a sphere")
			}
			if frac := float64(elliptic) / n; frac < 0.9 {
				t.Errorf("elliptic fraction = %.3f, want >= 0.9", frac)
			}
		})
	}
}

func TestPlaneCurvature(t *testing.T) {
	const size = 2.0
	m := PlaneMesh(size, 20)
	est := NewEstimator(m)
	curvs := est.AllFaceCurvatures()

	inside := func(v r3.Vector) bool {
		limit := size/2 - 1e-9
		return math.Abs(v.X) < limit && math.Abs(v.Y) < limit
	}

	interior := 0
	for f, face := range m.Faces {
		interiorFace := true
		for _, v := range face {
			if !inside(m.Vertices[v]) {
				interiorFace = false
				break
			}
		}
		if !interiorFace {
			continue
		}
		interior++

		c := curvs[f]
		if math.Abs(c.Mean) > 0.01 {
			t.Errorf("face %d: |H| = %g, want < 0.01", f, math.Abs(c.Mean))
		}
		if math.Abs(c.Gaussian) > 0.01 {
			t.Errorf("face %d: |K| = %g, want < 0.01", f, math.Abs(c.Gaussian))
		}
		if kind := c.Kind(); kind != SurfacePlanar {
			t.Errorf("face %d: kind = %v, want planar", f, kind)
		}
	}
	if interior == 0 {
		t.Fatal("no interior faces found")
	}
}

func TestCylinderCurvature(t *testing.T) {
	const (
		radius = 1.0
		height = 2.0
	)
	m := CylinderMesh(radius, height, 2)
	est := NewEstimator(m)
	curvs := est.AllFaceCurvatures()

	// Stay away from the open ends, where boundary vertices see only a
	// partial angle sum.
	dz := height / float64(1<<(2+2))
	limit := height/2 - dz/2

	checked := 0
	var sumH float64
	for f, face := range m.Faces {
		interiorFace := true
		for _, v := range face {
			if math.Abs(m.Vertices[v].Z) > limit {
				interiorFace = false
				break
			}
		}
		if !interiorFace {
			continue
		}
		checked++
		sumH += curvs[f].Mean

		if kind := curvs[f].Kind(); kind != SurfaceParabolic {
			t.Errorf("face %d: kind = %v, want parabolic", f, kind)
		}
		if math.Abs(curvs[f].Gaussian) > 1e-6 {
			t.Errorf("face %d: |K| = %g, want ~0 on a developable surface", f, curvs[f].Gaussian)
		}
	}

	if checked == 0 {
		t.Fatal("no interior faces found")
	}
	if sumH <= 0 {
		t.Error("mean curvature should be positive on the cylinder wall")
	}
}

func TestSaddleCurvature(t *testing.T) {
	m := SaddleMesh(1.0, 3)
	est := NewEstimator(m)
	curvs := est.AllFaceCurvatures()

	centroid := func(face []int) r3.Vector {
		var c r3.Vector
		for _, v := range face {
			c = c.Add(m.Vertices[v])
		}
		return c.Mul(1 / float64(len(face)))
	}

	center := 0
	hyperbolic := 0
	for f, face := range m.Faces {
		c := centroid(face)
		if math.Hypot(c.X, c.Y) >= 0.3 {
			continue
		}
		center++

		cv := curvs[f]
		if cv.Gaussian >= 0 {
			t.Errorf("face %d: K = %g, want negative near the saddle point", f, cv.Gaussian)
		}
		if cv.PrincipalMin >= 0 || cv.PrincipalMax <= 0 {
			t.Errorf("face %d: principal curvatures %g, %g, want opposite signs",
				f, cv.PrincipalMin, cv.PrincipalMax)
		}
		if math.Abs(cv.Mean) > 0.5 {
			t.Errorf("face %d: |H| = %g, want < 0.5 near the saddle point", f, math.Abs(cv.Mean))
		}
		if cv.Kind() == SurfaceHyperbolic {
			hyperbolic++
		}
	}

	if center == 0 {
		t.Fatal("no faces near the saddle point")
	}
	if hyperbolic == 0 {
		t.Error("expected hyperbolic faces near the saddle point")
	}
}

func TestTorusCurvature(t *testing.T) {
	const (
		major = 2.0
		minor = 0.5
	)
	m := TorusMesh(major, minor, 2)
	est := NewEstimator(m)
	curvs := est.AllFaceCurvatures()

	centroid := func(face []int) r3.Vector {
		var c r3.Vector
		for _, v := range face {
			c = c.Add(m.Vertices[v])
		}
		return c.Mul(1 / float64(len(face)))
	}

	outer, outerElliptic, outerPositiveH := 0, 0, 0
	inner, innerHyperbolic := 0, 0
	for f, face := range m.Faces {
		ring := math.Hypot(centroid(face).X, centroid(face).Y)
		switch {
		case ring > major+0.5*minor:
			outer++
			if curvs[f].Kind() == SurfaceElliptic {
				outerElliptic++
			}
			if curvs[f].Mean > 0 {
				outerPositiveH++
			}
		case ring < major-0.5*minor:
			inner++
			if curvs[f].Kind() == SurfaceHyperbolic {
				innerHyperbolic++
			}
		}
	}

	if outer == 0 || inner == 0 {
		t.Fatalf("bands empty: outer=%d inner=%d", outer, inner)
	}
	if frac := float64(outerElliptic) / float64(outer); frac < 0.9 {
		t.Errorf("outer elliptic fraction = %.3f, want >= 0.9", frac)
	}
	if frac := float64(outerPositiveH) / float64(outer); frac < 0.9 {
		t.Errorf("outer positive-H fraction = %.3f, want >= 0.9", frac)
	}
	if frac := float64(innerHyperbolic) / float64(inner); frac < 0.9 {
		t.Errorf("inner hyperbolic fraction = %.3f, want >= 0.9", frac)
	}
}

func TestFaceCurvatureMatchesBatch(t *testing.T) {
	m := SphereMesh(1.0, 1)
	est := NewEstimator(m)
	batch := est.AllFaceCurvatures()

	for f := range m.Faces {
		if got := est.FaceCurvature(f); got != batch[f] {
			t.Errorf("face %d: FaceCurvature = %+v, AllFaceCurvatures = %+v", f, got, batch[f])
		}
	}
}

func TestAllFaceCurvatures_ParallelMatchesSequential(t *testing.T) {
	m := SaddleMesh(1.0, 2) // large enough to take the parallel path

	sequential := NewEstimator(m, WithWorkers(1)).AllFaceCurvatures()
	parallel := NewEstimator(m, WithWorkers(4)).AllFaceCurvatures()

	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel result differs from sequential (-sequential +parallel):\n%s", diff)
	}
}

func TestAllFaceCurvatures_EmptyMesh(t *testing.T) {
	est := NewEstimator(&Mesh{})
	if got := est.AllFaceCurvatures(); len(got) != 0 {
		t.Errorf("AllFaceCurvatures() on empty mesh = %v, want empty", got)
	}
}

func TestVertexNormalsRadialOnSphere(t *testing.T) {
	m := SphereMesh(1.0, 2)
	est := NewEstimator(m)
	normals := est.VertexNormals()

	for v, n := range normals {
		if !almostEqual(n.Norm(), 1, 1e-9) {
			t.Errorf("vertex %d: |normal| = %g, want 1", v, n.Norm())
		}
		radial := m.Vertices[v].Normalize()
		if dot := n.Dot(radial); dot > -0.85 {
			t.Errorf("vertex %d: normal.radial = %g, want close to -1", v, dot)
		}
	}
}

func TestVertexAreasCoverSphere(t *testing.T) {
	m := SphereMesh(1.0, 2)
	est := NewEstimator(m)

	var total float64
	for _, a := range est.VertexAreas() {
		total += a
	}

	want := 4 * math.Pi
	if math.Abs(total-want)/want > 0.1 {
		t.Errorf("total vertex area = %g, want within 10%% of %g", total, want)
	}
}
