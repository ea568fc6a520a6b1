package mesh_test

import (
	"reflect"
	"testing"

	"github.com/mylar3d/mylar/pkg/grid"
	"github.com/mylar3d/mylar/pkg/mesh"
)

// gridFrom builds a grid from rows of '#' (solid) and '.' (void).
func gridFrom(t *testing.T, cellSize float64, rows ...string) *grid.Grid {
	t.Helper()
	solid := make([][]bool, len(rows))
	for y, row := range rows {
		solid[y] = make([]bool, len(row))
		for x, c := range row {
			solid[y][x] = c == '#'
		}
	}
	return grid.FromSolid(solid, cellSize)
}

// normal returns the (unnormalized) face normal from the winding order.
func normal(tr mesh.Triangle) [3]float64 {
	ax := float64(tr.B.X - tr.A.X)
	ay := float64(tr.B.Y - tr.A.Y)
	az := float64(tr.B.Z - tr.A.Z)
	bx := float64(tr.C.X - tr.A.X)
	by := float64(tr.C.Y - tr.A.Y)
	bz := float64(tr.C.Z - tr.A.Z)
	return [3]float64{ay*bz - az*by, az*bx - ax*bz, ax*by - ay*bx}
}

// axisOf classifies a normal as one of +x -x +y -y +z -z.
func axisOf(t *testing.T, n [3]float64) string {
	t.Helper()
	switch {
	case n[0] > 0 && n[1] == 0 && n[2] == 0:
		return "+x"
	case n[0] < 0 && n[1] == 0 && n[2] == 0:
		return "-x"
	case n[1] > 0 && n[0] == 0 && n[2] == 0:
		return "+y"
	case n[1] < 0 && n[0] == 0 && n[2] == 0:
		return "-y"
	case n[2] > 0 && n[0] == 0 && n[1] == 0:
		return "+z"
	case n[2] < 0 && n[0] == 0 && n[1] == 0:
		return "-z"
	}
	t.Fatalf("normal %v is not axis-aligned", n)
	return ""
}

func TestIsolatedCellEmitsTwelveTriangles(t *testing.T) {
	g := gridFrom(t, 2, "#")
	m := mesh.Extrude(g, 1.5)
	if m.TriangleCount() != 12 {
		t.Fatalf("isolated cell: %d triangles, want 12", m.TriangleCount())
	}

	// Two triangles per face, all six outward directions present.
	counts := map[string]int{}
	for _, tr := range m.Triangles {
		counts[axisOf(t, normal(tr))]++
	}
	for _, axis := range []string{"+x", "-x", "+y", "-y", "+z", "-z"} {
		if counts[axis] != 2 {
			t.Errorf("axis %s: %d triangles, want 2", axis, counts[axis])
		}
	}
}

func TestWindingPointsOutward(t *testing.T) {
	// For an isolated cell every face normal must point away from the cell
	// center. A single inverted case here produces a non-manifold mesh.
	const cell = 2.0
	const thickness = 1.0
	g := gridFrom(t, cell, "#")
	m := mesh.Extrude(g, thickness)

	center := [3]float64{cell / 2, cell / 2, thickness / 2}
	for i, tr := range m.Triangles {
		n := normal(tr)
		cx := (float64(tr.A.X) + float64(tr.B.X) + float64(tr.C.X)) / 3
		cy := (float64(tr.A.Y) + float64(tr.B.Y) + float64(tr.C.Y)) / 3
		cz := (float64(tr.A.Z) + float64(tr.B.Z) + float64(tr.C.Z)) / 3
		dot := n[0]*(cx-center[0]) + n[1]*(cy-center[1]) + n[2]*(cz-center[2])
		if dot <= 0 {
			t.Errorf("triangle %d: normal %v points inward (dot %g)", i, n, dot)
		}
	}
}

func TestSideFacesOnlyAtExposedEdges(t *testing.T) {
	// The center cell of a full 3x3 block has no exposed edges and must
	// contribute exactly its 4 top/bottom triangles.
	g := gridFrom(t, 1,
		"###",
		"###",
		"###",
	)
	m := mesh.Extrude(g, 1)
	want := 4*g.SolidCount() + 2*g.ExposedEdgeCount()
	if m.TriangleCount() != want {
		t.Fatalf("3x3 block: %d triangles, want %d", m.TriangleCount(), want)
	}
	// 9 cells * 4 + 12 perimeter edges * 2.
	if want != 60 {
		t.Fatalf("triangle budget = %d, want 60", want)
	}

	// A hole-free block has side faces only on its outer planes; any side
	// face on an interior plane is an internal face the emitter must not
	// produce.
	for i, tr := range m.Triangles {
		n := normal(tr)
		if n[2] != 0 {
			continue // top or bottom face
		}
		if n[0] != 0 {
			if x := tr.A.X; x != 0 && x != 3 {
				t.Errorf("triangle %d: internal face at x=%g", i, x)
			}
		}
		if n[1] != 0 {
			if y := tr.A.Y; y != 0 && y != 3 {
				t.Errorf("triangle %d: internal face at y=%g", i, y)
			}
		}
	}
}

func TestTriangleCountLaw(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"single", []string{"#"}},
		{"row", []string{"####"}},
		{"checker", []string{"#.#", ".#.", "#.#"}},
		{"ring", []string{"###", "#.#", "###"}},
		{"blob", []string{"..#..", ".###.", "#####", ".###.", "..#.."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gridFrom(t, 0.5, tt.rows...)
			m := mesh.Extrude(g, 2)
			want := 4*g.SolidCount() + 2*g.ExposedEdgeCount()
			if m.TriangleCount() != want {
				t.Errorf("%d triangles, want 4*%d + 2*%d = %d",
					m.TriangleCount(), g.SolidCount(), g.ExposedEdgeCount(), want)
			}
		})
	}
}

func TestVertexZValues(t *testing.T) {
	const thickness = 0.8
	g := gridFrom(t, 1, "##.", ".##")
	m := mesh.Extrude(g, thickness)
	for i, tr := range m.Triangles {
		for _, v := range []mesh.Vec3{tr.A, tr.B, tr.C} {
			if v.Z != 0 && v.Z != float32(thickness) {
				t.Fatalf("triangle %d: vertex z = %g, want 0 or %g", i, v.Z, thickness)
			}
		}
	}
}

func TestVertexBounds(t *testing.T) {
	g := gridFrom(t, 1.25, "####", "#..#", "####")
	m := mesh.Extrude(g, 1)
	maxX := float32(g.WidthMM())
	maxY := float32(g.HeightMM())
	const eps = 1e-4
	for i, tr := range m.Triangles {
		for _, v := range []mesh.Vec3{tr.A, tr.B, tr.C} {
			if v.X < -eps || v.X > maxX+eps {
				t.Fatalf("triangle %d: x = %g outside [0, %g]", i, v.X, maxX)
			}
			if v.Y < -eps || v.Y > maxY+eps {
				t.Fatalf("triangle %d: y = %g outside [0, %g]", i, v.Y, maxY)
			}
		}
	}
}

func TestAllVoidFallback(t *testing.T) {
	g := gridFrom(t, 1, "...", "...")
	m := mesh.Extrude(g, 5)
	if m.TriangleCount() != 1 {
		t.Fatalf("all-void grid: %d triangles, want 1", m.TriangleCount())
	}
	want := mesh.Triangle{
		A: mesh.Vec3{X: 0, Y: 0, Z: 0},
		B: mesh.Vec3{X: 1, Y: 0, Z: 0},
		C: mesh.Vec3{X: 0, Y: 1, Z: 0},
	}
	if m.Triangles[0] != want {
		t.Errorf("fallback triangle = %+v, want %+v", m.Triangles[0], want)
	}
}

func TestExtrudeDeterministic(t *testing.T) {
	g := gridFrom(t, 1, "#.#", "###")
	a := mesh.Extrude(g, 1)
	b := mesh.Extrude(g, 1)
	if !reflect.DeepEqual(a.Triangles, b.Triangles) {
		t.Error("two sequential extrusions differ")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	g := gridFrom(t, 0.7,
		"########",
		"#..##..#",
		"#.####.#",
		"##....##",
		"#.####.#",
		"#..##..#",
		"########",
	)
	seq := mesh.Extrude(g, 1.2)
	for _, workers := range []int{2, 3, 4, 16} {
		par := mesh.ExtrudeParallel(g, 1.2, workers)
		if !reflect.DeepEqual(seq.Triangles, par.Triangles) {
			t.Errorf("workers=%d: parallel emission differs from sequential", workers)
		}
	}
}

func TestParallelAllVoidFallback(t *testing.T) {
	g := gridFrom(t, 1, "....", "....", "....")
	m := mesh.ExtrudeParallel(g, 1, 4)
	if m.TriangleCount() != 1 {
		t.Fatalf("all-void parallel: %d triangles, want 1", m.TriangleCount())
	}
}
