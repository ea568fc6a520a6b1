package mesh

import (
	"sync"

	"github.com/mylar3d/mylar/pkg/grid"
)

// Extrude builds the extruded surface for a solid grid. The transform is
// pure: per solid cell it emits 2 top triangles (+z), 2 bottom triangles
// (-z), and 2 triangles for each of the cell's exposed edges, wound so the
// face normal points away from the cell. An all-void grid yields a single
// minimal triangle so the encoder always has something to serialize.
func Extrude(g *grid.Grid, thicknessMM float64) *Mesh {
	tris := make([]Triangle, 0, 4*g.SolidCount()+2)
	emitRows(g, thicknessMM, 0, g.Rows(), &tris)
	if len(tris) == 0 {
		tris = append(tris, fallbackTriangle())
	}
	return &Mesh{Triangles: tris}
}

// ExtrudeParallel is Extrude split across row bands. Cells only read their
// neighbors, so bands share no mutable state; concatenating the per-band
// buffers in band order reproduces the sequential triangle order exactly,
// keeping the encoded output independent of the worker count.
func ExtrudeParallel(g *grid.Grid, thicknessMM float64, workers int) *Mesh {
	rows := g.Rows()
	if workers <= 1 || rows < 2 {
		return Extrude(g, thicknessMM)
	}
	if workers > rows {
		workers = rows
	}

	bands := make([][]Triangle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		r0 := i * rows / workers
		r1 := (i + 1) * rows / workers
		wg.Add(1)
		go func(i, r0, r1 int) {
			defer wg.Done()
			emitRows(g, thicknessMM, r0, r1, &bands[i])
		}(i, r0, r1)
	}
	wg.Wait()

	var tris []Triangle
	for _, b := range bands {
		tris = append(tris, b...)
	}
	if len(tris) == 0 {
		tris = append(tris, fallbackTriangle())
	}
	return &Mesh{Triangles: tris}
}

func emitRows(g *grid.Grid, thickness float64, r0, r1 int, out *[]Triangle) {
	cell := g.CellSize()
	for row := r0; row < r1; row++ {
		y0 := float32(float64(row) * cell)
		y1 := float32(float64(row+1) * cell)
		for col := 0; col < g.Cols(); col++ {
			if !g.Solid(row, col) {
				continue
			}
			x0 := float32(float64(col) * cell)
			x1 := float32(float64(col+1) * cell)
			emitCell(g, row, col, x0, x1, y0, y1, float32(thickness), out)
		}
	}
}

// emitCell appends the faces for one solid cell. zb is always 0.
func emitCell(g *grid.Grid, row, col int, x0, x1, y0, y1, zt float32, out *[]Triangle) {
	const zb = 0

	// Top face, counter-clockwise viewed from +z.
	*out = append(*out,
		Triangle{Vec3{x0, y0, zt}, Vec3{x1, y0, zt}, Vec3{x1, y1, zt}},
		Triangle{Vec3{x0, y0, zt}, Vec3{x1, y1, zt}, Vec3{x0, y1, zt}},
	)
	// Bottom face, reversed so the normal points toward -z.
	*out = append(*out,
		Triangle{Vec3{x0, y0, zb}, Vec3{x1, y1, zb}, Vec3{x1, y0, zb}},
		Triangle{Vec3{x0, y0, zb}, Vec3{x0, y1, zb}, Vec3{x1, y1, zb}},
	)

	if !g.Solid(row, col-1) { // left edge exposed, normal -x
		*out = append(*out,
			Triangle{Vec3{x0, y0, zb}, Vec3{x0, y0, zt}, Vec3{x0, y1, zt}},
			Triangle{Vec3{x0, y0, zb}, Vec3{x0, y1, zt}, Vec3{x0, y1, zb}},
		)
	}
	if !g.Solid(row, col+1) { // right edge exposed, normal +x
		*out = append(*out,
			Triangle{Vec3{x1, y0, zb}, Vec3{x1, y1, zt}, Vec3{x1, y0, zt}},
			Triangle{Vec3{x1, y0, zb}, Vec3{x1, y1, zb}, Vec3{x1, y1, zt}},
		)
	}
	if !g.Solid(row-1, col) { // north edge exposed, normal -y
		*out = append(*out,
			Triangle{Vec3{x0, y0, zb}, Vec3{x1, y0, zt}, Vec3{x0, y0, zt}},
			Triangle{Vec3{x0, y0, zb}, Vec3{x1, y0, zb}, Vec3{x1, y0, zt}},
		)
	}
	if !g.Solid(row+1, col) { // south edge exposed, normal +y
		*out = append(*out,
			Triangle{Vec3{x0, y1, zb}, Vec3{x0, y1, zt}, Vec3{x1, y1, zt}},
			Triangle{Vec3{x0, y1, zb}, Vec3{x1, y1, zt}, Vec3{x1, y1, zb}},
		)
	}
}

// fallbackTriangle is the unit right triangle emitted for an all-void grid.
func fallbackTriangle() Triangle {
	return Triangle{Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}}
}
