// Package grid builds the padded boolean solid/void grid that extrusion
// works on. The grid is immutable after construction: a fixed cell size in
// millimeters, a solid border frame, and one bit per cell.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/mylar3d/mylar/pkg/raster"
)

// DefaultMaxResolution caps the wider raster axis before meshing. It bounds
// the worst-case triangle count for arbitrarily large uploads.
const DefaultMaxResolution = 400

// voidThreshold separates cutout from solid: samples at or above it are void.
const voidThreshold = 128

// ErrInvalidParameter reports an out-of-range preprocessing parameter.
var ErrInvalidParameter = errors.New("invalid parameter")

// Options control grid preprocessing.
type Options struct {
	WidthMM       float64 // target physical width including the border, > 0
	BorderMM      float64 // requested border thickness, >= 0
	MaxResolution int     // cell ceiling on the wider axis; 0 selects the default
}

// Validate rejects out-of-range options.
func (o Options) Validate() error {
	if o.WidthMM <= 0 {
		return fmt.Errorf("%w: width_mm must be positive, got %g", ErrInvalidParameter, o.WidthMM)
	}
	if o.BorderMM < 0 {
		return fmt.Errorf("%w: border_mm must be non-negative, got %g", ErrInvalidParameter, o.BorderMM)
	}
	if o.MaxResolution < 0 {
		return fmt.Errorf("%w: max resolution must be non-negative, got %d", ErrInvalidParameter, o.MaxResolution)
	}
	return nil
}

// Grid is the padded solid/void raster plus its physical cell size.
type Grid struct {
	rows, cols int
	cellSize   float64 // mm per cell edge
	solid      []bool
	solidCount int
}

// Build classifies the raster into a solid grid: downscale to the resolution
// ceiling with nearest-neighbor sampling, frame it with solid border cells,
// and fix the cell size from the padded column count so the physical width
// is exact regardless of border size.
func Build(r *raster.Raster, opts Options) (*Grid, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if r == nil || r.W < 1 || r.H < 1 {
		return nil, fmt.Errorf("%w: empty raster", ErrInvalidParameter)
	}

	maxRes := opts.MaxResolution
	if maxRes == 0 {
		maxRes = DefaultMaxResolution
	}
	if r.W >= r.H && r.W > maxRes {
		h := r.H * maxRes / r.W
		if h < 1 {
			h = 1
		}
		r = r.Resize(maxRes, h)
	} else if r.H > r.W && r.H > maxRes {
		w := r.W * maxRes / r.H
		if w < 1 {
			w = 1
		}
		r = r.Resize(w, maxRes)
	}

	// Border thickness in cells from the provisional cell size. The frame is
	// always at least one cell so every stencil has a solid rim to hold it
	// together.
	provisional := opts.WidthMM / float64(r.W)
	border := int(math.Round(opts.BorderMM / provisional))
	if border < 1 {
		border = 1
	}

	cols := r.W + 2*border
	rows := r.H + 2*border

	g := &Grid{
		rows: rows,
		cols: cols,
		// Recomputed from the padded column count; the provisional size would
		// overshoot the physical width by about twice the border.
		cellSize: opts.WidthMM / float64(cols),
		solid:    make([]bool, rows*cols),
	}

	// Border cells are solid; the interior follows the classifier threshold.
	for i := range g.solid {
		g.solid[i] = true
	}
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			g.solid[(y+border)*cols+(x+border)] = r.Pix[y*r.W+x] < voidThreshold
		}
	}
	for _, s := range g.solid {
		if s {
			g.solidCount++
		}
	}
	return g, nil
}

// FromSolid builds a grid directly from a solid bitmap. All rows must have
// equal length. Intended for meshing synthetic grids and tests; no border is
// added and no validation beyond shape is performed.
func FromSolid(solid [][]bool, cellSize float64) *Grid {
	rows := len(solid)
	cols := 0
	if rows > 0 {
		cols = len(solid[0])
	}
	g := &Grid{rows: rows, cols: cols, cellSize: cellSize, solid: make([]bool, rows*cols)}
	for y, rowBits := range solid {
		for x, s := range rowBits {
			if s {
				g.solid[y*cols+x] = true
				g.solidCount++
			}
		}
	}
	return g
}

// Rows returns the padded row count.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the padded column count.
func (g *Grid) Cols() int { return g.cols }

// CellSize returns the physical length of one cell edge in millimeters.
func (g *Grid) CellSize() float64 { return g.cellSize }

// WidthMM returns the physical grid width.
func (g *Grid) WidthMM() float64 { return float64(g.cols) * g.cellSize }

// HeightMM returns the physical grid height.
func (g *Grid) HeightMM() float64 { return float64(g.rows) * g.cellSize }

// Solid reports whether the cell at (row, col) is solid. Cells outside the
// grid are void, so every boundary cell has an implicit void neighbor.
func (g *Grid) Solid(row, col int) bool {
	if row < 0 || col < 0 || row >= g.rows || col >= g.cols {
		return false
	}
	return g.solid[row*g.cols+col]
}

// SolidCount returns the number of solid cells.
func (g *Grid) SolidCount() int { return g.solidCount }

// ExposedEdgeCount returns the number of solid-cell edges bordering a void
// cell or the grid boundary. Each exposed edge yields one side quad.
func (g *Grid) ExposedEdgeCount() int {
	var n int
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			if !g.Solid(row, col) {
				continue
			}
			if !g.Solid(row, col-1) {
				n++
			}
			if !g.Solid(row, col+1) {
				n++
			}
			if !g.Solid(row-1, col) {
				n++
			}
			if !g.Solid(row+1, col) {
				n++
			}
		}
	}
	return n
}
