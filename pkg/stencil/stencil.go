// Package stencil wires the full conversion pipeline into one call:
// raster -> padded solid grid -> extruded mesh -> binary STL bytes.
// Both the HTTP handlers and the CLI go through Generate.
package stencil

import (
	"fmt"

	"github.com/mylar3d/mylar/pkg/grid"
	"github.com/mylar3d/mylar/pkg/mesh"
	"github.com/mylar3d/mylar/pkg/raster"
	"github.com/mylar3d/mylar/pkg/stl"
)

// Params are the caller-supplied conversion parameters.
type Params struct {
	WidthMM       float64 // target physical width including border, > 0
	ThicknessMM   float64 // extrusion height, > 0
	BorderMM      float64 // solid border thickness, >= 0
	MaxResolution int     // cell ceiling on the wider axis; 0 selects the default
	Workers       int     // row-band emission workers; <= 1 is sequential
}

// Validate rejects parameters that would produce nonsensical geometry
// (inverted extrusion, negative cell size) instead of propagating them.
func (p Params) Validate() error {
	if p.ThicknessMM <= 0 {
		return fmt.Errorf("%w: thickness_mm must be positive, got %g", grid.ErrInvalidParameter, p.ThicknessMM)
	}
	return grid.Options{WidthMM: p.WidthMM, BorderMM: p.BorderMM, MaxResolution: p.MaxResolution}.Validate()
}

// Stats describe one finished conversion.
type Stats struct {
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	CellSizeMM float64 `json:"cell_size_mm"`
	SolidCells int     `json:"solid_cells"`
	Triangles  int     `json:"triangles"`
	SizeBytes  int     `json:"size_bytes"`
}

// Degenerate reports whether the conversion hit the all-void fallback and
// produced the minimal single-triangle mesh.
func (s Stats) Degenerate() bool {
	return s.SolidCells == 0
}

// Generate converts a raster mask into binary STL bytes.
func Generate(r *raster.Raster, p Params) ([]byte, Stats, error) {
	if err := p.Validate(); err != nil {
		return nil, Stats{}, err
	}
	g, err := grid.Build(r, grid.Options{
		WidthMM:       p.WidthMM,
		BorderMM:      p.BorderMM,
		MaxResolution: p.MaxResolution,
	})
	if err != nil {
		return nil, Stats{}, err
	}

	var m *mesh.Mesh
	if p.Workers > 1 {
		m = mesh.ExtrudeParallel(g, p.ThicknessMM, p.Workers)
	} else {
		m = mesh.Extrude(g, p.ThicknessMM)
	}

	out := stl.Encode(m)
	return out, Stats{
		Rows:       g.Rows(),
		Cols:       g.Cols(),
		CellSizeMM: g.CellSize(),
		SolidCells: g.SolidCount(),
		Triangles:  m.TriangleCount(),
		SizeBytes:  len(out),
	}, nil
}

// GenerateBytes decodes encoded image bytes and converts them. Decode
// failures wrap raster.ErrDecode.
func GenerateBytes(data []byte, p Params) ([]byte, Stats, error) {
	r, err := raster.Decode(data)
	if err != nil {
		return nil, Stats{}, err
	}
	return Generate(r, p)
}
