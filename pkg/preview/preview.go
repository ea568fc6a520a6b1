// Package preview renders a viewer mesh from the solid grid using the sdfx
// geometry kernel. The grid is presented as a signed distance field and
// meshed with marching cubes, which gives the frontend a mesh with per-vertex
// normals. Preview output is display-only; the printable STL path uses the
// exact extruder in pkg/mesh.
package preview

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/mylar3d/mylar/pkg/grid"
)

// defaultCells controls marching cubes tessellation resolution.
const defaultCells = 128

// Mesh is the JSON-serializable viewer mesh. All arrays are flat: three
// floats per vertex and normal, three uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Compile-time interface check.
var _ sdf.SDF3 = (*plateSDF)(nil)

// plateSDF presents the extruded solid grid as a signed distance field.
// The in-plane term is a coarse half-cell bound; marching cubes only needs
// the sign to flip inside the correct cell to place the surface.
type plateSDF struct {
	g         *grid.Grid
	thickness float64
}

// Evaluate returns the signed distance at p, negative inside the plate.
func (s *plateSDF) Evaluate(p v3.Vec) float64 {
	cell := s.g.CellSize()
	col := int(math.Floor(p.X / cell))
	row := int(math.Floor(p.Y / cell))

	dxy := cell / 2
	if s.g.Solid(row, col) {
		dxy = -dxy
	}
	dz := math.Max(-p.Z, p.Z-s.thickness)
	return math.Max(dxy, dz)
}

// BoundingBox returns the meshing region, one cell beyond the plate.
func (s *plateSDF) BoundingBox() sdf.Box3 {
	cell := s.g.CellSize()
	return sdf.Box3{
		Min: v3.Vec{X: -cell, Y: -cell, Z: -cell},
		Max: v3.Vec{X: s.g.WidthMM() + cell, Y: s.g.HeightMM() + cell, Z: s.thickness + cell},
	}
}

// Generate meshes the grid with marching cubes at the given resolution.
// cells <= 0 selects the default.
func Generate(g *grid.Grid, thicknessMM float64, cells int) (*Mesh, error) {
	if g == nil {
		return nil, errors.New("preview: nil grid")
	}
	if thicknessMM <= 0 {
		return nil, errors.New("preview: thickness must be positive")
	}
	if cells <= 0 {
		cells = defaultCells
	}

	s := &plateSDF{g: g, thickness: thicknessMM}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	numVerts := len(triangles) * 3
	m := &Mesh{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, nx, ny, nz)
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}
