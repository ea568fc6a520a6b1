// Package mesh turns a solid grid into a watertight triangle surface by
// axis-aligned extrusion. Every solid cell gets a top and bottom quad; a
// side quad is emitted only where an edge borders void or the grid boundary,
// so no internal faces exist and every exposed boundary is covered exactly
// once.
package mesh

// Vec3 is one vertex position in millimeters.
type Vec3 struct {
	X, Y, Z float32
}

// Triangle is three vertices wound counter-clockwise when viewed from the
// outward side of the face. No normal is stored; consumers recompute it from
// the vertex order.
type Triangle struct {
	A, B, C Vec3
}

// Mesh is an ordered triangle soup. The order is insignificant to consumers
// but deterministic: row-major cell order, and within a cell top, bottom,
// left, right, north, south.
type Mesh struct {
	Triangles []Triangle
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}
