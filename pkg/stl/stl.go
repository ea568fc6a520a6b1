// Package stl encodes triangle meshes in the binary STL format consumed by
// slicers and CAD tools: an 80-byte zero header, a little-endian uint32
// triangle count, then one 50-byte record per triangle. Normals are written
// as zero; consumers recompute them from the vertex winding.
package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mylar3d/mylar/pkg/mesh"
)

const (
	headerSize = 80
	recordSize = 50
)

// record matches the 50-byte binary STL triangle layout.
type record struct {
	Normal [3]float32
	Verts  [3][3]float32
	Attr   uint16
}

// Encode serializes the mesh into a binary STL byte buffer. The output is
// deterministic: encoding the same mesh twice yields identical bytes, and
// the total length is always 84 + 50*n.
func Encode(m *mesh.Mesh) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+4+recordSize*len(m.Triangles)))
	// bytes.Buffer writes cannot fail.
	_ = Write(buf, m)
	return buf.Bytes()
}

// Write streams the binary STL encoding of m to w.
func Write(w io.Writer, m *mesh.Mesh) error {
	var header [headerSize]byte
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("stl: write triangle count: %w", err)
	}
	for i, t := range m.Triangles {
		rec := record{
			Verts: [3][3]float32{
				{t.A.X, t.A.Y, t.A.Z},
				{t.B.X, t.B.Y, t.B.Z},
				{t.C.X, t.C.Y, t.C.Z},
			},
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("stl: write triangle %d: %w", i, err)
		}
	}
	return nil
}

// Read decodes a binary STL stream back into a mesh, preserving triangle
// order. Normals and attribute bytes are discarded.
func Read(r io.Reader) (*mesh.Mesh, error) {
	var header struct {
		H    [headerSize]byte
		NTri uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("stl: read header: %w", err)
	}

	m := &mesh.Mesh{Triangles: make([]mesh.Triangle, 0, header.NTri)}
	for i := 0; i < int(header.NTri); i++ {
		var rec record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("stl: read triangle %d: %w", i, err)
		}
		m.Triangles = append(m.Triangles, mesh.Triangle{
			A: mesh.Vec3{X: rec.Verts[0][0], Y: rec.Verts[0][1], Z: rec.Verts[0][2]},
			B: mesh.Vec3{X: rec.Verts[1][0], Y: rec.Verts[1][1], Z: rec.Verts[1][2]},
			C: mesh.Vec3{X: rec.Verts[2][0], Y: rec.Verts[2][1], Z: rec.Verts[2][2]},
		})
	}
	return m, nil
}
