package meshgen

import (
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"go.viam.com/voxel/spatialmath"
)

// Mesh is a triangle mesh with per-vertex normals and colors. With Indexed
// set, triangles reference Vertices through Indices; otherwise every three
// consecutive vertices form a triangle. With Smooth set as well, vertices
// shared between triangles are deduplicated and their normals averaged.
type Mesh struct {
	Indexed bool
	Smooth  bool

	Vertices []r3.Vector
	Normals  []r3.Vector
	Colors   []colorful.Color
	Indices  []uint32
}

// NewMesh creates an empty mesh with the given output layout.
func NewMesh(indexed, smooth bool) *Mesh {
	return &Mesh{Indexed: indexed, Smooth: smooth}
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if m.Indexed {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

// Triangles converts the mesh to triangle geometries.
func (m *Mesh) Triangles() []*spatialmath.Triangle {
	count := m.TriangleCount()
	tris := make([]*spatialmath.Triangle, 0, count)
	for i := 0; i < count; i++ {
		var p0, p1, p2 r3.Vector
		if m.Indexed {
			p0 = m.Vertices[m.Indices[3*i]]
			p1 = m.Vertices[m.Indices[3*i+1]]
			p2 = m.Vertices[m.Indices[3*i+2]]
		} else {
			p0 = m.Vertices[3*i]
			p1 = m.Vertices[3*i+1]
			p2 = m.Vertices[3*i+2]
		}
		tris = append(tris, spatialmath.NewTriangle(p0, p1, p2))
	}
	return tris
}

type vertexKey struct {
	x, y, z float64
	color   colorful.Color
}

type vertexEntry struct {
	index     uint32
	count     float64
	sumNormal r3.Vector
}

// meshWriter accumulates kernel output into a Mesh, deduplicating vertices
// when the mesh is indexed and smooth.
type meshWriter struct {
	out    *Mesh
	shared map[vertexKey]*vertexEntry

	color  colorful.Color
	normal r3.Vector
}

func newMeshWriter(out *Mesh) *meshWriter {
	return &meshWriter{out: out, shared: map[vertexKey]*vertexEntry{}}
}

func (w *meshWriter) setColor(c colorful.Color) { w.color = c }
func (w *meshWriter) setNormal(n r3.Vector)     { w.normal = n }

func (w *meshWriter) addVertex(pos r3.Vector) {
	out := w.out
	switch {
	case out.Indexed && out.Smooth:
		key := vertexKey{x: pos.X, y: pos.Y, z: pos.Z, color: w.color}
		entry, ok := w.shared[key]
		if !ok {
			entry = &vertexEntry{index: uint32(len(out.Vertices))}
			out.Vertices = append(out.Vertices, pos)
			out.Normals = append(out.Normals, w.normal)
			out.Colors = append(out.Colors, w.color)
			w.shared[key] = entry
		}
		entry.count++
		entry.sumNormal = entry.sumNormal.Add(w.normal)
		out.Normals[entry.index] = entry.sumNormal.Mul(1 / entry.count)
		out.Indices = append(out.Indices, entry.index)
	case out.Indexed:
		out.Indices = append(out.Indices, uint32(len(out.Vertices)))
		fallthrough
	default:
		out.Vertices = append(out.Vertices, pos)
		out.Normals = append(out.Normals, w.normal)
		out.Colors = append(out.Colors, w.color)
	}
}

// Validate checks the internal consistency of the mesh buffers.
func (m *Mesh) Validate() error {
	if len(m.Normals) != len(m.Vertices) || len(m.Colors) != len(m.Vertices) {
		return errors.Errorf("attribute length mismatch: %d vertices, %d normals, %d colors",
			len(m.Vertices), len(m.Normals), len(m.Colors))
	}
	if m.Indexed {
		if len(m.Indices)%3 != 0 {
			return errors.Errorf("index count %d is not a multiple of 3", len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Vertices) {
				return errors.Errorf("index %d out of range for %d vertices", idx, len(m.Vertices))
			}
		}
	} else if len(m.Vertices)%3 != 0 {
		return errors.Errorf("vertex count %d is not a multiple of 3", len(m.Vertices))
	}
	return nil
}
