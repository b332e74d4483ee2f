package meshgen

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WritePLY writes the mesh in ASCII PLY format with per-vertex normals and
// colors.
func (m *Mesh) WritePLY(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "cannot write invalid mesh")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\n")
	fmt.Fprintf(bw, "format ascii 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", len(m.Vertices))
	fmt.Fprintf(bw, "property float x\n")
	fmt.Fprintf(bw, "property float y\n")
	fmt.Fprintf(bw, "property float z\n")
	fmt.Fprintf(bw, "property float nx\n")
	fmt.Fprintf(bw, "property float ny\n")
	fmt.Fprintf(bw, "property float nz\n")
	fmt.Fprintf(bw, "property uchar red\n")
	fmt.Fprintf(bw, "property uchar green\n")
	fmt.Fprintf(bw, "property uchar blue\n")
	fmt.Fprintf(bw, "element face %d\n", m.TriangleCount())
	fmt.Fprintf(bw, "property list uchar int vertex_indices\n")
	fmt.Fprintf(bw, "end_header\n")

	for i, v := range m.Vertices {
		n := m.Normals[i]
		r, g, b := m.Colors[i].RGB255()
		fmt.Fprintf(bw, "%v %v %v %v %v %v %d %d %d\n",
			v.X, v.Y, v.Z, n.X, n.Y, n.Z, r, g, b)
	}
	for i := 0; i < m.TriangleCount(); i++ {
		var a, b, c uint32
		if m.Indexed {
			a, b, c = m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]
		} else {
			a, b, c = uint32(3*i), uint32(3*i+1), uint32(3*i+2)
		}
		fmt.Fprintf(bw, "3 %d %d %d\n", a, b, c)
	}
	return bw.Flush()
}

// WritePLYFile writes the mesh to a PLY file at the given path.
func (m *Mesh) WritePLYFile(path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return m.WritePLY(f)
}
