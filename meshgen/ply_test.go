package meshgen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxel/terrain"
)

func singleTriangleMesh(indexed bool) *Mesh {
	out := NewMesh(indexed, false)
	w := newMeshWriter(out)
	w.setNormal(r3.Vector{Z: 1})
	w.setColor(terrain.KindBlue.Color())
	w.addVertex(r3.Vector{})
	w.addVertex(r3.Vector{X: 1})
	w.addVertex(r3.Vector{Y: 1})
	return out
}

func TestWritePLY(t *testing.T) {
	m := singleTriangleMesh(true)

	var buf bytes.Buffer
	test.That(t, m.WritePLY(&buf), test.ShouldBeNil)

	lines := strings.Split(buf.String(), "\n")
	test.That(t, lines[0], test.ShouldEqual, "ply")
	test.That(t, lines[1], test.ShouldEqual, "format ascii 1.0")
	test.That(t, lines[2], test.ShouldEqual, "element vertex 3")
	test.That(t, buf.String(), test.ShouldContainSubstring, "element face 1\n")
	test.That(t, buf.String(), test.ShouldContainSubstring, "end_header\n")
	test.That(t, strings.TrimRight(buf.String(), "\n"), test.ShouldEndWith, "3 0 1 2")
}

func TestWritePLYInvalidMesh(t *testing.T) {
	m := singleTriangleMesh(false)
	m.Normals = m.Normals[:1]

	var buf bytes.Buffer
	err := m.WritePLY(&buf)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "attribute length mismatch")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
}

func TestWritePLYFile(t *testing.T) {
	m := singleTriangleMesh(false)

	path := filepath.Join(t.TempDir(), "mesh.ply")
	test.That(t, m.WritePLYFile(path), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.HasPrefix(string(data), "ply\n"), test.ShouldBeTrue)
	test.That(t, string(data), test.ShouldContainSubstring, "3 0 1 2")
}

func TestMeshValidate(t *testing.T) {
	m := singleTriangleMesh(true)
	test.That(t, m.Validate(), test.ShouldBeNil)

	m.Indices = append(m.Indices, 99)
	err := m.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not a multiple of 3")

	m.Indices = []uint32{0, 1, 7}
	err = m.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")
}
