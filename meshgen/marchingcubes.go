package meshgen

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/voxel/spatialmath"
	"go.viam.com/voxel/svo"
	"go.viam.com/voxel/terrain"
)

// cubeCorners is the corner numbering marching cubes tables are written
// against. Corner i of a cell is the minimum corner of the cell offset by
// one cell along the listed axes.
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0},
	{1, 0, 1}, {0, 0, 1},
	{0, 1, 0}, {1, 1, 0},
	{1, 1, 1}, {0, 1, 1},
}

// Generate meshes one chunk of a terrain tree into out. The chunk path
// selects the region of the tree to mesh and depth the resolution below it:
// the chunk is traversed as a dense 2^depth grid of cells, each sampled at
// its eight corners by reading the neighboring cells' data, so geometry
// lines up across chunk borders.
func Generate(
	logger golog.Logger,
	out *Mesh,
	chunk svo.CellPath,
	root *terrain.Cell,
	rootAABB spatialmath.AABB,
	depth uint,
) {
	chunkAABB := chunk.AABB(rootAABB)
	scale := float64(uint64(1) << depth)
	cubeSize := chunkAABB.Size.Mul(1 / scale)

	writer := newMeshWriter(out)
	before := out.TriangleCount()

	it := svo.NewPackedIndexIterator(depth)
	for subpath, _, ok := it.Next(); ok; subpath, _, ok = it.Next() {
		path := chunk.Extended(subpath)
		x, y, z := subpath.GridPos()

		var samples [8]terrain.CellData
		var corners [8]r3.Vector
		for i, c := range cubeCorners {
			if neighbor, inTree := path.Neighbor(c[0], c[1], c[2]); inTree {
				ref := root.GetPath(neighbor)
				if leaf, isLeaf := ref.Leaf(); isLeaf {
					samples[i] = *leaf
				} else {
					internal, _ := ref.Internal()
					samples[i] = *internal
				}
			}
			corners[i] = r3.Vector{
				X: chunkAABB.Position.X + float64(x+uint64(c[0]))*cubeSize.X,
				Y: chunkAABB.Position.Y + float64(y+uint64(c[1]))*cubeSize.Y,
				Z: chunkAABB.Position.Z + float64(z+uint64(c[2]))*cubeSize.Z,
			}
		}
		kernel(writer, &samples, &corners)
	}

	logger.Debugw("meshed chunk",
		"chunk", chunk.String(), "depth", depth, "triangles", out.TriangleCount()-before)
}

// kernel emits the triangles for a single cube given its eight corner
// samples and corner positions.
func kernel(writer *meshWriter, samples *[8]terrain.CellData, corners *[8]r3.Vector) {
	var id uint8
	for i := 7; i >= 0; i-- {
		id <<= 1
		if !samples[i].Kind.IsAir() {
			id |= 1
		}
	}

	var edgePoints [12]r3.Vector
	var edgeColors [12]colorful.Color
	crossed := edgeTable[id]
	for e := 0; e < 12; e++ {
		if crossed&(1<<e) == 0 {
			continue
		}
		ai, bi := edgeVertices[e][0], edgeVertices[e][1]
		a, b := corners[ai], corners[bi]
		da := float64(samples[ai].Distance)
		db := float64(samples[bi].Distance)
		// Place the vertex at the zero crossing of the interpolated
		// distance along the edge.
		edgePoints[e] = a.Add(b.Sub(a).Mul(-da / (db - da)))
		kind := samples[bi].Kind
		if db > da {
			kind = samples[ai].Kind
		}
		edgeColors[e] = kind.Color()
	}

	tri := triangulations[id]
	for t := 0; t+2 < len(tri) && tri[t] != -1; t += 3 {
		e0, e1, e2 := tri[t], tri[t+1], tri[t+2]
		p0, p1, p2 := edgePoints[e0], edgePoints[e1], edgePoints[e2]

		normal := p0.Sub(p1).Cross(p2.Sub(p1))
		if norm := normal.Norm(); norm > 0 {
			normal = normal.Mul(-1 / norm)
		}
		writer.setNormal(normal)

		c0, c1, c2 := edgeColors[e0], edgeColors[e1], edgeColors[e2]
		writer.setColor(colorful.Color{
			R: (c0.R + c1.R + c2.R) / 3,
			G: (c0.G + c1.G + c2.G) / 3,
			B: (c0.B + c1.B + c2.B) / 3,
		})

		writer.addVertex(p0)
		writer.addVertex(p1)
		writer.addVertex(p2)
	}
}
