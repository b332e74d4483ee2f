package terrain

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxel/spatialmath"
	"go.viam.com/voxel/svo"
)

func testBounds() spatialmath.AABB {
	return spatialmath.NewAABB(r3.Vector{X: -8, Y: -8, Z: -8}, r3.Vector{X: 16, Y: 16, Z: 16})
}

func testSphere() SampleFunc {
	return SphereSDF(r3.Vector{}, 5, KindStone)
}

func TestFromSDFUniformField(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// A sphere entirely outside the bounds leaves a single air leaf.
	field := SphereSDF(r3.Vector{X: 1000, Y: 0, Z: 0}, 5, KindStone)
	root := FromSDF(logger, field, testBounds(), 4)
	test.That(t, root.IsLeaf(), test.ShouldBeTrue)
	test.That(t, root.LeafData().Kind, test.ShouldEqual, KindAir)
}

func TestFromSDFSphere(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := testBounds()
	root := FromSDF(logger, testSphere(), bounds, 4)

	test.That(t, root.IsInternal(), test.ShouldBeTrue)

	solid, air := 0, 0
	root.IterateLeaves(func(path svo.CellPath, leaf *CellData) bool {
		// Leaf classification is by minimum corner.
		want := testSphere()(path.AABB(bounds).Min())
		test.That(t, leaf.Kind, test.ShouldEqual, want.Kind)
		test.That(t, leaf.Distance, test.ShouldAlmostEqual, want.Distance, 1e-4)
		if leaf.Kind.IsAir() {
			air++
		} else {
			solid++
		}
		return true
	})
	test.That(t, solid, test.ShouldBeGreaterThan, 0)
	test.That(t, air, test.ShouldBeGreaterThan, 0)
}

func TestFromSDFPacked(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := testBounds()
	const depth = 3
	packed := FromSDFPacked(logger, testSphere(), bounds, depth)

	test.That(t, packed.LeafCount(), test.ShouldEqual, 1<<(3*depth))

	it := svo.NewPackedIndexIterator(depth)
	solid := 0
	for path, index, ok := it.Next(); ok; path, index, ok = it.Next() {
		want := testSphere()(path.AABB(bounds).Min())
		leaf := packed.LeafAt(index)
		test.That(t, leaf.Kind, test.ShouldEqual, want.Kind)
		if !leaf.Kind.IsAir() {
			solid++
		}
	}
	test.That(t, solid, test.ShouldBeGreaterThan, 0)

	// The root summary reflects the mostly-air volume.
	internal, ok := packed.RootData().Internal()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, internal.Kind, test.ShouldEqual, KindAir)
}

func TestFromSDFAdaptiveMatchesPacked(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bounds := testBounds()
	const depth = 3
	adaptive := FromSDFAdaptive(logger, testSphere(), bounds, depth, 2)
	packed := FromSDFPacked(logger, testSphere(), bounds, depth)

	test.That(t, adaptive.IsInternal(), test.ShouldBeTrue)
	adaptive.IterateLeaves(func(path svo.CellPath, leaf *CellData) bool {
		// Every leaf agrees with the dense sampling at its own minimum
		// corner.
		full := path
		for full.Depth() < depth {
			full = full.Push(0)
		}
		dense, isLeaf := packed.GetPath(full).Leaf()
		test.That(t, isLeaf, test.ShouldBeTrue)
		test.That(t, leaf.Kind, test.ShouldEqual, dense.Kind)
		return true
	})

	// The surface-crossing region is stored densely.
	var countPacked func(c *Cell) int
	countPacked = func(c *Cell) int {
		switch {
		case c.IsPacked():
			return 1
		case c.IsInternal():
			count := 0
			for o := uint8(0); o < 8; o++ {
				count += countPacked(c.Child(o))
			}
			return count
		default:
			return 0
		}
	}
	test.That(t, countPacked(adaptive), test.ShouldBeGreaterThan, 0)
}

func TestFromSDFAdaptiveRepacks(t *testing.T) {
	logger := golog.NewTestLogger(t)
	adaptive := FromSDFAdaptive(logger, testSphere(), testBounds(), 4, 2)

	// Internal cells whose eight children are all dense and equally deep
	// would have been stitched back into one packed region.
	var stitchable func(c *Cell) int
	stitchable = func(c *Cell) int {
		if !c.IsInternal() {
			return 0
		}
		count := 0
		packed := 0
		for o := uint8(0); o < 8; o++ {
			child := c.Child(o)
			if child.IsPacked() && child.Packed().Depth() == c.Depth()-1 {
				packed++
			}
			count += stitchable(child)
		}
		if packed == 8 {
			count++
		}
		return count
	}
	test.That(t, stitchable(adaptive), test.ShouldEqual, 0)

	// The stitched regions still exist, just as packed cells.
	found := false
	var findPacked func(c *Cell)
	findPacked = func(c *Cell) {
		if c.IsPacked() {
			found = true
			return
		}
		if c.IsInternal() {
			for o := uint8(0); o < 8; o++ {
				findPacked(c.Child(o))
			}
		}
	}
	findPacked(adaptive)
	test.That(t, found, test.ShouldBeTrue)
}

func TestUnionAndHalfSpace(t *testing.T) {
	ground := HalfSpaceSDF(0, KindStoneDarker)
	ball := SphereSDF(r3.Vector{X: 0, Y: 0, Z: 3}, 2, KindPink)
	field := UnionSDF(ground, ball)

	below := field(r3.Vector{X: 0, Y: 0, Z: -1})
	test.That(t, below.Kind, test.ShouldEqual, KindStoneDarker)
	test.That(t, below.Distance, test.ShouldBeLessThan, 0)

	inBall := field(r3.Vector{X: 0, Y: 0, Z: 3})
	test.That(t, inBall.Kind, test.ShouldEqual, KindPink)

	sky := field(r3.Vector{X: 0, Y: 0, Z: 50})
	test.That(t, sky.Kind, test.ShouldEqual, KindAir)
	test.That(t, sky.Distance, test.ShouldBeGreaterThan, 0)
}
