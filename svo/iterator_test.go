package svo

import (
	"testing"

	"go.viam.com/test"
)

func TestIterateLeavesCompleteness(t *testing.T) {
	root := NewLeafCell[sumData, sumSummary](sumData{v: 1})
	Split(root)
	Split(root.MutChild(0))
	Split(root.MutChild(5))

	var paths []CellPath
	total := 0
	done := root.IterateLeaves(func(path CellPath, leaf *sumData) bool {
		paths = append(paths, path)
		total += leaf.v
		return true
	})
	test.That(t, done, test.ShouldBeTrue)
	// 6 top level leaves plus 2x8 subdivided ones.
	test.That(t, len(paths), test.ShouldEqual, 22)
	test.That(t, total, test.ShouldEqual, 22)

	// Paths arrive in depth-first, ascending octant order.
	test.That(t, paths[0], test.ShouldEqual, NewCellPath().Push(0).Push(0))
	test.That(t, paths[8], test.ShouldEqual, NewCellPath().Push(1))
	test.That(t, paths[len(paths)-1], test.ShouldEqual, NewCellPath().Push(7))

	// Early exit.
	count := 0
	done = root.IterateLeaves(func(CellPath, *sumData) bool {
		count++
		return count < 5
	})
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, count, test.ShouldEqual, 5)
}

func TestIterateLeavesUniformDepth(t *testing.T) {
	const depth = 2
	root := NewLeafCell[sumData, sumSummary](sumData{v: 2})
	AutoSplit(root, depth)

	count := 0
	root.IterateLeaves(func(path CellPath, _ *sumData) bool {
		test.That(t, path.Depth(), test.ShouldEqual, depth)
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 1<<(3*depth))
}

func TestLeafIteratorMatchesCallback(t *testing.T) {
	root := NewLeafCell[sumData, sumSummary](sumData{v: 1})
	Split(root)
	Split(root.MutChild(3))
	// Mix in a packed subtree.
	root.Children()[6] = NewPackedNode(newSumPacked(1))

	type visit struct {
		path CellPath
		v    int
	}
	var want []visit
	root.IterateLeaves(func(path CellPath, leaf *sumData) bool {
		want = append(want, visit{path, leaf.v})
		return true
	})

	it := NewLeafIterator(root)
	var got []visit
	for path, leaf, ok := it.Next(); ok; path, leaf, ok = it.Next() {
		got = append(got, visit{path, leaf.v})
	}
	test.That(t, got, test.ShouldResemble, want)

	_, _, ok := it.Next()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPackedIndexIterator(t *testing.T) {
	it := NewPackedIndexIterator(1)
	for want := uint64(0); want < 8; want++ {
		path, index, ok := it.Next()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, index, test.ShouldEqual, want)
		test.That(t, path, test.ShouldEqual, NewCellPathFromIndex(want, 1))
	}
	_, _, ok := it.Next()
	test.That(t, ok, test.ShouldBeFalse)

	// Depth 0 yields just the root path.
	it = NewPackedIndexIterator(0)
	path, _, ok := it.Next()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, path.IsRoot(), test.ShouldBeTrue)
	_, _, ok = it.Next()
	test.That(t, ok, test.ShouldBeFalse)
}
