package svo

import (
	"testing"

	"go.viam.com/test"
)

// buildSumTree subdivides every leaf down to the given depth via the
// replace visitor, allocating from the arena, and aggregates on the way
// back up.
func buildSumTree(arena *Arena[sumData, sumSummary], depth uint) *Cell[sumData, sumSummary] {
	pre := func(path CellPath, cell *Cell[sumData, sumSummary]) *Cell[sumData, sumSummary] {
		if !cell.IsLeaf() || path.Depth() >= depth {
			return cell
		}
		var children [8]*Cell[sumData, sumSummary]
		for octant := uint8(0); octant < 8; octant++ {
			children[octant] = arena.NewLeaf(sumData{v: int(octant)})
		}
		return arena.NewInternal(sumSummary{}, children)
	}
	post := func(path CellPath, cell *Cell[sumData, sumSummary]) *Cell[sumData, sumSummary] {
		if cell.IsInternal() {
			var refs [8]DataRef[sumData, sumSummary]
			for octant := uint8(0); octant < 8; octant++ {
				refs[octant] = cell.Child(octant).Data()
			}
			*cell.InternalData() = sumSummary{}.Aggregate(refs)
		}
		return cell
	}
	return arena.NewLeaf(sumData{}).AutoReplace(pre, post)
}

func TestAutoReplace(t *testing.T) {
	arena := NewArena[sumData, sumSummary](64)
	root := buildSumTree(arena, 2)

	test.That(t, root.Depth(), test.ShouldEqual, 2)
	test.That(t, root.CellCount(), test.ShouldEqual, 1+8+64)
	// Each depth 1 subtree sums 0+1+...+7 = 28.
	test.That(t, root.InternalData().total, test.ShouldEqual, 28*8)
	test.That(t, arena.Allocated(), test.ShouldEqual, 1+1+8+8*9)
}

func TestAutoReplaceParallelMatchesSerial(t *testing.T) {
	serial := buildSumTree(NewArena[sumData, sumSummary](0), 3)

	arena := NewArena[sumData, sumSummary](0)
	pre := func(path CellPath, cell *Cell[sumData, sumSummary]) *Cell[sumData, sumSummary] {
		if !cell.IsLeaf() || path.Depth() >= 3 {
			return cell
		}
		var children [8]*Cell[sumData, sumSummary]
		for octant := uint8(0); octant < 8; octant++ {
			children[octant] = arena.NewLeaf(sumData{v: int(octant)})
		}
		return arena.NewInternal(sumSummary{}, children)
	}
	post := func(path CellPath, cell *Cell[sumData, sumSummary]) *Cell[sumData, sumSummary] {
		if cell.IsInternal() {
			var refs [8]DataRef[sumData, sumSummary]
			for octant := uint8(0); octant < 8; octant++ {
				refs[octant] = cell.Child(octant).Data()
			}
			*cell.InternalData() = sumSummary{}.Aggregate(refs)
		}
		return cell
	}
	parallel := arena.NewLeaf(sumData{}).AutoReplaceParallel(pre, post)

	test.That(t, parallel.InternalData().total, test.ShouldEqual, serial.InternalData().total)
	test.That(t, parallel.CellCount(), test.ShouldEqual, serial.CellCount())

	var want, got []int
	serial.IterateLeaves(func(_ CellPath, leaf *sumData) bool {
		want = append(want, leaf.v)
		return true
	})
	parallel.IterateLeaves(func(_ CellPath, leaf *sumData) bool {
		got = append(got, leaf.v)
		return true
	})
	test.That(t, got, test.ShouldResemble, want)
}

func TestArenaReset(t *testing.T) {
	arena := NewArena[sumData, sumSummary](16)
	for i := 0; i < 40; i++ {
		arena.NewLeaf(sumData{v: i})
	}
	test.That(t, arena.Allocated(), test.ShouldEqual, 40)

	arena.Reset()
	test.That(t, arena.Allocated(), test.ShouldEqual, 0)

	// Reused cells come back zeroed.
	cell := arena.NewLeaf(sumData{v: 1})
	test.That(t, cell.IsLeaf(), test.ShouldBeTrue)
	test.That(t, cell.LeafData().v, test.ShouldEqual, 1)
	test.That(t, arena.Allocated(), test.ShouldEqual, 1)
}
