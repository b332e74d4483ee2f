package svo

import (
	"sync"

	"go.viam.com/utils"
)

// ReplaceFunc inspects a cell at a path and returns its replacement, which
// may be the same cell. Replacement cells are typically allocated from an
// Arena so whole rebuilds can be recycled at once.
type ReplaceFunc[D Data[D], I Data[I]] func(path CellPath, cell *Cell[D, I]) *Cell[D, I]

// How many levels of the tree AutoReplaceParallel fans out to goroutines
// before continuing serially.
const parallelReplaceLevels = 2

// AutoReplace rewrites the subtree with a pre-order and a post-order
// visitor. pre runs before descending and its result decides the shape that
// is descended into; post runs after all children have been rewritten.
// Either visitor may be nil. The rewritten root is returned.
func (c *Cell[D, I]) AutoReplace(pre, post ReplaceFunc[D, I]) *Cell[D, I] {
	return autoReplace(NewCellPath(), c, pre, post, 0)
}

// AutoReplaceParallel is AutoReplace with the top levels of the descent
// fanned out to one goroutine per child.
func (c *Cell[D, I]) AutoReplaceParallel(pre, post ReplaceFunc[D, I]) *Cell[D, I] {
	return autoReplace(NewCellPath(), c, pre, post, parallelReplaceLevels)
}

func autoReplace[D Data[D], I Data[I]](
	path CellPath,
	cell *Cell[D, I],
	pre, post ReplaceFunc[D, I],
	parallelLevels uint,
) *Cell[D, I] {
	if pre != nil {
		cell = pre(path, cell)
	}
	if cell.nodeType == InternalNode {
		if parallelLevels > 0 {
			var wg sync.WaitGroup
			for octant := uint8(0); octant < 8; octant++ {
				octant := octant
				child := cell.children[octant]
				childPath := path.Push(octant)
				wg.Add(1)
				utils.PanicCapturingGo(func() {
					defer wg.Done()
					cell.children[octant] = autoReplace(childPath, child, pre, post, parallelLevels-1)
				})
			}
			wg.Wait()
		} else {
			for octant := uint8(0); octant < 8; octant++ {
				cell.children[octant] = autoReplace(path.Push(octant), cell.children[octant], pre, post, 0)
			}
		}
	}
	if post != nil {
		cell = post(path, cell)
	}
	return cell
}
