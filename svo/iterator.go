package svo

// IterateLeaves calls fn for every leaf value in the subtree in depth-first,
// path-index order, passing the path addressing it relative to c. Iteration
// stops early if fn returns false; the return value reports whether the
// whole subtree was visited.
func (c *Cell[D, I]) IterateLeaves(fn func(path CellPath, leaf *D) bool) bool {
	return c.iterateLeaves(NewCellPath(), fn)
}

func (c *Cell[D, I]) iterateLeaves(path CellPath, fn func(path CellPath, leaf *D) bool) bool {
	switch c.nodeType {
	case LeafNode:
		return fn(path, &c.leaf)
	case PackedNode:
		depth := c.packed.depth
		for i := range c.packed.leaves {
			leafPath := path.Extended(NewCellPathFromIndex(uint64(i), depth))
			if !fn(leafPath, &c.packed.leaves[i]) {
				return false
			}
		}
		return true
	default:
		for octant := uint8(0); octant < 8; octant++ {
			if !c.children[octant].iterateLeaves(path.Push(octant), fn) {
				return false
			}
		}
		return true
	}
}

// LeafIterator is a pull-based iterator over the leaf values of a subtree,
// yielding them in the same order as IterateLeaves.
type LeafIterator[D Data[D], I Data[I]] struct {
	stack []leafIterFrame[D, I]
}

type leafIterFrame[D Data[D], I Data[I]] struct {
	cell   *Cell[D, I]
	path   CellPath
	octant uint8
	index  uint64
}

// NewLeafIterator creates an iterator over the leaves under root.
func NewLeafIterator[D Data[D], I Data[I]](root *Cell[D, I]) *LeafIterator[D, I] {
	return &LeafIterator[D, I]{
		stack: []leafIterFrame[D, I]{{cell: root, path: NewCellPath()}},
	}
}

// Next returns the next leaf path and value, or ok=false when the iteration
// is exhausted.
func (it *LeafIterator[D, I]) Next() (CellPath, *D, bool) {
	for len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		switch frame.cell.nodeType {
		case LeafNode:
			path := frame.path
			leaf := &frame.cell.leaf
			it.stack = it.stack[:len(it.stack)-1]
			return path, leaf, true
		case PackedNode:
			packed := frame.cell.packed
			if frame.index >= uint64(len(packed.leaves)) {
				it.stack = it.stack[:len(it.stack)-1]
				continue
			}
			path := frame.path.Extended(NewCellPathFromIndex(frame.index, packed.depth))
			leaf := &packed.leaves[frame.index]
			frame.index++
			return path, leaf, true
		default:
			if frame.octant >= 8 {
				it.stack = it.stack[:len(it.stack)-1]
				continue
			}
			child := frame.cell.children[frame.octant]
			childPath := frame.path.Push(frame.octant)
			frame.octant++
			it.stack = append(it.stack, leafIterFrame[D, I]{cell: child, path: childPath})
		}
	}
	return 0, nil, false
}

// PackedIndexIterator enumerates all paths of a fixed depth together with
// their dense indices, in index order.
type PackedIndexIterator struct {
	depth uint
	next  uint64
	count uint64
}

// NewPackedIndexIterator creates an iterator over all 8^depth paths of the
// given depth.
func NewPackedIndexIterator(depth uint) *PackedIndexIterator {
	if depth > MaxPathDepth {
		panic("packed index iterator depth exceeds path capacity")
	}
	return &PackedIndexIterator{depth: depth, count: uint64(1) << (3 * depth)}
}

// Next returns the next path and its index, or ok=false when exhausted.
func (it *PackedIndexIterator) Next() (CellPath, uint64, bool) {
	if it.next >= it.count {
		return 0, 0, false
	}
	index := it.next
	it.next++
	return NewCellPathFromIndex(index, it.depth), index, true
}
