package svo

import (
	"sync"
)

const defaultArenaChunkSize = 1024

// Arena is a chunked slab allocator for cells. Allocating from an arena
// amortizes allocation cost across tree rebuilds: Reset recycles every
// chunk at once instead of releasing cells one by one.
//
// Allocation is safe for concurrent use. Reset must not race with
// allocation, and cells handed out before a Reset must no longer be used
// after it.
type Arena[D Data[D], I Data[I]] struct {
	chunkSize int

	mu     sync.Mutex
	chunks [][]Cell[D, I]
	used   int
}

// NewArena creates an arena allocating cells in chunks of the given size. A
// size of 0 selects a default.
func NewArena[D Data[D], I Data[I]](chunkSize int) *Arena[D, I] {
	if chunkSize <= 0 {
		chunkSize = defaultArenaChunkSize
	}
	return &Arena[D, I]{chunkSize: chunkSize}
}

func (a *Arena[D, I]) alloc() *Cell[D, I] {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.chunks) == 0 || a.used == a.chunkSize {
		a.chunks = append(a.chunks, make([]Cell[D, I], a.chunkSize))
		a.used = 0
	}
	cell := &a.chunks[len(a.chunks)-1][a.used]
	a.used++
	return cell
}

// NewLeaf allocates a leaf cell holding the given value.
func (a *Arena[D, I]) NewLeaf(data D) *Cell[D, I] {
	cell := a.alloc()
	cell.setLeaf(data)
	return cell
}

// NewInternal allocates an internal cell from a summary and eight non-nil
// children.
func (a *Arena[D, I]) NewInternal(summary I, children [8]*Cell[D, I]) *Cell[D, I] {
	for _, child := range children {
		if child == nil {
			panic("internal cell with nil child")
		}
	}
	cell := a.alloc()
	cell.setInternal(summary, &children)
	return cell
}

// NewPacked allocates a cell wrapping a packed subtree.
func (a *Arena[D, I]) NewPacked(packed *PackedCell[D, I]) *Cell[D, I] {
	if packed == nil {
		panic("packed cell node with nil payload")
	}
	cell := a.alloc()
	cell.nodeType = PackedNode
	cell.packed = packed
	var zeroD D
	var zeroI I
	cell.leaf = zeroD
	cell.internal = zeroI
	cell.children = nil
	return cell
}

// Allocated returns the number of cells handed out since the last Reset.
func (a *Arena[D, I]) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.chunks) == 0 {
		return 0
	}
	return (len(a.chunks)-1)*a.chunkSize + a.used
}

// Reset recycles all chunks so the next allocations reuse their memory.
// Every cell previously handed out becomes invalid.
func (a *Arena[D, I]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.chunks) > 1 {
		a.chunks = a.chunks[:1]
	}
	if len(a.chunks) == 1 {
		clear(a.chunks[0])
		a.used = 0
	}
}
