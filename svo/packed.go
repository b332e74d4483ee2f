package svo

import (
	"fmt"
)

// PackedCell is a dense, fixed-depth octree subtree stored as flat per-level
// arrays instead of pointer cells. Level k holds the 8^k internal summaries
// of that depth, and the leaf level holds the 8^depth leaf values. Entries
// are ordered by their path index, so the children of the internal value at
// (level, i) are the eight entries at (level+1, i*8..i*8+8).
type PackedCell[D Data[D], I Data[I]] struct {
	depth     uint
	internals [][]I
	leaves    []D
}

// NewPackedCell creates a packed subtree of the given depth with every leaf
// set to a clone of leafFill and every internal summary to a clone of
// internalFill.
func NewPackedCell[D Data[D], I Data[I]](depth uint, leafFill D, internalFill I) *PackedCell[D, I] {
	if depth > MaxPathDepth {
		panic(fmt.Sprintf("packed cell depth %d exceeds maximum %d", depth, MaxPathDepth))
	}
	internals := make([][]I, depth)
	for k := range internals {
		level := make([]I, 1<<(3*k))
		for i := range level {
			level[i] = internalFill.Clone()
		}
		internals[k] = level
	}
	leaves := make([]D, 1<<(3*depth))
	for i := range leaves {
		leaves[i] = leafFill.Clone()
	}
	return &PackedCell[D, I]{depth: depth, internals: internals, leaves: leaves}
}

// Depth returns the number of levels below the packed subtree's root.
func (p *PackedCell[D, I]) Depth() uint {
	return p.depth
}

// LeafCount returns the number of leaf values, 8^depth.
func (p *PackedCell[D, I]) LeafCount() int {
	return len(p.leaves)
}

// CellCount returns the total number of values across all levels.
func (p *PackedCell[D, I]) CellCount() int {
	count := len(p.leaves)
	for _, level := range p.internals {
		count += len(level)
	}
	return count
}

// LeafAt returns the leaf value at the given path index of the leaf level.
func (p *PackedCell[D, I]) LeafAt(index uint64) *D {
	return &p.leaves[index]
}

// InternalAt returns the internal summary at the given level and path index.
func (p *PackedCell[D, I]) InternalAt(level uint, index uint64) *I {
	return &p.internals[level][index]
}

// RootData returns the payload of the subtree's root.
func (p *PackedCell[D, I]) RootData() DataRef[D, I] {
	if p.depth == 0 {
		return LeafRef[D, I](&p.leaves[0])
	}
	return InternalRef[D](&p.internals[0][0])
}

// GetPath returns the payload addressed by the path relative to the packed
// subtree's root. Paths deeper than the subtree resolve to the leaf that
// covers them.
func (p *PackedCell[D, I]) GetPath(path CellPath) DataRef[D, I] {
	depth := path.Depth()
	if depth >= p.depth {
		return LeafRef[D, I](&p.leaves[path.TakeDepth(p.depth).Index()])
	}
	return InternalRef[D](&p.internals[depth][path.Index()])
}

// Clone returns a deep copy of the packed subtree.
func (p *PackedCell[D, I]) Clone() *PackedCell[D, I] {
	internals := make([][]I, len(p.internals))
	for k, level := range p.internals {
		cloned := make([]I, len(level))
		for i := range level {
			cloned[i] = level[i].Clone()
		}
		internals[k] = cloned
	}
	leaves := make([]D, len(p.leaves))
	for i := range p.leaves {
		leaves[i] = p.leaves[i].Clone()
	}
	return &PackedCell[D, I]{depth: p.depth, internals: internals, leaves: leaves}
}

// Split divides a packed subtree of depth >= 1 into its root summary and
// eight packed subtrees one level shallower. Entries are path-index ordered,
// so each octant's values form a contiguous run per level and splitting is
// linear in the number of values.
func (p *PackedCell[D, I]) Split() (I, [8]*PackedCell[D, I]) {
	if p.depth == 0 {
		panic("cannot split packed cell of depth 0")
	}
	summary := p.internals[0][0].Clone()
	var parts [8]*PackedCell[D, I]
	childDepth := p.depth - 1
	for octant := 0; octant < 8; octant++ {
		internals := make([][]I, childDepth)
		for k := uint(0); k < childDepth; k++ {
			run := 1 << (3 * k)
			level := make([]I, run)
			copy(level, p.internals[k+1][octant*run:(octant+1)*run])
			internals[k] = level
		}
		run := 1 << (3 * childDepth)
		leaves := make([]D, run)
		copy(leaves, p.leaves[octant*run:(octant+1)*run])
		parts[octant] = &PackedCell[D, I]{depth: childDepth, internals: internals, leaves: leaves}
	}
	return summary, parts
}

// Repack is the inverse of Split: it reassembles eight packed subtrees of
// equal depth under a new root summary.
func Repack[D Data[D], I Data[I]](summary I, parts [8]*PackedCell[D, I]) *PackedCell[D, I] {
	childDepth := parts[0].depth
	for _, part := range parts {
		if part == nil || part.depth != childDepth {
			panic("repack requires eight packed cells of equal depth")
		}
	}
	depth := childDepth + 1
	internals := make([][]I, depth)
	internals[0] = []I{summary}
	for k := uint(0); k < childDepth; k++ {
		level := make([]I, 0, 1<<(3*(k+1)))
		for _, part := range parts {
			level = append(level, part.internals[k]...)
		}
		internals[k+1] = level
	}
	leaves := make([]D, 0, 1<<(3*depth))
	for _, part := range parts {
		leaves = append(leaves, part.leaves...)
	}
	return &PackedCell[D, I]{depth: depth, internals: internals, leaves: leaves}
}

// PushLevel adds one level of depth to a homogeneous packed subtree. The old
// leaf level becomes the deepest internal level and each new leaf starts as
// a clone of its parent's value.
func PushLevel[D Data[D]](p *PackedCell[D, D]) {
	if p.depth >= MaxPathDepth {
		panic("packed cell depth capacity exceeded")
	}
	leaves := make([]D, 8*len(p.leaves))
	for i := range leaves {
		leaves[i] = p.leaves[i/8].Clone()
	}
	p.internals = append(p.internals, p.leaves)
	p.leaves = leaves
	p.depth++
}

// UpdateAllPacked recomputes every internal summary of a packed subtree
// bottom-up from the level below it.
func UpdateAllPacked[D Data[D], I AggregateData[D, I]](p *PackedCell[D, I]) {
	for k := int(p.depth) - 1; k >= 0; k-- {
		level := p.internals[k]
		for i := range level {
			var refs [8]DataRef[D, I]
			for o := 0; o < 8; o++ {
				if uint(k) == p.depth-1 {
					refs[o] = LeafRef[D, I](&p.leaves[i*8+o])
				} else {
					refs[o] = InternalRef[D](&p.internals[k+1][i*8+o])
				}
			}
			level[i] = level[i].Aggregate(refs)
		}
	}
}

// UpdateOnPathPacked recomputes only the internal summaries covering the
// path, bottom-up. Paths deeper than the subtree are truncated to its depth.
func UpdateOnPathPacked[D Data[D], I AggregateData[D, I]](p *PackedCell[D, I], path CellPath) {
	path = path.TakeDepth(p.depth)
	for k := int(path.Depth()) - 1; k >= 0; k-- {
		i := path.TakeDepth(uint(k)).Index()
		var refs [8]DataRef[D, I]
		for o := uint64(0); o < 8; o++ {
			if uint(k) == p.depth-1 {
				refs[o] = LeafRef[D, I](&p.leaves[i*8+o])
			} else {
				refs[o] = InternalRef[D](&p.internals[k+1][i*8+o])
			}
		}
		p.internals[k][i] = p.internals[k][i].Aggregate(refs)
	}
}

// SplitPacked rewrites a packed cell node in place into an internal cell
// whose children are the eight split-off packed subtrees, or leaf cells when
// the subtrees bottom out. It returns false if the cell is not a packed node
// of depth >= 1.
func SplitPacked[D Data[D], I Data[I]](cell *Cell[D, I]) bool {
	if cell.nodeType != PackedNode || cell.packed.depth == 0 {
		return false
	}
	summary, parts := cell.packed.Split()
	var children [8]*Cell[D, I]
	for i, part := range parts {
		if part.depth == 0 {
			children[i] = NewLeafCell[D, I](part.leaves[0])
		} else {
			children[i] = NewPackedNode(part)
		}
	}
	cell.setInternal(summary, &children)
	return true
}
