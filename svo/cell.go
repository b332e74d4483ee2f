package svo

import (
	"go.uber.org/atomic"
)

// NodeType describes the representation of a cell.
type NodeType uint8

// The possible cell representations.
const (
	// InternalNode is a cell with a summary value and eight children.
	InternalNode NodeType = iota
	// LeafNode is a cell holding a single data value.
	LeafNode
	// PackedNode is a cell holding a dense, fixed-depth subtree.
	PackedNode
)

func (t NodeType) String() string {
	switch t {
	case InternalNode:
		return "internal"
	case LeafNode:
		return "leaf"
	case PackedNode:
		return "packed"
	default:
		return "unknown"
	}
}

// Cell is a node of a sparse voxel octree. A cell is either a leaf carrying
// a D, an internal node carrying an I summary plus eight children, or a
// packed node carrying a dense subtree.
//
// Cells support structural sharing: Retain marks a cell as referenced from
// more than one place, and mutating accessors transparently clone shared
// cells before handing out mutable access.
type Cell[D Data[D], I Data[I]] struct {
	nodeType NodeType
	shared   atomic.Int32

	leaf     D
	internal I
	children *[8]*Cell[D, I]
	packed   *PackedCell[D, I]
}

// NewLeafCell creates a leaf cell holding the given value.
func NewLeafCell[D Data[D], I Data[I]](data D) *Cell[D, I] {
	return &Cell[D, I]{nodeType: LeafNode, leaf: data}
}

// NewInternalCell creates an internal cell from a summary and eight
// children. All children must be non-nil.
func NewInternalCell[D Data[D], I Data[I]](summary I, children [8]*Cell[D, I]) *Cell[D, I] {
	for _, child := range children {
		if child == nil {
			panic("internal cell with nil child")
		}
	}
	return &Cell[D, I]{nodeType: InternalNode, internal: summary, children: &children}
}

// NewPackedNode creates a cell wrapping a packed subtree.
func NewPackedNode[D Data[D], I Data[I]](packed *PackedCell[D, I]) *Cell[D, I] {
	if packed == nil {
		panic("packed cell node with nil payload")
	}
	return &Cell[D, I]{nodeType: PackedNode, packed: packed}
}

// Type returns the cell's representation.
func (c *Cell[D, I]) Type() NodeType {
	return c.nodeType
}

// IsLeaf returns true for leaf cells.
func (c *Cell[D, I]) IsLeaf() bool {
	return c.nodeType == LeafNode
}

// IsInternal returns true for internal cells.
func (c *Cell[D, I]) IsInternal() bool {
	return c.nodeType == InternalNode
}

// IsPacked returns true for packed cells.
func (c *Cell[D, I]) IsPacked() bool {
	return c.nodeType == PackedNode
}

// LeafData returns a pointer to the leaf value. The cell must be a leaf.
func (c *Cell[D, I]) LeafData() *D {
	if c.nodeType != LeafNode {
		panic("leaf data requested from " + c.nodeType.String() + " cell")
	}
	return &c.leaf
}

// InternalData returns a pointer to the internal summary. The cell must be
// internal.
func (c *Cell[D, I]) InternalData() *I {
	if c.nodeType != InternalNode {
		panic("internal data requested from " + c.nodeType.String() + " cell")
	}
	return &c.internal
}

// Packed returns the packed subtree. The cell must be a packed node.
func (c *Cell[D, I]) Packed() *PackedCell[D, I] {
	if c.nodeType != PackedNode {
		panic("packed payload requested from " + c.nodeType.String() + " cell")
	}
	return c.packed
}

// Data returns a read-only view of the cell's own payload. For packed cells
// this is the payload of the packed subtree's root.
func (c *Cell[D, I]) Data() DataRef[D, I] {
	switch c.nodeType {
	case LeafNode:
		return LeafRef[D, I](&c.leaf)
	case InternalNode:
		return InternalRef[D](&c.internal)
	case PackedNode:
		return c.packed.RootData()
	default:
		panic("invalid cell")
	}
}

// Children returns the eight children of an internal cell. The returned
// array must be treated as read-only; use MutChild for mutation.
func (c *Cell[D, I]) Children() *[8]*Cell[D, I] {
	if c.nodeType != InternalNode {
		panic("children requested from " + c.nodeType.String() + " cell")
	}
	return c.children
}

// Child returns the child in the given octant of an internal cell.
func (c *Cell[D, I]) Child(octant uint8) *Cell[D, I] {
	return c.Children()[octant]
}

// Retain marks the cell as shared from an additional location and returns
// it, so a single subtree can be referenced from several parents. Later
// mutable access through any of those parents clones the cell first.
func (c *Cell[D, I]) Retain() *Cell[D, I] {
	c.shared.Inc()
	return c
}

// Release undoes one Retain, declaring that a holder of the subtree has
// dropped it. Storage itself is reclaimed by the garbage collector; the
// counter only tracks whether mutation still needs to copy.
func (c *Cell[D, I]) Release() {
	if c.shared.Load() > 0 {
		c.shared.Dec()
	}
}

// Clone returns a shallow copy of the cell. Payloads are cloned; children
// and packed subtrees are shared with the original via Retain, to be cloned
// on demand when mutated.
func (c *Cell[D, I]) Clone() *Cell[D, I] {
	clone := &Cell[D, I]{nodeType: c.nodeType}
	switch c.nodeType {
	case LeafNode:
		clone.leaf = c.leaf.Clone()
	case InternalNode:
		clone.internal = c.internal.Clone()
		children := *c.children
		for _, child := range children {
			child.Retain()
		}
		clone.children = &children
	case PackedNode:
		clone.packed = c.packed.Clone()
	}
	return clone
}

// MutChild returns mutable access to the child in the given octant,
// replacing a shared child with a private clone first.
func (c *Cell[D, I]) MutChild(octant uint8) *Cell[D, I] {
	children := c.Children()
	child := children[octant]
	if child.shared.Load() > 0 {
		child.shared.Dec()
		child = child.Clone()
		children[octant] = child
	}
	return child
}

// FollowPath descends along the path through pointer cells as far as
// possible and returns the deepest cell reached together with the part of
// the path below it. The remaining path is empty when the full path was
// resolved, and non-empty when a leaf or packed cell was reached first.
func (c *Cell[D, I]) FollowPath(path CellPath) (*Cell[D, I], CellPath) {
	cell := c
	for cell.nodeType == InternalNode {
		rest, octant, ok := path.Pop()
		if !ok {
			break
		}
		path = rest
		cell = cell.children[octant]
	}
	return cell, path
}

// FollowPathMut is FollowPath with copy-on-write child access, for callers
// about to mutate the returned cell.
func (c *Cell[D, I]) FollowPathMut(path CellPath) (*Cell[D, I], CellPath) {
	cell := c
	for cell.nodeType == InternalNode {
		rest, octant, ok := path.Pop()
		if !ok {
			break
		}
		path = rest
		cell = cell.MutChild(octant)
	}
	return cell, path
}

// GetPath returns the payload addressed by the path, or the payload of the
// deepest cell that exists along it when the tree is shallower than the
// path.
func (c *Cell[D, I]) GetPath(path CellPath) DataRef[D, I] {
	cell, rest := c.FollowPath(path)
	if cell.nodeType == PackedNode {
		return cell.packed.GetPath(rest)
	}
	return cell.Data()
}

// Depth returns the number of levels below this cell, with 0 for a leaf.
func (c *Cell[D, I]) Depth() uint {
	switch c.nodeType {
	case LeafNode:
		return 0
	case PackedNode:
		return c.packed.Depth()
	default:
		var max uint
		for _, child := range c.children {
			if d := child.Depth(); d > max {
				max = d
			}
		}
		return max + 1
	}
}

// CellCount returns the total number of cells in the subtree, counting a
// packed subtree as its number of packed values.
func (c *Cell[D, I]) CellCount() int {
	switch c.nodeType {
	case LeafNode:
		return 1
	case PackedNode:
		return c.packed.CellCount()
	default:
		count := 1
		for _, child := range c.children {
			count += child.CellCount()
		}
		return count
	}
}

// setLeaf rewrites the cell in place into a leaf.
func (c *Cell[D, I]) setLeaf(data D) {
	c.nodeType = LeafNode
	c.leaf = data
	var zeroI I
	c.internal = zeroI
	c.children = nil
	c.packed = nil
}

// setInternal rewrites the cell in place into an internal node.
func (c *Cell[D, I]) setInternal(summary I, children *[8]*Cell[D, I]) {
	c.nodeType = InternalNode
	c.internal = summary
	c.children = children
	var zeroD D
	c.leaf = zeroD
	c.packed = nil
}

// Split subdivides a leaf cell in place into an internal cell with eight
// leaf children, using the leaf value's own subdivision rule. A packed cell
// of depth 0 splits like the leaf it holds. It returns false for any other
// cell.
func Split[D SplittableData[D, I], I Data[I]](cell *Cell[D, I]) bool {
	if cell.nodeType == PackedNode && cell.packed.depth == 0 {
		cell.setLeaf((*cell.packed.LeafAt(0)).Clone())
	}
	if cell.nodeType != LeafNode {
		return false
	}
	summary, parts := cell.leaf.Split()
	var children [8]*Cell[D, I]
	for i := range parts {
		children[i] = NewLeafCell[D, I](parts[i])
	}
	cell.setInternal(summary, &children)
	return true
}

// AutoSplit recursively subdivides leaves that report ShouldAutoSplit, to at
// most levels additional levels below the given cell.
func AutoSplit[D AutoSplittableData[D, I], I Data[I]](cell *Cell[D, I], levels uint) {
	if levels == 0 {
		return
	}
	if cell.nodeType == LeafNode {
		if !cell.leaf.ShouldAutoSplit() || !Split(cell) {
			return
		}
	}
	if cell.nodeType != InternalNode {
		return
	}
	for octant := uint8(0); octant < 8; octant++ {
		AutoSplit(cell.MutChild(octant), levels-1)
	}
}

// UpdateAll recomputes every internal summary in the subtree bottom-up from
// the payloads below it.
func UpdateAll[D Data[D], I AggregateData[D, I]](cell *Cell[D, I]) {
	switch cell.nodeType {
	case LeafNode:
	case PackedNode:
		UpdateAllPacked(cell.packed)
	default:
		var refs [8]DataRef[D, I]
		for octant := uint8(0); octant < 8; octant++ {
			child := cell.MutChild(octant)
			UpdateAll(child)
			refs[octant] = child.Data()
		}
		cell.internal = cell.internal.Aggregate(refs)
	}
}

// AutoMerge collapses internal cells whose eight children are all leaves and
// whose summary agrees to merge them, working bottom-up so that merges can
// cascade. It returns true if the given cell itself became a leaf.
func AutoMerge[D Data[D], I MergeableData[D, I]](cell *Cell[D, I]) bool {
	if cell.nodeType != InternalNode {
		return cell.nodeType == LeafNode
	}
	allLeaves := true
	for octant := uint8(0); octant < 8; octant++ {
		if !AutoMerge(cell.MutChild(octant)) {
			allLeaves = false
		}
	}
	if !allLeaves {
		return false
	}
	var values [8]D
	for i, child := range cell.children {
		values[i] = child.leaf
	}
	if !cell.internal.CanMerge(&values) {
		return false
	}
	cell.setLeaf(cell.internal.Merge(values))
	return true
}

// TryMerge collapses this cell into a leaf if all eight children are leaves
// and the summary agrees to merge them. Unlike AutoMerge it never recurses.
// It returns false when the cell is untouched.
func TryMerge[D Data[D], I MergeableData[D, I]](cell *Cell[D, I]) bool {
	if cell.nodeType != InternalNode {
		return false
	}
	var values [8]D
	for i, child := range cell.children {
		if child.nodeType != LeafNode {
			return false
		}
		values[i] = child.leaf
	}
	if !cell.internal.CanMerge(&values) {
		return false
	}
	cell.setLeaf(cell.internal.Merge(values))
	return true
}

// FollowPathSplitting descends along the path like FollowPath, but
// materializes leaf and packed cells along the way by splitting them, so
// that the cell at the full path exists afterwards. Internal summaries are
// not recomputed; pair with UpdateOnPath after mutating the target.
func FollowPathSplitting[D SplittableData[D, I], I Data[I]](c *Cell[D, I], path CellPath) *Cell[D, I] {
	cell := c
	for !path.IsRoot() {
		switch cell.nodeType {
		case LeafNode:
			Split(cell)
		case PackedNode:
			if !SplitPacked(cell) {
				Split(cell)
			}
			continue
		default:
		}
		rest, octant, _ := path.Pop()
		path = rest
		cell = cell.MutChild(octant)
	}
	return cell
}

// UpdateOnPath recomputes only the internal summaries of the cells along
// the path, bottom-up, leaving the rest of the tree untouched. It is the
// cheap alternative to UpdateAll after a single leaf mutation.
func UpdateOnPath[D Data[D], I AggregateData[D, I]](cell *Cell[D, I], path CellPath) {
	if cell.nodeType != InternalNode {
		return
	}
	if rest, octant, ok := path.Pop(); ok {
		UpdateOnPath(cell.MutChild(octant), rest)
	}
	ShallowUpdate(cell)
}

// NewTreeWithDepth builds a uniform tree of the given depth whose every
// leaf holds a clone of the value, with all internal summaries aggregated.
func NewTreeWithDepth[D Data[D], I AggregateData[D, I]](depth uint, value D) *Cell[D, I] {
	if depth == 0 {
		return NewLeafCell[D, I](value)
	}
	var children [8]*Cell[D, I]
	var refs [8]DataRef[D, I]
	for octant := range children {
		children[octant] = NewTreeWithDepth[D, I](depth-1, value.Clone())
		refs[octant] = children[octant].Data()
	}
	var zero I
	return NewInternalCell(zero.Aggregate(refs), children)
}

// TrySplit splits a leaf only when the value reports it still holds enough
// detail to subdivide. It returns false when the cell is untouched.
func TrySplit[D AutoSplittableData[D, I], I Data[I]](cell *Cell[D, I]) bool {
	if cell.nodeType != LeafNode || !cell.leaf.ShouldAutoSplit() {
		return false
	}
	return Split(cell)
}

// FullSplit unconditionally subdivides every leaf in the subtree until it
// sits the given number of levels below this cell.
func FullSplit[D SplittableData[D, I], I Data[I]](cell *Cell[D, I], levels uint) {
	if levels == 0 || cell.nodeType == PackedNode {
		return
	}
	if cell.nodeType == LeafNode {
		Split(cell)
	}
	for octant := uint8(0); octant < 8; octant++ {
		FullSplit(cell.MutChild(octant), levels-1)
	}
}

// AutoMergeOnPath attempts merges only along the ancestors of the path,
// bottom-up, after a mutation localized to that branch. It returns true if
// the given cell itself became or already is a leaf.
func AutoMergeOnPath[D Data[D], I MergeableData[D, I]](cell *Cell[D, I], path CellPath) bool {
	if cell.nodeType != InternalNode {
		return cell.nodeType == LeafNode
	}
	if rest, octant, ok := path.Pop(); ok {
		AutoMergeOnPath(cell.MutChild(octant), rest)
	}
	return TryMerge(cell)
}

// ShallowUpdate recomputes just this cell's summary from its direct
// children, assuming the children's own summaries are already current.
func ShallowUpdate[D Data[D], I AggregateData[D, I]](cell *Cell[D, I]) {
	if cell.nodeType != InternalNode {
		return
	}
	var refs [8]DataRef[D, I]
	for octant := uint8(0); octant < 8; octant++ {
		refs[octant] = cell.children[octant].Data()
	}
	cell.internal = cell.internal.Aggregate(refs)
}
