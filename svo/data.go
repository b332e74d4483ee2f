package svo

// Data is the base constraint for values stored in octree cells. Clone must
// return a value that can be mutated without affecting the receiver.
type Data[D any] interface {
	Clone() D
}

// AggregateData is implemented by internal cell summaries that can be
// recomputed from the eight children below them.
type AggregateData[D Data[D], I any] interface {
	Data[I]

	// Aggregate computes the summary of eight children, each of which may
	// itself be an internal summary or a leaf value.
	Aggregate(children [8]DataRef[D, I]) I
}

// SplittableData is implemented by leaf values that can be subdivided into
// an internal summary plus eight child leaf values.
type SplittableData[D Data[D], I any] interface {
	Data[D]

	// Split subdivides the value one level.
	Split() (I, [8]D)
}

// AutoSplittableData extends SplittableData with a predicate consulted by
// depth-driven tree construction.
type AutoSplittableData[D Data[D], I any] interface {
	SplittableData[D, I]

	// ShouldAutoSplit reports whether the value still holds enough detail
	// to be worth subdividing further.
	ShouldAutoSplit() bool
}

// MergeableData is implemented by internal summaries that can decide to
// collapse eight leaf children back into a single leaf value.
type MergeableData[D Data[D], I any] interface {
	Data[I]

	// CanMerge reports whether the eight leaf children are similar enough
	// to be represented by a single leaf.
	CanMerge(children *[8]D) bool

	// Merge collapses the eight leaf children into one value. It is only
	// called when CanMerge returned true for the same children.
	Merge(children [8]D) D
}

// DataRef is a read-only view of a cell's payload, either an internal
// summary or a leaf value. Exactly one of the two is set.
type DataRef[D Data[D], I any] struct {
	internal *I
	leaf     *D
}

// InternalRef wraps an internal summary.
func InternalRef[D Data[D], I any](internal *I) DataRef[D, I] {
	return DataRef[D, I]{internal: internal}
}

// LeafRef wraps a leaf value.
func LeafRef[D Data[D], I any](leaf *D) DataRef[D, I] {
	return DataRef[D, I]{leaf: leaf}
}

// Internal returns the internal summary, if this ref holds one.
func (r DataRef[D, I]) Internal() (*I, bool) {
	return r.internal, r.internal != nil
}

// Leaf returns the leaf value, if this ref holds one.
func (r DataRef[D, I]) Leaf() (*D, bool) {
	return r.leaf, r.leaf != nil
}

// IsLeaf returns true if the ref holds a leaf value.
func (r DataRef[D, I]) IsLeaf() bool {
	return r.leaf != nil
}
