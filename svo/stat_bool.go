package svo

// StatBool is a boolean leaf value whose internal summary tracks whether any
// and whether all values below are set. It is useful both on its own, for
// occupancy style trees, and as a template for richer data types.
type StatBool struct {
	Value bool
}

// Clone returns a copy of the value.
func (s StatBool) Clone() StatBool {
	return s
}

// Split subdivides the value into eight identical copies.
func (s StatBool) Split() (StatBoolSummary, [8]StatBool) {
	summary := StatBoolSummary{Any: s.Value, All: s.Value}
	var children [8]StatBool
	for i := range children {
		children[i] = s
	}
	return summary, children
}

// ShouldAutoSplit always refuses. A uniform boolean holds no more detail.
func (s StatBool) ShouldAutoSplit() bool {
	return false
}

// StatBoolSummary is the internal summary for StatBool trees.
type StatBoolSummary struct {
	Any bool
	All bool
}

// Clone returns a copy of the summary.
func (s StatBoolSummary) Clone() StatBoolSummary {
	return s
}

// Aggregate combines eight child payloads.
func (s StatBoolSummary) Aggregate(children [8]DataRef[StatBool, StatBoolSummary]) StatBoolSummary {
	out := StatBoolSummary{Any: false, All: true}
	for _, child := range children {
		if leaf, ok := child.Leaf(); ok {
			out.Any = out.Any || leaf.Value
			out.All = out.All && leaf.Value
			continue
		}
		internal, _ := child.Internal()
		out.Any = out.Any || internal.Any
		out.All = out.All && internal.All
	}
	return out
}

// CanMerge allows merging when all eight children agree.
func (s StatBoolSummary) CanMerge(children *[8]StatBool) bool {
	for _, child := range children[1:] {
		if child.Value != children[0].Value {
			return false
		}
	}
	return true
}

// Merge collapses eight agreeing children into one.
func (s StatBoolSummary) Merge(children [8]StatBool) StatBool {
	return children[0]
}
