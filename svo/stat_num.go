package svo

// Number covers the numeric types usable as StatNum values.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// StatNum is a numeric leaf value whose internal summary tracks the minimum,
// maximum, sum and count of the values below it.
type StatNum[T Number] struct {
	Value T
}

// Clone returns a copy of the value.
func (s StatNum[T]) Clone() StatNum[T] {
	return s
}

// Split subdivides the value into eight identical copies.
func (s StatNum[T]) Split() (StatNumSummary[T], [8]StatNum[T]) {
	summary := StatNumSummary[T]{
		Min:   s.Value,
		Max:   s.Value,
		Sum:   float64(s.Value) * 8,
		Count: 8,
	}
	var children [8]StatNum[T]
	for i := range children {
		children[i] = s
	}
	return summary, children
}

// StatNumSummary is the internal summary for StatNum trees.
type StatNumSummary[T Number] struct {
	Min   T
	Max   T
	Sum   float64
	Count uint64
}

// Clone returns a copy of the summary.
func (s StatNumSummary[T]) Clone() StatNumSummary[T] {
	return s
}

// Mean returns the mean of the values summarized, or 0 for an empty
// summary.
func (s StatNumSummary[T]) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Aggregate combines eight child payloads.
func (s StatNumSummary[T]) Aggregate(children [8]DataRef[StatNum[T], StatNumSummary[T]]) StatNumSummary[T] {
	var out StatNumSummary[T]
	first := true
	for _, child := range children {
		var part StatNumSummary[T]
		if leaf, ok := child.Leaf(); ok {
			part = StatNumSummary[T]{Min: leaf.Value, Max: leaf.Value, Sum: float64(leaf.Value), Count: 1}
		} else {
			internal, _ := child.Internal()
			part = *internal
		}
		if first {
			out = part
			first = false
			continue
		}
		if part.Min < out.Min {
			out.Min = part.Min
		}
		if part.Max > out.Max {
			out.Max = part.Max
		}
		out.Sum += part.Sum
		out.Count += part.Count
	}
	return out
}

// CanMerge allows merging when all eight children hold the same value.
func (s StatNumSummary[T]) CanMerge(children *[8]StatNum[T]) bool {
	for _, child := range children[1:] {
		if child.Value != children[0].Value {
			return false
		}
	}
	return true
}

// Merge collapses eight identical children into one.
func (s StatNumSummary[T]) Merge(children [8]StatNum[T]) StatNum[T] {
	return children[0]
}
