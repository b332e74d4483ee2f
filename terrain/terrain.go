// Package terrain models voxel terrain on top of the svo package: a
// material kind plus a signed distance to the surface per cell, with
// aggregation and merge rules tuned for large mostly-uniform volumes.
package terrain

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/voxel/svo"
)

// Kind identifies the material of a terrain cell.
type Kind uint8

// The terrain materials.
const (
	KindInvalid Kind = iota
	KindAir
	KindStoneDarker
	KindStone
	KindPink
	KindBlue
)

var kindColors = map[Kind]colorful.Color{
	KindInvalid:     {R: 1, G: 0, B: 1},
	KindAir:         {R: 0, G: 0, B: 0},
	KindStoneDarker: {R: 0.25, G: 0.25, B: 0.25},
	KindStone:       {R: 0.45, G: 0.45, B: 0.45},
	KindPink:        {R: 0.9, G: 0.5, B: 0.7},
	KindBlue:        {R: 0.3, G: 0.5, B: 0.9},
}

// Color returns the display color of the material.
func (k Kind) Color() colorful.Color {
	if c, ok := kindColors[k]; ok {
		return c
	}
	return kindColors[KindInvalid]
}

// IsAir returns true for materials that do not produce surface geometry.
func (k Kind) IsAir() bool {
	return k == KindAir || k == KindInvalid
}

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAir:
		return "air"
	case KindStoneDarker:
		return "stone-darker"
	case KindStone:
		return "stone"
	case KindPink:
		return "pink"
	case KindBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Thresholds tunes when terrain cells merge and when the builders keep
// subdividing. Distances are in world units.
var Thresholds = struct {
	// MergeDistance is the minimum mean distance from the surface at
	// which eight same-material children collapse into one cell.
	MergeDistance float64
	// SplitMinDelta is the minimum spread of corner distances, relative
	// to the cell diagonal, below which a cell is left unsplit.
	SplitMinDelta float64
}{
	MergeDistance: 10,
	SplitMinDelta: 0.01,
}

// CellData is the payload of a terrain cell, used both for leaves and for
// internal summaries. Distance is the signed distance from the cell's
// minimum corner to the surface, negative inside.
type CellData struct {
	Kind     Kind
	Distance float32
}

// Clone returns a copy of the data.
func (d CellData) Clone() CellData {
	return d
}

// IsAir returns true when the cell holds no surface-producing material.
func (d CellData) IsAir() bool {
	return d.Kind.IsAir()
}

// Empty is an alias for IsAir, satisfying consumers that only care whether
// the cell contributes geometry.
func (d CellData) Empty() bool {
	return d.IsAir()
}

// Aggregate summarizes eight children as their most frequent material and
// mean distance.
func (d CellData) Aggregate(children [8]svo.DataRef[CellData, CellData]) CellData {
	var counts [8]int
	var sum float64
	var best Kind
	for _, ref := range children {
		child := refData(ref)
		counts[child.Kind]++
		if counts[child.Kind] > counts[best] {
			best = child.Kind
		}
		sum += float64(child.Distance)
	}
	return CellData{Kind: best, Distance: float32(sum / 8)}
}

// Split subdivides the cell into eight copies of itself.
func (d CellData) Split() (CellData, [8]CellData) {
	var children [8]CellData
	for i := range children {
		children[i] = d
	}
	return d, children
}

// ShouldAutoSplit refuses. Terrain detail comes from resampling the source
// field, not from copying a uniform cell downward.
func (d CellData) ShouldAutoSplit() bool {
	return false
}

// MeanDistance returns the mean signed distance of eight sibling cells.
func MeanDistance(children *[8]CellData) float64 {
	distances := make([]float64, 8)
	for i, child := range children {
		distances[i] = float64(child.Distance)
	}
	return stat.Mean(distances, nil)
}

// DensityDelta returns the standard deviation of the signed distances of
// eight sibling cells, a measure of how unevenly the surface cuts them.
func DensityDelta(children *[8]CellData) float64 {
	distances := make([]float64, 8)
	for i, child := range children {
		distances[i] = float64(child.Distance)
	}
	return stat.StdDev(distances, nil)
}

// CanMerge allows merging when all children share a material and their mean
// distance from the surface clears the merge threshold.
func (d CellData) CanMerge(children *[8]CellData) bool {
	for _, child := range children {
		if child.Kind != children[0].Kind {
			return false
		}
	}
	return math.Abs(MeanDistance(children)) > Thresholds.MergeDistance
}

// Merge collapses eight children into their aggregate.
func (d CellData) Merge(children [8]CellData) CellData {
	var refs [8]svo.DataRef[CellData, CellData]
	for i := range children {
		refs[i] = svo.LeafRef[CellData, CellData](&children[i])
	}
	return d.Aggregate(refs)
}

func refData(ref svo.DataRef[CellData, CellData]) *CellData {
	if leaf, ok := ref.Leaf(); ok {
		return leaf
	}
	internal, _ := ref.Internal()
	return internal
}

// Simplify collapses subtrees of the terrain cell that the merge rules
// consider uniform enough. It returns true if the cell itself became or
// already was a leaf.
func Simplify(cell *Cell) bool {
	return svo.AutoMerge(cell)
}

// Cell is a terrain octree cell.
type Cell = svo.Cell[CellData, CellData]

// PackedCell is a dense terrain subtree.
type PackedCell = svo.PackedCell[CellData, CellData]
