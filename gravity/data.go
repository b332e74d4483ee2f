// Package gravity builds Barnes-Hut acceleration trees over point masses
// and evaluates the gravity field they induce.
package gravity

import (
	"github.com/golang/geo/r3"

	"go.viam.com/voxel/svo"
)

// Body is a point mass stored in the tree. Inside ClusterData, Pos is
// relative to the holding cell, each component in [0, 1]. The API surface
// of Context uses world coordinates instead.
type Body struct {
	ID   int64
	Pos  r3.Vector
	Mass float64
}

// ClusterData is the leaf payload of a gravity tree, holding the bodies
// that fall inside one cell.
type ClusterData struct {
	Bodies []Body
	// RemainingDepth is how many more times this cell may subdivide.
	RemainingDepth uint8

	maxBodies  int
	mergeBelow int
}

// NewClusterData wraps bodies with cell-relative positions into a leaf
// payload governed by the given configuration.
func NewClusterData(cfg Config, bodies []Body) ClusterData {
	return ClusterData{
		Bodies:         bodies,
		RemainingDepth: uint8(cfg.MaxDepth),
		maxBodies:      cfg.MaxLeafBodies,
		mergeBelow:     cfg.MergeBelowCount,
	}
}

// Clone returns a deep copy of the payload.
func (d ClusterData) Clone() ClusterData {
	clone := d
	clone.Bodies = append([]Body(nil), d.Bodies...)
	return clone
}

// ShouldAutoSplit reports whether the cell is overcrowded and still allowed
// to subdivide.
func (d ClusterData) ShouldAutoSplit() bool {
	return d.RemainingDepth > 0 && len(d.Bodies) > d.maxBodies
}

// octantOrigin is the minimum corner of an octant in the parent's relative
// coordinates.
func octantOrigin(octant uint8) r3.Vector {
	return r3.Vector{
		X: float64(octant&1) / 2,
		Y: float64(octant>>1&1) / 2,
		Z: float64(octant>>2&1) / 2,
	}
}

// Split partitions the bodies into the eight octants, rescaling their
// positions into each child's coordinate frame.
func (d ClusterData) Split() (ClusterSummary, [8]ClusterData) {
	remaining := d.RemainingDepth
	if remaining > 0 {
		remaining--
	}
	var children [8]ClusterData
	for octant := range children {
		children[octant] = ClusterData{
			RemainingDepth: remaining,
			maxBodies:      d.maxBodies,
			mergeBelow:     d.mergeBelow,
		}
	}
	for _, body := range d.Bodies {
		var octant uint8
		if body.Pos.X > 0.5 {
			octant |= 1
		}
		if body.Pos.Y > 0.5 {
			octant |= 2
		}
		if body.Pos.Z > 0.5 {
			octant |= 4
		}
		body.Pos = body.Pos.Sub(octantOrigin(octant)).Mul(2)
		children[octant].Bodies = append(children[octant].Bodies, body)
	}
	var refs [8]svo.DataRef[ClusterData, ClusterSummary]
	for octant := range children {
		refs[octant] = svo.LeafRef[ClusterData, ClusterSummary](&children[octant])
	}
	return ClusterSummary{}.Aggregate(refs), children
}

// ClusterSummary aggregates the mass below an internal cell. CenterOfMass
// is relative to the cell, each component in [0, 1].
type ClusterSummary struct {
	Count        uint32
	TotalMass    float64
	CenterOfMass r3.Vector
}

// Clone returns a copy of the summary.
func (s ClusterSummary) Clone() ClusterSummary {
	return s
}

// Aggregate combines eight children into a summary, folding each child's
// center of mass into the parent's coordinate frame.
func (s ClusterSummary) Aggregate(children [8]svo.DataRef[ClusterData, ClusterSummary]) ClusterSummary {
	var out ClusterSummary
	var weighted r3.Vector
	for octant, ref := range children {
		origin := octantOrigin(uint8(octant))
		if internal, ok := ref.Internal(); ok {
			out.Count += internal.Count
			out.TotalMass += internal.TotalMass
			com := internal.CenterOfMass.Mul(0.5).Add(origin)
			weighted = weighted.Add(com.Mul(internal.TotalMass))
			continue
		}
		leaf, _ := ref.Leaf()
		out.Count += uint32(len(leaf.Bodies))
		for _, body := range leaf.Bodies {
			out.TotalMass += body.Mass
			pos := body.Pos.Mul(0.5).Add(origin)
			weighted = weighted.Add(pos.Mul(body.Mass))
		}
	}
	if out.TotalMass > 0 {
		out.CenterOfMass = weighted.Mul(1 / out.TotalMass)
	} else {
		out.CenterOfMass = r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}
	}
	return out
}

// CanMerge collapses sibling leaves whose combined population is small
// enough that splitting them bought nothing.
func (s ClusterSummary) CanMerge(children *[8]ClusterData) bool {
	total := 0
	for octant := range children {
		total += len(children[octant].Bodies)
	}
	return total < children[0].mergeBelow
}

// Merge concatenates the children's bodies, rescaling their positions back
// into the parent's coordinate frame.
func (s ClusterSummary) Merge(children [8]ClusterData) ClusterData {
	merged := ClusterData{
		maxBodies:  children[0].maxBodies,
		mergeBelow: children[0].mergeBelow,
	}
	for octant := range children {
		child := &children[octant]
		if child.RemainingDepth+1 > merged.RemainingDepth {
			merged.RemainingDepth = child.RemainingDepth + 1
		}
		origin := octantOrigin(uint8(octant))
		for _, body := range child.Bodies {
			body.Pos = body.Pos.Mul(0.5).Add(origin)
			merged.Bodies = append(merged.Bodies, body)
		}
	}
	return merged
}

var (
	_ svo.AutoSplittableData[ClusterData, ClusterSummary] = ClusterData{}
	_ svo.AggregateData[ClusterData, ClusterSummary]      = ClusterSummary{}
	_ svo.MergeableData[ClusterData, ClusterSummary]      = ClusterSummary{}
)

// Cell is a gravity tree cell.
type Cell = svo.Cell[ClusterData, ClusterSummary]

// Arena allocates gravity tree cells in bulk so that per-frame rebuilds
// reuse storage.
type Arena = svo.Arena[ClusterData, ClusterSummary]
