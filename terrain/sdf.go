package terrain

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"go.viam.com/voxel/spatialmath"
	"go.viam.com/voxel/svo"
)

// Sample is one evaluation of a terrain field: the signed distance to the
// surface (negative inside) and the material at that point.
type Sample struct {
	Distance float64
	Kind     Kind
}

// SampleFunc evaluates a terrain field at a world position.
type SampleFunc func(p r3.Vector) Sample

// SphereSDF returns the field of a solid sphere of the given material.
func SphereSDF(center r3.Vector, radius float64, kind Kind) SampleFunc {
	return func(p r3.Vector) Sample {
		d := p.Sub(center).Norm() - radius
		if d > 0 {
			return Sample{Distance: d, Kind: KindAir}
		}
		return Sample{Distance: d, Kind: kind}
	}
}

// HalfSpaceSDF returns the field of solid ground filling everything below
// the given height along z.
func HalfSpaceSDF(height float64, kind Kind) SampleFunc {
	return func(p r3.Vector) Sample {
		d := p.Z - height
		if d > 0 {
			return Sample{Distance: d, Kind: KindAir}
		}
		return Sample{Distance: d, Kind: kind}
	}
}

// UnionSDF combines fields, keeping the closest material at every point.
func UnionSDF(fields ...SampleFunc) SampleFunc {
	if len(fields) == 0 {
		panic("union of no fields")
	}
	return func(p r3.Vector) Sample {
		best := fields[0](p)
		for _, field := range fields[1:] {
			if s := field(p); s.Distance < best.Distance {
				best = s
			}
		}
		return best
	}
}

// corner returns corner i of the box, with bit 0 of i selecting the upper
// face along x, bit 1 along y and bit 2 along z, matching octant numbering.
func corner(b spatialmath.AABB, i int) r3.Vector {
	max := b.Max()
	p := b.Min()
	if i&1 != 0 {
		p.X = max.X
	}
	if i&2 != 0 {
		p.Y = max.Y
	}
	if i&4 != 0 {
		p.Z = max.Z
	}
	return p
}

func sampleCell(field SampleFunc, bounds spatialmath.AABB, known [8]*Sample) [8]Sample {
	var samples [8]Sample
	for i := range samples {
		if known[i] != nil {
			samples[i] = *known[i]
			continue
		}
		samples[i] = field(corner(bounds, i))
	}
	return samples
}

// cellFromSamples classifies a cell by its minimum corner sample.
func cellFromSamples(samples *[8]Sample) CellData {
	return CellData{Kind: samples[0].Kind, Distance: float32(samples[0].Distance)}
}

// needsSplit reports whether the cell must be resolved at a finer level.
// Cells whose corners are all further from the surface than the cell
// diagonal cannot contain geometry and never split. Otherwise the cell
// splits when its corners disagree on material, or when the field deviates
// from linear: the field is resampled at every corner pair midpoint and
// compared against the interpolation of the two corners.
func needsSplit(field SampleFunc, bounds spatialmath.AABB, samples *[8]Sample) bool {
	minDist := samples[0].Distance
	for _, s := range samples[1:] {
		if s.Distance < minDist {
			minDist = s.Distance
		}
	}
	if minDist >= bounds.Diagonal() {
		return false
	}
	for _, s := range samples[1:] {
		if s.Kind != samples[0].Kind {
			return true
		}
	}
	for a := 0; a < 8; a++ {
		for b := a + 1; b < 8; b++ {
			mid := corner(bounds, a).Add(corner(bounds, b)).Mul(0.5)
			predicted := (samples[a].Distance + samples[b].Distance) / 2
			if math.Abs(field(mid).Distance-predicted) > Thresholds.SplitMinDelta {
				return true
			}
		}
	}
	return false
}

// FromSDF samples a terrain field into an adaptive octree over bounds,
// subdividing at most maxDepth levels and only where the field varies.
// Summaries are up to date on return.
func FromSDF(logger golog.Logger, field SampleFunc, bounds spatialmath.AABB, maxDepth uint) *Cell {
	root := fromSDF(field, bounds, maxDepth, [8]*Sample{})
	svo.UpdateAll(root)
	logger.Debugw("sampled terrain field", "maxDepth", maxDepth, "cells", root.CellCount())
	return root
}

func fromSDF(field SampleFunc, bounds spatialmath.AABB, depth uint, known [8]*Sample) *Cell {
	samples := sampleCell(field, bounds, known)
	if depth == 0 || !needsSplit(field, bounds, &samples) {
		return svo.NewLeafCell[CellData, CellData](cellFromSamples(&samples))
	}
	var children [8]*Cell
	for octant := 0; octant < 8; octant++ {
		// Child octant's own corner in the same position is the parent
		// corner, so that sample carries down unchanged.
		var childKnown [8]*Sample
		childKnown[octant] = &samples[octant]
		sub := bounds.Octant(octant&1 != 0, octant&2 != 0, octant&4 != 0)
		children[octant] = fromSDF(field, sub, depth-1, childKnown)
	}
	return svo.NewInternalCell(cellFromSamples(&samples), children)
}

// FromSDFPacked samples a terrain field densely into a packed subtree of
// the given depth, classifying each leaf by its minimum corner. Summaries
// are up to date on return.
func FromSDFPacked(logger golog.Logger, field SampleFunc, bounds spatialmath.AABB, depth uint) *PackedCell {
	packed := svo.NewPackedCell(depth, CellData{}, CellData{})
	it := svo.NewPackedIndexIterator(depth)
	for path, index, ok := it.Next(); ok; path, index, ok = it.Next() {
		s := field(path.AABB(bounds).Min())
		*packed.LeafAt(index) = CellData{Kind: s.Kind, Distance: float32(s.Distance)}
	}
	svo.UpdateAllPacked(packed)
	logger.Debugw("sampled packed terrain field", "depth", depth, "leaves", packed.LeafCount())
	return packed
}

// FromSDFAdaptive is FromSDF with the deepest packedLevels levels stored
// densely: the adaptive descent stops packedLevels short of maxDepth and
// fills the remaining resolution with packed subtrees, but only where the
// field still varies.
func FromSDFAdaptive(
	logger golog.Logger,
	field SampleFunc,
	bounds spatialmath.AABB,
	maxDepth, packedLevels uint,
) *Cell {
	if packedLevels > maxDepth {
		packedLevels = maxDepth
	}
	root := fromSDFAdaptive(logger, field, bounds, maxDepth, packedLevels, [8]*Sample{})
	svo.UpdateAll(root)
	logger.Debugw("sampled adaptive terrain field",
		"maxDepth", maxDepth, "packedLevels", packedLevels, "cells", root.CellCount())
	return root
}

func fromSDFAdaptive(
	logger golog.Logger,
	field SampleFunc,
	bounds spatialmath.AABB,
	depth, packedLevels uint,
	known [8]*Sample,
) *Cell {
	samples := sampleCell(field, bounds, known)
	if depth == 0 || !needsSplit(field, bounds, &samples) {
		return svo.NewLeafCell[CellData, CellData](cellFromSamples(&samples))
	}
	if depth <= packedLevels {
		return svo.NewPackedNode(FromSDFPacked(logger, field, bounds, depth))
	}
	var children [8]*Cell
	for octant := 0; octant < 8; octant++ {
		var childKnown [8]*Sample
		childKnown[octant] = &samples[octant]
		sub := bounds.Octant(octant&1 != 0, octant&2 != 0, octant&4 != 0)
		children[octant] = fromSDFAdaptive(logger, field, sub, depth-1, packedLevels, childKnown)
	}
	// Eight dense children stitch back into one dense region.
	var parts [8]*PackedCell
	for octant, child := range children {
		if !child.IsPacked() || child.Packed().Depth() != depth-1 {
			parts[0] = nil
			break
		}
		parts[octant] = child.Packed()
	}
	if parts[0] != nil {
		return svo.NewPackedNode(svo.Repack(cellFromSamples(&samples), parts))
	}
	return svo.NewInternalCell(cellFromSamples(&samples), children)
}
