// Package spatialmath defines the geometric primitives shared by the voxel
// octree packages: axis-aligned bounding boxes and triangles over r3 vectors.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box described by its minimum corner and
// its (non-negative) size along each axis.
type AABB struct {
	Position r3.Vector `json:"position"`
	Size     r3.Vector `json:"size"`
}

// NewAABB creates a box from a minimum corner and a size.
func NewAABB(position, size r3.Vector) AABB {
	return AABB{Position: position, Size: size}
}

// NewAABBFromMinMax creates a box spanning the two given corners.
func NewAABBFromMinMax(min, max r3.Vector) AABB {
	return AABB{Position: min, Size: max.Sub(min)}
}

// NewAABBCenterSize creates a box from its center point and full size.
func NewAABBCenterSize(center, size r3.Vector) AABB {
	return AABB{Position: center.Sub(size.Mul(0.5)), Size: size}
}

// Min returns the minimum corner of the box.
func (b AABB) Min() r3.Vector {
	return b.Position
}

// Max returns the maximum corner of the box.
func (b AABB) Max() r3.Vector {
	return b.Position.Add(b.Size)
}

// Center returns the center point of the box.
func (b AABB) Center() r3.Vector {
	return b.Position.Add(b.Size.Mul(0.5))
}

// Diagonal returns the length of the box's main diagonal.
func (b AABB) Diagonal() float64 {
	return b.Size.Norm()
}

// ContainsPoint returns true if the point lies inside or on the boundary of
// the box.
func (b AABB) ContainsPoint(p r3.Vector) bool {
	min, max := b.Min(), b.Max()
	return p.X >= min.X && p.X <= max.X &&
		p.Y >= min.Y && p.Y <= max.Y &&
		p.Z >= min.Z && p.Z <= max.Z
}

// ExpandToContainPoint grows the box as needed so the given point is inside
// it, returning the expanded box.
func (b AABB) ExpandToContainPoint(p r3.Vector) AABB {
	min, max := b.Min(), b.Max()
	min.X = math.Min(min.X, p.X)
	min.Y = math.Min(min.Y, p.Y)
	min.Z = math.Min(min.Z, p.Z)
	max.X = math.Max(max.X, p.X)
	max.Y = math.Max(max.Y, p.Y)
	max.Z = math.Max(max.Z, p.Z)
	return NewAABBFromMinMax(min, max)
}

// Octant returns the half-size sub-box selected by the three axis bits. A
// set bit selects the upper half along that axis (bit 0=x, 1=y, 2=z).
func (b AABB) Octant(xUpper, yUpper, zUpper bool) AABB {
	half := b.Size.Mul(0.5)
	pos := b.Position
	if xUpper {
		pos.X += half.X
	}
	if yUpper {
		pos.Y += half.Y
	}
	if zUpper {
		pos.Z += half.Z
	}
	return AABB{Position: pos, Size: half}
}

// AlmostEqual returns true if the two boxes are equal to within a small
// absolute tolerance on every coordinate.
func (b AABB) AlmostEqual(other AABB) bool {
	return Float64AlmostEqual(b.Position.X, other.Position.X, defaultFloatTol) &&
		Float64AlmostEqual(b.Position.Y, other.Position.Y, defaultFloatTol) &&
		Float64AlmostEqual(b.Position.Z, other.Position.Z, defaultFloatTol) &&
		Float64AlmostEqual(b.Size.X, other.Size.X, defaultFloatTol) &&
		Float64AlmostEqual(b.Size.Y, other.Size.Y, defaultFloatTol) &&
		Float64AlmostEqual(b.Size.Z, other.Size.Z, defaultFloatTol)
}

func (b AABB) String() string {
	return fmt.Sprintf("AABB(min=%v, size=%v)", b.Position, b.Size)
}
