// Package svo implements a sparse voxel octree with generic per-cell data,
// bit-packed cell addressing, copy-on-write structural sharing, and both
// pointer-based and densely packed cell representations.
package svo

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/voxel/spatialmath"
)

// MaxPathDepth is the deepest path representable by a CellPath. A path packs
// one 3 bit component per level plus a marker bit into a uint64.
const MaxPathDepth = 21

// CellPath addresses a cell in an octree as the sequence of octant choices
// taken from the root. Components are packed 3 bits each with the root-most
// component in the highest occupied bits, under a single marker bit that
// encodes the depth. The zero depth path (just the marker) addresses the
// root itself.
//
// Within a component, bit 0 selects the upper half along x, bit 1 along y
// and bit 2 along z.
type CellPath uint64

// NewCellPath returns the empty path addressing the root cell.
func NewCellPath() CellPath {
	return CellPath(1)
}

// NewCellPathFromIndex reconstructs a path of the given depth from its dense
// index, inverting Index.
func NewCellPathFromIndex(index uint64, depth uint) CellPath {
	if depth > MaxPathDepth {
		panic(fmt.Sprintf("cell path depth %d exceeds maximum %d", depth, MaxPathDepth))
	}
	if index >= uint64(1)<<(3*depth) {
		panic(fmt.Sprintf("index %d out of range for depth %d", index, depth))
	}
	return CellPath(uint64(1)<<(3*depth) | index)
}

// Depth returns the number of components in the path.
func (p CellPath) Depth() uint {
	if p == 0 {
		panic("invalid zero cell path")
	}
	return uint(bits.Len64(uint64(p))-1) / 3
}

// IsRoot returns true if the path has no components.
func (p CellPath) IsRoot() bool {
	return p.Depth() == 0
}

// Index strips the marker bit, yielding a dense index in [0, 8^depth). Paths
// of equal depth map bijectively onto that range.
func (p CellPath) Index() uint64 {
	return uint64(p) ^ uint64(1)<<(3*p.Depth())
}

// Push appends a new deepest component to the path, descending one more
// level into the given octant.
func (p CellPath) Push(octant uint8) CellPath {
	if octant > 7 {
		panic(fmt.Sprintf("invalid octant %d", octant))
	}
	if p.Depth() >= MaxPathDepth {
		panic("cell path capacity exceeded")
	}
	return p<<3 | CellPath(octant)
}

// PushRoot prepends a component at the root end of the path, reparenting the
// whole path under the given octant.
func (p CellPath) PushRoot(octant uint8) CellPath {
	if octant > 7 {
		panic(fmt.Sprintf("invalid octant %d", octant))
	}
	depth := p.Depth()
	if depth >= MaxPathDepth {
		panic("cell path capacity exceeded")
	}
	marker := uint64(1) << (3 * depth)
	return CellPath(uint64(1)<<(3*(depth+1)) | uint64(octant)<<(3*depth) | (uint64(p) ^ marker))
}

// Peek returns the root-most component without removing it. The path must
// not be the root path.
func (p CellPath) Peek() uint8 {
	depth := p.Depth()
	if depth == 0 {
		panic("peek on root cell path")
	}
	return uint8(uint64(p)>>(3*(depth-1))) & 0b111
}

// Pop removes and returns the root-most component, so that repeatedly
// popping walks the path from the root toward the leaf. Popping the root
// path returns ok=false.
func (p CellPath) Pop() (rest CellPath, octant uint8, ok bool) {
	depth := p.Depth()
	if depth == 0 {
		return p, 0, false
	}
	octant = p.Peek()
	lower := uint64(p) & (uint64(1)<<(3*(depth-1)) - 1)
	return CellPath(uint64(1)<<(3*(depth-1)) | lower), octant, true
}

// Parent drops the deepest component. The path must not be the root path.
func (p CellPath) Parent() CellPath {
	if p.Depth() == 0 {
		panic("parent of root cell path")
	}
	return p >> 3
}

// Octants lists the eight octant selectors in order.
func Octants() [8]uint8 {
	return [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}
}

// IsPrefixOf reports whether p addresses other itself or one of its
// ancestors.
func (p CellPath) IsPrefixOf(other CellPath) bool {
	depth := p.Depth()
	if depth > other.Depth() {
		return false
	}
	return other.TakeDepth(depth) == p
}

// RelativeTo strips an ancestor prefix, returning the remainder of the
// path below it.
func (p CellPath) RelativeTo(ancestor CellPath) CellPath {
	if !ancestor.IsPrefixOf(p) {
		panic(fmt.Sprintf("%v is not an ancestor of %v", ancestor, p))
	}
	depth := p.Depth() - ancestor.Depth()
	return CellPath(uint64(1)<<(3*depth) | uint64(p)&(uint64(1)<<(3*depth)-1))
}

// Reparent moves the path from below one ancestor to the same position
// below another.
func (p CellPath) Reparent(from, to CellPath) CellPath {
	return to.Extended(p.RelativeTo(from))
}

// Parents returns the ancestor paths from the immediate parent up to the
// root, excluding the path itself.
func (p CellPath) Parents() []CellPath {
	parents := make([]CellPath, 0, p.Depth())
	for current := p; current.Depth() > 0; {
		current = current.Parent()
		parents = append(parents, current)
	}
	return parents
}

// Children returns the eight direct child paths in octant order.
func (p CellPath) Children() [8]CellPath {
	var children [8]CellPath
	for octant := uint8(0); octant < 8; octant++ {
		children[octant] = p.Push(octant)
	}
	return children
}

// Deepest returns the deepest component. The path must not be the root path.
func (p CellPath) Deepest() uint8 {
	if p.Depth() == 0 {
		panic("deepest on root cell path")
	}
	return uint8(p) & 0b111
}

// TakeDepth truncates the path to its first depth components counted from
// the root.
func (p CellPath) TakeDepth(depth uint) CellPath {
	current := p.Depth()
	if depth > current {
		panic(fmt.Sprintf("cannot take %d components from path of depth %d", depth, current))
	}
	return p >> (3 * (current - depth))
}

// Extended appends all of other's components after p's deepest component.
func (p CellPath) Extended(other CellPath) CellPath {
	otherDepth := other.Depth()
	if p.Depth()+otherDepth > MaxPathDepth {
		panic("cell path capacity exceeded")
	}
	return p<<(3*otherDepth) | CellPath(other.Index())
}

// Neighbor returns the path of the same-depth cell offset by one cell along
// each axis, with dx, dy, dz each in {-1, 0, 1}. If the neighbor lies
// outside the root cell, ok is false.
func (p CellPath) Neighbor(dx, dy, dz int) (CellPath, bool) {
	result := p
	for axis, delta := range [3]int{dx, dy, dz} {
		if delta == 0 {
			continue
		}
		if delta != 1 && delta != -1 {
			panic(fmt.Sprintf("invalid neighbor offset %d", delta))
		}
		carried := false
		depth := result.Depth()
		for level := uint(0); level < depth; level++ {
			bit := uint64(1) << (3*level + uint(axis))
			wasSet := uint64(result)&bit != 0
			result ^= CellPath(bit)
			// Moving up stops at the first cleared bit, moving down at
			// the first set bit. Otherwise the carry propagates to the
			// next shallower component.
			if (delta > 0) != wasSet {
				carried = true
				break
			}
		}
		if !carried {
			return 0, false
		}
	}
	return result, true
}

// Neighbors returns the paths of all neighboring cells at the same depth,
// up to 26, skipping those that fall outside the root cell.
func (p CellPath) Neighbors() []CellPath {
	neighbors := make([]CellPath, 0, 26)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				if neighbor, ok := p.Neighbor(dx, dy, dz); ok {
					neighbors = append(neighbors, neighbor)
				}
			}
		}
	}
	return neighbors
}

// AABB resolves the path to its bounding box given the root cell's box.
func (p CellPath) AABB(root spatialmath.AABB) spatialmath.AABB {
	box := root
	for rest, octant, ok := p.Pop(); ok; rest, octant, ok = rest.Pop() {
		box = box.Octant(octant&1 != 0, octant&2 != 0, octant&4 != 0)
	}
	return box
}

// GridPos returns the integer lattice coordinates of the cell within the
// 2^depth per-axis grid spanned by paths of the same depth.
func (p CellPath) GridPos() (x, y, z uint64) {
	for rest, octant, ok := p.Pop(); ok; rest, octant, ok = rest.Pop() {
		x = x<<1 | uint64(octant&1)
		y = y<<1 | uint64(octant>>1&1)
		z = z<<1 | uint64(octant>>2&1)
	}
	return x, y, z
}

// Components returns the path's components in root to leaf order.
func (p CellPath) Components() []uint8 {
	comps := make([]uint8, 0, p.Depth())
	for rest, octant, ok := p.Pop(); ok; rest, octant, ok = rest.Pop() {
		comps = append(comps, octant)
	}
	return comps
}

func (p CellPath) String() string {
	var sb strings.Builder
	sb.WriteString("CellPath(")
	for i, c := range p.Components() {
		if i > 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%d", c)
	}
	sb.WriteByte(')')
	return sb.String()
}

// MarshalBinary encodes the path as 8 big-endian bytes.
func (p CellPath) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(p) >> (56 - 8*i))
	}
	return buf, nil
}

// UnmarshalBinary decodes a path written by MarshalBinary.
func (p *CellPath) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return errors.Errorf("expected 8 bytes for cell path, got %d", len(data))
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	if v == 0 {
		return errors.New("invalid zero cell path")
	}
	*p = CellPath(v)
	return nil
}
