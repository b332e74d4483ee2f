package gravity

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"go.viam.com/voxel/spatialmath"
	"go.viam.com/voxel/svo"
)

// Defaults for Config.
const (
	DefaultMaxDepth        = 20
	DefaultMaxLeafBodies   = 10
	DefaultMergeBelowCount = 100
	DefaultTheta           = 0.5
	DefaultGravityConstant = 6.6743
)

// Config tunes tree construction and field evaluation.
type Config struct {
	// MaxDepth bounds how deep the tree may subdivide.
	MaxDepth uint
	// MaxLeafBodies is the population above which a leaf splits.
	MaxLeafBodies int
	// MergeBelowCount is the combined population below which eight sibling
	// leaves collapse back into their parent.
	MergeBelowCount int
	// Theta is the opening angle. An internal cell whose size-to-distance
	// ratio exceeds it is descended into instead of approximated; zero
	// makes the field evaluation exact.
	Theta float64
	// GravityConstant scales every force contribution.
	GravityConstant float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        DefaultMaxDepth,
		MaxLeafBodies:   DefaultMaxLeafBodies,
		MergeBelowCount: DefaultMergeBelowCount,
		Theta:           DefaultTheta,
		GravityConstant: DefaultGravityConstant,
	}
}

// Context owns a gravity tree and the arena its cells live in. Rebuild and
// ComputeField must not run concurrently with each other.
type Context struct {
	cfg    Config
	logger golog.Logger

	arena  *Arena
	bounds spatialmath.AABB
	root   *Cell
	bodies int
}

// NewContext creates an empty context.
func NewContext(logger golog.Logger, cfg Config) *Context {
	return &Context{
		cfg:    cfg,
		logger: logger,
		arena:  svo.NewArena[ClusterData, ClusterSummary](0),
	}
}

// Config returns the tuning the context was created with.
func (g *Context) Config() Config {
	return g.cfg
}

// Root returns the current tree, or nil before the first Rebuild.
func (g *Context) Root() *Cell {
	return g.root
}

// Bounds returns the world region the current tree covers.
func (g *Context) Bounds() spatialmath.AABB {
	return g.bounds
}

// BodyCount returns the number of bodies in the current tree.
func (g *Context) BodyCount() int {
	return g.bodies
}

// Depth returns the depth of the current tree.
func (g *Context) Depth() uint {
	if g.root == nil {
		return 0
	}
	return g.root.Depth()
}

// relativePos maps a world position into a box's unit coordinates.
func relativePos(p r3.Vector, box spatialmath.AABB) r3.Vector {
	return r3.Vector{
		X: (p.X - box.Position.X) / box.Size.X,
		Y: (p.Y - box.Position.Y) / box.Size.Y,
		Z: (p.Z - box.Position.Z) / box.Size.Z,
	}
}

// worldPos maps a box-relative position back into world coordinates.
func worldPos(rel r3.Vector, box spatialmath.AABB) r3.Vector {
	return r3.Vector{
		X: box.Position.X + rel.X*box.Size.X,
		Y: box.Position.Y + rel.Y*box.Size.Y,
		Z: box.Position.Z + rel.Z*box.Size.Z,
	}
}

// Rebuild replaces the tree with one covering the given bodies, reusing the
// arena storage of the previous build. Body positions are world
// coordinates.
func (g *Context) Rebuild(bodies []Body) {
	bounds := spatialmath.NewAABBCenterSize(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	for _, body := range bodies {
		bounds = bounds.ExpandToContainPoint(body.Pos)
	}

	rel := make([]Body, len(bodies))
	for i, body := range bodies {
		rel[i] = body
		rel[i].Pos = relativePos(body.Pos, bounds)
	}

	g.arena.Reset()
	pre := func(path svo.CellPath, cell *Cell) *Cell {
		if !cell.IsLeaf() || !cell.LeafData().ShouldAutoSplit() {
			return cell
		}
		summary, parts := cell.LeafData().Split()
		var children [8]*Cell
		for octant := range children {
			children[octant] = g.arena.NewLeaf(parts[octant])
		}
		return g.arena.NewInternal(summary, children)
	}
	post := func(path svo.CellPath, cell *Cell) *Cell {
		return cell
	}
	root := g.arena.NewLeaf(NewClusterData(g.cfg, rel)).AutoReplaceParallel(pre, post)
	svo.AutoMerge(root)

	g.root = root
	g.bounds = bounds
	g.bodies = len(bodies)
	g.logger.Debugw("rebuilt gravity tree",
		"bodies", len(bodies), "depth", root.Depth(), "cells", root.CellCount())
}
