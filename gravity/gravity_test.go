package gravity

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestClusterDataSplit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLeafBodies = 1
	data := NewClusterData(cfg, []Body{
		{ID: 1, Pos: r3.Vector{X: 0.25, Y: 0.25, Z: 0.25}, Mass: 1},
		{ID: 2, Pos: r3.Vector{X: 0.75, Y: 0.75, Z: 0.75}, Mass: 3},
	})
	test.That(t, data.ShouldAutoSplit(), test.ShouldBeTrue)

	summary, children := data.Split()
	test.That(t, len(children[0].Bodies), test.ShouldEqual, 1)
	test.That(t, len(children[7].Bodies), test.ShouldEqual, 1)
	for octant := 1; octant < 7; octant++ {
		test.That(t, children[octant].Bodies, test.ShouldBeEmpty)
	}

	// Positions are rescaled into each child's own frame.
	test.That(t, children[0].Bodies[0].Pos.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, children[7].Bodies[0].Pos.Z, test.ShouldAlmostEqual, 0.5)
	test.That(t, children[0].RemainingDepth, test.ShouldEqual, data.RemainingDepth-1)

	test.That(t, summary.Count, test.ShouldEqual, 2)
	test.That(t, summary.TotalMass, test.ShouldAlmostEqual, 4)
	// Mass-weighted center: (0.25*1 + 0.75*3) / 4 per axis.
	test.That(t, summary.CenterOfMass.X, test.ShouldAlmostEqual, 0.625)
	test.That(t, summary.CenterOfMass.Y, test.ShouldAlmostEqual, 0.625)
	test.That(t, summary.CenterOfMass.Z, test.ShouldAlmostEqual, 0.625)
}

func TestClusterSplitMergeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	bodies := []Body{
		{ID: 1, Pos: r3.Vector{X: 0.1, Y: 0.9, Z: 0.3}, Mass: 1},
		{ID: 2, Pos: r3.Vector{X: 0.6, Y: 0.2, Z: 0.8}, Mass: 2},
		{ID: 3, Pos: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, Mass: 5},
	}
	data := NewClusterData(cfg, append([]Body(nil), bodies...))

	summary, children := data.Split()
	merged := summary.Merge(children)
	test.That(t, merged.RemainingDepth, test.ShouldEqual, data.RemainingDepth)

	sort.Slice(merged.Bodies, func(i, j int) bool {
		return merged.Bodies[i].ID < merged.Bodies[j].ID
	})
	test.That(t, len(merged.Bodies), test.ShouldEqual, len(bodies))
	for i, body := range merged.Bodies {
		test.That(t, body.ID, test.ShouldEqual, bodies[i].ID)
		test.That(t, body.Mass, test.ShouldAlmostEqual, bodies[i].Mass)
		test.That(t, body.Pos.X, test.ShouldAlmostEqual, bodies[i].Pos.X)
		test.That(t, body.Pos.Y, test.ShouldAlmostEqual, bodies[i].Pos.Y)
		test.That(t, body.Pos.Z, test.ShouldAlmostEqual, bodies[i].Pos.Z)
	}
}

func TestClusterSummaryEmpty(t *testing.T) {
	data := NewClusterData(DefaultConfig(), nil)
	summary, _ := data.Split()
	test.That(t, summary.Count, test.ShouldEqual, 0)
	test.That(t, summary.TotalMass, test.ShouldEqual, 0)
	test.That(t, summary.CenterOfMass, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
}

func randomBodies(n int, extent float64) []Body {
	rnd := rand.New(rand.NewSource(1))
	bodies := make([]Body, n)
	for i := range bodies {
		bodies[i] = Body{
			ID: int64(i + 1),
			Pos: r3.Vector{
				X: (rnd.Float64()*2 - 1) * extent,
				Y: (rnd.Float64()*2 - 1) * extent,
				Z: (rnd.Float64()*2 - 1) * extent,
			},
			Mass: 1 + rnd.Float64()*9,
		}
	}
	return bodies
}

func TestRebuild(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g := NewContext(logger, DefaultConfig())
	bodies := randomBodies(500, 50)
	g.Rebuild(bodies)

	test.That(t, g.BodyCount(), test.ShouldEqual, 500)
	test.That(t, g.Depth(), test.ShouldBeGreaterThan, 0)
	test.That(t, g.Depth(), test.ShouldBeLessThanOrEqualTo, DefaultMaxDepth)
	for _, body := range bodies {
		test.That(t, g.Bounds().ContainsPoint(body.Pos), test.ShouldBeTrue)
	}

	root := g.Root()
	test.That(t, root.IsInternal(), test.ShouldBeTrue)
	summary := root.InternalData()
	test.That(t, summary.Count, test.ShouldEqual, 500)
	var totalMass float64
	for _, body := range bodies {
		totalMass += body.Mass
	}
	test.That(t, summary.TotalMass, test.ShouldAlmostEqual, totalMass, 1e-9)
}

func TestRebuildReusesArena(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g := NewContext(logger, DefaultConfig())
	bodies := randomBodies(300, 20)

	g.Rebuild(bodies)
	allocated := g.arena.Allocated()
	test.That(t, allocated, test.ShouldBeGreaterThan, 1)

	g.Rebuild(bodies)
	test.That(t, g.arena.Allocated(), test.ShouldEqual, allocated)
}

func TestComputeFieldExact(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := DefaultConfig()
	cfg.Theta = 0
	g := NewContext(logger, cfg)
	bodies := randomBodies(80, 10)
	g.Rebuild(bodies)

	targets := []Body{
		{ID: -1, Pos: r3.Vector{X: 1, Y: 2, Z: 3}},
		{ID: -2, Pos: r3.Vector{X: -15, Y: 0, Z: 4}},
		bodies[10],
	}
	samples, err := g.ComputeField(context.Background(), targets)
	test.That(t, err, test.ShouldBeNil)

	direct := ComputeFieldDirect(cfg, bodies, targets)
	for i := range targets {
		test.That(t, samples[i].Force.X, test.ShouldAlmostEqual, direct[i].Force.X, 1e-9)
		test.That(t, samples[i].Force.Y, test.ShouldAlmostEqual, direct[i].Force.Y, 1e-9)
		test.That(t, samples[i].Force.Z, test.ShouldAlmostEqual, direct[i].Force.Z, 1e-9)
		test.That(t, samples[i].HasClosest, test.ShouldBeTrue)
		test.That(t, samples[i].Closest.ID, test.ShouldEqual, direct[i].Closest.ID)
	}
}

func TestComputeFieldApproximation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g := NewContext(logger, DefaultConfig())
	bodies := randomBodies(200, 5)
	g.Rebuild(bodies)

	targets := []Body{{ID: -1, Pos: r3.Vector{X: 100, Y: 0, Z: 0}}}
	samples, err := g.ComputeField(context.Background(), targets)
	test.That(t, err, test.ShouldBeNil)

	direct := ComputeFieldDirect(g.Config(), bodies, targets)
	approx := samples[0].Force.Norm()
	exact := direct[0].Force.Norm()
	test.That(t, approx, test.ShouldAlmostEqual, exact, exact*0.05)
	// The far cluster pulls the target back toward the origin.
	test.That(t, samples[0].Force.X, test.ShouldBeLessThan, 0)
}

func TestComputeFieldTwoBodies(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g := NewContext(logger, DefaultConfig())
	bodies := []Body{
		{ID: 1, Pos: r3.Vector{X: -1}, Mass: 2},
		{ID: 2, Pos: r3.Vector{X: 1}, Mass: 2},
	}
	g.Rebuild(bodies)

	samples, err := g.ComputeField(context.Background(), bodies)
	test.That(t, err, test.ShouldBeNil)

	// Each body is pulled only by the other, with equal and opposite field.
	test.That(t, samples[0].Force.X, test.ShouldAlmostEqual, -samples[1].Force.X, 1e-9)
	test.That(t, samples[0].Force.X, test.ShouldBeGreaterThan, 0)
	test.That(t, samples[0].Closest.ID, test.ShouldEqual, 2)
	test.That(t, samples[1].Closest.ID, test.ShouldEqual, 1)
	test.That(t, samples[0].Closest.DistanceSquared, test.ShouldAlmostEqual, 4, 1e-9)
}

func TestComputeFieldErrors(t *testing.T) {
	logger := golog.NewTestLogger(t)
	g := NewContext(logger, DefaultConfig())

	_, err := g.ComputeField(context.Background(), []Body{{ID: -1}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no gravity tree")

	g.Rebuild(randomBodies(50, 5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.ComputeField(ctx, []Body{{ID: -1}, {ID: -2}})
	test.That(t, err, test.ShouldNotBeNil)
}
