package gravity

import (
	"context"
	"math"
	"runtime"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/voxel/svo"
)

// AttractorInfo identifies the strongest-pulling body acting on a target.
type AttractorInfo struct {
	ID              int64
	Force           float64
	DistanceSquared float64
}

// FieldSample is the gravity field evaluated at one target. Force is the
// field strength, so the force on a body at the target is Force scaled by
// its mass.
type FieldSample struct {
	Force      r3.Vector
	Closest    AttractorInfo
	HasClosest bool
}

// ComputeField evaluates the field at every target against the current
// tree, in parallel. A target with a non-zero ID never attracts itself.
func (g *Context) ComputeField(ctx context.Context, targets []Body) ([]FieldSample, error) {
	if g.root == nil {
		return nil, errors.New("no gravity tree built yet")
	}

	samples := make([]FieldSample, len(targets))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i := range targets {
		i := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			samples[i] = g.sampleAt(targets[i])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

type fieldFrame struct {
	cell *Cell
	path svo.CellPath
}

// sampleAt walks the tree for one target, approximating internal cells
// that pass the opening angle test by their summary.
func (g *Context) sampleAt(target Body) FieldSample {
	var sample FieldSample
	theta2 := g.cfg.Theta * g.cfg.Theta

	stack := make([]fieldFrame, 1, 64)
	stack[0] = fieldFrame{cell: g.root, path: svo.NewCellPath()}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		box := frame.path.AABB(g.bounds)

		if frame.cell.IsLeaf() {
			for _, body := range frame.cell.LeafData().Bodies {
				if body.ID == target.ID {
					continue
				}
				attract(g.cfg, &sample, worldPos(body.Pos, box), body.Mass, body.ID, target.Pos)
			}
			continue
		}

		summary := frame.cell.InternalData()
		width := maxComponent(box.Size)
		diff := worldPos(summary.CenterOfMass, box).Sub(target.Pos)
		d2 := diff.Norm2()
		if summary.Count != 1 && width*width > theta2*d2 {
			for octant := uint8(0); octant < 8; octant++ {
				stack = append(stack, fieldFrame{
					cell: frame.cell.Child(octant),
					path: frame.path.Push(octant),
				})
			}
			continue
		}
		if summary.TotalMass > 0 && d2 > 0 {
			d := math.Sqrt(d2)
			sample.Force = sample.Force.Add(
				diff.Mul(g.cfg.GravityConstant * summary.TotalMass / (d2 * d)))
		}
	}
	return sample
}

// attract adds one body's pull to the sample and tracks the closest
// attractor seen so far.
func attract(cfg Config, sample *FieldSample, pos r3.Vector, mass float64, id int64, targetPos r3.Vector) {
	diff := pos.Sub(targetPos)
	d2 := diff.Norm2()
	if d2 == 0 {
		return
	}
	force := mass / d2
	if !sample.HasClosest || d2 < sample.Closest.DistanceSquared {
		sample.Closest = AttractorInfo{ID: id, Force: force, DistanceSquared: d2}
		sample.HasClosest = true
	}
	d := math.Sqrt(d2)
	sample.Force = sample.Force.Add(diff.Mul(cfg.GravityConstant * force / d))
}

// ComputeFieldDirect evaluates the field at every target with an exact
// pairwise sum, without a tree. It serves as the reference the tree
// approximates.
func ComputeFieldDirect(cfg Config, bodies, targets []Body) []FieldSample {
	samples := make([]FieldSample, len(targets))
	for i, target := range targets {
		for _, body := range bodies {
			if body.ID == target.ID {
				continue
			}
			attract(cfg, &samples[i], body.Pos, body.Mass, body.ID, target.Pos)
		}
	}
	return samples
}

func maxComponent(v r3.Vector) float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}
