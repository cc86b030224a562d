// Package relax runs the land-constrained Lloyd relaxation.
//
// Each iteration tessellates the current seeds, clips every cell to the
// land boundary, resolves the land-weighted centroid of the clipped cell
// and moves the seed according to the configured [Policy]. The loop stops
// when no seed moved by the movement threshold or more in an iteration
// ([Converged]) or after the iteration budget is spent ([Exhausted]).
//
// Only the regions built in the final iteration are returned. Iterations
// run one after another; within an iteration the per-seed work may run on
// several goroutines, each writing only its own slot.
package relax

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/landcells/pkg/centroid"
	"github.com/matzehuels/landcells/pkg/clipper"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/observability"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/voronoi"
)

// Default option values.
const (
	DefaultIterations        = 10
	DefaultMovementThreshold = 1.0
	DefaultPolicy            = GateSmallMoves
)

// Policy decides how a seed moves toward its new centroid.
type Policy string

const (
	// GateSmallMoves accepts a centroid only when it lies closer than the
	// movement threshold; otherwise the seed stays put. Every seed then
	// moves less than the threshold, so the loop converges after the
	// first iteration.
	GateSmallMoves Policy = "gate-small-moves"

	// AlwaysMove is classic Lloyd relaxation: the seed always jumps to the
	// centroid and convergence is checked separately.
	AlwaysMove Policy = "always-move"
)

// ValidPolicies lists the accepted policy names.
var ValidPolicies = map[Policy]bool{GateSmallMoves: true, AlwaysMove: true}

// State is the lifecycle state of a run.
type State int

const (
	Initializing State = iota
	Iterating
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for _, c := range []State{Initializing, Iterating, Converged, Exhausted} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Options configures Run. Zero values take the defaults.
type Options struct {
	Iterations        int
	MovementThreshold float64
	Policy            Policy
	Workers           int // goroutines per iteration; values below 2 run sequentially
	Logger            *log.Logger
}

func (o *Options) setDefaults() error {
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.MovementThreshold == 0 {
		o.MovementThreshold = DefaultMovementThreshold
	}
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	switch {
	case o.Iterations < 0:
		return errors.New(errors.ErrCodeInvalidInput, "iterations must be positive, got %d", o.Iterations)
	case o.MovementThreshold < 0 || math.IsNaN(o.MovementThreshold):
		return errors.New(errors.ErrCodeInvalidInput, "movement threshold must be positive, got %v", o.MovementThreshold)
	case !ValidPolicies[o.Policy]:
		return errors.New(errors.ErrCodeInvalidInput, "unknown policy %q", o.Policy)
	}
	return nil
}

// Result is the outcome of a run.
type Result struct {
	Regions     []region.Region `json:"regions"` // final iteration, ascending ID
	Seeds       []region.Seed   `json:"seeds"`   // final seed positions
	State       State           `json:"state"`
	Iterations  int             `json:"iterations"`
	MaxMovement float64         `json:"max_movement"`
	Dropped     []int           `json:"dropped,omitempty"` // seeds whose cell missed land in the final iteration
	Invalid     []int           `json:"invalid,omitempty"` // seeds excluded for invalid geometry in the final iteration
}

type slot struct {
	region  region.Region
	ok      bool
	outcome clipper.Outcome
	invalid bool
	next    orb.Point
}

// Run relaxes seeds inside boundary. The seeds slice is not modified.
// Degenerate seed sets, invalid options and context cancellation stop the
// run with an error; per-region problems are reported in the Result.
func Run(ctx context.Context, m *landmask.Mask, boundary orb.Ring, seeds []region.Seed, opts Options) (*Result, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	hooks := observability.Pipeline()

	cur := slices.Clone(seeds)
	res := &Result{State: Initializing}
	hooks.OnRelaxStart(ctx, len(cur))
	start := time.Now()

	finish := func(err error) (*Result, error) {
		hooks.OnRelaxComplete(ctx, res.State.String(), res.Iterations, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	bound := boundary.Bound()
	for iter := 1; iter <= opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("relax iteration %d: %w", iter, err))
		}
		res.State = Iterating
		iterStart := time.Now()

		cells, err := voronoi.Compute(cur, voronoi.WithBounds(bound))
		if err != nil {
			return finish(fmt.Errorf("tessellate: %w", err))
		}

		slots := make([]slot, len(cells))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range cells {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i] = resolveCell(cells[i], cur[i], boundary, m, opts, logger)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return finish(fmt.Errorf("relax iteration %d: %w", iter, err))
		}

		res.Regions = res.Regions[:0]
		res.Dropped, res.Invalid = nil, nil
		var maxMove float64
		next := make([]region.Seed, len(cur))
		for i, s := range slots {
			next[i] = region.Seed{ID: cur[i].ID, Pos: s.next}
			maxMove = math.Max(maxMove, distance(cur[i].Pos, s.next))
			switch {
			case s.ok:
				res.Regions = append(res.Regions, s.region)
			case s.invalid:
				res.Invalid = append(res.Invalid, cur[i].ID)
			default:
				res.Dropped = append(res.Dropped, cur[i].ID)
			}
		}
		cur = next
		res.Iterations = iter
		res.MaxMovement = maxMove
		res.Seeds = cur

		hooks.OnIteration(ctx, iter, maxMove, len(res.Dropped), time.Since(iterStart))
		logger.Info("relaxation iteration",
			"iteration", iter,
			"regions", len(res.Regions),
			"dropped", len(res.Dropped),
			"invalid", len(res.Invalid),
			"max_movement", fmt.Sprintf("%.3f", maxMove),
			"duration", time.Since(iterStart))

		if maxMove < opts.MovementThreshold {
			res.State = Converged
			break
		}
	}
	if res.State != Converged {
		res.State = Exhausted
	}
	slices.SortFunc(res.Regions, func(a, b region.Region) int { return a.ID - b.ID })
	slices.Sort(res.Dropped)
	slices.Sort(res.Invalid)
	return finish(nil)
}

// resolveCell clips one cell, resolves its centroid and decides where the
// seed goes next.
func resolveCell(cell voronoi.Cell, seed region.Seed, boundary orb.Ring, m *landmask.Mask, opts Options, logger *log.Logger) slot {
	out := slot{next: seed.Pos}
	ring, outcome := clipper.Clip(cell.Ring, boundary)
	out.outcome = outcome
	if outcome.Dropped() {
		logger.Debug("region dropped", "region", seed.ID, "reason", outcome)
		return out
	}
	if outcome == clipper.Largest {
		logger.Debug("region split, kept largest piece", "region", seed.ID)
	}

	c, method, err := centroid.Resolve(ring, m, seed.ID)
	if err != nil {
		logger.Warn("region excluded", "region", seed.ID, "err", err)
		out.invalid = true
		return out
	}
	if method != centroid.LandMean {
		logger.Debug("region has no land overlap", "region", seed.ID, "centroid", method)
	}

	switch opts.Policy {
	case AlwaysMove:
		out.next = c
	default:
		if distance(seed.Pos, c) < opts.MovementThreshold {
			out.next = c
		}
	}
	out.ok = true
	out.region = region.Region{ID: seed.ID, Polygon: ring, Centroid: c, Seed: seed.Pos}
	return out
}

func distance(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
