package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/zhl16/pkg/buhlmann"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner applies segment lists to model points
type Runner struct {
	logger *zap.SugaredLogger
}

// NewRunner creates a runner that logs through logger
func NewRunner(logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{logger: logger}
}

// Run starts a diver at rest at the surface and applies every segment. It
// returns the timeline and the final model point.
func (r *Runner) Run(ctx context.Context, name string, model *buhlmann.Model, constants buhlmann.Constants, segments []Segment) (*Timeline, *buhlmann.ModelPoint, error) {
	mp := buhlmann.NewModelPoint(model, constants)
	if err := mp.InitializeAtSurface(); err != nil {
		return nil, nil, err
	}
	return r.apply(ctx, name, mp, segments)
}

// Continue applies segments to a clone of point; point itself is not modified
func (r *Runner) Continue(ctx context.Context, name string, point *buhlmann.ModelPoint, segments []Segment) (*Timeline, *buhlmann.ModelPoint, error) {
	return r.apply(ctx, name, point.Clone(), segments)
}

func (r *Runner) apply(ctx context.Context, name string, mp *buhlmann.ModelPoint, segments []Segment) (*Timeline, *buhlmann.ModelPoint, error) {
	constants := mp.Constants()
	tl := &Timeline{
		ID:        uuid.New().String(),
		Name:      name,
		Model:     mp.ModelUsed(),
		CreatedAt: time.Now().UTC(),
		Constants: constants,
		Samples:   make([]Sample, 0, len(segments)),
	}

	var runtime float64
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if err := seg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", i+1, err)
		}

		err := mp.AdvanceSegmentByDepth(seg.BeginDepth, seg.EndDepth, seg.Minutes, seg.Gas.Helium, seg.Gas.Nitrogen, seg.GradientFactor)
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		runtime += seg.Minutes

		sample := Sample{
			Seq:                    i + 1,
			Runtime:                runtime,
			Segment:                seg,
			Ceiling:                mp.CurrentCeiling(seg.GradientFactor),
			ControllingCompartment: mp.ControllingCompartmentNumber(seg.GradientFactor),
			WorstMValue:            mp.WorstMValue(buhlmann.DepthToPressure(seg.EndDepth)),
			State:                  mp.Snapshot(),
		}
		tl.Samples = append(tl.Samples, sample)

		r.logger.Debugw("segment applied",
			"timeline", tl.ID,
			"seq", sample.Seq,
			"begin_depth", seg.BeginDepth,
			"end_depth", seg.EndDepth,
			"minutes", seg.Minutes,
			"ceiling", sample.Ceiling,
			"lead_compartment", sample.State.LeadCompartment+1,
		)
	}

	if final := tl.Final(); final != nil {
		r.logger.Infof("timeline %s (%s): %d segments, %.1f min, ceiling %.1f m, stop %d m",
			tl.ID, tl.Model, len(tl.Samples), runtime, final.Ceiling, final.State.LeadCeilingStop)
	}
	return tl, mp, nil
}

// BranchResult is the outcome of one alternative segment list
type BranchResult struct {
	Branch   int                  `json:"branch"`
	Timeline *Timeline            `json:"timeline"`
	Point    *buhlmann.ModelPoint `json:"-"`
}

// EvaluateBranches runs every segment list from its own clone of base, at most
// limit at a time (limit <= 0 means no bound). Results are in branch order.
// The first failing branch cancels the others.
func (r *Runner) EvaluateBranches(ctx context.Context, base *buhlmann.ModelPoint, branches [][]Segment, limit int) ([]BranchResult, error) {
	results := make([]BranchResult, len(branches))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, segments := range branches {
		i, segments := i, segments
		// Clone before the goroutine starts so base is only ever read here
		point := base.Clone()
		g.Go(func() error {
			tl, mp, err := r.apply(ctx, fmt.Sprintf("branch-%d", i+1), point, segments)
			if err != nil {
				return fmt.Errorf("branch %d: %w", i+1, err)
			}
			results[i] = BranchResult{Branch: i + 1, Timeline: tl, Point: mp}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
