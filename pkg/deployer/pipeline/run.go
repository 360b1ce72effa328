package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// Run applies the plan to st. The first failing stage aborts the run; state
// written by completed stages stays in st and nothing is undone.
func (p *Plan) Run(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger()
	waves := p.Waves(env.Parallelism > 1)
	lgr.Info("Applying deployment plan", "stages", len(p.stages), "waves", len(waves), "parallelism", max(env.Parallelism, 1))

	for i, wave := range waves {
		if len(wave) == 1 {
			if err := p.runStage(ctx, env, intent, st, wave[0]); err != nil {
				return err
			}
			continue
		}

		lgr.Debug("Running stages concurrently", "wave", i, "stages", len(wave))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(env.Parallelism)
		for _, s := range wave {
			s := s
			g.Go(func() error {
				return p.runStage(gctx, env, intent, st, s)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) runStage(ctx context.Context, env *Env, intent *state.Intent, st *state.State, s Stage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s not started: %w", s.Name, err)
	}
	for _, key := range s.Requires {
		if st.Has(key) {
			continue
		}
		if producer, ok := p.Producer(key); ok {
			return fmt.Errorf("stage %s failed: %w: %s from %s", s.Name, ErrMissingDependency, key, producer)
		}
		return fmt.Errorf("stage %s failed: %w: %s", s.Name, ErrMissingDependency, key)
	}

	start := time.Now()
	err := s.Apply(ctx, env, intent, st)
	env.metrics().RecordStage(s.Name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("stage %s failed: %w", s.Name, err)
	}

	for _, key := range s.Produces {
		if !st.Has(key) {
			return fmt.Errorf("stage %s failed: %w: %s", s.Name, ErrMissingOutput, key)
		}
	}
	return nil
}
