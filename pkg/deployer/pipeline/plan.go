package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

type StageFn func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error

// Stage is one step of a deployment plan. Requires and Produces are state
// keys: logical names, code keys or completion marks.
type Stage struct {
	Name     string
	Requires []string
	Produces []string
	Apply    StageFn
}

var (
	ErrDuplicateStage    = errors.New("duplicate stage")
	ErrDuplicateOutput   = errors.New("state key produced twice")
	ErrMissingDependency = errors.New("missing dependency")
	ErrMissingOutput     = errors.New("stage did not produce its output")
	ErrEmptyStage        = errors.New("stage has no effect")
)

// Plan is an ordered, validated list of stages: each stage only requires
// keys produced by a stage before it.
type Plan struct {
	stages   []Stage
	producer map[string]int
}

func NewPlan(stages ...Stage) (*Plan, error) {
	p := &Plan{
		stages:   stages,
		producer: make(map[string]int),
	}
	names := make(map[string]bool)
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d has no name", i)
		}
		if names[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, s.Name)
		}
		names[s.Name] = true
		if s.Apply == nil {
			return nil, fmt.Errorf("stage %s has no apply function", s.Name)
		}
		if len(s.Produces) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyStage, s.Name)
		}
		for _, key := range s.Requires {
			if _, ok := p.producer[key]; !ok {
				return nil, fmt.Errorf("%w: stage %s requires %s before it is produced", ErrMissingDependency, s.Name, key)
			}
		}
		for _, key := range s.Produces {
			if prev, ok := p.producer[key]; ok {
				return nil, fmt.Errorf("%w: %s by %s and %s", ErrDuplicateOutput, key, stages[prev].Name, s.Name)
			}
			p.producer[key] = i
		}
	}
	return p, nil
}

func (p *Plan) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Producer returns the name of the stage producing key.
func (p *Plan) Producer(key string) (string, bool) {
	i, ok := p.producer[key]
	if !ok {
		return "", false
	}
	return p.stages[i].Name, true
}

// Waves groups consecutive stages that do not depend on each other. Each
// wave only requires keys produced by earlier waves, so the stages of a wave
// may run concurrently. With parallel unset every stage is its own wave.
func (p *Plan) Waves(parallel bool) [][]Stage {
	var waves [][]Stage
	if !parallel {
		for _, s := range p.stages {
			waves = append(waves, []Stage{s})
		}
		return waves
	}

	var current []Stage
	inWave := make(map[string]bool)
	for _, s := range p.stages {
		dependent := false
		for _, key := range s.Requires {
			if inWave[key] {
				dependent = true
				break
			}
		}
		if dependent {
			waves = append(waves, current)
			current = nil
			inWave = make(map[string]bool)
		}
		current = append(current, s)
		for _, key := range s.Produces {
			inWave[key] = true
		}
	}
	if len(current) > 0 {
		waves = append(waves, current)
	}
	return waves
}
