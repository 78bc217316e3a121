package pipeline

import (
	"context"
	"fmt"
)

// ProgressFunc is notified before each stage transition with the stage
// name, its 1-based position, and the total stage count. Advisory only.
type ProgressFunc func(stageName string, current, total int)

// RunOptions configures one pipeline run.
type RunOptions struct {
	// DryRun validates and reports intended actions without invoking any
	// stage's Run.
	DryRun bool
	// StartFrom names the stage to resume from. Empty means the first stage.
	StartFrom string
	// StopAfter names the stage after which the run terminates successfully.
	StopAfter string
}

// Pipeline sequences stages, threading a Context through each. It holds
// no run-to-run state; resuming is done by passing a restored Context and
// StartFrom to Run.
type Pipeline struct {
	stages     []Stage
	onProgress ProgressFunc
	events     EventLogger
}

// New creates a Pipeline over the ordered stage list. onProgress and
// events may be nil.
func New(stages []Stage, onProgress ProgressFunc, events EventLogger) *Pipeline {
	return &Pipeline{stages: stages, onProgress: onProgress, events: events}
}

// StageNames returns the names of all stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the pipeline from opts.StartFrom (or the beginning)
// through opts.StopAfter (or the end), returning the final context.
//
// Per-stage transition: skip check, input validation, dry-run check,
// execution. A validation failure outside dry-run mode is fatal. A stage
// failure invokes the stage's OnError hook and then aborts the run; there
// is no automatic retry. Cancellation of ctx aborts at the next stage
// boundary.
func (p *Pipeline) Run(ctx context.Context, pctx *Context, opts RunOptions) (*Context, error) {
	if pctx == nil {
		pctx = NewContext()
	}

	startIdx := 0
	if opts.StartFrom != "" {
		idx := p.stageIndex(opts.StartFrom)
		if idx < 0 {
			return pctx, fmt.Errorf("unknown resume stage %q", opts.StartFrom)
		}
		startIdx = idx
	}
	if opts.StopAfter != "" && p.stageIndex(opts.StopAfter) < 0 {
		return pctx, fmt.Errorf("unknown stop-after stage %q", opts.StopAfter)
	}

	total := len(p.stages)

	for idx := startIdx; idx < total; idx++ {
		stage := p.stages[idx]

		if err := ctx.Err(); err != nil {
			return pctx, fmt.Errorf("run cancelled before stage %s: %w", stage.Name(), err)
		}

		pctx.CurrentStage = stage.Name()

		if p.onProgress != nil {
			p.onProgress(stage.Name(), idx+1, total)
		}

		if stage.ShouldSkip(pctx) {
			p.logEvent("pipeline.stage_skipped", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})
			continue
		}

		if !stage.ValidateInput(pctx) {
			if !opts.DryRun {
				err := &StageError{Stage: stage.Name(), Err: fmt.Errorf("missing required inputs")}
				p.logEvent("pipeline.stage_invalid", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})
				return pctx, err
			}
			p.logEvent("pipeline.stage_invalid_skipped", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})
			continue
		}

		if opts.DryRun {
			p.logEvent("pipeline.dry_run", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})
			continue
		}

		next, err := stage.Run(ctx, pctx)
		if err != nil {
			stage.OnError(pctx, err)
			if se, ok := err.(*StageError); ok {
				return pctx, se
			}
			return pctx, &StageError{Stage: stage.Name(), Err: err}
		}
		pctx = next
		pctx.CompletedStages = append(pctx.CompletedStages, stage.Name())
		p.logEvent("pipeline.stage_completed", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})

		if opts.StopAfter != "" && stage.Name() == opts.StopAfter {
			p.logEvent("pipeline.stopped_after", map[string]any{"stage": stage.Name(), "run_id": pctx.RunID})
			break
		}
	}

	return pctx, nil
}

// RunStage runs a single stage by name, standalone, bypassing skip and
// validation checks.
func (p *Pipeline) RunStage(ctx context.Context, name string, pctx *Context) (*Context, error) {
	if pctx == nil {
		pctx = NewContext()
	}
	idx := p.stageIndex(name)
	if idx < 0 {
		return pctx, fmt.Errorf("stage not found: %s", name)
	}
	stage := p.stages[idx]
	pctx.CurrentStage = name
	next, err := stage.Run(ctx, pctx)
	if err != nil {
		stage.OnError(pctx, err)
		return pctx, &StageError{Stage: name, Err: err}
	}
	next.CompletedStages = append(next.CompletedStages, name)
	return next, nil
}

// ValidateAll evaluates every stage's input validation against the given
// context without running anything.
func (p *Pipeline) ValidateAll(pctx *Context) map[string]bool {
	results := make(map[string]bool, len(p.stages))
	for _, stage := range p.stages {
		results[stage.Name()] = stage.ValidateInput(pctx)
	}
	return results
}

func (p *Pipeline) stageIndex(name string) int {
	for i, s := range p.stages {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (p *Pipeline) logEvent(eventType string, data map[string]any) {
	if p.events != nil {
		_ = p.events.LogEvent(eventType, data)
	}
}
