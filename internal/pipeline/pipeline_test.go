package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeStage is a configurable stage for executor tests.
type fakeStage struct {
	base
	skip     bool
	valid    bool
	runErr   error
	ran      *[]string
	onErrHit *bool
}

func newFakeStage(name string, ran *[]string) *fakeStage {
	return &fakeStage{base: base{name: name, description: name}, valid: true, ran: ran}
}

func (s *fakeStage) ShouldSkip(*Context) bool    { return s.skip }
func (s *fakeStage) ValidateInput(*Context) bool { return s.valid }

func (s *fakeStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	if s.runErr != nil {
		return pctx, s.runErr
	}
	if s.ran != nil {
		*s.ran = append(*s.ran, s.name)
	}
	return pctx, nil
}

func (s *fakeStage) OnError(*Context, error) {
	if s.onErrHit != nil {
		*s.onErrHit = true
	}
}

func TestRun_AllStagesInOrder(t *testing.T) {
	var ran []string
	p := New([]Stage{
		newFakeStage("one", &ran),
		newFakeStage("two", &ran),
		newFakeStage("three", &ran),
	}, nil, nil)

	pctx, err := p.Run(context.Background(), nil, RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"one", "two", "three"}
	for i, name := range want {
		if ran[i] != name {
			t.Fatalf("execution order: expected %v, got %v", want, ran)
		}
		if pctx.CompletedStages[i] != name {
			t.Fatalf("completed stages: expected %v, got %v", want, pctx.CompletedStages)
		}
	}
	if pctx.RunID == "" {
		t.Fatal("expected a fresh run ID")
	}
}

func TestRun_StartFromSkipsEarlierStages(t *testing.T) {
	var ran []string
	p := New([]Stage{
		newFakeStage("one", &ran),
		newFakeStage("two", &ran),
		newFakeStage("three", &ran),
	}, nil, nil)

	pctx, err := p.Run(context.Background(), nil, RunOptions{StartFrom: "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ran) != 2 || ran[0] != "two" || ran[1] != "three" {
		t.Fatalf("expected [two three], got %v", ran)
	}
	if pctx.Completed("one") {
		t.Fatal("stage one should not be marked completed")
	}
}

func TestRun_StartFromUnknownStage(t *testing.T) {
	p := New([]Stage{newFakeStage("one", nil)}, nil, nil)
	_, err := p.Run(context.Background(), nil, RunOptions{StartFrom: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown resume stage")
	}
}

func TestRun_StopAfter(t *testing.T) {
	var ran []string
	p := New([]Stage{
		newFakeStage("one", &ran),
		newFakeStage("two", &ran),
		newFakeStage("three", &ran),
	}, nil, nil)

	_, err := p.Run(context.Background(), nil, RunOptions{StopAfter: "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ran) != 2 || ran[1] != "two" {
		t.Fatalf("expected to stop after two, ran %v", ran)
	}
}

func TestRun_SkippedStageNotCompleted(t *testing.T) {
	var ran []string
	skipped := newFakeStage("skipped", &ran)
	skipped.skip = true
	p := New([]Stage{
		newFakeStage("one", &ran),
		skipped,
		newFakeStage("three", &ran),
	}, nil, nil)

	pctx, err := p.Run(context.Background(), nil, RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pctx.Completed("skipped") {
		t.Fatal("skipped stage should not be in CompletedStages")
	}
	if len(ran) != 2 {
		t.Fatalf("expected 2 stages to run, got %v", ran)
	}
}

func TestRun_InvalidInputIsFatal(t *testing.T) {
	invalid := newFakeStage("invalid", nil)
	invalid.valid = false
	p := New([]Stage{newFakeStage("one", nil), invalid}, nil, nil)

	_, err := p.Run(context.Background(), nil, RunOptions{})
	if err == nil {
		t.Fatal("expected fatal error for invalid input")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if se.Stage != "invalid" {
		t.Fatalf("expected stage name in error, got %q", se.Stage)
	}
}

func TestRun_DryRunSkipsInvalidAndRunsNothing(t *testing.T) {
	var ran []string
	invalid := newFakeStage("invalid", &ran)
	invalid.valid = false
	p := New([]Stage{newFakeStage("one", &ran), invalid}, nil, nil)

	pctx, err := p.Run(context.Background(), nil, RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run should never fail on invalid input: %v", err)
	}
	if len(ran) != 0 {
		t.Fatalf("dry run executed stages: %v", ran)
	}
	if len(pctx.CompletedStages) != 0 {
		t.Fatalf("dry run marked stages completed: %v", pctx.CompletedStages)
	}
}

func TestRun_FailureInvokesOnErrorAndWraps(t *testing.T) {
	var hit bool
	failing := newFakeStage("failing", nil)
	failing.runErr = errors.New("boom")
	failing.onErrHit = &hit

	var ran []string
	p := New([]Stage{failing, newFakeStage("after", &ran)}, nil, nil)

	_, err := p.Run(context.Background(), nil, RunOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !hit {
		t.Fatal("OnError hook not invoked")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "failing" {
		t.Fatalf("expected StageError from failing, got %v", err)
	}
	if len(ran) != 0 {
		t.Fatal("stages after the failure must not run")
	}
}

func TestRun_CancelledAtStageBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []string
	p := New([]Stage{newFakeStage("one", &ran)}, nil, nil)

	_, err := p.Run(ctx, nil, RunOptions{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(ran) != 0 {
		t.Fatal("no stage should run after cancellation")
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	var calls []string
	progress := func(name string, current, total int) {
		calls = append(calls, fmt.Sprintf("%s:%d/%d", name, current, total))
	}
	p := New([]Stage{newFakeStage("one", nil), newFakeStage("two", nil)}, progress, nil)

	if _, err := p.Run(context.Background(), nil, RunOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "one:1/2" || calls[1] != "two:2/2" {
		t.Fatalf("unexpected progress calls: %v", calls)
	}
}

func TestRunStage_BypassesChecks(t *testing.T) {
	var ran []string
	s := newFakeStage("solo", &ran)
	s.skip = true
	s.valid = false
	p := New([]Stage{s}, nil, nil)

	pctx, err := p.RunStage(context.Background(), "solo", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ran) != 1 {
		t.Fatal("RunStage should run the stage regardless of skip/validate")
	}
	if !pctx.Completed("solo") {
		t.Fatal("RunStage should mark the stage completed")
	}
}

func TestRunStage_UnknownStage(t *testing.T) {
	p := New(nil, nil, nil)
	if _, err := p.RunStage(context.Background(), "ghost", nil); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestValidateAll(t *testing.T) {
	valid := newFakeStage("valid", nil)
	invalid := newFakeStage("invalid", nil)
	invalid.valid = false
	p := New([]Stage{valid, invalid}, nil, nil)

	results := p.ValidateAll(NewContext())
	if !results["valid"] || results["invalid"] {
		t.Fatalf("unexpected validation map: %v", results)
	}
}

func TestRun_ResumePreservesCompletedStages(t *testing.T) {
	var ran []string
	p := New([]Stage{
		newFakeStage("one", &ran),
		newFakeStage("two", &ran),
	}, nil, nil)

	restored := NewContext()
	restored.CompletedStages = []string{"one"}

	pctx, err := p.Run(context.Background(), restored, RunOptions{StartFrom: "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pctx.Completed("one") || !pctx.Completed("two") {
		t.Fatalf("expected both stages completed, got %v", pctx.CompletedStages)
	}
	if len(ran) != 1 || ran[0] != "two" {
		t.Fatalf("expected only two to run, got %v", ran)
	}
}
