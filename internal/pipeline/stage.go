// Package pipeline implements the stage-orchestration engine: the Context
// state record, the Stage contract, the sequential executor, and the nine
// concrete stages of the configuration generation pipeline.
package pipeline

import (
	"context"
	"fmt"
)

// Stage is one discrete, independently testable step of the pipeline.
type Stage interface {
	// Name returns the stable identifier used for resume, stop-after,
	// and error reporting.
	Name() string
	// Description returns a short human-readable label for progress output.
	Description() string
	// ShouldSkip is a pure predicate evaluated before input validation.
	ShouldSkip(pctx *Context) bool
	// ValidateInput is a pure predicate checking that the fields this
	// stage depends on are present in the context.
	ValidateInput(pctx *Context) bool
	// Run executes the stage's effect and returns the updated context.
	// Implementations must preserve the append-only discipline: populate
	// their own fields, never overwrite fields owned by earlier stages.
	Run(ctx context.Context, pctx *Context) (*Context, error)
	// OnError is a cleanup/logging hook invoked when Run fails. It does
	// not change the fatal outcome.
	OnError(pctx *Context, err error)
}

// StageError names the stage that failed and wraps the underlying cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// base carries the identity shared by all concrete stages and supplies
// the default skip/validate/error behavior.
type base struct {
	name        string
	description string
	events      EventLogger
}

func (b base) Name() string        { return b.name }
func (b base) Description() string { return b.description }

func (b base) ShouldSkip(*Context) bool    { return false }
func (b base) ValidateInput(*Context) bool { return true }

func (b base) OnError(_ *Context, err error) {
	b.logEvent("stage.failed", map[string]any{"stage": b.name, "error": err.Error()})
}

// logEvent emits an event if an EventLogger is configured.
func (b base) logEvent(eventType string, data map[string]any) {
	if b.events != nil {
		_ = b.events.LogEvent(eventType, data)
	}
}

// EventLogger receives pipeline lifecycle events. May be nil.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
