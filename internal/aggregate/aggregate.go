// Package aggregate implements the fan-out/fan-in primitive used to query
// multiple independent sources (research knowledge bases, reviewer models)
// concurrently with per-source failure isolation, then merge, deduplicate,
// filter, and rank the combined findings.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mlehotay/confpilot/pkg/models"
)

// MinConfidence is the inclusive confidence threshold below which findings
// are dropped before ranking. Callers can rely on every returned finding
// having Confidence >= MinConfidence.
const MinConfidence = 80

// crossValidationBoost is added to a kept finding's confidence each time
// another source reports a duplicate of it, capped at 99.
const crossValidationBoost = 5

// DefaultTimeout bounds a whole Collect invocation when the caller does
// not configure one.
const DefaultTimeout = 30 * time.Second

// QueryFunc queries one source. It must honor ctx cancellation on network
// calls; a slow source that ignores ctx is abandoned at the timeout and
// its late result discarded.
type QueryFunc func(ctx context.Context) ([]models.Finding, error)

// Source pairs a stable identifier with the function that queries it.
type Source struct {
	ID    string
	Query QueryFunc
}

// SourceFailure records one source that failed or timed out. Failures are
// soft: they never abort the batch.
type SourceFailure struct {
	SourceID string
	Err      error
}

// Result is the combined outcome of one Collect invocation.
type Result struct {
	Findings []models.Finding
	Failures []SourceFailure
}

// EventLogger receives soft-failure and completion events. May be nil.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Aggregator fans a query out over N sources, joins within a global
// timeout, and post-processes the merged findings. Each source gets
// exactly one attempt per Collect call.
type Aggregator struct {
	timeout time.Duration
	events  EventLogger
}

// New creates an Aggregator with the given global timeout. A zero or
// negative timeout falls back to DefaultTimeout. events may be nil.
func New(timeout time.Duration, events EventLogger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{timeout: timeout, events: events}
}

// sourceResult carries one worker's outcome to the fan-in point.
type sourceResult struct {
	sourceID string
	findings []models.Finding
	err      error
}

// Collect queries all sources concurrently and returns the deduplicated,
// confidence-filtered, severity-ranked findings of the sources that
// completed in time. Ordering across sources before ranking is
// completion order and is not deterministic.
func (a *Aggregator) Collect(ctx context.Context, sources []Source) Result {
	if len(sources) == 0 {
		return Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// Buffered so an abandoned worker finishing after the deadline can
	// still exit instead of leaking on a blocked send.
	results := make(chan sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			res := sourceResult{sourceID: src.ID}
			func() {
				defer func() {
					if r := recover(); r != nil {
						res.err = fmt.Errorf("source %s panicked: %v", src.ID, r)
						res.findings = nil
					}
				}()
				res.findings, res.err = src.Query(gctx)
			}()
			select {
			case results <- res:
			case <-gctx.Done():
			}
			// Worker errors are soft; never fail the group.
			return nil
		})
	}

	var result Result
	merged := make([]models.Finding, 0)
	reported := make(map[string]bool, len(sources))

collect:
	for len(reported) < len(sources) {
		select {
		case res := <-results:
			reported[res.sourceID] = true
			if res.err != nil {
				result.Failures = append(result.Failures, SourceFailure{SourceID: res.sourceID, Err: res.err})
				a.logEvent("aggregate.source_failed", map[string]any{
					"source": res.sourceID,
					"error":  res.err.Error(),
				})
				continue
			}
			merged = append(merged, res.findings...)
		case <-ctx.Done():
			break collect
		}
	}

	// Sources that never reported before the deadline are timeouts.
	if len(reported) < len(sources) {
		for _, src := range sources {
			if !reported[src.ID] {
				result.Failures = append(result.Failures, SourceFailure{
					SourceID: src.ID,
					Err:      fmt.Errorf("source %s timed out after %s", src.ID, a.timeout),
				})
				a.logEvent("aggregate.source_timeout", map[string]any{"source": src.ID})
			}
		}
	}

	// Abandoned workers drain in the background; the buffered results
	// channel lets them exit even after Collect has returned.
	go func() { _ = g.Wait() }()

	result.Findings = rank(filter(dedupe(merged)))

	a.logEvent("aggregate.completed", map[string]any{
		"sources":  len(sources),
		"failures": len(result.Failures),
		"findings": len(result.Findings),
	})

	return result
}

// dedupe merges findings by dedupe key, keeping the first-seen finding.
// Each dropped duplicate cross-validates the kept finding and boosts its
// confidence.
func dedupe(findings []models.Finding) []models.Finding {
	index := make(map[string]int, len(findings))
	unique := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		key := f.DedupeKey()
		if i, seen := index[key]; seen {
			boosted := unique[i].Confidence + crossValidationBoost
			if boosted > 99 {
				boosted = 99
			}
			unique[i].Confidence = boosted
			continue
		}
		index[key] = len(unique)
		unique = append(unique, f)
	}
	return unique
}

// filter drops findings below the confidence threshold.
func filter(findings []models.Finding) []models.Finding {
	kept := findings[:0]
	for _, f := range findings {
		if f.Confidence >= MinConfidence {
			kept = append(kept, f)
		}
	}
	return kept
}

// rank stable-sorts by severity rank ascending, then confidence descending.
func rank(findings []models.Finding) []models.Finding {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return findings[i].Confidence > findings[j].Confidence
	})
	return findings
}

// logEvent emits an event if an EventLogger is configured.
func (a *Aggregator) logEvent(eventType string, data map[string]any) {
	if a.events != nil {
		_ = a.events.LogEvent(eventType, data)
	}
}
