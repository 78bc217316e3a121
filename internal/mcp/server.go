// Package mcp provides an MCP (Model Context Protocol) server that exposes
// confpilot functionality as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mlehotay/confpilot/internal/observability"
	"github.com/mlehotay/confpilot/internal/research"
	"github.com/mlehotay/confpilot/internal/review"
	"github.com/mlehotay/confpilot/internal/validator"
	"github.com/mlehotay/confpilot/pkg/models"
)

// Server wraps confpilot services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	validator   validator.ConfigValidator
	reviewer    review.ConfigReviewer
	researcher  research.BestPracticesResearcher
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server with the given service dependencies.
// metricsCalc may be nil if observability is disabled.
func NewServer(val validator.ConfigValidator, rev review.ConfigReviewer, res research.BestPracticesResearcher, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		validator:   val,
		reviewer:    rev,
		researcher:  res,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "confpilot", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type validateConfigInput struct {
	Path string `json:"path" jsonschema:"required,directory containing the configuration to validate"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

type validateConfigOutput struct {
	IsValid      bool                    `json:"is_valid"`
	Score        int                     `json:"score"`
	Summary      string                  `json:"summary"`
	ChecksPassed int                     `json:"checks_passed"`
	ChecksTotal  int                     `json:"checks_total"`
	Issues       []validationIssueOutput `json:"issues,omitempty"`
}

type reviewConfigInput struct {
	Path string `json:"path" jsonschema:"required,directory containing the configuration to review"`
}

type findingOutput struct {
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	File       string `json:"file,omitempty"`
	Source     string `json:"source"`
	Confidence int    `json:"confidence"`
}

type reviewConfigOutput struct {
	Findings []findingOutput `json:"findings"`
	Count    int             `json:"count"`
}

type researchPracticesInput struct {
	Topic string `json:"topic,omitempty" jsonschema:"single topic to research (security, configuration, workflow, multi_model, memory). Empty means all topics."`
	Deep  bool   `json:"deep,omitempty" jsonschema:"include remote community sources"`
}

type practiceOutput struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Confidence  int    `json:"confidence"`
}

type researchPracticesOutput struct {
	SourcesAnalyzed int              `json:"sources_analyzed"`
	FailedSources   []string         `json:"failed_sources,omitempty"`
	Practices       []practiceOutput `json:"practices"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	RunsStarted     int            `json:"runs_started"`
	RunsCompleted   int            `json:"runs_completed"`
	RunsFailed      int            `json:"runs_failed"`
	StagesCompleted map[string]int `json:"stages_completed"`
	StagesSkipped   int            `json:"stages_skipped"`
	SourceFailures  int            `json:"source_failures"`
	FilesWritten    int            `json:"files_written"`
	ReviewFindings  int            `json:"review_findings"`
	EventCount      int            `json:"event_count"`
	OldestEvent     string         `json:"oldest_event,omitempty"`
	NewestEvent     string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "validate_config",
		Description: "Validate a configuration directory: required sections, settings structure, frontmatter, and credential scanning. Returns a scored report.",
	}, s.handleValidateConfig)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "review_config",
		Description: "Review a configuration directory with every configured external model and return the merged, ranked findings.",
	}, s.handleReviewConfig)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "research_practices",
		Description: "Research configuration best practices across the knowledge sources, optionally narrowed to one topic.",
	}, s.handleResearchPractices)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: run counts, stage completions, source failures, files written, and review findings.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleValidateConfig(_ context.Context, _ *gomcp.CallToolRequest, input validateConfigInput) (*gomcp.CallToolResult, validateConfigOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), validateConfigOutput{}, nil
	}

	report, err := s.validator.ValidatePath(input.Path)
	if err != nil {
		return errorResult(fmt.Sprintf("validating %s: %s", input.Path, err)), validateConfigOutput{}, nil
	}

	out := validateConfigOutput{
		IsValid:      report.IsValid,
		Score:        report.Score,
		Summary:      report.Summary,
		ChecksPassed: report.ChecksPassed,
		ChecksTotal:  report.ChecksTotal,
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, validationIssueOutput{
			Severity: string(issue.Severity),
			File:     issue.File,
			Line:     issue.Line,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}
	return nil, out, nil
}

func (s *Server) handleReviewConfig(ctx context.Context, _ *gomcp.CallToolRequest, input reviewConfigInput) (*gomcp.CallToolResult, reviewConfigOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), reviewConfigOutput{}, nil
	}

	files, err := loadConfigDir(input.Path)
	if err != nil {
		return errorResult(fmt.Sprintf("loading %s: %s", input.Path, err)), reviewConfigOutput{}, nil
	}
	if len(files) == 0 {
		return errorResult(fmt.Sprintf("no configuration files found under %s", input.Path)), reviewConfigOutput{}, nil
	}

	findings, err := s.reviewer.Review(ctx, files, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("reviewing %s: %s", input.Path, err)), reviewConfigOutput{}, nil
	}

	out := reviewConfigOutput{Count: len(findings)}
	for _, f := range findings {
		out.Findings = append(out.Findings, findingOutput{
			Severity:   string(f.Severity),
			Category:   string(f.Category),
			Message:    f.Message,
			Suggestion: f.Suggestion,
			File:       f.File,
			Source:     f.Source,
			Confidence: f.Confidence,
		})
	}
	return nil, out, nil
}

func (s *Server) handleResearchPractices(ctx context.Context, _ *gomcp.CallToolRequest, input researchPracticesInput) (*gomcp.CallToolResult, researchPracticesOutput, error) {
	var (
		results *models.ResearchResults
		err     error
	)
	if input.Topic != "" {
		results, err = s.researcher.ResearchTopic(ctx, input.Topic, models.ResearchContext{})
	} else {
		results, err = s.researcher.ResearchAll(ctx, models.ResearchContext{}, input.Deep)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("researching: %s", err)), researchPracticesOutput{}, nil
	}

	out := researchPracticesOutput{
		SourcesAnalyzed: results.SourcesAnalyzed,
		FailedSources:   results.FailedSources,
	}
	for _, p := range results.Practices {
		out.Practices = append(out.Practices, practiceOutput{
			Category:    string(p.Category),
			Title:       p.Title,
			Description: p.Description,
			Priority:    string(p.Priority),
			Confidence:  p.Confidence,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		RunsStarted:     metrics.RunsStarted,
		RunsCompleted:   metrics.RunsCompleted,
		RunsFailed:      metrics.RunsFailed,
		StagesCompleted: metrics.StagesCompleted,
		StagesSkipped:   metrics.StagesSkipped,
		SourceFailures:  metrics.SourceFailures,
		FilesWritten:    metrics.FilesWritten,
		ReviewFindings:  metrics.ReviewFindings,
		EventCount:      metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		StagesCompleted: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
