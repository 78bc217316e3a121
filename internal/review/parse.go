package review

import (
	"encoding/json"
	"strings"

	"github.com/mlehotay/confpilot/internal/aggregate"
	"github.com/mlehotay/confpilot/pkg/models"
)

// issuePayload mirrors the JSON shape models are prompted to return.
type issuePayload struct {
	Issues []struct {
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
		File       string `json:"file"`
		Confidence int    `json:"confidence"`
	} `json:"issues"`
}

// parseIssues extracts findings from one model's response. Issues below
// the confidence floor and responses that are not JSON yield nothing.
func parseIssues(response, source string) []models.Finding {
	raw := extractJSON(response)
	if raw == "" {
		return nil
	}

	var payload issuePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	var findings []models.Finding
	for _, issue := range payload.Issues {
		if issue.Confidence < aggregate.MinConfidence {
			continue
		}
		severity := models.Severity(issue.Severity)
		if !severity.Valid() {
			severity = models.SeverityMedium
		}
		category := models.Category(issue.Category)
		if !category.Valid() {
			category = models.CategoryImprovement
		}
		findings = append(findings, models.Finding{
			Source:     source,
			Severity:   severity,
			Category:   category,
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
			File:       issue.File,
			Confidence: issue.Confidence,
		})
	}
	return findings
}

// extractJSON pulls a JSON object out of a model response that may wrap
// it in prose or a fenced code block.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "{") && json.Valid([]byte(content)) {
		return content
	}

	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			content = parts[1]
		}
	}

	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
