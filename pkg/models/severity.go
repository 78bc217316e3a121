package models

// Severity classifies how serious a finding or concern is. The set is
// closed: execution severities (critical..low) come from validators and
// reviewers, advisory severities (warning, suggestion) come from the
// critical advisor, and info is reserved for neutral notices.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityHigh       Severity = "high"
	SeverityMedium     Severity = "medium"
	SeverityLow        Severity = "low"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
	SeverityInfo       Severity = "info"
)

// severityRanks fixes the total presentation order across both the
// execution and advisory severity sets. Lower rank sorts first.
var severityRanks = map[Severity]int{
	SeverityCritical:   0,
	SeverityHigh:       1,
	SeverityMedium:     2,
	SeverityLow:        3,
	SeverityWarning:    4,
	SeveritySuggestion: 5,
	SeverityInfo:       6,
}

// Rank returns the sort rank for the severity. Unknown values rank last.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

// Valid reports whether the severity is a member of the closed set.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Category classifies what aspect of a configuration a finding concerns.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryConfiguration Category = "configuration"
	CategoryBestPractice  Category = "best_practice"
	CategoryMissing       Category = "missing"
	CategoryImprovement   Category = "improvement"
	CategoryWorkflow      Category = "workflow"
	CategoryTechStack     Category = "tech_stack"
	CategoryFeatures      Category = "features"
	CategoryEssentials    Category = "essentials"
	CategoryMemory        Category = "memory"
	CategoryMultiModel    Category = "multi_model"
)

var validCategories = map[Category]bool{
	CategorySecurity:      true,
	CategoryConfiguration: true,
	CategoryBestPractice:  true,
	CategoryMissing:       true,
	CategoryImprovement:   true,
	CategoryWorkflow:      true,
	CategoryTechStack:     true,
	CategoryFeatures:      true,
	CategoryEssentials:    true,
	CategoryMemory:        true,
	CategoryMultiModel:    true,
}

// Valid reports whether the category is a member of the closed set.
func (c Category) Valid() bool {
	return validCategories[c]
}
