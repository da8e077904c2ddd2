// Package eligibility scores Grade-12 results against a programme's admission
// rules. Everything in this package is pure: callers load rules and
// requirements, the engine turns them into a Result.
package eligibility

import "strings"

// Grade bounds on the Zambian Grade-12 certificate scale. Lower is better.
const (
	BestGrade  = 1
	WorstGrade = 9
)

// Status is the eligibility outcome of an assessment.
type Status string

const (
	StatusEligible    Status = "eligible"
	StatusConditional Status = "conditional"
	StatusNotEligible Status = "not_eligible"
	// StatusUnderReview is only ever assigned manually by an assessor.
	StatusUnderReview Status = "under_review"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusEligible, StatusConditional, StatusNotEligible, StatusUnderReview:
		return true
	}
	return false
}

// Severity grades how badly a missing requirement affects eligibility.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rank orders severities; a higher rank is more severe. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// Blocks reports whether a requirement of this severity makes a candidate
// ineligible regardless of score.
func (s Severity) Blocks() bool {
	return s.Rank() >= SeverityCritical.Rank()
}

// RequirementType classifies a missing requirement.
type RequirementType string

const (
	RequirementSubject      RequirementType = "subject"
	RequirementGrade        RequirementType = "grade"
	RequirementDocument     RequirementType = "document"
	RequirementPrerequisite RequirementType = "prerequisite"
)

// SubjectGrade is one line of a candidate's certificate.
type SubjectGrade struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Grade       int    `json:"grade"`
}

func (g SubjectGrade) label() string {
	if name := strings.TrimSpace(g.SubjectName); name != "" {
		return name
	}
	return strings.TrimSpace(g.SubjectID)
}

// Requirement is a subject a programme demands at or better than MinimumGrade.
type Requirement struct {
	SubjectName  string
	MinimumGrade int
	Mandatory    bool
}

// Program carries the programme-level settings the engine reads.
type Program struct {
	ID                  string
	Name                string
	MinSubjects         int
	Guidance            []string
	AlternativePathways []string
}

// Breakdown holds the component scores of an assessment.
type Breakdown struct {
	SubjectCountScore  float64 `json:"subject_count_score"`
	GradeAverageScore  float64 `json:"grade_average_score"`
	CoreSubjectsScore  float64 `json:"core_subjects_score"`
	TotalWeightedScore float64 `json:"total_weighted_score"`
	RequirementsMet    int     `json:"requirements_met"`
	TotalRequirements  int     `json:"total_requirements"`
}

// MissingRequirement describes one gap between a candidate and a programme.
type MissingRequirement struct {
	Type        RequirementType `json:"type"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	Suggestion  string          `json:"suggestion"`
}

// Result is the outcome of a single assessment run.
type Result struct {
	OverallScore    float64
	Status          Status
	Breakdown       Breakdown
	Missing         []MissingRequirement
	Recommendations []string
}
