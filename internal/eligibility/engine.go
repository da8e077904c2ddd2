package eligibility

import "fmt"

// Engine evaluates candidates against programme rules. It holds no state
// beyond its configuration and is safe for concurrent use.
type Engine struct {
	defaults Weights
}

// NewEngine builds an engine. Zero weights fall back to DefaultWeights.
func NewEngine(defaults Weights) *Engine {
	if defaults.total() <= 0 {
		defaults = DefaultWeights
	}
	return &Engine{defaults: defaults}
}

// Assess scores grades against a programme. A nil program yields the
// programme-not-found result.
func (e *Engine) Assess(program *Program, rules []Rule, requirements []Requirement, grades []SubjectGrade) Result {
	if program == nil {
		return e.ProgramNotFound("")
	}

	normalized := normalizeGrades(grades)
	set := selectRules(rules)

	var breakdown Breakdown
	countCondition, hasCountRule := set.subjectCountCondition()
	if hasCountRule {
		if countCondition.MinSubjects <= 0 {
			countCondition.MinSubjects = program.MinSubjects
		}
		breakdown.SubjectCountScore = SubjectCountScore(normalized, countCondition)
	}
	breakdown.GradeAverageScore = GradeAverageScore(normalized)
	if coreCondition, ok := set.coreSubjectsCondition(); ok {
		breakdown.CoreSubjectsScore = CoreSubjectsScore(normalized, coreCondition)
	}

	minSubjects := program.MinSubjects
	if hasCountRule && countCondition.MinSubjects > 0 {
		minSubjects = countCondition.MinSubjects
	}
	gaps := analyzeGaps(normalized, requirements, minSubjects)
	breakdown.RequirementsMet = gaps.requirementsMet
	breakdown.TotalRequirements = gaps.totalRequirements

	breakdown.TotalWeightedScore = WeightedScore(breakdown, resolveWeights(set, e.defaults))
	overall := breakdown.TotalWeightedScore

	missing := gaps.missing
	SortBySeverity(missing)

	return Result{
		OverallScore:    overall,
		Status:          Classify(overall, missing),
		Breakdown:       breakdown,
		Missing:         missing,
		Recommendations: recommend(*program, normalized, overall),
	}
}

// ProgramNotFound is the result for an unknown programme.
func (e *Engine) ProgramNotFound(programID string) Result {
	description := "Program not found"
	if programID != "" {
		description = fmt.Sprintf("Program not found: %s", programID)
	}

	return Result{
		Status: StatusNotEligible,
		Missing: []MissingRequirement{{
			Type:        RequirementPrerequisite,
			Description: description,
			Severity:    SeverityCritical,
			Suggestion:  "Check the programme selected on the application",
		}},
		Recommendations: []string{},
	}
}
