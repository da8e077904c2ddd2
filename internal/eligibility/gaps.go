package eligibility

import (
	"fmt"
	"sort"
)

type gapReport struct {
	missing           []MissingRequirement
	requirementsMet   int
	totalRequirements int
}

// analyzeGaps compares grades with the programme's mandatory requirements and
// its minimum subject count.
func analyzeGaps(grades []SubjectGrade, requirements []Requirement, minSubjects int) gapReport {
	report := gapReport{missing: make([]MissingRequirement, 0)}

	for _, requirement := range requirements {
		if !requirement.Mandatory {
			continue
		}
		report.totalRequirements++

		minimum := requirement.MinimumGrade
		if minimum <= 0 {
			minimum = defaultCoreMinGrade
		}

		grade, ok := findGrade(grades, requirement.SubjectName)
		switch {
		case !ok:
			report.missing = append(report.missing, MissingRequirement{
				Type:        RequirementSubject,
				Description: fmt.Sprintf("%s is a required subject", requirement.SubjectName),
				Severity:    SeverityCritical,
				Suggestion:  fmt.Sprintf("Add %s to your subject combination", requirement.SubjectName),
			})
		case grade.Grade > minimum:
			report.missing = append(report.missing, MissingRequirement{
				Type:        RequirementGrade,
				Description: fmt.Sprintf("%s grade %d is below the required grade %d", requirement.SubjectName, grade.Grade, minimum),
				Severity:    SeverityMajor,
				Suggestion:  fmt.Sprintf("Improve your grade in %s to at least %d", requirement.SubjectName, minimum),
			})
		default:
			report.requirementsMet++
		}
	}

	if minSubjects > 0 && len(grades) < minSubjects {
		report.missing = append(report.missing, MissingRequirement{
			Type:        RequirementPrerequisite,
			Description: fmt.Sprintf("%d subjects supplied, at least %d are required", len(grades), minSubjects),
			Severity:    SeverityCritical,
			Suggestion:  fmt.Sprintf("Provide results for at least %d subjects", minSubjects),
		})
	}

	return report
}

// HasBlocking reports whether any missing requirement blocks eligibility.
func HasBlocking(missing []MissingRequirement) bool {
	for _, item := range missing {
		if item.Severity.Blocks() {
			return true
		}
	}
	return false
}

// SortBySeverity orders missing requirements most severe first, keeping the
// original order within a severity.
func SortBySeverity(missing []MissingRequirement) {
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Severity.Rank() > missing[j].Severity.Rank()
	})
}
