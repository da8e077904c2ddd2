package eligibility

import (
	"math"
	"strings"
)

const (
	defaultMinSubjects    = 5
	defaultGradeThreshold = 6
	defaultCoreMinGrade   = 6
)

func clampScore(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func clampGrade(grade int) int {
	if grade < BestGrade {
		return BestGrade
	}
	if grade > WorstGrade {
		return WorstGrade
	}
	return grade
}

// normalizeGrades drops unnamed lines, clamps grades into range and keeps the
// best grade per subject, preserving first-seen order.
func normalizeGrades(grades []SubjectGrade) []SubjectGrade {
	normalized := make([]SubjectGrade, 0, len(grades))
	index := make(map[string]int, len(grades))
	for _, grade := range grades {
		key := strings.ToLower(grade.label())
		if key == "" {
			continue
		}
		grade.Grade = clampGrade(grade.Grade)
		if pos, ok := index[key]; ok {
			if grade.Grade < normalized[pos].Grade {
				normalized[pos].Grade = grade.Grade
			}
			continue
		}
		index[key] = len(normalized)
		normalized = append(normalized, grade)
	}
	return normalized
}

// findGrade returns the best grade whose subject name contains subject,
// ignoring case.
func findGrade(grades []SubjectGrade, subject string) (SubjectGrade, bool) {
	needle := strings.ToLower(strings.TrimSpace(subject))
	if needle == "" {
		return SubjectGrade{}, false
	}

	var best SubjectGrade
	found := false
	for _, grade := range grades {
		if !strings.Contains(strings.ToLower(grade.label()), needle) {
			continue
		}
		if !found || grade.Grade < best.Grade {
			best = grade
			found = true
		}
	}
	return best, found
}

// SubjectCountScore is the share of the required subject count the candidate
// passed at or better than the threshold.
func SubjectCountScore(grades []SubjectGrade, condition SubjectCountCondition) float64 {
	minSubjects := condition.MinSubjects
	if minSubjects <= 0 {
		minSubjects = defaultMinSubjects
	}
	threshold := condition.GradeThreshold
	if threshold <= 0 {
		threshold = defaultGradeThreshold
	}

	qualifying := 0
	for _, grade := range grades {
		if grade.Grade <= threshold {
			qualifying++
		}
	}

	return clampScore(float64(qualifying) / float64(minSubjects) * 100)
}

// GradeAverageScore maps the mean grade onto 0..100: a mean of 1 scores 100,
// a mean of 9 scores 0.
func GradeAverageScore(grades []SubjectGrade) float64 {
	if len(grades) == 0 {
		return 0
	}

	total := 0
	for _, grade := range grades {
		total += clampGrade(grade.Grade)
	}
	mean := float64(total) / float64(len(grades))

	return clampScore((float64(WorstGrade) - mean) / float64(WorstGrade-BestGrade) * 100)
}

// CoreSubjectsScore awards an equal share for every required subject the
// candidate holds at or better than the minimum grade.
func CoreSubjectsScore(grades []SubjectGrade, condition CoreSubjectsCondition) float64 {
	if len(condition.RequiredSubjects) == 0 {
		return 0
	}
	minGrade := condition.MinGrade
	if minGrade <= 0 {
		minGrade = defaultCoreMinGrade
	}

	share := 100 / float64(len(condition.RequiredSubjects))
	score := 0.0
	for _, subject := range condition.RequiredSubjects {
		grade, ok := findGrade(grades, subject)
		if ok && grade.Grade <= minGrade {
			score += share
		}
	}

	return clampScore(score)
}
