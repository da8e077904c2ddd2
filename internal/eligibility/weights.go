package eligibility

import "math"

// Weights are the relative contributions of the three component scores.
type Weights struct {
	SubjectCount float64 `json:"subject_count"`
	GradeAverage float64 `json:"grade_average"`
	CoreSubjects float64 `json:"core_subjects"`
}

// DefaultWeights apply to any component whose rule declares no weight.
var DefaultWeights = Weights{SubjectCount: 1, GradeAverage: 1, CoreSubjects: 2}

func (w Weights) total() float64 {
	return w.SubjectCount + w.GradeAverage + w.CoreSubjects
}

// resolveWeights picks declared rule weights, falling back to defaults, and
// lets a composite rule override all three.
func resolveWeights(set ruleSet, defaults Weights) Weights {
	if composite, ok := set.compositeWeights(); ok && composite.total() > 0 {
		return composite
	}

	weights := defaults
	if set.subjectCount != nil && set.subjectCount.Weight > 0 {
		weights.SubjectCount = set.subjectCount.Weight
	}
	if set.gradeAverage != nil && set.gradeAverage.Weight > 0 {
		weights.GradeAverage = set.gradeAverage.Weight
	}
	if set.coreSubjects != nil && set.coreSubjects.Weight > 0 {
		weights.CoreSubjects = set.coreSubjects.Weight
	}
	return weights
}

// WeightedScore combines the breakdown's component scores. The result is a
// convex combination and therefore stays within 0..100.
func WeightedScore(breakdown Breakdown, weights Weights) float64 {
	sc := math.Max(weights.SubjectCount, 0)
	ga := math.Max(weights.GradeAverage, 0)
	cs := math.Max(weights.CoreSubjects, 0)
	total := sc + ga + cs
	if total <= 0 {
		return 0
	}

	sum := sc*breakdown.SubjectCountScore + ga*breakdown.GradeAverageScore + cs*breakdown.CoreSubjectsScore
	return clampScore(sum / total)
}
