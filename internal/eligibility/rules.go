package eligibility

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RuleType identifies how a rule's condition payload is interpreted.
type RuleType string

const (
	RuleSubjectCount    RuleType = "subject_count"
	RuleGradeAverage    RuleType = "grade_average"
	RuleSpecificSubject RuleType = "specific_subject"
	RuleComposite       RuleType = "composite"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleSubjectCount, RuleGradeAverage, RuleSpecificSubject, RuleComposite:
		return true
	}
	return false
}

// Rule is an admission rule attached to a programme.
type Rule struct {
	ID        uint
	Type      RuleType
	Condition json.RawMessage
	Weight    float64
	Active    bool
}

// SubjectCountCondition is the payload of a subject_count rule.
type SubjectCountCondition struct {
	MinSubjects    int `json:"min_subjects"`
	GradeThreshold int `json:"grade_threshold"`
}

// CoreSubjectsCondition is the payload of a specific_subject rule.
type CoreSubjectsCondition struct {
	RequiredSubjects []string `json:"required_subjects"`
	MinGrade         int      `json:"min_grade"`
}

// CompositeCondition is the payload of a composite rule. Non-nil weights
// replace the per-component weights.
type CompositeCondition struct {
	Weights *Weights `json:"weights"`
}

// ValidateCondition checks that a condition payload decodes for the rule type.
func ValidateCondition(ruleType RuleType, condition json.RawMessage) error {
	if !ruleType.Valid() {
		return fmt.Errorf("unknown rule type %q", ruleType)
	}
	if len(condition) == 0 {
		if ruleType == RuleGradeAverage {
			return nil
		}
		return fmt.Errorf("%s rule requires a condition", ruleType)
	}

	switch ruleType {
	case RuleSubjectCount:
		var c SubjectCountCondition
		if err := json.Unmarshal(condition, &c); err != nil {
			return fmt.Errorf("invalid subject_count condition: %w", err)
		}
		if c.MinSubjects < 0 || c.GradeThreshold < 0 || c.GradeThreshold > WorstGrade {
			return fmt.Errorf("subject_count condition out of range")
		}
	case RuleSpecificSubject:
		var c CoreSubjectsCondition
		if err := json.Unmarshal(condition, &c); err != nil {
			return fmt.Errorf("invalid specific_subject condition: %w", err)
		}
		if len(c.RequiredSubjects) == 0 {
			return fmt.Errorf("specific_subject condition needs required_subjects")
		}
		if c.MinGrade < 0 || c.MinGrade > WorstGrade {
			return fmt.Errorf("specific_subject min_grade out of range")
		}
	case RuleComposite:
		var c CompositeCondition
		if err := json.Unmarshal(condition, &c); err != nil {
			return fmt.Errorf("invalid composite condition: %w", err)
		}
		if c.Weights != nil && (c.Weights.SubjectCount < 0 || c.Weights.GradeAverage < 0 || c.Weights.CoreSubjects < 0) {
			return fmt.Errorf("composite weights must not be negative")
		}
	case RuleGradeAverage:
		var raw map[string]interface{}
		if err := json.Unmarshal(condition, &raw); err != nil {
			return fmt.Errorf("invalid grade_average condition: %w", err)
		}
	}

	return nil
}

// ruleSet is the active rules of a programme keyed by type; the lowest id of
// each type wins.
type ruleSet struct {
	subjectCount *Rule
	gradeAverage *Rule
	coreSubjects *Rule
	composite    *Rule
}

func selectRules(rules []Rule) ruleSet {
	active := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Active {
			active = append(active, rule)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	var set ruleSet
	for i := range active {
		rule := &active[i]
		switch rule.Type {
		case RuleSubjectCount:
			if set.subjectCount == nil {
				set.subjectCount = rule
			}
		case RuleGradeAverage:
			if set.gradeAverage == nil {
				set.gradeAverage = rule
			}
		case RuleSpecificSubject:
			if set.coreSubjects == nil {
				set.coreSubjects = rule
			}
		case RuleComposite:
			if set.composite == nil {
				set.composite = rule
			}
		}
	}
	return set
}

func (s ruleSet) subjectCountCondition() (SubjectCountCondition, bool) {
	var c SubjectCountCondition
	if s.subjectCount == nil {
		return c, false
	}
	if err := json.Unmarshal(s.subjectCount.Condition, &c); err != nil {
		return SubjectCountCondition{}, false
	}
	return c, true
}

func (s ruleSet) coreSubjectsCondition() (CoreSubjectsCondition, bool) {
	var c CoreSubjectsCondition
	if s.coreSubjects == nil {
		return c, false
	}
	if err := json.Unmarshal(s.coreSubjects.Condition, &c); err != nil {
		return CoreSubjectsCondition{}, false
	}
	cleaned := c.RequiredSubjects[:0]
	for _, subject := range c.RequiredSubjects {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.RequiredSubjects = cleaned
	return c, true
}

func (s ruleSet) compositeWeights() (Weights, bool) {
	if s.composite == nil {
		return Weights{}, false
	}
	var c CompositeCondition
	if err := json.Unmarshal(s.composite.Condition, &c); err != nil || c.Weights == nil {
		return Weights{}, false
	}
	return *c.Weights, true
}
