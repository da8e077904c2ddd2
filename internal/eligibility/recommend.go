package eligibility

import (
	"fmt"
	"strings"
)

// RetakeThreshold is the grade above which a retake is suggested.
const RetakeThreshold = 6

func recommend(program Program, grades []SubjectGrade, overallScore float64) []string {
	recommendations := make([]string, 0, len(program.Guidance)+2)
	seen := make(map[string]struct{})
	add := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if _, ok := seen[line]; ok {
			return
		}
		seen[line] = struct{}{}
		recommendations = append(recommendations, line)
	}

	for _, guidance := range program.Guidance {
		add(guidance)
	}

	weak := make([]string, 0)
	for _, grade := range grades {
		if grade.Grade > RetakeThreshold {
			weak = append(weak, fmt.Sprintf("%s (grade %d)", grade.label(), grade.Grade))
		}
	}
	if len(weak) > 0 {
		add(fmt.Sprintf("Consider retaking %s to improve your results", strings.Join(weak, ", ")))
	}

	if overallScore < ConditionalScore {
		for _, pathway := range program.AlternativePathways {
			if strings.TrimSpace(pathway) == "" {
				continue
			}
			add(fmt.Sprintf("Consider the alternative pathway: %s", strings.TrimSpace(pathway)))
		}
	}

	return recommendations
}
