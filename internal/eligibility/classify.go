package eligibility

// Score cut-offs used by Classify.
const (
	EligibleScore    = 80.0
	ConditionalScore = 60.0
)

// Classify maps an overall score and the missing requirements to a status.
// A blocking requirement always wins over the score. StatusUnderReview is
// never returned.
func Classify(overallScore float64, missing []MissingRequirement) Status {
	if HasBlocking(missing) {
		return StatusNotEligible
	}

	switch {
	case overallScore >= EligibleScore:
		if len(missing) == 0 {
			return StatusEligible
		}
		return StatusConditional
	case overallScore >= ConditionalScore:
		return StatusConditional
	default:
		return StatusNotEligible
	}
}
