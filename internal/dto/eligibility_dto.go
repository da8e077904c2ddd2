package dto

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/models"
)

// SubjectGradeRequest is one certificate line supplied for an assessment.
type SubjectGradeRequest struct {
	SubjectID   string `json:"subject_id" validate:"omitempty,max=64"`
	SubjectName string `json:"subject_name" validate:"required,max=128"`
	Grade       int    `json:"grade" validate:"gte=1,lte=9"`
}

// AssessmentRequest asks for an application to be assessed against a programme.
type AssessmentRequest struct {
	ApplicationID string                `json:"application_id" validate:"required,max=64"`
	ProgramID     string                `json:"program_id" validate:"required,max=64"`
	Grades        []SubjectGradeRequest `json:"grades" validate:"max=20,dive"`
}

// SubjectGrades converts the request lines into engine input.
func (r AssessmentRequest) SubjectGrades() []eligibility.SubjectGrade {
	grades := make([]eligibility.SubjectGrade, 0, len(r.Grades))
	for _, grade := range r.Grades {
		grades = append(grades, eligibility.SubjectGrade{
			SubjectID:   grade.SubjectID,
			SubjectName: grade.SubjectName,
			Grade:       grade.Grade,
		})
	}
	return grades
}

// AssessmentStatusUpdateRequest lets an assessor set a status by hand.
type AssessmentStatusUpdateRequest struct {
	Status string  `json:"status" validate:"required,oneof=eligible conditional not_eligible under_review"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// BreakdownResponse serializes the component scores.
type BreakdownResponse struct {
	SubjectCountScore  float64 `json:"subject_count_score"`
	GradeAverageScore  float64 `json:"grade_average_score"`
	CoreSubjectsScore  float64 `json:"core_subjects_score"`
	TotalWeightedScore float64 `json:"total_weighted_score"`
	RequirementsMet    int     `json:"requirements_met"`
	TotalRequirements  int     `json:"total_requirements"`
}

// MissingRequirementResponse serializes a single gap.
type MissingRequirementResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Suggestion  string `json:"suggestion"`
}

// AssessmentResponse is returned to API clients for an assessment.
type AssessmentResponse struct {
	ID                  uint                         `json:"id"`
	ApplicationID       string                       `json:"application_id"`
	ProgramID           string                       `json:"program_id"`
	OverallScore        float64                      `json:"overall_score"`
	EligibilityStatus   string                       `json:"eligibility_status"`
	DetailedBreakdown   BreakdownResponse            `json:"detailed_breakdown"`
	MissingRequirements []MissingRequirementResponse `json:"missing_requirements"`
	Recommendations     []string                     `json:"recommendations"`
	AssessorNotes       *string                      `json:"assessor_notes"`
	AssessedAt          time.Time                    `json:"assessed_at"`
}

// NewAssessmentModel encodes an engine result into its storage form.
func NewAssessmentModel(applicationID, programID string, result eligibility.Result, assessedAt time.Time) (models.EligibilityAssessment, error) {
	breakdown, err := json.Marshal(newBreakdownResponse(result.Breakdown))
	if err != nil {
		return models.EligibilityAssessment{}, err
	}

	missing := make([]MissingRequirementResponse, 0, len(result.Missing))
	for _, item := range result.Missing {
		missing = append(missing, MissingRequirementResponse{
			Type:        string(item.Type),
			Description: item.Description,
			Severity:    string(item.Severity),
			Suggestion:  item.Suggestion,
		})
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return models.EligibilityAssessment{}, err
	}

	recommendations := result.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	recommendationsJSON, err := json.Marshal(recommendations)
	if err != nil {
		return models.EligibilityAssessment{}, err
	}

	return models.EligibilityAssessment{
		ApplicationID:       applicationID,
		ProgramID:           programID,
		OverallScore:        result.OverallScore,
		EligibilityStatus:   string(result.Status),
		DetailedBreakdown:   datatypes.JSON(breakdown),
		MissingRequirements: datatypes.JSON(missingJSON),
		Recommendations:     datatypes.JSON(recommendationsJSON),
		AssessedAt:          assessedAt,
	}, nil
}

func newBreakdownResponse(b eligibility.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		SubjectCountScore:  b.SubjectCountScore,
		GradeAverageScore:  b.GradeAverageScore,
		CoreSubjectsScore:  b.CoreSubjectsScore,
		TotalWeightedScore: b.TotalWeightedScore,
		RequirementsMet:    b.RequirementsMet,
		TotalRequirements:  b.TotalRequirements,
	}
}

// NewAssessmentResponse decodes a stored assessment. Corrupt or legacy
// encoded columns decode to empty values instead of failing.
func NewAssessmentResponse(model models.EligibilityAssessment) AssessmentResponse {
	return AssessmentResponse{
		ID:                  model.ID,
		ApplicationID:       model.ApplicationID,
		ProgramID:           model.ProgramID,
		OverallScore:        model.OverallScore,
		EligibilityStatus:   model.EligibilityStatus,
		DetailedBreakdown:   decodeBreakdown(model.DetailedBreakdown),
		MissingRequirements: decodeMissing(model.MissingRequirements),
		Recommendations:     decodeStrings(model.Recommendations),
		AssessorNotes:       model.AssessorNotes,
		AssessedAt:          model.AssessedAt,
	}
}

// NewAssessmentResponseSlice converts stored assessments into DTOs.
func NewAssessmentResponseSlice(items []models.EligibilityAssessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssessmentResponse(item))
	}
	return responses
}

// unwrapLegacy handles columns written as a JSON string holding JSON text.
func unwrapLegacy(raw []byte) []byte {
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		return []byte(inner)
	}
	return raw
}

func decodeBreakdown(raw datatypes.JSON) BreakdownResponse {
	var breakdown BreakdownResponse
	if len(raw) == 0 {
		return breakdown
	}
	if err := json.Unmarshal(unwrapLegacy(raw), &breakdown); err != nil {
		return BreakdownResponse{}
	}
	return breakdown
}

func decodeMissing(raw datatypes.JSON) []MissingRequirementResponse {
	missing := []MissingRequirementResponse{}
	if len(raw) == 0 {
		return missing
	}
	if err := json.Unmarshal(unwrapLegacy(raw), &missing); err != nil || missing == nil {
		return []MissingRequirementResponse{}
	}
	return missing
}

func decodeStrings(raw datatypes.JSON) []string {
	values := []string{}
	if len(raw) == 0 {
		return values
	}
	if err := json.Unmarshal(unwrapLegacy(raw), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}
