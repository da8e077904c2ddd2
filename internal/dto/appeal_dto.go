package dto

import (
	"encoding/json"
	"time"

	"github.com/mihas-katc/admissions-api/internal/models"
)

// SubmitAppealRequest records a student's appeal against an assessment.
type SubmitAppealRequest struct {
	ApplicationID string            `json:"application_id"`
	AssessmentID  string            `json:"assessment_id"`
	Reason        string            `json:"reason"`
	Documents     []json.RawMessage `json:"documents"`
}

// AppealResponse serializes a stored appeal.
type AppealResponse struct {
	ID            uint              `json:"id"`
	ApplicationID string            `json:"application_id"`
	AssessmentID  string            `json:"assessment_id"`
	Reason        string            `json:"reason"`
	Documents     []json.RawMessage `json:"documents"`
	SubmittedBy   *uint             `json:"submitted_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewAppealResponse converts an appeal model into a DTO.
func NewAppealResponse(model models.EligibilityAppeal) AppealResponse {
	documents := []json.RawMessage{}
	if len(model.SupportingDocuments) > 0 {
		if err := json.Unmarshal(model.SupportingDocuments, &documents); err != nil || documents == nil {
			documents = []json.RawMessage{}
		}
	}

	return AppealResponse{
		ID:            model.ID,
		ApplicationID: model.ApplicationID,
		AssessmentID:  model.AssessmentID,
		Reason:        model.Reason,
		Documents:     documents,
		SubmittedBy:   model.SubmittedBy,
		CreatedAt:     model.CreatedAt,
	}
}

// NewAppealResponseSlice converts appeal models into DTOs.
func NewAppealResponseSlice(items []models.EligibilityAppeal) []AppealResponse {
	responses := make([]AppealResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAppealResponse(item))
	}
	return responses
}
