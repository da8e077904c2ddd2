package models

import (
	"time"

	"gorm.io/datatypes"
)

// Eligibility statuses persisted on assessments.
const (
	EligibilityStatusEligible    = "eligible"
	EligibilityStatusConditional = "conditional"
	EligibilityStatusNotEligible = "not_eligible"
	EligibilityStatusUnderReview = "under_review"
)

// EligibilityAssessment is the stored outcome of assessing one application
// against one programme. There is at most one row per pair.
type EligibilityAssessment struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	ApplicationID       string         `gorm:"size:64;not null;uniqueIndex:idx_assessment_application_program,priority:1" json:"application_id"`
	ProgramID           string         `gorm:"size:64;not null;uniqueIndex:idx_assessment_application_program,priority:2" json:"program_id"`
	OverallScore        float64        `gorm:"not null" json:"overall_score"`
	EligibilityStatus   string         `gorm:"size:32;not null;index" json:"eligibility_status"`
	DetailedBreakdown   datatypes.JSON `gorm:"type:json" json:"detailed_breakdown"`
	MissingRequirements datatypes.JSON `gorm:"type:json" json:"missing_requirements"`
	Recommendations     datatypes.JSON `gorm:"type:json" json:"recommendations"`
	AssessorNotes       *string        `gorm:"type:text" json:"assessor_notes"`
	AssessedBy          *uint          `json:"assessed_by"`
	AssessedAt          time.Time      `gorm:"not null;index" json:"assessed_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// EligibilityAppeal is a student's request to reconsider an assessment.
// Appeals are written once and never updated.
type EligibilityAppeal struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	ApplicationID       string         `gorm:"size:64;not null;index" json:"application_id"`
	AssessmentID        string         `gorm:"size:64;not null;index" json:"assessment_id"`
	Reason              string         `gorm:"type:text;not null" json:"reason"`
	SupportingDocuments datatypes.JSON `gorm:"type:json" json:"supporting_documents"`
	SubmittedBy         *uint          `json:"submitted_by"`
	CreatedAt           time.Time      `json:"created_at"`
}
