package dto

import (
	"encoding/json"
	"time"

	"github.com/mihas-katc/admissions-api/internal/models"
)

// ProgramCreateRequest describes a new admissions programme.
type ProgramCreateRequest struct {
	ID                  string   `json:"id" validate:"omitempty,max=64"`
	Code                string   `json:"code" validate:"omitempty,max=32"`
	Name                string   `json:"name" validate:"required,min=3,max=255"`
	Institution         string   `json:"institution" validate:"omitempty,oneof=MIHAS KATC mihas katc"`
	MinSubjects         int      `json:"min_subjects" validate:"gte=0,lte=12"`
	Guidance            []string `json:"guidance" validate:"omitempty,max=20,dive,max=500"`
	AlternativePathways []string `json:"alternative_pathways" validate:"omitempty,max=10,dive,max=255"`
}

// RuleCreateRequest attaches an eligibility rule to a programme.
type RuleCreateRequest struct {
	RuleName    string          `json:"rule_name" validate:"omitempty,max=255"`
	RuleType    string          `json:"rule_type" validate:"required,oneof=subject_count grade_average specific_subject composite"`
	Condition   json.RawMessage `json:"condition"`
	Weight      float64         `json:"weight" validate:"gte=0,lte=100"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
}

// RequirementCreateRequest attaches a course requirement to a programme.
type RequirementCreateRequest struct {
	SubjectName  string `json:"subject_name" validate:"required,max=128"`
	MinimumGrade int    `json:"minimum_grade" validate:"gte=1,lte=9"`
	IsMandatory  *bool  `json:"is_mandatory"`
}

// ProgramFilter describes query string filters for listing programmes.
type ProgramFilter struct {
	Institution string `query:"institution" validate:"omitempty,oneof=MIHAS KATC mihas katc"`
	ActiveOnly  bool   `query:"active"`
	Search      string `query:"search" validate:"omitempty,max=100"`
}

// RuleResponse serializes an eligibility rule.
type RuleResponse struct {
	ID          uint            `json:"id"`
	ProgramID   string          `json:"program_id"`
	RuleName    string          `json:"rule_name"`
	RuleType    string          `json:"rule_type"`
	Condition   json.RawMessage `json:"condition"`
	Weight      float64         `json:"weight"`
	IsActive    bool            `json:"is_active"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RequirementResponse serializes a course requirement.
type RequirementResponse struct {
	ID           uint   `json:"id"`
	ProgramID    string `json:"program_id"`
	SubjectName  string `json:"subject_name"`
	MinimumGrade int    `json:"minimum_grade"`
	IsMandatory  bool   `json:"is_mandatory"`
}

// ProgramResponse serializes a programme and, when loaded, its criteria.
type ProgramResponse struct {
	ID                  string                `json:"id"`
	Code                string                `json:"code"`
	Name                string                `json:"name"`
	Institution         string                `json:"institution"`
	MinSubjects         int                   `json:"min_subjects"`
	Guidance            []string              `json:"guidance"`
	AlternativePathways []string              `json:"alternative_pathways"`
	IsActive            bool                  `json:"is_active"`
	Rules               []RuleResponse        `json:"rules,omitempty"`
	Requirements        []RequirementResponse `json:"requirements,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// NewRuleResponse converts a rule model into a DTO.
func NewRuleResponse(model models.EligibilityRule) RuleResponse {
	condition := json.RawMessage(model.Condition)
	if len(condition) == 0 {
		condition = json.RawMessage("{}")
	}

	return RuleResponse{
		ID:          model.ID,
		ProgramID:   model.ProgramID,
		RuleName:    model.RuleName,
		RuleType:    model.RuleType,
		Condition:   condition,
		Weight:      model.Weight,
		IsActive:    model.IsActive,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
	}
}

// NewRequirementResponse converts a requirement model into a DTO.
func NewRequirementResponse(model models.CourseRequirement) RequirementResponse {
	return RequirementResponse{
		ID:           model.ID,
		ProgramID:    model.ProgramID,
		SubjectName:  model.SubjectName,
		MinimumGrade: model.MinimumGrade,
		IsMandatory:  model.IsMandatory,
	}
}

// NewProgramResponse converts a programme model into a DTO.
func NewProgramResponse(model models.Program) ProgramResponse {
	response := ProgramResponse{
		ID:                  model.ID,
		Code:                model.Code,
		Name:                model.Name,
		Institution:         model.Institution,
		MinSubjects:         model.MinSubjects,
		Guidance:            model.GuidanceList(),
		AlternativePathways: model.AlternativePathwayList(),
		IsActive:            model.IsActive,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}

	if len(model.Rules) > 0 {
		response.Rules = make([]RuleResponse, 0, len(model.Rules))
		for _, rule := range model.Rules {
			response.Rules = append(response.Rules, NewRuleResponse(rule))
		}
	}

	if len(model.Requirements) > 0 {
		response.Requirements = make([]RequirementResponse, 0, len(model.Requirements))
		for _, requirement := range model.Requirements {
			response.Requirements = append(response.Requirements, NewRequirementResponse(requirement))
		}
	}

	return response
}

// NewProgramResponseSlice converts programme models into DTOs.
func NewProgramResponseSlice(items []models.Program) []ProgramResponse {
	responses := make([]ProgramResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewProgramResponse(item))
	}
	return responses
}
