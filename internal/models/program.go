package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Program is an admissions programme offered by the college.
type Program struct {
	ID                  string              `gorm:"primaryKey;size:64" json:"id"`
	Code                string              `gorm:"size:32;index" json:"code"`
	Name                string              `gorm:"size:255;not null" json:"name"`
	Institution         string              `gorm:"size:16;not null;default:'MIHAS'" json:"institution"`
	MinSubjects         int                 `gorm:"not null" json:"min_subjects"`
	Guidance            datatypes.JSON      `gorm:"type:json" json:"-"`
	AlternativePathways datatypes.JSON      `gorm:"type:json" json:"-"`
	IsActive            bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	Rules               []EligibilityRule   `gorm:"foreignKey:ProgramID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rules,omitempty"`
	Requirements        []CourseRequirement `gorm:"foreignKey:ProgramID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"requirements,omitempty"`
}

// BeforeCreate assigns a generated identifier when none was supplied.
func (p *Program) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SetGuidance stores the admin-authored guidance lines.
func (p *Program) SetGuidance(lines []string) {
	p.Guidance = encodeStringList(lines)
}

// GuidanceList returns the stored guidance lines.
func (p Program) GuidanceList() []string {
	return decodeStringList(p.Guidance)
}

// SetAlternativePathways stores the programmes suggested to weaker candidates.
func (p *Program) SetAlternativePathways(pathways []string) {
	p.AlternativePathways = encodeStringList(pathways)
}

// AlternativePathwayList returns the stored alternative pathways.
func (p Program) AlternativePathwayList() []string {
	return decodeStringList(p.AlternativePathways)
}

func encodeStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

// EligibilityRule is an admission rule attached to a programme.
type EligibilityRule struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProgramID   string         `gorm:"size:64;not null;index" json:"program_id"`
	RuleName    string         `gorm:"size:255" json:"rule_name"`
	RuleType    string         `gorm:"size:32;not null" json:"rule_type"`
	Condition   datatypes.JSON `gorm:"type:json" json:"condition"`
	Weight      float64        `gorm:"not null" json:"weight"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CourseRequirement names a subject a programme requires at a minimum grade.
type CourseRequirement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProgramID    string    `gorm:"size:64;not null;index" json:"program_id"`
	SubjectName  string    `gorm:"size:128;not null" json:"subject_name"`
	MinimumGrade int       `gorm:"not null;default:6" json:"minimum_grade"`
	IsMandatory  bool      `gorm:"not null" json:"is_mandatory"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
