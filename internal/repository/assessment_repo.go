package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mihas-katc/admissions-api/internal/models"
)

// AssessmentRepository stores eligibility assessments, one per
// (application, programme) pair.
type AssessmentRepository interface {
	Upsert(ctx context.Context, assessment *models.EligibilityAssessment) error
	GetByID(ctx context.Context, id uint) (models.EligibilityAssessment, error)
	GetByKey(ctx context.Context, applicationID, programID string) (models.EligibilityAssessment, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.EligibilityAssessment, error)
	UpdateStatus(ctx context.Context, id uint, status string, notes *string, assessedBy *uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates the repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

// Upsert writes the assessment, replacing any earlier result for the same
// application and programme. Assessor notes survive a re-assessment.
func (r *assessmentRepository) Upsert(ctx context.Context, assessment *models.EligibilityAssessment) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}, {Name: "program_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score",
			"eligibility_status",
			"detailed_breakdown",
			"missing_requirements",
			"recommendations",
			"assessed_at",
			"updated_at",
		}),
	}).Create(assessment).Error
	if err != nil {
		return err
	}

	stored, err := r.GetByKey(ctx, assessment.ApplicationID, assessment.ProgramID)
	if err != nil {
		return err
	}
	*assessment = stored

	return nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.EligibilityAssessment, error) {
	var assessment models.EligibilityAssessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.EligibilityAssessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) GetByKey(ctx context.Context, applicationID, programID string) (models.EligibilityAssessment, error) {
	var assessment models.EligibilityAssessment
	if err := r.db.WithContext(ctx).
		Where("application_id = ? AND program_id = ?", applicationID, programID).
		First(&assessment).Error; err != nil {
		return models.EligibilityAssessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.EligibilityAssessment, error) {
	var assessments []models.EligibilityAssessment
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("assessed_at DESC").
		Order("id DESC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) UpdateStatus(ctx context.Context, id uint, status string, notes *string, assessedBy *uint) error {
	updates := map[string]interface{}{
		"eligibility_status": status,
		"assessed_by":        assessedBy,
	}
	if notes != nil {
		updates["assessor_notes"] = *notes
	}

	result := r.db.WithContext(ctx).Model(&models.EligibilityAssessment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
