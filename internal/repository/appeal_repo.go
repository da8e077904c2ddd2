package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/models"
)

// AppealRepository persists eligibility appeals.
type AppealRepository interface {
	Create(ctx context.Context, appeal *models.EligibilityAppeal) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.EligibilityAppeal, error)
}

type appealRepository struct {
	db *gorm.DB
}

// NewAppealRepository instantiates the repository.
func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) Create(ctx context.Context, appeal *models.EligibilityAppeal) error {
	return r.db.WithContext(ctx).Create(appeal).Error
}

func (r *appealRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.EligibilityAppeal, error) {
	var appeals []models.EligibilityAppeal
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&appeals).Error; err != nil {
		return nil, err
	}

	return appeals, nil
}
