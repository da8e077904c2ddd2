package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mihas-katc/admissions-api/internal/models"
)

// ProgramFilter narrows programme listings.
type ProgramFilter struct {
	Institution string
	ActiveOnly  bool
	Search      string
}

// ProgramRepository persists programmes together with their admission rules
// and course requirements.
type ProgramRepository interface {
	List(ctx context.Context, filter ProgramFilter) ([]models.Program, error)
	GetByID(ctx context.Context, id string) (models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Upsert(ctx context.Context, program *models.Program) error
	CreateRule(ctx context.Context, rule *models.EligibilityRule) error
	GetRule(ctx context.Context, programID string, ruleID uint) (models.EligibilityRule, error)
	SetRuleActive(ctx context.Context, programID string, ruleID uint, active bool) error
	CreateRequirement(ctx context.Context, requirement *models.CourseRequirement) error
	DeleteRequirement(ctx context.Context, programID string, requirementID uint) error
	ReplaceCriteria(ctx context.Context, programID string, rules []models.EligibilityRule, requirements []models.CourseRequirement) error
}

type programRepository struct {
	db *gorm.DB
}

// NewProgramRepository instantiates the repository.
func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) List(ctx context.Context, filter ProgramFilter) ([]models.Program, error) {
	query := r.db.WithContext(ctx).Model(&models.Program{})

	if filter.Institution != "" {
		query = query.Where("institution = ?", strings.ToUpper(filter.Institution))
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	var programs []models.Program
	if err := query.Order("name ASC").Find(&programs).Error; err != nil {
		return nil, err
	}

	return programs, nil
}

func (r *programRepository) GetByID(ctx context.Context, id string) (models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&program, "id = ?", id).Error; err != nil {
		return models.Program{}, err
	}

	return program, nil
}

func (r *programRepository) Create(ctx context.Context, program *models.Program) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(program).Error
}

func (r *programRepository) Upsert(ctx context.Context, program *models.Program) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "name", "institution", "min_subjects", "guidance", "alternative_pathways", "is_active", "updated_at"}),
	}).Create(program).Error
}

func (r *programRepository) CreateRule(ctx context.Context, rule *models.EligibilityRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *programRepository) GetRule(ctx context.Context, programID string, ruleID uint) (models.EligibilityRule, error) {
	var rule models.EligibilityRule
	if err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		First(&rule, ruleID).Error; err != nil {
		return models.EligibilityRule{}, err
	}

	return rule, nil
}

func (r *programRepository) SetRuleActive(ctx context.Context, programID string, ruleID uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.EligibilityRule{}).
		Where("id = ? AND program_id = ?", ruleID, programID).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *programRepository) CreateRequirement(ctx context.Context, requirement *models.CourseRequirement) error {
	return r.db.WithContext(ctx).Create(requirement).Error
}

func (r *programRepository) DeleteRequirement(ctx context.Context, programID string, requirementID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND program_id = ?", requirementID, programID).
		Delete(&models.CourseRequirement{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *programRepository) ReplaceCriteria(ctx context.Context, programID string, rules []models.EligibilityRule, requirements []models.CourseRequirement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("program_id = ?", programID).Delete(&models.EligibilityRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("program_id = ?", programID).Delete(&models.CourseRequirement{}).Error; err != nil {
			return err
		}

		for i := range rules {
			rules[i].ID = 0
			rules[i].ProgramID = programID
		}
		for i := range requirements {
			requirements[i].ID = 0
			requirements[i].ProgramID = programID
		}

		if len(rules) > 0 {
			if err := tx.Create(&rules).Error; err != nil {
				return err
			}
		}
		if len(requirements) > 0 {
			if err := tx.Create(&requirements).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
