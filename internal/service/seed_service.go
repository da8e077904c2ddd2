package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads the programme catalogue and its admission criteria.
type SeedService interface {
	SeedPrograms(ctx context.Context, token string, programs []dto.SeedProgram) (int64, error)
}

type seedService struct {
	programs  repository.ProgramRepository
	catalog   ProgramCatalog
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(programs repository.ProgramRepository, catalog ProgramCatalog, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		programs:  programs,
		catalog:   catalog,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedPrograms upserts each programme and replaces its rules and
// requirements. An empty list seeds the default catalogue.
func (s *seedService) SeedPrograms(ctx context.Context, token string, programs []dto.SeedProgram) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	if len(programs) == 0 {
		programs = DefaultProgramCatalogue()
	}

	var affected int64
	for _, item := range programs {
		if err := s.validator.Struct(item); err != nil {
			return affected, err
		}
		if strings.TrimSpace(item.ID) == "" {
			return affected, fmt.Errorf("seeded program %q requires an id", item.Name)
		}

		program := newProgramModel(item.ProgramCreateRequest, s.sanitizer)

		rules := make([]models.EligibilityRule, 0, len(item.Rules))
		for _, req := range item.Rules {
			rule, err := newRuleModel(req)
			if err != nil {
				return affected, fmt.Errorf("program %s: %w", program.ID, err)
			}
			rules = append(rules, rule)
		}

		requirements := make([]models.CourseRequirement, 0, len(item.Requirements))
		for _, req := range item.Requirements {
			requirements = append(requirements, newRequirementModel(req))
		}

		if err := s.programs.Upsert(ctx, &program); err != nil {
			return affected, fmt.Errorf("upsert program %s: %w", program.ID, err)
		}
		if err := s.programs.ReplaceCriteria(ctx, program.ID, rules, requirements); err != nil {
			return affected, fmt.Errorf("replace criteria for %s: %w", program.ID, err)
		}
		if s.catalog != nil {
			s.catalog.Invalidate(ctx, program.ID)
		}

		affected++
	}

	s.logger.Info().Int64("affected", affected).Msg("programs seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func boolPtr(v bool) *bool {
	return &v
}

func mustCondition(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// DefaultProgramCatalogue returns the MIHAS and KATC programmes with their
// standard admission criteria.
func DefaultProgramCatalogue() []dto.SeedProgram {
	scienceCore := []dto.RequirementCreateRequest{
		{SubjectName: "English", MinimumGrade: 6, IsMandatory: boolPtr(true)},
		{SubjectName: "Mathematics", MinimumGrade: 6, IsMandatory: boolPtr(true)},
		{SubjectName: "Biology", MinimumGrade: 6, IsMandatory: boolPtr(true)},
		{SubjectName: "Chemistry", MinimumGrade: 6, IsMandatory: boolPtr(true)},
	}

	return []dto.SeedProgram{
		{
			ProgramCreateRequest: dto.ProgramCreateRequest{
				ID:          "clinical-medicine",
				Code:        "DCM",
				Name:        "Diploma in Clinical Medicine",
				Institution: "KATC",
				MinSubjects: 5,
				Guidance: []string{
					"Ensure certified copies of your results accompany the application",
				},
				AlternativePathways: []string{
					"Certificate in Environmental Health",
					"Diploma in Registered Nursing",
				},
			},
			Rules: []dto.RuleCreateRequest{
				{RuleName: "Five credits", RuleType: "subject_count", Weight: 1, Condition: mustCondition(map[string]int{"min_subjects": 5, "grade_threshold": 6})},
				{RuleName: "Overall average", RuleType: "grade_average", Weight: 1},
				{RuleName: "Science core", RuleType: "specific_subject", Weight: 2, Condition: mustCondition(map[string]interface{}{
					"required_subjects": []string{"English", "Mathematics", "Biology", "Chemistry", "Physics"},
					"min_grade":         6,
				})},
			},
			Requirements: append([]dto.RequirementCreateRequest{
				{SubjectName: "Physics", MinimumGrade: 6, IsMandatory: boolPtr(true)},
			}, scienceCore...),
		},
		{
			ProgramCreateRequest: dto.ProgramCreateRequest{
				ID:          "registered-nursing",
				Code:        "DRN",
				Name:        "Diploma in Registered Nursing",
				Institution: "MIHAS",
				MinSubjects: 5,
				Guidance: []string{
					"Attach a medical fitness certificate before the interview stage",
				},
				AlternativePathways: []string{
					"Certificate in Environmental Health",
				},
			},
			Rules: []dto.RuleCreateRequest{
				{RuleName: "Five credits", RuleType: "subject_count", Weight: 1, Condition: mustCondition(map[string]int{"min_subjects": 5, "grade_threshold": 6})},
				{RuleName: "Overall average", RuleType: "grade_average", Weight: 1},
				{RuleName: "Nursing core", RuleType: "specific_subject", Weight: 2, Condition: mustCondition(map[string]interface{}{
					"required_subjects": []string{"English", "Mathematics", "Biology", "Chemistry"},
					"min_grade":         6,
				})},
			},
			Requirements: append([]dto.RequirementCreateRequest{}, scienceCore...),
		},
		{
			ProgramCreateRequest: dto.ProgramCreateRequest{
				ID:          "environmental-health",
				Code:        "DEH",
				Name:        "Diploma in Environmental Health",
				Institution: "MIHAS",
				MinSubjects: 5,
				AlternativePathways: []string{
					"Certificate in Environmental Health",
				},
			},
			Rules: []dto.RuleCreateRequest{
				{RuleName: "Five credits", RuleType: "subject_count", Weight: 1, Condition: mustCondition(map[string]int{"min_subjects": 5, "grade_threshold": 6})},
				{RuleName: "Overall average", RuleType: "grade_average", Weight: 1},
				{RuleName: "Environmental core", RuleType: "specific_subject", Weight: 2, Condition: mustCondition(map[string]interface{}{
					"required_subjects": []string{"English", "Mathematics", "Biology"},
					"min_grade":         6,
				})},
			},
			Requirements: []dto.RequirementCreateRequest{
				{SubjectName: "English", MinimumGrade: 6, IsMandatory: boolPtr(true)},
				{SubjectName: "Mathematics", MinimumGrade: 6, IsMandatory: boolPtr(true)},
				{SubjectName: "Biology", MinimumGrade: 6, IsMandatory: boolPtr(true)},
				{SubjectName: "Chemistry", MinimumGrade: 6, IsMandatory: boolPtr(false)},
			},
		},
	}
}
