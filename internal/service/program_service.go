package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

const defaultMinSubjects = 5

var (
	// ErrProgramExists indicates a programme with the same id already exists.
	ErrProgramExists = errors.New("program already exists")
	// ErrRuleNotFound indicates the rule does not belong to the programme.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrRequirementNotFound indicates the requirement does not belong to the programme.
	ErrRequirementNotFound = errors.New("requirement not found")
	// ErrInvalidRule indicates a rule condition that does not match its type.
	ErrInvalidRule = errors.New("invalid rule")
)

// ProgramService administers programmes and their admission criteria.
type ProgramService interface {
	List(ctx context.Context, filter dto.ProgramFilter) ([]dto.ProgramResponse, error)
	Get(ctx context.Context, id string) (dto.ProgramResponse, error)
	Create(ctx context.Context, req dto.ProgramCreateRequest, actor ActivityActor) (dto.ProgramResponse, error)
	AddRule(ctx context.Context, programID string, req dto.RuleCreateRequest, actor ActivityActor) (dto.RuleResponse, error)
	DeactivateRule(ctx context.Context, programID string, ruleID uint, actor ActivityActor) (dto.RuleResponse, error)
	AddRequirement(ctx context.Context, programID string, req dto.RequirementCreateRequest, actor ActivityActor) (dto.RequirementResponse, error)
	RemoveRequirement(ctx context.Context, programID string, requirementID uint, actor ActivityActor) error
}

type programService struct {
	repo      repository.ProgramRepository
	catalog   ProgramCatalog
	activity  ActivityRecorder
	events    EventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewProgramService constructs the programme administration service.
func NewProgramService(repo repository.ProgramRepository, catalog ProgramCatalog, activity ActivityRecorder, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) ProgramService {
	if events == nil {
		events = NewNoopEventPublisher()
	}

	return &programService{
		repo:      repo,
		catalog:   catalog,
		activity:  activity,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "program_service").Logger(),
		tracer:    otel.Tracer("github.com/mihas-katc/admissions-api/internal/service/program"),
	}
}

func (s *programService) List(ctx context.Context, filter dto.ProgramFilter) ([]dto.ProgramResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	programs, err := s.repo.List(ctx, repository.ProgramFilter{
		Institution: filter.Institution,
		ActiveOnly:  filter.ActiveOnly,
		Search:      filter.Search,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewProgramResponseSlice(programs), nil
}

func (s *programService) Get(ctx context.Context, id string) (dto.ProgramResponse, error) {
	program, err := s.load(ctx, id)
	if err != nil {
		return dto.ProgramResponse{}, err
	}

	return dto.NewProgramResponse(program), nil
}

func (s *programService) Create(ctx context.Context, req dto.ProgramCreateRequest, actor ActivityActor) (dto.ProgramResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgramResponse{}, err
	}

	program := newProgramModel(req, s.sanitizer)
	if program.ID != "" {
		if _, err := s.repo.GetByID(ctx, program.ID); err == nil {
			return dto.ProgramResponse{}, ErrProgramExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgramResponse{}, err
		}
	}

	if err := s.repo.Create(ctx, &program); err != nil {
		return dto.ProgramResponse{}, fmt.Errorf("create program: %w", err)
	}

	s.audit(ctx, actor, "program.created", program.ID, map[string]interface{}{
		"name":        program.Name,
		"institution": program.Institution,
	})

	return dto.NewProgramResponse(program), nil
}

func (s *programService) AddRule(ctx context.Context, programID string, req dto.RuleCreateRequest, actor ActivityActor) (dto.RuleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RuleResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "programs.add_rule", trace.WithAttributes(
		attribute.String("program.id", programID),
		attribute.String("rule.type", req.RuleType),
	))
	defer span.End()

	program, err := s.load(spanCtx, programID)
	if err != nil {
		return dto.RuleResponse{}, err
	}

	rule, err := newRuleModel(req)
	if err != nil {
		return dto.RuleResponse{}, err
	}
	rule.ProgramID = program.ID

	if err := s.repo.CreateRule(spanCtx, &rule); err != nil {
		span.RecordError(err)
		return dto.RuleResponse{}, fmt.Errorf("create rule: %w", err)
	}

	s.criteriaChanged(spanCtx, actor, "program.rule_added", program.ID, map[string]interface{}{
		"rule_id":   rule.ID,
		"rule_type": rule.RuleType,
		"weight":    rule.Weight,
	})

	return dto.NewRuleResponse(rule), nil
}

func (s *programService) DeactivateRule(ctx context.Context, programID string, ruleID uint, actor ActivityActor) (dto.RuleResponse, error) {
	if err := s.repo.SetRuleActive(ctx, programID, ruleID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrRuleNotFound
		}
		return dto.RuleResponse{}, fmt.Errorf("deactivate rule: %w", err)
	}

	rule, err := s.repo.GetRule(ctx, programID, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrRuleNotFound
		}
		return dto.RuleResponse{}, err
	}

	s.criteriaChanged(ctx, actor, "program.rule_deactivated", programID, map[string]interface{}{
		"rule_id": ruleID,
	})

	return dto.NewRuleResponse(rule), nil
}

func (s *programService) AddRequirement(ctx context.Context, programID string, req dto.RequirementCreateRequest, actor ActivityActor) (dto.RequirementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RequirementResponse{}, err
	}

	program, err := s.load(ctx, programID)
	if err != nil {
		return dto.RequirementResponse{}, err
	}

	requirement := newRequirementModel(req)
	requirement.ProgramID = program.ID

	if err := s.repo.CreateRequirement(ctx, &requirement); err != nil {
		return dto.RequirementResponse{}, fmt.Errorf("create requirement: %w", err)
	}

	s.criteriaChanged(ctx, actor, "program.requirement_added", program.ID, map[string]interface{}{
		"requirement_id": requirement.ID,
		"subject_name":   requirement.SubjectName,
		"minimum_grade":  requirement.MinimumGrade,
		"is_mandatory":   requirement.IsMandatory,
	})

	return dto.NewRequirementResponse(requirement), nil
}

func (s *programService) RemoveRequirement(ctx context.Context, programID string, requirementID uint, actor ActivityActor) error {
	if err := s.repo.DeleteRequirement(ctx, programID, requirementID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequirementNotFound
		}
		return fmt.Errorf("delete requirement: %w", err)
	}

	s.criteriaChanged(ctx, actor, "program.requirement_removed", programID, map[string]interface{}{
		"requirement_id": requirementID,
	})

	return nil
}

func (s *programService) load(ctx context.Context, id string) (models.Program, error) {
	program, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Program{}, ErrProgramNotFound
		}
		return models.Program{}, err
	}
	return program, nil
}

func (s *programService) criteriaChanged(ctx context.Context, actor ActivityActor, action, programID string, metadata map[string]interface{}) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx, programID)
	}

	s.audit(ctx, actor, action, programID, metadata)

	if err := s.events.Publish(ctx, EventProgramChanged, map[string]interface{}{
		"program_id": programID,
		"action":     action,
	}); err != nil {
		s.logger.Warn().Err(err).Str("program_id", programID).Msg("failed to publish program change")
	}
}

func (s *programService) audit(ctx context.Context, actor ActivityActor, action, programID string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "program",
		EntityID:   programID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record program activity")
	}
}

func newProgramModel(req dto.ProgramCreateRequest, sanitizer *bluemonday.Policy) models.Program {
	institution := strings.ToUpper(strings.TrimSpace(req.Institution))
	if institution == "" {
		institution = "MIHAS"
	}

	minSubjects := req.MinSubjects
	if minSubjects <= 0 {
		minSubjects = defaultMinSubjects
	}

	program := models.Program{
		ID:          slugify(req.ID),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        strings.TrimSpace(req.Name),
		Institution: institution,
		MinSubjects: minSubjects,
		IsActive:    true,
	}
	program.SetGuidance(sanitizeLines(sanitizer, req.Guidance))
	program.SetAlternativePathways(sanitizeLines(sanitizer, req.AlternativePathways))

	return program
}

func newRuleModel(req dto.RuleCreateRequest) (models.EligibilityRule, error) {
	ruleType := eligibility.RuleType(strings.TrimSpace(req.RuleType))
	condition := req.Condition
	if string(condition) == "null" {
		condition = nil
	}
	if len(condition) == 0 && ruleType == eligibility.RuleGradeAverage {
		condition = json.RawMessage("{}")
	}

	if err := eligibility.ValidateCondition(ruleType, condition); err != nil {
		return models.EligibilityRule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	name := strings.TrimSpace(req.RuleName)
	if name == "" {
		name = string(ruleType)
	}

	return models.EligibilityRule{
		RuleName:    name,
		RuleType:    string(ruleType),
		Condition:   datatypes.JSON(condition),
		Weight:      req.Weight,
		IsActive:    true,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func newRequirementModel(req dto.RequirementCreateRequest) models.CourseRequirement {
	mandatory := true
	if req.IsMandatory != nil {
		mandatory = *req.IsMandatory
	}

	return models.CourseRequirement{
		SubjectName:  strings.TrimSpace(req.SubjectName),
		MinimumGrade: req.MinimumGrade,
		IsMandatory:  mandatory,
	}
}

func sanitizeLines(sanitizer *bluemonday.Policy, lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if clean := strings.TrimSpace(sanitizer.Sanitize(line)); clean != "" {
			cleaned = append(cleaned, clean)
		}
	}
	return cleaned
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}

	var b strings.Builder
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
