package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/observability"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

var (
	// ErrAssessmentNotFound indicates no stored assessment matches the lookup.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrInvalidStatus indicates an unknown eligibility status.
	ErrInvalidStatus = errors.New("invalid eligibility status")
)

// EligibilityService assesses applications and manages stored results.
type EligibilityService interface {
	Assess(ctx context.Context, req dto.AssessmentRequest) (dto.AssessmentResponse, error)
	Evaluate(ctx context.Context, programID string, grades []eligibility.SubjectGrade) (eligibility.Result, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	History(ctx context.Context, applicationID string) ([]dto.AssessmentResponse, error)
	OverrideStatus(ctx context.Context, id uint, req dto.AssessmentStatusUpdateRequest, actor ActivityActor) (dto.AssessmentResponse, error)
}

type eligibilityService struct {
	engine      *eligibility.Engine
	catalog     ProgramCatalog
	assessments repository.AssessmentRepository
	activity    ActivityRecorder
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEligibilityService constructs the eligibility service. activity and
// events may be nil.
func NewEligibilityService(engine *eligibility.Engine, catalog ProgramCatalog, assessments repository.AssessmentRepository, activity ActivityRecorder, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) EligibilityService {
	if engine == nil {
		engine = eligibility.NewEngine(eligibility.DefaultWeights)
	}
	if events == nil {
		events = NewNoopEventPublisher()
	}

	return &eligibilityService{
		engine:      engine,
		catalog:     catalog,
		assessments: assessments,
		activity:    activity,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "eligibility_service").Logger(),
		tracer:      otel.Tracer("github.com/mihas-katc/admissions-api/internal/service/eligibility"),
		now:         time.Now,
	}
}

func (s *eligibilityService) Assess(ctx context.Context, req dto.AssessmentRequest) (dto.AssessmentResponse, error) {
	req.ApplicationID = strings.TrimSpace(req.ApplicationID)
	req.ProgramID = strings.TrimSpace(req.ProgramID)
	if err := s.validator.Struct(req); err != nil {
		return dto.AssessmentResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "eligibility.assess", trace.WithAttributes(
		attribute.String("eligibility.application_id", req.ApplicationID),
		attribute.String("eligibility.program_id", req.ProgramID),
		attribute.Int("eligibility.grade_count", len(req.Grades)),
	))
	defer span.End()

	started := s.now()
	defer func() {
		observability.AssessmentDuration().Observe(s.now().Sub(started).Seconds())
	}()

	result, err := s.Evaluate(spanCtx, req.ProgramID, req.SubjectGrades())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate")
		return dto.AssessmentResponse{}, err
	}

	model, err := dto.NewAssessmentModel(req.ApplicationID, req.ProgramID, result, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		return dto.AssessmentResponse{}, fmt.Errorf("encode assessment: %w", err)
	}

	if err := s.assessments.Upsert(spanCtx, &model); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		return dto.AssessmentResponse{}, fmt.Errorf("persist assessment: %w", err)
	}

	span.SetAttributes(
		attribute.String("eligibility.status", string(result.Status)),
		attribute.Float64("eligibility.score", result.OverallScore),
	)
	observability.Assessments().WithLabelValues(string(result.Status)).Inc()

	response := dto.NewAssessmentResponse(model)
	if err := s.events.Publish(spanCtx, EventAssessmentCompleted, response); err != nil {
		s.logger.Warn().Err(err).Uint("assessment_id", response.ID).Msg("failed to publish assessment event")
	}

	s.logger.Info().
		Str("application_id", response.ApplicationID).
		Str("program_id", response.ProgramID).
		Str("status", response.EligibilityStatus).
		Float64("score", response.OverallScore).
		Msg("application assessed")

	return response, nil
}

// Evaluate runs the engine without persisting. An unknown programme yields a
// not-eligible result rather than an error.
func (s *eligibilityService) Evaluate(ctx context.Context, programID string, grades []eligibility.SubjectGrade) (eligibility.Result, error) {
	programID = strings.TrimSpace(programID)

	criteria, err := s.catalog.Criteria(ctx, programID)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			s.logger.Debug().Str("program_id", programID).Msg("assessment requested for unknown program")
			return s.engine.ProgramNotFound(programID), nil
		}
		return eligibility.Result{}, err
	}

	program := criteria.Program
	return s.engine.Assess(&program, criteria.Rules, criteria.Requirements, grades), nil
}

func (s *eligibilityService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	model, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(model), nil
}

func (s *eligibilityService) History(ctx context.Context, applicationID string) ([]dto.AssessmentResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return []dto.AssessmentResponse{}, nil
	}

	items, err := s.assessments.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssessmentResponseSlice(items), nil
}

func (s *eligibilityService) OverrideStatus(ctx context.Context, id uint, req dto.AssessmentStatusUpdateRequest, actor ActivityActor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssessmentResponse{}, err
	}
	status := eligibility.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return dto.AssessmentResponse{}, ErrInvalidStatus
	}

	spanCtx, span := s.tracer.Start(ctx, "eligibility.override_status", trace.WithAttributes(
		attribute.Int64("eligibility.assessment_id", int64(id)),
		attribute.String("eligibility.status", string(status)),
	))
	defer span.End()

	previous, err := s.Get(spanCtx, id)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	var notes *string
	if req.Notes != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*req.Notes))
		notes = &clean
	}

	var assessedBy *uint
	if actor.ID > 0 {
		actorID := actor.ID
		assessedBy = &actorID
	}

	if err := s.assessments.UpdateStatus(spanCtx, id, string(status), notes, assessedBy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		span.RecordError(err)
		return dto.AssessmentResponse{}, fmt.Errorf("update assessment status: %w", err)
	}

	updated, err := s.Get(spanCtx, id)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	if s.activity != nil {
		if _, err := s.activity.Record(spanCtx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "assessment.status_overridden",
			EntityType: "eligibility_assessment",
			EntityID:   strconv.FormatUint(uint64(id), 10),
			Metadata: map[string]interface{}{
				"application_id": updated.ApplicationID,
				"program_id":     updated.ProgramID,
				"from":           previous.EligibilityStatus,
				"to":             updated.EligibilityStatus,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Uint("assessment_id", id).Msg("failed to record status override")
		}
	}

	if err := s.events.Publish(spanCtx, EventAssessmentOverride, updated); err != nil {
		s.logger.Warn().Err(err).Uint("assessment_id", id).Msg("failed to publish override event")
	}

	return updated, nil
}
