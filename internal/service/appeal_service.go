package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/models"
	"github.com/mihas-katc/admissions-api/internal/observability"
	"github.com/mihas-katc/admissions-api/internal/repository"
)

const maxAppealReasonLength = 5000

// ErrAppealValidation indicates the appeal payload is incomplete.
var ErrAppealValidation = errors.New("invalid appeal")

// AppealService records appeals against eligibility assessments.
type AppealService interface {
	Submit(ctx context.Context, req dto.SubmitAppealRequest, actor ActivityActor) (dto.AppealResponse, error)
	ListByApplication(ctx context.Context, applicationID string) ([]dto.AppealResponse, error)
}

type appealService struct {
	repo      repository.AppealRepository
	activity  ActivityRecorder
	events    EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAppealService constructs the appeal service. activity and events may be nil.
func NewAppealService(repo repository.AppealRepository, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) AppealService {
	if events == nil {
		events = NewNoopEventPublisher()
	}

	return &appealService{
		repo:      repo,
		activity:  activity,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "appeal_service").Logger(),
		tracer:    otel.Tracer("github.com/mihas-katc/admissions-api/internal/service/appeal"),
	}
}

// Submit validates and stores an appeal. Validation happens before anything
// is written.
func (s *appealService) Submit(ctx context.Context, req dto.SubmitAppealRequest, actor ActivityActor) (dto.AppealResponse, error) {
	assessmentID := strings.TrimSpace(req.AssessmentID)
	if assessmentID == "" {
		return dto.AppealResponse{}, fmt.Errorf("%w: assessment_id is required", ErrAppealValidation)
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(req.Reason))
	if reason == "" {
		return dto.AppealResponse{}, fmt.Errorf("%w: reason is required", ErrAppealValidation)
	}
	if len(reason) > maxAppealReasonLength {
		return dto.AppealResponse{}, fmt.Errorf("%w: reason exceeds %d characters", ErrAppealValidation, maxAppealReasonLength)
	}

	documents := req.Documents
	if documents == nil {
		documents = []json.RawMessage{}
	}
	documentsJSON, err := json.Marshal(documents)
	if err != nil {
		return dto.AppealResponse{}, fmt.Errorf("%w: supporting documents are not valid JSON", ErrAppealValidation)
	}

	spanCtx, span := s.tracer.Start(ctx, "eligibility.appeal.submit", trace.WithAttributes(
		attribute.String("eligibility.assessment_id", assessmentID),
		attribute.Int("eligibility.document_count", len(documents)),
	))
	defer span.End()

	model := models.EligibilityAppeal{
		ApplicationID:       strings.TrimSpace(req.ApplicationID),
		AssessmentID:        assessmentID,
		Reason:              reason,
		SupportingDocuments: datatypes.JSON(documentsJSON),
	}
	if actor.ID > 0 {
		submittedBy := actor.ID
		model.SubmittedBy = &submittedBy
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.AppealResponse{}, fmt.Errorf("persist appeal: %w", err)
	}

	observability.AppealsSubmitted().Inc()
	response := dto.NewAppealResponse(model)

	if s.activity != nil {
		if _, err := s.activity.Record(spanCtx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "appeal.submitted",
			EntityType: "eligibility_assessment",
			EntityID:   assessmentID,
			Metadata: map[string]interface{}{
				"appeal_id":      response.ID,
				"application_id": response.ApplicationID,
				"documents":      len(documents),
			},
		}); err != nil {
			s.logger.Warn().Err(err).Uint("appeal_id", response.ID).Msg("failed to record appeal activity")
		}
	}

	if err := s.events.Publish(spanCtx, EventAppealSubmitted, response); err != nil {
		s.logger.Warn().Err(err).Uint("appeal_id", response.ID).Msg("failed to publish appeal event")
	}

	s.logger.Info().Uint("appeal_id", response.ID).Str("assessment_id", assessmentID).Msg("appeal submitted")

	return response, nil
}

func (s *appealService) ListByApplication(ctx context.Context, applicationID string) ([]dto.AppealResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return []dto.AppealResponse{}, nil
	}

	appeals, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return dto.NewAppealResponseSlice(appeals), nil
}
