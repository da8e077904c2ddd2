package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/handler"
	"github.com/mihas-katc/admissions-api/internal/service"
)

type mockEligibilityService struct {
	assessResponse dto.AssessmentResponse
	assessErr      error
	getErr         error
	historyItems   []dto.AssessmentResponse
	overrideErr    error
	lastRequest    dto.AssessmentRequest
	lastOverride   dto.AssessmentStatusUpdateRequest
	lastActor      service.ActivityActor
	lastID         uint
}

func (m *mockEligibilityService) Assess(_ context.Context, req dto.AssessmentRequest) (dto.AssessmentResponse, error) {
	m.lastRequest = req
	if m.assessErr != nil {
		return dto.AssessmentResponse{}, m.assessErr
	}
	return m.assessResponse, nil
}

func (m *mockEligibilityService) Evaluate(context.Context, string, []eligibility.SubjectGrade) (eligibility.Result, error) {
	return eligibility.Result{}, nil
}

func (m *mockEligibilityService) Get(_ context.Context, id uint) (dto.AssessmentResponse, error) {
	m.lastID = id
	if m.getErr != nil {
		return dto.AssessmentResponse{}, m.getErr
	}
	response := m.assessResponse
	response.ID = id
	return response, nil
}

func (m *mockEligibilityService) History(context.Context, string) ([]dto.AssessmentResponse, error) {
	return m.historyItems, nil
}

func (m *mockEligibilityService) OverrideStatus(_ context.Context, id uint, req dto.AssessmentStatusUpdateRequest, actor service.ActivityActor) (dto.AssessmentResponse, error) {
	m.lastID = id
	m.lastOverride = req
	m.lastActor = actor
	if m.overrideErr != nil {
		return dto.AssessmentResponse{}, m.overrideErr
	}
	response := m.assessResponse
	response.ID = id
	response.EligibilityStatus = req.Status
	response.AssessorNotes = req.Notes
	return response, nil
}

func conditionalResponse() dto.AssessmentResponse {
	return dto.AssessmentResponse{
		ID:                1,
		ApplicationID:     "APP-001",
		ProgramID:         "clinical-medicine",
		OverallScore:      65.83,
		EligibilityStatus: "conditional",
		DetailedBreakdown: dto.BreakdownResponse{
			SubjectCountScore:  80,
			GradeAverageScore:  50,
			CoreSubjectsScore:  66.67,
			TotalWeightedScore: 65.83,
			RequirementsMet:    2,
			TotalRequirements:  3,
		},
		MissingRequirements: []dto.MissingRequirementResponse{{
			Type:        "grade",
			Description: "Biology grade 7 is below the required grade 6",
			Severity:    "major",
			Suggestion:  "Improve your grade in Biology to at least 6",
		}},
		Recommendations: []string{"Consider improving grades in core subjects"},
		AssessedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newEligibilityApp(svc service.EligibilityService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handler.NewEligibilityHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/eligibility"), guards...)
	return app
}

func TestEligibilityHandlerAssessReturnsCreated(t *testing.T) {
	svc := &mockEligibilityService{assessResponse: conditionalResponse()}
	app := newEligibilityApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/eligibility/assessments", map[string]interface{}{
		"application_id": "APP-001",
		"program_id":     "clinical-medicine",
		"grades": []map[string]interface{}{
			{"subject_name": "English", "grade": 3},
			{"subject_name": "Biology", "grade": 7},
		},
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)

	var data dto.AssessmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.Equal(t, "conditional", data.EligibilityStatus)
	require.Len(t, svc.lastRequest.Grades, 2)
	require.Equal(t, "Biology", svc.lastRequest.Grades[1].SubjectName)
}

func TestEligibilityHandlerAssessRunsGuardsFirst(t *testing.T) {
	svc := &mockEligibilityService{assessResponse: conditionalResponse()}
	guard := func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	}
	app := newEligibilityApp(svc, guard)

	req := jsonRequest(t, http.MethodPost, "/api/v1/eligibility/assessments", map[string]string{"application_id": "APP-001"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Empty(t, svc.lastRequest.ApplicationID)

	get, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/eligibility/assessments/4", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, get.StatusCode)
}

func TestEligibilityHandlerAssessErrorMapping(t *testing.T) {
	validationErr := validator.New().Struct(dto.AssessmentRequest{})
	require.Error(t, validationErr)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: validationErr, status: fiber.StatusBadRequest},
		{name: "not found", err: service.ErrAssessmentNotFound, status: fiber.StatusNotFound},
		{name: "storage", err: errors.New("connection reset"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newEligibilityApp(&mockEligibilityService{assessErr: tc.err})
			req := jsonRequest(t, http.MethodPost, "/api/v1/eligibility/assessments", map[string]string{"application_id": "APP-001"})
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			if tc.status == fiber.StatusInternalServerError {
				require.Equal(t, "assessment unavailable", body.Message)
			}
		})
	}
}

func TestEligibilityHandlerRejectsMalformedBody(t *testing.T) {
	svc := &mockEligibilityService{}
	app := newEligibilityApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/eligibility/assessments", []byte("{")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.lastRequest.ProgramID)
}

func TestEligibilityHandlerGetValidatesIdentifier(t *testing.T) {
	svc := &mockEligibilityService{assessResponse: conditionalResponse()}
	app := newEligibilityApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/eligibility/assessments/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	svc.getErr = service.ErrAssessmentNotFound
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/eligibility/assessments/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, uint(9), svc.lastID)
}

func TestEligibilityHandlerHistory(t *testing.T) {
	first := conditionalResponse()
	second := conditionalResponse()
	second.ID = 2
	second.ProgramID = "registered-nursing"
	svc := &mockEligibilityService{historyItems: []dto.AssessmentResponse{first, second}}
	app := newEligibilityApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/eligibility/applications/APP-001/assessments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var items []dto.AssessmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 2)
	require.Equal(t, "registered-nursing", items[1].ProgramID)
}
