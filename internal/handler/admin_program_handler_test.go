package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/handler"
	"github.com/mihas-katc/admissions-api/internal/service"
)

type mockProgramService struct {
	err             error
	lastFilter      dto.ProgramFilter
	lastCreate      dto.ProgramCreateRequest
	lastRule        dto.RuleCreateRequest
	lastRequirement dto.RequirementCreateRequest
	lastProgramID   string
	lastChildID     uint
	lastActor       service.ActivityActor
}

func (m *mockProgramService) List(_ context.Context, filter dto.ProgramFilter) ([]dto.ProgramResponse, error) {
	m.lastFilter = filter
	return []dto.ProgramResponse{{ID: "clinical-medicine", Institution: "KATC"}}, m.err
}

func (m *mockProgramService) Get(_ context.Context, id string) (dto.ProgramResponse, error) {
	m.lastProgramID = id
	return dto.ProgramResponse{ID: id}, m.err
}

func (m *mockProgramService) Create(_ context.Context, req dto.ProgramCreateRequest, actor service.ActivityActor) (dto.ProgramResponse, error) {
	m.lastCreate = req
	m.lastActor = actor
	return dto.ProgramResponse{ID: req.ID, Name: req.Name}, m.err
}

func (m *mockProgramService) AddRule(_ context.Context, programID string, req dto.RuleCreateRequest, actor service.ActivityActor) (dto.RuleResponse, error) {
	m.lastProgramID = programID
	m.lastRule = req
	m.lastActor = actor
	return dto.RuleResponse{ID: 3, ProgramID: programID, RuleType: req.RuleType, IsActive: true}, m.err
}

func (m *mockProgramService) DeactivateRule(_ context.Context, programID string, ruleID uint, actor service.ActivityActor) (dto.RuleResponse, error) {
	m.lastProgramID = programID
	m.lastChildID = ruleID
	m.lastActor = actor
	return dto.RuleResponse{ID: ruleID, ProgramID: programID}, m.err
}

func (m *mockProgramService) AddRequirement(_ context.Context, programID string, req dto.RequirementCreateRequest, actor service.ActivityActor) (dto.RequirementResponse, error) {
	m.lastProgramID = programID
	m.lastRequirement = req
	m.lastActor = actor
	return dto.RequirementResponse{ID: 5, ProgramID: programID, SubjectName: req.SubjectName}, m.err
}

func (m *mockProgramService) RemoveRequirement(_ context.Context, programID string, requirementID uint, actor service.ActivityActor) error {
	m.lastProgramID = programID
	m.lastChildID = requirementID
	m.lastActor = actor
	return m.err
}

func newProgramApp(svc service.ProgramService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/admin/programs", asStaff)
	handler.NewAdminProgramHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestAdminProgramHandlerCreate(t *testing.T) {
	svc := &mockProgramService{}
	app := newProgramApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/admin/programs", map[string]interface{}{
		"id":           "clinical-medicine",
		"code":         "DCM",
		"name":         "Diploma in Clinical Medicine",
		"institution":  "KATC",
		"min_subjects": 5,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Diploma in Clinical Medicine", svc.lastCreate.Name)
	require.Equal(t, uint(7), svc.lastActor.ID)
	require.Equal(t, "admissions", svc.lastActor.Role)
}

func TestAdminProgramHandlerListParsesFilter(t *testing.T) {
	svc := &mockProgramService{}
	app := newProgramApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/admin/programs?institution=KATC&active=true&search=clinical", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "KATC", svc.lastFilter.Institution)
	require.True(t, svc.lastFilter.ActiveOnly)
	require.Equal(t, "clinical", svc.lastFilter.Search)
}

func TestAdminProgramHandlerAddRuleKeepsRawCondition(t *testing.T) {
	svc := &mockProgramService{}
	app := newProgramApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/admin/programs/clinical-medicine/rules", map[string]interface{}{
		"rule_name": "Five credits",
		"rule_type": "subject_count",
		"condition": map[string]int{"min_subjects": 5, "grade_threshold": 6},
		"weight":    1,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "clinical-medicine", svc.lastProgramID)

	var condition map[string]int
	require.NoError(t, json.Unmarshal(svc.lastRule.Condition, &condition))
	require.Equal(t, 6, condition["grade_threshold"])
}

func TestAdminProgramHandlerChildRoutes(t *testing.T) {
	svc := &mockProgramService{}
	app := newProgramApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/admin/programs/clinical-medicine/rules/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(12), svc.lastChildID)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/admin/programs/clinical-medicine/requirements", map[string]interface{}{
		"subject_name":  "Chemistry",
		"minimum_grade": 6,
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "Chemistry", svc.lastRequirement.SubjectName)
	require.Nil(t, svc.lastRequirement.IsMandatory)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/admin/programs/clinical-medicine/requirements/4", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(4), svc.lastChildID)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/admin/programs/clinical-medicine/requirements/zero", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminProgramHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: service.ErrProgramNotFound, status: fiber.StatusNotFound},
		{err: service.ErrRuleNotFound, status: fiber.StatusNotFound},
		{err: service.ErrRequirementNotFound, status: fiber.StatusNotFound},
		{err: service.ErrProgramExists, status: fiber.StatusConflict},
		{err: fmt.Errorf("%w: condition does not match rule type", service.ErrInvalidRule), status: fiber.StatusBadRequest},
		{err: fmt.Errorf("disk full"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := newProgramApp(&mockProgramService{err: tc.err})
			resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/admin/programs/clinical-medicine", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
