package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/service"
	"github.com/mihas-katc/admissions-api/internal/utils"
)

// AdminProgramHandler exposes programme administration endpoints.
type AdminProgramHandler struct {
	service service.ProgramService
	logger  zerolog.Logger
}

// NewAdminProgramHandler constructs the handler.
func NewAdminProgramHandler(service service.ProgramService, logger zerolog.Logger) *AdminProgramHandler {
	return &AdminProgramHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_program_handler").Logger(),
	}
}

// Register wires programme routes.
func (h *AdminProgramHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/rules", h.addRule)
	router.Delete("/:id/rules/:ruleId", h.deactivateRule)
	router.Post("/:id/requirements", h.addRequirement)
	router.Delete("/:id/requirements/:requirementId", h.removeRequirement)
}

func (h *AdminProgramHandler) list(c *fiber.Ctx) error {
	var filter dto.ProgramFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	items, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "programs", items)
}

func (h *AdminProgramHandler) get(c *fiber.Ctx) error {
	program, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "program retrieved", program)
}

func (h *AdminProgramHandler) create(c *fiber.Ctx) error {
	var payload dto.ProgramCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	program, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "program created", program)
}

func (h *AdminProgramHandler) addRule(c *fiber.Ctx) error {
	var payload dto.RuleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rule, err := h.service.AddRule(c.UserContext(), c.Params("id"), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rule added", rule)
}

func (h *AdminProgramHandler) deactivateRule(c *fiber.Ctx) error {
	ruleID, err := parseUintParam(c, "ruleId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rule, err := h.service.DeactivateRule(c.UserContext(), c.Params("id"), ruleID, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rule deactivated", rule)
}

func (h *AdminProgramHandler) addRequirement(c *fiber.Ctx) error {
	var payload dto.RequirementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	requirement, err := h.service.AddRequirement(c.UserContext(), c.Params("id"), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "requirement added", requirement)
}

func (h *AdminProgramHandler) removeRequirement(c *fiber.Ctx) error {
	requirementID, err := parseUintParam(c, "requirementId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveRequirement(c.UserContext(), c.Params("id"), requirementID, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "requirement removed", nil)
}

func (h *AdminProgramHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "program not found")
	case errors.Is(err, service.ErrRuleNotFound), errors.Is(err, service.ErrRequirementNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProgramExists):
		return utils.SendError(c, fiber.StatusConflict, "program already exists")
	case errors.Is(err, service.ErrInvalidRule):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("program operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
