package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/service"
	"github.com/mihas-katc/admissions-api/internal/utils"
)

// AdminAssessmentHandler lets assessors override stored outcomes.
type AdminAssessmentHandler struct {
	service service.EligibilityService
	logger  zerolog.Logger
}

// NewAdminAssessmentHandler constructs the handler.
func NewAdminAssessmentHandler(service service.EligibilityService, logger zerolog.Logger) *AdminAssessmentHandler {
	return &AdminAssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_assessment_handler").Logger(),
	}
}

// Register wires assessor routes.
func (h *AdminAssessmentHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Patch("/:id/status", h.updateStatus)
}

func (h *AdminAssessmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment retrieved", response)
}

func (h *AdminAssessmentHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssessmentStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.OverrideStatus(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment status updated", response)
}

func (h *AdminAssessmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrInvalidStatus), isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assessment override failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
