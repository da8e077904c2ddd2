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

// EligibilityHandler exposes assessment endpoints to applicants.
type EligibilityHandler struct {
	service service.EligibilityService
	logger  zerolog.Logger
}

// NewEligibilityHandler constructs the handler.
func NewEligibilityHandler(service service.EligibilityService, logger zerolog.Logger) *EligibilityHandler {
	return &EligibilityHandler{
		service: service,
		logger:  logger.With().Str("component", "eligibility_handler").Logger(),
	}
}

// Register wires assessment routes. assessGuards run before the assess
// endpoint only.
func (h *EligibilityHandler) Register(router fiber.Router, assessGuards ...fiber.Handler) {
	assess := append(append([]fiber.Handler{}, assessGuards...), h.assess)
	router.Post("/assessments", assess...)
	router.Get("/assessments/:id", h.get)
	router.Get("/applications/:applicationId/assessments", h.history)
}

func (h *EligibilityHandler) assess(c *fiber.Ctx) error {
	var payload dto.AssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Assess(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment completed", response)
}

func (h *EligibilityHandler) get(c *fiber.Ctx) error {
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

func (h *EligibilityHandler) history(c *fiber.Ctx) error {
	items, err := h.service.History(c.UserContext(), c.Params("applicationId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment history", items)
}

func (h *EligibilityHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assessment operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "assessment unavailable")
	}
}
