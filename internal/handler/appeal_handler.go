package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/service"
	"github.com/mihas-katc/admissions-api/internal/utils"
)

// AppealHandler exposes appeal endpoints.
type AppealHandler struct {
	service service.AppealService
	logger  zerolog.Logger
}

// NewAppealHandler constructs the handler.
func NewAppealHandler(service service.AppealService, logger zerolog.Logger) *AppealHandler {
	return &AppealHandler{
		service: service,
		logger:  logger.With().Str("component", "appeal_handler").Logger(),
	}
}

// Register wires appeal routes.
func (h *AppealHandler) Register(router fiber.Router) {
	router.Post("/appeals", h.submit)
	router.Get("/applications/:applicationId/appeals", h.list)
}

func (h *AppealHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitAppealRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrAppealValidation) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to submit appeal")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "appeal submitted", response)
}

func (h *AppealHandler) list(c *fiber.Ctx) error {
	items, err := h.service.ListByApplication(c.UserContext(), c.Params("applicationId"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list appeals")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "appeals", items)
}
