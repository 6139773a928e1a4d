package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/redaia-api/internal/dto"
	"github.com/noah-isme/redaia-api/internal/service"
	"github.com/noah-isme/redaia-api/internal/utils"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

// EssayHandler exposes the essay lifecycle endpoints.
type EssayHandler struct {
	service service.EssayService
	logger  zerolog.Logger
}

// NewEssayHandler constructs an essay handler.
func NewEssayHandler(service service.EssayService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service: service,
		logger:  logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register wires essay routes. evaluateGuards run before the evaluate
// endpoint only.
func (h *EssayHandler) Register(router fiber.Router, evaluateGuards ...fiber.Handler) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/statistics", h.statistics)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)

	evaluate := append(append([]fiber.Handler{}, evaluateGuards...), h.evaluate)
	router.Post("/:id/evaluate", evaluate...)
}

func (h *EssayHandler) list(c *fiber.Ctx) error {
	query, err := parseEssayListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(withRequestContext(c), userIDFromContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, result.Items, "essays retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *EssayHandler) create(c *fiber.Ctx) error {
	var payload dto.EssayCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	essay, err := h.service.Create(withRequestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "essay created", essay)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.service.Get(withRequestContext(c), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay retrieved", essay)
}

func (h *EssayHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EssayUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	essay, err := h.service.Update(withRequestContext(c), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay updated", essay)
}

func (h *EssayHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay deleted", nil)
}

func (h *EssayHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.service.Evaluate(withRequestContext(c), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay evaluated", essay)
}

func (h *EssayHandler) statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(withRequestContext(c), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "statistics retrieved", stats)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrThemeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "theme not found")
	case errors.Is(err, service.ErrNoActiveThemes):
		return utils.SendError(c, fiber.StatusNotFound, "no active themes available")
	case errors.Is(err, service.ErrEssayTooShort), errors.Is(err, service.ErrEssayContentEmpty):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if status, ok := providerStatus(err); ok {
		var providerErr *ai.ProviderError
		if errors.As(err, &providerErr) && providerErr.RetryAfter != "" {
			c.Set(fiber.HeaderRetryAfter, providerErr.RetryAfter)
		}
		requestLogger(h.logger, c).Warn().Err(err).Int("status", status).Msg("essay evaluation failed")
		return utils.SendError(c, status, err.Error())
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

// providerStatus maps scoring failures onto HTTP statuses.
func providerStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return fiber.StatusServiceUnavailable, true
	case errors.Is(err, ai.ErrTimeout):
		return fiber.StatusGatewayTimeout, true
	case errors.Is(err, ai.ErrRateLimited):
		return fiber.StatusTooManyRequests, true
	case errors.Is(err, ai.ErrInvalidCredential),
		errors.Is(err, ai.ErrUpstream),
		errors.Is(err, ai.ErrEmptyResponse),
		errors.Is(err, ai.ErrMalformedResponse):
		return fiber.StatusBadGateway, true
	default:
		return 0, false
	}
}

func parseEssayListQuery(c *fiber.Ctx) (dto.EssayListQuery, error) {
	var query dto.EssayListQuery

	themeID, err := parseQueryUint(c, "theme_id")
	if err != nil {
		return query, errors.New("invalid theme_id")
	}
	evaluated, err := parseQueryBool(c, "is_evaluated")
	if err != nil {
		return query, errors.New("invalid is_evaluated")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return query, errors.New("invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return query, errors.New("invalid offset")
	}

	query.ThemeID = themeID
	query.IsEvaluated = evaluated
	query.Limit = limit
	query.Offset = offset
	query.OrderBy = c.Query("order_by")
	query.OrderDirection = c.Query("order_direction")
	return query, nil
}
