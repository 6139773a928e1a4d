package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/redaia-api/internal/service"
	"github.com/noah-isme/redaia-api/internal/utils"
)

// ThemeHandler exposes the public theme catalogue.
type ThemeHandler struct {
	service service.ThemeService
	logger  zerolog.Logger
}

// NewThemeHandler constructs a theme handler.
func NewThemeHandler(service service.ThemeService, logger zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{
		service: service,
		logger:  logger.With().Str("component", "theme_handler").Logger(),
	}
}

// Register wires theme routes.
func (h *ThemeHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/random", h.random)
	router.Get("/:id", h.get)
}

func (h *ThemeHandler) list(c *fiber.Ctx) error {
	themes, err := h.service.List(withRequestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "themes retrieved", themes)
}

func (h *ThemeHandler) random(c *fiber.Ctx) error {
	theme, err := h.service.Random(withRequestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "theme retrieved", theme)
}

func (h *ThemeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	theme, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "theme retrieved", theme)
}

func (h *ThemeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrThemeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "theme not found")
	case errors.Is(err, service.ErrNoActiveThemes):
		return utils.SendError(c, fiber.StatusNotFound, "no active themes available")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
