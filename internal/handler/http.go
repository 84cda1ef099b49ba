package handler

import (
	"errors"
	"fmt"
	"net/http"

	"cyoa-server/internal/models"
	"cyoa-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// StoryHandler обрабатывает HTTP запросы к графу истории, прогрессу и изображениям.
type StoryHandler struct {
	graph     service.StoryGraphService
	branching service.BranchingService
	progress  service.ProgressService
	images    service.ImageService
	logger    *zap.Logger
}

// NewStoryHandler создает новый StoryHandler.
func NewStoryHandler(
	graph service.StoryGraphService,
	branching service.BranchingService,
	progress service.ProgressService,
	images service.ImageService,
	logger *zap.Logger,
) *StoryHandler {
	return &StoryHandler{
		graph:     graph,
		branching: branching,
		progress:  progress,
		images:    images,
		logger:    logger.Named("StoryHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. Middleware (например, ограничение частоты)
// применяются только к группе /api/story.
func (h *StoryHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.health)

	api := e.Group("/api/story", mw...)
	{
		api.POST("/nodes", h.createNode)
		api.POST("/nodes/scene-based", h.createSceneNode)
		api.GET("/nodes/:id", h.getNodeView)
		api.GET("/nodes/:id/ancestors", h.getAncestors)
		api.GET("/nodes/:id/choices", h.getEffectiveChoices)

		api.POST("/choices", h.createChoice)
		api.POST("/choices/character-driven", h.createCharacterChoice)
		api.POST("/choices/:id/select", h.selectChoice)

		api.GET("/progress/:user_id", h.getProgress)
		api.PUT("/progress/:user_id/state", h.saveState)
		api.DELETE("/progress/:user_id", h.resetProgress)

		api.POST("/achievements/unlock", h.unlockAchievement)
		api.GET("/achievements", h.listAchievements)

		api.POST("/suggest", h.suggest)

		api.POST("/images/analysis", h.ingestAnalysis)
		api.GET("/images", h.listImages)
		api.GET("/images/random", h.randomImage)
		api.GET("/images/:id", h.getImage)
	}
}

func (h *StoryHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- Вспомогательные функции --- //

// bindAndValidate разбирает тело запроса в req и запускает зарегистрированный валидатор.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", models.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, raw)
	}
	return id, nil
}

func parseKindQuery(c echo.Context) (models.ImageKind, error) {
	raw := c.QueryParam("kind")
	if raw == "" {
		return models.ImageKindCharacter, nil
	}
	kind, ok := models.ParseImageKind(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown image kind %q", models.ErrValidation, raw)
	}
	return kind, nil
}

func (h *StoryHandler) handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrValidation):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrAlreadyExists):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		apiErr = APIError{Message: err.Error()}
	default:
		h.logger.Error("Unhandled service error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	return c.JSON(statusCode, apiErr)
}
