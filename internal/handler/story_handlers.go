package handler

import (
	"net/http"

	"cyoa-server/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// createNode godoc
// @Summary Создание узла истории
// @Description Создает узел; родитель, изображение и достижение должны существовать
// @Tags nodes
// @Accept json
// @Produce json
// @Param request body createNodeRequest true "Данные узла"
// @Success 201 {object} models.StoryNode "Созданный узел"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /nodes [post]
func (h *StoryHandler) createNode(c echo.Context) error {
	var req createNodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	node, err := h.graph.CreateNode(c.Request().Context(), service.CreateNodeParams{
		NarrativeText:  req.NarrativeText,
		ImageID:        req.ImageID,
		ParentNodeID:   req.ParentNodeID,
		BranchMetadata: req.BranchMetadata,
		IsEndpoint:     req.IsEndpoint,
		AchievementID:  req.AchievementID,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, node)
}

// createSceneNode godoc
// @Summary Узел по сцене
// @Description Создает узел из записи сцены; пустой текст синтезируется
// @Tags nodes
// @Accept json
// @Produce json
// @Param request body sceneNodeRequest true "Сцена и предыдущий узел"
// @Success 201 {object} models.StoryNode "Созданный узел"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /nodes/scene-based [post]
func (h *StoryHandler) createSceneNode(c echo.Context) error {
	var req sceneNodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	node, err := h.branching.GenerateSceneBasedNode(c.Request().Context(), service.SceneNodeParams{
		SceneImageID:   req.SceneImageID,
		PreviousNodeID: req.PreviousNodeID,
		NarrativeText:  req.NarrativeText,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, node)
}

// getNodeView godoc
// @Summary Узел с изображением и выборами
// @Tags nodes
// @Produce json
// @Param id path string true "ID узла"
// @Success 200 {object} service.NodeView "Узел"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /nodes/{id} [get]
func (h *StoryHandler) getNodeView(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	view, err := h.graph.GetNodeView(c.Request().Context(), id)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// getAncestors godoc
// @Summary Цепочка предков узла
// @Description Предки от родителя к корню
// @Tags nodes
// @Produce json
// @Param id path string true "ID узла"
// @Success 200 {array} models.StoryNode "Предки"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Failure 500 {object} APIError "Внутренняя ошибка"
// @Router /nodes/{id}/ancestors [get]
func (h *StoryHandler) getAncestors(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	chain, err := h.graph.GetAncestorChain(c.Request().Context(), id)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, chain)
}

// getEffectiveChoices godoc
// @Summary Выборы узла для игрока
// @Description Выборы, дополненные с учетом выбранных персонажей игрока
// @Tags nodes
// @Produce json
// @Param id path string true "ID узла"
// @Param user_id query string false "ID игрока"
// @Success 200 {array} service.EffectiveChoice "Выборы"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /nodes/{id}/choices [get]
func (h *StoryHandler) getEffectiveChoices(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	userID := c.QueryParam("user_id")
	choices, err := h.branching.GetEffectiveChoices(c.Request().Context(), id, userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	h.logger.Debug("Effective choices served",
		zap.Stringer("nodeID", id),
		zap.String("userID", userID),
		zap.Int("count", len(choices)))
	return c.JSON(http.StatusOK, choices)
}

// createChoice godoc
// @Summary Создание выбора
// @Tags choices
// @Accept json
// @Produce json
// @Param request body createChoiceRequest true "Данные выбора"
// @Success 201 {object} models.StoryChoice "Созданный выбор"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /choices [post]
func (h *StoryHandler) createChoice(c echo.Context) error {
	var req createChoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	choice, err := h.graph.CreateChoice(c.Request().Context(), service.CreateChoiceParams{
		NodeID:     req.NodeID,
		ChoiceText: req.ChoiceText,
		NextNodeID: req.NextNodeID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, choice)
}

// createCharacterChoice godoc
// @Summary Выбор от персонажа
// @Description Создает выбор, связанный с персонажем
// @Tags choices
// @Accept json
// @Produce json
// @Param request body characterChoiceRequest true "Данные выбора"
// @Success 201 {object} models.StoryChoice "Созданный выбор"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /choices/character-driven [post]
func (h *StoryHandler) createCharacterChoice(c echo.Context) error {
	var req characterChoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	choice, err := h.branching.CreateCharacterDrivenChoice(c.Request().Context(), service.CharacterChoiceParams{
		NodeID:         req.NodeID,
		CharacterID:    req.CharacterID,
		ChoiceText:     req.ChoiceText,
		NextNodeID:     req.NextNodeID,
		RequiredTraits: req.RequiredTraits,
		Tags:           req.Tags,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, choice)
}

// suggest godoc
// @Summary Подсказки сюжетных линий
// @Tags suggestions
// @Accept json
// @Produce json
// @Param request body suggestRequest true "ID персонажей"
// @Success 200 {object} suggestResponse "Подсказки"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /suggest [post]
func (h *StoryHandler) suggest(c echo.Context) error {
	var req suggestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	suggestions, err := h.branching.SuggestStoryPaths(c.Request().Context(), req.CharacterIDs)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if suggestions == nil {
		suggestions = []service.StorySuggestion{}
	}
	return c.JSON(http.StatusOK, suggestResponse{Suggestions: suggestions})
}
