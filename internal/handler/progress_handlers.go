package handler

import (
	"net/http"

	"cyoa-server/internal/service"

	"github.com/labstack/echo/v4"
)

// selectChoice godoc
// @Summary Выбор игрока
// @Description Переводит игрока в следующий узел и дописывает выбор в историю
// @Tags progress
// @Accept json
// @Produce json
// @Param id path string true "ID выбора"
// @Param request body selectChoiceRequest true "ID игрока"
// @Success 200 {object} models.UserProgress "Прогресс"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /choices/{id}/select [post]
func (h *StoryHandler) selectChoice(c echo.Context) error {
	choiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req selectChoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	progress, err := h.progress.SelectChoice(c.Request().Context(), req.UserID, choiceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// getProgress godoc
// @Summary Прогресс игрока
// @Description Прогресс и сумма очков достижений; progress = null, если игрок не начинал
// @Tags progress
// @Produce json
// @Param user_id path string true "ID игрока"
// @Success 200 {object} service.ProgressSummary "Прогресс"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /progress/{user_id} [get]
func (h *StoryHandler) getProgress(c echo.Context) error {
	summary, err := h.progress.GetProgress(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// saveState godoc
// @Summary Сохранение состояния игры
// @Tags progress
// @Accept json
// @Produce json
// @Param user_id path string true "ID игрока"
// @Param request body saveStateRequest true "Состояние"
// @Success 200 {object} models.UserProgress "Прогресс"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /progress/{user_id}/state [put]
func (h *StoryHandler) saveState(c echo.Context) error {
	var req saveStateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	progress, err := h.progress.SaveGameState(c.Request().Context(), c.Param("user_id"), service.SaveStateParams{
		CurrentNodeID:      req.CurrentNodeID,
		SelectedCharacters: req.SelectedCharacters,
		Variables:          req.Variables,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// resetProgress godoc
// @Summary Сброс прогресса
// @Tags progress
// @Produce json
// @Param user_id path string true "ID игрока"
// @Success 204 "Прогресс удален"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /progress/{user_id} [delete]
func (h *StoryHandler) resetProgress(c echo.Context) error {
	if err := h.progress.ResetProgress(c.Request().Context(), c.Param("user_id")); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// unlockAchievement godoc
// @Summary Достижение за комбинацию персонажей
// @Description unlocked=false, если какой-то персонаж не найден
// @Tags achievements
// @Accept json
// @Produce json
// @Param request body unlockAchievementRequest true "Игрок, персонажи и название"
// @Success 200 {object} unlockAchievementResponse "Результат"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 409 {object} APIError "Конфликт"
// @Router /achievements/unlock [post]
func (h *StoryHandler) unlockAchievement(c echo.Context) error {
	var req unlockAchievementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}

	achievement, err := h.branching.UnlockAchievementForCombo(c.Request().Context(),
		req.UserID, req.CharacterIDs, req.Name, req.Description)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, unlockAchievementResponse{
		Unlocked:    achievement != nil,
		Achievement: achievement,
	})
}

// listAchievements godoc
// @Summary Список достижений
// @Tags achievements
// @Produce json
// @Success 200 {array} models.Achievement "Достижения"
// @Router /achievements [get]
func (h *StoryHandler) listAchievements(c echo.Context) error {
	achievements, err := h.branching.ListAchievements(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, achievements)
}
