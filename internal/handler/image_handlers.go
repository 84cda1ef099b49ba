package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ingestAnalysis godoc
// @Summary Загрузка анализа изображения
// @Description Нормализует анализ и сохраняет запись изображения
// @Tags images
// @Accept json
// @Produce json
// @Param request body ingestAnalysisRequest true "URL и анализ"
// @Success 201 {object} models.ImageRecord "Запись"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /images/analysis [post]
func (h *StoryHandler) ingestAnalysis(c echo.Context) error {
	var req ingestAnalysisRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	record, err := h.images.IngestAnalysis(c.Request().Context(), req.ImageURL, req.Analysis)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// getImage godoc
// @Summary Запись изображения
// @Tags images
// @Produce json
// @Param id path string true "ID изображения"
// @Success 200 {object} models.ImageRecord "Запись"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /images/{id} [get]
func (h *StoryHandler) getImage(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	record, err := h.images.GetImage(c.Request().Context(), id)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// listImages godoc
// @Summary Записи изображений по типу
// @Description По умолчанию kind=character
// @Tags images
// @Produce json
// @Param kind query string false "character, scene или unknown"
// @Success 200 {array} models.ImageRecord "Записи"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Router /images [get]
func (h *StoryHandler) listImages(c echo.Context) error {
	kind, err := parseKindQuery(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	records, err := h.images.ListImages(c.Request().Context(), kind)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// randomImage godoc
// @Summary Случайное изображение типа
// @Tags images
// @Produce json
// @Param kind query string false "character, scene или unknown"
// @Success 200 {object} models.ImageRecord "Запись"
// @Failure 400 {object} APIError "Неверные данные запроса"
// @Failure 404 {object} APIError "Ресурс не найден"
// @Router /images/random [get]
func (h *StoryHandler) randomImage(c echo.Context) error {
	kind, err := parseKindQuery(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	record, err := h.images.RandomImage(c.Request().Context(), kind)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}
