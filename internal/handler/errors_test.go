package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cyoa-server/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	h := &StoryHandler{logger: zap.NewNop()}
	e := echo.New()

	tests := []struct {
		err        error
		wantStatus int
	}{
		{fmt.Errorf("%w: bad", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("node x: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrAlreadyExists, http.StatusConflict},
		{models.ErrRateLimited, http.StatusTooManyRequests},
		{models.ErrCorruptGraph, http.StatusInternalServerError},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, h.handleServiceError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
			}
		})
	}
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&unlockAchievementRequest{UserID: "u", Name: "n"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "CharacterIDs")

	assert.NoError(t, v.Validate(&selectChoiceRequest{UserID: "u"}))
}
