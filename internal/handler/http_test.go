package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cyoa-server/internal/database/memstore"
	"cyoa-server/internal/handler"
	"cyoa-server/internal/models"
	"cyoa-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type StoryHandlerSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestStoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(StoryHandlerSuite))
}

func (s *StoryHandlerSuite) SetupTest() {
	logger := zap.NewNop()
	store := memstore.New(logger)
	first := func(int) int { return 0 }

	h := handler.NewStoryHandler(
		service.NewStoryGraphService(store, nil, logger),
		service.NewBranchingService(store, nil, first, logger),
		service.NewProgressService(store, nil, logger),
		service.NewImageService(store, first, logger),
		logger,
	)
	s.e = echo.New()
	s.e.Validator = handler.NewRequestValidator()
	h.RegisterRoutes(s.e)
}

func (s *StoryHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *StoryHandlerSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *StoryHandlerSuite) createNode(text string, parent *uuid.UUID) models.StoryNode {
	body := map[string]any{"narrative_text": text}
	if parent != nil {
		body["parent_node_id"] = parent
	}
	rec := s.do(http.MethodPost, "/api/story/nodes", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var node models.StoryNode
	s.decode(rec, &node)
	return node
}

func (s *StoryHandlerSuite) createChoice(body map[string]any) models.StoryChoice {
	rec := s.do(http.MethodPost, "/api/story/choices", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var choice models.StoryChoice
	s.decode(rec, &choice)
	return choice
}

func (s *StoryHandlerSuite) ingestCharacter(name string, traits ...string) models.ImageRecord {
	rec := s.do(http.MethodPost, "/api/story/images/analysis", map[string]any{
		"image_url": "https://cdn.example.com/" + name + ".jpg",
		"analysis": map[string]any{
			"character": map[string]any{"name": name, "traits": traits, "role": "hero"},
		},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var record models.ImageRecord
	s.decode(rec, &record)
	s.Require().Equal(models.ImageKindCharacter, record.Kind)
	return record
}

func (s *StoryHandlerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *StoryHandlerSuite) TestNodeViewAndAncestors() {
	root := s.createNode("You wake up in a forest.", nil)
	child := s.createNode("A path splits in two.", &root.ID)
	s.createChoice(map[string]any{"node_id": child.ID, "choice_text": "Go left"})

	rec := s.do(http.MethodGet, "/api/story/nodes/"+child.ID.String(), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var view service.NodeView
	s.decode(rec, &view)
	s.Equal(child.ID, view.Node.ID)
	s.Len(view.Choices, 1)
	s.False(view.IsEndpoint)
	s.Nil(view.Image)

	rec = s.do(http.MethodGet, "/api/story/nodes/"+child.ID.String()+"/ancestors", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var chain []models.StoryNode
	s.decode(rec, &chain)
	s.Require().Len(chain, 1)
	s.Equal(root.ID, chain[0].ID)
}

func (s *StoryHandlerSuite) TestErrorMapping() {
	rec := s.do(http.MethodGet, "/api/story/nodes/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/nodes/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
	var apiErr handler.APIError
	s.decode(rec, &apiErr)
	s.NotEmpty(apiErr.Message)

	rec = s.do(http.MethodPost, "/api/story/nodes", map[string]any{"narrative_text": ""})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/story/choices", map[string]any{"node_id": uuid.New(), "choice_text": "Run"})
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/images?kind=sculpture", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/images/random?kind=scene", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *StoryHandlerSuite) TestSelectChoiceAndProgress() {
	start := s.createNode("Start", nil)
	next := s.createNode("Next", &start.ID)
	choice := s.createChoice(map[string]any{"node_id": start.ID, "choice_text": "Walk", "next_node_id": next.ID})

	rec := s.do(http.MethodPost, "/api/story/choices/"+choice.ID.String()+"/select", map[string]any{"user_id": "u1"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var progress models.UserProgress
	s.decode(rec, &progress)
	s.Require().NotNil(progress.CurrentNodeID)
	s.Equal(next.ID, *progress.CurrentNodeID)
	s.Equal([]uuid.UUID{choice.ID}, progress.ChoiceHistory)

	rec = s.do(http.MethodGet, "/api/story/progress/u1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary service.ProgressSummary
	s.decode(rec, &summary)
	s.Require().NotNil(summary.Progress)
	s.Equal(0, summary.TotalPoints)

	rec = s.do(http.MethodDelete, "/api/story/progress/u1", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/progress/u1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	summary = service.ProgressSummary{}
	s.decode(rec, &summary)
	s.Nil(summary.Progress)
}

func (s *StoryHandlerSuite) TestEffectiveChoicesUseSelectedCharacters() {
	hero := s.ingestCharacter("Ayla", "Brave", "kind")
	node := s.createNode("A rickety bridge.", nil)
	s.createChoice(map[string]any{
		"node_id":     node.ID,
		"choice_text": "Cross the bridge",
		"metadata":    map[string]any{"tags": []string{models.TagRisky}},
	})

	rec := s.do(http.MethodPut, "/api/story/progress/u2/state", map[string]any{
		"selected_characters": []uuid.UUID{hero.ID},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/story/nodes/"+node.ID.String()+"/choices?user_id=u2", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var choices []service.EffectiveChoice
	s.decode(rec, &choices)
	s.Require().Len(choices, 1)
	s.Equal("Cross the bridge (Ayla looks eager to try this)", choices[0].Text)
	s.Equal(service.UnknownConsequence, choices[0].Consequence)

	rec = s.do(http.MethodGet, "/api/story/nodes/"+node.ID.String()+"/choices", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	choices = nil
	s.decode(rec, &choices)
	s.Equal("Cross the bridge", choices[0].Text)
}

func (s *StoryHandlerSuite) TestUnlockAchievement() {
	a := s.ingestCharacter("Ayla", "brave")
	b := s.ingestCharacter("Bram", "clever")

	rec := s.do(http.MethodPost, "/api/story/achievements/unlock", map[string]any{
		"user_id":       "u3",
		"character_ids": []uuid.UUID{b.ID, a.ID, a.ID},
		"name":          "Unlikely Allies",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Unlocked    bool                `json:"unlocked"`
		Achievement *models.Achievement `json:"achievement"`
	}
	s.decode(rec, &resp)
	s.True(resp.Unlocked)
	s.Require().NotNil(resp.Achievement)
	s.Equal(20, resp.Achievement.Points)

	rec = s.do(http.MethodPost, "/api/story/achievements/unlock", map[string]any{
		"user_id":       "u3",
		"character_ids": []uuid.UUID{uuid.New()},
		"name":          "Ghost",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	resp.Unlocked, resp.Achievement = true, nil
	s.decode(rec, &resp)
	s.False(resp.Unlocked)

	rec = s.do(http.MethodPost, "/api/story/achievements/unlock", map[string]any{"user_id": "u3", "name": "Empty"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/achievements", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []models.Achievement
	s.decode(rec, &list)
	s.Len(list, 1)

	rec = s.do(http.MethodGet, "/api/story/progress/u3", nil)
	var summary service.ProgressSummary
	s.decode(rec, &summary)
	s.Equal(20, summary.TotalPoints)
}

func (s *StoryHandlerSuite) TestImagesAndSuggestions() {
	hero := s.ingestCharacter("Ayla", "brave")

	rec := s.do(http.MethodGet, "/api/story/images/"+hero.ID.String(), nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/story/images", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var records []models.ImageRecord
	s.decode(rec, &records)
	s.Len(records, 1)

	rec = s.do(http.MethodGet, "/api/story/images/random?kind=character", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/story/images/analysis", map[string]any{
		"image_url": "ftp://example.com/x.png",
		"analysis":  map[string]any{"setting": "cave"},
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/story/suggest", map[string]any{"character_ids": []uuid.UUID{hero.ID}})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Suggestions []service.StorySuggestion `json:"suggestions"`
	}
	s.decode(rec, &resp)
	s.NotNil(resp.Suggestions)
}
