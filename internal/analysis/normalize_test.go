package analysis

import (
	"encoding/json"
	"testing"

	"cyoa-server/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCharacter(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    models.CharacterDetails
	}{
		{
			name: "nested character object wins",
			payload: map[string]any{
				"character_name": "Top Level",
				"character": map[string]any{
					"name":       "Fox",
					"role":       "Hero",
					"traits":     []any{"Brave", " Clever "},
					"plot_lines": []any{"guards the glade"},
				},
				"character_traits": []any{"lazy"},
			},
			want: models.CharacterDetails{
				Name:      "Fox",
				Role:      "hero",
				Traits:    []string{"brave", "clever"},
				PlotLines: []string{"guards the glade"},
			},
		},
		{
			name: "flat fields",
			payload: map[string]any{
				"character_name":   "Owl",
				"character_traits": "Wise, Cautious",
				"plot_lines":       []any{"keeps the map"},
			},
			want: models.CharacterDetails{
				Name:      "Owl",
				Traits:    []string{"wise", "cautious"},
				PlotLines: []string{"keeps the map"},
			},
		},
		{
			name:    "role alone marks a character and name falls back",
			payload: map[string]any{"role": "villain", "traits": []any{"sly"}},
			want: models.CharacterDetails{
				Name:      DefaultCharacterName,
				Role:      "villain",
				Traits:    []string{"sly"},
				PlotLines: []string{},
			},
		},
		{
			name:    "plain name key",
			payload: map[string]any{"type": "character", "name": "Badger"},
			want: models.CharacterDetails{
				Name:      "Badger",
				Traits:    []string{},
				PlotLines: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize("https://example.com/a.png", tt.payload)
			require.NoError(t, err)
			assert.Equal(t, models.ImageKindCharacter, rec.Kind)
			if diff := cmp.Diff(tt.want, rec.Character); diff != "" {
				t.Errorf("character mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeScene(t *testing.T) {
	rec, err := Normalize("http://example.com/glade.png", map[string]any{
		"setting":          "the Misty Glade",
		"dramatic_moments": []any{"a storm rolls in", ""},
		"scene_type":       "forest",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ImageKindScene, rec.Kind)
	assert.Equal(t, models.SceneDetails{
		Setting:         "the Misty Glade",
		DramaticMoments: []string{"a storm rolls in"},
		SceneType:       "forest",
	}, rec.Scene)
	assert.Empty(t, rec.Character.Name)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.AnalysisResult, &raw))
	assert.Equal(t, "forest", raw["scene_type"])
}

func TestNormalizeExplicitTypeOverridesShape(t *testing.T) {
	rec, err := Normalize("https://example.com/x.png", map[string]any{
		"image_type":     "scene",
		"character_name": "ignored",
		"setting":        "river bank",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImageKindScene, rec.Kind)
	assert.Equal(t, "river bank", rec.Scene.Setting)
}

func TestNormalizeUnknown(t *testing.T) {
	rec, err := Normalize("https://example.com/x.png", map[string]any{"colors": []any{"red"}})
	require.NoError(t, err)
	assert.Equal(t, models.ImageKindUnknown, rec.Kind)

	rec, err = Normalize("https://example.com/x.png", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ImageKindUnknown, rec.Kind)
	assert.JSONEq(t, `{}`, string(rec.AnalysisResult))
}

func TestNormalizeRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "   ", "ftp://example.com/a.png", "not a url", "/relative/path.png"} {
		_, err := Normalize(u, map[string]any{"type": "scene"})
		assert.ErrorIs(t, err, models.ErrValidation, "url %q", u)
	}
}
