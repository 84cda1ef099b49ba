// Package analysis maps loosely shaped image-analysis payloads onto models.ImageRecord.
//
// Precedence, applied once at ingestion:
//
//	kind:   explicit image_type / type (character|scene), then a nested "character"
//	        object, then top-level character_name / character_traits / plot_lines,
//	        then a hero/villain/neutral role, then any scene field; else unknown.
//	name:   character.name > character_name > name > "Unnamed Character".
//	traits, role, plot_lines: nested character object first, then top level.
//	scene:  setting, dramatic_moments, scene_type from the top level.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"cyoa-server/internal/models"

	"github.com/go-playground/validator/v10"
)

// DefaultCharacterName is used when a character payload carries no name at all.
const DefaultCharacterName = "Unnamed Character"

var validate = validator.New()

// Normalize builds an ImageRecord from the analysis payload of imageURL.
// The returned record has no ID yet.
func Normalize(imageURL string, payload map[string]any) (*models.ImageRecord, error) {
	imageURL = strings.TrimSpace(imageURL)
	if err := validate.Var(imageURL, "required,http_url"); err != nil {
		return nil, fmt.Errorf("%w: image url %q must be an absolute http(s) url", models.ErrValidation, imageURL)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: analysis payload is not serializable: %v", models.ErrValidation, err)
	}

	record := &models.ImageRecord{
		ImageURL:       imageURL,
		Kind:           detectKind(payload),
		AnalysisResult: raw,
	}

	switch record.Kind {
	case models.ImageKindCharacter:
		nested, _ := payload["character"].(map[string]any)
		record.Character = models.CharacterDetails{
			Name:      firstString(DefaultCharacterName, field{nested, "name"}, field{payload, "character_name"}, field{payload, "name"}),
			Role:      strings.ToLower(firstString("", field{nested, "role"}, field{payload, "role"})),
			Traits:    lowerAll(firstList(field{nested, "traits"}, field{payload, "character_traits"}, field{payload, "traits"})),
			PlotLines: firstList(field{nested, "plot_lines"}, field{payload, "plot_lines"}),
		}
	case models.ImageKindScene:
		record.Scene = models.SceneDetails{
			Setting:         firstString("", field{payload, "setting"}),
			DramaticMoments: firstList(field{payload, "dramatic_moments"}),
			SceneType:       firstString("", field{payload, "scene_type"}),
		}
	}
	return record, nil
}

func detectKind(payload map[string]any) models.ImageKind {
	for _, key := range []string{"image_type", "type"} {
		if s, ok := payload[key].(string); ok {
			if kind, ok := models.ParseImageKind(s); ok && kind != models.ImageKindUnknown {
				return kind
			}
		}
	}
	if _, ok := payload["character"].(map[string]any); ok {
		return models.ImageKindCharacter
	}
	for _, key := range []string{"character_name", "character_traits", "plot_lines"} {
		if _, ok := payload[key]; ok {
			return models.ImageKindCharacter
		}
	}
	if role, ok := payload["role"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case "hero", "villain", "neutral":
			return models.ImageKindCharacter
		}
	}
	for _, key := range []string{"setting", "dramatic_moments", "scene_type"} {
		if _, ok := payload[key]; ok {
			return models.ImageKindScene
		}
	}
	return models.ImageKindUnknown
}

// field addresses one key of a (possibly nil) object.
type field struct {
	obj map[string]any
	key string
}

func (f field) lookup() (any, bool) {
	if f.obj == nil {
		return nil, false
	}
	v, ok := f.obj[f.key]
	return v, ok && v != nil
}

// firstString returns the first non-blank string among fields, or def.
func firstString(def string, fields ...field) string {
	for _, f := range fields {
		if v, ok := f.lookup(); ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return def
}

// firstList returns the first non-empty string list among fields. A bare
// string is treated as a comma-separated list.
func firstList(fields ...field) []string {
	for _, f := range fields {
		v, ok := f.lookup()
		if !ok {
			continue
		}
		if list := toStrings(v); len(list) > 0 {
			return list
		}
	}
	return []string{}
}

func toStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
