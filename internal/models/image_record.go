package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageKind classifies an analyzed artwork.
type ImageKind string

const (
	ImageKindCharacter ImageKind = "character"
	ImageKindScene     ImageKind = "scene"
	ImageKindUnknown   ImageKind = "unknown"
)

// ParseImageKind returns the kind for s, or false if s is not a known kind.
func ParseImageKind(s string) (ImageKind, bool) {
	switch ImageKind(strings.ToLower(strings.TrimSpace(s))) {
	case ImageKindCharacter:
		return ImageKindCharacter, true
	case ImageKindScene:
		return ImageKindScene, true
	case ImageKindUnknown:
		return ImageKindUnknown, true
	}
	return "", false
}

// CharacterDetails holds the character-specific part of an ImageRecord.
type CharacterDetails struct {
	Name      string   `json:"name"`
	Role      string   `json:"role,omitempty"` // hero, villain, neutral, protagonist, ...
	Traits    []string `json:"traits"`
	PlotLines []string `json:"plotLines"`
}

// HasAnyTrait reports whether the character carries at least one of the given traits.
func (c CharacterDetails) HasAnyTrait(traits ...string) bool {
	for _, t := range traits {
		if slices.Contains(c.Traits, t) {
			return true
		}
	}
	return false
}

// SceneDetails holds the scene-specific part of an ImageRecord.
type SceneDetails struct {
	Setting         string   `json:"setting"`
	DramaticMoments []string `json:"dramaticMoments"`
	SceneType       string   `json:"sceneType,omitempty"`
}

// ImageRecord is a classified artwork produced by the external analysis pipeline.
// The branching core only reads these.
type ImageRecord struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	ImageURL       string           `db:"image_url" json:"imageUrl"`
	Kind           ImageKind        `db:"kind" json:"kind"`
	Character      CharacterDetails `json:"character"`
	Scene          SceneDetails     `json:"scene"`
	AnalysisResult json.RawMessage  `db:"analysis_result" json:"analysisResult,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

// IsCharacter reports whether the record was classified as a character.
func (r *ImageRecord) IsCharacter() bool { return r.Kind == ImageKindCharacter }

// IsScene reports whether the record was classified as a scene.
func (r *ImageRecord) IsScene() bool { return r.Kind == ImageKindScene }
