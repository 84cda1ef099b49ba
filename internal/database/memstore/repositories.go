package memstore

import (
	"context"
	"fmt"
	"slices"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

var (
	_ interfaces.ImageRecordRepository  = (*imageRecords)(nil)
	_ interfaces.StoryNodeRepository    = (*storyNodes)(nil)
	_ interfaces.StoryChoiceRepository  = (*storyChoices)(nil)
	_ interfaces.UserProgressRepository = (*userProgress)(nil)
	_ interfaces.AchievementRepository  = (*achievements)(nil)
)

// --- Image records ---

type imageRecords struct{ b *binding }

func (r *imageRecords) Create(_ context.Context, record *models.ImageRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.b.store.now()
	}
	record.UpdatedAt = record.CreatedAt
	if record.Kind == "" {
		record.Kind = models.ImageKindUnknown
	}
	return r.b.write(func(st *state) error {
		if _, ok := st.images[record.ID]; ok {
			return fmt.Errorf("%w: image record %s", models.ErrAlreadyExists, record.ID)
		}
		st.images[record.ID] = copyImageRecord(record)
		st.imageOrder = append(st.imageOrder, record.ID)
		return nil
	})
}

func (r *imageRecords) GetByID(_ context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	var out *models.ImageRecord
	err := r.b.read(func(st *state) error {
		rec, ok := st.images[id]
		if !ok {
			return fmt.Errorf("%w: image record %s", models.ErrNotFound, id)
		}
		out = copyImageRecord(rec)
		return nil
	})
	return out, err
}

func (r *imageRecords) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*models.ImageRecord, error) {
	out := make([]*models.ImageRecord, 0, len(ids))
	err := r.b.read(func(st *state) error {
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if rec, ok := st.images[id]; ok {
				out = append(out, copyImageRecord(rec))
			}
		}
		return nil
	})
	return out, err
}

func (r *imageRecords) ListByKind(_ context.Context, kind models.ImageKind) ([]*models.ImageRecord, error) {
	out := make([]*models.ImageRecord, 0)
	err := r.b.read(func(st *state) error {
		for _, id := range st.imageOrder {
			if rec := st.images[id]; rec.Kind == kind {
				out = append(out, copyImageRecord(rec))
			}
		}
		return nil
	})
	return out, err
}

// --- Story nodes ---

type storyNodes struct{ b *binding }

func (r *storyNodes) Create(_ context.Context, node *models.StoryNode) error {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = r.b.store.now()
	}
	return r.b.write(func(st *state) error {
		if _, ok := st.nodes[node.ID]; ok {
			return fmt.Errorf("%w: story node %s", models.ErrAlreadyExists, node.ID)
		}
		if node.ParentNodeID != nil {
			if _, ok := st.nodes[*node.ParentNodeID]; !ok {
				return fmt.Errorf("%w: parent node %s", models.ErrNotFound, *node.ParentNodeID)
			}
		}
		if node.ImageID != nil {
			if _, ok := st.images[*node.ImageID]; !ok {
				return fmt.Errorf("%w: image record %s", models.ErrNotFound, *node.ImageID)
			}
		}
		if node.AchievementID != nil {
			if _, ok := st.achievements[*node.AchievementID]; !ok {
				return fmt.Errorf("%w: achievement %s", models.ErrNotFound, *node.AchievementID)
			}
		}
		st.nodes[node.ID] = copyStoryNode(node)
		return nil
	})
}

func (r *storyNodes) GetByID(_ context.Context, id uuid.UUID) (*models.StoryNode, error) {
	var out *models.StoryNode
	err := r.b.read(func(st *state) error {
		node, ok := st.nodes[id]
		if !ok {
			return fmt.Errorf("%w: story node %s", models.ErrNotFound, id)
		}
		out = copyStoryNode(node)
		return nil
	})
	return out, err
}

func (r *storyNodes) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.b.read(func(st *state) error {
		_, exists = st.nodes[id]
		return nil
	})
	return exists, err
}

func (r *storyNodes) ListAncestors(_ context.Context, id uuid.UUID, maxDepth int) ([]*models.StoryNode, error) {
	out := make([]*models.StoryNode, 0)
	err := r.b.read(func(st *state) error {
		start, ok := st.nodes[id]
		if !ok {
			return nil
		}
		child, next := start.ID, start.ParentNodeID
		for next != nil && len(out) <= maxDepth {
			node, ok := st.nodes[*next]
			if !ok {
				return fmt.Errorf("%w: node %s points to missing parent %s", models.ErrCorruptGraph, child, *next)
			}
			out = append(out, copyStoryNode(node))
			child, next = node.ID, node.ParentNodeID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Story choices ---

type storyChoices struct{ b *binding }

func (r *storyChoices) Create(_ context.Context, choice *models.StoryChoice) error {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if choice.CreatedAt.IsZero() {
		choice.CreatedAt = r.b.store.now()
	}
	return r.b.write(func(st *state) error {
		if _, ok := st.choices[choice.ID]; ok {
			return fmt.Errorf("%w: story choice %s", models.ErrAlreadyExists, choice.ID)
		}
		if _, ok := st.nodes[choice.NodeID]; !ok {
			return fmt.Errorf("%w: story node %s", models.ErrNotFound, choice.NodeID)
		}
		st.choices[choice.ID] = copyStoryChoice(choice)
		st.choicesByNode[choice.NodeID] = append(st.choicesByNode[choice.NodeID], choice.ID)
		return nil
	})
}

func (r *storyChoices) GetByID(_ context.Context, id uuid.UUID) (*models.StoryChoice, error) {
	var out *models.StoryChoice
	err := r.b.read(func(st *state) error {
		choice, ok := st.choices[id]
		if !ok {
			return fmt.Errorf("%w: story choice %s", models.ErrNotFound, id)
		}
		out = copyStoryChoice(choice)
		return nil
	})
	return out, err
}

func (r *storyChoices) ListByNode(_ context.Context, nodeID uuid.UUID) ([]*models.StoryChoice, error) {
	out := make([]*models.StoryChoice, 0)
	err := r.b.read(func(st *state) error {
		for _, id := range st.choicesByNode[nodeID] {
			out = append(out, copyStoryChoice(st.choices[id]))
		}
		return nil
	})
	return out, err
}

// --- User progress ---

type userProgress struct{ b *binding }

func (r *userProgress) GetByUserID(_ context.Context, userID string) (*models.UserProgress, error) {
	var out *models.UserProgress
	err := r.b.read(func(st *state) error {
		p, ok := st.progress[userID]
		if !ok {
			return fmt.Errorf("%w: progress for user %s", models.ErrNotFound, userID)
		}
		out = copyUserProgress(p)
		return nil
	})
	return out, err
}

// upsert replaces the user's row with mutate applied to a copy of it.
func (r *userProgress) upsert(st *state, userID string, mutate func(p *models.UserProgress) error) (*models.UserProgress, error) {
	now := r.b.store.now()
	var p *models.UserProgress
	if existing, ok := st.progress[userID]; ok {
		p = copyUserProgress(existing)
	} else {
		p = &models.UserProgress{
			UserID:             userID,
			ChoiceHistory:      []uuid.UUID{},
			AchievementsEarned: []uuid.UUID{},
			CreatedAt:          now,
		}
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = now
	st.progress[userID] = p
	return copyUserProgress(p), nil
}

func (r *userProgress) RecordChoice(_ context.Context, userID string, choiceID uuid.UUID, nextNodeID *uuid.UUID) (*models.UserProgress, error) {
	var out *models.UserProgress
	err := r.b.write(func(st *state) error {
		if nextNodeID != nil {
			if _, ok := st.nodes[*nextNodeID]; !ok {
				return fmt.Errorf("%w: next node of choice %s", models.ErrNotFound, choiceID)
			}
		}
		var err error
		out, err = r.upsert(st, userID, func(p *models.UserProgress) error {
			p.CurrentNodeID = copyUUIDPtr(nextNodeID)
			p.ChoiceHistory = append(p.ChoiceHistory, choiceID)
			return nil
		})
		return err
	})
	return out, err
}

func (r *userProgress) SaveState(_ context.Context, userID string, currentNodeID *uuid.UUID, gs models.GameState) (*models.UserProgress, error) {
	var out *models.UserProgress
	err := r.b.write(func(st *state) error {
		if currentNodeID != nil {
			if _, ok := st.nodes[*currentNodeID]; !ok {
				return fmt.Errorf("%w: current node for user %s", models.ErrNotFound, userID)
			}
		}
		var err error
		out, err = r.upsert(st, userID, func(p *models.UserProgress) error {
			if currentNodeID != nil {
				p.CurrentNodeID = copyUUIDPtr(currentNodeID)
			}
			p.GameState = copyGameState(gs)
			return nil
		})
		return err
	})
	return out, err
}

func (r *userProgress) AddAchievement(_ context.Context, userID string, achievementID uuid.UUID) (bool, error) {
	var added bool
	err := r.b.write(func(st *state) error {
		if p, ok := st.progress[userID]; ok && slices.Contains(p.AchievementsEarned, achievementID) {
			return nil
		}
		_, err := r.upsert(st, userID, func(p *models.UserProgress) error {
			p.AchievementsEarned = append(p.AchievementsEarned, achievementID)
			return nil
		})
		added = err == nil
		return err
	})
	return added, err
}

func (r *userProgress) Delete(_ context.Context, userID string) error {
	return r.b.write(func(st *state) error {
		delete(st.progress, userID)
		return nil
	})
}

// --- Achievements ---

type achievements struct{ b *binding }

func (r *achievements) Create(_ context.Context, a *models.Achievement) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.b.store.now()
	}
	return r.b.write(func(st *state) error {
		if _, ok := st.achievementsByName[a.Name]; ok {
			return fmt.Errorf("%w: achievement %q", models.ErrAlreadyExists, a.Name)
		}
		if _, ok := st.achievements[a.ID]; ok {
			return fmt.Errorf("%w: achievement %s", models.ErrAlreadyExists, a.ID)
		}
		st.achievements[a.ID] = copyAchievement(a)
		st.achievementsByName[a.Name] = a.ID
		st.achievementOrder = append(st.achievementOrder, a.ID)
		return nil
	})
}

func (r *achievements) GetByID(_ context.Context, id uuid.UUID) (*models.Achievement, error) {
	var out *models.Achievement
	err := r.b.read(func(st *state) error {
		a, ok := st.achievements[id]
		if !ok {
			return fmt.Errorf("%w: achievement %s", models.ErrNotFound, id)
		}
		out = copyAchievement(a)
		return nil
	})
	return out, err
}

func (r *achievements) GetByName(_ context.Context, name string) (*models.Achievement, error) {
	var out *models.Achievement
	err := r.b.read(func(st *state) error {
		id, ok := st.achievementsByName[name]
		if !ok {
			return fmt.Errorf("%w: achievement %q", models.ErrNotFound, name)
		}
		out = copyAchievement(st.achievements[id])
		return nil
	})
	return out, err
}

func (r *achievements) List(_ context.Context) ([]*models.Achievement, error) {
	out := make([]*models.Achievement, 0)
	err := r.b.read(func(st *state) error {
		for _, id := range st.achievementOrder {
			out = append(out, copyAchievement(st.achievements[id]))
		}
		return nil
	})
	return out, err
}

func (r *achievements) SumPoints(_ context.Context, ids []uuid.UUID) (int, error) {
	total := 0
	err := r.b.read(func(st *state) error {
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if a, ok := st.achievements[id]; ok {
				total += a.Points
			}
		}
		return nil
	})
	return total, err
}
