package mocks

import (
	"context"

	"cyoa-server/internal/interfaces"
)

// Store hands the same mocked repositories to read paths and transactions.
// CommitErr, when set, is returned after fn succeeds to simulate a failed commit.
type Store struct {
	Repositories interfaces.Repositories
	CommitErr    error
	TxCount      int
}

// NewStore wires fresh repository mocks into a Store.
func NewStore() *Store {
	return &Store{Repositories: interfaces.Repositories{
		Images:       new(ImageRecordRepository),
		Nodes:        new(StoryNodeRepository),
		Choices:      new(StoryChoiceRepository),
		Progress:     new(UserProgressRepository),
		Achievements: new(AchievementRepository),
	}}
}

func (s *Store) Repos() interfaces.Repositories { return s.Repositories }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) error {
	s.TxCount++
	if err := fn(ctx, s.Repositories); err != nil {
		return err
	}
	return s.CommitErr
}

func (s *Store) Images() *ImageRecordRepository {
	return s.Repositories.Images.(*ImageRecordRepository)
}
func (s *Store) Nodes() *StoryNodeRepository { return s.Repositories.Nodes.(*StoryNodeRepository) }
func (s *Store) Choices() *StoryChoiceRepository {
	return s.Repositories.Choices.(*StoryChoiceRepository)
}
func (s *Store) Progress() *UserProgressRepository {
	return s.Repositories.Progress.(*UserProgressRepository)
}
func (s *Store) Achievements() *AchievementRepository {
	return s.Repositories.Achievements.(*AchievementRepository)
}
