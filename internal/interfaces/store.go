package interfaces

import "context"

// Repositories groups repositories bound to the same connection or transaction.
type Repositories struct {
	Images       ImageRecordRepository
	Nodes        StoryNodeRepository
	Choices      StoryChoiceRepository
	Progress     UserProgressRepository
	Achievements AchievementRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repos returns repositories for read paths outside a transaction.
	Repos() Repositories

	// WithinTx runs fn in one transaction: committed if fn returns nil, rolled back
	// otherwise (including on panic). fn must only use the repositories it receives.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
