package store

import (
	"context"

	"gymflow/backend/internal/domain"
)

// ResourceDirectory resolves the weak references a session holds. Unknown
// ids yield ErrNotFound.
type ResourceDirectory interface {
	ResolveTrainingType(ctx context.Context, id string) (domain.TrainingType, error)
	ResolveTrainer(ctx context.Context, id string) (domain.Trainer, error)
	ResolveLocation(ctx context.Context, id string) (domain.Location, error)
}
