package store

import (
	"context"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
)

// SessionTx is the view of the session store available inside a resource
// transaction. Reads observe writes made earlier in the same transaction.
type SessionTx interface {
	FindSessionsOverlapping(ctx context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error)
	SaveSession(ctx context.Context, s domain.TrainingSession) (domain.TrainingSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

type SessionRepository interface {
	FindSessionByID(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error)
	ListSessions(ctx context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error)

	// InResourceTransaction runs fn while holding exclusive locks on keys.
	// Either every write made through tx commits or none does.
	InResourceTransaction(ctx context.Context, keys []string, fn func(ctx context.Context, tx SessionTx) error) error
}
