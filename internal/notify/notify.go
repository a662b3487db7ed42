// Package notify hands schedule changes to whatever delivers them to
// trainers and clients. Delivery itself happens elsewhere.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSessionChanged EventType = "session_changed"
	EventSessionRemoved EventType = "session_removed"
)

type Notice struct {
	SessionID    uuid.UUID
	TrainingName string
	StartTime    time.Time
	Audience     []string
	SendEmail    bool
}

type Dispatcher interface {
	NotifySessionChanged(ctx context.Context, n Notice) error
	NotifySessionRemoved(ctx context.Context, n Notice) error
}
