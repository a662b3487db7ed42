package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultQueue = "notifications:trainings"

type RedisConfig struct {
	RedisClient *redis.Client
	// Queue is the list key consumers pop from. Defaults to DefaultQueue.
	Queue string
	Now   func() time.Time
}

// RedisDispatcher pushes notices onto a Redis list for the delivery workers.
type RedisDispatcher struct {
	client *redis.Client
	queue  string
	now    func() time.Time
}

// Envelope is the JSON document stored in the queue.
type Envelope struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"session_id"`
	TrainingName string    `json:"training_name"`
	StartTime    time.Time `json:"start_time"`
	Audience     []string  `json:"audience"`
	SendEmail    bool      `json:"send_email"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

func NewRedis(cfg *RedisConfig) (*RedisDispatcher, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RedisDispatcher{client: cfg.RedisClient, queue: queue, now: now}, nil
}

func (d *RedisDispatcher) NotifySessionChanged(ctx context.Context, n Notice) error {
	return d.push(ctx, EventSessionChanged, n)
}

func (d *RedisDispatcher) NotifySessionRemoved(ctx context.Context, n Notice) error {
	return d.push(ctx, EventSessionRemoved, n)
}

func (d *RedisDispatcher) push(ctx context.Context, typ EventType, n Notice) error {
	if len(n.Audience) == 0 {
		return nil
	}
	payload, err := json.Marshal(Envelope{
		Type:         typ,
		SessionID:    n.SessionID.String(),
		TrainingName: n.TrainingName,
		StartTime:    n.StartTime.UTC(),
		Audience:     n.Audience,
		SendEmail:    n.SendEmail,
		EnqueuedAt:   d.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notice: %w", err)
	}
	return nil
}
