package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher only records notices. Used when no queue is configured.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *LogDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &LogDispatcher{log: log.With(slog.String("component", "notify.log"))}
}

func (d *LogDispatcher) NotifySessionChanged(ctx context.Context, n Notice) error {
	d.record(ctx, EventSessionChanged, n)
	return nil
}

func (d *LogDispatcher) NotifySessionRemoved(ctx context.Context, n Notice) error {
	d.record(ctx, EventSessionRemoved, n)
	return nil
}

func (d *LogDispatcher) record(ctx context.Context, typ EventType, n Notice) {
	d.log.InfoContext(
		ctx,
		"notification",
		slog.String("type", string(typ)),
		slog.String("session_id", n.SessionID.String()),
		slog.String("training_name", n.TrainingName),
		slog.Time("start_time", n.StartTime),
		slog.Int("audience", len(n.Audience)),
		slog.Bool("send_email", n.SendEmail),
	)
}
