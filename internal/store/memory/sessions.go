package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/store"
)

// SessionStore keeps sessions in process memory. Writes made inside a
// resource transaction are staged and applied together when fn succeeds.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.TrainingSession

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	now func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]domain.TrainingSession),
		locks:    make(map[string]chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionStore) FindSessionByID(_ context.Context, id uuid.UUID) (domain.TrainingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.TrainingSession{}, store.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *SessionStore) ListSessions(_ context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOverlapping(s.sessions, nil, window, kind), nil
}

func (s *SessionStore) InResourceTransaction(ctx context.Context, keys []string, fn func(ctx context.Context, tx store.SessionTx) error) error {
	unlock, err := s.lockKeys(ctx, keys)
	if err != nil {
		return err
	}
	defer unlock()

	tx := &sessionTx{store: s, staged: make(map[uuid.UUID]*domain.TrainingSession)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range tx.staged {
		if sess == nil {
			delete(s.sessions, id)
			continue
		}
		s.sessions[id] = *sess
	}
	return nil
}

// lockKeys acquires one lock per distinct key in sorted order so that
// overlapping key sets cannot deadlock. Waiting stops when ctx is done, and
// locks taken so far are released.
func (s *SessionStore) lockKeys(ctx context.Context, keys []string) (func(), error) {
	sorted := slices.Clone(keys)
	sort.Strings(sorted)
	sorted = slices.Compact(sorted)

	held := make([]chan struct{}, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, k := range sorted {
		l := s.keyLock(k)
		select {
		case l <- struct{}{}:
			held = append(held, l)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

func (s *SessionStore) keyLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[key] = l
	}
	return l
}

type sessionTx struct {
	store  *SessionStore
	staged map[uuid.UUID]*domain.TrainingSession
}

func (t *sessionTx) FindSessionsOverlapping(_ context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return filterOverlapping(t.store.sessions, t.staged, window, kind), nil
}

func (t *sessionTx) FindSessionByID(_ context.Context, id uuid.UUID) (domain.TrainingSession, error) {
	if sess, ok := t.staged[id]; ok {
		if sess == nil {
			return domain.TrainingSession{}, store.ErrNotFound
		}
		return sess.Clone(), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	sess, ok := t.store.sessions[id]
	if !ok {
		return domain.TrainingSession{}, store.ErrNotFound
	}
	return sess.Clone(), nil
}

func (t *sessionTx) SaveSession(ctx context.Context, sess domain.TrainingSession) (domain.TrainingSession, error) {
	now := t.store.now()
	if sess.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.TrainingSession{}, err
		}
		sess.ID = id
	}
	if prior, err := t.FindSessionByID(ctx, sess.ID); err == nil {
		sess.CreatedAt = prior.CreatedAt
	} else if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	if sess.PrimaryRoster == nil {
		sess.PrimaryRoster = []string{}
	}
	if sess.WaitingRoster == nil {
		sess.WaitingRoster = []string{}
	}

	stored := sess.Clone()
	t.staged[sess.ID] = &stored
	return sess.Clone(), nil
}

func (t *sessionTx) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := t.FindSessionByID(ctx, id); err != nil {
		return err
	}
	t.staged[id] = nil
	return nil
}

func filterOverlapping(committed map[uuid.UUID]domain.TrainingSession, staged map[uuid.UUID]*domain.TrainingSession, window domain.Interval, kind domain.SessionKind) []domain.TrainingSession {
	out := make([]domain.TrainingSession, 0)
	match := func(sess domain.TrainingSession) bool {
		if kind != "" && sess.Kind != kind {
			return false
		}
		return sess.Interval().Overlaps(window)
	}
	for id, sess := range committed {
		if _, ok := staged[id]; ok {
			continue
		}
		if match(sess) {
			out = append(out, sess.Clone())
		}
	}
	for _, sess := range staged {
		if sess != nil && match(*sess) {
			out = append(out, sess.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
