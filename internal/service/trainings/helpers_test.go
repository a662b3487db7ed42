package trainings

import (
	"context"
	"sync"
	"testing"
	"time"

	"gymflow/backend/internal/directory/catalog"
	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/notify"
	"gymflow/backend/internal/store/memory"
)

var testNow = time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu      sync.Mutex
	changed []notify.Notice
	removed []notify.Notice
	err     error
}

func (n *recordingNotifier) NotifySessionChanged(ctx context.Context, notice notify.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, notice)
	return n.err
}

func (n *recordingNotifier) NotifySessionRemoved(ctx context.Context, notice notify.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, notice)
	return n.err
}

func testDirectory(t *testing.T) *catalog.Directory {
	t.Helper()
	d, err := catalog.New(catalog.File{
		TrainingTypes: []domain.TrainingType{
			{ID: "yoga", Name: "Morning Yoga"},
			{ID: "hiit", Name: "HIIT"},
		},
		Trainers: []domain.Trainer{
			{ID: "T1", FullName: "Ann", Roles: []string{domain.RoleTrainer}},
			{ID: "T2", FullName: "Bob", Roles: []string{domain.RoleTrainer}},
			{ID: "T3", FullName: "Cid", Roles: []string{domain.RoleTrainer, "manager"}},
			{ID: "R1", FullName: "Rita", Roles: []string{"receptionist"}},
		},
		Locations: []domain.Location{
			{ID: "L1", Name: "Hall A", Capacity: 20},
			{ID: "L2", Name: "Hall B", Capacity: 10},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New error: %v", err)
	}
	return d
}

type fixture struct {
	svc      *Service
	store    *memory.SessionStore
	clock    *testClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewSessionStore(),
		clock:    &testClock{now: testNow},
		notifier: &recordingNotifier{},
	}
	f.svc = NewService(f.store, testDirectory(t), WithClock(f.clock), WithNotifier(f.notifier))
	return f
}

func groupInput(location string, trainers []string, start, end time.Time, capacity int) CreateInput {
	return CreateInput{
		Kind:           domain.SessionKindGroup,
		TrainingTypeID: "yoga",
		LocationID:     location,
		TrainerIDs:     trainers,
		StartTime:      start,
		EndTime:        end,
		CapacityLimit:  capacity,
	}
}

func (f *fixture) mustCreate(t *testing.T, in CreateInput) domain.TrainingSession {
	t.Helper()
	s, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return s
}

func (f *fixture) all(t *testing.T) []domain.TrainingSession {
	t.Helper()
	out, err := f.store.ListSessions(context.Background(), domain.NewInterval(at(1, 0, 0).AddDate(0, -1, 0), at(1, 0, 0).AddDate(0, 1, 0)), "")
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
