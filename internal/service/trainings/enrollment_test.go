package trainings

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
)

func TestEnrollPrimary_CapacityThenWaitingRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t, groupInput("L1", []string{"T1"}, at(1, 10, 0), at(1, 11, 0), 2))

	for _, c := range []string{"c1", "c2"} {
		if _, err := f.svc.EnrollPrimary(ctx, s.ID, c); err != nil {
			t.Fatalf("EnrollPrimary(%s) error: %v", c, err)
		}
	}

	_, err := f.svc.EnrollPrimary(ctx, s.ID, "c3")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("error = %v, want %v", err, ErrCapacityExceeded)
	}
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind() != KindRoster {
		t.Fatalf("error kind mismatch: %v", err)
	}

	got, err := f.svc.EnrollWaiting(ctx, s.ID, "c3")
	if err != nil {
		t.Fatalf("EnrollWaiting error: %v", err)
	}
	if !slices.Equal(got.PrimaryRoster, []string{"c1", "c2"}) {
		t.Fatalf("primary = %v", got.PrimaryRoster)
	}
	if !slices.Equal(got.WaitingRoster, []string{"c3"}) {
		t.Fatalf("waiting = %v", got.WaitingRoster)
	}
}

func TestEnrollPrimary_NeverExceedsCapacity(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 7} {
		f := newFixture(t)
		ctx := context.Background()
		s := f.mustCreate(t, groupInput("L1", []string{"T1"}, at(1, 10, 0), at(1, 11, 0), limit))

		accepted := 0
		for i := 0; i < limit+3; i++ {
			client := "c" + string(rune('a'+i))
			got, err := f.svc.EnrollPrimary(ctx, s.ID, client)
			switch {
			case err == nil:
				accepted++
				if len(got.PrimaryRoster) > limit {
					t.Fatalf("limit %d: primary roster grew to %d", limit, len(got.PrimaryRoster))
				}
			case errors.Is(err, ErrCapacityExceeded):
			default:
				t.Fatalf("limit %d: unexpected error %v", limit, err)
			}
		}
		if accepted != limit {
			t.Fatalf("limit %d: accepted %d", limit, accepted)
		}
	}
}

func TestEnroll_AlreadyEnrolledInEitherRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t, groupInput("L1", []string{"T1"}, at(1, 10, 0), at(1, 11, 0), 5))

	if _, err := f.svc.EnrollPrimary(ctx, s.ID, "c1"); err != nil {
		t.Fatalf("EnrollPrimary error: %v", err)
	}
	if _, err := f.svc.EnrollWaiting(ctx, s.ID, "c2"); err != nil {
		t.Fatalf("EnrollWaiting error: %v", err)
	}

	cases := []struct {
		name   string
		enroll func(context.Context, uuid.UUID, string) (domain.TrainingSession, error)
		client string
	}{
		{name: "primary twice", enroll: f.svc.EnrollPrimary, client: "c1"},
		{name: "primary then waiting", enroll: f.svc.EnrollWaiting, client: "c1"},
		{name: "waiting twice", enroll: f.svc.EnrollWaiting, client: "c2"},
		{name: "waiting then primary", enroll: f.svc.EnrollPrimary, client: "c2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.enroll(ctx, s.ID, tc.client); !errors.Is(err, ErrAlreadyEnrolled) {
				t.Fatalf("error = %v, want %v", err, ErrAlreadyEnrolled)
			}
		})
	}

	got, err := f.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(got.PrimaryRoster) != 1 || len(got.WaitingRoster) != 1 {
		t.Fatalf("rosters = %v / %v", got.PrimaryRoster, got.WaitingRoster)
	}
}

func TestWithdraw_SecondCallIsNotEnrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t, groupInput("L1", []string{"T1"}, at(1, 10, 0), at(1, 11, 0), 1))

	if _, err := f.svc.EnrollPrimary(ctx, s.ID, "c1"); err != nil {
		t.Fatalf("EnrollPrimary error: %v", err)
	}
	if _, err := f.svc.EnrollWaiting(ctx, s.ID, "c2"); err != nil {
		t.Fatalf("EnrollWaiting error: %v", err)
	}

	got, err := f.svc.Withdraw(ctx, s.ID, "c1")
	if err != nil {
		t.Fatalf("Withdraw error: %v", err)
	}
	if len(got.PrimaryRoster) != 0 {
		t.Fatalf("primary = %v, want empty", got.PrimaryRoster)
	}
	if !slices.Equal(got.WaitingRoster, []string{"c2"}) {
		t.Fatalf("waiting = %v, want [c2] with no promotion", got.WaitingRoster)
	}

	if _, err := f.svc.Withdraw(ctx, s.ID, "c1"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("error = %v, want %v", err, ErrNotEnrolled)
	}
	after, err := f.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(after.PrimaryRoster) != 0 || !slices.Equal(after.WaitingRoster, []string{"c2"}) {
		t.Fatalf("failed withdraw changed rosters: %v / %v", after.PrimaryRoster, after.WaitingRoster)
	}

	if _, err := f.svc.Withdraw(ctx, s.ID, "c2"); err != nil {
		t.Fatalf("Withdraw from waiting error: %v", err)
	}
}

func TestEnroll_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := f.mustCreate(t, groupInput("L1", []string{"T1"}, at(1, 10, 0), at(1, 11, 0), 5))
	individual, err := f.svc.Create(ctx, CreateInput{
		Kind:           domain.SessionKindIndividual,
		TrainingTypeID: "hiit",
		LocationID:     "L2",
		TrainerIDs:     []string{"T2"},
		StartTime:      at(1, 10, 0),
		EndTime:        at(1, 11, 0),
		ClientID:       "c9",
	})
	if err != nil {
		t.Fatalf("Create individual error: %v", err)
	}

	tests := []struct {
		name   string
		id     uuid.UUID
		client string
		want   error
	}{
		{name: "blank client", id: group.ID, client: "  ", want: ErrClientRequired},
		{name: "unknown session", id: uuid.MustParse("00000000-0000-0000-0000-000000000042"), client: "c1", want: ErrSessionNotFound},
		{name: "individual session", id: individual.ID, client: "c1", want: ErrNotGroupSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.EnrollPrimary(ctx, tt.id, tt.client); !errors.Is(err, tt.want) {
				t.Fatalf("EnrollPrimary error = %v, want %v", err, tt.want)
			}
			if _, err := f.svc.EnrollWaiting(ctx, tt.id, tt.client); !errors.Is(err, tt.want) {
				t.Fatalf("EnrollWaiting error = %v, want %v", err, tt.want)
			}
		})
	}

	f.clock.Set(at(1, 10, 0))
	if _, err := f.svc.EnrollPrimary(ctx, group.ID, "c1"); !errors.Is(err, ErrSessionAlreadyStarted) {
		t.Fatalf("error = %v, want %v", err, ErrSessionAlreadyStarted)
	}
	if _, err := f.svc.EnrollWaiting(ctx, group.ID, "c1"); !errors.Is(err, ErrSessionAlreadyStarted) {
		t.Fatalf("error = %v, want %v", err, ErrSessionAlreadyStarted)
	}
}
