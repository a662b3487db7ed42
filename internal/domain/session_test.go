package domain

import (
	"slices"
	"testing"

	"github.com/google/uuid"
)

func groupSession() TrainingSession {
	return TrainingSession{
		ID:             uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057"),
		Kind:           SessionKindGroup,
		Status:         SessionStatusScheduled,
		TrainingTypeID: "yoga",
		LocationID:     "L1",
		TrainerIDs:     []string{"T1", "T2"},
		StartTime:      ts(10, 0),
		EndTime:        ts(11, 0),
		CapacityLimit:  2,
		PrimaryRoster:  []string{"c1"},
		WaitingRoster:  []string{"c2"},
	}
}

func TestSessionPatchApply_LeavesOriginalUntouched(t *testing.T) {
	s := groupSession()
	loc := "L2"
	end := ts(10, 30)
	patch := SessionPatch{EndTime: &end, LocationID: &loc, TrainerIDs: []string{"T3"}}

	got := patch.Apply(s)
	if got.LocationID != "L2" || !got.EndTime.Equal(end) || !slices.Equal(got.TrainerIDs, []string{"T3"}) {
		t.Fatalf("patched = %+v", got)
	}
	if !got.StartTime.Equal(s.StartTime) || got.CapacityLimit != 2 || got.TrainingTypeID != "yoga" {
		t.Fatalf("absent fields changed: %+v", got)
	}
	if s.LocationID != "L1" || !slices.Equal(s.TrainerIDs, []string{"T1", "T2"}) {
		t.Fatalf("original mutated: %+v", s)
	}

	got.PrimaryRoster[0] = "other"
	if s.PrimaryRoster[0] != "c1" {
		t.Fatalf("patched session shares roster with original")
	}
}

func TestSessionPatchEmpty(t *testing.T) {
	if !(SessionPatch{}).Empty() {
		t.Fatalf("zero patch must be empty")
	}
	if (SessionPatch{TrainerIDs: []string{}}).Empty() {
		t.Fatalf("explicit empty trainer set is a change")
	}
}

func TestSessionOccupies(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   bool
	}{
		{SessionStatusScheduled, true},
		{SessionStatusPending, true},
		{SessionStatusAccepted, true},
		{SessionStatusRejected, false},
		{SessionStatusCancelled, false},
	}
	for _, tt := range tests {
		s := TrainingSession{Status: tt.status}
		if got := s.Occupies(); got != tt.want {
			t.Fatalf("Occupies(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSessionStatusValidFor(t *testing.T) {
	if !SessionStatusScheduled.ValidFor(SessionKindGroup) || SessionStatusPending.ValidFor(SessionKindGroup) {
		t.Fatalf("group sessions only carry the scheduled status")
	}
	if SessionStatusScheduled.ValidFor(SessionKindIndividual) || !SessionStatusRejected.ValidFor(SessionKindIndividual) {
		t.Fatalf("individual status mismatch")
	}
	if SessionStatusScheduled.ValidFor("workshop") {
		t.Fatalf("unknown kind accepted")
	}
}

func TestSessionAudience(t *testing.T) {
	s := groupSession()
	s.WaitingRoster = append(s.WaitingRoster, "c1", "T1")
	if got := s.Audience(); !slices.Equal(got, []string{"T1", "T2", "c1", "c2"}) {
		t.Fatalf("audience = %v", got)
	}

	ind := TrainingSession{Kind: SessionKindIndividual, TrainerIDs: []string{"T1"}, ClientID: "c9"}
	if got := ind.Audience(); !slices.Equal(got, []string{"T1", "c9"}) {
		t.Fatalf("individual audience = %v", got)
	}
}

func TestSessionResourceKeys(t *testing.T) {
	s := groupSession()
	want := []string{"location:L1", "trainer:T1", "trainer:T2"}
	if got := s.ResourceKeys(); !slices.Equal(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if got := SessionKey(s.ID); got != "session:01890a5d-ac96-774b-bcce-b302099a8057" {
		t.Fatalf("session key = %q", got)
	}
	if id, ok := s.SharesTrainer(TrainingSession{TrainerIDs: []string{"T9", "T2"}}); !ok || id != "T2" {
		t.Fatalf("SharesTrainer = (%q, %v)", id, ok)
	}
}
