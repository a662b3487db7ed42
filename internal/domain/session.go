package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SessionKind string

const (
	SessionKindGroup      SessionKind = "group"
	SessionKindIndividual SessionKind = "individual"
)

func (k SessionKind) Valid() bool {
	return k == SessionKindGroup || k == SessionKindIndividual
}

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusAccepted  SessionStatus = "accepted"
	SessionStatusRejected  SessionStatus = "rejected"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// ValidFor reports whether the status can be carried by a session of kind k.
// Group sessions are always scheduled.
func (s SessionStatus) ValidFor(k SessionKind) bool {
	switch k {
	case SessionKindGroup:
		return s == SessionStatusScheduled
	case SessionKindIndividual:
		switch s {
		case SessionStatusPending, SessionStatusAccepted, SessionStatusRejected, SessionStatusCancelled:
			return true
		}
	}
	return false
}

type TrainingSession struct {
	bun.BaseModel `bun:"table:training_sessions"`

	ID             uuid.UUID     `bun:"id,pk,type:uuid"`
	Kind           SessionKind   `bun:"kind,notnull"`
	Status         SessionStatus `bun:"status,notnull"`
	TrainingTypeID string        `bun:"training_type_id,notnull"`
	LocationID     string        `bun:"location_id,notnull"`
	TrainerIDs     []string      `bun:"trainer_ids,array,notnull"`
	StartTime      time.Time     `bun:"start_time,notnull"`
	EndTime        time.Time     `bun:"end_time,notnull"`
	CapacityLimit  int           `bun:"capacity_limit,notnull"`
	ClientID       string        `bun:"client_id,nullzero"`
	PrimaryRoster  []string      `bun:"primary_roster,array,notnull"`
	WaitingRoster  []string      `bun:"waiting_roster,array,notnull"`
	CreatedAt      time.Time     `bun:"created_at,notnull"`
	UpdatedAt      time.Time     `bun:"updated_at,notnull"`
}

func (s *TrainingSession) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		if s.PrimaryRoster == nil {
			s.PrimaryRoster = []string{}
		}
		if s.WaitingRoster == nil {
			s.WaitingRoster = []string{}
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

func (s TrainingSession) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// Occupies reports whether the session holds its location and trainers.
// Rejected and cancelled individual sessions release them.
func (s TrainingSession) Occupies() bool {
	return s.Status != SessionStatusRejected && s.Status != SessionStatusCancelled
}

func (s TrainingSession) HasTrainer(id string) bool {
	return slices.Contains(s.TrainerIDs, id)
}

// SharesTrainer reports whether any trainer appears in both sessions.
func (s TrainingSession) SharesTrainer(o TrainingSession) (string, bool) {
	for _, t := range s.TrainerIDs {
		if o.HasTrainer(t) {
			return t, true
		}
	}
	return "", false
}

func (s TrainingSession) InPrimaryRoster(clientID string) bool {
	return slices.Contains(s.PrimaryRoster, clientID)
}

func (s TrainingSession) InWaitingRoster(clientID string) bool {
	return slices.Contains(s.WaitingRoster, clientID)
}

func (s TrainingSession) Enrolled(clientID string) bool {
	return s.InPrimaryRoster(clientID) || s.InWaitingRoster(clientID)
}

// Audience lists everyone affected by a change to the session: trainers,
// then the primary roster, then the waiting roster, without duplicates.
func (s TrainingSession) Audience() []string {
	n := len(s.TrainerIDs) + len(s.PrimaryRoster) + len(s.WaitingRoster) + 1
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, group := range [][]string{s.TrainerIDs, s.PrimaryRoster, s.WaitingRoster} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if s.Kind == SessionKindIndividual && s.ClientID != "" {
		if _, ok := seen[s.ClientID]; !ok {
			out = append(out, s.ClientID)
		}
	}
	return out
}

// Clone returns a copy that shares no slices with s.
func (s TrainingSession) Clone() TrainingSession {
	c := s
	c.TrainerIDs = slices.Clone(s.TrainerIDs)
	c.PrimaryRoster = slices.Clone(s.PrimaryRoster)
	c.WaitingRoster = slices.Clone(s.WaitingRoster)
	return c
}

// ResourceKeys names the lock keys of everything the session occupies.
func (s TrainingSession) ResourceKeys() []string {
	keys := make([]string, 0, len(s.TrainerIDs)+1)
	if s.LocationID != "" {
		keys = append(keys, LocationKey(s.LocationID))
	}
	for _, t := range s.TrainerIDs {
		keys = append(keys, TrainerKey(t))
	}
	return keys
}

func LocationKey(id string) string { return "location:" + id }
func TrainerKey(id string) string  { return "trainer:" + id }
func SessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

// SessionPatch holds the optional fields of a partial update. Nil fields
// keep the prior value.
type SessionPatch struct {
	StartTime      *time.Time
	EndTime        *time.Time
	LocationID     *string
	TrainerIDs     []string
	TrainingTypeID *string
	CapacityLimit  *int
	Status         *SessionStatus
}

func (p SessionPatch) Empty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.LocationID == nil && p.TrainerIDs == nil &&
		p.TrainingTypeID == nil && p.CapacityLimit == nil && p.Status == nil
}

// Apply returns a new session with the patch applied; s is left untouched.
func (p SessionPatch) Apply(s TrainingSession) TrainingSession {
	out := s.Clone()
	if p.StartTime != nil {
		out.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		out.EndTime = p.EndTime.UTC()
	}
	if p.LocationID != nil {
		out.LocationID = *p.LocationID
	}
	if p.TrainerIDs != nil {
		out.TrainerIDs = slices.Clone(p.TrainerIDs)
	}
	if p.TrainingTypeID != nil {
		out.TrainingTypeID = *p.TrainingTypeID
	}
	if p.CapacityLimit != nil {
		out.CapacityLimit = *p.CapacityLimit
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return out
}
