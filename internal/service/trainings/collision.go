package trainings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
)

// Conflicts reports which resources of a candidate are already taken. The
// two kinds are detected independently.
type Conflicts struct {
	Location     bool
	LocationWith domain.TrainingSession

	Trainer     bool
	TrainerID   string
	TrainerWith domain.TrainingSession
}

func (c Conflicts) Any() bool {
	return c.Location || c.Trainer
}

// Err turns the flags into an occupancy error. Location wins when both are set.
func (c Conflicts) Err(candidate domain.TrainingSession) error {
	if c.Location {
		return occupiedError(CodeLocationOccupied, "location", candidate.LocationID, c.LocationWith)
	}
	if c.Trainer {
		return occupiedError(CodeTrainerOccupied, "trainer", c.TrainerID, c.TrainerWith)
	}
	return nil
}

type overlapFinder interface {
	FindSessionsOverlapping(ctx context.Context, window domain.Interval, kind domain.SessionKind) ([]domain.TrainingSession, error)
}

var conflictKinds = []domain.SessionKind{domain.SessionKindGroup, domain.SessionKindIndividual}

// CollisionValidator checks a candidate session against every other active
// session sharing its location or a trainer.
type CollisionValidator struct {
	loc *time.Location
}

func NewCollisionValidator(loc *time.Location) CollisionValidator {
	if loc == nil {
		loc = time.UTC
	}
	return CollisionValidator{loc: loc}
}

// FindConflicts queries the candidate's calendar day for both session kinds.
// The session with id exclude, normally the one being updated, is ignored.
// A non-nil error only ever comes from the finder.
func (v CollisionValidator) FindConflicts(ctx context.Context, finder overlapFinder, candidate domain.TrainingSession, exclude uuid.UUID) (Conflicts, error) {
	var out Conflicts
	if !candidate.Occupies() {
		return out, nil
	}

	window := candidate.Interval().DayWindow(v.loc)
	for _, kind := range conflictKinds {
		sessions, err := finder.FindSessionsOverlapping(ctx, window, kind)
		if err != nil {
			return Conflicts{}, err
		}
		out = scanConflicts(out, candidate, sessions, exclude)
		if out.Location && out.Trainer {
			break
		}
	}
	return out, nil
}

// DetectConflicts applies the same rules as FindConflicts to an in-memory set.
func DetectConflicts(candidate domain.TrainingSession, existing []domain.TrainingSession, exclude uuid.UUID) Conflicts {
	if !candidate.Occupies() {
		return Conflicts{}
	}
	return scanConflicts(Conflicts{}, candidate, existing, exclude)
}

func scanConflicts(out Conflicts, candidate domain.TrainingSession, sessions []domain.TrainingSession, exclude uuid.UUID) Conflicts {
	iv := candidate.Interval()
	for _, s := range sessions {
		if exclude != uuid.Nil && s.ID == exclude {
			continue
		}
		if !s.Occupies() || !s.Interval().Overlaps(iv) {
			continue
		}
		if !out.Location && s.LocationID == candidate.LocationID {
			out.Location = true
			out.LocationWith = s
		}
		if !out.Trainer {
			if id, ok := candidate.SharesTrainer(s); ok {
				out.Trainer = true
				out.TrainerID = id
				out.TrainerWith = s
			}
		}
		if out.Location && out.Trainer {
			return out
		}
	}
	return out
}
