package trainings

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/store"
)

type roster int

const (
	rosterPrimary roster = iota
	rosterWaiting
)

// EnrollPrimary appends the client to the capacity-bounded roster.
func (s *Service) EnrollPrimary(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error) {
	return s.enroll(ctx, sessionID, clientID, rosterPrimary)
}

// EnrollWaiting appends the client to the unbounded waiting roster.
func (s *Service) EnrollWaiting(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error) {
	return s.enroll(ctx, sessionID, clientID, rosterWaiting)
}

func (s *Service) enroll(ctx context.Context, sessionID uuid.UUID, clientID string, r roster) (domain.TrainingSession, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return domain.TrainingSession{}, ErrClientRequired
	}

	return s.mutateRoster(ctx, sessionID, func(sess *domain.TrainingSession) error {
		if !sess.StartTime.After(s.clock.Now()) {
			return ErrSessionAlreadyStarted
		}
		if sess.Enrolled(clientID) {
			return ErrAlreadyEnrolled
		}
		switch r {
		case rosterPrimary:
			if len(sess.PrimaryRoster) >= sess.CapacityLimit {
				return capacityError(sess.CapacityLimit)
			}
			sess.PrimaryRoster = append(sess.PrimaryRoster, clientID)
		case rosterWaiting:
			sess.WaitingRoster = append(sess.WaitingRoster, clientID)
		}
		return nil
	})
}

// Withdraw removes the client from whichever roster holds it. Nobody is
// promoted from the waiting roster.
func (s *Service) Withdraw(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return domain.TrainingSession{}, ErrClientRequired
	}

	return s.mutateRoster(ctx, sessionID, func(sess *domain.TrainingSession) error {
		if i := slices.Index(sess.PrimaryRoster, clientID); i >= 0 {
			sess.PrimaryRoster = slices.Delete(sess.PrimaryRoster, i, i+1)
			return nil
		}
		if i := slices.Index(sess.WaitingRoster, clientID); i >= 0 {
			sess.WaitingRoster = slices.Delete(sess.WaitingRoster, i, i+1)
			return nil
		}
		return ErrNotEnrolled
	})
}

// mutateRoster loads the group session under its lock, applies fn and saves
// the result. Nothing is written when fn fails.
func (s *Service) mutateRoster(ctx context.Context, sessionID uuid.UUID, fn func(sess *domain.TrainingSession) error) (domain.TrainingSession, error) {
	var out domain.TrainingSession
	err := s.repo.InResourceTransaction(ctx, []string{domain.SessionKey(sessionID)}, func(ctx context.Context, tx store.SessionTx) error {
		sess, err := tx.FindSessionByID(ctx, sessionID)
		if err != nil {
			return s.sessionLookupError(sessionID, err)
		}
		if sess.Kind != domain.SessionKindGroup {
			return ErrNotGroupSession
		}
		if err := fn(&sess); err != nil {
			return err
		}
		saved, err := tx.SaveSession(ctx, sess)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.TrainingSession{}, err
	}
	return out, nil
}
