package trainings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymflow/backend/internal/common/clock"
	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/notify"
	"gymflow/backend/internal/store"
)

// maxLockAttempts bounds how often an update retries when the resources it
// locked no longer match the session it reads inside the transaction.
const maxLockAttempts = 3

var errResourcesMoved = errors.New("session resources changed before lock")

// ErrConcurrentUpdate is returned when an update kept racing with other
// writers to the same session. Retrying the request is safe.
var ErrConcurrentUpdate = errors.New("session was modified concurrently")

type Service struct {
	repo      store.SessionRepository
	dir       store.ResourceDirectory
	notifier  notify.Dispatcher
	clock     clock.Clock
	loc       *time.Location
	log       *slog.Logger
	validator CollisionValidator
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithNotifier(d notify.Dispatcher) Option {
	return func(s *Service) { s.notifier = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func NewService(repo store.SessionRepository, dir store.ResourceDirectory, opts ...Option) *Service {
	s := &Service{repo: repo, dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = &clock.DefaultClock{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLog(s.log)
	}
	s.log = s.log.With(slog.String("component", "service.trainings"))
	s.validator = NewCollisionValidator(s.loc)
	return s
}

type CreateInput struct {
	Kind           domain.SessionKind
	TrainingTypeID string
	LocationID     string
	TrainerIDs     []string
	StartTime      time.Time
	EndTime        time.Time
	CapacityLimit  int
	// ClientID and Status apply to individual sessions only.
	ClientID string
	Status   domain.SessionStatus
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.TrainingSession, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.SessionKindGroup
	}
	if !kind.Valid() {
		return domain.TrainingSession{}, ErrInvalidKind
	}

	candidate := domain.TrainingSession{
		Kind:           kind,
		TrainingTypeID: strings.TrimSpace(in.TrainingTypeID),
		LocationID:     strings.TrimSpace(in.LocationID),
		TrainerIDs:     normalizeIDs(in.TrainerIDs),
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		PrimaryRoster:  []string{},
		WaitingRoster:  []string{},
	}
	switch kind {
	case domain.SessionKindGroup:
		candidate.Status = domain.SessionStatusScheduled
		candidate.CapacityLimit = in.CapacityLimit
	case domain.SessionKindIndividual:
		candidate.ClientID = strings.TrimSpace(in.ClientID)
		candidate.Status = in.Status
		if candidate.Status == "" {
			candidate.Status = domain.SessionStatusPending
		}
	}

	if err := s.resolveReferences(ctx, candidate, referenceSet{trainingType: true, location: true, trainers: true}); err != nil {
		return domain.TrainingSession{}, err
	}
	if err := s.validate(candidate); err != nil {
		return domain.TrainingSession{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.TrainingSession{}, err
	}
	candidate.ID = id

	var out domain.TrainingSession
	err = s.repo.InResourceTransaction(ctx, candidate.ResourceKeys(), func(ctx context.Context, tx store.SessionTx) error {
		conflicts, err := s.validator.FindConflicts(ctx, tx, candidate, uuid.Nil)
		if err != nil {
			return fmt.Errorf("find conflicts: %w", err)
		}
		if err := conflicts.Err(candidate); err != nil {
			return err
		}
		saved, err := tx.SaveSession(ctx, candidate)
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

type UpdateInput struct {
	ID    uuid.UUID
	Patch domain.SessionPatch
	// SendEmail asks the dispatcher to e-mail the audience in addition to
	// in-app notices.
	SendEmail bool
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.TrainingSession, error) {
	patch := in.Patch
	if patch.TrainerIDs != nil {
		patch.TrainerIDs = normalizeIDs(patch.TrainerIDs)
	}
	if patch.LocationID != nil {
		v := strings.TrimSpace(*patch.LocationID)
		patch.LocationID = &v
	}
	if patch.TrainingTypeID != nil {
		v := strings.TrimSpace(*patch.TrainingTypeID)
		patch.TrainingTypeID = &v
	}

	existing, err := s.repo.FindSessionByID(ctx, in.ID)
	if err != nil {
		return domain.TrainingSession{}, s.sessionLookupError(in.ID, err)
	}

	var out domain.TrainingSession
	for attempt := 0; ; attempt++ {
		out, err = s.update(ctx, existing, patch)
		if !errors.Is(err, errResourcesMoved) || attempt+1 >= maxLockAttempts {
			break
		}
		existing, err = s.repo.FindSessionByID(ctx, in.ID)
		if err != nil {
			return domain.TrainingSession{}, s.sessionLookupError(in.ID, err)
		}
	}
	if errors.Is(err, errResourcesMoved) {
		return domain.TrainingSession{}, fmt.Errorf("update session %s after %d attempts: %w", in.ID, maxLockAttempts, ErrConcurrentUpdate)
	}
	if err != nil {
		return domain.TrainingSession{}, err
	}

	if out.StartTime.After(s.clock.Now()) {
		s.dispatch(ctx, notify.EventSessionChanged, out, in.SendEmail)
	}
	return out, nil
}

// update validates the patched copy of existing, then re-reads the session
// under lock and commits. The locked keys are derived from existing; if the
// stored session moved to other resources meanwhile, errResourcesMoved asks
// the caller to retry with fresh data.
func (s *Service) update(ctx context.Context, existing domain.TrainingSession, patch domain.SessionPatch) (domain.TrainingSession, error) {
	working := patch.Apply(existing)
	if err := s.resolveReferences(ctx, working, referencesIn(patch)); err != nil {
		return domain.TrainingSession{}, err
	}
	if err := s.validate(working); err != nil {
		return domain.TrainingSession{}, err
	}

	keys := lockKeys(working, existing.ID)
	var out domain.TrainingSession
	err := s.repo.InResourceTransaction(ctx, keys, func(ctx context.Context, tx store.SessionTx) error {
		current, err := tx.FindSessionByID(ctx, existing.ID)
		if err != nil {
			return s.sessionLookupError(existing.ID, err)
		}
		locked := patch.Apply(current)
		if !slices.Equal(lockKeys(locked, existing.ID), keys) {
			return errResourcesMoved
		}
		if err := s.validate(locked); err != nil {
			return err
		}

		conflicts, err := s.validator.FindConflicts(ctx, tx, locked, existing.ID)
		if err != nil {
			return fmt.Errorf("find conflicts: %w", err)
		}
		if err := conflicts.Err(locked); err != nil {
			return err
		}
		saved, err := tx.SaveSession(ctx, locked)
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

type RemoveInput struct {
	ID        uuid.UUID
	SendEmail bool
}

// Remove deletes the session and returns its last known state.
func (s *Service) Remove(ctx context.Context, in RemoveInput) (domain.TrainingSession, error) {
	var removed domain.TrainingSession
	err := s.repo.InResourceTransaction(ctx, []string{domain.SessionKey(in.ID)}, func(ctx context.Context, tx store.SessionTx) error {
		current, err := tx.FindSessionByID(ctx, in.ID)
		if err != nil {
			return s.sessionLookupError(in.ID, err)
		}
		if err := tx.DeleteSession(ctx, in.ID); err != nil {
			return s.sessionLookupError(in.ID, err)
		}
		removed = current
		return nil
	})
	if err != nil {
		return domain.TrainingSession{}, err
	}

	if removed.StartTime.After(s.clock.Now()) {
		s.dispatch(ctx, notify.EventSessionRemoved, removed, in.SendEmail)
	}
	return removed, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return domain.TrainingSession{}, s.sessionLookupError(id, err)
	}
	return sess, nil
}

type ListInput struct {
	WindowStart time.Time
	WindowEnd   time.Time
	// Kind filters by session kind; empty lists both.
	Kind domain.SessionKind
}

func (s *Service) List(ctx context.Context, in ListInput) ([]domain.TrainingSession, error) {
	window := domain.NewInterval(in.WindowStart, in.WindowEnd)
	if !window.Valid() {
		return nil, ErrStartAfterEnd
	}
	if in.Kind != "" && !in.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.repo.ListSessions(ctx, window, in.Kind)
}

// validate checks the temporal and roster rules a persisted session must
// satisfy. References are resolved separately.
func (s *Service) validate(sess domain.TrainingSession) error {
	if sess.LocationID == "" {
		return ErrLocationRequired
	}
	if len(sess.TrainerIDs) == 0 {
		return ErrTrainersRequired
	}

	iv := sess.Interval()
	if !iv.Valid() {
		return ErrStartAfterEnd
	}
	if iv.Start.Before(s.clock.Now()) {
		return ErrPastDate
	}
	if !iv.SameDay(s.loc) {
		return ErrSameDayRequired
	}

	if !sess.Status.ValidFor(sess.Kind) {
		return ErrInvalidStatus
	}
	if sess.CapacityLimit < 0 {
		return ErrInvalidCapacity
	}
	switch sess.Kind {
	case domain.SessionKindGroup:
		if len(sess.PrimaryRoster) > sess.CapacityLimit {
			return &Error{
				Code: CodeInvalidCapacity,
				msg:  fmt.Sprintf("capacity_limit %d is below the %d enrolled clients", sess.CapacityLimit, len(sess.PrimaryRoster)),
			}
		}
	case domain.SessionKindIndividual:
		if sess.ClientID == "" {
			return ErrClientRequired
		}
	}
	return nil
}

type referenceSet struct {
	trainingType bool
	location     bool
	trainers     bool
}

func referencesIn(p domain.SessionPatch) referenceSet {
	return referenceSet{
		trainingType: p.TrainingTypeID != nil,
		location:     p.LocationID != nil,
		trainers:     p.TrainerIDs != nil,
	}
}

// resolveReferences checks the selected references against the directory.
// Empty ids are left to validate.
func (s *Service) resolveReferences(ctx context.Context, sess domain.TrainingSession, refs referenceSet) error {
	if refs.trainingType {
		if _, err := s.dir.ResolveTrainingType(ctx, sess.TrainingTypeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFoundError(CodeTrainingTypeNotFound, "training type", sess.TrainingTypeID)
			}
			return fmt.Errorf("resolve training type: %w", err)
		}
	}
	if refs.trainers {
		for _, id := range sess.TrainerIDs {
			t, err := s.dir.ResolveTrainer(ctx, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("resolve trainer: %w", err)
			}
			if err != nil || !t.IsTrainer() {
				return notFoundError(CodeTrainerNotFound, "trainer", id)
			}
		}
	}
	if refs.location && sess.LocationID != "" {
		if _, err := s.dir.ResolveLocation(ctx, sess.LocationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFoundError(CodeLocationNotFound, "location", sess.LocationID)
			}
			return fmt.Errorf("resolve location: %w", err)
		}
	}
	return nil
}

func (s *Service) sessionLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return sessionNotFound(id)
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return fmt.Errorf("load session: %w", err)
}

// dispatch hands the notice to the dispatcher. Failures are logged and
// never reach the caller.
func (s *Service) dispatch(ctx context.Context, typ notify.EventType, sess domain.TrainingSession, sendEmail bool) {
	n := notify.Notice{
		SessionID:    sess.ID,
		TrainingName: s.trainingName(ctx, sess),
		StartTime:    sess.StartTime,
		Audience:     sess.Audience(),
		SendEmail:    sendEmail,
	}

	var err error
	switch typ {
	case notify.EventSessionChanged:
		err = s.notifier.NotifySessionChanged(ctx, n)
	case notify.EventSessionRemoved:
		err = s.notifier.NotifySessionRemoved(ctx, n)
	}
	if err != nil {
		s.log.Warn(
			"notification dispatch failed",
			slog.Any("err", err),
			slog.String("type", string(typ)),
			slog.String("session_id", sess.ID.String()),
		)
	}
}

func (s *Service) trainingName(ctx context.Context, sess domain.TrainingSession) string {
	tt, err := s.dir.ResolveTrainingType(ctx, sess.TrainingTypeID)
	if err != nil || tt.Name == "" {
		return sess.TrainingTypeID
	}
	return tt.Name
}

func lockKeys(sess domain.TrainingSession, id uuid.UUID) []string {
	keys := append(sess.ResourceKeys(), domain.SessionKey(id))
	slices.Sort(keys)
	return slices.Compact(keys)
}

// normalizeIDs trims ids and drops blanks and repeats, keeping first-seen order.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
