package trainings

import (
	"fmt"

	"github.com/google/uuid"

	"gymflow/backend/internal/domain"
)

// Kind groups error codes by how a caller can react to them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindLookup     Kind = "lookup"
	KindOccupancy  Kind = "occupancy"
	KindRoster     Kind = "roster"
)

type Code string

const (
	CodeStartAfterEnd    Code = "start_after_end"
	CodePastDate         Code = "past_date"
	CodeSameDayRequired  Code = "same_day_required"
	CodeTrainersRequired Code = "trainers_required"
	CodeLocationRequired Code = "location_required"
	CodeClientRequired   Code = "client_required"
	CodeInvalidCapacity  Code = "invalid_capacity"
	CodeInvalidStatus    Code = "invalid_status"
	CodeInvalidKind      Code = "invalid_kind"

	CodeTrainingTypeNotFound Code = "training_type_not_found"
	CodeTrainerNotFound      Code = "trainer_not_found"
	CodeLocationNotFound     Code = "location_not_found"
	CodeSessionNotFound      Code = "session_not_found"

	CodeLocationOccupied Code = "location_occupied"
	CodeTrainerOccupied  Code = "trainer_occupied"

	CodeAlreadyEnrolled       Code = "already_enrolled"
	CodeNotEnrolled           Code = "not_enrolled"
	CodeCapacityExceeded      Code = "capacity_exceeded"
	CodeSessionAlreadyStarted Code = "session_already_started"
	CodeNotGroupSession       Code = "not_group_session"
)

var codeKinds = map[Code]Kind{
	CodeStartAfterEnd:    KindValidation,
	CodePastDate:         KindValidation,
	CodeSameDayRequired:  KindValidation,
	CodeTrainersRequired: KindValidation,
	CodeLocationRequired: KindValidation,
	CodeClientRequired:   KindValidation,
	CodeInvalidCapacity:  KindValidation,
	CodeInvalidStatus:    KindValidation,
	CodeInvalidKind:      KindValidation,

	CodeTrainingTypeNotFound: KindLookup,
	CodeTrainerNotFound:      KindLookup,
	CodeLocationNotFound:     KindLookup,
	CodeSessionNotFound:      KindLookup,

	CodeLocationOccupied: KindOccupancy,
	CodeTrainerOccupied:  KindOccupancy,

	CodeAlreadyEnrolled:       KindRoster,
	CodeNotEnrolled:           KindRoster,
	CodeCapacityExceeded:      KindRoster,
	CodeSessionAlreadyStarted: KindRoster,
	CodeNotGroupSession:       KindRoster,
}

// Error is the typed failure of every scheduling and enrollment operation.
// Two errors are equal under errors.Is when their codes match, so the
// exported sentinels below can be used to test for a code.
type Error struct {
	Code Code
	msg  string

	// ResourceID names the missing or occupied resource, if any.
	ResourceID string
	// ConflictingSession and ConflictingInterval describe the session
	// holding an occupied resource.
	ConflictingSession  uuid.UUID
	ConflictingInterval domain.Interval
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return codeKinds[e.Code]
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

var (
	ErrStartAfterEnd    = newError(CodeStartAfterEnd, "end_time must be after start_time")
	ErrPastDate         = newError(CodePastDate, "start_time must not be in the past")
	ErrSameDayRequired  = newError(CodeSameDayRequired, "start_time and end_time must fall on the same day")
	ErrTrainersRequired = newError(CodeTrainersRequired, "at least one trainer is required")
	ErrLocationRequired = newError(CodeLocationRequired, "location_id is required")
	ErrClientRequired   = newError(CodeClientRequired, "client_id is required")
	ErrInvalidCapacity  = newError(CodeInvalidCapacity, "invalid capacity_limit")
	ErrInvalidStatus    = newError(CodeInvalidStatus, "invalid status")
	ErrInvalidKind      = newError(CodeInvalidKind, "invalid session kind")

	ErrTrainingTypeNotFound = newError(CodeTrainingTypeNotFound, "training type not found")
	ErrTrainerNotFound      = newError(CodeTrainerNotFound, "trainer not found")
	ErrLocationNotFound     = newError(CodeLocationNotFound, "location not found")
	ErrSessionNotFound      = newError(CodeSessionNotFound, "session not found")

	ErrLocationOccupied = newError(CodeLocationOccupied, "location is occupied")
	ErrTrainerOccupied  = newError(CodeTrainerOccupied, "trainer is occupied")

	ErrAlreadyEnrolled       = newError(CodeAlreadyEnrolled, "client is already enrolled")
	ErrNotEnrolled           = newError(CodeNotEnrolled, "client is not enrolled")
	ErrCapacityExceeded      = newError(CodeCapacityExceeded, "session is full")
	ErrSessionAlreadyStarted = newError(CodeSessionAlreadyStarted, "session has already started")
	ErrNotGroupSession       = newError(CodeNotGroupSession, "rosters exist only on group sessions")
)

func notFoundError(code Code, what, id string) error {
	return &Error{Code: code, msg: fmt.Sprintf("%s %q not found", what, id), ResourceID: id}
}

func sessionNotFound(id uuid.UUID) error {
	return notFoundError(CodeSessionNotFound, "session", id.String())
}

func occupiedError(code Code, what, resourceID string, with domain.TrainingSession) error {
	iv := with.Interval()
	return &Error{
		Code: code,
		msg: fmt.Sprintf(
			"%s %q is occupied by session %s from %s to %s",
			what, resourceID, with.ID, iv.Start.Format("2006-01-02T15:04Z07:00"), iv.End.Format("2006-01-02T15:04Z07:00"),
		),
		ResourceID:          resourceID,
		ConflictingSession:  with.ID,
		ConflictingInterval: iv,
	}
}

func capacityError(limit int) error {
	return &Error{Code: CodeCapacityExceeded, msg: fmt.Sprintf("session is full (capacity %d)", limit)}
}
