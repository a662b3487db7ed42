package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/service/trainings"
	"gymflow/backend/internal/store"
)

type TrainingsServer struct {
	svc trainingsService
	log *slog.Logger
}

var _ TrainingsServiceServer = (*TrainingsServer)(nil)

type trainingsService interface {
	Create(ctx context.Context, in trainings.CreateInput) (domain.TrainingSession, error)
	Update(ctx context.Context, in trainings.UpdateInput) (domain.TrainingSession, error)
	Remove(ctx context.Context, in trainings.RemoveInput) (domain.TrainingSession, error)
	Get(ctx context.Context, id uuid.UUID) (domain.TrainingSession, error)
	List(ctx context.Context, in trainings.ListInput) ([]domain.TrainingSession, error)
	EnrollPrimary(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error)
	EnrollWaiting(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error)
	Withdraw(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error)
}

func NewTrainingsServer(svc trainingsService, log *slog.Logger) *TrainingsServer {
	if log == nil {
		log = slog.Default()
	}
	return &TrainingsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.trainings")),
	}
}

func (s *TrainingsServer) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateSession"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		log.Warn("invalid request", slog.String("reason", "missing_times"), slog.String("location_id", req.LocationId))
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	sess, err := s.svc.Create(ctx, trainings.CreateInput{
		Kind:           domain.SessionKind(req.Kind),
		TrainingTypeID: req.TrainingTypeId,
		LocationID:     req.LocationId,
		TrainerIDs:     req.TrainerIds,
		StartTime:      req.StartTime.AsTime(),
		EndTime:        req.EndTime.AsTime(),
		CapacityLimit:  int(req.CapacityLimit),
		ClientID:       req.ClientId,
		Status:         domain.SessionStatus(req.Status),
	})
	if err != nil {
		return nil, statusFromError(log, "session create", err,
			slog.String("location_id", req.LocationId),
			slog.Time("start_time", req.StartTime.AsTime()),
			slog.Time("end_time", req.EndTime.AsTime()),
		)
	}

	log.Info(
		"session created",
		slog.String("session_id", sess.ID.String()),
		slog.String("kind", string(sess.Kind)),
		slog.String("location_id", sess.LocationID),
		slog.Time("start_time", sess.StartTime),
		slog.Time("end_time", sess.EndTime),
	)

	return &CreateSessionResponse{Session: toWireSession(sess)}, nil
}

func (s *TrainingsServer) UpdateSession(ctx context.Context, req *UpdateSessionRequest) (*UpdateSessionResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateSession"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseSessionID(log, req.SessionId)
	if err != nil {
		return nil, err
	}

	patch := domain.SessionPatch{
		LocationID:     req.LocationId,
		TrainerIDs:     req.TrainerIds,
		TrainingTypeID: req.TrainingTypeId,
	}
	if req.StartTime != nil {
		t := req.StartTime.AsTime()
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t := req.EndTime.AsTime()
		patch.EndTime = &t
	}
	if req.CapacityLimit != nil {
		c := int(*req.CapacityLimit)
		patch.CapacityLimit = &c
	}
	if req.Status != nil {
		st := domain.SessionStatus(*req.Status)
		patch.Status = &st
	}

	sess, err := s.svc.Update(ctx, trainings.UpdateInput{ID: id, Patch: patch, SendEmail: req.SendEmail})
	if err != nil {
		return nil, statusFromError(log, "session update", err, slog.String("session_id", id.String()))
	}

	log.Info(
		"session updated",
		slog.String("session_id", sess.ID.String()),
		slog.Time("start_time", sess.StartTime),
		slog.Time("end_time", sess.EndTime),
		slog.Bool("send_email", req.SendEmail),
	)

	return &UpdateSessionResponse{Session: toWireSession(sess)}, nil
}

func (s *TrainingsServer) RemoveSession(ctx context.Context, req *RemoveSessionRequest) (*RemoveSessionResponse, error) {
	log := s.log.With(slog.String("rpc", "RemoveSession"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseSessionID(log, req.SessionId)
	if err != nil {
		return nil, err
	}

	sess, err := s.svc.Remove(ctx, trainings.RemoveInput{ID: id, SendEmail: req.SendEmail})
	if err != nil {
		return nil, statusFromError(log, "session remove", err, slog.String("session_id", id.String()))
	}

	log.Info("session removed", slog.String("session_id", id.String()), slog.Bool("send_email", req.SendEmail))
	return &RemoveSessionResponse{Session: toWireSession(sess)}, nil
}

func (s *TrainingsServer) GetSession(ctx context.Context, req *GetSessionRequest) (*GetSessionResponse, error) {
	log := s.log.With(slog.String("rpc", "GetSession"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseSessionID(log, req.SessionId)
	if err != nil {
		return nil, err
	}

	sess, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, statusFromError(log, "session get", err, slog.String("session_id", id.String()))
	}
	return &GetSessionResponse{Session: toWireSession(sess)}, nil
}

func (s *TrainingsServer) ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListSessions"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		log.Warn("invalid request", slog.String("reason", "missing_window"))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	sessions, err := s.svc.List(ctx, trainings.ListInput{
		WindowStart: req.WindowStart.AsTime(),
		WindowEnd:   req.WindowEnd.AsTime(),
		Kind:        domain.SessionKind(req.Kind),
	})
	if err != nil {
		return nil, statusFromError(log, "sessions list", err)
	}

	out := make([]*Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toWireSession(sess))
	}

	log.Debug(
		"sessions listed",
		slog.Int("count", len(out)),
		slog.String("kind", req.Kind),
		slog.Time("window_start", req.WindowStart.AsTime()),
		slog.Time("window_end", req.WindowEnd.AsTime()),
	)

	return &ListSessionsResponse{Sessions: out}, nil
}

func (s *TrainingsServer) EnrollPrimary(ctx context.Context, req *RosterRequest) (*RosterResponse, error) {
	return s.roster(ctx, "EnrollPrimary", "client enrolled", req, s.svc.EnrollPrimary)
}

func (s *TrainingsServer) EnrollWaiting(ctx context.Context, req *RosterRequest) (*RosterResponse, error) {
	return s.roster(ctx, "EnrollWaiting", "client added to waiting roster", req, s.svc.EnrollWaiting)
}

func (s *TrainingsServer) Withdraw(ctx context.Context, req *RosterRequest) (*RosterResponse, error) {
	return s.roster(ctx, "Withdraw", "client withdrawn", req, s.svc.Withdraw)
}

func (s *TrainingsServer) roster(
	ctx context.Context,
	rpc, done string,
	req *RosterRequest,
	call func(ctx context.Context, sessionID uuid.UUID, clientID string) (domain.TrainingSession, error),
) (*RosterResponse, error) {
	log := s.log.With(slog.String("rpc", rpc))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseSessionID(log, req.SessionId)
	if err != nil {
		return nil, err
	}

	sess, err := call(ctx, id, req.ClientId)
	if err != nil {
		return nil, statusFromError(log, "roster change", err,
			slog.String("session_id", id.String()),
			slog.String("client_id", req.ClientId),
		)
	}

	log.Info(
		done,
		slog.String("session_id", id.String()),
		slog.String("client_id", req.ClientId),
		slog.Int("primary", len(sess.PrimaryRoster)),
		slog.Int("waiting", len(sess.WaitingRoster)),
	)
	return &RosterResponse{Session: toWireSession(sess)}, nil
}

func parseSessionID(log *slog.Logger, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return uuid.Nil, status.Error(codes.InvalidArgument, "session_id must be a UUID")
	}
	return id, nil
}

// statusFromError maps service failures onto gRPC codes and logs them at a
// level matching who is at fault.
func statusFromError(log *slog.Logger, op string, err error, attrs ...any) error {
	var tErr *trainings.Error
	if errors.As(err, &tErr) {
		args := append([]any{slog.String("code", string(tErr.Code)), slog.String("err", tErr.Error())}, attrs...)
		switch tErr.Kind() {
		case trainings.KindValidation:
			log.Warn("invalid request", args...)
			return status.Error(codes.InvalidArgument, tErr.Error())
		case trainings.KindLookup:
			log.Info(op+" lookup failed", args...)
			return status.Error(codes.NotFound, tErr.Error())
		case trainings.KindOccupancy:
			args = append(args,
				slog.String("resource_id", tErr.ResourceID),
				slog.String("conflicting_session", tErr.ConflictingSession.String()),
			)
			log.Info(op+" conflict", args...)
			return status.Error(codes.FailedPrecondition, tErr.Error())
		case trainings.KindRoster:
			log.Info(op+" rejected", args...)
			if tErr.Code == trainings.CodeCapacityExceeded {
				return status.Error(codes.ResourceExhausted, tErr.Error())
			}
			return status.Error(codes.FailedPrecondition, tErr.Error())
		}
	}

	if errors.Is(err, store.ErrConflict) {
		log.Info(op+" conflict", append([]any{slog.String("reason", "concurrent_booking")}, attrs...)...)
		return status.Error(codes.FailedPrecondition, "The location or a trainer was booked at the same time. Pick a different slot.")
	}
	if errors.Is(err, trainings.ErrConcurrentUpdate) {
		log.Info(op+" aborted", append([]any{slog.String("reason", "concurrent_update")}, attrs...)...)
		return status.Error(codes.Aborted, "The session was changed by another request. Try again.")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn(op+" timed out", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	log.Error(op+" failed", append([]any{slog.Any("err", err)}, attrs...)...)
	return status.Error(codes.Internal, "internal error")
}
