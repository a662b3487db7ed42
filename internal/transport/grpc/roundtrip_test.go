package grpc

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"gymflow/backend/internal/common/clock"
	"gymflow/backend/internal/directory/catalog"
	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/service/trainings"
	"gymflow/backend/internal/store/memory"
)

func startServer(t *testing.T) *TrainingsClient {
	t.Helper()

	dir, err := catalog.New(catalog.File{
		TrainingTypes: []domain.TrainingType{{ID: "yoga", Name: "Morning Yoga"}},
		Trainers:      []domain.Trainer{{ID: "T1", FullName: "Ann", Roles: []string{domain.RoleTrainer}}},
		Locations:     []domain.Location{{ID: "L1", Name: "Hall A"}},
	})
	if err != nil {
		t.Fatalf("catalog.New error: %v", err)
	}
	svc := trainings.NewService(memory.NewSessionStore(), dir,
		trainings.WithClock(clock.Fixed(time.Date(2030, 2, 1, 9, 0, 0, 0, time.UTC))),
	)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterTrainingsServiceServer(srv, NewTrainingsServer(svc, slog.Default()))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return NewTrainingsClient(conn)
}

func TestRoundTrip_ScheduleAndEnroll(t *testing.T) {
	client := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)
	created, err := client.CreateSession(ctx, &CreateSessionRequest{
		TrainingTypeId: "yoga",
		LocationId:     "L1",
		TrainerIds:     []string{"T1"},
		StartTime:      timestamppb.New(start),
		EndTime:        timestamppb.New(start.Add(time.Hour)),
		CapacityLimit:  1,
	})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if created.Session.Kind != "group" || !created.Session.StartTime.AsTime().Equal(start) {
		t.Fatalf("created = %+v", created.Session)
	}

	_, err = client.CreateSession(ctx, &CreateSessionRequest{
		TrainingTypeId: "yoga",
		LocationId:     "L1",
		TrainerIds:     []string{"T1"},
		StartTime:      timestamppb.New(start.Add(30 * time.Minute)),
		EndTime:        timestamppb.New(start.Add(90 * time.Minute)),
		CapacityLimit:  1,
	})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("overlap code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}

	id := created.Session.Id
	if _, err := client.EnrollPrimary(ctx, &RosterRequest{SessionId: id, ClientId: "c1"}); err != nil {
		t.Fatalf("EnrollPrimary error: %v", err)
	}
	_, err = client.EnrollPrimary(ctx, &RosterRequest{SessionId: id, ClientId: "c2"})
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("full session code = %s, want %s", status.Code(err), codes.ResourceExhausted)
	}
	waiting, err := client.EnrollWaiting(ctx, &RosterRequest{SessionId: id, ClientId: "c2"})
	if err != nil {
		t.Fatalf("EnrollWaiting error: %v", err)
	}
	if len(waiting.Session.PrimaryRoster) != 1 || len(waiting.Session.WaitingRoster) != 1 {
		t.Fatalf("rosters = %v / %v", waiting.Session.PrimaryRoster, waiting.Session.WaitingRoster)
	}

	newEnd := timestamppb.New(start.Add(45 * time.Minute))
	updated, err := client.UpdateSession(ctx, &UpdateSessionRequest{SessionId: id, EndTime: newEnd})
	if err != nil {
		t.Fatalf("UpdateSession error: %v", err)
	}
	if !updated.Session.EndTime.AsTime().Equal(newEnd.AsTime()) || len(updated.Session.TrainerIds) != 1 {
		t.Fatalf("updated = %+v", updated.Session)
	}

	listed, err := client.ListSessions(ctx, &ListSessionsRequest{
		WindowStart: timestamppb.New(start.Add(-time.Hour)),
		WindowEnd:   timestamppb.New(start.Add(24 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(listed.Sessions) != 1 || listed.Sessions[0].Id != id {
		t.Fatalf("listed = %d sessions", len(listed.Sessions))
	}

	if _, err := client.Withdraw(ctx, &RosterRequest{SessionId: id, ClientId: "c1"}); err != nil {
		t.Fatalf("Withdraw error: %v", err)
	}
	_, err = client.Withdraw(ctx, &RosterRequest{SessionId: id, ClientId: "c1"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("second withdraw code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}

	if _, err := client.RemoveSession(ctx, &RemoveSessionRequest{SessionId: id}); err != nil {
		t.Fatalf("RemoveSession error: %v", err)
	}
	_, err = client.GetSession(ctx, &GetSessionRequest{SessionId: id})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("get removed code = %s, want %s", status.Code(err), codes.NotFound)
	}
}
