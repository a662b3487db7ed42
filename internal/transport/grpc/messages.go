package grpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"gymflow/backend/internal/domain"
)

type Session struct {
	Id             string                 `json:"id"`
	Kind           string                 `json:"kind"`
	Status         string                 `json:"status"`
	TrainingTypeId string                 `json:"training_type_id"`
	LocationId     string                 `json:"location_id"`
	TrainerIds     []string               `json:"trainer_ids"`
	StartTime      *timestamppb.Timestamp `json:"start_time"`
	EndTime        *timestamppb.Timestamp `json:"end_time"`
	CapacityLimit  int32                  `json:"capacity_limit"`
	ClientId       string                 `json:"client_id,omitempty"`
	PrimaryRoster  []string               `json:"primary_roster"`
	WaitingRoster  []string               `json:"waiting_roster"`
	CreatedAt      *timestamppb.Timestamp `json:"created_at"`
	UpdatedAt      *timestamppb.Timestamp `json:"updated_at"`
}

type CreateSessionRequest struct {
	// Kind defaults to "group".
	Kind           string                 `json:"kind"`
	TrainingTypeId string                 `json:"training_type_id"`
	LocationId     string                 `json:"location_id"`
	TrainerIds     []string               `json:"trainer_ids"`
	StartTime      *timestamppb.Timestamp `json:"start_time"`
	EndTime        *timestamppb.Timestamp `json:"end_time"`
	CapacityLimit  int32                  `json:"capacity_limit"`
	ClientId       string                 `json:"client_id"`
	Status         string                 `json:"status"`
}

type CreateSessionResponse struct {
	Session *Session `json:"session"`
}

// UpdateSessionRequest carries a partial update. Absent (null) fields keep
// their stored value; an empty trainer_ids array is an explicit change.
type UpdateSessionRequest struct {
	SessionId      string                 `json:"session_id"`
	StartTime      *timestamppb.Timestamp `json:"start_time"`
	EndTime        *timestamppb.Timestamp `json:"end_time"`
	LocationId     *string                `json:"location_id"`
	TrainerIds     []string               `json:"trainer_ids"`
	TrainingTypeId *string                `json:"training_type_id"`
	CapacityLimit  *int32                 `json:"capacity_limit"`
	Status         *string                `json:"status"`
	SendEmail      bool                   `json:"send_email"`
}

type UpdateSessionResponse struct {
	Session *Session `json:"session"`
}

type RemoveSessionRequest struct {
	SessionId string `json:"session_id"`
	SendEmail bool   `json:"send_email"`
}

type RemoveSessionResponse struct {
	Session *Session `json:"session"`
}

type GetSessionRequest struct {
	SessionId string `json:"session_id"`
}

type GetSessionResponse struct {
	Session *Session `json:"session"`
}

type ListSessionsRequest struct {
	WindowStart *timestamppb.Timestamp `json:"window_start"`
	WindowEnd   *timestamppb.Timestamp `json:"window_end"`
	Kind        string                 `json:"kind"`
}

type ListSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

// RosterRequest addresses one client on one session. It is shared by the
// enrollment and withdrawal calls.
type RosterRequest struct {
	SessionId string `json:"session_id"`
	ClientId  string `json:"client_id"`
}

type RosterResponse struct {
	Session *Session `json:"session"`
}

func toWireSession(s domain.TrainingSession) *Session {
	return &Session{
		Id:             s.ID.String(),
		Kind:           string(s.Kind),
		Status:         string(s.Status),
		TrainingTypeId: s.TrainingTypeID,
		LocationId:     s.LocationID,
		TrainerIds:     s.TrainerIDs,
		StartTime:      timestamppb.New(s.StartTime),
		EndTime:        timestamppb.New(s.EndTime),
		CapacityLimit:  int32(s.CapacityLimit),
		ClientId:       s.ClientID,
		PrimaryRoster:  nonNil(s.PrimaryRoster),
		WaitingRoster:  nonNil(s.WaitingRoster),
		CreatedAt:      timestamppb.New(s.CreatedAt),
		UpdatedAt:      timestamppb.New(s.UpdatedAt),
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
