package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const TrainingsServiceName = "gymflow.v1.TrainingsService"

type TrainingsServiceServer interface {
	CreateSession(context.Context, *CreateSessionRequest) (*CreateSessionResponse, error)
	UpdateSession(context.Context, *UpdateSessionRequest) (*UpdateSessionResponse, error)
	RemoveSession(context.Context, *RemoveSessionRequest) (*RemoveSessionResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error)
	EnrollPrimary(context.Context, *RosterRequest) (*RosterResponse, error)
	EnrollWaiting(context.Context, *RosterRequest) (*RosterResponse, error)
	Withdraw(context.Context, *RosterRequest) (*RosterResponse, error)
}

var TrainingsServiceDesc = grpc.ServiceDesc{
	ServiceName: TrainingsServiceName,
	HandlerType: (*TrainingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateSession", TrainingsServiceServer.CreateSession),
		unaryMethod("UpdateSession", TrainingsServiceServer.UpdateSession),
		unaryMethod("RemoveSession", TrainingsServiceServer.RemoveSession),
		unaryMethod("GetSession", TrainingsServiceServer.GetSession),
		unaryMethod("ListSessions", TrainingsServiceServer.ListSessions),
		unaryMethod("EnrollPrimary", TrainingsServiceServer.EnrollPrimary),
		unaryMethod("EnrollWaiting", TrainingsServiceServer.EnrollWaiting),
		unaryMethod("Withdraw", TrainingsServiceServer.Withdraw),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gymflow/v1/trainings",
}

func RegisterTrainingsServiceServer(s grpc.ServiceRegistrar, srv TrainingsServiceServer) {
	s.RegisterService(&TrainingsServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + TrainingsServiceName + "/" + method
}

func unaryMethod[Req, Resp any](method string, call func(TrainingsServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TrainingsServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TrainingsServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TrainingsClient calls the trainings service using the json codec.
type TrainingsClient struct {
	cc grpc.ClientConnInterface
}

func NewTrainingsClient(cc grpc.ClientConnInterface) *TrainingsClient {
	return &TrainingsClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TrainingsClient) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*CreateSessionResponse, error) {
	return invoke[CreateSessionResponse](ctx, c.cc, "CreateSession", in, opts)
}

func (c *TrainingsClient) UpdateSession(ctx context.Context, in *UpdateSessionRequest, opts ...grpc.CallOption) (*UpdateSessionResponse, error) {
	return invoke[UpdateSessionResponse](ctx, c.cc, "UpdateSession", in, opts)
}

func (c *TrainingsClient) RemoveSession(ctx context.Context, in *RemoveSessionRequest, opts ...grpc.CallOption) (*RemoveSessionResponse, error) {
	return invoke[RemoveSessionResponse](ctx, c.cc, "RemoveSession", in, opts)
}

func (c *TrainingsClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	return invoke[GetSessionResponse](ctx, c.cc, "GetSession", in, opts)
}

func (c *TrainingsClient) ListSessions(ctx context.Context, in *ListSessionsRequest, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, "ListSessions", in, opts)
}

func (c *TrainingsClient) EnrollPrimary(ctx context.Context, in *RosterRequest, opts ...grpc.CallOption) (*RosterResponse, error) {
	return invoke[RosterResponse](ctx, c.cc, "EnrollPrimary", in, opts)
}

func (c *TrainingsClient) EnrollWaiting(ctx context.Context, in *RosterRequest, opts ...grpc.CallOption) (*RosterResponse, error) {
	return invoke[RosterResponse](ctx, c.cc, "EnrollWaiting", in, opts)
}

func (c *TrainingsClient) Withdraw(ctx context.Context, in *RosterRequest, opts ...grpc.CallOption) (*RosterResponse, error) {
	return invoke[RosterResponse](ctx, c.cc, "Withdraw", in, opts)
}
