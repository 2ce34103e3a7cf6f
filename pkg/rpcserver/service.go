package rpcserver

import (
	"context"
	"io"

	"github.com/decred/slog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vctt94/holdemcore/pkg/engine"
	"github.com/vctt94/holdemcore/pkg/events"
	"github.com/vctt94/holdemcore/pkg/manager"
)

// EngineServer is the server-side contract for the Hand Manager's
// external operations, the interface a protoc-gen-go-grpc Register call
// expects of its implementation.
type EngineServer interface {
	StartHand(context.Context, *StartHandRequest) (*HandView, error)
	ProcessAction(context.Context, *ProcessActionRequest) (*HandView, error)
	GetHand(context.Context, *GetHandRequest) (*HandView, error)
	GetActions(context.Context, *GetActionsRequest) (*ActionsResponse, error)
	RecordHeartbeat(context.Context, *RecordHeartbeatRequest) (*Empty, error)
	StreamRoomEvents(*StreamRoomEventsRequest, Engine_StreamRoomEventsServer) error
}

// Engine_StreamRoomEventsServer is the server-side handle for the
// outbound event stream, matching the shape protoc-gen-go-grpc emits
// for a server-streaming RPC.
type Engine_StreamRoomEventsServer interface {
	Send(*RoomEvent) error
	grpc.ServerStream
}

type engineStreamRoomEventsServer struct {
	grpc.ServerStream
}

func (s *engineStreamRoomEventsServer) Send(ev *RoomEvent) error {
	return s.ServerStream.SendMsg(ev)
}

// UnimplementedEngineServer must be embedded by any EngineServer
// implementation to get forward-compatible method additions, mirroring
// protoc-gen-go-grpc's Unimplemented*Server embed convention.
type UnimplementedEngineServer struct{}

func (UnimplementedEngineServer) StartHand(context.Context, *StartHandRequest) (*HandView, error) {
	return nil, status.Error(codes.Unimplemented, "method StartHand not implemented")
}
func (UnimplementedEngineServer) ProcessAction(context.Context, *ProcessActionRequest) (*HandView, error) {
	return nil, status.Error(codes.Unimplemented, "method ProcessAction not implemented")
}
func (UnimplementedEngineServer) GetHand(context.Context, *GetHandRequest) (*HandView, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHand not implemented")
}
func (UnimplementedEngineServer) GetActions(context.Context, *GetActionsRequest) (*ActionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetActions not implemented")
}
func (UnimplementedEngineServer) RecordHeartbeat(context.Context, *RecordHeartbeatRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordHeartbeat not implemented")
}
func (UnimplementedEngineServer) StreamRoomEvents(*StreamRoomEventsRequest, Engine_StreamRoomEventsServer) error {
	return status.Error(codes.Unimplemented, "method StreamRoomEvents not implemented")
}

func _Engine_StartHand_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartHandRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).StartHand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/engine.Engine/StartHand"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineServer).StartHand(ctx, req.(*StartHandRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Engine_ProcessAction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProcessActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).ProcessAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/engine.Engine/ProcessAction"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineServer).ProcessAction(ctx, req.(*ProcessActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Engine_GetHand_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetHandRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetHand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/engine.Engine/GetHand"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineServer).GetHand(ctx, req.(*GetHandRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Engine_GetActions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetActionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetActions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/engine.Engine/GetActions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineServer).GetActions(ctx, req.(*GetActionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Engine_RecordHeartbeat_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RecordHeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).RecordHeartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/engine.Engine/RecordHeartbeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EngineServer).RecordHeartbeat(ctx, req.(*RecordHeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Engine_StreamRoomEvents_Handler(srv interface{}, stream grpc.ServerStream) error {
	in := new(StreamRoomEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(EngineServer).StreamRoomEvents(in, &engineStreamRoomEventsServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc a protoc-gen-go-grpc codegen pass
// would have emitted for this service; RegisterEngineServer hands it to
// grpc.Server.RegisterService the same way generated code does.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "engine.Engine",
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartHand", Handler: _Engine_StartHand_Handler},
		{MethodName: "ProcessAction", Handler: _Engine_ProcessAction_Handler},
		{MethodName: "GetHand", Handler: _Engine_GetHand_Handler},
		{MethodName: "GetActions", Handler: _Engine_GetActions_Handler},
		{MethodName: "RecordHeartbeat", Handler: _Engine_RecordHeartbeat_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamRoomEvents",
			Handler:       _Engine_StreamRoomEvents_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "engine.proto",
}

// RegisterEngineServer registers srv against s, mirroring the generated
// RegisterEngineServer free function.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server adapts a *manager.Manager to EngineServer, translating between
// the manager's engine.ID/engine.ActionType domain types and the wire
// DTOs, and mapping engine.Code business errors to grpc/codes.
type Server struct {
	UnimplementedEngineServer

	mgr *manager.Manager
	bus *events.Bus
	log slog.Logger
}

// NewServer builds a Server backed by mgr, publishing room events read
// from bus on StreamRoomEvents.
func NewServer(mgr *manager.Manager, bus *events.Bus, log slog.Logger) *Server {
	return &Server{mgr: mgr, bus: bus, log: log}
}

func (s *Server) StartHand(_ context.Context, req *StartHandRequest) (*HandView, error) {
	view, err := s.mgr.StartHand(engine.ID(req.RoomID), engine.ID(req.RequestingUserID))
	if err != nil {
		return nil, asStatusErr(err)
	}
	return toWireHandView(view), nil
}

func (s *Server) ProcessAction(_ context.Context, req *ProcessActionRequest) (*HandView, error) {
	view, err := s.mgr.ProcessAction(engine.ID(req.HandID), engine.ID(req.PlayerID), engine.ActionType(req.ActionType), req.Amount)
	if err != nil {
		return nil, asStatusErr(err)
	}
	return toWireHandView(view), nil
}

func (s *Server) GetHand(_ context.Context, req *GetHandRequest) (*HandView, error) {
	view, err := s.mgr.GetHand(engine.ID(req.HandID), engine.ID(req.RequestingUserID))
	if err != nil {
		return nil, asStatusErr(err)
	}
	return toWireHandView(view), nil
}

func (s *Server) GetActions(_ context.Context, req *GetActionsRequest) (*ActionsResponse, error) {
	actions, err := s.mgr.GetActions(engine.ID(req.HandID))
	if err != nil {
		return nil, asStatusErr(err)
	}
	resp := &ActionsResponse{Actions: make([]ActionView, len(actions))}
	for i, a := range actions {
		resp.Actions[i] = ActionView{
			UserID:          string(a.UserID),
			ActionType:      string(a.ActionType),
			Amount:          a.Amount,
			HandState:       string(a.HandState),
			SequenceNum:     a.SequenceNum,
			CreatedAtUnixMs: a.CreatedAt.UnixMilli(),
		}
	}
	return resp, nil
}

func (s *Server) RecordHeartbeat(_ context.Context, req *RecordHeartbeatRequest) (*Empty, error) {
	s.mgr.RecordHeartbeat(engine.ID(req.RoomID), engine.ID(req.UserID))
	return &Empty{}, nil
}

// StreamRoomEvents relays the requested room's events until the client
// disconnects or the stream's context is cancelled.
func (s *Server) StreamRoomEvents(req *StreamRoomEventsRequest, stream Engine_StreamRoomEventsServer) error {
	roomID := engine.ID(req.RoomID)
	sub := s.bus.SubscribeRoom(roomID)
	defer s.bus.UnsubscribeRoom(roomID, sub)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			out := &RoomEvent{
				Type:            string(ev.Type),
				HandID:          string(ev.HandID),
				RoomID:          string(ev.RoomID),
				TimestampUnixMs: ev.Timestamp.UnixMilli(),
				Payload:         ev.Payload,
			}
			if err := stream.Send(out); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}
	}
}

func toWireHandView(v *manager.HandView) *HandView {
	out := &HandView{
		HandID:          string(v.HandID),
		RoomID:          string(v.RoomID),
		HandNumber:      v.HandNumber,
		State:           string(v.State),
		CommunityCards:  v.CommunityCards,
		PotTotal:        v.PotTotal,
		CurrentPlayerID: string(v.CurrentPlayerID),
		Players:         make([]PlayerView, len(v.Players)),
	}
	for i, p := range v.Players {
		out.Players[i] = PlayerView{
			UserID:    string(p.UserID),
			Nickname:  p.Nickname,
			Seat:      p.Seat,
			Stack:     p.Stack,
			Status:    string(p.Status),
			BetTotal:  p.BetTotal,
			WonAmount: p.WonAmount,
			HoleCards: p.HoleCards,
		}
	}
	return out
}

// asStatusErr maps an engine.Code business error to the matching
// grpc/codes value; anything not recognized
// as an *engine.Error is reported as Internal rather than leaking
// implementation detail to the wire.
func asStatusErr(err error) error {
	engErr, ok := engine.AsError(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	return status.Error(grpcCode(engErr.Code), engErr.Message)
}

func grpcCode(c engine.Code) codes.Code {
	switch c {
	case engine.CodeNotInRoom, engine.CodeRoomNotFound, engine.CodeHandNotFound, engine.CodeNoActiveHand:
		return codes.NotFound
	case engine.CodeNotRoomOwner, engine.CodeNotYourTurn:
		return codes.PermissionDenied
	case engine.CodeAlreadyInRoom, engine.CodeSeatTaken, engine.CodeActiveHandInProgress:
		return codes.AlreadyExists
	case engine.CodeRoomNotWaiting, engine.CodeRoomNotJoinable, engine.CodeRoomFull, engine.CodeNoSeats,
		engine.CodeInsufficientPlayers, engine.CodeIllegalAction, engine.CodeInvalidAmount,
		engine.CodeInsufficientChips, engine.CodeInvalidBuyIn, engine.CodeInvalidBuyInRange,
		engine.CodeInvalidBlindRatio:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
