package rpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// EngineClient is the client-side contract generated code would expose
// for the Engine service's operations.
type EngineClient interface {
	StartHand(ctx context.Context, in *StartHandRequest, opts ...grpc.CallOption) (*HandView, error)
	ProcessAction(ctx context.Context, in *ProcessActionRequest, opts ...grpc.CallOption) (*HandView, error)
	GetHand(ctx context.Context, in *GetHandRequest, opts ...grpc.CallOption) (*HandView, error)
	GetActions(ctx context.Context, in *GetActionsRequest, opts ...grpc.CallOption) (*ActionsResponse, error)
	RecordHeartbeat(ctx context.Context, in *RecordHeartbeatRequest, opts ...grpc.CallOption) (*Empty, error)
	StreamRoomEvents(ctx context.Context, in *StreamRoomEventsRequest, opts ...grpc.CallOption) (Engine_StreamRoomEventsClient, error)
}

type engineClient struct {
	cc grpc.ClientConnInterface
}

// NewEngineClient builds an EngineClient over cc, negotiating the JSON
// content-subtype registered in codec.go on every call in place of the
// default proto codec.
func NewEngineClient(cc grpc.ClientConnInterface) EngineClient {
	return &engineClient{cc: cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}

func (c *engineClient) StartHand(ctx context.Context, in *StartHandRequest, opts ...grpc.CallOption) (*HandView, error) {
	out := new(HandView)
	if err := c.cc.Invoke(ctx, "/engine.Engine/StartHand", in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) ProcessAction(ctx context.Context, in *ProcessActionRequest, opts ...grpc.CallOption) (*HandView, error) {
	out := new(HandView)
	if err := c.cc.Invoke(ctx, "/engine.Engine/ProcessAction", in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) GetHand(ctx context.Context, in *GetHandRequest, opts ...grpc.CallOption) (*HandView, error) {
	out := new(HandView)
	if err := c.cc.Invoke(ctx, "/engine.Engine/GetHand", in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) GetActions(ctx context.Context, in *GetActionsRequest, opts ...grpc.CallOption) (*ActionsResponse, error) {
	out := new(ActionsResponse)
	if err := c.cc.Invoke(ctx, "/engine.Engine/GetActions", in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) RecordHeartbeat(ctx context.Context, in *RecordHeartbeatRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/engine.Engine/RecordHeartbeat", in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *engineClient) StreamRoomEvents(ctx context.Context, in *StreamRoomEventsRequest, opts ...grpc.CallOption) (Engine_StreamRoomEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/engine.Engine/StreamRoomEvents", callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	x := &engineStreamRoomEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Engine_StreamRoomEventsClient is the client-side handle for the
// outbound event stream, matching protoc-gen-go-grpc's generated
// <Method>Client interface shape.
type Engine_StreamRoomEventsClient interface {
	Recv() (*RoomEvent, error)
	grpc.ClientStream
}

type engineStreamRoomEventsClient struct {
	grpc.ClientStream
}

func (x *engineStreamRoomEventsClient) Recv() (*RoomEvent, error) {
	ev := new(RoomEvent)
	if err := x.ClientStream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
