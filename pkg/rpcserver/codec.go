// Package rpcserver exposes the Hand Manager's external operations
// over gRPC without a compiled .proto schema: it hand-writes the same
// shape of code protoc-gen-go-grpc emits (a ServiceDesc, a typed
// client, Unimplemented server embeds) and pairs it with a JSON wire
// codec registered against grpc's codec extension point. Business
// errors surface as google.golang.org/grpc/status errors at the
// handler boundary.
package rpcserver

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// codecName is the content-subtype every call in this package negotiates:
// the codec is registered under it by this file's init, and the client
// stubs request it through the grpc.CallContentSubtype option.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec by
// marshaling request/response messages as JSON, standing in for the
// protobuf wire format a protoc-generated service would use. The codec
// is registered process-wide, so it can also be handed proto messages
// from other services sharing the connection (health, reflection);
// those go through protojson so their canonical JSON mapping holds.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}
