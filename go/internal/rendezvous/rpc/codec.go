package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries plain Go structs; it replaces connect's protojson codec
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
