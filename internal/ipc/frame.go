package ipc

import "encoding/json"

// FrameKind tags a wire frame.
type FrameKind string

const (
	// KindInvoke is a renderer request awaiting a KindResult with the same ID.
	KindInvoke FrameKind = "invoke"
	// KindResult answers a KindInvoke.
	KindResult FrameKind = "result"
	// KindEvent is a host to renderer push.
	KindEvent FrameKind = "event"
	// KindSend is a renderer to host push.
	KindSend FrameKind = "send"
)

// Frame is one JSON message on the bridge connection. Args is always a
// JSON array holding the call or event arguments.
type Frame struct {
	Kind    FrameKind       `json:"kind"`
	ID      string          `json:"id,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    int             `json:"code,omitempty"`
}

// EncodeArgs marshals call arguments as a JSON array.
func EncodeArgs(args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(args)
}

// SplitArgs splits a JSON array into its elements. Empty input yields no args.
func SplitArgs(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
