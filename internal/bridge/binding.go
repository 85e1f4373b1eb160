package bridge

import (
	"context"
	"encoding/json"

	"github.com/cristianoliveira/deskbridge/internal/errors"
)

// HandleNoArgs adapts a handler that takes no arguments.
func HandleNoArgs(fn func(ctx context.Context) (any, error)) Handler {
	return func(ctx context.Context, _ []json.RawMessage) (any, error) {
		return fn(ctx)
	}
}

// Handle adapts a handler taking one typed argument. A missing argument
// decodes as the zero value; a malformed one is a validation error raised
// before fn runs.
func Handle[Req any](fn func(ctx context.Context, req Req) (any, error)) Handler {
	return func(ctx context.Context, args []json.RawMessage) (any, error) {
		var req Req
		if err := decodeArg(args, 0, &req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// Handle2 adapts a handler taking two typed arguments, such as (id, data).
func Handle2[A, B any](fn func(ctx context.Context, a A, b B) (any, error)) Handler {
	return func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a A
		var b B
		if err := decodeArg(args, 0, &a); err != nil {
			return nil, err
		}
		if err := decodeArg(args, 1, &b); err != nil {
			return nil, err
		}
		return fn(ctx, a, b)
	}
}

func decodeArg(args []json.RawMessage, i int, v any) error {
	if i >= len(args) || len(args[i]) == 0 || string(args[i]) == "null" {
		return nil
	}
	if err := json.Unmarshal(args[i], v); err != nil {
		return errors.Validation("decode", "invalid argument %d: %v", i, err)
	}
	return nil
}
