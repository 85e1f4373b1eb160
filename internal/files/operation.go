package files

import (
	"context"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
)

// Operation types accepted by Execute.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDelete = "delete"
	OpCopy   = "copy"
	OpMove   = "move"
)

// Operation is the payload of file:execute-operation.
type Operation struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Data        string `json:"data,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Execute runs op. Copy and move require a destination.
func (m *Manager) Execute(ctx context.Context, op Operation) ipc.Envelope {
	switch op.Type {
	case OpRead:
		return m.Read(op.Path)
	case OpWrite:
		return m.Write(op.Path, op.Data)
	case OpDelete:
		return m.Delete(ctx, op.Path)
	case OpCopy:
		if op.Destination == "" {
			return ipc.Fail(errors.Validation("file:copy", "copy requires a destination path"))
		}
		return m.Copy(op.Path, op.Destination)
	case OpMove:
		if op.Destination == "" {
			return ipc.Fail(errors.Validation("file:move", "move requires a destination path"))
		}
		return m.Move(ctx, op.Path, op.Destination)
	default:
		return ipc.Fail(errors.Validation("file:execute-operation", "unsupported file operation: %s", op.Type))
	}
}
