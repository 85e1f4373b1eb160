package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/cristianoliveira/deskbridge/internal/errors"
)

// Envelope is the uniform result of every capability manager operation.
// Host errors cross the boundary only as the Error string.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// OK builds a successful envelope carrying data. Data that cannot be
// encoded turns the envelope into a failure.
func OK(data any) Envelope {
	return OKMessage(data, "")
}

// OKMessage is OK with a human readable message.
func OKMessage(data any, message string) Envelope {
	raw, err := encode(data)
	if err != nil {
		return Fail(errors.Internal("envelope", err))
	}
	return Envelope{Success: true, Data: raw, Message: message}
}

// Fail builds an unsuccessful envelope from err.
func Fail(err error) Envelope {
	return Envelope{Success: false, Error: errors.Message(err)}
}

// FailData is Fail with structured details, e.g. an HTTP status code.
func FailData(err error, data any) Envelope {
	env := Fail(err)
	if raw, encErr := encode(data); encErr == nil {
		env.Data = raw
	}
	return env
}

// Failf builds an unsuccessful envelope from a formatted message.
func Failf(format string, args ...any) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Decode unmarshals the envelope data into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no data")
	}
	return json.Unmarshal(e.Data, v)
}

func encode(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(data)
}
