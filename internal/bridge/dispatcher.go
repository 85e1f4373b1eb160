// Package bridge carries invoke calls and events between renderer
// processes and the host. The Dispatcher and Hub run in the host; the
// Proxy is the renderer side of the same connection.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Handler serves one invoke channel. args holds the decoded call arguments.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// SendHandler receives a renderer to host event.
type SendHandler func(ctx context.Context, args []json.RawMessage)

// Dispatcher maps invoke channels to handlers.
type Dispatcher struct {
	log      logging.Logger
	mu       sync.RWMutex
	handlers map[string]Handler
	sends    map[string][]SendHandler
}

func NewDispatcher(log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{
		log:      log,
		handlers: make(map[string]Handler),
		sends:    make(map[string][]SendHandler),
	}
}

// Bind registers h for channel. Binding happens once at startup, so a
// duplicate or unknown channel panics.
func (d *Dispatcher) Bind(channel string, h Handler) {
	if !ipc.IsInvoke(channel) {
		panic(fmt.Sprintf("bridge: %q is not an invoke channel", channel))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[channel]; exists {
		panic(fmt.Sprintf("bridge: handler already bound for %q", channel))
	}
	d.handlers[channel] = h
}

// Unbound lists invoke channels without a handler, sorted.
func (d *Dispatcher) Unbound() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var missing []string
	for _, ch := range ipc.InvokeChannels() {
		if _, ok := d.handlers[ch]; !ok {
			missing = append(missing, ch)
		}
	}
	return missing
}

// Invoke runs the handler bound to channel with the JSON array args and
// returns the encoded result. A panicking handler is recovered and
// reported as an internal error.
func (d *Dispatcher) Invoke(ctx context.Context, channel string, args json.RawMessage) (result json.RawMessage, err error) {
	d.mu.RLock()
	h, ok := d.handlers[channel]
	d.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("invoke", "no handler registered for '%s'", channel)
	}
	parts, err := ipc.SplitArgs(args)
	if err != nil {
		return nil, errors.Validation(channel, "arguments must be a JSON array: %v", err)
	}

	defer errors.Recover(d.log, channel, &err)
	out, err := h(ctx, parts)
	if err != nil {
		d.log.Debug("invoke failed", "channel", channel, "error", err.Error())
		return nil, err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Internal(channel, err)
	}
	return raw, nil
}

// OnSend registers fn for a renderer to host event.
func (d *Dispatcher) OnSend(channel string, fn SendHandler) {
	if !ipc.CanSend(channel) {
		panic(fmt.Sprintf("bridge: %q is not a renderer event", channel))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sends[channel] = append(d.sends[channel], fn)
}

// Deliver runs the OnSend handlers for channel. Names outside the renderer
// allow-list are dropped with a warning.
func (d *Dispatcher) Deliver(ctx context.Context, channel string, args json.RawMessage) error {
	if !ipc.CanSend(channel) {
		d.log.Warn("blocked renderer event", "channel", channel, "window", WindowFrom(ctx))
		return errors.Unauthorized("send", "channel '%s' is not allowed", channel)
	}
	parts, err := ipc.SplitArgs(args)
	if err != nil {
		return errors.Validation(channel, "arguments must be a JSON array: %v", err)
	}
	d.mu.RLock()
	fns := append([]SendHandler(nil), d.sends[channel]...)
	d.mu.RUnlock()
	for _, fn := range fns {
		d.runSend(ctx, channel, fn, parts)
	}
	return nil
}

func (d *Dispatcher) runSend(ctx context.Context, channel string, fn SendHandler, parts []json.RawMessage) {
	defer errors.Recover(d.log, channel, nil)
	fn(ctx, parts)
}

// Channels returns the bound invoke channels, sorted.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for ch := range d.handlers {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

type windowKey struct{}

// WithWindow tags ctx with the id of the window that issued a call.
func WithWindow(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, windowKey{}, id)
}

// WindowFrom returns the calling window id, or "" outside a bridge call.
func WindowFrom(ctx context.Context) string {
	id, _ := ctx.Value(windowKey{}).(string)
	return id
}
