package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Listener receives the arguments of a host event.
type Listener func(args []json.RawMessage)

// ErrClosed is returned by Invoke once the connection is gone.
var ErrClosed = errors.New("bridge connection closed")

// Proxy is the renderer side API. Event names are checked against the
// allow-lists before anything crosses the connection; rejected names only
// log a warning.
type Proxy struct {
	conn Conn
	log  logging.Logger

	mu        sync.Mutex
	pending   map[string]chan ipc.Frame
	listeners map[string][]*Subscription
	closed    bool

	queue   []ipc.Frame
	queueMu sync.Mutex
	wake    chan struct{}
	done    chan struct{}
}

// Subscription is a registered listener. Close removes it.
type Subscription struct {
	p       *Proxy
	channel string
	fn      Listener
	once    bool
}

// Close removes the listener. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.p == nil {
		return
	}
	s.p.remove(s)
}

// Channel returns the event name the subscription listens to.
func (s *Subscription) Channel() string { return s.channel }

// Dial connects to the hub at rawURL as window.
func Dial(ctx context.Context, rawURL, window string, log logging.Logger) (*Proxy, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}
	q := u.Query()
	q.Set("window", window)
	u.RawQuery = q.Encode()
	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}
	return NewProxy(NewWebsocketConn(c), log), nil
}

// NewProxy starts reading from conn.
func NewProxy(conn Conn, log logging.Logger) *Proxy {
	if log == nil {
		log = logging.Discard()
	}
	p := &Proxy{
		conn:      conn,
		log:       log,
		pending:   make(map[string]chan ipc.Frame),
		listeners: make(map[string][]*Subscription),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go p.readLoop()
	go p.eventLoop()
	return p
}

// Invoke calls an invoke channel and waits for the result. There is no
// built-in timeout; ctx bounds the wait.
func (p *Proxy) Invoke(ctx context.Context, channel string, args ...any) (json.RawMessage, error) {
	raw, err := ipc.EncodeArgs(args...)
	if err != nil {
		return nil, errors.Validation(channel, "encode arguments: %v", err)
	}
	id := uuid.NewString()
	ch := make(chan ipc.Frame, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.pending[id] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.conn.WriteFrame(ipc.Frame{Kind: ipc.KindInvoke, ID: id, Channel: channel, Args: raw}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if res.Error != "" {
			return nil, &errors.Error{Kind: errors.KindFromCode(res.Code), Op: channel, Msg: res.Error}
		}
		return res.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InvokeEnvelope is Invoke for channels answering with an ipc.Envelope.
func (p *Proxy) InvokeEnvelope(ctx context.Context, channel string, args ...any) (ipc.Envelope, error) {
	raw, err := p.Invoke(ctx, channel, args...)
	if err != nil {
		return ipc.Envelope{}, err
	}
	var env ipc.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ipc.Envelope{}, fmt.Errorf("decode envelope from %s: %w", channel, err)
	}
	return env, nil
}

// On registers fn for a host event. A name outside the allow-list returns
// an inert subscription and fn never runs.
func (p *Proxy) On(channel string, fn Listener) *Subscription {
	return p.subscribe(channel, fn, false)
}

// Once is On for a single delivery.
func (p *Proxy) Once(channel string, fn Listener) *Subscription {
	return p.subscribe(channel, fn, true)
}

// Off removes sub from channel. Equivalent to sub.Close().
func (p *Proxy) Off(channel string, sub *Subscription) {
	if sub == nil || sub.channel != channel {
		return
	}
	sub.Close()
}

func (p *Proxy) subscribe(channel string, fn Listener, once bool) *Subscription {
	if !ipc.CanListen(channel) {
		p.log.Warn("blocked listener on channel outside allow-list", "channel", channel)
		return &Subscription{channel: channel}
	}
	sub := &Subscription{p: p, channel: channel, fn: fn, once: once}
	p.mu.Lock()
	p.listeners[channel] = append(p.listeners[channel], sub)
	p.mu.Unlock()
	return sub
}

func (p *Proxy) remove(sub *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.listeners[sub.channel]
	for i, s := range subs {
		if s == sub {
			p.listeners[sub.channel] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Send pushes a renderer event. Names outside the allow-list are dropped
// with a warning.
func (p *Proxy) Send(channel string, args ...any) {
	if !ipc.CanSend(channel) {
		p.log.Warn("blocked send on channel outside allow-list", "channel", channel)
		return
	}
	raw, err := ipc.EncodeArgs(args...)
	if err != nil {
		p.log.Warn("encode send arguments failed", "channel", channel, "error", err.Error())
		return
	}
	if err := p.conn.WriteFrame(ipc.Frame{Kind: ipc.KindSend, Channel: channel, Args: raw}); err != nil {
		p.log.Debug("send failed", "channel", channel, "error", err.Error())
	}
}

// Close shuts the connection down; pending invokes fail with ErrClosed.
func (p *Proxy) Close() error {
	err := p.conn.Close()
	<-p.done
	return err
}

// Done is closed when the connection ends.
func (p *Proxy) Done() <-chan struct{} { return p.done }

func (p *Proxy) readLoop() {
	defer p.shutdown()
	for {
		f, err := p.conn.ReadFrame()
		if err != nil {
			return
		}
		switch f.Kind {
		case ipc.KindResult:
			p.mu.Lock()
			ch, ok := p.pending[f.ID]
			p.mu.Unlock()
			if ok {
				ch <- f
			}
		case ipc.KindEvent:
			p.queueMu.Lock()
			p.queue = append(p.queue, f)
			p.queueMu.Unlock()
			select {
			case p.wake <- struct{}{}:
			default:
			}
		default:
			p.log.Debug("ignored frame", "kind", string(f.Kind))
		}
	}
}

// eventLoop runs listeners one event at a time in arrival order, off the
// read loop so listeners may call Invoke.
func (p *Proxy) eventLoop() {
	for {
		p.queueMu.Lock()
		batch := p.queue
		p.queue = nil
		p.queueMu.Unlock()
		for _, f := range batch {
			p.dispatch(f)
		}
		select {
		case <-p.wake:
		case <-p.done:
			return
		}
	}
}

func (p *Proxy) dispatch(f ipc.Frame) {
	if !ipc.CanListen(f.Channel) {
		p.log.Warn("dropped host event outside allow-list", "channel", f.Channel)
		return
	}
	args, err := ipc.SplitArgs(f.Args)
	if err != nil {
		p.log.Warn("malformed event arguments", "channel", f.Channel, "error", err.Error())
		return
	}
	p.mu.Lock()
	subs := append([]*Subscription(nil), p.listeners[f.Channel]...)
	p.mu.Unlock()
	for _, sub := range subs {
		if sub.once {
			sub.Close()
		}
		p.call(sub, args)
	}
}

func (p *Proxy) call(sub *Subscription, args []json.RawMessage) {
	defer errors.Recover(p.log, "listener "+sub.channel, nil)
	sub.fn(args)
}

func (p *Proxy) shutdown() {
	p.mu.Lock()
	p.closed = true
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
	p.mu.Unlock()
	close(p.done)
}
