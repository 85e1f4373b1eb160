package bridge

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/gorilla/websocket"
)

// Hub serves renderer connections. Each connection belongs to one window;
// events sent to a window reach every connection attached to it.
type Hub struct {
	d       *Dispatcher
	log     logging.Logger
	origins []string

	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[string]map[*client]struct{}
	authorize func(window string) bool
	wg        sync.WaitGroup
}

type client struct {
	window string
	conn   Conn
}

// NewHub creates a hub dispatching invokes to d. allowedOrigins lists the
// browser origins accepted on upgrade in addition to same-host requests.
func NewHub(d *Dispatcher, log logging.Logger, allowedOrigins []string) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	h := &Hub{
		d:       d,
		log:     log,
		origins: allowedOrigins,
		clients: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetAuthorizer restricts which window ids may attach.
func (h *Hub) SetAuthorizer(fn func(window string) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorize = fn
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.origins {
		a, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if a.Scheme == u.Scheme && strings.EqualFold(a.Hostname(), u.Hostname()) && (a.Port() == "" || a.Port() == u.Port()) {
			return true
		}
	}
	h.log.Warn("rejected renderer origin", "origin", origin)
	return false
}

func (h *Hub) allowed(window string) bool {
	h.mu.Lock()
	fn := h.authorize
	h.mu.Unlock()
	return fn == nil || fn(window)
}

// ServeHTTP upgrades the request and serves it until the renderer leaves.
// The window id comes from the "window" query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("window")
	if window == "" {
		http.Error(w, "missing window parameter", http.StatusBadRequest)
		return
	}
	if !h.allowed(window) {
		http.Error(w, "unknown window", http.StatusNotFound)
		return
	}
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	_ = h.Serve(r.Context(), window, NewWebsocketConn(c))
}

// Serve attaches conn to window and processes its frames until the
// connection fails or ctx ends. The connection is closed on return.
func (h *Hub) Serve(ctx context.Context, window string, conn Conn) error {
	cl := &client{window: window, conn: conn}
	h.add(cl)
	h.wg.Add(1)
	defer func() {
		h.remove(cl)
		_ = conn.Close()
		h.wg.Done()
	}()

	ctx, cancel := context.WithCancel(WithWindow(ctx, window))
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	h.log.Info("renderer attached", "window", window)
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			h.log.Info("renderer detached", "window", window)
			return err
		}
		h.handle(ctx, cl, f)
	}
}

func (h *Hub) handle(ctx context.Context, cl *client, f ipc.Frame) {
	switch f.Kind {
	case ipc.KindInvoke:
		// Handlers are independent; completions may interleave.
		go h.invoke(ctx, cl, f)
	case ipc.KindSend:
		if err := h.d.Deliver(ctx, f.Channel, f.Args); err != nil {
			h.log.Debug("renderer event dropped", "channel", f.Channel, "error", err.Error())
		}
	default:
		h.log.Warn("unknown frame kind", "kind", string(f.Kind), "window", cl.window)
		h.write(cl, ipc.Frame{
			Kind:  ipc.KindResult,
			ID:    f.ID,
			Error: "unknown frame kind: " + string(f.Kind),
			Code:  errors.KindValidation.Code(),
		})
	}
}

func (h *Hub) invoke(ctx context.Context, cl *client, f ipc.Frame) {
	defer errors.Recover(h.log, "hub.invoke", nil)
	res := ipc.Frame{Kind: ipc.KindResult, ID: f.ID, Channel: f.Channel}
	out, err := h.d.Invoke(ctx, f.Channel, f.Args)
	if err != nil {
		res.Error = errors.Message(err)
		res.Code = errors.KindOf(err).Code()
	} else {
		res.Result = out
	}
	h.write(cl, res)
}

func (h *Hub) write(cl *client, f ipc.Frame) {
	if err := cl.conn.WriteFrame(f); err != nil {
		h.log.Debug("write to renderer failed", "window", cl.window, "error", err.Error())
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[cl.window]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[cl.window] = set
	}
	set[cl] = struct{}{}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[cl.window]; ok {
		delete(set, cl)
		if len(set) == 0 {
			delete(h.clients, cl.window)
		}
	}
}

// Emit sends an event to every renderer attached to window. It implements
// the headless host's EventSink.
func (h *Hub) Emit(window, channel string, args ...any) {
	raw, err := ipc.EncodeArgs(args...)
	if err != nil {
		h.log.Error("encode event failed", "channel", channel, "error", err.Error())
		return
	}
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[window]))
	for cl := range h.clients[window] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()
	for _, cl := range targets {
		h.write(cl, ipc.Frame{Kind: ipc.KindEvent, Channel: channel, Args: raw})
	}
}

// Attached returns how many renderers are attached to window.
func (h *Hub) Attached(window string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[window])
}

// Detach closes every connection of window, e.g. after the window closed.
func (h *Hub) Detach(window string) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[window]))
	for cl := range h.clients[window] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()
	for _, cl := range targets {
		_ = cl.conn.Close()
	}
}

// Wait blocks until every Serve call returned.
func (h *Hub) Wait() { h.wg.Wait() }
