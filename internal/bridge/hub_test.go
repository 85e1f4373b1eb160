package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// attach connects a proxy to hub as window over an in-memory pipe.
func attach(t *testing.T, hub *Hub, window string) *Proxy {
	t.Helper()
	hostSide, uiSide := Pipe()
	go func() { _ = hub.Serve(context.Background(), window, hostSide) }()
	p := NewProxy(uiSide, nil)
	t.Cleanup(func() { _ = p.Close() })
	require.Eventually(t, func() bool { return hub.Attached(window) > 0 }, time.Second, 5*time.Millisecond)
	return p
}

type eventLog struct {
	mu   sync.Mutex
	vals []string
}

func (e *eventLog) add(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vals = append(e.vals, v)
}

func (e *eventLog) get() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.vals...)
}

func newTestHub() (*Dispatcher, *Hub) {
	d := NewDispatcher(nil)
	return d, NewHub(d, nil, nil)
}

func TestProxyInvokeRoundTrip(t *testing.T) {
	d, hub := newTestHub()
	d.Bind(ipc.SettingsGet, HandleNoArgs(func(ctx context.Context) (any, error) {
		return ipc.OK(map[string]string{"theme": "auto", "window": WindowFrom(ctx)}), nil
	}))
	p := attach(t, hub, "main")

	env, err := p.InvokeEnvelope(context.Background(), ipc.SettingsGet)
	require.NoError(t, err)
	require.True(t, env.Success)
	var data map[string]string
	require.NoError(t, env.Decode(&data))
	require.Equal(t, "auto", data["theme"])
	require.Equal(t, "main", data["window"])
}

func TestProxyInvokeUnboundRejectsAndConnectionSurvives(t *testing.T) {
	d, hub := newTestHub()
	d.Bind(ipc.AppGetVersion, HandleNoArgs(func(context.Context) (any, error) { return "0.1.0", nil }))
	p := attach(t, hub, "main")

	_, err := p.Invoke(context.Background(), ipc.DBGetAll)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindNotFound))
	require.Contains(t, err.Error(), ipc.DBGetAll)

	out, err := p.Invoke(context.Background(), ipc.AppGetVersion)
	require.NoError(t, err)
	require.JSONEq(t, `"0.1.0"`, string(out))
}

func TestProxyInvokeHonoursContext(t *testing.T) {
	d, hub := newTestHub()
	release := make(chan struct{})
	d.Bind(ipc.UpdateCheck, HandleNoArgs(func(context.Context) (any, error) {
		<-release
		return nil, nil
	}))
	defer close(release)
	p := attach(t, hub, "main")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Invoke(ctx, ipc.UpdateCheck)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllowListBlocksArbitraryChannel(t *testing.T) {
	_, hub := newTestHub()
	p := attach(t, hub, "main")

	arbitrary := &eventLog{}
	theme := &eventLog{}
	p.On("arbitrary-channel", func(args []json.RawMessage) { arbitrary.add(string(args[0])) })
	p.On(ipc.EventThemeChanged, func(args []json.RawMessage) { theme.add(string(args[0])) })

	hub.Emit("main", "arbitrary-channel", "x")
	hub.Emit("main", ipc.EventThemeChanged, true)
	hub.Emit("main", ipc.EventThemeChanged, false)

	require.Eventually(t, func() bool { return len(theme.get()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"true", "false"}, theme.get())
	require.Empty(t, arbitrary.get())
}

func TestOnceAndSubscriptionClose(t *testing.T) {
	_, hub := newTestHub()
	p := attach(t, hub, "main")

	once := &eventLog{}
	all := &eventLog{}
	p.Once(ipc.EventTrayAction, func([]json.RawMessage) { once.add("once") })
	sub := p.On(ipc.EventTrayAction, func([]json.RawMessage) { all.add("on") })
	marker := &eventLog{}
	p.On(ipc.EventAppReady, func([]json.RawMessage) { marker.add("ready") })

	hub.Emit("main", ipc.EventTrayAction, ipc.TrayAction{Action: ipc.TrayShowAbout})
	hub.Emit("main", ipc.EventTrayAction, ipc.TrayAction{Action: ipc.TrayShowAbout})
	hub.Emit("main", ipc.EventAppReady)
	require.Eventually(t, func() bool { return len(marker.get()) == 1 }, time.Second, 5*time.Millisecond)

	sub.Close()
	sub.Close()
	hub.Emit("main", ipc.EventTrayAction, ipc.TrayAction{Action: ipc.TrayShowAbout})
	hub.Emit("main", ipc.EventAppReady)
	require.Eventually(t, func() bool { return len(marker.get()) == 2 }, time.Second, 5*time.Millisecond)

	require.Equal(t, []string{"once"}, once.get())
	require.Equal(t, []string{"on", "on"}, all.get())
}

func TestEmitTargetsOnlyTheWindow(t *testing.T) {
	_, hub := newTestHub()
	a := attach(t, hub, "a")
	b := attach(t, hub, "b")

	got := &eventLog{}
	a.On(ipc.EventWindowFocus, func([]json.RawMessage) { got.add("a") })
	b.On(ipc.EventWindowFocus, func([]json.RawMessage) { got.add("b") })

	hub.Emit("b", ipc.EventWindowFocus, ipc.WindowRef{ID: "b"})

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"b"}, got.get())
}

func TestSendIsFilteredOnBothSides(t *testing.T) {
	d, hub := newTestHub()
	got := &eventLog{}
	d.OnSend(ipc.SendUserAction, func(_ context.Context, args []json.RawMessage) { got.add(string(args[0])) })

	hostSide, uiSide := Pipe()
	go func() { _ = hub.Serve(context.Background(), "main", hostSide) }()
	p := NewProxy(uiSide, nil)
	defer p.Close()

	p.Send("arbitrary-channel", "ignored")
	// A renderer that skips the proxy still cannot reach unlisted channels.
	require.NoError(t, uiSide.WriteFrame(ipc.Frame{Kind: ipc.KindSend, Channel: "arbitrary-channel", Args: json.RawMessage(`["raw"]`)}))
	p.Send(ipc.SendUserAction, "clicked")

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{`"clicked"`}, got.get())
}

func TestCloseFailsPendingInvokes(t *testing.T) {
	d, hub := newTestHub()
	started := make(chan struct{})
	d.Bind(ipc.UpdateDownload, HandleNoArgs(func(context.Context) (any, error) {
		close(started)
		select {}
	}))
	hostSide, uiSide := Pipe()
	go func() { _ = hub.Serve(context.Background(), "main", hostSide) }()
	p := NewProxy(uiSide, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Invoke(context.Background(), ipc.UpdateDownload)
		errc <- err
	}()
	<-started
	require.NoError(t, p.Close())
	require.ErrorIs(t, <-errc, ErrClosed)
}

func TestWebsocketTransport(t *testing.T) {
	d, hub := newTestHub()
	d.Bind(ipc.AppGetVersion, HandleNoArgs(func(context.Context) (any, error) { return "9.9.9", nil }))
	hub.SetAuthorizer(func(window string) bool { return window == "main" })
	srv := httptest.NewServer(hub)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	p, err := Dial(context.Background(), wsURL, "main", nil)
	require.NoError(t, err)
	defer p.Close()

	out, err := p.Invoke(context.Background(), ipc.AppGetVersion)
	require.NoError(t, err)
	require.JSONEq(t, `"9.9.9"`, string(out))

	_, err = Dial(context.Background(), wsURL, "ghost", nil)
	require.Error(t, err)
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	_, hub := newTestHub()
	hub.origins = []string{"http://localhost"}
	srv := httptest.NewServer(hub)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?window=main"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"http://localhost:3000"}}
	c, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	c.Close()
}
