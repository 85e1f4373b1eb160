package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeUnboundChannelIsNotFound(t *testing.T) {
	d := NewDispatcher(nil)
	d.Bind(ipc.AppGetVersion, HandleNoArgs(func(context.Context) (any, error) { return "1.2.3", nil }))

	_, err := d.Invoke(context.Background(), ipc.SettingsGet, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindNotFound))

	_, err = d.Invoke(context.Background(), "not-a-channel", nil)
	require.True(t, errors.Is(err, errors.KindNotFound))

	out, err := d.Invoke(context.Background(), ipc.AppGetVersion, nil)
	require.NoError(t, err)
	require.JSONEq(t, `"1.2.3"`, string(out))
}

func TestInvokeKeepsHandlerMessage(t *testing.T) {
	d := NewDispatcher(nil)
	d.Bind(ipc.FileRead, HandleNoArgs(func(context.Context) (any, error) {
		return nil, fmt.Errorf("open /x: permission denied")
	}))

	_, err := d.Invoke(context.Background(), ipc.FileRead, nil)
	require.EqualError(t, err, "open /x: permission denied")
}

func TestInvokeRecoversPanics(t *testing.T) {
	d := NewDispatcher(nil)
	d.Bind(ipc.SystemInfo, HandleNoArgs(func(context.Context) (any, error) { panic("boom") }))
	d.Bind(ipc.AppGetVersion, HandleNoArgs(func(context.Context) (any, error) { return "ok", nil }))

	_, err := d.Invoke(context.Background(), ipc.SystemInfo, nil)
	require.True(t, errors.Is(err, errors.KindInternal))
	require.Contains(t, err.Error(), "boom")

	_, err = d.Invoke(context.Background(), ipc.AppGetVersion, nil)
	require.NoError(t, err)
}

func TestBindPanicsOnMisuse(t *testing.T) {
	d := NewDispatcher(nil)
	h := HandleNoArgs(func(context.Context) (any, error) { return nil, nil })
	d.Bind(ipc.AppQuit, h)

	assert.Panics(t, func() { d.Bind(ipc.AppQuit, h) })
	assert.Panics(t, func() { d.Bind(ipc.EventThemeChanged, h) })
	assert.Panics(t, func() { d.OnSend(ipc.AppQuit, func(context.Context, []json.RawMessage) {}) })
}

func TestUnboundListsMissingChannels(t *testing.T) {
	d := NewDispatcher(nil)
	all := ipc.InvokeChannels()
	for _, ch := range all[1:] {
		d.Bind(ch, HandleNoArgs(func(context.Context) (any, error) { return nil, nil }))
	}

	require.Equal(t, []string{all[0]}, d.Unbound())
	require.Len(t, d.Channels(), len(all)-1)
}

func TestTypedBindingValidatesBeforeHandler(t *testing.T) {
	type req struct {
		ID    string `json:"id"`
		Width int    `json:"width"`
	}
	d := NewDispatcher(nil)
	called := 0
	d.Bind(ipc.WindowCreate, Handle(func(_ context.Context, r req) (any, error) {
		called++
		return r.ID, nil
	}))

	_, err := d.Invoke(context.Background(), ipc.WindowCreate, json.RawMessage(`[{"id":"w1","width":"wide"}]`))
	require.True(t, errors.Is(err, errors.KindValidation))
	require.Equal(t, 0, called)

	out, err := d.Invoke(context.Background(), ipc.WindowCreate, json.RawMessage(`[{"id":"w1","width":300}]`))
	require.NoError(t, err)
	require.JSONEq(t, `"w1"`, string(out))

	_, err = d.Invoke(context.Background(), ipc.WindowCreate, json.RawMessage(`{"id":"w1"}`))
	require.True(t, errors.Is(err, errors.KindValidation))
}

func TestHandle2DecodesBothArguments(t *testing.T) {
	d := NewDispatcher(nil)
	d.Bind(ipc.FileWrite, Handle2(func(_ context.Context, path, data string) (any, error) {
		return path + "=" + data, nil
	}))

	out, err := d.Invoke(context.Background(), ipc.FileWrite, json.RawMessage(`["/tmp/a","hello"]`))
	require.NoError(t, err)
	require.JSONEq(t, `"/tmp/a=hello"`, string(out))
}

func TestDeliverEnforcesRendererAllowList(t *testing.T) {
	d := NewDispatcher(nil)
	var got []string
	d.OnSend(ipc.SendRendererReady, func(ctx context.Context, args []json.RawMessage) {
		got = append(got, WindowFrom(ctx))
	})

	ctx := WithWindow(context.Background(), "main")
	require.NoError(t, d.Deliver(ctx, ipc.SendRendererReady, nil))
	err := d.Deliver(ctx, "arbitrary-channel", nil)
	require.True(t, errors.Is(err, errors.KindUnauthorized))
	require.Equal(t, []string{"main"}, got)
}
