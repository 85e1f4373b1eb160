package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
)

// Source delivers host events; *bridge.Proxy satisfies it.
type Source interface {
	Client
	On(channel string, fn bridge.Listener) *bridge.Subscription
	Done() <-chan struct{}
}

// Subscribe forwards every host event channel to send and returns the
// subscriptions so the caller can close them.
func Subscribe(src Source, send func(tea.Msg)) []*bridge.Subscription {
	subs := make([]*bridge.Subscription, 0, len(ipc.HostEvents()))
	for _, ch := range ipc.HostEvents() {
		ch := ch
		subs = append(subs, src.On(ch, func(args []json.RawMessage) {
			send(EventMsg{Channel: ch, Args: args, At: time.Now()})
		}))
	}
	return subs
}

// Run shows the inspector until the user quits, ctx ends or the bridge
// connection drops.
func Run(ctx context.Context, src Source, window string, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(src, window), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	subs := Subscribe(src, p.Send)
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	go func() {
		select {
		case <-src.Done():
			p.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("inspector: %w", err)
	}
	return nil
}
