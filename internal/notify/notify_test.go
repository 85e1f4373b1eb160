package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/headless"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
)

func note(i int) host.Notification {
	return host.Notification{Title: fmt.Sprintf("n%d", i), Urgency: "normal"}
}

func titles(ns []host.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Title)
	}
	return out
}

func runQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestOverflowEvictsOldestPending(t *testing.T) {
	notifier := headless.NewNotifier(nil)
	q := NewQueue(notifier, 10, 0, nil)

	for i := 1; i <= 11; i++ {
		require.NoError(t, q.Enqueue(note(i)))
	}
	assert.Equal(t, 10, q.Stats().QueueSize)

	runQueue(t, q)
	require.Eventually(t, func() bool { return len(notifier.Shown()) == 10 }, time.Second, 5*time.Millisecond)

	want := make([]string, 0, 10)
	for i := 2; i <= 11; i++ {
		want = append(want, fmt.Sprintf("n%d", i))
	}
	assert.Equal(t, want, titles(notifier.Shown()))
	require.Eventually(t, func() bool { return !q.Stats().IsProcessing }, time.Second, 5*time.Millisecond)
}

// gatedNotifier blocks every Show until released and tracks overlap.
type gatedNotifier struct {
	mu      sync.Mutex
	shown   []host.Notification
	active  int
	overlap bool
	entered chan struct{}
	release chan struct{}
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{entered: make(chan struct{}, 64), release: make(chan struct{}, 64)}
}

func (g *gatedNotifier) Supported() bool                  { return true }
func (g *gatedNotifier) OnClick(func(n host.Notification)) {}

func (g *gatedNotifier) Show(n host.Notification) error {
	g.mu.Lock()
	g.active++
	if g.active > 1 {
		g.overlap = true
	}
	g.mu.Unlock()

	g.entered <- struct{}{}
	<-g.release

	g.mu.Lock()
	g.active--
	g.shown = append(g.shown, n)
	g.mu.Unlock()
	return nil
}

func (g *gatedNotifier) snapshot() ([]host.Notification, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]host.Notification(nil), g.shown...), g.overlap
}

func TestEntryBeingShownIsNeverEvicted(t *testing.T) {
	g := newGatedNotifier()
	q := NewQueue(g, 3, 0, nil)
	runQueue(t, q)

	require.NoError(t, q.Enqueue(note(1)))
	<-g.entered
	assert.True(t, q.Stats().IsProcessing)

	for i := 2; i <= 5; i++ {
		require.NoError(t, q.Enqueue(note(i)))
	}
	assert.Equal(t, 3, q.Stats().QueueSize)

	for i := 0; i < 4; i++ {
		g.release <- struct{}{}
		if i < 3 {
			<-g.entered
		}
	}

	require.Eventually(t, func() bool {
		shown, _ := g.snapshot()
		return len(shown) == 4
	}, time.Second, 5*time.Millisecond)
	shown, overlap := g.snapshot()
	assert.Equal(t, []string{"n1", "n3", "n4", "n5"}, titles(shown))
	assert.False(t, overlap, "presentations never overlap")
}

func TestDelayBetweenPresentations(t *testing.T) {
	notifier := headless.NewNotifier(nil)
	q := NewQueue(notifier, 10, 40*time.Millisecond, nil)
	require.NoError(t, q.Enqueue(note(1)))
	require.NoError(t, q.Enqueue(note(2)))

	start := time.Now()
	runQueue(t, q)
	require.Eventually(t, func() bool { return len(notifier.Shown()) == 2 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestUnsupportedIsRejectedBeforeQueueing(t *testing.T) {
	notifier := headless.NewNotifier(nil)
	notifier.SetSupported(false)
	m := NewManager(NewQueue(notifier, 10, 0, nil), nil)

	env := m.Show(ipc.NotificationOptions{Title: "hi"})
	require.False(t, env.Success)
	assert.Equal(t, "notifications are not supported on this system", env.Error)
	assert.Zero(t, m.Queue().Stats().QueueSize)
	assert.False(t, m.Queue().Stats().Supported)
}

func TestBatchStopsAtCapacity(t *testing.T) {
	notifier := headless.NewNotifier(nil)
	m := NewManager(NewQueue(notifier, 3, 0, nil), nil)
	require.True(t, m.Show(ipc.NotificationOptions{Title: "first"}).Success)

	batch := []ipc.NotificationOptions{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	env := m.Batch(batch)
	require.True(t, env.Success)
	assert.Equal(t, "added 2 notifications to the queue", env.Message)

	runQueue(t, m.Queue())
	require.Eventually(t, func() bool { return len(notifier.Shown()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "a", "b"}, titles(notifier.Shown()))
}

func TestSetMaxQueueSizeClampsAndTruncates(t *testing.T) {
	m := NewManager(NewQueue(headless.NewNotifier(nil), 10, 0, nil), nil)
	for i := 0; i < 5; i++ {
		require.True(t, m.Show(ipc.NotificationOptions{Title: fmt.Sprint(i)}).Success)
	}

	env := m.SetMaxQueueSize(0)
	assert.JSONEq(t, "1", string(env.Data))
	assert.Equal(t, 1, m.Queue().Stats().QueueSize)

	env = m.SetMaxQueueSize(500)
	assert.JSONEq(t, "50", string(env.Data))

	require.True(t, m.ClearQueue().Success)
	assert.Zero(t, m.Queue().Stats().QueueSize)
}

func TestHelperVariants(t *testing.T) {
	notifier := headless.NewNotifier(nil)
	m := NewManager(NewQueue(notifier, 10, 0, nil), nil)

	require.True(t, m.Success("Saved", "ok").Success)
	require.True(t, m.Error("Failed", "bad").Success)
	require.True(t, m.Warning("Careful", "hm").Success)
	require.True(t, m.Info("FYI", "x").Success)
	require.True(t, m.Progress("Upload", 1, 4).Success)
	assert.False(t, m.Progress("Upload", 1, 0).Success)
	assert.False(t, m.Show(ipc.NotificationOptions{}).Success)

	runQueue(t, m.Queue())
	require.Eventually(t, func() bool { return len(notifier.Shown()) == 5 }, time.Second, 5*time.Millisecond)
	shown := notifier.Shown()

	assert.Equal(t, "✅ Saved", shown[0].Title)
	assert.Equal(t, "critical", shown[1].Urgency)
	assert.Equal(t, "⚠️ Careful", shown[2].Title)
	assert.Equal(t, "low", shown[3].Urgency)
	assert.True(t, shown[4].Silent)
	assert.Equal(t, "[█████░░░░░░░░░░░░░░░] 25% (1/4)", shown[4].Body)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░]", ProgressBar(-5))
	assert.Equal(t, "[██████████░░░░░░░░░░]", ProgressBar(50))
	assert.Equal(t, "[████████████████████]", ProgressBar(150))
}
