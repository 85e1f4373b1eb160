package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Title prefixes of the helper variants.
const (
	prefixSuccess = "✅ "
	prefixError   = "❌ "
	prefixWarning = "⚠️ "
	prefixInfo    = "ℹ️ "
)

const progressBarLength = 20

// Manager exposes the queue as envelope returning operations.
type Manager struct {
	queue *Queue
	log   logging.Logger
}

func NewManager(queue *Queue, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{queue: queue, log: log.With("component", "notify")}
}

// Queue returns the underlying queue.
func (m *Manager) Queue() *Queue {
	return m.queue
}

// Show queues a notification.
func (m *Manager) Show(opts ipc.NotificationOptions) ipc.Envelope {
	if strings.TrimSpace(opts.Title) == "" {
		return ipc.Fail(errors.Validation("system:notification", "title is required"))
	}
	if err := m.queue.Enqueue(toHost(opts)); err != nil {
		return m.fail(err)
	}
	return ipc.OKMessage(true, "notification sent")
}

// Success queues a normal-urgency notification marked as a success.
func (m *Manager) Success(title, body string) ipc.Envelope {
	return m.Show(ipc.NotificationOptions{Title: prefixSuccess + title, Body: body, Urgency: ipc.UrgencyNormal})
}

// Error queues a critical notification.
func (m *Manager) Error(title, body string) ipc.Envelope {
	return m.Show(ipc.NotificationOptions{Title: prefixError + title, Body: body, Urgency: ipc.UrgencyCritical})
}

// Warning queues a normal-urgency warning.
func (m *Manager) Warning(title, body string) ipc.Envelope {
	return m.Show(ipc.NotificationOptions{Title: prefixWarning + title, Body: body, Urgency: ipc.UrgencyNormal})
}

// Info queues a low-urgency notification.
func (m *Manager) Info(title, body string) ipc.Envelope {
	return m.Show(ipc.NotificationOptions{Title: prefixInfo + title, Body: body, Urgency: ipc.UrgencyLow})
}

// Progress queues a silent notification with a text progress bar.
func (m *Manager) Progress(title string, progress, total int) ipc.Envelope {
	if total <= 0 {
		return ipc.Fail(errors.Validation("notify:progress", "total must be positive"))
	}
	pct := int(math.Round(float64(progress) / float64(total) * 100))
	body := fmt.Sprintf("%s %d%% (%d/%d)", ProgressBar(pct), pct, progress, total)
	return m.Show(ipc.NotificationOptions{Title: title, Body: body, Silent: true, Urgency: ipc.UrgencyLow})
}

// Batch queues notifications until the queue is full; nothing is evicted.
func (m *Manager) Batch(list []ipc.NotificationOptions) ipc.Envelope {
	ns := make([]host.Notification, 0, len(list))
	for _, o := range list {
		ns = append(ns, toHost(o))
	}
	added, err := m.queue.EnqueueBatch(ns)
	if err != nil {
		return m.fail(err)
	}
	return ipc.OKMessage(true, fmt.Sprintf("added %d notifications to the queue", added))
}

// ClearQueue drops pending notifications.
func (m *Manager) ClearQueue() ipc.Envelope {
	m.queue.Clear()
	return ipc.OK(true)
}

// SetMaxQueueSize changes the queue capacity and returns the applied value.
func (m *Manager) SetMaxQueueSize(n int) ipc.Envelope {
	return ipc.OK(m.queue.SetCapacity(n))
}

// Settings reports support and queue state.
func (m *Manager) Settings() ipc.Envelope {
	return ipc.OK(m.queue.Stats())
}

func (m *Manager) fail(err error) ipc.Envelope {
	if errors.IsErr(err, host.ErrNotificationsUnsupported) {
		m.log.Warn("notification rejected", "error", err.Error())
		return ipc.Fail(err)
	}
	m.log.Error("queue notification failed", "error", err.Error())
	return ipc.Fail(errors.HostIO("notify", err))
}

// ProgressBar renders pct (0..100) as a fixed width bar.
func ProgressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(math.Round(float64(pct) / 100 * progressBarLength))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressBarLength-filled) + "]"
}

func toHost(o ipc.NotificationOptions) host.Notification {
	urgency := o.Urgency
	if urgency == "" {
		urgency = ipc.UrgencyNormal
	}
	return host.Notification{
		Title:   o.Title,
		Body:    o.Body,
		Icon:    o.Icon,
		Silent:  o.Silent,
		Urgency: string(urgency),
	}
}
