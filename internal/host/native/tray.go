//go:build native

package native

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"fyne.io/systray"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Tray drives fyne.io/systray. The menu is rebuilt on every SetMenu.
type Tray struct {
	log     logging.Logger
	title   string
	ready   chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stop    chan struct{}
	tooltip string
}

var _ host.Tray = (*Tray)(nil)

// NewTray starts the systray loop in the background.
func NewTray(title string, log logging.Logger) *Tray {
	t := &Tray{log: log, title: title, ready: make(chan struct{})}
	go systray.Run(t.onReady, func() {})
	return t
}

func (t *Tray) onReady() {
	systray.SetIcon(iconPNG())
	systray.SetTitle(t.title)
	t.mu.Lock()
	if t.tooltip != "" {
		systray.SetTooltip(t.tooltip)
	}
	t.mu.Unlock()
	close(t.ready)
}

func (t *Tray) SetMenu(items []host.MenuItem, onClick func(id string)) {
	go func() {
		<-t.ready
		t.mu.Lock()
		if t.stop != nil {
			close(t.stop)
		}
		stop := make(chan struct{})
		t.stop = stop
		t.mu.Unlock()

		systray.ResetMenu()
		for _, item := range items {
			t.add(nil, item, onClick, stop)
		}
	}()
}

func (t *Tray) add(parent *systray.MenuItem, item host.MenuItem, onClick func(string), stop chan struct{}) {
	if item.Separator {
		// The toolkit has no submenu separators.
		if parent == nil {
			systray.AddSeparator()
		}
		return
	}
	var mi *systray.MenuItem
	if parent == nil {
		mi = systray.AddMenuItem(item.Label, item.Tooltip)
	} else {
		mi = parent.AddSubMenuItem(item.Label, item.Tooltip)
	}
	if item.Disabled {
		mi.Disable()
	}
	if item.Checked {
		mi.Check()
	}
	for _, child := range item.Children {
		t.add(mi, child, onClick, stop)
	}
	if len(item.Children) > 0 || item.ID == "" {
		return
	}
	go func(id string, ch <-chan struct{}) {
		for {
			select {
			case <-ch:
				onClick(id)
			case <-stop:
				return
			}
		}
	}(item.ID, mi.ClickedCh)
}

func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	t.tooltip = tooltip
	t.mu.Unlock()
	select {
	case <-t.ready:
		systray.SetTooltip(tooltip)
	default:
	}
}

// OnClick is a no-op: the toolkit opens the menu on icon clicks, and the
// menu carries a show/hide entry instead.
func (t *Tray) OnClick(fn func()) {}

func (t *Tray) Destroy() {
	t.once.Do(func() {
		t.mu.Lock()
		if t.stop != nil {
			close(t.stop)
			t.stop = nil
		}
		t.mu.Unlock()
		systray.Quit()
	})
}

// iconPNG draws a 22x22 bridge glyph: two posts joined by an arc.
func iconPNG() []byte {
	const size = 22
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			alpha := 0.0
			if (fx >= 3 && fx <= 5 || fx >= 17 && fx <= 19) && fy >= 6 && fy <= 18 {
				alpha = 1
			}
			d := math.Hypot(fx-11, fy-16)
			if d >= 7 && d <= 9 && fy <= 16 {
				alpha = 1
			}
			if fy >= 13 && fy <= 15 && fx >= 3 && fx <= 19 {
				alpha = 1
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(alpha * 255)})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
