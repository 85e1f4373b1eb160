// Package app assembles the host process: it owns every manager, binds the
// invoke channels and drives the application lifecycle.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/api"
	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/config"
	"github.com/cristianoliveira/deskbridge/internal/database"
	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/files"
	"github.com/cristianoliveira/deskbridge/internal/hooks"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/menu"
	"github.com/cristianoliveira/deskbridge/internal/notify"
	"github.com/cristianoliveira/deskbridge/internal/settings"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
	"github.com/cristianoliveira/deskbridge/internal/tray"
	"github.com/cristianoliveira/deskbridge/internal/updater"
	"github.com/cristianoliveira/deskbridge/internal/version"
	"github.com/cristianoliveira/deskbridge/internal/window"
)

// BridgePath is where renderers open their websocket.
const BridgePath = "/bridge"

// DatabaseName is the SQLite file under the data directory.
const DatabaseName = "deskbridge.db"

const shutdownTimeout = 5 * time.Second

// Options configures the host process.
type Options struct {
	Host             host.Host
	ListenAddr       string
	RendererURL      string
	DataDir          string
	StartHidden      bool
	AllowedOrigins   []string
	APIBaseURL       string
	APITimeout       time.Duration
	UpdateFeedURL    string
	RecentMax        int
	QueueSize        int
	NotifyDelay      time.Duration
	// HooksDir holds user scripts run on lifecycle events. Empty disables them.
	HooksDir         string
	HooksAsync       bool
	HooksFailureMode string
	HooksTimeout     time.Duration
	Log              logging.Logger
}

// OptionsFromConfig reads the loaded configuration. The caller supplies
// the host.
func OptionsFromConfig(h host.Host) Options {
	return Options{
		Host:             h,
		ListenAddr:       config.Get("listen_addr", "127.0.0.1:7450"),
		RendererURL:      config.Get("renderer_url", "http://localhost:3000"),
		DataDir:          config.Get("data_dir", ""),
		AllowedOrigins:   config.GetList("allowed_origins"),
		APIBaseURL:       config.Get("api_base_url", api.DefaultBaseURL),
		APITimeout:       config.GetDuration("api_timeout_ms", api.DefaultTimeout),
		UpdateFeedURL:    config.Get("update_feed_url", ""),
		RecentMax:        config.GetInt("recent_files_max", files.DefaultRecentMax),
		QueueSize:        config.GetInt("notification_queue_size", notify.DefaultCapacity),
		NotifyDelay:      config.GetDuration("notification_delay_ms", notify.DefaultDelay),
		HooksDir:         config.Get("hooks_dir", ""),
		HooksAsync:       config.GetBool("hooks_async", true),
		HooksFailureMode: config.Get("hooks_failure_mode", hooks.FailureWarn),
		HooksTimeout:     config.GetDuration("hooks_timeout_ms", hooks.DefaultTimeout),
	}
}

// App is the host process.
type App struct {
	opts Options
	host host.Host
	log  logging.Logger

	dispatcher *bridge.Dispatcher
	hub        *bridge.Hub
	windows    *window.Registry
	store      *sqlite.SQLiteStorage
	db         *database.Manager
	settings   *settings.Manager
	files      *files.Manager
	notify     *notify.Manager
	api        *api.Client
	updater    *updater.Updater
	tray       *tray.Controller
	menu       *menu.Menu
	hooks      *hooks.Runner

	quitting atomic.Bool

	mu   sync.Mutex
	addr string
}

// New opens the database, builds every manager and binds every invoke
// channel. It fails when a channel is left without a handler.
func New(ctx context.Context, opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	if opts.DataDir == "" {
		return nil, errors.Validation("app.new", "data dir is required")
	}
	if opts.Host.Windows == nil || opts.Host.Lifecycle == nil {
		return nil, errors.Validation("app.new", "host windows and lifecycle are required")
	}

	store, err := sqlite.Open(filepath.Join(opts.DataDir, DatabaseName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{opts: opts, host: opts.Host, log: log, store: store}
	if err := a.build(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.bind()
	if missing := a.dispatcher.Unbound(); len(missing) > 0 {
		_ = store.Close()
		return nil, fmt.Errorf("unbound invoke channels: %s", strings.Join(missing, ", "))
	}
	a.observe()
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	h := a.host
	a.dispatcher = bridge.NewDispatcher(a.log.With("component", "dispatcher"))
	a.hub = bridge.NewHub(a.dispatcher, a.log.With("component", "hub"), a.opts.AllowedOrigins)
	a.windows = window.NewRegistry(h.Windows, a.opts.RendererURL, a.log.With("component", "windows"))
	a.hub.SetAuthorizer(a.windows.Has)

	a.db = database.NewManager(a.store, a.log)

	sm, err := settings.NewManager(ctx, a.store, h.Windows, h.Login, a.log)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.settings = sm
	// The host starts from its own defaults; push the saved theme and
	// login item before any window exists.
	sm.Apply()

	paths := h.Lifecycle.Paths()
	userData := paths.UserData
	if userData == "" {
		userData = a.opts.DataDir
		paths.UserData = userData
	}
	recent := files.LoadRecentFiles(filepath.Join(userData, files.RecentFilesName), a.opts.RecentMax, a.log)
	a.files = files.NewManager(h.Dialogs, h.Shell, paths, recent, a.store, a.log)

	a.notify = notify.NewManager(notify.NewQueue(h.Notifier, a.opts.QueueSize, a.opts.NotifyDelay, a.log), a.log)
	a.api = api.New(a.opts.APIBaseURL, a.opts.APITimeout, a.log)
	a.updater = updater.New(updater.Options{
		FeedURL:  a.opts.UpdateFeedURL,
		Dir:      filepath.Join(a.opts.DataDir, "updates"),
		Client:   a.api,
		Windows:  a.windows,
		Notifier: a.notify,
		Restart:  a.Restart,
		Log:      a.log,
	})
	a.hooks = hooks.New(hooks.Options{
		Dir:         a.opts.HooksDir,
		FailureMode: a.opts.HooksFailureMode,
		Async:       a.opts.HooksAsync,
		Timeout:     a.opts.HooksTimeout,
		Log:         a.log,
	})
	a.tray = tray.New(h.Tray, a.windows, a.Quit, a.log)
	a.menu = menu.New(menu.Deps{
		Windows: a.windows,
		Dialogs: h.Dialogs,
		Shell:   h.Shell,
		Themes:  a.settings,
		Quit:    a.Quit,
		Log:     a.log,
	})
	return nil
}

// observe wires host and manager callbacks to broadcasts.
func (a *App) observe() {
	a.settings.OnChange(func(current, _ settings.Settings) {
		a.windows.Broadcast(ipc.EventSettingsChanged, current)
		a.fire(hooks.SettingsChanged, settingsEnv(current))
	})
	if a.host.Notifier != nil {
		a.host.Notifier.OnClick(func(n host.Notification) {
			a.windows.Broadcast(ipc.EventNotificationClicked, ipc.NotificationOptions{
				Title: n.Title, Body: n.Body, Icon: n.Icon, Silent: n.Silent, Urgency: ipc.Urgency(n.Urgency),
			})
			a.fire(hooks.NotificationClicked, map[string]string{
				"notification_title": n.Title,
				"notification_body":  n.Body,
			})
		})
	}
	a.windows.OnClosed(a.hub.Detach)
	a.windows.OnClosed(func(id string) {
		a.fire(hooks.WindowClosed, map[string]string{"window": id})
	})
	a.windows.OnAllClosed(a.windowAllClosed)
}

// Hub is the event sink renderers attach to.
func (a *App) Hub() *bridge.Hub { return a.hub }

// Dispatcher returns the invoke dispatcher.
func (a *App) Dispatcher() *bridge.Dispatcher { return a.dispatcher }

// Windows returns the window registry.
func (a *App) Windows() *window.Registry { return a.windows }

// Settings returns the settings manager.
func (a *App) Settings() *settings.Manager { return a.settings }

// Menu returns the application menu.
func (a *App) Menu() *menu.Menu { return a.menu }

// Addr returns the bridge listen address once Run started serving.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Handler serves the bridge and a health probe.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(BridgePath, a.hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, version.Version)
	})
	return mux
}

// Run serves the bridge, performs the ready sequence and blocks until ctx
// ends or a quit is requested.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.notify.Queue().Run(ctx)

	ln, err := net.Listen("tcp", a.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.opts.ListenAddr, err)
	}
	srv := &http.Server{Handler: a.Handler(), ReadHeaderTimeout: 5 * time.Second}
	a.mu.Lock()
	a.addr = ln.Addr().String()
	a.mu.Unlock()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.log.Error("bridge server stopped", "error", err.Error())
		}
	}()
	a.log.Info("bridge listening", "addr", ln.Addr().String(), "path", BridgePath)

	if err := a.ready(ctx); err != nil {
		a.shutdown(srv)
		return err
	}

	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
		a.Quit()
	case <-a.host.Lifecycle.Done():
	}
	a.shutdown(srv)
	return nil
}

// ready mirrors the desktop ready sequence: main window, tray, welcome
// notification, app-ready and the startup update check.
func (a *App) ready(ctx context.Context) error {
	a.log.Info("application ready", "version", version.String())
	a.windows.StartHidden(a.opts.StartHidden)
	if _, err := a.windows.CreateMain(); err != nil {
		return fmt.Errorf("create main window: %w", err)
	}
	a.tray.Start()

	current := a.settings.Get()
	if current.Notifications {
		if env := a.notify.Show(ipc.NotificationOptions{Title: "deskbridge", Body: "Application started"}); !env.Success {
			a.log.Warn("welcome notification skipped", "error", env.Error)
		}
	}
	a.windows.Broadcast(ipc.EventAppReady, readyPayload())
	a.fire(hooks.AppReady, map[string]string{"version": version.Version, "bridge_addr": a.Addr()})

	if current.AutoUpdate && a.updater.Configured() {
		go a.updater.Check(ctx)
	}
	return nil
}

type appReady struct {
	Version string `json:"version"`
}

func readyPayload() appReady { return appReady{Version: version.Version} }

func (a *App) shutdown(srv *http.Server) {
	a.log.Info("shutting down")
	a.quitting.Store(true)
	a.fire(hooks.BeforeQuit, map[string]string{"relaunch": fmt.Sprint(a.host.Lifecycle.Relaunching())})
	a.tray.Destroy()
	a.windows.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.hooks.Wait(ctx); err != nil {
		a.log.Warn("hooks still running at shutdown", "pending", a.hooks.Pending())
	}
	if err := srv.Shutdown(ctx); err != nil {
		a.log.Warn("bridge shutdown incomplete", "error", err.Error())
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close database failed", "error", err.Error())
	}
}

// Close releases resources of an App that never ran.
func (a *App) Close() error {
	return a.store.Close()
}
