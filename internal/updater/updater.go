// Package updater checks a JSON release feed, downloads the announced
// artifact and restarts the application to install it.
package updater

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/api"
	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/storage"
	"github.com/cristianoliveira/deskbridge/internal/version"
)

// Fetcher is the HTTP surface the updater needs; *api.Client satisfies it.
type Fetcher interface {
	Request(ctx context.Context, rc api.RequestConfig) ipc.Envelope
	Download(ctx context.Context, rawURL string, w io.Writer, progress func(pct int)) (int64, error)
}

// Broadcaster delivers host events to every window.
type Broadcaster interface {
	Broadcast(channel string, args ...any)
}

// Notifier presents informational notifications; *notify.Manager satisfies it.
type Notifier interface {
	Info(title, body string) ipc.Envelope
}

// CheckResult is the update:check data.
type CheckResult struct {
	Available bool            `json:"available"`
	Current   string          `json:"current"`
	Latest    *ipc.UpdateInfo `json:"latest,omitempty"`
}

// Options configures an Updater.
type Options struct {
	FeedURL string
	// Dir receives downloaded artifacts.
	Dir      string
	Client   Fetcher
	Windows  Broadcaster
	Notifier Notifier
	// Restart is called by Install; it must mark the app as quitting and
	// relaunch it.
	Restart func()
	Log     logging.Logger
}

type Updater struct {
	opts Options
	log  logging.Logger

	mu         sync.Mutex
	latest     *ipc.UpdateInfo
	downloaded string
}

func New(opts Options) *Updater {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Updater{opts: opts, log: log.With("component", "updater")}
}

// Configured reports whether a feed URL is set.
func (u *Updater) Configured() bool {
	return strings.TrimSpace(u.opts.FeedURL) != ""
}

func notConfigured(op string) ipc.Envelope {
	return ipc.Fail(errors.Validation(op, "updates not configured"))
}

// Check fetches the feed and broadcasts update-available when it announces
// a newer version than the running one.
func (u *Updater) Check(ctx context.Context) ipc.Envelope {
	if !u.Configured() {
		return notConfigured("update:check")
	}
	u.log.Info("checking for update", "feed", u.opts.FeedURL)

	info, err := u.fetch(ctx)
	if err != nil {
		u.log.Error("update check failed", "error", err.Error())
		return ipc.Fail(err)
	}

	result := CheckResult{Current: version.Version}
	if version.Compare(info.Version, version.Version) <= 0 {
		u.log.Info("already up to date", "version", version.Version)
		return ipc.OKMessage(result, "already up to date")
	}

	result.Available = true
	result.Latest = &info
	u.mu.Lock()
	u.latest = &info
	u.mu.Unlock()

	u.log.Info("update available", "version", info.Version)
	if u.opts.Windows != nil {
		u.opts.Windows.Broadcast(ipc.EventUpdateAvailable, info)
	}
	if u.opts.Notifier != nil {
		u.opts.Notifier.Info("Update available", "Version "+info.Version+" is available")
	}
	return ipc.OKMessage(result, "update available: "+info.Version)
}

func (u *Updater) fetch(ctx context.Context) (ipc.UpdateInfo, error) {
	env := u.opts.Client.Request(ctx, api.RequestConfig{URL: u.opts.FeedURL})
	if !env.Success {
		return ipc.UpdateInfo{}, errors.HostIO("update:check", errors.New(env.Error))
	}
	var info ipc.UpdateInfo
	if err := env.Decode(&info); err != nil || info.Version == "" || info.URL == "" {
		return ipc.UpdateInfo{}, errors.Validation("update:check", "invalid update feed")
	}
	return info, nil
}

// Download streams the announced artifact into Dir, checking the feed first
// when no update is known yet.
func (u *Updater) Download(ctx context.Context) ipc.Envelope {
	if !u.Configured() {
		return notConfigured("update:download")
	}
	u.mu.Lock()
	info := u.latest
	u.mu.Unlock()
	if info == nil {
		if env := u.Check(ctx); !env.Success {
			return env
		}
		u.mu.Lock()
		info = u.latest
		u.mu.Unlock()
		if info == nil {
			return ipc.Fail(errors.Validation("update:download", "no update available"))
		}
	}

	dest, err := u.save(ctx, *info)
	if err != nil {
		u.log.Error("update download failed", "version", info.Version, "error", err.Error())
		return ipc.Fail(err)
	}

	u.mu.Lock()
	u.downloaded = dest
	u.mu.Unlock()

	done := ipc.UpdateDownloaded{Version: info.Version, Path: dest}
	u.log.Info("update downloaded", "version", info.Version, "path", dest)
	if u.opts.Windows != nil {
		u.opts.Windows.Broadcast(ipc.EventUpdateDownloaded, done)
	}
	if u.opts.Notifier != nil {
		u.opts.Notifier.Info("Update downloaded", "Restart the application to apply the update")
	}
	return ipc.OKMessage(done, "update downloaded")
}

func (u *Updater) save(ctx context.Context, info ipc.UpdateInfo) (string, error) {
	if err := os.MkdirAll(u.opts.Dir, storage.FileModeDir); err != nil {
		return "", errors.HostIO("update:download", err)
	}
	tmp, err := os.CreateTemp(u.opts.Dir, ".download-*")
	if err != nil {
		return "", errors.HostIO("update:download", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	last := -1
	_, err = u.opts.Client.Download(ctx, info.URL, tmp, func(pct int) {
		if last < 0 || pct/10 != last/10 {
			last = pct
			u.log.Info("downloading update", "version", info.Version, "percent", pct)
		}
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	dest := filepath.Join(u.opts.Dir, artifactName(info))
	if err := os.Rename(tmpName, dest); err != nil {
		return "", errors.HostIO("update:download", err)
	}
	return dest, nil
}

// artifactName is the last path segment of the artifact URL, or a name
// derived from the version.
func artifactName(info ipc.UpdateInfo) string {
	if parsed, err := url.Parse(info.URL); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return "deskbridge-" + info.Version
}

// Install restarts the application once an update was downloaded.
func (u *Updater) Install() ipc.Envelope {
	if !u.Configured() {
		return notConfigured("update:install")
	}
	u.mu.Lock()
	downloaded := u.downloaded
	u.mu.Unlock()
	if downloaded == "" {
		return ipc.Fail(errors.Validation("update:install", "no update downloaded"))
	}
	u.log.Info("installing update", "path", downloaded)
	if u.opts.Restart != nil {
		u.opts.Restart()
	}
	return ipc.OKMessage(true, "restarting to install update")
}
