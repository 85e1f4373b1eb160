// Package hooks runs user scripts when host lifecycle events happen.
//
// Scripts live in <dir>/<point>/ and run in name order. Only executable
// regular files are considered. Each script receives DESKBRIDGE_HOOK_POINT,
// DESKBRIDGE_HOOK_TIMESTAMP and DESKBRIDGE_BINARY plus event variables.
package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Hook points.
const (
	AppReady            = "app-ready"
	SettingsChanged     = "settings-changed"
	WindowClosed        = "window-closed"
	NotificationClicked = "notification-clicked"
	BeforeQuit          = "before-quit"
)

// Failure modes.
const (
	FailureAbort  = "abort"
	FailureWarn   = "warn"
	FailureIgnore = "ignore"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxAsync = 10
)

// Options configures a Runner.
type Options struct {
	// Dir is the hooks root. Empty disables every hook.
	Dir         string
	FailureMode string
	// Async starts scripts without waiting for them.
	Async    bool
	Timeout  time.Duration
	MaxAsync int
	Log      logging.Logger
}

// Runner executes hook scripts.
type Runner struct {
	opts   Options
	log    logging.Logger
	binary string

	mu      sync.Mutex
	pending int
	wg      sync.WaitGroup
}

// New returns a runner. Zero values fall back to the defaults.
func New(opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAsync <= 0 {
		opts.MaxAsync = DefaultMaxAsync
	}
	switch opts.FailureMode {
	case FailureAbort, FailureWarn, FailureIgnore:
	default:
		opts.FailureMode = FailureWarn
	}
	binary, _ := os.Executable()
	return &Runner{opts: opts, log: opts.Log.With("component", "hooks"), binary: binary}
}

// Scripts lists the executable scripts for point in execution order.
func (r *Runner) Scripts(point string) []string {
	if r == nil || r.opts.Dir == "" {
		return nil
	}
	dir := filepath.Join(r.opts.Dir, point)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Mode()&0o111 == 0 {
			continue
		}
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)
	return scripts
}

// Run executes the scripts for point. env adds variables; keys are
// prefixed with DESKBRIDGE_ when they are not already. In abort mode the
// first failing synchronous script stops the run and its error is returned.
func (r *Runner) Run(ctx context.Context, point string, env map[string]string) error {
	scripts := r.Scripts(point)
	if len(scripts) == 0 {
		return nil
	}
	vars := r.environ(point, env)
	r.log.Info("running hooks", "point", point, "scripts", len(scripts))

	for _, script := range scripts {
		if r.opts.Async {
			r.start(ctx, script, vars)
			continue
		}
		if err := r.runSync(ctx, script, vars); err != nil && r.opts.FailureMode == FailureAbort {
			return err
		}
	}
	return nil
}

// Wait blocks until every async script has finished or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports the number of async scripts still running.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func (r *Runner) environ(point string, env map[string]string) []string {
	vars := os.Environ()
	vars = append(vars,
		"DESKBRIDGE_HOOK_POINT="+point,
		"DESKBRIDGE_HOOK_TIMESTAMP="+time.Now().Format(time.RFC3339),
		"DESKBRIDGE_HOOKS_FAILURE_MODE="+r.opts.FailureMode,
	)
	if r.binary != "" {
		vars = append(vars, "DESKBRIDGE_BINARY="+r.binary)
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := strings.ToUpper(k)
		if !strings.HasPrefix(name, "DESKBRIDGE_") {
			name = "DESKBRIDGE_" + name
		}
		vars = append(vars, name+"="+env[k])
	}
	return vars
}

func (r *Runner) runSync(ctx context.Context, script string, vars []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = vars
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	name := filepath.Base(script)
	if len(output) > 0 {
		r.log.Debug("hook output", "script", name, "output", strings.TrimSpace(string(output)))
	}
	if err != nil {
		r.report(name, err, time.Since(start))
		return fmt.Errorf("hook %s failed: %w", name, err)
	}
	r.log.Debug("hook completed", "script", name, "duration", time.Since(start).String())
	return nil
}

func (r *Runner) start(ctx context.Context, script string, vars []string) {
	name := filepath.Base(script)
	r.mu.Lock()
	if r.pending >= r.opts.MaxAsync {
		r.mu.Unlock()
		r.log.Warn("too many async hooks pending, skipping", "script", name, "max", r.opts.MaxAsync)
		return
	}
	r.pending++
	r.wg.Add(1)
	r.mu.Unlock()

	// The script outlives the caller's request; only the timeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.Timeout)
	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			r.pending--
			r.mu.Unlock()
			r.wg.Done()
		}()
		start := time.Now()
		cmd := exec.CommandContext(ctx, script)
		cmd.Env = vars
		cmd.WaitDelay = time.Second
		output, err := cmd.CombinedOutput()
		if len(output) > 0 {
			r.log.Debug("hook output", "script", name, "output", strings.TrimSpace(string(output)))
		}
		if ctx.Err() == context.DeadlineExceeded {
			r.log.Warn("async hook timed out", "script", name, "timeout", r.opts.Timeout.String())
			return
		}
		if err != nil {
			r.report(name, err, time.Since(start))
			return
		}
		r.log.Debug("async hook completed", "script", name, "duration", time.Since(start).String())
	}()
}

func (r *Runner) report(name string, err error, took time.Duration) {
	if r.opts.FailureMode == FailureIgnore {
		return
	}
	r.log.Warn("hook failed", "script", name, "error", err.Error(), "duration", took.String())
}
