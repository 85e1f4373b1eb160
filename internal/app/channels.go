package app

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/api"
	"github.com/cristianoliveira/deskbridge/internal/bridge"
	"github.com/cristianoliveira/deskbridge/internal/database"
	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/files"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/settings"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
	"github.com/cristianoliveira/deskbridge/internal/version"
)

// bind registers one handler per invoke channel. Manager groups answer
// with envelopes; window and app groups answer with plain values.
func (a *App) bind() {
	d := a.dispatcher

	// window
	d.Bind(ipc.WindowCreate, bridge.Handle(func(_ context.Context, cfg ipc.WindowConfig) (any, error) {
		w, err := a.windows.Create(cfg)
		if err != nil {
			return nil, err
		}
		return ipc.WindowRef{ID: w.Label()}, nil
	}))
	d.Bind(ipc.WindowClose, windowOp(a.windows.Close))
	d.Bind(ipc.WindowMinimize, windowOp(a.windows.Minimize))
	d.Bind(ipc.WindowMaximize, windowOp(a.windows.Maximize))
	d.Bind(ipc.WindowRestore, windowOp(a.windows.Restore))
	d.Bind(ipc.WindowFocus, windowOp(a.windows.Focus))
	d.Bind(ipc.WindowList, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.windows.AllInfo(), nil
	}))

	// file
	d.Bind(ipc.FileOpenDialog, bridge.Handle(func(_ context.Context, req files.OpenDialogRequest) (any, error) {
		return a.files.OpenDialog(req), nil
	}))
	d.Bind(ipc.FileSaveDialog, bridge.Handle(func(_ context.Context, req files.SaveDialogRequest) (any, error) {
		return a.files.SaveDialog(req), nil
	}))
	d.Bind(ipc.FileRead, bridge.Handle(func(_ context.Context, path string) (any, error) {
		return a.files.Read(path), nil
	}))
	d.Bind(ipc.FileWrite, bridge.Handle2(func(_ context.Context, path string, data string) (any, error) {
		return a.files.Write(path, data), nil
	}))
	d.Bind(ipc.FileDelete, bridge.Handle(func(ctx context.Context, path string) (any, error) {
		return a.files.Delete(ctx, path), nil
	}))
	d.Bind(ipc.FileExecute, bridge.Handle(func(ctx context.Context, op files.Operation) (any, error) {
		return a.files.Execute(ctx, op), nil
	}))
	d.Bind(ipc.FileRecent, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.files.RecentList(), nil
	}))
	d.Bind(ipc.FileClearRecent, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.files.ClearRecent(), nil
	}))
	d.Bind(ipc.FileInfo, bridge.Handle(func(ctx context.Context, path string) (any, error) {
		return a.files.Info(ctx, path), nil
	}))
	d.Bind(ipc.FileListDir, bridge.Handle(func(_ context.Context, dir string) (any, error) {
		return a.files.ListDirectory(dir), nil
	}))
	d.Bind(ipc.FileShowInFolder, bridge.Handle(func(_ context.Context, path string) (any, error) {
		return a.files.ShowInFolder(path), nil
	}))
	d.Bind(ipc.FileOpenPath, bridge.Handle(func(_ context.Context, path string) (any, error) {
		return a.files.OpenWithDefaultApp(path), nil
	}))

	// db
	d.Bind(ipc.DBGetAll, bridge.HandleNoArgs(func(ctx context.Context) (any, error) {
		return a.db.GetAll(ctx), nil
	}))
	d.Bind(ipc.DBGetByID, bridge.Handle(func(ctx context.Context, id int64) (any, error) {
		return a.db.GetByID(ctx, id), nil
	}))
	d.Bind(ipc.DBCreate, bridge.Handle(func(ctx context.Context, rec database.NewRecord) (any, error) {
		return a.db.Create(ctx, rec), nil
	}))
	d.Bind(ipc.DBUpdate, bridge.Handle2(func(ctx context.Context, id int64, patch sqlite.UserPatch) (any, error) {
		return a.db.Update(ctx, id, patch), nil
	}))
	d.Bind(ipc.DBDelete, bridge.Handle(func(ctx context.Context, id int64) (any, error) {
		return a.db.Delete(ctx, id), nil
	}))
	d.Bind(ipc.DBStats, bridge.HandleNoArgs(func(ctx context.Context) (any, error) {
		return a.db.Statistics(ctx), nil
	}))
	d.Bind(ipc.DBBackup, bridge.Handle(func(ctx context.Context, dest string) (any, error) {
		return a.db.Backup(ctx, dest), nil
	}))

	// system
	d.Bind(ipc.SystemInfo, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return SystemInfo(), nil
	}))
	d.Bind(ipc.SystemNotification, bridge.Handle(func(_ context.Context, opts ipc.NotificationOptions) (any, error) {
		return a.notify.Show(opts), nil
	}))
	d.Bind(ipc.SystemTrayUpdate, bridge.Handle(func(_ context.Context, req ipc.TrayUpdate) (any, error) {
		return a.tray.Update(req), nil
	}))

	// settings
	d.Bind(ipc.SettingsGet, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.settings.Get(), nil
	}))
	d.Bind(ipc.SettingsSet, bridge.Handle(func(ctx context.Context, p settings.Patch) (any, error) {
		return a.settings.Set(ctx, p), nil
	}))
	d.Bind(ipc.SettingsReset, bridge.HandleNoArgs(func(ctx context.Context) (any, error) {
		return a.settings.Reset(ctx), nil
	}))
	d.Bind(ipc.SettingsExport, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.settings.Export(), nil
	}))
	d.Bind(ipc.SettingsImport, bridge.Handle(func(ctx context.Context, doc string) (any, error) {
		return a.settings.Import(ctx, doc), nil
	}))

	// update
	d.Bind(ipc.UpdateCheck, bridge.HandleNoArgs(func(ctx context.Context) (any, error) {
		return a.updater.Check(ctx), nil
	}))
	d.Bind(ipc.UpdateDownload, bridge.HandleNoArgs(func(ctx context.Context) (any, error) {
		return a.updater.Download(ctx), nil
	}))
	d.Bind(ipc.UpdateInstall, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return a.updater.Install(), nil
	}))

	// api
	d.Bind(ipc.APIRequest, bridge.Handle(func(ctx context.Context, rc api.RequestConfig) (any, error) {
		return a.api.Request(ctx, rc), nil
	}))

	// app
	d.Bind(ipc.AppQuit, bridge.HandleNoArgs(func(context.Context) (any, error) {
		a.Quit()
		return nil, nil
	}))
	d.Bind(ipc.AppRestart, bridge.HandleNoArgs(func(context.Context) (any, error) {
		a.Restart()
		return nil, nil
	}))
	d.Bind(ipc.AppGetVersion, bridge.HandleNoArgs(func(context.Context) (any, error) {
		return version.Version, nil
	}))

	a.bindSends()
}

// windowOp adapts a registry operation taking a window id. The id may be
// sent bare or as {"id": ...}.
func windowOp(fn func(id string) bool) bridge.Handler {
	return func(_ context.Context, args []json.RawMessage) (any, error) {
		id, err := windowID(args)
		if err != nil {
			return nil, err
		}
		return fn(id), nil
	}
}

func windowID(args []json.RawMessage) (string, error) {
	if len(args) == 0 {
		return "", errors.Validation("window", "window id is required")
	}
	var id string
	if err := json.Unmarshal(args[0], &id); err == nil {
		return id, nil
	}
	var ref ipc.WindowRef
	if err := json.Unmarshal(args[0], &ref); err != nil {
		return "", errors.Validation("window", "invalid window id: %v", err)
	}
	return ref.ID, nil
}

// SystemInfo describes the running process.
func SystemInfo() ipc.SystemInfoData {
	hostname, _ := os.Hostname()
	return ipc.SystemInfoData{
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		Versions: map[string]string{
			"go":         strings.TrimPrefix(runtime.Version(), "go"),
			"deskbridge": version.Version,
		},
		Hostname:   hostname,
		NumCPU:     runtime.NumCPU(),
		AppVersion: version.Version,
	}
}
