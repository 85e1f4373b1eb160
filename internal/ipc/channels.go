// Package ipc defines the names and shapes exchanged between the host
// process and renderer processes: invoke channels, the event allow-lists,
// the response envelope and the wire frame.
package ipc

import "sort"

// Invoke channels. Each one is bound to exactly one host handler.
const (
	WindowCreate   = "window:create"
	WindowClose    = "window:close"
	WindowMinimize = "window:minimize"
	WindowMaximize = "window:maximize"
	WindowRestore  = "window:restore"
	WindowFocus    = "window:focus"
	WindowList     = "window:list"

	FileOpenDialog   = "file:open-dialog"
	FileSaveDialog   = "file:save-dialog"
	FileRead         = "file:read"
	FileWrite        = "file:write"
	FileDelete       = "file:delete"
	FileExecute      = "file:execute-operation"
	FileRecent       = "file:recent"
	FileClearRecent  = "file:clear-recent"
	FileInfo         = "file:info"
	FileListDir      = "file:list-dir"
	FileShowInFolder = "file:show-in-folder"
	FileOpenPath     = "file:open-path"

	DBGetAll  = "db:get-all"
	DBGetByID = "db:get-by-id"
	DBCreate  = "db:create"
	DBUpdate  = "db:update"
	DBDelete  = "db:delete"
	DBStats   = "db:stats"
	DBBackup  = "db:backup"

	SystemInfo         = "system:info"
	SystemNotification = "system:notification"
	SystemTrayUpdate   = "system:tray-update"

	SettingsGet    = "settings:get"
	SettingsSet    = "settings:set"
	SettingsReset  = "settings:reset"
	SettingsExport = "settings:export"
	SettingsImport = "settings:import"

	UpdateCheck    = "update:check"
	UpdateDownload = "update:download"
	UpdateInstall  = "update:install"

	APIRequest = "api:request"

	AppQuit       = "app:quit"
	AppRestart    = "app:restart"
	AppGetVersion = "app:get-version"
)

// Host to renderer events.
const (
	EventMenuAction          = "menu-action"
	EventTrayAction          = "tray-action"
	EventThemeChanged        = "theme-changed"
	EventSettingsChanged     = "settings-changed"
	EventUpdateAvailable     = "update-available"
	EventUpdateDownloaded    = "update-downloaded"
	EventNotificationClicked = "notification-clicked"
	EventWindowFocus         = "window-focus"
	EventWindowBlur          = "window-blur"
	EventAppReady            = "app-ready"
	EventFileDropped         = "file-dropped"
)

// Renderer to host events.
const (
	SendRendererReady = "renderer-ready"
	SendWindowAction  = "window-action"
	SendUserAction    = "user-action"
	SendAppEvent      = "app-event"
)

var invokeChannels = set(
	WindowCreate, WindowClose, WindowMinimize, WindowMaximize, WindowRestore, WindowFocus, WindowList,
	FileOpenDialog, FileSaveDialog, FileRead, FileWrite, FileDelete, FileExecute, FileRecent,
	FileClearRecent, FileInfo, FileListDir, FileShowInFolder, FileOpenPath,
	DBGetAll, DBGetByID, DBCreate, DBUpdate, DBDelete, DBStats, DBBackup,
	SystemInfo, SystemNotification, SystemTrayUpdate,
	SettingsGet, SettingsSet, SettingsReset, SettingsExport, SettingsImport,
	UpdateCheck, UpdateDownload, UpdateInstall,
	APIRequest,
	AppQuit, AppRestart, AppGetVersion,
)

var hostToUI = set(
	EventMenuAction, EventTrayAction, EventThemeChanged, EventSettingsChanged,
	EventUpdateAvailable, EventUpdateDownloaded, EventNotificationClicked,
	EventWindowFocus, EventWindowBlur, EventAppReady, EventFileDropped,
)

var uiToHost = set(SendRendererReady, SendWindowAction, SendUserAction, SendAppEvent)

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func sorted(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsInvoke reports whether name is a request/response channel.
func IsInvoke(name string) bool {
	_, ok := invokeChannels[name]
	return ok
}

// CanListen reports whether a renderer may subscribe to the host event name.
func CanListen(name string) bool {
	_, ok := hostToUI[name]
	return ok
}

// CanSend reports whether a renderer may push the event name to the host.
func CanSend(name string) bool {
	_, ok := uiToHost[name]
	return ok
}

// InvokeChannels returns every invoke channel, sorted.
func InvokeChannels() []string { return sorted(invokeChannels) }

// HostEvents returns the host to renderer allow-list, sorted.
func HostEvents() []string { return sorted(hostToUI) }

// RendererEvents returns the renderer to host allow-list, sorted.
func RendererEvents() []string { return sorted(uiToHost) }
