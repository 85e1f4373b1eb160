package ipc

// WindowConfig is the window:create request.
type WindowConfig struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	MinWidth    int    `json:"minWidth,omitempty"`
	MinHeight   int    `json:"minHeight,omitempty"`
	Resizable   *bool  `json:"resizable,omitempty"`
	Maximizable *bool  `json:"maximizable,omitempty"`
	Minimizable *bool  `json:"minimizable,omitempty"`
	// Show defaults to true. When false the window appears on ready-to-show.
	Show *bool `json:"show,omitempty"`
}

// WindowInfo is one entry of the window:list snapshot.
type WindowInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IsVisible bool   `json:"isVisible"`
	IsFocused bool   `json:"isFocused"`
}

// WindowRef is the payload of window-focus and window-blur.
type WindowRef struct {
	ID string `json:"id"`
}

// Urgency of a notification.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
	UrgencyLow      Urgency = "low"
)

// NotificationOptions is the system:notification request.
type NotificationOptions struct {
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Icon    string  `json:"icon,omitempty"`
	Silent  bool    `json:"silent,omitempty"`
	Urgency Urgency `json:"urgency,omitempty"`
}

// TrayUpdate is the system:tray-update request.
type TrayUpdate struct {
	Tooltip string `json:"tooltip"`
}

// Tray actions delivered on tray-action.
const (
	TrayCreateNewWindow  = "create-new-window"
	TrayOpenSettings     = "open-settings"
	TrayOpenDataManager  = "open-data-manager"
	TrayOpenFileManager  = "open-file-manager"
	TrayShowSystemInfo   = "show-system-info"
	TraySendNotification = "send-test-notification"
	TrayCheckUpdates     = "check-updates"
	TrayShowAbout        = "show-about"
)

// TrayAction is the tray-action payload.
type TrayAction struct {
	Action string `json:"action"`
}

// MenuAction is the menu-action payload.
type MenuAction struct {
	Action    string   `json:"action"`
	FilePaths []string `json:"filePaths,omitempty"`
	FilePath  string   `json:"filePath,omitempty"`
	Theme     string   `json:"theme,omitempty"`
}

// SystemInfoData is the system:info response.
type SystemInfoData struct {
	Platform   string            `json:"platform"`
	Arch       string            `json:"arch"`
	Versions   map[string]string `json:"versions"`
	Hostname   string            `json:"hostname,omitempty"`
	NumCPU     int               `json:"numCPU"`
	AppVersion string            `json:"appVersion"`
}

// UpdateInfo is the update-available payload and update:check data.
type UpdateInfo struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
}

// UpdateDownloaded is the update-downloaded payload.
type UpdateDownloaded struct {
	Version string `json:"version"`
	Path    string `json:"path"`
}
