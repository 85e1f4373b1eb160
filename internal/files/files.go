// Package files serves the file capability: native dialogs, file I/O on
// behalf of renderers, shell integration and the recent files list.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
)

// Tracker records file metadata in the local database. Optional.
type Tracker interface {
	TrackFile(ctx context.Context, f sqlite.FileRecord) error
	ForgetFile(ctx context.Context, path string) error
}

// Dialog property names accepted in OpenDialogRequest.Properties.
const (
	PropOpenFile       = "openFile"
	PropOpenDirectory  = "openDirectory"
	PropMultiSelection = "multiSelections"
)

// OpenDialogRequest is the payload of file:open-dialog.
type OpenDialogRequest struct {
	Title       string            `json:"title,omitempty"`
	DefaultPath string            `json:"defaultPath,omitempty"`
	Filters     []host.FileFilter `json:"filters,omitempty"`
	Properties  []string          `json:"properties,omitempty"`
}

// SaveDialogRequest is the payload of file:save-dialog.
type SaveDialogRequest struct {
	Title       string            `json:"title,omitempty"`
	DefaultPath string            `json:"defaultPath,omitempty"`
	Filters     []host.FileFilter `json:"filters,omitempty"`
}

// Info describes one file or directory.
type Info struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	IsFile      bool      `json:"isFile"`
	IsDirectory bool      `json:"isDirectory"`
	Mode        string    `json:"mode"`
	Modified    time.Time `json:"modified"`
	Hash        string    `json:"hash,omitempty"`
}

// Entry is one item of a directory listing. Entries that could not be
// inspected carry Error and no size or time.
type Entry struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	IsFile      bool       `json:"isFile"`
	IsDirectory bool       `json:"isDirectory"`
	Size        *int64     `json:"size"`
	Modified    *time.Time `json:"modified"`
	Error       string     `json:"error,omitempty"`
}

var defaultOpenFilters = []host.FileFilter{
	{Name: "All Files", Extensions: []string{"*"}},
	{Name: "Text Files", Extensions: []string{"txt", "md", "json", "js", "ts", "html", "css"}},
	{Name: "Images", Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "svg"}},
	{Name: "Documents", Extensions: []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx"}},
}

var defaultSaveFilters = []host.FileFilter{
	{Name: "Text Files", Extensions: []string{"txt"}},
	{Name: "JSON Files", Extensions: []string{"json"}},
	{Name: "Markdown Files", Extensions: []string{"md"}},
	{Name: "All Files", Extensions: []string{"*"}},
}

// Manager implements the file channels.
type Manager struct {
	dialogs host.Dialogs
	shell   host.Shell
	paths   host.Paths
	recent  *RecentFiles
	tracker Tracker
	log     logging.Logger
}

// NewManager wires the file capability. tracker may be nil.
func NewManager(dialogs host.Dialogs, shell host.Shell, paths host.Paths, recent *RecentFiles, tracker Tracker, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{
		dialogs: dialogs,
		shell:   shell,
		paths:   paths,
		recent:  recent,
		tracker: tracker,
		log:     log.With("component", "files"),
	}
}

// Recent exposes the recent files list.
func (m *Manager) Recent() *RecentFiles {
	return m.recent
}

// OpenDialog asks the user for files. Every chosen path becomes recent.
func (m *Manager) OpenDialog(req OpenDialogRequest) ipc.Envelope {
	opts := host.OpenDialogOptions{
		Title:       req.Title,
		DefaultPath: req.DefaultPath,
		Filters:     req.Filters,
		Multiple:    true,
	}
	if opts.Title == "" {
		opts.Title = "Select Files"
	}
	if opts.DefaultPath == "" {
		opts.DefaultPath = m.paths.Documents
	}
	if len(opts.Filters) == 0 {
		opts.Filters = defaultOpenFilters
	}
	if len(req.Properties) > 0 {
		opts.Multiple = false
		for _, p := range req.Properties {
			switch p {
			case PropMultiSelection:
				opts.Multiple = true
			case PropOpenDirectory:
				opts.Directory = true
			}
		}
	}

	paths, err := m.dialogs.OpenFile(opts)
	if errors.IsErr(err, host.ErrDialogCanceled) || (err == nil && len(paths) == 0) {
		return ipc.Failf("user canceled file selection")
	}
	if err != nil {
		return m.fail("open dialog", err)
	}
	for _, p := range paths {
		m.recent.Add(p)
	}
	m.log.Info("files selected", "count", len(paths))
	return ipc.OK(paths)
}

// SaveDialog asks the user for a destination path.
func (m *Manager) SaveDialog(req SaveDialogRequest) ipc.Envelope {
	opts := host.SaveDialogOptions{
		Title:       req.Title,
		DefaultPath: req.DefaultPath,
		Filters:     req.Filters,
	}
	if opts.Title == "" {
		opts.Title = "Save File"
	}
	if opts.DefaultPath == "" {
		opts.DefaultPath = filepath.Join(m.paths.Documents, "untitled.txt")
	}
	if len(opts.Filters) == 0 {
		opts.Filters = defaultSaveFilters
	}

	path, err := m.dialogs.SaveFile(opts)
	if errors.IsErr(err, host.ErrDialogCanceled) || (err == nil && path == "") {
		return ipc.Failf("user canceled file save")
	}
	if err != nil {
		return m.fail("save dialog", err)
	}
	m.log.Info("save path selected", "path", path)
	return ipc.OK(path)
}

// Read returns the file content as text and marks the path recent.
func (m *Manager) Read(path string) ipc.Envelope {
	if env, ok := requirePath("file:read", path); !ok {
		return env
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return m.fail("read file", err)
	}
	m.recent.Add(path)
	m.log.Debug("file read", "path", path, "bytes", len(data))
	return ipc.OK(string(data))
}

// Write creates or replaces the file, creating parent directories, and
// marks the path recent.
func (m *Manager) Write(path, data string) ipc.Envelope {
	if env, ok := requirePath("file:write", path); !ok {
		return env
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return m.fail("write file", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return m.fail("write file", err)
	}
	m.recent.Add(path)
	m.log.Info("file written", "path", path)
	return ipc.OKMessage(true, "file saved")
}

// Delete removes the file and drops it from the recent list.
func (m *Manager) Delete(ctx context.Context, path string) ipc.Envelope {
	if env, ok := requirePath("file:delete", path); !ok {
		return env
	}
	if err := os.Remove(path); err != nil {
		return m.fail("delete file", err)
	}
	m.recent.Remove(path)
	m.forget(ctx, path)
	m.log.Info("file deleted", "path", path)
	return ipc.OKMessage(true, "file deleted")
}

// Copy copies src to dst, creating dst's parent directories.
func (m *Manager) Copy(src, dst string) ipc.Envelope {
	if err := copyFile(src, dst); err != nil {
		return m.fail("copy file", err)
	}
	m.log.Info("file copied", "from", src, "to", dst)
	return ipc.OKMessage(true, "file copied")
}

// Move renames src to dst and updates the recent list.
func (m *Manager) Move(ctx context.Context, src, dst string) ipc.Envelope {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return m.fail("move file", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return m.fail("move file", err)
	}
	m.recent.Replace(src, dst)
	m.forget(ctx, src)
	m.log.Info("file moved", "from", src, "to", dst)
	return ipc.OKMessage(true, "file moved")
}

// Info stats path and, for regular files, hashes the content with SHA-256.
func (m *Manager) Info(ctx context.Context, path string) ipc.Envelope {
	if env, ok := requirePath("file:info", path); !ok {
		return env
	}
	st, err := os.Stat(path)
	if err != nil {
		return m.fail("file info", err)
	}
	info := Info{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        st.Size(),
		IsFile:      st.Mode().IsRegular(),
		IsDirectory: st.IsDir(),
		Mode:        st.Mode().String(),
		Modified:    st.ModTime(),
	}
	if info.IsFile {
		hash, err := hashFile(path)
		if err != nil {
			m.log.Warn("hash file failed", "path", path, "error", err.Error())
		}
		info.Hash = hash
		m.track(ctx, info)
	}
	return ipc.OK(info)
}

// ListDirectory lists the entries of dir sorted by name.
func (m *Manager) ListDirectory(dir string) ipc.Envelope {
	if env, ok := requirePath("file:list-dir", dir); !ok {
		return env
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return m.fail("list directory", err)
	}
	items := make([]Entry, 0, len(entries))
	for _, e := range entries {
		item := Entry{
			Name:        e.Name(),
			Path:        filepath.Join(dir, e.Name()),
			IsFile:      e.Type().IsRegular(),
			IsDirectory: e.IsDir(),
		}
		st, err := os.Stat(item.Path)
		if err != nil {
			item.Error = "inaccessible"
		} else {
			mod := st.ModTime()
			item.Modified = &mod
			if st.Mode().IsRegular() {
				size := st.Size()
				item.Size = &size
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return ipc.OK(items)
}

// ShowInFolder reveals path in the desktop file manager.
func (m *Manager) ShowInFolder(path string) ipc.Envelope {
	if err := m.shell.ShowItemInFolder(path); err != nil {
		return m.fail("show in folder", err)
	}
	return ipc.OKMessage(true, "shown in file manager")
}

// OpenWithDefaultApp opens path with the associated application.
func (m *Manager) OpenWithDefaultApp(path string) ipc.Envelope {
	if err := m.shell.OpenPath(path); err != nil {
		return m.fail("open path", err)
	}
	return ipc.OKMessage(true, "opened with default application")
}

// RecentList returns the recent files.
func (m *Manager) RecentList() ipc.Envelope {
	return ipc.OK(m.recent.List())
}

// ClearRecent empties the recent files list.
func (m *Manager) ClearRecent() ipc.Envelope {
	m.recent.Clear()
	return ipc.OKMessage(true, "recent files cleared")
}

func (m *Manager) track(ctx context.Context, info Info) {
	if m.tracker == nil {
		return
	}
	err := m.tracker.TrackFile(ctx, sqlite.FileRecord{
		Name: info.Name,
		Path: info.Path,
		Size: info.Size,
		Type: filepath.Ext(info.Name),
		Hash: info.Hash,
	})
	if err != nil {
		m.log.Warn("track file failed", "path", info.Path, "error", err.Error())
	}
}

func (m *Manager) forget(ctx context.Context, path string) {
	if m.tracker == nil {
		return
	}
	if err := m.tracker.ForgetFile(ctx, path); err != nil {
		m.log.Warn("forget file failed", "path", path, "error", err.Error())
	}
}

func (m *Manager) fail(op string, err error) ipc.Envelope {
	m.log.Error(op+" failed", "error", err.Error())
	return ipc.Fail(errors.HostIO(op, err))
}

func requirePath(op, path string) (ipc.Envelope, bool) {
	if path == "" {
		return ipc.Fail(errors.Validation(op, "path is required")), false
	}
	return ipc.Envelope{}, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
