//go:build native

package native

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Shell opens paths with the desktop's opener command.
type Shell struct {
	log logging.Logger
}

var _ host.Shell = Shell{}

func (s Shell) ShowItemInFolder(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return s.run("open", "-R", path)
	case "windows":
		return s.run("explorer", "/select,"+path)
	default:
		return s.run("xdg-open", filepath.Dir(path))
	}
}

func (s Shell) OpenPath(path string) error {
	return s.open(path)
}

func (s Shell) OpenExternal(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("refusing to open non-http url %q", url)
	}
	return s.open(url)
}

func (s Shell) open(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return s.run("open", target)
	case "windows":
		return s.run("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return s.run("xdg-open", target)
	}
}

func (s Shell) run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	s.log.Debug("shell command started", "cmd", name, "args", args)
	go func() { _ = cmd.Wait() }()
	return nil
}

// LoginItems manages an XDG autostart entry. Other platforms report an error.
type LoginItems struct {
	log logging.Logger
}

var _ host.LoginItems = LoginItems{}

func (l LoginItems) SetLoginItem(openAtLogin, openAsHidden bool) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("login items are not supported on %s", runtime.GOOS)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "autostart", "deskbridge.desktop")
	if !openAtLogin {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	execLine := exe
	if openAsHidden {
		execLine += " --hidden"
	}
	entry := fmt.Sprintf("[Desktop Entry]\nType=Application\nName=deskbridge\nExec=%s\nX-GNOME-Autostart-enabled=true\n", execLine)
	l.log.Info("login item updated", "path", path, "hidden", openAsHidden)
	return os.WriteFile(path, []byte(entry), 0o644)
}
