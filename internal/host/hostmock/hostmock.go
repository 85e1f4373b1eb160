// Package hostmock provides testify mocks of the host capabilities.
//
// Example usage:
//
//	login := new(hostmock.LoginItems)
//	login.On("SetLoginItem", true, true).Return(nil)
//	...
//	login.AssertExpectations(t)
package hostmock

import (
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/stretchr/testify/mock"
)

// WindowHost is a mock host.WindowHost.
type WindowHost struct {
	mock.Mock
}

var _ host.WindowHost = (*WindowHost)(nil)

func (m *WindowHost) NewWindow(opts host.WindowOptions) (host.Window, error) {
	args := m.Called(opts)
	w, _ := args.Get(0).(host.Window)
	return w, args.Error(1)
}

func (m *WindowHost) PrimaryDisplay() host.Display {
	return m.Called().Get(0).(host.Display)
}

func (m *WindowHost) OnThemeUpdated(fn func(dark bool)) { m.Called(fn) }
func (m *WindowHost) ShouldUseDarkColors() bool         { return m.Called().Bool(0) }
func (m *WindowHost) SetThemeSource(src host.ThemeSource) {
	m.Called(src)
}

// Dialogs is a mock host.Dialogs.
type Dialogs struct {
	mock.Mock
}

var _ host.Dialogs = (*Dialogs)(nil)

func (m *Dialogs) OpenFile(opts host.OpenDialogOptions) ([]string, error) {
	args := m.Called(opts)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}

func (m *Dialogs) SaveFile(opts host.SaveDialogOptions) (string, error) {
	args := m.Called(opts)
	return args.String(0), args.Error(1)
}

// Notifier is a mock host.Notifier.
type Notifier struct {
	mock.Mock
}

var _ host.Notifier = (*Notifier)(nil)

func (m *Notifier) Supported() bool                      { return m.Called().Bool(0) }
func (m *Notifier) Show(n host.Notification) error       { return m.Called(n).Error(0) }
func (m *Notifier) OnClick(fn func(n host.Notification)) { m.Called(fn) }

// LoginItems is a mock host.LoginItems.
type LoginItems struct {
	mock.Mock
}

var _ host.LoginItems = (*LoginItems)(nil)

func (m *LoginItems) SetLoginItem(openAtLogin, openAsHidden bool) error {
	return m.Called(openAtLogin, openAsHidden).Error(0)
}

// Shell is a mock host.Shell.
type Shell struct {
	mock.Mock
}

var _ host.Shell = (*Shell)(nil)

func (m *Shell) ShowItemInFolder(path string) error { return m.Called(path).Error(0) }
func (m *Shell) OpenPath(path string) error         { return m.Called(path).Error(0) }
func (m *Shell) OpenExternal(url string) error      { return m.Called(url).Error(0) }

// Tray is a mock host.Tray.
type Tray struct {
	mock.Mock
}

var _ host.Tray = (*Tray)(nil)

func (m *Tray) SetMenu(items []host.MenuItem, onClick func(id string)) { m.Called(items, onClick) }
func (m *Tray) SetTooltip(tooltip string)                              { m.Called(tooltip) }
func (m *Tray) OnClick(fn func())                                      { m.Called(fn) }
func (m *Tray) Destroy()                                               { m.Called() }

// ThemeApplier records SetThemeSource calls; settings tests only need that
// part of WindowHost.
type ThemeApplier struct {
	mock.Mock
}

func (m *ThemeApplier) SetThemeSource(src host.ThemeSource) { m.Called(src) }
