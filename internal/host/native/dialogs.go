//go:build native

package native

import (
	"errors"
	"path/filepath"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/sqweek/dialog"
)

// Dialogs shows file dialogs with github.com/sqweek/dialog. Multiple
// selection is not supported by the toolkit; a single path is returned.
type Dialogs struct{}

var _ host.Dialogs = Dialogs{}

func (Dialogs) OpenFile(opts host.OpenDialogOptions) ([]string, error) {
	if opts.Directory {
		b := dialog.Directory().Title(opts.Title)
		if opts.DefaultPath != "" {
			b = b.SetStartDir(opts.DefaultPath)
		}
		dir, err := b.Browse()
		if err != nil {
			return nil, mapErr(err)
		}
		return []string{dir}, nil
	}
	path, err := fileBuilder(opts.Title, opts.DefaultPath, opts.Filters).Load()
	if err != nil {
		return nil, mapErr(err)
	}
	return []string{path}, nil
}

func (Dialogs) SaveFile(opts host.SaveDialogOptions) (string, error) {
	path, err := fileBuilder(opts.Title, opts.DefaultPath, opts.Filters).Save()
	if err != nil {
		return "", mapErr(err)
	}
	return path, nil
}

func fileBuilder(title, defaultPath string, filters []host.FileFilter) *dialog.FileBuilder {
	b := dialog.File().Title(title)
	for _, f := range filters {
		b = b.Filter(f.Name, f.Extensions...)
	}
	if defaultPath != "" {
		b = b.SetStartDir(filepath.Dir(defaultPath))
	}
	return b
}

func mapErr(err error) error {
	if errors.Is(err, dialog.ErrCancelled) {
		return host.ErrDialogCanceled
	}
	return err
}
