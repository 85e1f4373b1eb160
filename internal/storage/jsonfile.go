package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotExist is returned by ReadJSON when the document has never been written.
var ErrNotExist = errors.New("document does not exist")

func lockDir(path string) string {
	return path + ".lock"
}

// ReadJSON decodes the document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotExist
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteJSON replaces the document at path with the indented encoding of v.
// The write goes to a temporary file renamed into place under the path's lock,
// so readers never observe a partial document.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, FileModeDir); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	return WithLock(lockDir(path), func() error {
		tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		if err := tmp.Chmod(FileModeFile); err != nil {
			tmp.Close()
			return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", filepath.Base(path), err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}
