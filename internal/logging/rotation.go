package logging

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type logFile struct {
	path    string
	modTime time.Time
}

// pruneLogs deletes the oldest deskbridge log files in dir so that, counting
// the file Init is about to open, at most keep remain. Other files in dir are
// left alone.
func pruneLogs(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var logs []logFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed by another process meanwhile.
			continue
		}
		logs = append(logs, logFile{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}

	excess := len(logs) - (keep - 1)
	if excess <= 0 {
		return nil
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].modTime.Equal(logs[j].modTime) {
			return logs[i].path < logs[j].path
		}
		return logs[i].modTime.Before(logs[j].modTime)
	})

	var errs []error
	for _, l := range logs[:excess] {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
