// Package storage provides small file persistence helpers: a directory
// based lock and atomic JSON documents guarded by it.
package storage

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-r--r--)
	FileModeFile os.FileMode = 0644
)

var (
	lockTimeout = 10 * time.Second
	lockRetry   = 50 * time.Millisecond
	// lockStale is the age after which a lock is treated as left behind by
	// a holder that died.
	lockStale = 10 * time.Second
)

// Lock represents a directory-based lock.
type Lock struct {
	dir string
}

// NewLock creates a new lock at the given directory path.
func NewLock(dir string) *Lock {
	return &Lock{dir: dir}
}

// Acquire creates the lock directory, retrying while another holder has it
// until the timeout expires. A stale lock is removed and taken over.
func (l *Lock) Acquire() error {
	start := time.Now()
	for {
		err := os.Mkdir(l.dir, FileModeDir)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create lock directory: %w", err)
		}
		if l.removeStale() {
			continue
		}
		if time.Since(start) > lockTimeout {
			return fmt.Errorf("lock %s still held after %s", l.dir, lockTimeout)
		}
		time.Sleep(lockRetry)
	}
}

func (l *Lock) removeStale() bool {
	info, err := os.Stat(l.dir)
	if err != nil || time.Since(info.ModTime()) < lockStale {
		return false
	}
	return os.Remove(l.dir) == nil
}

// Release releases the lock by removing the directory.
func (l *Lock) Release() error {
	return os.Remove(l.dir)
}

// WithLock executes fn while holding the lock.
func WithLock(dir string, fn func() error) error {
	lock := NewLock(dir)
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Release()
	return fn()
}
