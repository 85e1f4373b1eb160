package files

import (
	"errors"
	"os"
	"sync"

	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/storage"
)

// DefaultRecentMax is the recent list capacity when none is configured.
const DefaultRecentMax = 10

// RecentFilesName is the document holding the recent list under the user
// data directory.
const RecentFilesName = "recent-files.json"

// RecentFiles is the most-recent-first, deduplicated, capped list of paths
// the user touched. Every mutation is persisted.
type RecentFiles struct {
	path string
	max  int
	log  logging.Logger

	mu    sync.Mutex
	paths []string
}

// LoadRecentFiles reads the list stored at path. Entries whose target no
// longer exists are dropped, and the list is written back right away when
// anything was dropped. A missing or unreadable document yields an empty list.
func LoadRecentFiles(path string, max int, log logging.Logger) *RecentFiles {
	if max <= 0 {
		max = DefaultRecentMax
	}
	if log == nil {
		log = logging.Discard()
	}
	r := &RecentFiles{path: path, max: max, log: log}

	var stored []string
	if err := storage.ReadJSON(path, &stored); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			log.Warn("recent files unreadable, starting empty", "error", err.Error())
		}
		return r
	}

	seen := make(map[string]bool, len(stored))
	for _, p := range stored {
		if p == "" || seen[p] {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		seen[p] = true
		r.paths = append(r.paths, p)
	}
	if len(r.paths) > r.max {
		r.paths = r.paths[:r.max]
	}
	if len(r.paths) != len(stored) {
		r.persistLocked()
	}
	return r
}

// Add moves path to the front, dropping the oldest entry past capacity.
func (r *RecentFiles) Add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]string, 0, len(r.paths)+1)
	next = append(next, path)
	for _, p := range r.paths {
		if p != path {
			next = append(next, p)
		}
	}
	if len(next) > r.max {
		next = next[:r.max]
	}
	r.paths = next
	r.persistLocked()
}

// Remove drops path from the list.
func (r *RecentFiles) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.paths[:0:0]
	for _, p := range r.paths {
		if p != path {
			next = append(next, p)
		}
	}
	if len(next) == len(r.paths) {
		return
	}
	r.paths = next
	r.persistLocked()
}

// Replace swaps from for to, keeping to at the front.
func (r *RecentFiles) Replace(from, to string) {
	r.Remove(from)
	r.Add(to)
}

// Clear empties the list.
func (r *RecentFiles) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = nil
	r.persistLocked()
}

// List returns a copy of the list, most recent first.
func (r *RecentFiles) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.paths...)
}

func (r *RecentFiles) persistLocked() {
	paths := r.paths
	if paths == nil {
		paths = []string{}
	}
	if err := storage.WriteJSON(r.path, paths); err != nil {
		r.log.Error("save recent files failed", "error", err.Error())
	}
}
