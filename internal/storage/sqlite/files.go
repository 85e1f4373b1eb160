package sqlite

import (
	"context"
	"fmt"
)

// FileRecord is a row of the files table.
type FileRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// TrackFile records or refreshes the metadata of a file, keyed by path.
func (s *SQLiteStorage) TrackFile(ctx context.Context, f FileRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (name, path, size, type, hash) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			size = excluded.size,
			type = excluded.type,
			hash = excluded.hash,
			updated_at = `+timestampDefault,
		f.Name, f.Path, f.Size, f.Type, f.Hash)
	if err != nil {
		return fmt.Errorf("sqlite storage: track file: %w", err)
	}
	return nil
}

// ListFiles returns tracked files, most recently updated first.
func (s *SQLiteStorage) ListFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, size, type, hash, created_at, updated_at
		FROM files ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: list files: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.Size, &f.Type, &f.Hash, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite storage: scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite storage: list files: %w", err)
	}
	return files, nil
}

// ForgetFile removes the record for path. Missing records are ignored.
func (s *SQLiteStorage) ForgetFile(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("sqlite storage: forget file: %w", err)
	}
	return nil
}
