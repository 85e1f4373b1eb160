// Package database exposes the local store to renderers as envelope
// returning operations over sample user records.
package database

import (
	"context"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/errors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/logging"
	"github.com/cristianoliveira/deskbridge/internal/storage/sqlite"
)

// Store is the subset of the sqlite storage the facade needs.
type Store interface {
	ListUsers(ctx context.Context) ([]sqlite.User, error)
	GetUser(ctx context.Context, id int64) (sqlite.User, error)
	CreateUser(ctx context.Context, name, email string) (sqlite.User, error)
	UpdateUser(ctx context.Context, id int64, patch sqlite.UserPatch) (sqlite.User, error)
	DeleteUser(ctx context.Context, id int64) error
	AppendLog(ctx context.Context, level, message string, data any) error
	Stats(ctx context.Context) (sqlite.Stats, error)
	Backup(ctx context.Context, dest string) error
	Path() string
}

// NewRecord is the payload of db:create.
type NewRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Manager wraps Store calls into envelopes.
type Manager struct {
	store Store
	log   logging.Logger
}

func NewManager(store Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{store: store, log: log.With("component", "database")}
}

// GetAll lists every record, newest first.
func (m *Manager) GetAll(ctx context.Context) ipc.Envelope {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return m.fail("get all records", err)
	}
	return ipc.OK(users)
}

// GetByID returns one record.
func (m *Manager) GetByID(ctx context.Context, id int64) ipc.Envelope {
	u, err := m.store.GetUser(ctx, id)
	if err != nil {
		return m.fail("get record", err)
	}
	return ipc.OK(u)
}

// Create validates and inserts a record.
func (m *Manager) Create(ctx context.Context, rec NewRecord) ipc.Envelope {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return ipc.Fail(errors.Validation("db:create", "name is required"))
	}
	email, err := normalizeEmail(rec.Email)
	if err != nil {
		return ipc.Fail(err)
	}
	u, err := m.store.CreateUser(ctx, name, email)
	if err != nil {
		return m.fail("create record", err)
	}
	m.log.Info("record created", "id", u.ID)
	return ipc.OK(u)
}

// Update applies the non-nil fields of patch.
func (m *Manager) Update(ctx context.Context, id int64, patch sqlite.UserPatch) ipc.Envelope {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ipc.Fail(errors.Validation("db:update", "name cannot be empty"))
		}
		patch.Name = &name
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return ipc.Fail(err)
		}
		patch.Email = &email
	}
	u, err := m.store.UpdateUser(ctx, id, patch)
	if err != nil {
		return m.fail("update record", err)
	}
	m.log.Info("record updated", "id", u.ID)
	return ipc.OK(u)
}

// Delete removes a record. data is true on success.
func (m *Manager) Delete(ctx context.Context, id int64) ipc.Envelope {
	if err := m.store.DeleteUser(ctx, id); err != nil {
		return m.fail("delete record", err)
	}
	m.log.Info("record deleted", "id", id)
	return ipc.OK(true)
}

// Statistics returns per-table counts and the database path.
func (m *Manager) Statistics(ctx context.Context) ipc.Envelope {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return m.fail("statistics", err)
	}
	return ipc.OK(stats)
}

// Backup copies the database to dest. An empty dest picks a timestamped
// file next to the database.
func (m *Manager) Backup(ctx context.Context, dest string) ipc.Envelope {
	if strings.TrimSpace(dest) == "" {
		dest = filepath.Join(filepath.Dir(m.store.Path()), "backups",
			"deskbridge-"+time.Now().UTC().Format("20060102T150405")+".db")
	}
	if err := m.store.Backup(ctx, dest); err != nil {
		return m.fail("backup", err)
	}
	m.log.Info("database backup written", "path", dest)
	return ipc.OKMessage(dest, "database backup completed")
}

// Log appends an application log line to the logs table. Failures are only
// reported to the process logger.
func (m *Manager) Log(ctx context.Context, level, message string, data any) {
	if err := m.store.AppendLog(ctx, level, message, data); err != nil {
		m.log.Warn("write database log failed", "error", err.Error())
	}
}

func (m *Manager) fail(op string, err error) ipc.Envelope {
	switch {
	case errors.IsErr(err, sqlite.ErrRecordNotFound):
		return ipc.Fail(errors.NotFound(op, "record not found"))
	case errors.IsErr(err, sqlite.ErrDuplicateEmail):
		return ipc.Fail(errors.Validation(op, "email already in use"))
	case errors.IsErr(err, sqlite.ErrNoFields):
		return ipc.Fail(errors.Validation(op, "no fields to update"))
	}
	m.log.Error(op+" failed", "error", err.Error())
	return ipc.Fail(errors.HostIO(op, err))
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", errors.Validation("db", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Validation("db", "invalid email: %s", email)
	}
	return email, nil
}
