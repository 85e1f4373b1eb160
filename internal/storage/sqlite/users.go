package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// User is a row of the users table.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UserPatch lists the fields to change. Nil fields are left untouched.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

const userColumns = "id, name, email, avatar, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ListUsers returns every user, newest first.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite storage: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite storage: list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with the given id.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("sqlite storage: user %d: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("sqlite storage: get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user and returns the stored row.
func (s *SQLiteStorage) CreateUser(ctx context.Context, name, email string) (User, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO users (name, email) VALUES (?, ?)", name, email)
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("sqlite storage: create user: %w", ErrDuplicateEmail)
	}
	if err != nil {
		return User{}, fmt.Errorf("sqlite storage: create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("sqlite storage: create user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// UpdateUser applies patch to the user with the given id and returns the
// updated row.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if len(sets) == 0 {
		return User{}, fmt.Errorf("sqlite storage: update user: %w", ErrNoFields)
	}
	sets = append(sets, "updated_at = "+timestampDefault)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("sqlite storage: update user: %w", ErrDuplicateEmail)
	}
	if err != nil {
		return User{}, fmt.Errorf("sqlite storage: update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, fmt.Errorf("sqlite storage: user %d: %w", id, ErrRecordNotFound)
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes the user with the given id.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite storage: delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite storage: delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite storage: user %d: %w", id, ErrRecordNotFound)
	}
	return nil
}
