package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ValueType tags how a settings value is encoded in the value column.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeBoolean ValueType = "boolean"
	TypeNumber  ValueType = "number"
	TypeJSON    ValueType = "json"
)

// Value is a typed settings value.
type Value struct {
	Raw  string
	Type ValueType
}

func StringValue(s string) Value { return Value{Raw: s, Type: TypeString} }

func BoolValue(b bool) Value { return Value{Raw: strconv.FormatBool(b), Type: TypeBoolean} }

func NumberValue(f float64) Value {
	return Value{Raw: strconv.FormatFloat(f, 'g', -1, 64), Type: TypeNumber}
}

// JSONValue encodes v as a json-typed value.
func JSONValue(v any) (Value, error) {
	raw, err := marshalJSON(v)
	if err != nil {
		return Value{}, err
	}
	return Value{Raw: raw, Type: TypeJSON}, nil
}

// Bool decodes a boolean value.
func (v Value) Bool() (bool, error) {
	if v.Type != TypeBoolean {
		return false, fmt.Errorf("%w: %s is not a boolean", ErrInvalidValue, v.Type)
	}
	b, err := strconv.ParseBool(v.Raw)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return b, nil
}

// Number decodes a number value.
func (v Value) Number() (float64, error) {
	if v.Type != TypeNumber {
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidValue, v.Type)
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return f, nil
}

// Decode unmarshals a json value into dst.
func (v Value) Decode(dst any) error {
	if v.Type != TypeJSON {
		return fmt.Errorf("%w: %s is not json", ErrInvalidValue, v.Type)
	}
	if err := json.Unmarshal([]byte(v.Raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// Any returns the value as the Go type matching its tag.
func (v Value) Any() (any, error) {
	switch v.Type {
	case TypeBoolean:
		return v.Bool()
	case TypeNumber:
		return v.Number()
	case TypeJSON:
		var out any
		err := v.Decode(&out)
		return out, err
	default:
		return v.Raw, nil
	}
}

// GetSetting returns the stored value for key and whether it exists.
func (s *SQLiteStorage) GetSetting(ctx context.Context, key string) (Value, bool, error) {
	var v Value
	err := s.db.QueryRowContext(ctx, "SELECT value, type FROM settings WHERE key = ?", key).
		Scan(&v.Raw, &v.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, fmt.Errorf("sqlite storage: get setting %q: %w", key, err)
	}
	return v, true, nil
}

// HasSetting reports whether key is stored.
func (s *SQLiteStorage) HasSetting(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.GetSetting(ctx, key)
	return ok, err
}

// AllSettings returns every stored setting.
func (s *SQLiteStorage) AllSettings(ctx context.Context) (map[string]Value, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value, type FROM settings")
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Value)
	for rows.Next() {
		var (
			key string
			v   Value
		)
		if err := rows.Scan(&key, &v.Raw, &v.Type); err != nil {
			return nil, fmt.Errorf("sqlite storage: scan setting: %w", err)
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite storage: list settings: %w", err)
	}
	return out, nil
}

// SetSettings upserts every entry in a single transaction: either all values
// are stored or none are.
func (s *SQLiteStorage) SetSettings(ctx context.Context, values map[string]Value) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite storage: begin settings: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range keys {
		v := values[k]
		if v.Type == "" {
			v.Type = TypeString
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, type) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				type = excluded.type,
				updated_at = `+timestampDefault,
			k, v.Raw, string(v.Type))
		if err != nil {
			return fmt.Errorf("sqlite storage: set setting %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite storage: commit settings: %w", err)
	}
	return nil
}

// SeedSettings inserts the entries whose key is not stored yet, in a single
// transaction, and returns how many rows it added. Existing values win, so a
// second seeding process cannot overwrite what the first one saved.
func (s *SQLiteStorage) SeedSettings(ctx context.Context, values map[string]Value) (int, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite storage: begin seed settings: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seeded := 0
	for _, k := range keys {
		v := values[k]
		if v.Type == "" {
			v.Type = TypeString
		}
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value, type) VALUES (?, ?, ?)",
			k, v.Raw, string(v.Type))
		if err != nil {
			return 0, fmt.Errorf("sqlite storage: seed setting %q: %w", k, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			seeded += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite storage: commit seed settings: %w", err)
	}
	return seeded, nil
}

// ClearSettings removes every stored setting.
func (s *SQLiteStorage) ClearSettings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return fmt.Errorf("sqlite storage: clear settings: %w", err)
	}
	return nil
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
