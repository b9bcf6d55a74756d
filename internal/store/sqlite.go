package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLite persists records in a single kv table via libSQL. Change
// notifications are in-process only, so this backend fits single-host
// deployments where every role reaches the same server.
type SQLite struct {
	db     *sql.DB
	notify *notifier
}

func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			path       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating kv table: %w", err)
	}
	return &SQLite{db: db, notify: newNotifier()}, nil
}

func (s *SQLite) Get(ctx context.Context, path string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", path, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %q: %w", path, err)
	}
	return true, nil
}

func (s *SQLite) Set(ctx context.Context, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (path, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, path, string(raw), nowRFC3339())
	if err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	s.notify.notify(path)
	return nil
}

func (s *SQLite) Merge(ctx context.Context, path string, fields map[string]any) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		raw, err := rowValue(ctx, tx, path)
		if err != nil {
			return err
		}
		merged, err := mergeObject(raw, fields)
		if err != nil {
			return err
		}
		return upsert(ctx, tx, path, merged)
	})
	if err != nil {
		return fmt.Errorf("merging %q: %w", path, err)
	}
	s.notify.notify(path)
	return nil
}

func (s *SQLite) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE path = ? OR path LIKE ? || '/%'`, path, path)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify.notify(path)
	}
	return nil
}

func (s *SQLite) SetNX(ctx context.Context, path string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding %q: %w", path, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (path, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (path) DO NOTHING
	`, path, string(raw), nowRFC3339())
	if err != nil {
		return false, fmt.Errorf("creating %q: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("creating %q: %w", path, err)
	}
	if n == 0 {
		return false, nil
	}
	s.notify.notify(path)
	return true, nil
}

func (s *SQLite) IncrBy(ctx context.Context, path, field string, delta int) (int, error) {
	var next int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		raw, err := rowValue(ctx, tx, path)
		if err != nil {
			return err
		}
		updated, n, err := incrObject(raw, field, delta)
		if err != nil {
			return err
		}
		next = n
		return upsert(ctx, tx, path, updated)
	})
	if err != nil {
		return 0, fmt.Errorf("incrementing %q.%s: %w", path, field, err)
	}
	s.notify.notify(path)
	return next, nil
}

func (s *SQLite) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM kv WHERE path LIKE ? || '/%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("listing %q: %w", prefix, err)
		}
		if name, ok := childName(path, prefix); ok {
			out[name] = json.RawMessage(raw)
		}
	}
	return out, rows.Err()
}

func (s *SQLite) Subscribe(ctx context.Context, prefix string) (<-chan Event, func()) {
	return s.notify.subscribe(ctx, prefix)
}

func (s *SQLite) MultiWrite(ctx context.Context, writes []Write) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, w := range writes {
			switch {
			case w.Delete:
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM kv WHERE path = ? OR path LIKE ? || '/%'`, w.Path, w.Path); err != nil {
					return fmt.Errorf("deleting %q: %w", w.Path, err)
				}
			case w.Fields != nil:
				raw, err := rowValue(ctx, tx, w.Path)
				if err != nil {
					return err
				}
				merged, err := mergeObject(raw, w.Fields)
				if err != nil {
					return fmt.Errorf("merging %q: %w", w.Path, err)
				}
				if err := upsert(ctx, tx, w.Path, merged); err != nil {
					return err
				}
			default:
				raw, err := json.Marshal(w.Value)
				if err != nil {
					return fmt.Errorf("encoding %q: %w", w.Path, err)
				}
				if err := upsert(ctx, tx, w.Path, raw); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	changed := make([]string, len(writes))
	for i, w := range writes {
		changed[i] = w.Path
	}
	s.notify.notify(changed...)
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func rowValue(ctx context.Context, tx *sql.Tx, path string) (json.RawMessage, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func upsert(ctx context.Context, tx *sql.Tx, path string, raw json.RawMessage) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO kv (path, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, path, string(raw), nowRFC3339())
	return err
}

func nowRFC3339() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

var _ Store = (*SQLite)(nil)
