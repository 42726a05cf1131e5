package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Joseda-hg/lazyboard/internal/storage"
)

// KV is a storage.Backend over the kv table.
type KV struct {
	DB  *sql.DB
	now func() time.Time
}

func NewKV(db *sql.DB) *KV {
	return &KV{DB: db, now: time.Now}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *KV) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, "SELECT updated_at FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, storage.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s timestamp: %w", key, err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}
