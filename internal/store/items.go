package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetItem returns the value stored under key. ok is false when the key is
// absent.
func (s *Store) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM items WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem inserts or replaces the value under key and bumps its revision.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (key, value, revision)
		VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = items.revision + 1
	`, key, value)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %q: %w", key, err)
	}
	return nil
}

// Revision returns how many times key has been written since it was
// created, or 0 when it is absent.
func (s *Store) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM items WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("revision %q: %w", key, err)
	}
	return rev, nil
}

// Keys returns every key starting with prefix in byte order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM items
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key COLLATE BINARY ASC
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}
