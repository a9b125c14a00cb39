package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting is one UI preference. Values are opaque strings.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetSetting returns a setting by key, or nil if absent.
func (tx *Tx) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := tx.queryRow(ctx, "SELECT key, value FROM settings WHERE key = ?", key).Scan(&s.Key, &s.Value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", classify(err))
	}
	return &s, nil
}

// PutSetting inserts or replaces a setting.
func (tx *Tx) PutSetting(ctx context.Context, s Setting) error {
	_, err := tx.exec(ctx, TableSettings, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, s.Key, s.Value)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", s.Key, err)
	}
	return nil
}

// BulkPutSettings puts every setting in order.
func (tx *Tx) BulkPutSettings(ctx context.Context, settings []Setting) error {
	for _, s := range settings {
		if err := tx.PutSetting(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSetting removes a setting. A missing key is a no-op.
func (tx *Tx) DeleteSetting(ctx context.Context, key string) error {
	if _, err := tx.exec(ctx, TableSettings, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

// AllSettings returns every setting ordered by key.
func (tx *Tx) AllSettings(ctx context.Context) ([]Setting, error) {
	rows, err := tx.query(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("all settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
