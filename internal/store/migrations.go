package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "folders and notes",
		SQL: `
CREATE TABLE folders (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL CHECK (length(trim(name)) > 0),
    -- no foreign key: deleting a folder leaves its child folders in place
    parent_id  TEXT
);

CREATE INDEX idx_folders_parent ON folders(parent_id);

CREATE TABLE notes (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    content_md  TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    is_pinned   INTEGER NOT NULL DEFAULT 0,
    is_starred  INTEGER NOT NULL DEFAULT 0,
    folder_id   TEXT,

    CHECK (updated_at >= created_at),
    FOREIGN KEY (folder_id) REFERENCES folders(id)
);

CREATE INDEX idx_notes_folder     ON notes(folder_id);
CREATE INDEX idx_notes_updated_at ON notes(updated_at DESC);
CREATE INDEX idx_notes_starred    ON notes(is_starred);
CREATE INDEX idx_notes_pinned     ON notes(is_pinned);
`,
	},
	{
		Version:     2,
		Description: "tags and note_tags",
		SQL: `
CREATE TABLE tags (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL UNIQUE
);

CREATE TABLE note_tags (
    note_id  TEXT NOT NULL,
    tag_id   TEXT NOT NULL,
    PRIMARY KEY (note_id, tag_id),

    FOREIGN KEY (note_id) REFERENCES notes(id),
    FOREIGN KEY (tag_id)  REFERENCES tags(id)
);

CREATE INDEX idx_note_tags_tag ON note_tags(tag_id);
`,
	},
	{
		Version:     3,
		Description: "attachments: binary payloads owned by notes",
		SQL: `
CREATE TABLE attachments (
    id          TEXT PRIMARY KEY,
    note_id     TEXT NOT NULL,
    file_name   TEXT NOT NULL,
    mime_type   TEXT NOT NULL DEFAULT '',
    size_bytes  INTEGER NOT NULL,
    checksum    TEXT NOT NULL,
    data        BLOB,

    CHECK (size_bytes = length(data)),
    FOREIGN KEY (note_id) REFERENCES notes(id)
);

CREATE INDEX idx_attachments_note ON attachments(note_id);
`,
	},
	{
		Version:     4,
		Description: "settings: flat key/value preferences",
		SQL: `
CREATE TABLE settings (
    key    TEXT PRIMARY KEY,
    value  TEXT NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
