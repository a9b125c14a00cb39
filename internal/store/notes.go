package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Note is a markdown note. Timestamps are milliseconds since epoch.
type Note struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	ContentMD string  `json:"content_md"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
	IsPinned  bool    `json:"isPinned"`
	IsStarred bool    `json:"isStarred"`
	FolderID  *string `json:"folderId"`
}

const noteColumns = `id, title, content_md, created_at, updated_at, is_pinned, is_starred, folder_id`

// GetNote returns a note by id, or nil if not found.
func (tx *Tx) GetNote(ctx context.Context, id string) (*Note, error) {
	row := tx.queryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", classify(err))
	}
	return n, nil
}

// PutNote inserts a note or replaces the row with the same id.
func (tx *Tx) PutNote(ctx context.Context, n *Note) error {
	_, err := tx.exec(ctx, TableNotes, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content_md = excluded.content_md,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_pinned = excluded.is_pinned,
			is_starred = excluded.is_starred,
			folder_id = excluded.folder_id
	`, n.ID, n.Title, n.ContentMD, n.CreatedAt, n.UpdatedAt,
		boolToInt(n.IsPinned), boolToInt(n.IsStarred), nullString(n.FolderID))
	if err != nil {
		return fmt.Errorf("put note %s: %w", n.ID, err)
	}
	return nil
}

// BulkPutNotes puts every note in order.
func (tx *Tx) BulkPutNotes(ctx context.Context, notes []Note) error {
	for i := range notes {
		if err := tx.PutNote(ctx, &notes[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNote removes a note row. Deleting a missing note is a no-op.
func (tx *Tx) DeleteNote(ctx context.Context, id string) error {
	if _, err := tx.exec(ctx, TableNotes, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

// AllNotes returns every note, most recently updated first.
func (tx *Tx) AllNotes(ctx context.Context) ([]Note, error) {
	rows, err := tx.query(ctx, `
		SELECT `+noteColumns+` FROM notes
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("all notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// NotesByFolder returns the notes filed in folderID, most recently updated first.
func (tx *Tx) NotesByFolder(ctx context.Context, folderID string) ([]Note, error) {
	rows, err := tx.query(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE folder_id = ?
		ORDER BY updated_at DESC, id
	`, folderID)
	if err != nil {
		return nil, fmt.Errorf("notes by folder: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// NotesByTag returns the notes linked to tagID, most recently updated first.
func (tx *Tx) NotesByTag(ctx context.Context, tagID string) ([]Note, error) {
	rows, err := tx.query(ctx, `
		SELECT n.id, n.title, n.content_md, n.created_at, n.updated_at, n.is_pinned, n.is_starred, n.folder_id
		FROM notes n
		JOIN note_tags nt ON nt.note_id = n.id
		WHERE nt.tag_id = ?
		ORDER BY n.updated_at DESC, n.id
	`, tagID)
	if err != nil {
		return nil, fmt.Errorf("notes by tag: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// StarredNotes returns starred notes, most recently updated first.
func (tx *Tx) StarredNotes(ctx context.Context) ([]Note, error) {
	rows, err := tx.query(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE is_starred = 1
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("starred notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// NoteIDsInFolder returns the ids of notes filed directly in folderID.
func (tx *Tx) NoteIDsInFolder(ctx context.Context, folderID string) ([]string, error) {
	rows, err := tx.query(ctx, "SELECT id FROM notes WHERE folder_id = ?", folderID)
	if err != nil {
		return nil, fmt.Errorf("note ids in folder: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan note id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var pinned, starred int
	var folderID sql.NullString
	if err := row.Scan(&n.ID, &n.Title, &n.ContentMD, &n.CreatedAt, &n.UpdatedAt,
		&pinned, &starred, &folderID); err != nil {
		return nil, err
	}
	n.IsPinned = pinned != 0
	n.IsStarred = starred != 0
	n.FolderID = stringPtr(folderID)
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}
