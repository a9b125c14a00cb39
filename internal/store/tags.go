package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tag is a label shared between notes. Names are unique.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NoteTag links a note to a tag.
type NoteTag struct {
	NoteID string `json:"noteId"`
	TagID  string `json:"tagId"`
}

// GetTag returns a tag by id, or nil if not found.
func (tx *Tx) GetTag(ctx context.Context, id string) (*Tag, error) {
	return tx.getTag(ctx, "SELECT id, name FROM tags WHERE id = ?", id)
}

// GetTagByName returns the tag with exactly this name, or nil.
func (tx *Tx) GetTagByName(ctx context.Context, name string) (*Tag, error) {
	return tx.getTag(ctx, "SELECT id, name FROM tags WHERE name = ?", name)
}

func (tx *Tx) getTag(ctx context.Context, query, arg string) (*Tag, error) {
	var t Tag
	err := tx.queryRow(ctx, query, arg).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", classify(err))
	}
	return &t, nil
}

// PutTag inserts a tag or renames the tag with the same id. A name already
// used by another tag fails with ErrConstraintViolation.
func (tx *Tx) PutTag(ctx context.Context, t *Tag) error {
	_, err := tx.exec(ctx, TableTags, `
		INSERT INTO tags (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("put tag %q: %w", t.Name, err)
	}
	return nil
}

// BulkPutTags puts every tag in order.
func (tx *Tx) BulkPutTags(ctx context.Context, tags []Tag) error {
	for i := range tags {
		if err := tx.PutTag(ctx, &tags[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTag removes a tag row.
func (tx *Tx) DeleteTag(ctx context.Context, id string) error {
	if _, err := tx.exec(ctx, TableTags, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	return nil
}

// AllTags returns every tag ordered by name.
func (tx *Tx) AllTags(ctx context.Context) ([]Tag, error) {
	rows, err := tx.query(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("all tags: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// TagsForNote returns the tags linked to noteID ordered by name.
func (tx *Tx) TagsForNote(ctx context.Context, noteID string) ([]Tag, error) {
	rows, err := tx.query(ctx, `
		SELECT t.id, t.name FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ?
		ORDER BY t.name
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("tags for note: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]Tag, error) {
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// HasNoteTag reports whether the (noteID, tagID) link exists.
func (tx *Tx) HasNoteTag(ctx context.Context, noteID, tagID string) (bool, error) {
	var n int
	err := tx.queryRow(ctx,
		"SELECT COUNT(*) FROM note_tags WHERE note_id = ? AND tag_id = ?", noteID, tagID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has note tag: %w", classify(err))
	}
	return n > 0, nil
}

// PutNoteTag links a note to a tag. An existing link is left as is.
func (tx *Tx) PutNoteTag(ctx context.Context, nt NoteTag) error {
	_, err := tx.exec(ctx, TableNoteTags, `
		INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?)
		ON CONFLICT(note_id, tag_id) DO NOTHING
	`, nt.NoteID, nt.TagID)
	if err != nil {
		return fmt.Errorf("put note tag: %w", err)
	}
	return nil
}

// BulkPutNoteTags puts every link in order.
func (tx *Tx) BulkPutNoteTags(ctx context.Context, links []NoteTag) error {
	for _, nt := range links {
		if err := tx.PutNoteTag(ctx, nt); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNoteTag removes one link by its composite key. A missing link is a no-op.
func (tx *Tx) DeleteNoteTag(ctx context.Context, noteID, tagID string) error {
	_, err := tx.exec(ctx, TableNoteTags,
		"DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?", noteID, tagID)
	if err != nil {
		return fmt.Errorf("delete note tag: %w", err)
	}
	return nil
}

// DeleteNoteTagsForNotes removes every link of the given notes.
func (tx *Tx) DeleteNoteTagsForNotes(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	ph, args := placeholders(noteIDs)
	_, err := tx.exec(ctx, TableNoteTags, "DELETE FROM note_tags WHERE note_id IN ("+ph+")", args...)
	if err != nil {
		return fmt.Errorf("delete note tags: %w", err)
	}
	return nil
}

// AllNoteTags returns every link.
func (tx *Tx) AllNoteTags(ctx context.Context) ([]NoteTag, error) {
	rows, err := tx.query(ctx, "SELECT note_id, tag_id FROM note_tags ORDER BY note_id, tag_id")
	if err != nil {
		return nil, fmt.Errorf("all note tags: %w", err)
	}
	defer rows.Close()

	var links []NoteTag
	for rows.Next() {
		var nt NoteTag
		if err := rows.Scan(&nt.NoteID, &nt.TagID); err != nil {
			return nil, fmt.Errorf("scan note tag: %w", err)
		}
		links = append(links, nt)
	}
	return links, rows.Err()
}
