package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Attachment is a binary file owned by a note. Data is the authoritative
// payload; Checksum is derived from it on every put.
type Attachment struct {
	ID        string `json:"id"`
	NoteID    string `json:"noteId"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Data      []byte `json:"-"`
	Checksum  string `json:"-"`
}

// Checksum returns the hex BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

const attachmentMetaColumns = `id, note_id, file_name, mime_type, size_bytes, checksum`

// GetAttachment returns an attachment with its payload, or nil if not found.
func (tx *Tx) GetAttachment(ctx context.Context, id string) (*Attachment, error) {
	var a Attachment
	err := tx.queryRow(ctx, `
		SELECT `+attachmentMetaColumns+`, data FROM attachments WHERE id = ?
	`, id).Scan(&a.ID, &a.NoteID, &a.FileName, &a.MimeType, &a.SizeBytes, &a.Checksum, &a.Data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", classify(err))
	}
	return &a, nil
}

// PutAttachment inserts an attachment or replaces the row with the same id.
// SizeBytes and Checksum are always recomputed from Data.
func (tx *Tx) PutAttachment(ctx context.Context, a *Attachment) error {
	a.SizeBytes = int64(len(a.Data))
	a.Checksum = Checksum(a.Data)
	_, err := tx.exec(ctx, TableAttachments, `
		INSERT INTO attachments (`+attachmentMetaColumns+`, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			note_id = excluded.note_id,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			checksum = excluded.checksum,
			data = excluded.data
	`, a.ID, a.NoteID, a.FileName, a.MimeType, a.SizeBytes, a.Checksum, a.Data)
	if err != nil {
		return fmt.Errorf("put attachment %s: %w", a.ID, err)
	}
	return nil
}

// BulkPutAttachments puts every attachment in order.
func (tx *Tx) BulkPutAttachments(ctx context.Context, atts []Attachment) error {
	for i := range atts {
		if err := tx.PutAttachment(ctx, &atts[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAttachment removes one attachment. A missing id is a no-op.
func (tx *Tx) DeleteAttachment(ctx context.Context, id string) error {
	if _, err := tx.exec(ctx, TableAttachments, "DELETE FROM attachments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete attachment %s: %w", id, err)
	}
	return nil
}

// DeleteAttachmentsForNotes removes every attachment owned by the given notes.
func (tx *Tx) DeleteAttachmentsForNotes(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	ph, args := placeholders(noteIDs)
	_, err := tx.exec(ctx, TableAttachments, "DELETE FROM attachments WHERE note_id IN ("+ph+")", args...)
	if err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	return nil
}

// AttachmentsForNote returns attachment metadata for a note, without payloads.
func (tx *Tx) AttachmentsForNote(ctx context.Context, noteID string) ([]Attachment, error) {
	rows, err := tx.query(ctx, `
		SELECT `+attachmentMetaColumns+` FROM attachments WHERE note_id = ?
		ORDER BY file_name, id
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("attachments for note: %w", err)
	}
	defer rows.Close()

	var atts []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.NoteID, &a.FileName, &a.MimeType, &a.SizeBytes, &a.Checksum); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}

// AllAttachments returns every attachment including payloads.
func (tx *Tx) AllAttachments(ctx context.Context) ([]Attachment, error) {
	rows, err := tx.query(ctx, `SELECT `+attachmentMetaColumns+`, data FROM attachments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all attachments: %w", err)
	}
	defer rows.Close()

	var atts []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.NoteID, &a.FileName, &a.MimeType, &a.SizeBytes, &a.Checksum, &a.Data); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}
