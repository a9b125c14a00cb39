package notebook

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lazypower/takenote/internal/store"
)

// AddAttachment stores a copy of data as a new attachment of noteID. The
// size is taken from the payload. A blank mimeType is sniffed from the
// first bytes of data.
func (s *Service) AddAttachment(ctx context.Context, noteID string, data []byte, fileName, mimeType string) (*store.Attachment, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("add attachment: %w: blank file name", ErrInvalid)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	a := &store.Attachment{
		ID:       s.newID(),
		NoteID:   noteID,
		FileName: fileName,
		MimeType: mimeType,
		Data:     append([]byte(nil), data...),
	}

	err := s.db.Update(ctx, func(tx *store.Tx) error {
		n, err := tx.GetNote(ctx, noteID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return tx.PutAttachment(ctx, a)
	})
	if err != nil {
		return nil, fmt.Errorf("add attachment: %w", err)
	}
	s.log.Debug().Str("attachment_id", a.ID).Str("note_id", noteID).
		Int64("size", a.SizeBytes).Msg("attachment added")
	return a, nil
}

// RemoveAttachment deletes one attachment. A missing id is a no-op.
func (s *Service) RemoveAttachment(ctx context.Context, id string) error {
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		return tx.DeleteAttachment(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("remove attachment: %w", err)
	}
	s.log.Debug().Str("attachment_id", id).Msg("attachment removed")
	return nil
}
