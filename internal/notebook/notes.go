package notebook

import (
	"context"
	"fmt"

	"github.com/lazypower/takenote/internal/store"
)

// NotePatch holds the fields an update changes. Nil fields are left alone.
// A FolderID pointing at "" moves the note out of its folder.
type NotePatch struct {
	Title     *string
	ContentMD *string
	IsPinned  *bool
	IsStarred *bool
	FolderID  *string
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.ContentMD == nil && p.IsPinned == nil &&
		p.IsStarred == nil && p.FolderID == nil
}

func (p NotePatch) apply(n *store.Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.ContentMD != nil {
		n.ContentMD = *p.ContentMD
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	if p.IsStarred != nil {
		n.IsStarred = *p.IsStarred
	}
	if p.FolderID != nil {
		if *p.FolderID == "" {
			n.FolderID = nil
		} else {
			id := *p.FolderID
			n.FolderID = &id
		}
	}
}

// CreateNote inserts an empty note in folderID, or unfiled when folderID is
// empty.
func (s *Service) CreateNote(ctx context.Context, folderID string) (*store.Note, error) {
	return s.CreateNoteWith(ctx, folderID, NotePatch{})
}

// CreateNoteWith inserts a note in folderID with patch applied over the
// defaults, in one transaction. Nothing is stored if the insert fails.
func (s *Service) CreateNoteWith(ctx context.Context, folderID string, patch NotePatch) (*store.Note, error) {
	now := s.nowMillis()
	n := &store.Note{
		ID:        s.newID(),
		Title:     DefaultNoteTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if folderID != "" {
		n.FolderID = &folderID
	}
	patch.apply(n)

	err := s.db.Update(ctx, func(tx *store.Tx) error {
		return tx.PutNote(ctx, n)
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.log.Debug().Str("note_id", n.ID).Str("folder_id", folderID).Msg("note created")
	return n, nil
}

// UpdateNote applies patch to the note and stamps updatedAt. The new
// updatedAt is strictly greater than the previous one even when the clock
// has not advanced.
func (s *Service) UpdateNote(ctx context.Context, id string, patch NotePatch) (*store.Note, error) {
	var updated *store.Note
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		n, err := tx.GetNote(ctx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s: %w", id, ErrNotFound)
		}
		patch.apply(n)
		n.UpdatedAt = max(s.nowMillis(), n.UpdatedAt+1, n.CreatedAt)
		if err := tx.PutNote(ctx, n); err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.log.Debug().Str("note_id", id).Int64("updated_at", updated.UpdatedAt).Msg("note updated")
	return updated, nil
}

// DeleteNote removes a note together with its tag links and attachments.
// Deleting a missing note is a no-op.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	ids := []string{id}
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		if err := tx.DeleteAttachmentsForNotes(ctx, ids); err != nil {
			return err
		}
		if err := tx.DeleteNoteTagsForNotes(ctx, ids); err != nil {
			return err
		}
		return tx.DeleteNote(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.log.Debug().Str("note_id", id).Msg("note deleted")
	return nil
}
