package notebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/lazypower/takenote/internal/store"
)

// CreateFolder inserts a folder. parentID is stored as given and not
// checked against existing folders.
func (s *Service) CreateFolder(ctx context.Context, name string, parentID *string) (*store.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create folder: %w: blank name", ErrInvalid)
	}
	f := &store.Folder{ID: s.newID(), Name: name}
	if parentID != nil && *parentID != "" {
		p := *parentID
		f.ParentID = &p
	}

	err := s.db.Update(ctx, func(tx *store.Tx) error {
		return tx.PutFolder(ctx, f)
	})
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	s.log.Debug().Str("folder_id", f.ID).Str("name", name).Msg("folder created")
	return f, nil
}

// DeleteFolder removes a folder and every note filed directly in it, along
// with those notes' tag links and attachments. Child folders are left in
// place with their parentId pointing at the removed folder.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	var removed int
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		noteIDs, err := tx.NoteIDsInFolder(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteAttachmentsForNotes(ctx, noteIDs); err != nil {
			return err
		}
		if err := tx.DeleteNoteTagsForNotes(ctx, noteIDs); err != nil {
			return err
		}
		if err := tx.BulkDelete(ctx, store.TableNotes, noteIDs); err != nil {
			return err
		}
		removed = len(noteIDs)
		return tx.DeleteFolder(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	s.log.Debug().Str("folder_id", id).Int("notes_removed", removed).Msg("folder deleted")
	return nil
}
