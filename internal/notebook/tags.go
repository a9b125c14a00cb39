package notebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/lazypower/takenote/internal/store"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTagName trims, NFC-normalizes and lowercases a tag name so that
// visually equal names map onto one tag.
func NormalizeTagName(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}

// AddTagToNote links the tag called name to a note, creating the tag when
// no tag has that normalized name yet. Adding a tag the note already has is
// a no-op that returns the existing tag.
func (s *Service) AddTagToNote(ctx context.Context, noteID, name string) (*store.Tag, error) {
	name = NormalizeTagName(name)
	if name == "" {
		return nil, fmt.Errorf("add tag: %w: blank name", ErrInvalid)
	}

	var tag *store.Tag
	var created bool
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		n, err := tx.GetNote(ctx, noteID)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}

		tag, err = tx.GetTagByName(ctx, name)
		if err != nil {
			return err
		}
		if tag == nil {
			// The unique index decides if another writer got here first.
			tag = &store.Tag{ID: s.newID(), Name: name}
			if err := tx.PutTag(ctx, tag); err != nil {
				return err
			}
			created = true
		}
		return tx.PutNoteTag(ctx, store.NoteTag{NoteID: noteID, TagID: tag.ID})
	})
	if err != nil {
		return nil, fmt.Errorf("add tag: %w", err)
	}
	s.log.Debug().Str("note_id", noteID).Str("tag", name).Bool("created", created).Msg("tag added")
	return tag, nil
}

// RemoveTagFromNote deletes one note/tag link. The tag itself stays. A
// missing link is a no-op.
func (s *Service) RemoveTagFromNote(ctx context.Context, noteID, tagID string) error {
	err := s.db.Update(ctx, func(tx *store.Tx) error {
		return tx.DeleteNoteTag(ctx, noteID, tagID)
	})
	if err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	s.log.Debug().Str("note_id", noteID).Str("tag_id", tagID).Msg("tag removed")
	return nil
}
