// Package query provides read-only views over the note store. Every call
// runs against the live store; nothing is cached between mutations.
package query

import (
	"context"
	"fmt"

	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
)

// Reader answers note, folder, tag and attachment lookups.
type Reader struct {
	db  *store.DB
	log zerolog.Logger
}

// New returns a Reader over db.
func New(db *store.DB, log zerolog.Logger) *Reader {
	return &Reader{db: db, log: log.With().Str("component", "query").Logger()}
}

// ListNotes returns the notes selected by f, most recently updated first.
// A folder or tag filter without an id, or naming an unknown id, yields an
// empty list.
func (r *Reader) ListNotes(ctx context.Context, f Filter) ([]store.Note, error) {
	var notes []store.Note
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		switch f.Kind {
		case KindAll, "":
			notes, err = tx.AllNotes(ctx)
		case KindStarred:
			notes, err = tx.StarredNotes(ctx)
		case KindFolder:
			if f.ID != "" {
				notes, err = tx.NotesByFolder(ctx, f.ID)
			}
		case KindTag:
			if f.ID != "" {
				notes, err = tx.NotesByTag(ctx, f.ID)
			}
		default:
			err = fmt.Errorf("unknown filter %q", f.Kind)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list notes %s: %w", f, err)
	}
	return orEmpty(notes), nil
}

// GetNote returns the note with id, or nil when id is empty or unknown.
func (r *Reader) GetNote(ctx context.Context, id string) (*store.Note, error) {
	if id == "" {
		return nil, nil
	}
	var n *store.Note
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.GetNote(ctx, id)
		return err
	})
	return n, err
}

// GetTagsForNote returns the tags linked to a note ordered by name.
func (r *Reader) GetTagsForNote(ctx context.Context, noteID string) ([]store.Tag, error) {
	if noteID == "" {
		return []store.Tag{}, nil
	}
	var tags []store.Tag
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		tags, err = tx.TagsForNote(ctx, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(tags), nil
}

// GetAttachmentsForNote returns attachment metadata for a note. Payloads
// are not loaded.
func (r *Reader) GetAttachmentsForNote(ctx context.Context, noteID string) ([]store.Attachment, error) {
	if noteID == "" {
		return []store.Attachment{}, nil
	}
	var atts []store.Attachment
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		atts, err = tx.AttachmentsForNote(ctx, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(atts), nil
}

// GetAttachment returns one attachment with its payload, or nil.
func (r *Reader) GetAttachment(ctx context.Context, id string) (*store.Attachment, error) {
	if id == "" {
		return nil, nil
	}
	var a *store.Attachment
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		a, err = tx.GetAttachment(ctx, id)
		return err
	})
	return a, err
}

// ListFolders returns every folder ordered by name.
func (r *Reader) ListFolders(ctx context.Context) ([]store.Folder, error) {
	var folders []store.Folder
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		folders, err = tx.AllFolders(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(folders), nil
}

// ListTags returns every tag ordered by name.
func (r *Reader) ListTags(ctx context.Context) ([]store.Tag, error) {
	var tags []store.Tag
	err := r.db.View(ctx, func(tx *store.Tx) error {
		var err error
		tags, err = tx.AllTags(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(tags), nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
