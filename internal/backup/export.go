// Package backup writes the whole note store to a single zip archive and
// restores a store from one.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
)

// Codec exports and imports archives for one store.
type Codec struct {
	db  *store.DB
	log zerolog.Logger
	now func() time.Time
}

// New returns a Codec over db.
func New(db *store.DB, log zerolog.Logger) *Codec {
	return &Codec{
		db:  db,
		log: log.With().Str("component", "backup").Logger(),
		now: time.Now,
	}
}

// Export writes an archive of every table to w. The store is only read.
func (c *Codec) Export(ctx context.Context, w io.Writer) (Stats, error) {
	var m manifest
	var atts []store.Attachment
	err := c.db.View(ctx, func(tx *store.Tx) error {
		var err error
		if m.Notes, err = tx.AllNotes(ctx); err != nil {
			return err
		}
		if m.Folders, err = tx.AllFolders(ctx); err != nil {
			return err
		}
		if m.Tags, err = tx.AllTags(ctx); err != nil {
			return err
		}
		if m.NoteTags, err = tx.AllNoteTags(ctx); err != nil {
			return err
		}
		if m.Settings, err = tx.AllSettings(ctx); err != nil {
			return err
		}
		atts, err = tx.AllAttachments(ctx)
		return err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("export: read store: %w", err)
	}

	m.Attachments = make([]attachmentMeta, len(atts))
	for i, a := range atts {
		m.Attachments[i] = attachmentMeta{
			ID:        a.ID,
			NoteID:    a.NoteID,
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
		}
	}
	m.normalize()

	zw := zip.NewWriter(w)
	modified := c.now()

	if _, err := zw.CreateHeader(&zip.FileHeader{Name: AttachmentDir, Modified: modified}); err != nil {
		return Stats{}, fmt.Errorf("export: %w", err)
	}
	for _, a := range atts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     AttachmentDir + a.ID,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return Stats{}, fmt.Errorf("export attachment %s: %w", a.ID, err)
		}
		if _, err := fw.Write(a.Data); err != nil {
			return Stats{}, fmt.Errorf("export attachment %s: %w", a.ID, err)
		}
	}

	doc, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Stats{}, fmt.Errorf("export: encode manifest: %w", err)
	}
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("export: %w", err)
	}
	if _, err := fw.Write(doc); err != nil {
		return Stats{}, fmt.Errorf("export: write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return Stats{}, fmt.Errorf("export: finish archive: %w", err)
	}

	stats := m.stats()
	c.log.Info().Int("notes", stats.Notes).Int("attachments", stats.Attachments).Msg("export complete")
	return stats, nil
}

// ExportFile writes an archive to path. The file appears only once the
// archive is complete.
func (c *Codec) ExportFile(ctx context.Context, path string) (Stats, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".takenote-export-*")
	if err != nil {
		return Stats{}, fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	stats, err := c.Export(ctx, tmp)
	if err != nil {
		tmp.Close()
		return Stats{}, err
	}
	if err := tmp.Close(); err != nil {
		return Stats{}, fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Stats{}, fmt.Errorf("export: %w", err)
	}
	return stats, nil
}

// normalize turns nil slices into empty arrays so the manifest always
// carries every key.
func (m *manifest) normalize() {
	if m.Notes == nil {
		m.Notes = []store.Note{}
	}
	if m.Folders == nil {
		m.Folders = []store.Folder{}
	}
	if m.Tags == nil {
		m.Tags = []store.Tag{}
	}
	if m.NoteTags == nil {
		m.NoteTags = []store.NoteTag{}
	}
	if m.Settings == nil {
		m.Settings = []store.Setting{}
	}
	if m.Attachments == nil {
		m.Attachments = []attachmentMeta{}
	}
}

func (m *manifest) stats() Stats {
	return Stats{
		Notes:       len(m.Notes),
		Folders:     len(m.Folders),
		Tags:        len(m.Tags),
		NoteTags:    len(m.NoteTags),
		Settings:    len(m.Settings),
		Attachments: len(m.Attachments),
	}
}
