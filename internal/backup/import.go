package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
	"github.com/lazypower/takenote/internal/store"
)

// maxManifestSize bounds the export.json entry read into memory.
const maxManifestSize = 256 << 20

// Import replaces the entire store with the contents of the archive in r.
// Nothing happens unless confirmed is true. The archive is fully read and
// checked before the store is touched, and the replacement runs as one
// transaction, so any failure leaves the store as it was.
//
// Attachments whose payload entry is missing are dropped, as are
// attachments and tag links pointing at notes or tags absent from the
// archive. Notes filed in a folder absent from the archive become unfiled.
func (c *Codec) Import(ctx context.Context, r io.ReaderAt, size int64, confirmed bool) (Stats, error) {
	if !confirmed {
		return Stats{}, ErrNotConfirmed
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	mf, ok := entries[ManifestName]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %s not found", ErrFormat, ManifestName)
	}
	doc, err := readEntry(mf, maxManifestSize)
	if err != nil {
		return Stats{}, err
	}
	var m manifest
	if err := json.Unmarshal(doc, &m); err != nil {
		return Stats{}, fmt.Errorf("%w: %s: %v", ErrFormat, ManifestName, err)
	}

	stats := Stats{}
	atts := make([]store.Attachment, 0, len(m.Attachments))
	for _, meta := range m.Attachments {
		f, ok := entries[AttachmentDir+meta.ID]
		if meta.ID == "" || !ok {
			stats.Dropped++
			c.log.Warn().Str("attachment_id", meta.ID).Msg("import: attachment payload missing, dropped")
			continue
		}
		data, err := readEntry(f, int64(f.UncompressedSize64))
		if err != nil {
			return Stats{}, err
		}
		atts = append(atts, store.Attachment{
			ID:       meta.ID,
			NoteID:   meta.NoteID,
			FileName: meta.FileName,
			MimeType: meta.MimeType,
			Data:     data,
		})
	}
	atts = c.repair(&m, atts, &stats)

	err = c.db.Update(ctx, func(tx *store.Tx) error {
		if err := tx.DeferForeignKeys(ctx); err != nil {
			return err
		}
		for _, table := range store.AllTables {
			if err := tx.Clear(ctx, table); err != nil {
				return err
			}
		}
		if err := tx.BulkPutFolders(ctx, m.Folders); err != nil {
			return err
		}
		if err := tx.BulkPutNotes(ctx, m.Notes); err != nil {
			return err
		}
		if err := tx.BulkPutTags(ctx, m.Tags); err != nil {
			return err
		}
		if err := tx.BulkPutNoteTags(ctx, m.NoteTags); err != nil {
			return err
		}
		if err := tx.BulkPutSettings(ctx, m.Settings); err != nil {
			return err
		}
		return tx.BulkPutAttachments(ctx, atts)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("import: %w", err)
	}

	stats.Notes = len(m.Notes)
	stats.Folders = len(m.Folders)
	stats.Tags = len(m.Tags)
	stats.NoteTags = len(m.NoteTags)
	stats.Settings = len(m.Settings)
	stats.Attachments = len(atts)
	c.log.Info().
		Int("notes", stats.Notes).
		Int("attachments", stats.Attachments).
		Int("dropped", stats.Dropped).
		Int("unfiled", stats.Unfiled).
		Msg("import complete")
	return stats, nil
}

// ImportFile imports the archive at path.
func (c *Codec) ImportFile(ctx context.Context, path string, confirmed bool) (Stats, error) {
	if !confirmed {
		return Stats{}, ErrNotConfirmed
	}
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Stats{}, fmt.Errorf("import: %w", err)
	}
	return c.Import(ctx, f, info.Size(), confirmed)
}

// repair drops rows that would reference something the archive does not
// contain and returns the attachments left to restore.
func (c *Codec) repair(m *manifest, atts []store.Attachment, stats *Stats) []store.Attachment {
	folders := make(map[string]bool, len(m.Folders))
	for _, f := range m.Folders {
		folders[f.ID] = true
	}
	notes := make(map[string]bool, len(m.Notes))
	for i := range m.Notes {
		n := &m.Notes[i]
		notes[n.ID] = true
		if n.FolderID != nil && !folders[*n.FolderID] {
			c.log.Warn().Str("note_id", n.ID).Str("folder_id", *n.FolderID).Msg("import: folder missing, note unfiled")
			n.FolderID = nil
			stats.Unfiled++
		}
	}
	tags := make(map[string]bool, len(m.Tags))
	for _, t := range m.Tags {
		tags[t.ID] = true
	}

	links := m.NoteTags[:0]
	for _, nt := range m.NoteTags {
		if notes[nt.NoteID] && tags[nt.TagID] {
			links = append(links, nt)
			continue
		}
		stats.Dropped++
	}
	m.NoteTags = links

	kept := atts[:0]
	for _, a := range atts {
		if notes[a.NoteID] {
			kept = append(kept, a)
			continue
		}
		c.log.Warn().Str("attachment_id", a.ID).Str("note_id", a.NoteID).Msg("import: owning note missing, attachment dropped")
		stats.Dropped++
	}
	return kept
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFormat, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFormat, f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFormat, f.Name, limit)
	}
	return data, nil
}
