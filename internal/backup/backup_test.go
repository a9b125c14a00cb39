package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) (*Codec, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, zerolog.Nop()), db
}

func strPtr(s string) *string { return &s }

// dump is a full table scan used to compare stores.
type dump struct {
	Notes       []store.Note
	Folders     []store.Folder
	Tags        []store.Tag
	NoteTags    []store.NoteTag
	Settings    []store.Setting
	Attachments []store.Attachment
}

func scan(t *testing.T, db *store.DB) dump {
	t.Helper()
	ctx := context.Background()
	var d dump
	require.NoError(t, db.View(ctx, func(tx *store.Tx) error {
		var err error
		if d.Notes, err = tx.AllNotes(ctx); err != nil {
			return err
		}
		if d.Folders, err = tx.AllFolders(ctx); err != nil {
			return err
		}
		if d.Tags, err = tx.AllTags(ctx); err != nil {
			return err
		}
		if d.NoteTags, err = tx.AllNoteTags(ctx); err != nil {
			return err
		}
		if d.Settings, err = tx.AllSettings(ctx); err != nil {
			return err
		}
		d.Attachments, err = tx.AllAttachments(ctx)
		return err
	}))
	for i := range d.Attachments {
		// nil and empty payloads are the same attachment
		if len(d.Attachments[i].Data) == 0 {
			d.Attachments[i].Data = nil
		}
	}
	return d
}

func populate(t *testing.T, db *store.DB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.Update(ctx, func(tx *store.Tx) error {
		if err := tx.BulkPutFolders(ctx, []store.Folder{
			{ID: "f1", Name: "Work"},
			{ID: "f2", Name: "Archive", ParentID: strPtr("f1")},
		}); err != nil {
			return err
		}
		if err := tx.BulkPutNotes(ctx, []store.Note{
			{ID: "n1", Title: "Plan", ContentMD: "# Plan\n- ship", CreatedAt: 100, UpdatedAt: 200, IsPinned: true, FolderID: strPtr("f1")},
			{ID: "n2", Title: "Loose", ContentMD: "ünïcödé ✓", CreatedAt: 150, UpdatedAt: 150, IsStarred: true},
		}); err != nil {
			return err
		}
		if err := tx.BulkPutTags(ctx, []store.Tag{{ID: "t1", Name: "go"}, {ID: "t2", Name: "ideas"}}); err != nil {
			return err
		}
		if err := tx.BulkPutNoteTags(ctx, []store.NoteTag{
			{NoteID: "n1", TagID: "t1"}, {NoteID: "n2", TagID: "t1"}, {NoteID: "n2", TagID: "t2"},
		}); err != nil {
			return err
		}
		if err := tx.BulkPutSettings(ctx, []store.Setting{{Key: "theme", Value: "dark"}, {Key: "fontSize", Value: "large"}}); err != nil {
			return err
		}
		return tx.BulkPutAttachments(ctx, []store.Attachment{
			{ID: "a1", NoteID: "n1", FileName: "diagram.png", MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 0xff}},
			{ID: "a2", NoteID: "n2", FileName: "empty.txt", MimeType: "text/plain"},
		})
	}))
}

func export(t *testing.T, c *Codec) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := c.Export(context.Background(), &buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func importBytes(c *Codec, archive []byte) (Stats, error) {
	return c.Import(context.Background(), bytes.NewReader(archive), int64(len(archive)), true)
}

func buildArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	src, srcDB := testCodec(t)
	populate(t, srcDB)
	before := scan(t, srcDB)

	archive := export(t, src)

	dst, dstDB := testCodec(t)
	// Pre-existing rows must be replaced, not merged.
	require.NoError(t, dstDB.Update(context.Background(), func(tx *store.Tx) error {
		return tx.PutSetting(context.Background(), store.Setting{Key: "stale", Value: "yes"})
	}))

	stats, err := importBytes(dst, archive)
	require.NoError(t, err)
	assert.Equal(t, Stats{Notes: 2, Folders: 2, Tags: 2, NoteTags: 3, Settings: 2, Attachments: 2}, stats)
	assert.Equal(t, before, scan(t, dstDB))

	// Importing into the source itself is also lossless.
	_, err = importBytes(src, archive)
	require.NoError(t, err)
	assert.Equal(t, before, scan(t, srcDB))
}

func TestExportLayout(t *testing.T) {
	c, db := testCodec(t)
	populate(t, db)
	archive := export(t, c)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}
	require.Contains(t, names, ManifestName)
	require.Contains(t, names, "attachments/a1")
	require.Contains(t, names, "attachments/a2")

	rc, err := names["attachments/a1"].Open()
	require.NoError(t, err)
	var payload bytes.Buffer
	_, err = payload.ReadFrom(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 0xff}, payload.Bytes())

	rc, err = names[ManifestName].Open()
	require.NoError(t, err)
	var doc map[string][]map[string]any
	require.NoError(t, json.NewDecoder(rc).Decode(&doc))
	rc.Close()

	for _, key := range []string{"notes", "folders", "tags", "noteTags", "settings", "attachments"} {
		assert.Contains(t, doc, key)
	}
	for _, a := range doc["attachments"] {
		assert.NotContains(t, a, "data")
		assert.Contains(t, a, "sizeBytes")
	}
	assert.Equal(t, "n1", doc["notes"][0]["id"])
}

func TestExportEmptyStore(t *testing.T) {
	c, _ := testCodec(t)
	archive := export(t, c)

	dst, dstDB := testCodec(t)
	stats, err := importBytes(dst, archive)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Empty(t, scan(t, dstDB).Notes)
}

func TestImportRequiresConfirmation(t *testing.T) {
	c, db := testCodec(t)
	populate(t, db)
	archive := export(t, c)
	before := scan(t, db)

	_, err := c.Import(context.Background(), bytes.NewReader(archive), int64(len(archive)), false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, before, scan(t, db))
}

func TestImportMissingManifestLeavesStoreUnchanged(t *testing.T) {
	c, db := testCodec(t)
	populate(t, db)
	before := scan(t, db)
	version := db.Version()

	archive := buildArchive(t, map[string][]byte{"attachments/a1": []byte("x")})
	_, err := importBytes(c, archive)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, before, scan(t, db))
	assert.Equal(t, version, db.Version())
}

func TestImportRejectsMalformedArchives(t *testing.T) {
	c, db := testCodec(t)
	populate(t, db)
	before := scan(t, db)

	tests := map[string][]byte{
		"not a zip":    []byte("definitely not a zip"),
		"bad json":     buildArchive(t, map[string][]byte{ManifestName: []byte(`{"notes": [`)}),
		"wrong schema": buildArchive(t, map[string][]byte{ManifestName: []byte(`{"notes": {"id": 1}}`)}),
	}
	for name, archive := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := importBytes(c, archive)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Equal(t, before, scan(t, db))
		})
	}
}

func TestImportConstraintFailureLeavesStoreUnchanged(t *testing.T) {
	c, db := testCodec(t)
	populate(t, db)
	before := scan(t, db)

	// Two tags with one name violate uniqueness halfway through the insert.
	doc := `{
		"notes": [{"id": "x1", "title": "t", "content_md": "", "createdAt": 1, "updatedAt": 1}],
		"tags": [{"id": "a", "name": "dup"}, {"id": "b", "name": "dup"}]
	}`
	_, err := importBytes(c, buildArchive(t, map[string][]byte{ManifestName: []byte(doc)}))
	assert.ErrorIs(t, err, store.ErrTransactionAborted)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
	assert.Equal(t, before, scan(t, db))
}

func TestImportDropsUnrestorableRows(t *testing.T) {
	c, db := testCodec(t)

	doc := `{
		"notes": [
			{"id": "n1", "title": "kept", "content_md": "", "createdAt": 1, "updatedAt": 2, "folderId": "gone"}
		],
		"folders": [],
		"tags": [{"id": "t1", "name": "x"}],
		"noteTags": [{"noteId": "n1", "tagId": "t1"}, {"noteId": "n9", "tagId": "t1"}],
		"settings": [{"key": "theme", "value": "light"}],
		"attachments": [
			{"id": "a1", "noteId": "n1", "fileName": "ok.txt", "filePath": "", "mimeType": "text/plain", "sizeBytes": 999},
			{"id": "a2", "noteId": "n1", "fileName": "lost.txt", "mimeType": "text/plain", "sizeBytes": 3},
			{"id": "a3", "noteId": "n9", "fileName": "orphan.txt", "mimeType": "text/plain", "sizeBytes": 1}
		]
	}`
	archive := buildArchive(t, map[string][]byte{
		ManifestName:     []byte(doc),
		"attachments/a1": []byte("hello"),
		"attachments/a3": []byte("z"),
	})

	stats, err := importBytes(c, archive)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Attachments)
	assert.Equal(t, 3, stats.Dropped)
	assert.Equal(t, 1, stats.Unfiled)

	d := scan(t, db)
	require.Len(t, d.Notes, 1)
	assert.Nil(t, d.Notes[0].FolderID)
	assert.Equal(t, []store.NoteTag{{NoteID: "n1", TagID: "t1"}}, d.NoteTags)
	require.Len(t, d.Attachments, 1)
	assert.Equal(t, "a1", d.Attachments[0].ID)
	// Size comes from the payload, not the manifest.
	assert.Equal(t, int64(5), d.Attachments[0].SizeBytes)
	assert.Equal(t, []byte("hello"), d.Attachments[0].Data)
}

func TestImportNotifiesSubscribers(t *testing.T) {
	src, srcDB := testCodec(t)
	populate(t, srcDB)
	archive := export(t, src)

	dst, dstDB := testCodec(t)
	ch, cancel := dstDB.Subscribe(store.TableNotes)
	defer cancel()

	_, err := importBytes(dst, archive)
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Len(t, c.Tables, len(store.AllTables))
	case <-time.After(time.Second):
		t.Fatal("no change notification after import")
	}
}

func TestExportImportFile(t *testing.T) {
	src, srcDB := testCodec(t)
	populate(t, srcDB)

	path := filepath.Join(t.TempDir(), FileName(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
	_, err := src.ExportFile(context.Background(), path)
	require.NoError(t, err)

	dst, dstDB := testCodec(t)
	_, err = dst.ImportFile(context.Background(), path, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = dst.ImportFile(context.Background(), path, true)
	require.NoError(t, err)
	assert.Equal(t, scan(t, srcDB), scan(t, dstDB))
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "takenote_backup_2024-03-09.qnote", got)
}
