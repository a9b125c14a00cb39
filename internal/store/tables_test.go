package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func put(t *testing.T, db *DB, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := db.Update(ctx, func(tx *Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestNotePutGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutFolder(ctx, &Folder{ID: "f1", Name: "Work"}); err != nil {
			return err
		}
		return tx.PutNote(ctx, &Note{
			ID: "n1", Title: "Hello", ContentMD: "# hi", CreatedAt: 10, UpdatedAt: 20,
			IsPinned: true, FolderID: strPtr("f1"),
		})
	})

	var got *Note
	db.View(ctx, func(tx *Tx) error {
		var err error
		got, err = tx.GetNote(ctx, "n1")
		return err
	})
	if got == nil {
		t.Fatal("expected note, got nil")
	}
	if got.Title != "Hello" || got.ContentMD != "# hi" {
		t.Errorf("note = %+v", got)
	}
	if !got.IsPinned || got.IsStarred {
		t.Errorf("flags pinned=%v starred=%v, want true false", got.IsPinned, got.IsStarred)
	}
	if got.FolderID == nil || *got.FolderID != "f1" {
		t.Errorf("FolderID = %v, want f1", got.FolderID)
	}

	// Put by same key replaces
	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.PutNote(ctx, &Note{ID: "n1", Title: "Replaced", CreatedAt: 10, UpdatedAt: 30})
	})
	db.View(ctx, func(tx *Tx) error {
		got, _ = tx.GetNote(ctx, "n1")
		return nil
	})
	if got.Title != "Replaced" || got.FolderID != nil {
		t.Errorf("after replace = %+v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.View(ctx, func(tx *Tx) error {
		n, err := tx.GetNote(ctx, "missing")
		if err != nil || n != nil {
			t.Errorf("GetNote = %v, %v; want nil, nil", n, err)
		}
		f, err := tx.GetFolder(ctx, "missing")
		if err != nil || f != nil {
			t.Errorf("GetFolder = %v, %v; want nil, nil", f, err)
		}
		tag, err := tx.GetTag(ctx, "missing")
		if err != nil || tag != nil {
			t.Errorf("GetTag = %v, %v; want nil, nil", tag, err)
		}
		a, err := tx.GetAttachment(ctx, "missing")
		if err != nil || a != nil {
			t.Errorf("GetAttachment = %v, %v; want nil, nil", a, err)
		}
		s, err := tx.GetSetting(ctx, "missing")
		if err != nil || s != nil {
			t.Errorf("GetSetting = %v, %v; want nil, nil", s, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := testDB(t)

	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1})
	})
	for i := 0; i < 2; i++ {
		put(t, db, func(ctx context.Context, tx *Tx) error {
			return tx.DeleteNote(ctx, "n1")
		})
	}
}

func TestTagNameUnique(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.PutTag(ctx, &Tag{ID: "t1", Name: "go"})
	})

	err := db.Update(ctx, func(tx *Tx) error {
		return tx.PutTag(ctx, &Tag{ID: "t2", Name: "go"})
	})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("duplicate tag err = %v, want ErrConstraintViolation", err)
	}
	if !errors.Is(err, ErrTransactionAborted) {
		t.Errorf("duplicate tag err = %v, want ErrTransactionAborted", err)
	}

	// Different case is a different name at the store level
	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.PutTag(ctx, &Tag{ID: "t3", Name: "Go"})
	})
}

func TestNoteTagLinks(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		if err := tx.PutNote(ctx, &Note{ID: "n2", CreatedAt: 1, UpdatedAt: 5}); err != nil {
			return err
		}
		if err := tx.PutTag(ctx, &Tag{ID: "t1", Name: "go"}); err != nil {
			return err
		}
		// Second put of the same link is a no-op
		for i := 0; i < 2; i++ {
			if err := tx.PutNoteTag(ctx, NoteTag{NoteID: "n1", TagID: "t1"}); err != nil {
				return err
			}
		}
		return tx.PutNoteTag(ctx, NoteTag{NoteID: "n2", TagID: "t1"})
	})

	db.View(ctx, func(tx *Tx) error {
		links, err := tx.AllNoteTags(ctx)
		if err != nil {
			t.Fatalf("AllNoteTags: %v", err)
		}
		if len(links) != 2 {
			t.Errorf("links = %d, want 2", len(links))
		}
		notes, err := tx.NotesByTag(ctx, "t1")
		if err != nil {
			t.Fatalf("NotesByTag: %v", err)
		}
		if len(notes) != 2 || notes[0].ID != "n2" {
			t.Errorf("NotesByTag = %+v, want n2 first", notes)
		}
		tags, _ := tx.TagsForNote(ctx, "n1")
		if len(tags) != 1 || tags[0].Name != "go" {
			t.Errorf("TagsForNote = %+v", tags)
		}
		return nil
	})

	// Link to a missing note is rejected
	err := db.Update(ctx, func(tx *Tx) error {
		return tx.PutNoteTag(ctx, NoteTag{NoteID: "ghost", TagID: "t1"})
	})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("dangling link err = %v, want ErrConstraintViolation", err)
	}
}

func TestAttachmentPayload(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	payload := []byte{0x00, 0xff, 0x10, 0x80, 'a'}

	put(t, db, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return tx.PutAttachment(ctx, &Attachment{
			ID: "a1", NoteID: "n1", FileName: "x.bin", MimeType: "application/octet-stream",
			SizeBytes: 9999, Data: payload,
		})
	})

	db.View(ctx, func(tx *Tx) error {
		a, err := tx.GetAttachment(ctx, "a1")
		if err != nil || a == nil {
			t.Fatalf("GetAttachment = %v, %v", a, err)
		}
		if !bytes.Equal(a.Data, payload) {
			t.Errorf("Data = %v, want %v", a.Data, payload)
		}
		if a.SizeBytes != int64(len(payload)) {
			t.Errorf("SizeBytes = %d, want %d", a.SizeBytes, len(payload))
		}
		if a.Checksum != Checksum(payload) {
			t.Errorf("Checksum = %q, want %q", a.Checksum, Checksum(payload))
		}

		meta, err := tx.AttachmentsForNote(ctx, "n1")
		if err != nil {
			t.Fatalf("AttachmentsForNote: %v", err)
		}
		if len(meta) != 1 || meta[0].Data != nil {
			t.Errorf("AttachmentsForNote = %+v, want one entry without payload", meta)
		}
		return nil
	})
}

func TestEmptyAttachment(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return tx.PutAttachment(ctx, &Attachment{ID: "a1", NoteID: "n1", FileName: "empty.txt"})
	})

	db.View(ctx, func(tx *Tx) error {
		a, err := tx.GetAttachment(ctx, "a1")
		if err != nil || a == nil {
			t.Fatalf("GetAttachment = %v, %v", a, err)
		}
		if len(a.Data) != 0 || a.SizeBytes != 0 {
			t.Errorf("empty attachment = %+v", a)
		}
		return nil
	})
}

func TestClearAndBulkDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.BulkPutSettings(ctx, []Setting{
			{Key: "theme", Value: "dark"},
			{Key: "fontSize", Value: "large"},
			{Key: "lineHeight", Value: "compact"},
		})
	})
	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.BulkDelete(ctx, TableSettings, []string{"theme", "missing"})
	})

	db.View(ctx, func(tx *Tx) error {
		all, _ := tx.AllSettings(ctx)
		if len(all) != 2 {
			t.Errorf("settings after bulk delete = %d, want 2", len(all))
		}
		return nil
	})

	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.Clear(ctx, TableSettings)
	})
	db.View(ctx, func(tx *Tx) error {
		n, _ := tx.Count(ctx, TableSettings)
		if n != 0 {
			t.Errorf("settings after clear = %d, want 0", n)
		}
		return nil
	})

	err := db.Update(ctx, func(tx *Tx) error {
		return tx.BulkDelete(ctx, TableNoteTags, []string{"x"})
	})
	if err == nil {
		t.Error("expected error for bulk delete on composite-key table")
	}
	err = db.Update(ctx, func(tx *Tx) error {
		return tx.Clear(ctx, Table("sqlite_master"))
	})
	if err == nil {
		t.Error("expected error for clearing unknown table")
	}
}
