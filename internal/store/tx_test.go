package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpdateRollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Update(ctx, func(tx *Tx) error {
		if err := tx.PutFolder(ctx, &Folder{ID: "f1", Name: "Work"}); err != nil {
			return err
		}
		if err := tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) || !errors.Is(err, ErrTransactionAborted) {
		t.Fatalf("err = %v, want boom wrapped in ErrTransactionAborted", err)
	}

	db.View(ctx, func(tx *Tx) error {
		for _, table := range AllTables {
			n, err := tx.Count(ctx, table)
			if err != nil {
				t.Fatalf("Count(%s): %v", table, err)
			}
			if n != 0 {
				t.Errorf("%s has %d rows after rollback, want 0", table, n)
			}
		}
		return nil
	})
}

func TestUpdateNoNotificationOnRollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	before := db.Version()
	db.Update(ctx, func(tx *Tx) error {
		tx.PutSetting(ctx, Setting{Key: "theme", Value: "dark"})
		return errors.New("abort")
	})
	if db.Version() != before {
		t.Errorf("Version = %d after rollback, want %d", db.Version(), before)
	}
}

func TestViewRejectsWrites(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.View(ctx, func(tx *Tx) error {
		return tx.PutSetting(ctx, Setting{Key: "theme", Value: "dark"})
	})
	if err == nil {
		t.Error("expected error for write inside View")
	}

	db.View(ctx, func(tx *Tx) error {
		s, _ := tx.GetSetting(ctx, "theme")
		if s != nil {
			t.Errorf("setting persisted from View: %+v", s)
		}
		return nil
	})
}

func TestDeferForeignKeys(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Child before parent succeeds when checks are deferred
	put(t, db, func(ctx context.Context, tx *Tx) error {
		if err := tx.DeferForeignKeys(ctx); err != nil {
			return err
		}
		if err := tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1, FolderID: strPtr("f1")}); err != nil {
			return err
		}
		return tx.PutFolder(ctx, &Folder{ID: "f1", Name: "Late"})
	})

	// A reference that is still dangling at commit aborts the whole transaction
	err := db.Update(ctx, func(tx *Tx) error {
		if err := tx.DeferForeignKeys(ctx); err != nil {
			return err
		}
		if err := tx.PutSetting(ctx, Setting{Key: "k", Value: "v"}); err != nil {
			return err
		}
		return tx.PutNote(ctx, &Note{ID: "n2", CreatedAt: 1, UpdatedAt: 1, FolderID: strPtr("ghost")})
	})
	if !errors.Is(err, ErrTransactionAborted) {
		t.Fatalf("err = %v, want ErrTransactionAborted", err)
	}
	db.View(ctx, func(tx *Tx) error {
		s, _ := tx.GetSetting(ctx, "k")
		n, _ := tx.GetNote(ctx, "n2")
		if s != nil || n != nil {
			t.Errorf("partial commit: setting=%v note=%v", s, n)
		}
		return nil
	})
}

func TestSubscribeNotifiesAfterCommit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	notes, cancelNotes := db.Subscribe(TableNotes)
	defer cancelNotes()
	settings, cancelSettings := db.Subscribe(TableSettings)
	defer cancelSettings()

	put(t, db, func(ctx context.Context, tx *Tx) error {
		return tx.PutNote(ctx, &Note{ID: "n1", CreatedAt: 1, UpdatedAt: 1})
	})

	select {
	case c := <-notes:
		if c.Version != 1 || len(c.Tables) != 1 || c.Tables[0] != TableNotes {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification for notes subscriber")
	}

	select {
	case c := <-settings:
		t.Errorf("settings subscriber got unrelated change %+v", c)
	default:
	}

	if db.TableVersion(TableNotes) != 1 || db.TableVersion(TableSettings) != 0 {
		t.Errorf("table versions notes=%d settings=%d, want 1 and 0",
			db.TableVersion(TableNotes), db.TableVersion(TableSettings))
	}
	_ = ctx
}

func TestSubscribeCoalesces(t *testing.T) {
	db := testDB(t)

	ch, cancel := db.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		put(t, db, func(ctx context.Context, tx *Tx) error {
			return tx.PutSetting(ctx, Setting{Key: "theme", Value: "dark"})
		})
	}

	c := <-ch
	if c.Version != 5 {
		t.Errorf("latest change version = %d, want 5", c.Version)
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	db := testDB(t)

	ch, cancel := db.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
}
