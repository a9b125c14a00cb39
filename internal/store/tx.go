package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// Table names one entity table.
type Table string

const (
	TableNotes       Table = "notes"
	TableFolders     Table = "folders"
	TableTags        Table = "tags"
	TableNoteTags    Table = "note_tags"
	TableAttachments Table = "attachments"
	TableSettings    Table = "settings"
)

// AllTables lists every entity table.
var AllTables = []Table{
	TableNotes, TableFolders, TableTags, TableNoteTags, TableAttachments, TableSettings,
}

// primaryKeys maps single-column keyed tables to their key column.
var primaryKeys = map[Table]string{
	TableNotes:       "id",
	TableFolders:     "id",
	TableTags:        "id",
	TableAttachments: "id",
	TableSettings:    "key",
}

func (t Table) valid() bool {
	for _, known := range AllTables {
		if t == known {
			return true
		}
	}
	return false
}

// Tx is a store transaction. All table operations go through a Tx so that
// every write belongs to exactly one all-or-nothing unit.
type Tx struct {
	tx       *sql.Tx
	touched  map[Table]struct{}
	deferred bool
}

// Update runs fn inside a read-write transaction. If fn returns an error
// or the commit fails, everything fn did is rolled back and the error is
// wrapped with ErrTransactionAborted. Subscribers are notified only after
// a successful commit.
func (db *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTransactionAborted, classify(err))
	}

	tx := &Tx{tx: sqlTx, touched: make(map[Table]struct{})}
	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	if tx.deferred {
		if err := tx.checkForeignKeys(ctx); err != nil {
			sqlTx.Rollback()
			return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
		}
	}
	if err := sqlTx.Commit(); err != nil {
		sqlTx.Rollback()
		return fmt.Errorf("%w: commit: %w", ErrTransactionAborted, classify(err))
	}

	db.feed.publish(tx.tables())
	return nil
}

// View runs fn inside a transaction that is always rolled back, giving fn a
// consistent snapshot for multi-table reads.
func (db *DB) View(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", classify(err))
	}
	defer sqlTx.Rollback()

	tx := &Tx{tx: sqlTx, touched: make(map[Table]struct{})}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.touched) > 0 {
		return errors.New("write attempted inside a read transaction")
	}
	return nil
}

func (tx *Tx) tables() []Table {
	out := make([]Table, 0, len(tx.touched))
	for t := range tx.touched {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (tx *Tx) exec(ctx context.Context, table Table, query string, args ...any) (sql.Result, error) {
	res, err := tx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	tx.touched[table] = struct{}{}
	return res, nil
}

func (tx *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := tx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (tx *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.tx.QueryRowContext(ctx, query, args...)
}

// DeferForeignKeys postpones foreign key checks until the end of Update, so
// rows may be inserted in any order within this transaction.
func (tx *Tx) DeferForeignKeys(ctx context.Context) error {
	if _, err := tx.tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
		return fmt.Errorf("defer foreign keys: %w", classify(err))
	}
	tx.deferred = true
	return nil
}

// checkForeignKeys reports dangling references before commit, so a failed
// check rolls back cleanly instead of failing inside COMMIT.
func (tx *Tx) checkForeignKeys(ctx context.Context) error {
	rows, err := tx.query(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var table, parent string
		var rowid sql.NullInt64
		var fkid int
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("scan foreign key check: %w", err)
		}
		violations = append(violations, table+" -> "+parent)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: %d dangling references (first: %s)",
			ErrConstraintViolation, len(violations), violations[0])
	}
	return nil
}

// Clear removes every row of a table.
func (tx *Tx) Clear(ctx context.Context, table Table) error {
	if !table.valid() {
		return fmt.Errorf("clear: unknown table %q", table)
	}
	if _, err := tx.exec(ctx, table, "DELETE FROM "+string(table)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return nil
}

// BulkDelete removes the rows of a single-key table whose keys are in ids.
// Missing keys are ignored.
func (tx *Tx) BulkDelete(ctx context.Context, table Table, ids []string) error {
	col, ok := primaryKeys[table]
	if !ok {
		return fmt.Errorf("bulk delete: table %q has no single-column key", table)
	}
	if len(ids) == 0 {
		return nil
	}
	ph, args := placeholders(ids)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", table, col, ph)
	if _, err := tx.exec(ctx, table, query, args...); err != nil {
		return fmt.Errorf("bulk delete %s: %w", table, err)
	}
	return nil
}

// Count returns the number of rows in a table.
func (tx *Tx) Count(ctx context.Context, table Table) (int, error) {
	if !table.valid() {
		return 0, fmt.Errorf("count: unknown table %q", table)
	}
	var n int
	if err := tx.queryRow(ctx, "SELECT COUNT(*) FROM "+string(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, classify(err))
	}
	return n, nil
}

func placeholders(ids []string) (string, []any) {
	ph := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			ph = append(ph, ',')
		}
		ph = append(ph, '?')
		args[i] = id
	}
	return string(ph), args
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
