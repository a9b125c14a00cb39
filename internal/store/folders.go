package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Folder groups notes. ParentID is stored but folders are not cascaded
// through it.
type Folder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// GetFolder returns a folder by id, or nil if not found.
func (tx *Tx) GetFolder(ctx context.Context, id string) (*Folder, error) {
	var f Folder
	var parentID sql.NullString
	err := tx.queryRow(ctx, `SELECT id, name, parent_id FROM folders WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &parentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", classify(err))
	}
	f.ParentID = stringPtr(parentID)
	return &f, nil
}

// PutFolder inserts a folder or replaces the row with the same id.
func (tx *Tx) PutFolder(ctx context.Context, f *Folder) error {
	_, err := tx.exec(ctx, TableFolders, `
		INSERT INTO folders (id, name, parent_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, parent_id = excluded.parent_id
	`, f.ID, f.Name, nullString(f.ParentID))
	if err != nil {
		return fmt.Errorf("put folder %s: %w", f.ID, err)
	}
	return nil
}

// BulkPutFolders puts every folder in order.
func (tx *Tx) BulkPutFolders(ctx context.Context, folders []Folder) error {
	for i := range folders {
		if err := tx.PutFolder(ctx, &folders[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFolder removes a folder row only.
func (tx *Tx) DeleteFolder(ctx context.Context, id string) error {
	if _, err := tx.exec(ctx, TableFolders, "DELETE FROM folders WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return nil
}

// AllFolders returns every folder ordered by name.
func (tx *Tx) AllFolders(ctx context.Context) ([]Folder, error) {
	rows, err := tx.query(ctx, `SELECT id, name, parent_id FROM folders ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("all folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var parentID sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &parentID); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		f.ParentID = stringPtr(parentID)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}
