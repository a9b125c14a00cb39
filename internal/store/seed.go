package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const welcomeContent = "# Welcome to TakeNote!\n\n" +
	"This is a simple, fluid, and beautiful note-taking app.\n\n" +
	"## Features\n\n" +
	"- **Markdown Support**: Write in Markdown and see it rendered beautifully.\n" +
	"- **Folders & Tags**: Organize your notes with folders and tags.\n" +
	"- **Local-First**: All your data is stored securely on your own device.\n" +
	"- **Fast Search**: Quickly find what you're looking for.\n" +
	"- **Backups**: Export everything, attachments included, to a single file.\n\n" +
	"Enjoy taking notes!"

const markdownContent = "# Heading 1\n## Heading 2\n### Heading 3\n\n" +
	"*Italic text*\n**Bold text**\n`inline code`\n\n" +
	"- List item 1\n- List item 2\n\n" +
	"```go\nfunc hello() {\n    fmt.Println(\"Hello, World!\")\n}\n```"

// SeedIfEmpty populates a brand new store with example content. It does
// nothing and returns false if any table already has rows.
func (db *DB) SeedIfEmpty(ctx context.Context) (bool, error) {
	seeded := false
	err := db.Update(ctx, func(tx *Tx) error {
		for _, t := range AllTables {
			n, err := tx.Count(ctx, t)
			if err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
		}

		now := time.Now().UnixMilli()
		folderID := uuid.NewString()
		welcomeID := uuid.NewString()
		markdownID := uuid.NewString()
		welcomeTagID := uuid.NewString()
		guideTagID := uuid.NewString()

		if err := tx.PutFolder(ctx, &Folder{ID: folderID, Name: "Getting Started"}); err != nil {
			return err
		}
		if err := tx.BulkPutNotes(ctx, []Note{
			{
				ID: welcomeID, Title: "Welcome to TakeNote!", ContentMD: welcomeContent,
				CreatedAt: now, UpdatedAt: now, IsPinned: true, IsStarred: true, FolderID: &folderID,
			},
			{
				ID: markdownID, Title: "Markdown Basics", ContentMD: markdownContent,
				CreatedAt: now, UpdatedAt: now, FolderID: &folderID,
			},
		}); err != nil {
			return err
		}
		if err := tx.BulkPutTags(ctx, []Tag{
			{ID: welcomeTagID, Name: "welcome"},
			{ID: guideTagID, Name: "guide"},
		}); err != nil {
			return err
		}
		if err := tx.BulkPutNoteTags(ctx, []NoteTag{
			{NoteID: welcomeID, TagID: welcomeTagID},
			{NoteID: markdownID, TagID: guideTagID},
		}); err != nil {
			return err
		}
		if err := tx.PutSetting(ctx, Setting{Key: "theme", Value: "system"}); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return seeded, nil
}
