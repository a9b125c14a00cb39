package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/takenote/internal/notebook"
	"github.com/lazypower/takenote/internal/query"
	"github.com/lazypower/takenote/internal/store"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "List, create and edit notes",
}

var (
	listFolder  string
	listTag     string
	listStarred bool
	listSearch  string
)

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first",
	Args:  cobra.NoArgs,
	RunE:  runNoteList,
}

var (
	newFolder  string
	newTitle   string
	newContent string
)

var noteNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE:  runNoteNew,
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note with its tags and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteShow,
}

var (
	editTitle       string
	editContent     string
	editContentFile string
	editPin         bool
	editStar        bool
	editFolder      string
)

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a note's fields",
	Long:  "Change a note's fields. Only the flags given are applied; --folder \"\" moves the note out of its folder.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteEdit,
}

var noteRmYes bool

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note with its tags links and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteRm,
}

var noteTagCmd = &cobra.Command{
	Use:   "tag <id> <name>...",
	Short: "Tag a note, creating tags as needed",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runNoteTag,
}

var noteUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag>",
	Short: "Remove a tag from a note, by tag id or name",
	Args:  cobra.ExactArgs(2),
	RunE:  runNoteUntag,
}

func init() {
	noteListCmd.Flags().StringVar(&listFolder, "folder", "", "only notes in this folder id")
	noteListCmd.Flags().StringVar(&listTag, "tag", "", "only notes with this tag id")
	noteListCmd.Flags().BoolVar(&listStarred, "starred", false, "only starred notes")
	noteListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive title/content filter")
	noteListCmd.MarkFlagsMutuallyExclusive("folder", "tag", "starred")

	noteNewCmd.Flags().StringVar(&newFolder, "folder", "", "folder id")
	noteNewCmd.Flags().StringVar(&newTitle, "title", "", "title (default "+notebook.DefaultNoteTitle+")")
	noteNewCmd.Flags().StringVar(&newContent, "content", "", "markdown body")

	noteEditCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	noteEditCmd.Flags().StringVar(&editContent, "content", "", "new markdown body")
	noteEditCmd.Flags().StringVar(&editContentFile, "content-file", "", "read the new body from a file, - for stdin")
	noteEditCmd.Flags().BoolVar(&editPin, "pin", false, "pin or unpin")
	noteEditCmd.Flags().BoolVar(&editStar, "star", false, "star or unstar")
	noteEditCmd.Flags().StringVar(&editFolder, "folder", "", "move to folder id")
	noteEditCmd.MarkFlagsMutuallyExclusive("content", "content-file")

	noteRmCmd.Flags().BoolVarP(&noteRmYes, "yes", "y", false, "skip confirmation")

	noteCmd.AddCommand(noteListCmd, noteNewCmd, noteShowCmd, noteEditCmd, noteRmCmd, noteTagCmd, noteUntagCmd)
}

func runNoteList(cmd *cobra.Command, args []string) error {
	f := query.All()
	switch {
	case listFolder != "":
		f = query.InFolder(listFolder)
	case listTag != "":
		f = query.WithTag(listTag)
	case listStarred:
		f = query.Starred()
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		notes, err := a.reader.ListNotes(ctx, f)
		if err != nil {
			return err
		}
		notes = query.PinnedFirst(query.Search(notes, listSearch))

		out := cmd.OutOrStdout()
		if len(notes) == 0 {
			fmt.Fprintln(out, "No notes found.")
			return nil
		}
		for _, n := range notes {
			fmt.Fprintf(out, "%s %s  %s  (%s)\n", noteMarks(n), n.ID, n.Title, humanize.Time(millis(n.UpdatedAt)))
		}
		return nil
	})
}

func runNoteNew(cmd *cobra.Command, args []string) error {
	var patch notebook.NotePatch
	if cmd.Flags().Changed("title") {
		patch.Title = &newTitle
	}
	if cmd.Flags().Changed("content") {
		patch.ContentMD = &newContent
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.notebook.CreateNoteWith(ctx, newFolder, patch)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	})
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.reader.GetNote(ctx, args[0])
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s: %w", args[0], store.ErrNotFound)
		}
		tags, err := a.reader.GetTagsForNote(ctx, n.ID)
		if err != nil {
			return err
		}
		atts, err := a.reader.GetAttachmentsForNote(ctx, n.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "## %s\n\n", n.Title)
		fmt.Fprintf(out, "id:       %s\n", n.ID)
		if n.FolderID != nil {
			fmt.Fprintf(out, "folder:   %s\n", *n.FolderID)
		}
		fmt.Fprintf(out, "created:  %s\n", humanize.Time(millis(n.CreatedAt)))
		fmt.Fprintf(out, "updated:  %s\n", humanize.Time(millis(n.UpdatedAt)))
		if n.IsPinned || n.IsStarred {
			fmt.Fprintf(out, "flags:    %s\n", strings.TrimSpace(noteMarks(*n)))
		}
		if len(tags) > 0 {
			names := make([]string, len(tags))
			for i, t := range tags {
				names[i] = "#" + t.Name
			}
			fmt.Fprintf(out, "tags:     %s\n", strings.Join(names, " "))
		}
		for _, att := range atts {
			fmt.Fprintf(out, "attached: %s  %s  %s (%s)\n", att.ID, att.FileName, att.MimeType, humanize.Bytes(uint64(att.SizeBytes)))
		}
		fmt.Fprintf(out, "\n%s\n", n.ContentMD)
		return nil
	})
}

func runNoteEdit(cmd *cobra.Command, args []string) error {
	var patch notebook.NotePatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("content") {
		patch.ContentMD = &editContent
	}
	if flags.Changed("content-file") {
		body, err := readContentFile(cmd, editContentFile)
		if err != nil {
			return err
		}
		patch.ContentMD = &body
	}
	if flags.Changed("pin") {
		patch.IsPinned = &editPin
	}
	if flags.Changed("star") {
		patch.IsStarred = &editStar
	}
	if flags.Changed("folder") {
		patch.FolderID = &editFolder
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to change: pass at least one of --title, --content, --content-file, --pin, --star or --folder")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.notebook.UpdateNote(ctx, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", n.ID, n.Title)
		return nil
	})
}

func runNoteRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		n, err := a.reader.GetNote(ctx, args[0])
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %s: %w", args[0], store.ErrNotFound)
		}
		if !noteRmYes {
			ok, err := confirm(cmd, fmt.Sprintf("Delete note %q with its attachments?", n.Title))
			if err != nil || !ok {
				return err
			}
		}
		if err := a.notebook.DeleteNote(ctx, n.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", n.ID)
		return nil
	})
}

func runNoteTag(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		for _, name := range args[1:] {
			tag, err := a.notebook.AddTagToNote(ctx, args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tagged #%s (%s)\n", tag.Name, tag.ID)
		}
		return nil
	})
}

func runNoteUntag(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		tags, err := a.reader.GetTagsForNote(ctx, args[0])
		if err != nil {
			return err
		}
		want := notebook.NormalizeTagName(args[1])
		for _, t := range tags {
			if t.ID == args[1] || t.Name == want {
				if err := a.notebook.RemoveTagFromNote(ctx, args[0], t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed #%s\n", t.Name)
				return nil
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %s is not tagged %s\n", args[0], args[1])
		return nil
	})
}

func readContentFile(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read content file: %w", err)
	}
	return string(data), nil
}

// noteMarks renders the pinned and starred flags as a fixed-width prefix.
func noteMarks(n store.Note) string {
	marks := []byte("  ")
	if n.IsPinned {
		marks[0] = '^'
	}
	if n.IsStarred {
		marks[1] = '*'
	}
	return string(marks)
}

func millis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
