package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/takenote/internal/query"
	"github.com/lazypower/takenote/internal/store"
	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "List, create and delete folders",
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders with their note counts",
	Args:  cobra.NoArgs,
	RunE:  runFolderList,
}

var folderParent string

var folderNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderNew,
}

var folderRmYes bool

var folderRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a folder and every note in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderRm,
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Inspect tags",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags with their note counts",
	Args:  cobra.NoArgs,
	RunE:  runTagList,
}

func init() {
	folderNewCmd.Flags().StringVar(&folderParent, "parent", "", "parent folder id")
	folderRmCmd.Flags().BoolVarP(&folderRmYes, "yes", "y", false, "skip confirmation")

	folderCmd.AddCommand(folderListCmd, folderNewCmd, folderRmCmd)
	tagCmd.AddCommand(tagListCmd)
}

func runFolderList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		folders, err := a.reader.ListFolders(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(folders) == 0 {
			fmt.Fprintln(out, "No folders.")
			return nil
		}
		for _, f := range folders {
			notes, err := a.reader.ListNotes(ctx, query.InFolder(f.ID))
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%s  %s  (%s)", f.ID, f.Name, plural(len(notes), "note"))
			if f.ParentID != nil {
				line += "  parent " + *f.ParentID
			}
			fmt.Fprintln(out, line)
		}
		return nil
	})
}

func runFolderNew(cmd *cobra.Command, args []string) error {
	var parent *string
	if cmd.Flags().Changed("parent") && folderParent != "" {
		parent = &folderParent
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, err := a.notebook.CreateFolder(ctx, args[0], parent)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), f.ID)
		return nil
	})
}

func runFolderRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var folder *store.Folder
		err := a.db.View(ctx, func(tx *store.Tx) error {
			var err error
			folder, err = tx.GetFolder(ctx, args[0])
			return err
		})
		if err != nil {
			return err
		}
		if folder == nil {
			return fmt.Errorf("folder %s: %w", args[0], store.ErrNotFound)
		}
		notes, err := a.reader.ListNotes(ctx, query.InFolder(folder.ID))
		if err != nil {
			return err
		}
		if !folderRmYes {
			ok, err := confirm(cmd, fmt.Sprintf("Delete folder %q and its %s?", folder.Name, plural(len(notes), "note")))
			if err != nil || !ok {
				return err
			}
		}
		if err := a.notebook.DeleteFolder(ctx, folder.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s and %s\n", folder.Name, plural(len(notes), "note"))
		return nil
	})
}

func runTagList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		tags, err := a.reader.ListTags(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(tags) == 0 {
			fmt.Fprintln(out, "No tags.")
			return nil
		}
		for _, t := range tags {
			notes, err := a.reader.ListNotes(ctx, query.WithTag(t.ID))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  #%s  (%s)\n", t.ID, t.Name, plural(len(notes), "note"))
		}
		return nil
	})
}

// plural renders "1 note", "2 notes", "1,024 notes".
func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
