package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/takenote/internal/backup"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write a backup archive",
	Long:  "Write every note, folder, tag, setting and attachment to a " + backup.Extension + " archive. The default path is takenote_backup_<today>" + backup.Extension + " in the current directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Replace everything with the contents of a backup archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "skip confirmation")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := backup.FileName(time.Now())
	if len(args) == 1 {
		path = args[0]
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		stats, err := a.backup.ExportFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		printStats(cmd.OutOrStdout(), stats)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		confirmed := importYes
		if !confirmed {
			ok, err := confirm(cmd, "Importing replaces every note, folder, tag, setting and attachment. Continue?")
			if err != nil {
				return err
			}
			confirmed = ok
		}
		if !confirmed {
			return nil
		}

		stats, err := a.backup.ImportFile(ctx, args[0], confirmed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[0])
		printStats(cmd.OutOrStdout(), stats)
		return nil
	})
}

func printStats(w io.Writer, s backup.Stats) {
	fmt.Fprintf(w, "  %s, %s, %s, %s\n",
		plural(s.Notes, "note"), plural(s.Folders, "folder"), plural(s.Tags, "tag"), plural(s.Attachments, "attachment"))
	fmt.Fprintf(w, "  %s, %s\n", plural(s.NoteTags, "tag link"), plural(s.Settings, "setting"))
	if s.Dropped > 0 || s.Unfiled > 0 {
		fmt.Fprintf(w, "  repaired: %s dropped, %s unfiled\n", humanize.Comma(int64(s.Dropped)), humanize.Comma(int64(s.Unfiled)))
	}
}
