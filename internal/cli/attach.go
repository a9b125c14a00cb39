package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/takenote/internal/store"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage note attachments",
}

var (
	attachName string
	attachMime string
)

var attachAddCmd = &cobra.Command{
	Use:   "add <note-id> <file>",
	Short: "Attach a file to a note",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttachAdd,
}

var attachRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an attachment",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachRm,
}

var attachOut string

var attachGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Write an attachment's bytes to a file or stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttachGet,
}

func init() {
	attachAddCmd.Flags().StringVar(&attachName, "name", "", "stored file name (default the file's base name)")
	attachAddCmd.Flags().StringVar(&attachMime, "mime", "", "MIME type (default sniffed from content)")
	attachGetCmd.Flags().StringVarP(&attachOut, "output", "o", "", "output path, - for stdout (default the stored file name)")

	attachCmd.AddCommand(attachAddCmd, attachRmCmd, attachGetCmd)
}

func runAttachAdd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	name := attachName
	if name == "" {
		name = filepath.Base(args[1])
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		att, err := a.notebook.AddAttachment(ctx, args[0], data, name, attachMime)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s (%s)\n", att.ID, att.FileName, att.MimeType, humanize.Bytes(uint64(att.SizeBytes)))
		return nil
	})
}

func runAttachRm(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.notebook.RemoveAttachment(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	})
}

func runAttachGet(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		att, err := a.reader.GetAttachment(ctx, args[0])
		if err != nil {
			return err
		}
		if att == nil {
			return fmt.Errorf("attachment %s: %w", args[0], store.ErrNotFound)
		}

		if attachOut == "-" {
			_, err := cmd.OutOrStdout().Write(att.Data)
			return err
		}
		path := attachOut
		if path == "" {
			path = att.FileName
		}
		if err := os.WriteFile(path, att.Data, 0644); err != nil {
			return fmt.Errorf("write attachment: %w", err)
		}
		stderr(cmd, "Wrote %s (%s)\n", path, humanize.Bytes(uint64(len(att.Data))))
		return nil
	})
}
