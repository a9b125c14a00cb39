package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/lazypower/takenote/internal/settings"
	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read and write editor preferences",
}

var settingGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingGet,
}

var settingSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingSet,
}

func init() {
	settingCmd.AddCommand(settingGetCmd, settingSetCmd)
}

func runSettingGet(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			v, ok, err := a.settings.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				def, known := settings.Defaults[args[0]]
				if !known {
					return fmt.Errorf("setting %q is not set", args[0])
				}
				v = def
			}
			fmt.Fprintln(out, v)
			return nil
		}

		all, err := a.settings.All(ctx)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s = %s\n", k, all[k])
		}
		return nil
	})
}

func runSettingSet(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		return a.settings.Set(ctx, args[0], args[1])
	})
}
