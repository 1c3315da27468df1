package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage the persisted override set",
	Long: `Manage user overrides: literals keyed by token identity (e.g. size/md)
that outrank the token document's values. Overrides persist at the configured
overrides_path and load at start-up.`,
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <token> <value>",
	Short: "Set one override",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := overrideStore()
		if err != nil {
			return err
		}
		defer store.Close()

		store.Set(args[0], args[1])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear [token...]",
	Short: "Clear overrides (all of them when no tokens are named)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := overrideStore()
		if err != nil {
			return err
		}
		defer store.Close()

		before := store.Len()
		store.Clear(args...)
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d override(s)\n", before-store.Len())
		return nil
	},
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := overrideStore()
		if err != nil {
			return err
		}
		defer store.Close()

		all := store.All()
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", name, all[name])
		}
		return nil
	},
}

var overrideExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the override set to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := overrideStore()
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := yaml.Marshal(store.All())
		if err != nil {
			return fmt.Errorf("marshaling overrides: %w", err)
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil { //nolint:gosec // G306: overrides are not sensitive
			return fmt.Errorf("writing %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d override(s) to %s\n", store.Len(), args[0])
		return nil
	},
}

var overrideImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the override set from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0]) //nolint:gosec // G304: user-named import file
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		values := make(map[string]string)
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		store, err := overrideStore()
		if err != nil {
			return err
		}
		defer store.Close()

		store.ReplaceAll(values)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d override(s)\n", len(values))
		return nil
	},
}

func init() {
	overrideCmd.AddCommand(overrideSetCmd)
	overrideCmd.AddCommand(overrideClearCmd)
	overrideCmd.AddCommand(overrideListCmd)
	overrideCmd.AddCommand(overrideExportCmd)
	overrideCmd.AddCommand(overrideImportCmd)
	rootCmd.AddCommand(overrideCmd)
}
