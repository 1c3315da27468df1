package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/prism/internal/reference"
	"github.com/zjrosen/prism/internal/resolver"
)

var resolveDefault string

var resolveCmd = &cobra.Command{
	Use:   "resolve <collection> <path>",
	Short: "Resolve one leaf to its terminal value",
	Long: `Resolve a single document leaf to its terminal literal value,
following references and applying overrides.

The path is dot-separated. Examples:

  prism resolve tokens size.md
  prism resolve brand themes.light.layers.layer-1.properties.padding
  prism resolve brand components.button.background --default "#000000"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, ok := reference.ParseCollection(args[0])
		if !ok {
			return fmt.Errorf("unknown collection %q (want tokens or brand)", args[0])
		}
		path := strings.Split(args[1], ".")

		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		value, err := eng.Resolve(collection, path)
		if err != nil {
			if errors.Is(err, resolver.ErrUnresolvedPath) && cmd.Flags().Changed("default") {
				fmt.Fprintln(cmd.OutOrStdout(), resolveDefault)
				return nil
			}
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDefault, "default", "",
		"fallback value printed when the path does not resolve")
	rootCmd.AddCommand(resolveCmd)
}
