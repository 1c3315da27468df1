package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/prism/internal/stylesheet"
)

var emitOutput string

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Emit the full stylesheet",
	Long: `Resolve every output variable and print the flat :root stylesheet
block, sorted by variable name.

  prism emit
  prism emit -o theme.css`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		sheet := stylesheet.Render(eng.Snapshot())
		if emitOutput != "" {
			if err := os.WriteFile(emitOutput, []byte(sheet), 0o644); err != nil { //nolint:gosec // G306: stylesheets are not sensitive
				return fmt.Errorf("writing stylesheet: %w", err)
			}
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), sheet)
		return nil
	},
}

func init() {
	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "",
		"write the stylesheet to a file instead of stdout")
	rootCmd.AddCommand(emitCmd)
}
