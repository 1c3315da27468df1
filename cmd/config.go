package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/prism/internal/config"
	"github.com/zjrosen/prism/internal/document"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the prism config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config",
	Long: `Write the default config template to .prism/config.yaml (or the path
given with --config). Refuses to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = filepath.Join(".prism", "config.yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configSetDocumentCmd = &cobra.Command{
	Use:   "set-document <kind> <path>",
	Short: "Point a document kind at a file",
	Long: `Update one document path in the config file, preserving comments and
formatting in the other sections. Kind is tokens, brand, or mapping.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs := cfg.Documents
		switch document.Kind(args[0]) {
		case document.KindTokens:
			docs.TokensPath = args[1]
		case document.KindBrand:
			docs.BrandPath = args[1]
		case document.KindMapping:
			docs.MappingPath = args[1]
		default:
			return fmt.Errorf("unknown document kind %q (want tokens, brand, or mapping)", args[0])
		}

		path := cfgFile
		if path == "" {
			path = filepath.Join(".prism", "config.yaml")
		}
		if err := config.SaveDocuments(path, docs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetDocumentCmd)
	rootCmd.AddCommand(configCmd)
}
