package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/stylesheet"
	"github.com/zjrosen/prism/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch documents and print stylesheet diffs",
	Long: `Watch the configured document files, re-resolve on every change,
and print a line diff of the stylesheet per settled change. Runs until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		paths := make(map[string]document.Kind)
		for kindName, path := range cfg.DocumentPaths() {
			paths[path] = document.Kind(kindName)
		}
		if len(paths) == 0 {
			return fmt.Errorf("no document paths configured to watch")
		}

		w, err := watcher.New(watcher.Config{
			Paths:       paths,
			DebounceDur: cfg.Watch.Debounce,
		})
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()

		onChange, err := w.Start()
		if err != nil {
			return err
		}

		pathFor := cfg.DocumentPaths()
		sheet := stylesheet.Render(eng.Snapshot())
		fmt.Fprint(cmd.OutOrStdout(), sheet)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		for {
			select {
			case kinds := <-onChange:
				for _, kind := range kinds {
					path := pathFor[string(kind)]
					tree, err := document.LoadFile(path)
					if err != nil {
						// Likely caught mid-write; the next event retries.
						log.Warn(log.CatWatcher, "reload failed", "kind", kind, "error", err)
						fmt.Fprintf(cmd.ErrOrStderr(), "reload %s: %v\n", kind, err)
						continue
					}
					cs := eng.SetDocument(kind, tree)
					log.Info(log.CatWatcher, "document reloaded", "kind", kind, "changed", len(cs.ChangedVariableNames))
				}

				next := stylesheet.Render(eng.Snapshot())
				if diff := stylesheet.Diff(sheet, next); diff != "" {
					fmt.Fprint(cmd.OutOrStdout(), diff)
				}
				sheet = next

			case <-sig:
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
