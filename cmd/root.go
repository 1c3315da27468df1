package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/prism/internal/config"
	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/engine"
	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/override"
	"github.com/zjrosen/prism/internal/reference"
	"github.com/zjrosen/prism/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "prism",
	Short:   "Design-token resolution and CSS variable synthesis",
	Long:    `Resolves design-token documents (raw tokens, brand/theme tree, component mapping) into a flat set of CSS custom properties, with user overrides, derived elevations, and accessibility on-tone colors.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/prism/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to prism.log")
	rootCmd.PersistentFlags().String("tokens", "", "path to the tokens document")
	rootCmd.PersistentFlags().String("brand", "", "path to the brand document")
	rootCmd.PersistentFlags().String("mapping", "", "path to the component mapping document")
	rootCmd.PersistentFlags().Bool("strict", false,
		"treat malformed bracketed references as errors instead of literals")

	_ = viper.BindPFlag("documents.tokens", rootCmd.PersistentFlags().Lookup("tokens"))
	_ = viper.BindPFlag("documents.brand", rootCmd.PersistentFlags().Lookup("brand"))
	_ = viper.BindPFlag("documents.mapping", rootCmd.PersistentFlags().Lookup("mapping"))
	_ = viper.BindPFlag("strict_references", rootCmd.PersistentFlags().Lookup("strict"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("documents.tokens", defaults.Documents.TokensPath)
	viper.SetDefault("documents.brand", defaults.Documents.BrandPath)
	viper.SetDefault("documents.mapping", defaults.Documents.MappingPath)
	viper.SetDefault("overrides_path", defaults.OverridesPath)
	viper.SetDefault("preview.window", defaults.Preview.Window)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("strict_references", defaults.StrictReferences)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .prism/config.yaml (current directory)
		// 2. ~/.config/prism/config.yaml (user config)
		if _, err := os.Stat(".prism/config.yaml"); err == nil {
			viper.SetConfigFile(".prism/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "prism"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - continue with defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debug || os.Getenv("PRISM_DEBUG") != "" {
		if _, err := log.Init("prism.log"); err != nil {
			fmt.Fprintf(os.Stderr, "initializing debug log: %v\n", err)
		}
	}
}

// loadDocuments reads the configured document files. Missing optional files
// yield nil trees; only files that exist but fail to parse are errors.
func loadDocuments() (*document.Index, error) {
	load := func(kind document.Kind, path string) (document.Tree, error) {
		if path == "" {
			return nil, nil
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Warn(log.CatDocument, "document file missing", "kind", kind, "path", path)
			return nil, nil
		}
		return document.LoadFile(path)
	}

	tokens, err := load(document.KindTokens, cfg.Documents.TokensPath)
	if err != nil {
		return nil, err
	}
	brand, err := load(document.KindBrand, cfg.Documents.BrandPath)
	if err != nil {
		return nil, err
	}
	mapping, err := load(document.KindMapping, cfg.Documents.MappingPath)
	if err != nil {
		return nil, err
	}

	return document.NewIndex(tokens, brand, mapping), nil
}

// strictCheck walks every leaf and rejects bracketed strings that fail to
// parse as references. Only runs when strict_references is set.
func strictCheck(index *document.Index) error {
	var errs []error
	check := func(path []string, leaf document.Leaf) {
		if _, err := reference.ParseStrict(leaf.Raw); err != nil {
			if errors.Is(err, reference.ErrMalformedReference) {
				errs = append(errs, err)
			}
		}
	}
	index.Walk(reference.CollectionTokens, check)
	index.Walk(reference.CollectionBrand, check)
	return errors.Join(errs...)
}

// newEngine assembles the full stack from config: documents, override store,
// tracing, and the engine. The returned cleanup shuts everything down.
func newEngine() (*engine.Engine, func(), error) {
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}

	index, err := loadDocuments()
	if err != nil {
		return nil, nil, err
	}
	if cfg.StrictReferences {
		if err := strictCheck(index); err != nil {
			return nil, nil, fmt.Errorf("strict reference check: %w", err)
		}
	}

	overrides, err := override.NewStore(cfg.OverridesPath)
	if err != nil {
		return nil, nil, err
	}

	traceCfg := cfg.Tracing
	if traceCfg.Enabled && traceCfg.Exporter == "file" && traceCfg.FilePath == "" {
		traceCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(traceCfg)
	if err != nil {
		overrides.Close()
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	eng := engine.New(index, overrides, engine.Options{
		Tracer:        provider.Tracer(),
		PreviewWindow: cfg.Preview.Window,
	})

	cleanup := func() {
		eng.Close()
		overrides.Close()
		_ = provider.Shutdown(context.Background())
	}
	return eng, cleanup, nil
}

// overrideStore opens just the override store, for commands that do not need
// a full engine.
func overrideStore() (*override.Store, error) {
	return override.NewStore(cfg.OverridesPath)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
