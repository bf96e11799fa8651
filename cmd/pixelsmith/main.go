// Package main is the entry point for the Pixelsmith CLI.
// Pixelsmith turns UI designs (screenshots or text descriptions) into source
// files through pluggable LLM providers.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixelsmith/pixelsmith/internal/cache"
	"github.com/pixelsmith/pixelsmith/internal/config"
	"github.com/pixelsmith/pixelsmith/internal/logging"
	"github.com/pixelsmith/pixelsmith/internal/orchestrator"
)

var (
	version  = "0.1.0"
	cfgPath  string
	verbose  bool
	provider string
	model    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pixelsmith",
		Short: "Pixelsmith - turn UI designs into source code with pluggable LLM providers",
		Long: `Pixelsmith analyzes a UI design (screenshot image and/or text description)
with an LLM provider of your choice, then generates and revises source files
from the analysis.

Analyze a design:     pixelsmith analyze --image mockup.jpg
Generate files:       pixelsmith generate --analysis analysis.txt --out ./src
List providers:       pixelsmith providers`,
		Version:           version,
		PersistentPreRunE: initLogging,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.pixelsmith/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "provider to use (default from config)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "model to use (default from config)")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newGenerateCmd(),
		newReviseCmd(),
		newProvidersCmd(),
		newCacheCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := "info"
	if cfg, err := loadConfig(); err == nil {
		level = cfg.Logging.Level
	}
	if verbose {
		level = "debug"
	}
	logging.Setup(level, os.Stderr)
	return nil
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromPath(cfgPath)
	}
	return config.Load()
}

// newService wires the configured cache store into an orchestration service.
// The returned cleanup closes the store.
func newService() (*orchestrator.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour

	var store cache.Store
	switch cfg.Cache.Backend {
	case "sqlite":
		store, err = cache.NewSQLiteStore(cfg.Cache.Path, ttl)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open cache: %w", err)
		}
	default:
		store = cache.NewMemoryStore(ttl)
	}

	svc := orchestrator.New(cfg, store)
	return svc, cfg, func() { _ = store.Close() }, nil
}

// modelConfig builds the per-request provider/model selection from flags and
// config defaults.
func modelConfig(cfg *config.Config) orchestrator.ModelConfig {
	mc := orchestrator.ModelConfig{
		Provider: provider,
		Model:    model,
	}
	if mc.Provider == "" {
		mc.Provider = cfg.LLM.DefaultProvider
	}
	if mc.Model == "" {
		mc.Model = cfg.LLM.Providers[mc.Provider].Model
	}
	return mc
}
