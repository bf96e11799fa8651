package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pixelsmith/pixelsmith/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API keys redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(redactKeys(cfg))
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	})

	return cmd
}

// redactKeys returns a copy of cfg with API keys masked.
func redactKeys(cfg *config.Config) *config.Config {
	redacted := *cfg
	redacted.LLM.Providers = make(map[string]config.ProviderConfig, len(cfg.LLM.Providers))
	for name, pc := range cfg.LLM.Providers {
		if pc.APIKey != "" {
			pc.APIKey = "********"
		}
		redacted.LLM.Providers[name] = pc
	}
	return &redacted
}
