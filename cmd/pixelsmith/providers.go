package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pixelsmith/pixelsmith/internal/llm"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newProvidersCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			for _, id := range llm.Providers() {
				info, _ := llm.Lookup(id)

				line := headerStyle.Render(info.DisplayName) + dimStyle.Render(" ("+info.ID+")")
				if info.ID == cfg.LLM.DefaultProvider {
					line += okStyle.Render("  [default]")
				}
				fmt.Println(line)

				caps := make([]string, 0, 3)
				for _, c := range []llm.Capability{llm.CapabilityText, llm.CapabilityImage, llm.CapabilityStreaming} {
					if info.Capabilities[c] {
						caps = append(caps, string(c))
					}
				}
				fmt.Println(dimStyle.Render("  capabilities: " + strings.Join(caps, ", ")))
				fmt.Println(dimStyle.Render("  models:       " + strings.Join(info.Models, ", ")))

				if probe {
					client, err := llm.NewClient(info.ID, nil, cfg)
					switch {
					case err != nil:
						fmt.Println(warnStyle.Render("  status:       " + err.Error()))
					case client.Available():
						fmt.Println(okStyle.Render("  status:       available"))
					default:
						fmt.Println(warnStyle.Render("  status:       not reachable / not configured"))
					}
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "probe each provider for availability")

	return cmd
}
