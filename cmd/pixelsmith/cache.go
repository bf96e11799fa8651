package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache occupancy and hit/miss counters",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, _, cleanup, err := newService()
				if err != nil {
					return err
				}
				defer cleanup()

				stats, err := svc.CacheStats()
				if err != nil {
					return err
				}
				fmt.Printf("analysis entries:   %d\n", stats.AnalysisEntries)
				fmt.Printf("generation entries: %d\n", stats.GenerationEntries)
				fmt.Printf("total:              %d\n", stats.Total)
				fmt.Printf("hits/misses:        %d/%d\n", stats.Hits, stats.Misses)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached results",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, _, cleanup, err := newService()
				if err != nil {
					return err
				}
				defer cleanup()

				if err := svc.ClearCache(); err != nil {
					return err
				}
				fmt.Println("cache cleared")
				return nil
			},
		},
	)

	return cmd
}
