package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixelsmith/pixelsmith/internal/orchestrator"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		imagePath string
		text      string
		stream    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a UI design into an implementation-ready description",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			input := orchestrator.DesignInput{Text: text}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				input.Image = data
			}

			mc := modelConfig(cfg)

			if stream {
				chunks, err := svc.StreamAnalyze(cmd.Context(), input, mc)
				if err != nil {
					return err
				}
				var streamErr error
				for chunk := range chunks {
					switch chunk.Kind {
					case orchestrator.ChunkData:
						fmt.Print(chunk.Text)
					case orchestrator.ChunkError:
						streamErr = errors.Join(streamErr, chunk.Err)
					}
				}
				fmt.Println()
				return streamErr
			}

			result, err := svc.Analyze(cmd.Context(), input, mc)
			if err != nil {
				return err
			}

			fmt.Println(result.AnalysisText)
			fmt.Fprintf(os.Stderr, "\n[%s/%s, result %s]\n",
				result.Metadata.Provider, result.Metadata.Model, result.Metadata.ResultID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "path to a design screenshot (JPEG)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "design description or clarifying context")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream the analysis as it is generated")

	return cmd
}
