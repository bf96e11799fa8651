package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pixelsmith/pixelsmith/internal/fileparse"
)

func newGenerateCmd() *cobra.Command {
	var (
		analysisPath string
		projectName  string
		description  string
		outDir       string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate source files from a design analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			analysis, err := os.ReadFile(analysisPath)
			if err != nil {
				return fmt.Errorf("read analysis: %w", err)
			}

			files, err := svc.GenerateFiles(cmd.Context(), string(analysis), modelConfig(cfg), projectName, description)
			if err != nil {
				return err
			}

			if err := writeFiles(outDir, files); err != nil {
				return err
			}

			if manifestPath != "" {
				if err := writeManifest(manifestPath, files); err != nil {
					return err
				}
			}

			for _, f := range files {
				fmt.Printf("wrote %s (%s, %d bytes)\n", filepath.Join(outDir, f.Name), f.Kind, len(f.Content))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&analysisPath, "analysis", "a", "", "path to the analysis text file")
	cmd.Flags().StringVar(&projectName, "name", "", "project name passed to the model")
	cmd.Flags().StringVar(&description, "description", "", "project description passed to the model")
	cmd.Flags().StringVarP(&outDir, "out", "o", "./generated", "output directory")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "also write a JSON manifest of the generated files")
	_ = cmd.MarkFlagRequired("analysis")

	return cmd
}

func writeFiles(dir string, files []fileparse.GeneratedFile) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}

// writeManifest records ids and paths so a later revise run can preserve
// file identity.
func writeManifest(path string, files []fileparse.GeneratedFile) error {
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
