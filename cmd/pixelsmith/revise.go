package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pixelsmith/pixelsmith/internal/fileparse"
)

func newReviseCmd() *cobra.Command {
	var (
		manifestPath string
		feedback     string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "revise",
		Short: "Revise previously generated files from feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := os.ReadFile(manifestPath)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			var originals []fileparse.GeneratedFile
			if err := json.Unmarshal(data, &originals); err != nil {
				return fmt.Errorf("parse manifest: %w", err)
			}

			// Refresh contents from disk so edits made after generation are
			// part of the revision context.
			for i := range originals {
				content, err := os.ReadFile(filepath.Join(outDir, originals[i].Name))
				if err == nil {
					originals[i].Content = string(content)
				}
			}

			revised, err := svc.ReviseFiles(cmd.Context(), originals, feedback, modelConfig(cfg))
			if err != nil {
				return err
			}

			if err := writeFiles(outDir, revised); err != nil {
				return err
			}
			if err := writeManifest(manifestPath, revised); err != nil {
				return err
			}

			for _, f := range revised {
				fmt.Printf("revised %s\n", filepath.Join(outDir, f.Name))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest JSON written by generate")
	cmd.Flags().StringVarP(&feedback, "feedback", "f", "", "revision feedback for the model")
	cmd.Flags().StringVarP(&outDir, "out", "o", "./generated", "directory holding the generated files")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("feedback")

	return cmd
}
