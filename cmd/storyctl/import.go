package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cyoa-server/internal/app"
	"cyoa-server/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// analysisEntry is one element of an import file.
type analysisEntry struct {
	ImageURL string         `json:"image_url"`
	Analysis map[string]any `json:"analysis"`
}

func newImportCmd(e *env) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Ingest a JSON array of {image_url, analysis} image analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store, closeStore, err := app.OpenStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			images := service.NewImageService(store, service.DefaultIntn, e.logger)
			imported, err := importAnalyses(cmd.Context(), images, f, cmd.OutOrStdout(), keepGoing, e.logger)
			e.logger.Info("Import finished", zap.Int("imported", imported))
			return err
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "skip entries that fail instead of stopping")
	return cmd
}

// importAnalyses ingests every entry in r and prints one line per record.
// It returns the number of records stored.
func importAnalyses(ctx context.Context, images service.ImageService, r io.Reader, out io.Writer, keepGoing bool, logger *zap.Logger) (int, error) {
	var entries []analysisEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode import file: %w", err)
	}

	imported := 0
	var firstErr error
	for i, entry := range entries {
		record, err := images.IngestAnalysis(ctx, entry.ImageURL, entry.Analysis)
		if err != nil {
			err = fmt.Errorf("entry %d (%s): %w", i, entry.ImageURL, err)
			if !keepGoing {
				return imported, err
			}
			logger.Warn("Skipping entry", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		imported++
		fmt.Fprintf(out, "%s\t%s\t%s\n", record.ID, record.Kind, record.ImageURL)
	}
	return imported, firstErr
}
