package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shadabshaukat/searchd/pkg/logger"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file> [file...]",
		Short: "Ingest local files into the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadataJSON, err := cmd.Flags().GetString("metadata")
			if err != nil {
				return err
			}
			var metadata map[string]any
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return fmt.Errorf("metadata must be a JSON object: %w", err)
				}
			}
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			ctx = logger.ContextWithLogger(ctx, rt.log)
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					rt.log.With("file", path, "error", err).Error("Read failed")
					failed++
					continue
				}
				result, err := rt.pipeline.IngestFile(ctx, path, filepath.Base(path), data, metadata)
				if err != nil {
					rt.log.With("file", path, "error", err).Error("Ingest failed")
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  chunks=%d\n", result.DocumentID, path, result.Chunks)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().String("metadata", "", "JSON object attached to every ingested document")
	return cmd
}
