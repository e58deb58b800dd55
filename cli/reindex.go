package cli

import (
	"github.com/spf13/cobra"

	"github.com/shadabshaukat/searchd/pkg/logger"
)

func ReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index with the configured list count",
		Long: "Rebuilds the ivfflat index out of band. Run after bulk ingestion " +
			"changes the row count enough to shift the optimal partitioning.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			return rt.store.ReindexVectors(logger.ContextWithLogger(ctx, rt.log))
		},
	}
}
