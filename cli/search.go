package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run a one-shot query and print the results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeFlag, err := cmd.Flags().GetString("mode")
			if err != nil {
				return err
			}
			topK, err := cmd.Flags().GetInt("top-k")
			if err != nil {
				return err
			}
			mode, err := retriever.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			ctx = logger.ContextWithLogger(ctx, rt.log)
			resp, err := rt.retriever.Search(ctx, retriever.Request{
				Query: strings.Join(args, " "),
				Mode:  mode,
				TopK:  topK,
			})
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(resp)
		},
	}
	cmd.Flags().String("mode", "hybrid", "Search mode: semantic, fulltext, hybrid or rag")
	cmd.Flags().Int("top-k", 10, "Number of results to return")
	return cmd
}
