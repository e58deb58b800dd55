package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shadabshaukat/searchd/engine/infra/server"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			rt, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())
			ctx = logger.ContextWithLogger(ctx, rt.log)
			srv, err := server.New(rt.cfg, rt.log, rt.pipeline, rt.retriever, rt.store)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
