// Package cli wires the searchd commands.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "searchd",
		Short:         "Document ingestion and retrieval service backed by PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return err
			}
			// A missing env file is fine; variables may come from the
			// environment directly.
			if envFile != "" {
				_ = godotenv.Load(envFile)
			}
			return nil
		},
	}
	root.PersistentFlags().String("env-file", ".env", "Path to an env file loaded before configuration")
	root.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	root.AddCommand(
		ServeCmd(),
		IngestCmd(),
		SearchCmd(),
		ReindexCmd(),
	)
	return root
}
