package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Flush the database write-ahead log",
	Args:  cobra.NoArgs,
	RunE:  runCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *asyncdb.Session) error {
		if err := s.Checkpoint(ctx); err != nil {
			return err
		}
		cmd.Println("checkpoint complete")
		return nil
	})
}
