package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run a statement and report its row count",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *asyncdb.Session) error {
		if _, err := s.Execute(ctx, args[0]); err != nil {
			return err
		}
		cmd.Printf("rows affected: %d\n", s.RowCount())
		return nil
	})
}
