package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a query and stream its rows",
	Long: `Run a row-returning statement against the configured database and
stream the result set, one batch at a time, to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *asyncdb.Session) error {
		cursor, err := s.Execute(ctx, args[0])
		if err != nil {
			return err
		}

		names, err := cursor.Columns(ctx)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			cmd.Println(strings.Join(names, "\t"))
		}

		it := cursor.Rows(ctx)
		for it.Next() {
			cmd.Println(formatRow(it.Row()))
		}
		return it.Err()
	})
}

func formatRow(row []interface{}) string {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = formatValue(v)
	}
	return strings.Join(fields, "\t")
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
