package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/config"
	"github.com/cnfairydream/duckdb-extra-asyncio/internal/logger"
	"github.com/cnfairydream/duckdb-extra-asyncio/internal/observability"
	"github.com/cnfairydream/duckdb-extra-asyncio/internal/tracing"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/sqlitedriver"
)

// withSession loads the profile, opens a scoped session and runs fn inside
// it. The session is closed and its agent stopped on every exit path.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *asyncdb.Session) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	if cfg.Metrics.Enabled {
		go func() {
			if serveErr := http.ListenAndServe(cfg.Metrics.Listen, observability.MetricsHandler()); serveErr != nil {
				log.Warn().Err(serveErr).Str("listen", cfg.Metrics.Listen).Msg("Metrics endpoint failed")
			}
		}()
	}

	session, err := asyncdb.Open(
		sqlitedriver.New(),
		cfg.Database.Target,
		cfg.Database.Options,
		asyncdb.WithLogger(log.GetZerolog()),
	)
	if err != nil {
		return err
	}

	// Each invocation is one traced request
	reqCtx := tracing.NewRequestContext(cmd.Context())

	return session.Do(reqCtx, func(ctx context.Context, s *asyncdb.Session) error {
		if cfg.Checkpoint.Enabled {
			cp, cpErr := asyncdb.NewCheckpointer(s, cfg.Checkpoint.Schedule)
			if cpErr != nil {
				return cpErr
			}
			cp.Start()
			defer cp.Stop()
		}
		return fn(ctx, s)
	})
}
