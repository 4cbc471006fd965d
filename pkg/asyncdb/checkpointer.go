package asyncdb

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Checkpointer submits periodic checkpoint operations through the session's
// agent on a cron schedule. It is just another concurrent submitter: the
// agent's FIFO ordering keeps checkpoints from overlapping foreground work.
type Checkpointer struct {
	session  *Session
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewCheckpointer creates a checkpointer for the session. The schedule uses
// standard five-field cron syntax.
func NewCheckpointer(s *Session, schedule string) (*Checkpointer, error) {
	cp := &Checkpointer{
		session:  s,
		schedule: schedule,
		cron:     cron.New(),
		logger:   s.logger.With().Str("component", "checkpointer").Logger(),
	}

	if _, err := cp.cron.AddFunc(schedule, cp.runOnce); err != nil {
		return nil, fmt.Errorf("invalid checkpoint schedule %q: %w", schedule, err)
	}

	return cp, nil
}

// Start begins scheduling checkpoints
func (cp *Checkpointer) Start() {
	cp.cron.Start()
	cp.logger.Debug().Str("schedule", cp.schedule).Msg("Checkpointer started")
}

// Stop stops scheduling and waits for an in-progress run to finish
func (cp *Checkpointer) Stop() {
	<-cp.cron.Stop().Done()
	cp.logger.Debug().Msg("Checkpointer stopped")
}

func (cp *Checkpointer) runOnce() {
	if err := cp.session.Checkpoint(context.Background()); err != nil {
		cp.logger.Error().Err(err).Msg("Scheduled checkpoint failed")
		return
	}
	cp.logger.Debug().Msg("Scheduled checkpoint completed")
}
