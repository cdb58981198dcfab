package orchestrator

import (
	"context"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/session"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

const sweepBatch = 100

// StartSweeper abandons sessions idle past the configured timeout. Runs
// until ctx is canceled.
func (o *Orchestrator) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(o.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.SweepIdle(ctx)
			}
		}
	}()
}

// SweepIdle runs one pass over active and paused sessions. Exported so tests
// and admin tooling can trigger a sweep directly.
func (o *Orchestrator) SweepIdle(ctx context.Context) int {
	cutoff := o.now().Add(-o.cfg.IdleTimeout)
	swept := 0
	for _, status := range []model.SessionStatus{model.StatusActive, model.StatusPaused} {
		list, err := o.sessions.ByStatus(ctx, status, sweepBatch)
		if err != nil {
			o.log.Sugar().Errorw("idle sweep query failed", "status", status, "err", err)
			continue
		}
		for _, s := range list {
			if s.UpdatedAt.After(cutoff) {
				continue
			}
			if err := o.abandon(ctx, s.ID); err != nil {
				o.log.Sugar().Warnw("abandon failed", "session_id", s.ID, "err", err)
				continue
			}
			swept++
		}
	}
	if swept > 0 {
		o.log.Sugar().Infow("idle sessions abandoned", "count", swept)
	}
	return swept
}

// abandon re-reads under the mailbox so a submit that raced the sweep wins.
func (o *Orchestrator) abandon(ctx context.Context, sessionID string) error {
	return o.boxes.do(ctx, sessionID, func() error {
		s, err := o.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.UpdatedAt.After(o.now().Add(-o.cfg.IdleTimeout)) {
			return nil
		}
		if err := session.Abandon(s, o.now()); err != nil {
			return err
		}
		return o.persist(ctx, s)
	})
}
