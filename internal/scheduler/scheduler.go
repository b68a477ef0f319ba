// Package scheduler drives phase deadlines. It periodically sweeps the
// phase index sets for games whose current phase can expire and asks
// the session layer to resolve each one. Safe to run in multiple
// processes: the session layer's per-game lock and conditional saves
// make concurrent sweeps converge on a single resolution.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AtharvKotekar/MafiaChain/engine"
)

// timedPhases are the phases that carry a deadline and can expire.
var timedPhases = []engine.Phase{
	engine.PhaseStarting,
	engine.PhaseDay,
	engine.PhaseNight,
}

// Advancer is the slice of the session layer the scheduler needs.
type Advancer interface {
	GamesInPhase(ctx context.Context, phase engine.Phase) ([]string, error)
	AdvanceExpired(ctx context.Context, gameID string) (*engine.Game, error)
}

// Scheduler sweeps timed games on a fixed interval.
type Scheduler struct {
	svc      Advancer
	log      *logrus.Logger
	interval time.Duration
}

// New creates a Scheduler polling at the given interval. Intervals
// under a second are clamped to a second.
func New(svc Advancer, log *logrus.Logger, interval time.Duration) *Scheduler {
	if interval < time.Second {
		interval = time.Second
	}
	return &Scheduler{svc: svc, log: log, interval: interval}
}

// Run sweeps until ctx is cancelled. It performs one sweep immediately
// so a restarted process catches overdue games without waiting a full
// interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithField("interval", s.interval).Info("phase scheduler started")
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("phase scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep visits every game in a timed phase once. Per-game errors are
// logged and do not stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	for _, phase := range timedPhases {
		ids, err := s.svc.GamesInPhase(ctx, phase)
		if err != nil {
			s.log.WithError(err).WithField("phase", phase).Warn("phase index scan failed")
			continue
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			g, err := s.svc.AdvanceExpired(ctx, id)
			if err != nil {
				s.log.WithError(err).WithField("game", id).Warn("phase advance failed")
				continue
			}
			if g != nil {
				s.log.WithFields(logrus.Fields{
					"game": id, "phase": g.Phase, "round": g.Round,
				}).Debug("phase advanced")
			}
		}
	}
}
