package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AtharvKotekar/MafiaChain/engine"
	"github.com/AtharvKotekar/MafiaChain/internal/store"
)

// AdvanceExpired resolves a game whose phase deadline has passed:
// starting games begin their first day; day games resolve the vote; and
// night games resolve the night actions. After each resolution the win
// condition is evaluated, and only a game that has not ended advances to
// the next phase. A game whose deadline has not passed is left alone.
//
// The whole sequence is applied to the in-memory snapshot and persisted
// as one conditional save, so a crash mid-sequence loses the tick, never
// half of it. A short per-game lock keeps overlapping scheduler
// instances from racing each other ahead of the conditional save.
func (s *Service) AdvanceExpired(ctx context.Context, gameID string) (*engine.Game, error) {
	token, err := s.store.AcquireLock(ctx, gameID, s.lockTTL)
	if errors.Is(err, store.ErrLocked) {
		return nil, nil // someone else is handling this game
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.ReleaseLock(ctx, gameID, token); err != nil {
			s.log.WithError(err).WithField("game", gameID).Warn("lock release failed")
		}
	}()

	now := s.now()
	var ended bool
	g, err := s.update(ctx, gameID, func(g *engine.Game) error {
		if g.PhaseEnd == 0 || now.UnixMilli() < g.PhaseEnd {
			return errNotDue
		}
		switch g.Phase {
		case engine.PhaseStarting:
			return g.BeginDay(now)
		case engine.PhaseDay:
			res, err := g.ResolveDay(now)
			if err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{
				"game": gameID, "round": g.Round, "eliminated": res.Eliminated,
			}).Info("day resolved")
		case engine.PhaseNight:
			res, err := g.ResolveNight(now)
			if err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{
				"game": gameID, "round": g.Round, "killed": res.Killed, "saved": res.Saved,
			}).Info("night resolved")
		default:
			return errNotDue
		}

		if win := g.CheckWinCondition(now); win.Ended {
			ended = true
			return nil
		}
		if g.Phase == engine.PhaseDay || g.Phase == engine.PhaseNight {
			return g.AdvancePhase(now)
		}
		return nil
	})
	if errors.Is(err, errNotDue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.clearMirrors(ctx, gameID)
	if ended {
		s.finishGame(ctx, g)
	}
	return g, nil
}

// errNotDue aborts an update for a game whose deadline has not passed.
var errNotDue = errors.New("phase deadline not reached")

// clearMirrors drops the expiring vote mirrors made stale by a
// resolution.
func (s *Service) clearMirrors(ctx context.Context, gameID string) {
	for _, kind := range []string{VoteKindDay, VoteKindMafia, VoteKindDoctor} {
		if err := s.store.ClearVotes(ctx, gameID, kind); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"game": gameID, "kind": kind}).
				Warn("vote mirror clear failed")
		}
	}
}

// finishGame hands the terminal snapshot to the archive sink. Archival
// failure is logged, not surfaced: the authoritative snapshot is already
// saved and will expire with its TTL.
func (s *Service) finishGame(ctx context.Context, g *engine.Game) {
	s.log.WithFields(logrus.Fields{
		"game": g.ID, "winner": g.Winner, "round": g.Round,
	}).Info("game ended")
	if s.archive == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.archive.ArchiveGame(actx, g); err != nil {
		s.log.WithError(err).WithField("game", g.ID).Error("archive failed")
	}
}
