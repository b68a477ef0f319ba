// Package session orchestrates game operations against the persistence
// boundary. Every operation re-hydrates the engine from a stored
// snapshot, applies exactly one state-machine transformation, and writes
// the snapshot back with an optimistic conditional save, retrying the
// whole cycle a bounded number of times on write conflicts.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AtharvKotekar/MafiaChain/engine"
	"github.com/AtharvKotekar/MafiaChain/internal/store"
)

// Vote mirror kinds, keyed the way the store lays out vote keys.
const (
	VoteKindDay    = "day"
	VoteKindMafia  = "mafia"
	VoteKindDoctor = "doctor"
)

// ErrRetriesExhausted reports a mutation abandoned after losing every
// conditional-save attempt to concurrent writers.
var ErrRetriesExhausted = errors.New("too many concurrent updates, retry")

// GameStore is the persistence contract the service consumes. Satisfied
// by store.Store; tests substitute an in-memory fake.
type GameStore interface {
	Create(ctx context.Context, g *engine.Game) error
	Load(ctx context.Context, gameID string) (*engine.Game, int64, error)
	Save(ctx context.Context, g *engine.Game, version int64) error
	Delete(ctx context.Context, gameID string) error
	AddToPhaseIndex(ctx context.Context, gameID string, phase engine.Phase) error
	RemoveFromPhaseIndex(ctx context.Context, gameID string, phase engine.Phase) error
	GamesInPhase(ctx context.Context, phase engine.Phase) ([]string, error)
	SetVote(ctx context.Context, gameID, kind, voterID, targetID string) error
	Votes(ctx context.Context, gameID, kind string) (map[string]string, error)
	ClearVotes(ctx context.Context, gameID, kind string) error
	SetPhaseTimer(ctx context.Context, gameID string, phase engine.Phase, expiresAt time.Time) error
	AcquireLock(ctx context.Context, gameID string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, gameID, token string) error
}

// Archiver receives finished games for long-term storage. Optional.
type Archiver interface {
	ArchiveGame(ctx context.Context, g *engine.Game) error
}

// Service exposes the game operations to the request-handling layer and
// the phase scheduler.
type Service struct {
	store   GameStore
	archive Archiver // may be nil
	log     *logrus.Logger
	rules   engine.Rules
	retries int
	lockTTL time.Duration

	now  func() time.Time
	seed func() uint64
}

// Option configures a Service.
type Option func(*Service)

// WithArchiver wires an archive sink for finished games.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithRules overrides the default rule set for newly created games.
func WithRules(r engine.Rules) Option {
	return func(s *Service) { s.rules = r }
}

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSeeder substitutes the shuffle seed source, for tests.
func WithSeeder(seed func() uint64) Option {
	return func(s *Service) { s.seed = seed }
}

// New creates a Service backed by the given store.
func New(st GameStore, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		log:     log,
		rules:   engine.DefaultRules(),
		retries: 3,
		lockTTL: 10 * time.Second,
		now:     time.Now,
		seed:    func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// update runs one load-mutate-save cycle for the game, retrying on
// conflict. fn applies exactly one engine operation; when it returns an
// error nothing is persisted. Phase-index maintenance and phase timers
// follow a successful save.
func (s *Service) update(ctx context.Context, gameID string, fn func(g *engine.Game) error) (*engine.Game, error) {
	for attempt := 0; attempt <= s.retries; attempt++ {
		g, version, err := s.store.Load(ctx, gameID)
		if err != nil {
			return nil, err
		}
		prevPhase := g.Phase

		if err := fn(g); err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, g, version); err != nil {
			if errors.Is(err, store.ErrConflict) {
				s.log.WithFields(logrus.Fields{"game": gameID, "attempt": attempt + 1}).
					Debug("conditional save lost, retrying")
				continue
			}
			return nil, err
		}
		if g.Phase != prevPhase {
			s.reindex(ctx, g, prevPhase)
		}
		return g, nil
	}
	return nil, fmt.Errorf("update game %s: %w", gameID, ErrRetriesExhausted)
}

// reindex moves the game between phase index sets and refreshes the
// advisory phase timer. Index drift is logged, not fatal: the snapshot
// is already saved and the index is a discovery aid.
func (s *Service) reindex(ctx context.Context, g *engine.Game, prevPhase engine.Phase) {
	if err := s.store.RemoveFromPhaseIndex(ctx, g.ID, prevPhase); err != nil {
		s.log.WithError(err).WithField("game", g.ID).Warn("phase index remove failed")
	}
	if err := s.store.AddToPhaseIndex(ctx, g.ID, g.Phase); err != nil {
		s.log.WithError(err).WithField("game", g.ID).Warn("phase index add failed")
	}
	if g.Phase != engine.PhaseEnded && g.PhaseEnd > 0 {
		if err := s.store.SetPhaseTimer(ctx, g.ID, g.Phase, time.UnixMilli(g.PhaseEnd)); err != nil {
			s.log.WithError(err).WithField("game", g.ID).Warn("phase timer write failed")
		}
	}
}

// Create stores a new lobby with the host seated and returns its ID.
func (s *Service) Create(ctx context.Context, host engine.Player) (*engine.Game, error) {
	gameID := uuid.NewString()
	g := engine.NewGame(gameID, s.seed(), s.rules, host, s.now())
	if err := s.store.Create(ctx, g); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game": gameID, "host": host.ID}).Info("game created")
	return g, nil
}

// Join seats a participant in the lobby.
func (s *Service) Join(ctx context.Context, gameID string, p engine.Player) (*engine.Game, error) {
	return s.update(ctx, gameID, func(g *engine.Game) error {
		return g.AddPlayer(p, s.now())
	})
}

// Leave removes a lobby participant. A lobby emptied by its last
// departure is deleted outright.
func (s *Service) Leave(ctx context.Context, gameID, playerID string) (*engine.Game, error) {
	g, err := s.update(ctx, gameID, func(g *engine.Game) error {
		return g.RemovePlayer(playerID, s.now())
	})
	if err != nil {
		return nil, err
	}
	if len(g.Players) == 0 {
		if err := s.store.Delete(ctx, gameID); err != nil {
			s.log.WithError(err).WithField("game", gameID).Warn("empty lobby delete failed")
		} else {
			s.log.WithField("game", gameID).Info("empty lobby deleted")
		}
	}
	return g, nil
}

// Start begins the game on behalf of requestedBy.
func (s *Service) Start(ctx context.Context, gameID, requestedBy string) (*engine.Game, error) {
	g, err := s.update(ctx, gameID, func(g *engine.Game) error {
		return g.StartGame(requestedBy, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game": gameID, "phase": g.Phase, "round": g.Round}).Info("game started")
	return g, nil
}

// Vote records a day vote and mirrors it into the expiring vote keys.
func (s *Service) Vote(ctx context.Context, gameID, voterID, targetID string) (*engine.Game, error) {
	g, err := s.update(ctx, gameID, func(g *engine.Game) error {
		return g.SubmitDayVote(voterID, targetID)
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.SetVote(ctx, gameID, VoteKindDay, voterID, targetID); err != nil {
		s.log.WithError(err).WithField("game", gameID).Warn("vote mirror write failed")
	}
	return g, nil
}

// NightAction records a kill or save and mirrors it like a vote.
func (s *Service) NightAction(ctx context.Context, gameID, actorID, targetID string, kind engine.NightActionKind) (*engine.Game, error) {
	g, err := s.update(ctx, gameID, func(g *engine.Game) error {
		return g.SubmitNightAction(actorID, targetID, kind)
	})
	if err != nil {
		return nil, err
	}
	mirror := VoteKindMafia
	if kind == engine.NightSave {
		mirror = VoteKindDoctor
	}
	if err := s.store.SetVote(ctx, gameID, mirror, actorID, targetID); err != nil {
		s.log.WithError(err).WithField("game", gameID).Warn("vote mirror write failed")
	}
	return g, nil
}

// Acknowledge marks the participant's role as seen.
func (s *Service) Acknowledge(ctx context.Context, gameID, playerID string) (*engine.Game, error) {
	return s.update(ctx, gameID, func(g *engine.Game) error {
		return g.AcknowledgeRole(playerID)
	})
}

// MarkPaid flips the participant's paid flag. Settlement is external.
func (s *Service) MarkPaid(ctx context.Context, gameID, playerID string) (*engine.Game, error) {
	return s.update(ctx, gameID, func(g *engine.Game) error {
		return g.MarkPaid(playerID)
	})
}

// PostMessage appends a chat entry.
func (s *Service) PostMessage(ctx context.Context, gameID, fromID, content string, isPrivate bool, targetRole engine.Role) (*engine.Game, error) {
	return s.update(ctx, gameID, func(g *engine.Game) error {
		return g.AddMessage(fromID, content, isPrivate, targetRole, s.now())
	})
}

// Messages returns the chat feed visible to the participant.
func (s *Service) Messages(ctx context.Context, gameID, playerID string) ([]engine.Message, error) {
	g, _, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.MessagesFor(playerID), nil
}

// Snapshot returns a detached read-only copy of the game.
func (s *Service) Snapshot(ctx context.Context, gameID string) (*engine.Game, error) {
	g, _, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// LiveVotes reads the mirrored votes of one kind without loading the
// aggregate, for live tally displays.
func (s *Service) LiveVotes(ctx context.Context, gameID, kind string) (map[string]string, error) {
	return s.store.Votes(ctx, gameID, kind)
}

// GamesInPhase lists game IDs currently in the phase.
func (s *Service) GamesInPhase(ctx context.Context, phase engine.Phase) ([]string, error) {
	return s.store.GamesInPhase(ctx, phase)
}
