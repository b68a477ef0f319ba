// Package store is the Redis persistence collaborator for the game
// engine. The engine itself performs no I/O; this package owns the full
// storage contract: expiring game snapshots, optimistic conditional
// saves, per-game locks, a phase index for discovery, and standalone
// expiring vote mirrors.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AtharvKotekar/MafiaChain/engine"
)

var (
	// ErrNotFound reports a missing or expired game snapshot.
	ErrNotFound = errors.New("game not found")
	// ErrConflict reports a conditional save that lost to a concurrent
	// writer. Callers retry the full load-mutate-save cycle.
	ErrConflict = errors.New("game modified concurrently")
	// ErrExists reports a create against an already-stored game ID.
	ErrExists = errors.New("game already exists")
	// ErrLocked reports a lock held by another owner.
	ErrLocked = errors.New("game is locked")
)

// record is the stored envelope: the aggregate plus a version counter
// driving the conditional save.
type record struct {
	Version int64        `json:"version"`
	Game    *engine.Game `json:"game"`
}

// Store wraps a Redis client with the game persistence operations.
type Store struct {
	rdb     *redis.Client
	gameTTL time.Duration
	voteTTL time.Duration
}

// New creates a Store. gameTTL bounds how long an idle game survives;
// voteTTL bounds the standalone vote mirrors.
func New(rdb *redis.Client, gameTTL, voteTTL time.Duration) *Store {
	return &Store{rdb: rdb, gameTTL: gameTTL, voteTTL: voteTTL}
}

// Create stores a brand-new game at version 1 and indexes it under its
// phase. Fails with ErrExists when the ID is already taken.
func (s *Store) Create(ctx context.Context, g *engine.Game) error {
	raw, err := json.Marshal(record{Version: 1, Game: g})
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	ok, err := s.rdb.SetNX(ctx, gameKey(g.ID), raw, s.gameTTL).Result()
	if err != nil {
		return fmt.Errorf("create game %s: %w", g.ID, err)
	}
	if !ok {
		return ErrExists
	}
	return s.AddToPhaseIndex(ctx, g.ID, g.Phase)
}

// Load returns the stored aggregate and the version to pass back into
// Save.
func (s *Store) Load(ctx context.Context, gameID string) (*engine.Game, int64, error) {
	raw, err := s.rdb.Get(ctx, gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load game %s: %w", gameID, err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, 0, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return rec.Game, rec.Version, nil
}

// Save writes the aggregate back, conditional on the stored version
// still matching the one returned by Load. A concurrent writer bumps the
// version and this save fails with ErrConflict; the write applies fully
// or not at all. Saving refreshes the snapshot TTL.
func (s *Store) Save(ctx context.Context, g *engine.Game, version int64) error {
	key := gameKey(g.ID)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if rec.Version != version {
			return ErrConflict
		}
		out, err := json.Marshal(record{Version: version + 1, Game: g})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.gameTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The watched key changed under the transaction.
		return ErrConflict
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// Delete removes the snapshot and any phase index entries for the game.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, gameKey(gameID))
	for _, phase := range []engine.Phase{engine.PhaseLobby, engine.PhaseStarting, engine.PhaseDay, engine.PhaseNight, engine.PhaseEnded} {
		pipe.SRem(ctx, phaseIndexKey(string(phase)), gameID)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Phase index
// ---------------------------------------------------------------------------

// AddToPhaseIndex records the game under games:{phase}.
func (s *Store) AddToPhaseIndex(ctx context.Context, gameID string, phase engine.Phase) error {
	return s.rdb.SAdd(ctx, phaseIndexKey(string(phase)), gameID).Err()
}

// RemoveFromPhaseIndex drops the game from games:{phase}.
func (s *Store) RemoveFromPhaseIndex(ctx context.Context, gameID string, phase engine.Phase) error {
	return s.rdb.SRem(ctx, phaseIndexKey(string(phase)), gameID).Err()
}

// GamesInPhase lists the IDs currently indexed under the phase.
func (s *Store) GamesInPhase(ctx context.Context, phase engine.Phase) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, phaseIndexKey(string(phase))).Result()
	if err != nil {
		return nil, fmt.Errorf("games in phase %s: %w", phase, err)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Per-game lock
// ---------------------------------------------------------------------------

// releaseScript deletes the lock only when the stored token still
// matches, so an expired lock taken over by someone else is not released
// out from under them.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// AcquireLock takes the per-game lock for at most ttl, returning an
// owner token for ReleaseLock. ErrLocked when already held.
func (s *Store) AcquireLock(ctx context.Context, gameID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockKey(gameID), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("lock game %s: %w", gameID, err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

// ReleaseLock frees the lock if the token still owns it.
func (s *Store) ReleaseLock(ctx context.Context, gameID, token string) error {
	return releaseScript.Run(ctx, s.rdb, []string{lockKey(gameID)}, token).Err()
}

// ---------------------------------------------------------------------------
// Vote mirrors and timers
// ---------------------------------------------------------------------------

// SetVote mirrors one vote into its own short-lived key, so presentation
// layers can read live tallies without loading the whole aggregate.
// The aggregate's embedded votes stay authoritative.
func (s *Store) SetVote(ctx context.Context, gameID, kind, voterID, targetID string) error {
	return s.rdb.Set(ctx, voteKey(gameID, kind, voterID), targetID, s.voteTTL).Err()
}

// Votes collects the mirrored votes of one kind as voter -> target.
func (s *Store) Votes(ctx context.Context, gameID, kind string) (map[string]string, error) {
	votes := make(map[string]string)
	iter := s.rdb.Scan(ctx, 0, votePattern(gameID, kind), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		target, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, fmt.Errorf("read vote %s: %w", key, err)
		}
		parts := strings.Split(key, ":")
		votes[parts[len(parts)-1]] = target
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan votes for %s: %w", gameID, err)
	}
	return votes, nil
}

// ClearVotes drops every mirrored vote of one kind, matching the
// aggregate-side clearing at resolution.
func (s *Store) ClearVotes(ctx context.Context, gameID, kind string) error {
	iter := s.rdb.Scan(ctx, 0, votePattern(gameID, kind), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan votes for %s: %w", gameID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// SetPhaseTimer records the advisory deadline for the phase, expiring on
// its own once the deadline passes.
func (s *Store) SetPhaseTimer(ctx context.Context, gameID string, phase engine.Phase, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.rdb.Set(ctx, timerKey(gameID, string(phase)), expiresAt.UnixMilli(), ttl).Err()
}

// PhaseTimer returns the recorded deadline, or zero time when none is
// set.
func (s *Store) PhaseTimer(ctx context.Context, gameID string, phase engine.Phase) (time.Time, error) {
	ms, err := s.rdb.Get(ctx, timerKey(gameID, string(phase))).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read timer %s/%s: %w", gameID, phase, err)
	}
	return time.UnixMilli(ms), nil
}

// Ping checks connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
