// Package engine implements the Mafia game state machine.
//
// The package is a pure library: every operation is a synchronous
// in-memory transformation of a Game aggregate, with no I/O, no clock
// and no background work. Timestamps are supplied by the caller and the
// shuffle RNG lives inside the aggregate, so a Game is fully
// re-constructible from, and fully serializable to, its JSON form.
package engine

import (
	"time"
)

// Game is the canonical aggregate for one Mafia game. It is mutated only
// through the operations in this package; external callers receive
// read-only snapshots.
type Game struct {
	ID      string    `json:"gameId"`
	Players []*Player `json:"players"` // join order; roster never exceeds Rules.SeatCount
	HostID  string    `json:"hostId"`
	Phase   Phase     `json:"phase"`
	Round   int       `json:"round"` // 0 in lobby, 1 from game start, +1 each night→day wrap

	CreatedAt  int64 `json:"createdAt"`  // unix ms
	PhaseStart int64 `json:"phaseStart"` // unix ms
	PhaseEnd   int64 `json:"phaseEnd"`   // advisory deadline polled by an external scheduler

	DayVotes     map[string]string `json:"dayVotes"` // voter ID -> target ID, cleared at resolution
	NightActions NightActions      `json:"nightActions"`
	Eliminated   []string          `json:"eliminated"`
	Departed     []string          `json:"departed,omitempty"` // left the lobby; may not rejoin
	Messages     []Message         `json:"messages"`
	Winner       Winner            `json:"winner,omitempty"`
	History      []Event           `json:"history"`

	Rules Rules  `json:"rules"`
	RNG   uint64 `json:"rng"` // xorshift64 state for the role shuffle
}

// NewGame creates a game in the lobby with the host already seated.
// The seed drives the role shuffle; zero is remapped (xorshift cannot
// start at 0).
func NewGame(id string, seed uint64, rules Rules, host Player, now time.Time) *Game {
	if seed == 0 {
		seed = 1
	}
	ms := now.UnixMilli()
	host.IsHost = true
	host.IsAlive = true
	host.Role = ""
	host.JoinedAt = ms
	g := &Game{
		ID:         id,
		Players:    []*Player{&host},
		HostID:     host.ID,
		Phase:      PhaseLobby,
		Round:      0,
		CreatedAt:  ms,
		DayVotes:   make(map[string]string),
		Eliminated: []string{},
		Messages:   []Message{},
		History:    []Event{},
		Rules:      rules,
		RNG:        seed,
	}
	g.appendEvent(Event{Type: EventPlayerJoined, Timestamp: ms, Player: host.ID, Roster: 1})
	return g
}

// ---------------------------------------------------------------------------
// xorshift64 RNG — serialized with the aggregate
// ---------------------------------------------------------------------------

func (g *Game) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *Game) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// ---------------------------------------------------------------------------
// Roster
// ---------------------------------------------------------------------------

// Player returns the seated player with the given ID, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer seats a new participant. Only valid in the lobby, while the
// roster has room, for an identifier that is neither seated nor departed.
func (g *Game) AddPlayer(p Player, now time.Time) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(g.Players) >= g.Rules.SeatCount {
		return ErrGameFull
	}
	if g.Player(p.ID) != nil {
		return ErrAlreadyJoined
	}
	for _, id := range g.Departed {
		if id == p.ID {
			return ErrDeparted
		}
	}
	ms := now.UnixMilli()
	p.IsHost = false
	p.IsAlive = true
	p.Role = ""
	p.Acknowledged = false
	p.JoinedAt = ms
	g.Players = append(g.Players, &p)
	g.appendEvent(Event{Type: EventPlayerJoined, Timestamp: ms, Player: p.ID, Roster: len(g.Players)})
	return nil
}

// RemovePlayer unseats a lobby participant, preserving the order of the
// remaining roster. A removed identifier cannot rejoin this lobby.
func (g *Game) RemovePlayer(id string, now time.Time) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	for i, p := range g.Players {
		if p.ID == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			g.Departed = append(g.Departed, id)
			if g.HostID == id && len(g.Players) > 0 {
				g.HostID = g.Players[0].ID
				g.Players[0].IsHost = true
			}
			g.appendEvent(Event{Type: EventPlayerLeft, Timestamp: now.UnixMilli(), Player: id, Roster: len(g.Players)})
			return nil
		}
	}
	return ErrUnknownPlayer
}

// MarkPaid sets the participant's paid flag. Settlement itself is an
// external concern; the engine only tracks the boolean.
func (g *Game) MarkPaid(id string) error {
	p := g.Player(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Paid = true
	return nil
}

// AcknowledgeRole records that the participant saw their role. The flag
// is informational and gates nothing.
func (g *Game) AcknowledgeRole(id string) error {
	p := g.Player(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Acknowledged = true
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartGame assigns roles and leaves the lobby. The caller must be the
// host and the roster must exactly fill the configured seats. The role
// multiset is shuffled with Fisher–Yates and zipped with join order, so
// every assignment permutation is equally likely.
//
// With a non-zero starting duration the game enters the transitional
// starting phase; otherwise it goes straight to the first day.
func (g *Game) StartGame(requestedBy string, now time.Time) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if requestedBy != g.HostID {
		return ErrNotHost
	}
	if len(g.Players) != g.Rules.SeatCount {
		return ErrRosterSize
	}
	roles, ok := g.Rules.roleMultiset()
	if !ok {
		return ErrRoleTable
	}

	// Fisher–Yates over the multiset.
	for i := len(roles) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		roles[i], roles[j] = roles[j], roles[i]
	}
	for i, p := range g.Players {
		p.Role = roles[i]
	}

	g.Round = 1
	g.DayVotes = make(map[string]string)
	g.NightActions = NightActions{}
	if g.Rules.StartingDuration > 0 {
		g.setPhase(PhaseStarting, g.Rules.StartingDuration, now)
	} else {
		g.setPhase(PhaseDay, g.Rules.DayDuration, now)
	}
	return nil
}

// BeginDay moves a game out of the transitional starting phase into its
// first day. Only valid while starting.
func (g *Game) BeginDay(now time.Time) error {
	if g.Phase != PhaseStarting {
		return ErrWrongPhase
	}
	g.setPhase(PhaseDay, g.Rules.DayDuration, now)
	return nil
}

// AdvancePhase wraps day into night, or night into the next day's round.
// The caller contract: advance only after the phase was resolved and the
// win check confirmed the game has not ended.
func (g *Game) AdvancePhase(now time.Time) error {
	switch g.Phase {
	case PhaseDay:
		g.setPhase(PhaseNight, g.Rules.NightDuration, now)
		return nil
	case PhaseNight:
		g.Round++
		g.setPhase(PhaseDay, g.Rules.DayDuration, now)
		return nil
	case PhaseEnded:
		return ErrGameEnded
	default:
		return ErrWrongPhase
	}
}

// setPhase records the transition, its advisory deadline and a
// phase_change history event.
func (g *Game) setPhase(phase Phase, d time.Duration, now time.Time) {
	ms := now.UnixMilli()
	g.Phase = phase
	g.PhaseStart = ms
	g.PhaseEnd = ms + d.Milliseconds()
	g.appendEvent(Event{Type: EventPhaseChange, Timestamp: ms, Phase: phase, Round: g.Round})
}

func (g *Game) appendEvent(ev Event) {
	g.History = append(g.History, ev)
}

// ---------------------------------------------------------------------------
// Read helpers
// ---------------------------------------------------------------------------

// AlivePlayers returns the living roster in join order.
func (g *Game) AlivePlayers() []*Player {
	out := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}

// aliveByFaction counts living mafia and living non-mafia.
func (g *Game) aliveByFaction() (mafia, others int) {
	for _, p := range g.Players {
		if !p.IsAlive {
			continue
		}
		if p.Role == RoleMafia {
			mafia++
		} else {
			others++
		}
	}
	return mafia, others
}

// PlayerRole returns the role assigned to the given participant, or "".
func (g *Game) PlayerRole(id string) Role {
	if p := g.Player(id); p != nil {
		return p.Role
	}
	return ""
}

// IsPlayerAlive reports whether the participant is seated and alive.
func (g *Game) IsPlayerAlive(id string) bool {
	p := g.Player(id)
	return p != nil && p.IsAlive
}

// MafiaPartners returns the other mafia members for a mafia participant,
// or nil for anyone else.
func (g *Game) MafiaPartners(id string) []*Player {
	p := g.Player(id)
	if p == nil || p.Role != RoleMafia {
		return nil
	}
	var out []*Player
	for _, other := range g.Players {
		if other.Role == RoleMafia && other.ID != id {
			out = append(out, other)
		}
	}
	return out
}

// Snapshot returns a deep copy safe to hand to external readers.
func (g *Game) Snapshot() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	cp.DayVotes = make(map[string]string, len(g.DayVotes))
	for k, v := range g.DayVotes {
		cp.DayVotes[k] = v
	}
	cp.Eliminated = append([]string(nil), g.Eliminated...)
	cp.Departed = append([]string(nil), g.Departed...)
	cp.Messages = append([]Message(nil), g.Messages...)
	cp.History = append([]Event(nil), g.History...)
	return &cp
}
