package engine

import (
	"errors"
	"testing"
	"time"
)

// TestFullGameScenario walks one complete game: nine players gather in
// the lobby, the host starts, the mafia kill unopposed on night one, the
// town votes someone out on day two, and the game keeps running until a
// win condition fires.
func TestFullGameScenario(t *testing.T) {
	g := newTestGame(1234)
	fillLobby(t, g)

	if err := g.StartGame("host", t0); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := g.BeginDay(t0); err != nil {
		t.Fatalf("BeginDay: %v", err)
	}

	mafiaCount := 0
	for _, p := range g.Players {
		if p.Role == RoleMafia {
			mafiaCount++
		}
	}
	if mafiaCount != 2 {
		t.Fatalf("mafia count = %d, want 2", mafiaCount)
	}

	// Day 1 passes without a lynch.
	now := t0.Add(5 * time.Minute)
	if res, err := g.ResolveDay(now); err != nil || res.Eliminated != "" {
		t.Fatalf("day 1: res=%+v err=%v", res, err)
	}
	if win := g.CheckWinCondition(now); win.Ended {
		t.Fatalf("game ended prematurely: %+v", win)
	}
	if err := g.AdvancePhase(now); err != nil {
		t.Fatalf("day→night: %v", err)
	}

	// Night 1: mafia kill a villager, no doctor save.
	mafia := playerWithRole(g, RoleMafia)
	victim := playerWithRole(g, RoleVillager)
	if err := g.SubmitNightAction(mafia.ID, victim.ID, NightKill); err != nil {
		t.Fatalf("night kill: %v", err)
	}
	now = now.Add(150 * time.Second)
	res, err := g.ResolveNight(now)
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	if res.Killed != victim.ID || res.Saved {
		t.Fatalf("night 1 res = %+v, want %s killed", res, victim.ID)
	}
	if g.IsPlayerAlive(victim.ID) {
		t.Fatal("victim survived an unopposed kill")
	}
	if win := g.CheckWinCondition(now); win.Ended {
		t.Fatalf("game ended after one kill: %+v", win)
	}
	if err := g.AdvancePhase(now); err != nil {
		t.Fatalf("night→day: %v", err)
	}
	if g.Round != 2 {
		t.Fatalf("Round = %d, want 2", g.Round)
	}

	// Day 2: three of the eight living players converge on one mafia.
	alive := g.AlivePlayers()
	if len(alive) != 8 {
		t.Fatalf("alive = %d, want 8", len(alive))
	}
	voters := 0
	for _, p := range alive {
		if p.ID != mafia.ID && voters < 3 {
			if err := g.SubmitDayVote(p.ID, mafia.ID); err != nil {
				t.Fatalf("vote by %s: %v", p.ID, err)
			}
			voters++
		}
	}
	now = now.Add(5 * time.Minute)
	dayRes, err := g.ResolveDay(now)
	if err != nil {
		t.Fatalf("ResolveDay: %v", err)
	}
	if dayRes.Eliminated != mafia.ID || dayRes.Votes[mafia.ID] != 3 {
		t.Fatalf("day 2 res = %+v", dayRes)
	}

	// One mafia remains against six others: the game continues.
	if win := g.CheckWinCondition(now); win.Ended {
		t.Fatalf("game ended with a mafia standing: %+v", win)
	}

	// Lynch the last mafia: villagers win and the game refuses input.
	g.AdvancePhase(now)
	g.AdvancePhase(now) // night 2 passes empty, into day 3
	var last *Player
	for _, p := range g.AlivePlayers() {
		if p.Role == RoleMafia {
			last = p
			break
		}
	}
	if last == nil {
		t.Fatal("no mafia left alive before the final lynch")
	}
	for _, p := range g.AlivePlayers() {
		if p.ID != last.ID {
			g.SubmitDayVote(p.ID, last.ID)
		}
	}
	if _, err := g.ResolveDay(now); err != nil {
		t.Fatalf("final ResolveDay: %v", err)
	}

	win := g.CheckWinCondition(now)
	if !win.Ended || win.Winner != WinnerVillagers {
		t.Fatalf("final win = %+v, want villagers", win)
	}
	if err := g.SubmitDayVote("host", "p2"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("vote after end = %v, want ErrWrongPhase", err)
	}

	// The history log captured the whole arc in order.
	var types []EventType
	for _, ev := range g.History {
		types = append(types, ev.Type)
	}
	want := map[EventType]bool{
		EventPlayerJoined: true, EventPhaseChange: true,
		EventPlayerKilled: true, EventPlayerEliminated: true,
		EventGameEnded: true,
	}
	for typ := range want {
		found := false
		for _, got := range types {
			if got == typ {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("history missing %s event", typ)
		}
	}
}
