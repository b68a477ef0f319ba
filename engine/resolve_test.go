package engine

import (
	"errors"
	"testing"
	"time"
)

func TestResolveDayEliminatesStrictMaximum(t *testing.T) {
	g := startTestGame(t, 42)

	g.SubmitDayVote("host", "p2")
	g.SubmitDayVote("p3", "p2")
	g.SubmitDayVote("p4", "p2")
	g.SubmitDayVote("p5", "p6")

	res, err := g.ResolveDay(t0)
	if err != nil {
		t.Fatalf("ResolveDay: %v", err)
	}
	if res.Eliminated != "p2" {
		t.Fatalf("Eliminated = %q, want p2", res.Eliminated)
	}
	if res.Votes["p2"] != 3 || res.Votes["p6"] != 1 {
		t.Fatalf("Votes = %+v", res.Votes)
	}
	if g.IsPlayerAlive("p2") {
		t.Fatal("eliminated player still alive")
	}
	if len(g.Eliminated) != 1 || g.Eliminated[0] != "p2" {
		t.Fatalf("Eliminated list = %v", g.Eliminated)
	}
	if len(g.DayVotes) != 0 {
		t.Fatalf("votes not cleared: %+v", g.DayVotes)
	}
	last := g.History[len(g.History)-1]
	if last.Type != EventPlayerEliminated || last.Player != "p2" {
		t.Fatalf("history tail = %+v", last)
	}
}

// TestResolveDayTieBreak: ties for the maximum go to the lowest
// identifier, deterministically.
func TestResolveDayTieBreak(t *testing.T) {
	g := startTestGame(t, 42)

	g.SubmitDayVote("host", "p5")
	g.SubmitDayVote("p2", "p3")
	g.SubmitDayVote("p4", "p3")
	g.SubmitDayVote("p6", "p5")

	res, err := g.ResolveDay(t0)
	if err != nil {
		t.Fatalf("ResolveDay: %v", err)
	}
	if res.Eliminated != "p3" {
		t.Fatalf("Eliminated = %q, want p3 (lowest ID among tied)", res.Eliminated)
	}
}

func TestResolveDayNoVotes(t *testing.T) {
	g := startTestGame(t, 42)

	res, err := g.ResolveDay(t0)
	if err != nil {
		t.Fatalf("ResolveDay: %v", err)
	}
	if res.Eliminated != "" || len(res.Votes) != 0 {
		t.Fatalf("res = %+v, want empty", res)
	}
	if len(g.Eliminated) != 0 {
		t.Fatalf("Eliminated = %v", g.Eliminated)
	}
}

// TestResolveDayIdempotent: a second resolution with no new votes must
// not eliminate a second participant.
func TestResolveDayIdempotent(t *testing.T) {
	g := startTestGame(t, 42)
	g.SubmitDayVote("host", "p2")

	first, _ := g.ResolveDay(t0)
	if first.Eliminated != "p2" {
		t.Fatalf("first Eliminated = %q", first.Eliminated)
	}
	second, err := g.ResolveDay(t0)
	if err != nil {
		t.Fatalf("second ResolveDay: %v", err)
	}
	if second.Eliminated != "" {
		t.Fatalf("second resolution eliminated %q", second.Eliminated)
	}
	if len(g.Eliminated) != 1 {
		t.Fatalf("Eliminated list = %v", g.Eliminated)
	}
}

func TestResolveDayWrongPhase(t *testing.T) {
	g := newTestGame(42)
	if _, err := g.ResolveDay(t0); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("ResolveDay in lobby = %v, want ErrWrongPhase", err)
	}
}

func TestResolveNightKill(t *testing.T) {
	g := startTestGame(t, 42)
	g.AdvancePhase(t0)
	mafia := playerWithRole(g, RoleMafia)

	g.SubmitNightAction(mafia.ID, "p2", NightKill)
	res, err := g.ResolveNight(t0)
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	if res.Killed != "p2" || res.Saved {
		t.Fatalf("res = %+v, want killed p2", res)
	}
	if g.IsPlayerAlive("p2") {
		t.Fatal("kill target still alive")
	}
	if g.NightActions != (NightActions{}) {
		t.Fatalf("night actions not cleared: %+v", g.NightActions)
	}
	last := g.History[len(g.History)-1]
	if last.Type != EventPlayerKilled || last.Player != "p2" {
		t.Fatalf("history tail = %+v", last)
	}
}

// TestResolveNightSaved: a save matching the kill leaves the target
// alive and reports it.
func TestResolveNightSaved(t *testing.T) {
	g := startTestGame(t, 42)
	g.AdvancePhase(t0)
	mafia := playerWithRole(g, RoleMafia)
	doctor := playerWithRole(g, RoleDoctor)

	g.SubmitNightAction(mafia.ID, "p2", NightKill)
	g.SubmitNightAction(doctor.ID, "p2", NightSave)

	res, err := g.ResolveNight(t0)
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	if res.Killed != "" || !res.Saved {
		t.Fatalf("res = %+v, want saved", res)
	}
	if !g.IsPlayerAlive("p2") {
		t.Fatal("saved target is dead")
	}
	last := g.History[len(g.History)-1]
	if last.Type != EventPlayerSaved || last.Player != "p2" {
		t.Fatalf("history tail = %+v", last)
	}
}

func TestResolveNightNoKill(t *testing.T) {
	g := startTestGame(t, 42)
	g.AdvancePhase(t0)
	doctor := playerWithRole(g, RoleDoctor)

	// A lone save with no kill has no effect.
	g.SubmitNightAction(doctor.ID, "p2", NightSave)
	res, err := g.ResolveNight(t0)
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	if res.Killed != "" || res.Saved {
		t.Fatalf("res = %+v, want empty", res)
	}
	if g.NightActions != (NightActions{}) {
		t.Fatalf("night actions not cleared: %+v", g.NightActions)
	}
}

func TestCheckWinConditionVillagers(t *testing.T) {
	g := startTestGame(t, 42)
	for _, p := range g.Players {
		if p.Role == RoleMafia {
			p.IsAlive = false
		}
	}

	res := g.CheckWinCondition(t0)
	if !res.Ended || res.Winner != WinnerVillagers {
		t.Fatalf("res = %+v, want villagers", res)
	}
	if g.Phase != PhaseEnded {
		t.Fatalf("Phase = %s, want ended", g.Phase)
	}
	last := g.History[len(g.History)-1]
	if last.Type != EventGameEnded || last.Winner != WinnerVillagers {
		t.Fatalf("history tail = %+v", last)
	}
}

func TestCheckWinConditionMafiaParity(t *testing.T) {
	g := startTestGame(t, 42)

	// Kill non-mafia until 2 mafia face 2 others.
	others := 0
	for _, p := range g.Players {
		if p.Role != RoleMafia {
			others++
			if others > 2 {
				p.IsAlive = false
			}
		}
	}

	res := g.CheckWinCondition(t0)
	if !res.Ended || res.Winner != WinnerMafia {
		t.Fatalf("res = %+v, want mafia", res)
	}
}

func TestCheckWinConditionTimeout(t *testing.T) {
	g := startTestGame(t, 42)
	g.Round = g.Rules.MaxRounds

	res := g.CheckWinCondition(t0)
	if !res.Ended || res.Winner != WinnerVillagers {
		t.Fatalf("res = %+v, want villagers by timeout", res)
	}
}

// TestCheckWinConditionTimeoutConfigured: the timeout outcome is a rule,
// not a constant.
func TestCheckWinConditionTimeoutConfigured(t *testing.T) {
	rules := DefaultRules()
	rules.TimeoutWinner = WinnerMafia
	g := NewGame("g1", 42, rules, Player{ID: "host"}, t0)
	fillLobby(t, g)
	g.StartGame("host", t0)
	g.BeginDay(t0)
	g.Round = rules.MaxRounds

	res := g.CheckWinCondition(t0)
	if !res.Ended || res.Winner != WinnerMafia {
		t.Fatalf("res = %+v, want mafia by configured timeout", res)
	}
}

func TestCheckWinConditionOngoing(t *testing.T) {
	g := startTestGame(t, 42)
	res := g.CheckWinCondition(t0)
	if res.Ended || res.Winner != WinnerNone {
		t.Fatalf("res = %+v, want ongoing", res)
	}
	if g.Phase != PhaseDay {
		t.Fatalf("Phase = %s, want day", g.Phase)
	}
}

func TestCheckWinConditionLobbyNoop(t *testing.T) {
	g := newTestGame(42)
	res := g.CheckWinCondition(t0)
	if res.Ended {
		t.Fatalf("lobby game reported ended: %+v", res)
	}
}

// TestWinConditionMonotonic: once ended, every further call returns the
// same frozen winner and mutates nothing.
func TestWinConditionMonotonic(t *testing.T) {
	g := startTestGame(t, 42)
	for _, p := range g.Players {
		if p.Role == RoleMafia {
			p.IsAlive = false
		}
	}
	first := g.CheckWinCondition(t0)
	historyLen := len(g.History)

	for i := 0; i < 3; i++ {
		again := g.CheckWinCondition(t0.Add(time.Duration(i) * time.Minute))
		if again != first {
			t.Fatalf("call %d = %+v, want %+v", i, again, first)
		}
	}
	if len(g.History) != historyLen {
		t.Fatal("repeated win checks appended history")
	}
}

func TestWinnersList(t *testing.T) {
	g := startTestGame(t, 42)
	for _, p := range g.Players {
		if p.Role == RoleMafia {
			p.IsAlive = false
		}
	}
	g.CheckWinCondition(t0)

	winners := g.Winners()
	if len(winners) != 7 {
		t.Fatalf("winners = %v, want the 7 non-mafia", winners)
	}
	for _, id := range winners {
		if g.PlayerRole(id) == RoleMafia {
			t.Fatalf("mafia %s among villager winners", id)
		}
	}
}

func TestNoMutationsAfterEnded(t *testing.T) {
	g := startTestGame(t, 42)
	g.Phase = PhaseEnded
	g.Winner = WinnerMafia

	if err := g.SubmitDayVote("host", "p2"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("vote after end = %v", err)
	}
	if _, err := g.ResolveDay(t0); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("resolve after end = %v", err)
	}
	if err := g.AdvancePhase(t0); !errors.Is(err, ErrGameEnded) {
		t.Fatalf("advance after end = %v", err)
	}
}
