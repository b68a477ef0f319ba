package engine

import "time"

// ResolveDay tallies the pending day votes and eliminates the target
// with the strictly highest count. Ties for the maximum go to the lowest
// participant identifier, so resolution is deterministic. Pending votes
// are cleared regardless of outcome, which makes a second call in the
// same day a no-op rather than a second elimination.
func (g *Game) ResolveDay(now time.Time) (DayResult, error) {
	if g.Phase != PhaseDay {
		return DayResult{}, ErrWrongPhase
	}

	tally := make(map[string]int, len(g.DayVotes))
	for _, targetID := range g.DayVotes {
		tally[targetID]++
	}

	eliminated := ""
	maxVotes := 0
	for targetID, votes := range tally {
		if votes > maxVotes || (votes == maxVotes && votes > 0 && targetID < eliminated) {
			maxVotes = votes
			eliminated = targetID
		}
	}

	if eliminated != "" {
		if p := g.Player(eliminated); p != nil && p.IsAlive {
			p.IsAlive = false
			g.Eliminated = append(g.Eliminated, eliminated)
			g.appendEvent(Event{Type: EventPlayerEliminated, Timestamp: now.UnixMilli(), Player: eliminated, Round: g.Round})
		} else {
			eliminated = ""
		}
	}

	g.DayVotes = make(map[string]string)
	return DayResult{Eliminated: eliminated, Votes: tally}, nil
}

// ResolveNight applies the pending night actions. No recorded kill means
// no effect; a kill matching the doctor's save leaves the target alive
// and reports Saved. Pending actions are cleared regardless of outcome.
func (g *Game) ResolveNight(now time.Time) (NightResult, error) {
	if g.Phase != PhaseNight {
		return NightResult{}, ErrWrongPhase
	}

	kill := g.NightActions.MafiaKill
	save := g.NightActions.DoctorSave
	g.NightActions = NightActions{}

	if kill == "" {
		return NightResult{}, nil
	}
	if kill == save {
		g.appendEvent(Event{Type: EventPlayerSaved, Timestamp: now.UnixMilli(), Player: kill, Round: g.Round})
		return NightResult{Saved: true}, nil
	}
	p := g.Player(kill)
	if p == nil || !p.IsAlive {
		return NightResult{}, nil
	}
	p.IsAlive = false
	g.Eliminated = append(g.Eliminated, kill)
	g.appendEvent(Event{Type: EventPlayerKilled, Timestamp: now.UnixMilli(), Player: kill, Round: g.Round})
	return NightResult{Killed: kill}, nil
}

// CheckWinCondition evaluates the win conditions against the living
// roster:
//
//   - no mafia alive → villagers win;
//   - mafia at least matching the rest → mafia win;
//   - the configured maximum round reached → Rules.TimeoutWinner wins.
//
// A firing condition transitions the game irreversibly to PhaseEnded and
// freezes the winner; calling again on an ended game returns the same
// result without further mutation.
func (g *Game) CheckWinCondition(now time.Time) WinResult {
	if g.Phase == PhaseEnded {
		return WinResult{Winner: g.Winner, Ended: true}
	}
	if g.Phase == PhaseLobby {
		return WinResult{}
	}

	mafia, others := g.aliveByFaction()
	switch {
	case mafia == 0:
		return g.endGame(WinnerVillagers, now)
	case mafia >= others:
		return g.endGame(WinnerMafia, now)
	case g.Round >= g.Rules.MaxRounds:
		return g.endGame(g.Rules.TimeoutWinner, now)
	}
	return WinResult{}
}

func (g *Game) endGame(winner Winner, now time.Time) WinResult {
	ms := now.UnixMilli()
	g.Phase = PhaseEnded
	g.PhaseStart = ms
	g.PhaseEnd = ms
	g.Winner = winner
	g.appendEvent(Event{Type: EventGameEnded, Timestamp: ms, Winner: winner, Round: g.Round})
	return WinResult{Winner: winner, Ended: true}
}

// Winners lists the members of the winning faction. Mafia wins count the
// whole mafia; villager wins count everyone else. Empty until ended.
func (g *Game) Winners() []string {
	if g.Phase != PhaseEnded {
		return nil
	}
	var out []string
	for _, p := range g.Players {
		if (g.Winner == WinnerMafia) == (p.Role == RoleMafia) {
			out = append(out, p.ID)
		}
	}
	return out
}
