package engine

import "time"

// maxMessageLen bounds free-text chat content; longer input is clipped.
const maxMessageLen = 500

// SubmitDayVote records voterID's vote against targetID for the current
// round. Both must be seated and alive; voting for oneself is allowed.
// A later vote by the same voter overwrites the earlier one.
func (g *Game) SubmitDayVote(voterID, targetID string) error {
	if g.Phase != PhaseDay {
		return ErrWrongPhase
	}
	voter := g.Player(voterID)
	if voter == nil {
		return ErrUnknownPlayer
	}
	if !voter.IsAlive {
		return ErrDeadPlayer
	}
	target := g.Player(targetID)
	if target == nil {
		return ErrUnknownPlayer
	}
	if !target.IsAlive {
		return ErrDeadPlayer
	}
	g.DayVotes[voterID] = targetID
	return nil
}

// SubmitNightAction records a night ability. A kill requires the mafia
// role and a save the doctor role; any mismatch is declined without
// mutating state. The last submission of each kind wins — multiple mafia
// members do not hold a majority vote, the final kill target stands.
func (g *Game) SubmitNightAction(actorID, targetID string, kind NightActionKind) error {
	if g.Phase != PhaseNight {
		return ErrWrongPhase
	}
	actor := g.Player(actorID)
	if actor == nil {
		return ErrUnknownPlayer
	}
	if !actor.IsAlive {
		return ErrDeadPlayer
	}
	switch kind {
	case NightKill:
		if actor.Role != RoleMafia {
			return ErrWrongRole
		}
		g.NightActions.MafiaKill = targetID
	case NightSave:
		if actor.Role != RoleDoctor {
			return ErrWrongRole
		}
		g.NightActions.DoctorSave = targetID
	default:
		return ErrWrongRole
	}
	return nil
}

// AddMessage appends a chat entry. Private messages reach only the
// sender and players holding targetRole; see MessagesFor.
func (g *Game) AddMessage(fromID, content string, isPrivate bool, targetRole Role, now time.Time) error {
	if g.Player(fromID) == nil {
		return ErrUnknownPlayer
	}
	if len(content) > maxMessageLen {
		content = content[:maxMessageLen]
	}
	g.Messages = append(g.Messages, Message{
		ID:         len(g.Messages) + 1,
		From:       fromID,
		Content:    content,
		Timestamp:  now.UnixMilli(),
		IsPrivate:  isPrivate,
		TargetRole: targetRole,
	})
	return nil
}

// MessagesFor returns the chat feed visible to the given participant:
// all public messages, the participant's own messages, and private
// messages scoped to the participant's current role.
//
// There is no per-request authentication boundary in this design; the
// caller is trusted to request only its own feed.
func (g *Game) MessagesFor(playerID string) []Message {
	p := g.Player(playerID)
	if p == nil {
		return nil
	}
	out := make([]Message, 0, len(g.Messages))
	for _, m := range g.Messages {
		switch {
		case !m.IsPrivate:
			out = append(out, m)
		case m.From == playerID:
			out = append(out, m)
		case m.TargetRole != "" && p.Role == m.TargetRole:
			out = append(out, m)
		}
	}
	return out
}
