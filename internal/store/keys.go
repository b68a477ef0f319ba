package store

import "fmt"

// Key layout, one namespace per concern:
//
//	game:{id}              versioned JSON snapshot of the aggregate
//	games:{phase}          set of active game IDs, for discovery by phase
//	lock:game:{id}         short-lived exclusive lock
//	vote:{id}:{kind}:{voter}  standalone expiring vote mirror
//	timer:{id}:{phase}     advisory phase deadline
func gameKey(gameID string) string { return "game:" + gameID }

func phaseIndexKey(phase string) string { return "games:" + phase }

func lockKey(gameID string) string { return "lock:game:" + gameID }

func voteKey(gameID, kind, voterID string) string {
	return fmt.Sprintf("vote:%s:%s:%s", gameID, kind, voterID)
}

func votePattern(gameID, kind string) string {
	return fmt.Sprintf("vote:%s:%s:*", gameID, kind)
}

func timerKey(gameID, phase string) string {
	return fmt.Sprintf("timer:%s:%s", gameID, phase)
}
