package engine

import "time"

// RoleCounts is the fixed role multiset for one seat count.
type RoleCounts struct {
	Mafia    int `json:"mafia"`
	Doctor   int `json:"doctor"`
	God      int `json:"god"`
	Villager int `json:"villager"`
}

// Total returns the number of seats the multiset covers.
func (rc RoleCounts) Total() int {
	return rc.Mafia + rc.Doctor + rc.God + rc.Villager
}

// RoleTable maps a seat count to its role multiset.
type RoleTable map[int]RoleCounts

// Rules holds the configurable game rule settings. The table is
// configuration, not part of the assignment algorithm.
type Rules struct {
	SeatCount        int           `json:"seatCount"`
	Roles            RoleTable     `json:"roles"`
	MaxRounds        int           `json:"maxRounds"`
	StartingDuration time.Duration `json:"startingDuration"` // 0 skips the starting phase
	DayDuration      time.Duration `json:"dayDuration"`
	NightDuration    time.Duration `json:"nightDuration"`

	// TimeoutWinner is the faction awarded the game when MaxRounds is
	// reached without another win condition firing.
	TimeoutWinner Winner `json:"timeoutWinner"`
}

// DefaultRules returns the standard 9-seat configuration: 2 mafia,
// 1 doctor, 1 god, 5 villagers, 3 rounds maximum, villagers winning
// a timed-out game.
func DefaultRules() Rules {
	return Rules{
		SeatCount: 9,
		Roles: RoleTable{
			9: {Mafia: 2, Doctor: 1, God: 1, Villager: 5},
		},
		MaxRounds:        3,
		StartingDuration: 30 * time.Second,
		DayDuration:      5 * time.Minute,
		NightDuration:    150 * time.Second,
		TimeoutWinner:    WinnerVillagers,
	}
}

// roleMultiset builds the flat role list for the configured seat count.
// Returns false when the table has no entry or the entry does not sum to
// the seat count — a configuration bug, not a player-visible condition.
func (r Rules) roleMultiset() ([]Role, bool) {
	rc, ok := r.Roles[r.SeatCount]
	if !ok || rc.Total() != r.SeatCount {
		return nil, false
	}
	roles := make([]Role, 0, r.SeatCount)
	for i := 0; i < rc.Mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < rc.Doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for i := 0; i < rc.God; i++ {
		roles = append(roles, RoleGod)
	}
	for i := 0; i < rc.Villager; i++ {
		roles = append(roles, RoleVillager)
	}
	return roles, true
}
