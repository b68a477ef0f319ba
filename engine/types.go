package engine

// Role is a participant's assigned game role. Roles are unassigned while
// the game sits in the lobby and fixed for the rest of the game.
type Role string

const (
	RoleMafia    Role = "mafia"
	RoleDoctor   Role = "doctor"
	RoleGod      Role = "god"
	RoleVillager Role = "villager"
)

// Phase is the single active phase of a game. Transitions are driven
// exclusively by StartGame, BeginDay and AdvancePhase; PhaseEnded is
// terminal.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseStarting Phase = "starting"
	PhaseDay      Phase = "day"
	PhaseNight    Phase = "night"
	PhaseEnded    Phase = "ended"
)

// Winner identifies the winning faction once a game has ended.
type Winner string

const (
	WinnerNone      Winner = ""
	WinnerMafia     Winner = "mafia"
	WinnerVillagers Winner = "villagers"
)

// NightActionKind names the two night abilities.
type NightActionKind string

const (
	NightKill NightActionKind = "kill"
	NightSave NightActionKind = "save"
)

// Player is one seated participant.
type Player struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	Role         Role   `json:"role,omitempty"`
	IsAlive      bool   `json:"isAlive"`
	IsHost       bool   `json:"isHost"`
	Paid         bool   `json:"paid"`
	Acknowledged bool   `json:"acknowledged"`
	JoinedAt     int64  `json:"joinedAt"`
}

// NightActions holds the pending night submissions for the current round.
// At most one kill and one save target are kept; a later submission by a
// mafia member or by the doctor overwrites the earlier one.
type NightActions struct {
	MafiaKill  string `json:"mafiaKill,omitempty"`
	DoctorSave string `json:"doctorSave,omitempty"`
}

// Message is one chat entry. Private messages are visible only to their
// sender and to players whose current role matches TargetRole.
type Message struct {
	ID         int    `json:"id"`
	From       string `json:"from"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	IsPrivate  bool   `json:"isPrivate,omitempty"`
	TargetRole Role   `json:"targetRole,omitempty"`
}

// EventType tags entries in the game history log.
type EventType string

const (
	EventPlayerJoined     EventType = "player_joined"
	EventPlayerLeft       EventType = "player_left"
	EventPhaseChange      EventType = "phase_change"
	EventPlayerEliminated EventType = "player_eliminated"
	EventPlayerKilled     EventType = "player_killed"
	EventPlayerSaved      EventType = "player_saved"
	EventGameEnded        EventType = "game_ended"
)

// Event is one timestamped history entry. Each EventType populates a fixed
// subset of the optional fields; there is no open-ended payload map.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Player    string    `json:"player,omitempty"`
	Phase     Phase     `json:"phase,omitempty"`
	Round     int       `json:"round,omitempty"`
	Roster    int       `json:"roster,omitempty"`
	Winner    Winner    `json:"winner,omitempty"`
}

// DayResult reports the outcome of a day-vote resolution. Eliminated is
// empty when no participant reached a strict vote maximum.
type DayResult struct {
	Eliminated string         `json:"eliminated,omitempty"`
	Votes      map[string]int `json:"votes"`
}

// NightResult reports the outcome of a night resolution. Saved is true
// when the doctor's save target matched the mafia kill target.
type NightResult struct {
	Killed string `json:"killed,omitempty"`
	Saved  bool   `json:"saved"`
}

// WinResult reports the win-condition evaluation after a resolution.
type WinResult struct {
	Winner Winner `json:"winner,omitempty"`
	Ended  bool   `json:"ended"`
}
