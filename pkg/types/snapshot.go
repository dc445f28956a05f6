package types

// AssetSelection is one ban or pick in draft order.
type AssetSelection struct {
	Name   string `json:"name"`
	Player string `json:"player"`
}

type ActionRecord struct {
	ActionNumber int    `json:"actionNumber"`
	Player       string `json:"player"`
	ActionType   string `json:"actionType"`
	Selection    string `json:"selection"`
	Timestamp    int64  `json:"timestamp"`
}

type TeamNames struct {
	P1 string `json:"P1"`
	P2 string `json:"P2"`
}

type AgentPicks struct {
	P1 *string `json:"P1"`
	P2 *string `json:"P2"`
}

// Snapshot is the tournament as overlays and admin clients see it. Nullable
// fields are pointers so they encode as JSON null.
type Snapshot struct {
	CurrentPhase        string           `json:"currentPhase"`
	CurrentPlayer       *string          `json:"currentPlayer"`
	ActionNumber        int              `json:"actionNumber"`
	FirstPlayer         string           `json:"firstPlayer"`
	EventStarted        bool             `json:"eventStarted"`
	PhaseAdvancePending *string          `json:"phaseAdvancePending"`
	TeamNames           TeamNames        `json:"teamNames"`
	MapsBanned          []AssetSelection `json:"mapsBanned"`
	MapsPicked          []AssetSelection `json:"mapsPicked"`
	AgentsBanned        []AssetSelection `json:"agentsBanned"`
	DeciderMap          *string          `json:"deciderMap"`
	AgentPicks          AgentPicks       `json:"agentPicks"`
	PendingSelection    *string          `json:"pendingSelection"`
	RevealedActions     []int            `json:"revealedActions"` // ascending
	ActionHistory       []ActionRecord   `json:"actionHistory"`
	LastError           *string          `json:"lastError"`
}

type TimerSnapshot struct {
	Status         string `json:"status"`
	Seconds        int    `json:"seconds"`
	InitialSeconds int    `json:"initialSeconds"`
	Timestamp      int64  `json:"timestamp"`
}

// Frame is what the hub fans out on every tournament or timer change.
type Frame struct {
	Type       string        `json:"type"` // "StateSnapshot"
	Version    int           `json:"version"`
	Tournament Snapshot      `json:"tournament"`
	Timer      TimerSnapshot `json:"timer"`
}

// PlayerView is the reduced state sent to player clients.
type PlayerView struct {
	Phase            string          `json:"phase"`
	CurrentTurn      *string         `json:"currentTurn"`
	CurrentAction    *string         `json:"currentAction"`
	TurnNumber       int             `json:"turnNumber"`
	EventStarted     bool            `json:"eventStarted"`
	Maps             PlayerMaps      `json:"maps"`
	Agents           PlayerAgents    `json:"agents"`
	History          []PlayerHistory `json:"history"`
	Timer            PlayerTimer     `json:"timer"`
	TeamNames        TeamNames       `json:"teamNames"`
	AvailableOptions []string        `json:"availableOptions"`
}

type PlayerMaps struct {
	Banned  []AssetSelection `json:"banned"`
	Picked  []AssetSelection `json:"picked"`
	Decider *string          `json:"decider"`
}

type PlayerAgents struct {
	Banned []AssetSelection `json:"banned"`
	P1Pick *string          `json:"p1Pick"`
	P2Pick *string          `json:"p2Pick"`
}

type PlayerHistory struct {
	Player    string `json:"player"`
	Action    string `json:"action"` // BAN | PICK | DECIDER
	Selection string `json:"selection"`
	Timestamp int64  `json:"timestamp"`
}

type PlayerTimer struct {
	Status    string `json:"status"`
	Remaining int    `json:"remaining"`
}
