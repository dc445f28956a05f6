package types

// Client -> Server
//
// Admin:
//   {type: "StartEvent" | "SelectAsset" | "AutoAdvance" | "AdvancePhase" | "ResetTurn" |
//          "UndoLastAction" | "ResetTournament" | "SetFirstPlayer" | "SetPlayerName" |
//          "SetPendingSelection" | "ClearRevealedAction" | "SetError",
//    player?, asset?, name?, actionNumber?, message?}
//   {type: "AttemptSelection", asset}
//   {type: "TimerStart" | "TimerPause" | "TimerReset", seconds?}
//
// Player:
//   {type: "player-action", action: "BAN" | "PICK" | "DECIDER", selection}
//   {type: "ping"}
//
// Any:
//   {type: "RequestSnapshot"}
type ClientMessage struct {
	Type         string `json:"type"`
	Player       string `json:"player,omitempty"`
	Asset        string `json:"asset,omitempty"`
	Name         string `json:"name,omitempty"`
	ActionNumber int    `json:"actionNumber,omitempty"`
	Message      string `json:"message,omitempty"`
	Seconds      int    `json:"seconds,omitempty"`
	Action       string `json:"action,omitempty"`
	Selection    string `json:"selection,omitempty"`
}

// Server -> Client
//
//   StateSnapshot: Frame (admin and overlay)
//   player-state:  {type, version, state: PlayerView}
//   player-joined: {type, player, name}
//   action-result: ActionResult
//   CommandResult: {type, version, error?}
//   pong
//   Error:         {type, error}
type ServerMessage struct {
	Type    string      `json:"type"`
	Version int         `json:"version,omitempty"`
	State   *PlayerView `json:"state,omitempty"`
	Player  string      `json:"player,omitempty"`
	Name    string      `json:"name,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

type ActionResult struct {
	Type    string `json:"type"` // "action-result"
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}
