package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidActionNumber = errors.New("invalid action number")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Player string

const (
	PlayerOne Player = "P1"
	PlayerTwo Player = "P2"
)

// Other returns the opposing player.
func (p Player) Other() Player {
	if p == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

func (p Player) Valid() bool {
	return p == PlayerOne || p == PlayerTwo
}

type Phase string

const (
	PhaseMap        Phase = "MAP_PHASE"
	PhaseAgent      Phase = "AGENT_PHASE"
	PhaseConclusion Phase = "CONCLUSION"
)

type ActionType string

const (
	ActionMapBan    ActionType = "MAP_BAN"
	ActionMapPick   ActionType = "MAP_PICK"
	ActionDecider   ActionType = "DECIDER"
	ActionAgentBan  ActionType = "AGENT_BAN"
	ActionAgentPick ActionType = "AGENT_PICK"
)

type AssetSelection struct {
	Name   string
	Player Player
}

type TournamentAction struct {
	ActionNumber int
	Player       Player
	ActionType   ActionType
	Selection    string
	Timestamp    int64 // unix millis
}

type TeamNames struct {
	P1 string
	P2 string
}

func (t TeamNames) Get(p Player) string {
	if p == PlayerTwo {
		return t.P2
	}
	return t.P1
}

type AgentPicks struct {
	P1 string
	P2 string
}

func (a AgentPicks) Get(p Player) string {
	if p == PlayerTwo {
		return a.P2
	}
	return a.P1
}

// State is the whole draft. Every transition returns a new State and never
// writes through a slice or set it received, so older values stay valid.
//
// Empty strings stand in for "none": CurrentPlayer, PhaseAdvancePending,
// DeciderMap, AgentPicks entries, PendingSelection and LastError.
type State struct {
	CurrentPhase        Phase
	CurrentPlayer       Player
	ActionNumber        int
	FirstPlayer         Player
	EventStarted        bool
	PhaseAdvancePending Phase
	TeamNames           TeamNames

	MapsBanned   []AssetSelection
	MapsPicked   []AssetSelection
	AgentsBanned []AssetSelection
	DeciderMap   string
	AgentPicks   AgentPicks

	PendingSelection string
	RevealedActions  ActionSet
	ActionHistory    []TournamentAction
	LastError        string
}

type CommandType string

const (
	CmdStartEvent          CommandType = "StartEvent"
	CmdSelectAsset         CommandType = "SelectAsset"
	CmdAutoAdvance         CommandType = "AutoAdvance"
	CmdAdvancePhase        CommandType = "AdvancePhase"
	CmdResetTurn           CommandType = "ResetTurn"
	CmdUndoLastAction      CommandType = "UndoLastAction"
	CmdResetTournament     CommandType = "ResetTournament"
	CmdSetFirstPlayer      CommandType = "SetFirstPlayer"
	CmdSetPlayerName       CommandType = "SetPlayerName"
	CmdSetPendingSelection CommandType = "SetPendingSelection"
	CmdClearRevealedAction CommandType = "ClearRevealedAction"
	CmdSetError            CommandType = "SetError"
)

type Command struct {
	Type         CommandType
	Player       Player
	Asset        string
	Name         string
	ActionNumber int
	Message      string
}

// Apply routes a command to its transition. Business-rule rejections come
// back through State.LastError; the error is only for commands the engine
// does not know.
func Apply(s State, cmd Command) (State, error) {
	switch cmd.Type {
	case CmdStartEvent:
		return StartEvent(s), nil
	case CmdSelectAsset:
		return SelectAsset(s, cmd.Asset), nil
	case CmdAutoAdvance:
		return AutoAdvanceTurn(s), nil
	case CmdAdvancePhase:
		return AdvancePhase(s), nil
	case CmdResetTurn:
		return ResetTurn(s), nil
	case CmdUndoLastAction:
		return UndoLastAction(s), nil
	case CmdResetTournament:
		return ResetTournament(s), nil
	case CmdSetFirstPlayer:
		return SetFirstPlayer(s, cmd.Player), nil
	case CmdSetPlayerName:
		return SetPlayerName(s, cmd.Player, cmd.Name), nil
	case CmdSetPendingSelection:
		return SetPendingSelection(s, cmd.Asset), nil
	case CmdClearRevealedAction:
		return ClearRevealedAction(s, cmd.ActionNumber), nil
	case CmdSetError:
		return SetError(s, cmd.Message), nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
}
