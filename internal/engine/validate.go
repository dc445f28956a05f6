package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Player-facing action kinds. A ban covers MAP_BAN and AGENT_BAN, a pick
// covers MAP_PICK and AGENT_PICK.
const (
	KindBan     = "BAN"
	KindPick    = "PICK"
	KindDecider = "DECIDER"
)

const (
	CodeEventNotStarted    = "EVENT_NOT_STARTED"
	CodeTournamentComplete = "TOURNAMENT_COMPLETED"
	CodeInvalidPlayer      = "INVALID_PLAYER"
	CodeNotPlayerTurn      = "NOT_PLAYER_TURN"
	CodeInvalidPhase       = "INVALID_PHASE"
	CodeUnknownAction      = "UNKNOWN_ACTION"
	CodeAssetNotFound      = "ASSET_NOT_FOUND"
	CodeAssetBanned        = "ASSET_ALREADY_BANNED"
	CodeAssetPicked        = "ASSET_ALREADY_PICKED"
	CodeDeciderInvalid     = "DECIDER_INVALID"
)

// ValidationError describes why a player-submitted action was refused.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// KindOf collapses an action type into the kind a player submits.
func KindOf(t ActionType) string {
	switch t {
	case ActionMapBan, ActionAgentBan:
		return KindBan
	case ActionMapPick, ActionAgentPick:
		return KindPick
	case ActionDecider:
		return KindDecider
	default:
		return ""
	}
}

// ValidatePlayerAction checks an action submitted by a player client against
// the current draft. It returns nil when the action may be attempted.
func ValidatePlayerAction(s State, player Player, kind, selection string) *ValidationError {
	if !s.EventStarted {
		return &ValidationError{CodeEventNotStarted, "Tournament has not started yet. Wait for the admin to start the event."}
	}
	if s.CurrentPhase == PhaseConclusion {
		return &ValidationError{CodeTournamentComplete, "Tournament has already completed. No further actions are allowed."}
	}
	if s.CurrentPlayer == "" {
		return &ValidationError{CodeInvalidPlayer, fmt.Sprintf("Invalid player %q: no player is on the clock.", player)}
	}
	if s.CurrentPlayer != player {
		return &ValidationError{CodeNotPlayerTurn, fmt.Sprintf("Not your turn. Player %q submitted an action, but it is %s's turn.", player, s.CurrentPlayer)}
	}

	expected, err := ActionTypeFor(s.ActionNumber)
	if err != nil {
		return &ValidationError{CodeInvalidPhase, err.Error()}
	}
	switch kind {
	case KindBan, KindPick, KindDecider:
		if KindOf(expected) != kind {
			return &ValidationError{CodeInvalidPhase, fmt.Sprintf("Invalid action %q for the current step %s.", kind, expected)}
		}
	default:
		return &ValidationError{CodeUnknownAction, fmt.Sprintf("Unknown action type %q. Valid actions are BAN, PICK, DECIDER.", kind)}
	}

	return validateSelection(s, expected, selection)
}

func validateSelection(s State, t ActionType, selection string) *ValidationError {
	switch t {
	case ActionDecider:
		picked := names(s.MapsPicked)
		if !slices.Contains(picked, selection) {
			return &ValidationError{CodeDeciderInvalid, fmt.Sprintf("Decider map %q must be selected from picked maps: %s.", selection, strings.Join(picked, ", "))}
		}
		return nil

	case ActionMapBan, ActionMapPick:
		if !slices.Contains(Maps, selection) {
			return &ValidationError{CodeAssetNotFound, fmt.Sprintf("Map %q does not exist.", selection)}
		}
		if by, ok := selectedBy(s.MapsBanned, selection); ok {
			return &ValidationError{CodeAssetBanned, fmt.Sprintf("%q was already banned by %s.", selection, by)}
		}
		if by, ok := selectedBy(s.MapsPicked, selection); ok {
			return &ValidationError{CodeAssetPicked, fmt.Sprintf("%q was already picked by %s.", selection, by)}
		}
		return nil

	default:
		if !slices.Contains(Agents, selection) {
			return &ValidationError{CodeAssetNotFound, fmt.Sprintf("Agent %q does not exist.", selection)}
		}
		if by, ok := selectedBy(s.AgentsBanned, selection); ok {
			return &ValidationError{CodeAssetBanned, fmt.Sprintf("%q was already banned by %s.", selection, by)}
		}
		for _, p := range []Player{PlayerOne, PlayerTwo} {
			if s.AgentPicks.Get(p) == selection {
				return &ValidationError{CodeAssetPicked, fmt.Sprintf("%q was already picked by %s.", selection, p)}
			}
		}
		return nil
	}
}

func selectedBy(list []AssetSelection, name string) (Player, bool) {
	for _, a := range list {
		if a.Name == name {
			return a.Player, true
		}
	}
	return "", false
}
