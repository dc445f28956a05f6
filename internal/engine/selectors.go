package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Rejection messages surfaced through State.LastError.
const (
	MsgEventNotStarted  = "Event has not started. Start the event first."
	MsgNoActivePlayer   = "No active player."
	MsgPhaseAdvance     = "Phase advance pending. Advance to the next phase first."
	MsgNothingToUndo    = "No actions to undo."
	MsgStartTimerFirst  = "Timer has not started. Start the timer first."
	MsgSelectionPending = "A selection is already pending."
	MsgInvalidPlayer    = "Invalid player."
)

func msgAlreadyConfirmed(actionNumber int) string {
	return fmt.Sprintf("Action %d already confirmed. Use reset turn to change it.", actionNumber)
}

func msgDeciderNotPicked(asset string, picked []string) string {
	return fmt.Sprintf("Decider map %q must be selected from picked maps: %s.", asset, strings.Join(picked, ", "))
}

func msgUnavailable(asset string, t ActionType) string {
	return fmt.Sprintf("%q is not available for %s.", asset, t)
}

// CalculateCurrentPlayer gives odd actions to first and even actions to the
// other player.
func CalculateCurrentPlayer(actionNumber int, first Player) (Player, error) {
	if actionNumber < FirstAction || actionNumber > LastAction {
		return "", fmt.Errorf("%w: %d", ErrInvalidActionNumber, actionNumber)
	}
	if actionNumber%2 == 1 {
		return first, nil
	}
	return first.Other(), nil
}

func CurrentPhase(actionNumber int) Phase {
	switch {
	case actionNumber <= PhaseBounds[PhaseMap][1]: // includes anything below 1
		return PhaseMap
	case actionNumber <= PhaseBounds[PhaseAgent][1]:
		return PhaseAgent
	default:
		return PhaseConclusion
	}
}

func ActionTypeFor(actionNumber int) (ActionType, error) {
	if actionNumber < FirstAction || actionNumber > LastAction {
		return "", fmt.Errorf("%w: %d", ErrInvalidActionNumber, actionNumber)
	}
	return ActionOrder[actionNumber-1], nil
}

// PhaseStartAction is the first action of the phase actionNumber belongs to.
func PhaseStartAction(actionNumber int) int {
	switch CurrentPhase(actionNumber) {
	case PhaseMap:
		return PhaseBounds[PhaseMap][0]
	case PhaseAgent:
		return PhaseBounds[PhaseAgent][0]
	default:
		return LastAction
	}
}

type AvailableAssets struct {
	Maps   []string
	Agents []string
}

// GetAvailableAssets is the catalog minus everything banned or picked. On the
// decider action the available maps are exactly the picked maps.
func GetAvailableAssets(s State) AvailableAssets {
	bannedMaps := names(s.MapsBanned)
	pickedMaps := names(s.MapsPicked)
	bannedAgents := names(s.AgentsBanned)

	var maps []string
	if s.ActionNumber == DeciderAction {
		maps = pickedMaps
	} else {
		maps = make([]string, 0, len(Maps))
		for _, m := range Maps {
			if !slices.Contains(bannedMaps, m) && !slices.Contains(pickedMaps, m) {
				maps = append(maps, m)
			}
		}
	}

	agents := make([]string, 0, len(Agents))
	for _, a := range Agents {
		if slices.Contains(bannedAgents, a) || a == s.AgentPicks.P1 || a == s.AgentPicks.P2 {
			continue
		}
		agents = append(agents, a)
	}
	return AvailableAssets{Maps: maps, Agents: agents}
}

// AvailableOptions narrows GetAvailableAssets to the pool the current action
// draws from. Nothing is available once the draft has concluded.
func AvailableOptions(s State) []string {
	if s.CurrentPhase == PhaseConclusion {
		return []string{}
	}
	t, err := ActionTypeFor(s.ActionNumber)
	if err != nil {
		return []string{}
	}
	avail := GetAvailableAssets(s)
	switch t {
	case ActionAgentBan, ActionAgentPick:
		return avail.Agents
	default:
		return avail.Maps
	}
}

// CanSelectAsset reports whether asset may be committed for the current
// action. The first failing check wins.
func CanSelectAsset(s State, asset string) (bool, string) {
	if !s.EventStarted {
		return false, MsgEventNotStarted
	}
	if s.CurrentPlayer == "" {
		return false, MsgNoActivePlayer
	}
	if s.PhaseAdvancePending != "" {
		return false, MsgPhaseAdvance
	}
	if s.RevealedActions.Has(s.ActionNumber) {
		return false, msgAlreadyConfirmed(s.ActionNumber)
	}

	t, err := ActionTypeFor(s.ActionNumber)
	if err != nil {
		return false, err.Error()
	}

	avail := GetAvailableAssets(s)
	switch t {
	case ActionDecider:
		picked := names(s.MapsPicked)
		if !slices.Contains(picked, asset) {
			return false, msgDeciderNotPicked(asset, picked)
		}
	case ActionMapBan, ActionMapPick:
		if !slices.Contains(avail.Maps, asset) {
			return false, msgUnavailable(asset, t)
		}
	case ActionAgentBan, ActionAgentPick:
		if !slices.Contains(avail.Agents, asset) {
			return false, msgUnavailable(asset, t)
		}
	}
	return true, ""
}

// CanAttemptSelection is the coarse check made before the timer is consulted.
func CanAttemptSelection(s State) (bool, string) {
	if s.PhaseAdvancePending != "" {
		return false, MsgPhaseAdvance
	}
	if !s.EventStarted {
		return false, MsgEventNotStarted
	}
	if s.PendingSelection != "" {
		return false, MsgSelectionPending
	}
	return true, ""
}

type PhaseProgress struct {
	Phase     Phase
	Completed int
	Total     int
	Fraction  float64
	Complete  bool
}

// GetPhaseProgress counts revealed actions inside the current phase window.
func GetPhaseProgress(s State) PhaseProgress {
	bounds, ok := PhaseBounds[s.CurrentPhase]
	if !ok {
		return PhaseProgress{Phase: PhaseConclusion, Fraction: 1, Complete: true}
	}

	total := bounds[1] - bounds[0] + 1
	completed := 0
	for a := bounds[0]; a <= bounds[1]; a++ {
		if s.RevealedActions.Has(a) {
			completed++
		}
	}
	return PhaseProgress{
		Phase:     s.CurrentPhase,
		Completed: completed,
		Total:     total,
		Fraction:  float64(completed) / float64(total),
		Complete:  completed == total,
	}
}
