package engine

import (
	"slices"
	"time"
)

// Config overrides the defaults of a fresh state. Zero fields keep the default.
type Config struct {
	FirstPlayer Player
	TeamNames   TeamNames
}

func NewEmptyState() State {
	return NewState(Config{})
}

// NewState builds a dormant tournament: not started, action 1, map phase.
func NewState(cfg Config) State {
	s := State{
		CurrentPhase: CurrentPhase(FirstAction),
		ActionNumber: FirstAction,
		FirstPlayer:  PlayerOne,
		TeamNames:    TeamNames{P1: "Team 1", P2: "Team 2"},
	}
	if cfg.FirstPlayer.Valid() {
		s.FirstPlayer = cfg.FirstPlayer
	}
	if cfg.TeamNames.P1 != "" {
		s.TeamNames.P1 = cfg.TeamNames.P1
	}
	if cfg.TeamNames.P2 != "" {
		s.TeamNames.P2 = cfg.TeamNames.P2
	}
	return clearDraft(s)
}

// now stamps history entries; tests replace it.
var now = func() int64 {
	return time.Now().UnixMilli()
}

// clearDraft drops every ban, pick and history record.
func clearDraft(s State) State {
	s.MapsBanned = []AssetSelection{}
	s.MapsPicked = []AssetSelection{}
	s.AgentsBanned = []AssetSelection{}
	s.DeciderMap = ""
	s.AgentPicks = AgentPicks{}
	s.ActionHistory = []TournamentAction{}
	s.RevealedActions = NewActionSet()
	s.PendingSelection = ""
	s.LastError = ""
	return s
}

func reject(s State, msg string) State {
	s.LastError = msg
	return s
}

// The helpers below always allocate, so a slice held by an older State is
// never written to.

func appendSelection(list []AssetSelection, sel AssetSelection) []AssetSelection {
	out := make([]AssetSelection, len(list), len(list)+1)
	copy(out, list)
	return append(out, sel)
}

func removeSelection(list []AssetSelection, name string, player Player) []AssetSelection {
	idx := slices.IndexFunc(list, func(a AssetSelection) bool {
		return a.Name == name && a.Player == player
	})
	if idx < 0 {
		return list
	}
	out := make([]AssetSelection, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

func appendHistory(list []TournamentAction, a TournamentAction) []TournamentAction {
	out := make([]TournamentAction, len(list), len(list)+1)
	copy(out, list)
	return append(out, a)
}

func removeHistory(list []TournamentAction, actionNumber int) []TournamentAction {
	out := make([]TournamentAction, 0, len(list))
	for _, a := range list {
		if a.ActionNumber != actionNumber {
			out = append(out, a)
		}
	}
	return out
}

func historyEntry(list []TournamentAction, actionNumber int) (TournamentAction, bool) {
	for _, a := range list {
		if a.ActionNumber == actionNumber {
			return a, true
		}
	}
	return TournamentAction{}, false
}

func names(list []AssetSelection) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name
	}
	return out
}
