package hub

import (
	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
	"github.com/DoyleJ11/val-draft-backend/pkg/types"
)

const FrameStateSnapshot = "StateSnapshot"

// Project copies s into its wire shape. Nothing in the result shares memory
// with s, and every list is non-nil so it encodes as [].
func Project(s engine.State) types.Snapshot {
	return types.Snapshot{
		CurrentPhase:        string(s.CurrentPhase),
		CurrentPlayer:       optional(string(s.CurrentPlayer)),
		ActionNumber:        s.ActionNumber,
		FirstPlayer:         string(s.FirstPlayer),
		EventStarted:        s.EventStarted,
		PhaseAdvancePending: optional(string(s.PhaseAdvancePending)),
		TeamNames:           types.TeamNames{P1: s.TeamNames.P1, P2: s.TeamNames.P2},
		MapsBanned:          selections(s.MapsBanned),
		MapsPicked:          selections(s.MapsPicked),
		AgentsBanned:        selections(s.AgentsBanned),
		DeciderMap:          optional(s.DeciderMap),
		AgentPicks: types.AgentPicks{
			P1: optional(s.AgentPicks.P1),
			P2: optional(s.AgentPicks.P2),
		},
		PendingSelection: optional(s.PendingSelection),
		RevealedActions:  s.RevealedActions.Sorted(),
		ActionHistory:    history(s.ActionHistory),
		LastError:        optional(s.LastError),
	}
}

func ProjectTimer(t timer.Snapshot) types.TimerSnapshot {
	return types.TimerSnapshot{
		Status:         string(t.Status),
		Seconds:        t.Seconds,
		InitialSeconds: t.InitialSeconds,
		Timestamp:      t.TimestampMs,
	}
}

func NewFrame(version int, s engine.State, t timer.Snapshot) types.Frame {
	return types.Frame{
		Type:       FrameStateSnapshot,
		Version:    version,
		Tournament: Project(s),
		Timer:      ProjectTimer(t),
	}
}

// PlayerView reduces the draft to what a player client renders: the step
// label, the collapsed action kind, and the options it may choose from.
func PlayerView(s engine.State, t timer.Snapshot) types.PlayerView {
	v := types.PlayerView{
		Phase:        string(engine.PhaseConclusion),
		CurrentTurn:  optional(string(s.CurrentPlayer)),
		TurnNumber:   s.ActionNumber,
		EventStarted: s.EventStarted,
		Maps: types.PlayerMaps{
			Banned:  selections(s.MapsBanned),
			Picked:  selections(s.MapsPicked),
			Decider: optional(s.DeciderMap),
		},
		Agents: types.PlayerAgents{
			Banned: selections(s.AgentsBanned),
			P1Pick: optional(s.AgentPicks.P1),
			P2Pick: optional(s.AgentPicks.P2),
		},
		History:          make([]types.PlayerHistory, len(s.ActionHistory)),
		Timer:            types.PlayerTimer{Status: string(t.Status), Remaining: t.Seconds},
		TeamNames:        types.TeamNames{P1: s.TeamNames.P1, P2: s.TeamNames.P2},
		AvailableOptions: []string{},
	}

	if s.CurrentPhase != engine.PhaseConclusion {
		if at, err := engine.ActionTypeFor(s.ActionNumber); err == nil {
			v.Phase = string(at)
			v.CurrentAction = optional(engine.KindOf(at))
		}
	}
	if s.EventStarted {
		v.AvailableOptions = append(v.AvailableOptions, engine.AvailableOptions(s)...)
	}

	for i, a := range s.ActionHistory {
		v.History[i] = types.PlayerHistory{
			Player:    string(a.Player),
			Action:    engine.KindOf(a.ActionType),
			Selection: a.Selection,
			Timestamp: a.Timestamp,
		}
	}
	return v
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func selections(list []engine.AssetSelection) []types.AssetSelection {
	out := make([]types.AssetSelection, len(list))
	for i, a := range list {
		out[i] = types.AssetSelection{Name: a.Name, Player: string(a.Player)}
	}
	return out
}

func history(list []engine.TournamentAction) []types.ActionRecord {
	out := make([]types.ActionRecord, len(list))
	for i, a := range list {
		out[i] = types.ActionRecord{
			ActionNumber: a.ActionNumber,
			Player:       string(a.Player),
			ActionType:   string(a.ActionType),
			Selection:    a.Selection,
			Timestamp:    a.Timestamp,
		}
	}
	return out
}
