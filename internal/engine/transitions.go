package engine

import "slices"

// StartEvent clears every draft record and opens action 1.
func StartEvent(s State) State {
	next := clearDraft(s)
	next.ActionNumber = FirstAction
	next.CurrentPhase = CurrentPhase(FirstAction)
	next.PhaseAdvancePending = ""
	next.CurrentPlayer, _ = CalculateCurrentPlayer(FirstAction, s.FirstPlayer)
	next.EventStarted = true
	return next
}

// SelectAsset commits asset for the current action. On rejection only
// LastError changes.
func SelectAsset(s State, asset string) State {
	if s.CurrentPlayer == "" {
		return reject(s, MsgNoActivePlayer)
	}
	if s.RevealedActions.Has(s.ActionNumber) {
		return reject(s, msgAlreadyConfirmed(s.ActionNumber))
	}
	if _, ok := historyEntry(s.ActionHistory, s.ActionNumber); ok {
		return reject(s, msgAlreadyConfirmed(s.ActionNumber))
	}
	if ok, reason := CanSelectAsset(s, asset); !ok {
		return reject(s, reason)
	}

	t, err := ActionTypeFor(s.ActionNumber)
	if err != nil {
		return reject(s, err.Error())
	}

	next := s
	sel := AssetSelection{Name: asset, Player: s.CurrentPlayer}
	switch t {
	case ActionMapBan:
		next.MapsBanned = appendSelection(s.MapsBanned, sel)
	case ActionMapPick:
		next.MapsPicked = appendSelection(s.MapsPicked, sel)
	case ActionDecider:
		picked := names(s.MapsPicked)
		if !slices.Contains(picked, asset) {
			return reject(s, msgDeciderNotPicked(asset, picked))
		}
		next.DeciderMap = asset
	case ActionAgentBan:
		next.AgentsBanned = appendSelection(s.AgentsBanned, sel)
	case ActionAgentPick:
		if s.CurrentPlayer == PlayerTwo {
			next.AgentPicks.P2 = asset
		} else {
			next.AgentPicks.P1 = asset
		}
	}

	next.ActionHistory = appendHistory(s.ActionHistory, TournamentAction{
		ActionNumber: s.ActionNumber,
		Player:       s.CurrentPlayer,
		ActionType:   t,
		Selection:    asset,
		Timestamp:    now(),
	})
	next.RevealedActions = s.RevealedActions.With(s.ActionNumber)
	next.PendingSelection = ""
	next.LastError = ""
	return next
}

// AutoAdvanceTurn moves to the next action inside the current phase. Crossing
// into another phase (or past the last action) only raises
// PhaseAdvancePending; AdvancePhase performs the move.
func AutoAdvanceTurn(s State) State {
	if !s.EventStarted {
		return reject(s, MsgEventNotStarted)
	}
	if s.CurrentPhase == PhaseConclusion {
		return s
	}

	next := s
	next.PendingSelection = ""
	next.LastError = ""

	target := s.ActionNumber + 1
	if target > LastAction {
		next.PhaseAdvancePending = PhaseConclusion
		return next
	}

	if phase := CurrentPhase(target); phase != s.CurrentPhase {
		next.PhaseAdvancePending = phase
		return next
	}

	next.ActionNumber = target
	next.CurrentPlayer, _ = CalculateCurrentPlayer(target, s.FirstPlayer)
	return next
}

// AdvancePhase releases a pending phase transition. Without one it is a no-op.
func AdvancePhase(s State) State {
	if s.PhaseAdvancePending == "" {
		return s
	}

	next := s
	next.PendingSelection = ""
	next.LastError = ""

	target := s.ActionNumber + 1
	if s.PhaseAdvancePending == PhaseConclusion || target > LastAction {
		next.CurrentPhase = PhaseConclusion
		next.CurrentPlayer = ""
		next.PhaseAdvancePending = ""
		return next
	}

	next.ActionNumber = target
	next.CurrentPlayer, _ = CalculateCurrentPlayer(target, s.FirstPlayer)
	next.CurrentPhase = s.PhaseAdvancePending
	next.PhaseAdvancePending = ""
	return next
}

// ResetTurn wipes the record at the current action so it can be replayed.
// The turn pointer does not move.
func ResetTurn(s State) State {
	next := s
	next.PendingSelection = ""
	next.LastError = ""

	if entry, ok := historyEntry(s.ActionHistory, s.ActionNumber); ok {
		next = reverse(next, entry)
		next.ActionHistory = removeHistory(s.ActionHistory, s.ActionNumber)
	}
	next.RevealedActions = s.RevealedActions.Without(s.ActionNumber)
	return next
}

// UndoLastAction removes the newest history record and its effect. The turn
// pointer does not move.
func UndoLastAction(s State) State {
	if len(s.ActionHistory) == 0 {
		return reject(s, MsgNothingToUndo)
	}

	last := s.ActionHistory[len(s.ActionHistory)-1]
	next := reverse(s, last)
	next.ActionHistory = slices.Clone(s.ActionHistory[:len(s.ActionHistory)-1])
	next.RevealedActions = s.RevealedActions.Without(last.ActionNumber)
	next.LastError = ""
	return next
}

// ResetTournament returns to the dormant state, keeping team names and the
// first player.
func ResetTournament(s State) State {
	next := clearDraft(s)
	next.ActionNumber = FirstAction
	next.CurrentPhase = CurrentPhase(FirstAction)
	next.CurrentPlayer = ""
	next.PhaseAdvancePending = ""
	next.EventStarted = false
	return next
}

// reverse undoes the effect of one history entry on the draft lists.
func reverse(s State, a TournamentAction) State {
	switch a.ActionType {
	case ActionMapBan:
		s.MapsBanned = removeSelection(s.MapsBanned, a.Selection, a.Player)
	case ActionMapPick:
		s.MapsPicked = removeSelection(s.MapsPicked, a.Selection, a.Player)
		if s.DeciderMap == a.Selection {
			s.DeciderMap = ""
		}
	case ActionDecider:
		s.DeciderMap = ""
	case ActionAgentBan:
		s.AgentsBanned = removeSelection(s.AgentsBanned, a.Selection, a.Player)
	case ActionAgentPick:
		if a.Player == PlayerTwo {
			s.AgentPicks.P2 = ""
		} else {
			s.AgentPicks.P1 = ""
		}
	}
	return s
}

// SetFirstPlayer recomputes the active player when the draft is live.
func SetFirstPlayer(s State, p Player) State {
	if !p.Valid() {
		return reject(s, MsgInvalidPlayer)
	}
	next := s
	next.FirstPlayer = p
	next.LastError = ""
	if s.EventStarted && s.CurrentPhase != PhaseConclusion {
		if cur, err := CalculateCurrentPlayer(s.ActionNumber, p); err == nil {
			next.CurrentPlayer = cur
		}
	}
	return next
}

func SetPlayerName(s State, p Player, name string) State {
	if !p.Valid() {
		return reject(s, MsgInvalidPlayer)
	}
	next := s
	if p == PlayerTwo {
		next.TeamNames.P2 = name
	} else {
		next.TeamNames.P1 = name
	}
	next.LastError = ""
	return next
}

// SetPendingSelection stores asset without committing it; "" clears it.
func SetPendingSelection(s State, asset string) State {
	next := s
	next.PendingSelection = asset
	next.LastError = ""
	return next
}

func ClearRevealedAction(s State, actionNumber int) State {
	next := s
	next.RevealedActions = s.RevealedActions.Without(actionNumber)
	next.LastError = ""
	return next
}

// SetError overwrites LastError; "" clears it.
func SetError(s State, msg string) State {
	s.LastError = msg
	return s
}
