// engine/snapshot.go
package engine

import "github.com/wfunc/barrelduel/duel"

// Snapshot is the read-only view handed to the presentation layer after
// every transition. Rendering is not the engine's business, but the strings
// are pure functions of final state, so they live here.
type Snapshot struct {
	Role          duel.Role
	Round         int
	MaxRounds     int
	Phase         Phase
	LastRoundSafe bool
	IsOver        bool
	Winner        duel.Role // zero until the game-over phase
}

// Snapshot captures the presentable state of a session.
func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		Role:          s.Role,
		Round:         s.Round,
		MaxRounds:     duel.MaxRounds,
		Phase:         s.Phase,
		LastRoundSafe: s.LastRoundSafe,
		IsOver:        s.IsOver,
	}
	if s.Phase == PhaseGameOver {
		snap.Winner = duel.Winner(s.LastRoundSafe)
	}
	return snap
}

// Prompt is the instruction or result line for the current phase, worded per
// role as on the device screens.
func (s Snapshot) Prompt() string {
	switch s.Phase {
	case PhaseAwaitRemote:
		if s.Role == duel.RoleShooter {
			return "Waiting for dodger..."
		}
		return "Waiting for shot..."
	case PhaseAwaitLocal:
		if s.Role == duel.RoleShooter {
			return "Select barrel to shoot"
		}
		return "Select barrel to hide"
	case PhaseShowResult:
		if s.LastRoundSafe {
			if s.Role == duel.RoleShooter {
				return "Round Safe"
			}
			return "Safe!"
		}
		if s.Role == duel.RoleShooter {
			return "Dodger Hit!"
		}
		return "You Were Hit!"
	case PhaseGameOver:
		if s.Winner == s.Role {
			return "Game Over - You Win!"
		}
		return "Game Over - You Lose!"
	default:
		return ""
	}
}
