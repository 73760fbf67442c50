// engine/engine.go
package engine

import (
	"github.com/wfunc/barrelduel/duel"
)

// Phase is the round state a device is in. Both roles share one phase set;
// the role decides the ordering. A shooter starts each round waiting for the
// dodger's choice (AwaitRemote), a dodger starts by picking a barrel
// (AwaitLocal).
type Phase int

const (
	PhaseAwaitRemote Phase = iota + 1
	PhaseAwaitLocal
	PhaseShowResult
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitRemote:
		return "await_remote"
	case PhaseAwaitLocal:
		return "await_local"
	case PhaseShowResult:
		return "show_result"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Session is the full round state of one device. It is a value: Step takes a
// Session and returns the next one, so there is no shared mutable game state
// anywhere.
type Session struct {
	Role          duel.Role
	Phase         Phase
	Round         int
	LastRoundSafe bool
	IsOver        bool
	ShooterSlot   duel.Slot
	DodgerSlot    duel.Slot
}

// NewSession returns the initial state for a role: round 1, no outcome, the
// role's opening phase.
func NewSession(role duel.Role) Session {
	return Session{
		Role:  role,
		Phase: initialPhase(role),
		Round: 1,
	}
}

func initialPhase(role duel.Role) Phase {
	if role == duel.RoleShooter {
		return PhaseAwaitRemote
	}
	return PhaseAwaitLocal
}

// EventKind discriminates the inputs the state machine reacts to.
type EventKind int

const (
	// EventSlotSelected is a debounced local barrel selection.
	EventSlotSelected EventKind = iota + 1
	// EventDelivery is a peer message taken from the mailbox. The slot may
	// be invalid if the payload was malformed; it is stored anyway and can
	// never match, so the round scores as a hit.
	EventDelivery
	// EventDisplayElapsed ends the timed result display.
	EventDisplayElapsed
	// EventRestart leaves the terminal state and starts a fresh game.
	EventRestart
)

// Event is one input to Step.
type Event struct {
	Kind EventKind
	Slot duel.Slot
}

// Effect is what a step asks the outside world to do. SendPayload, when
// non-nil, is handed to the channel best-effort: if the peer is not
// connected the message is dropped with no retry, and the remote side will
// stall in its waiting phase.
type Effect struct {
	SendPayload []byte
}

// Step advances a session by one event. It is pure: no clocks, no I/O, no
// globals. Events that do not apply to the current phase leave the session
// unchanged.
func Step(s Session, ev Event) (Session, Effect) {
	var eff Effect

	switch ev.Kind {
	case EventSlotSelected:
		if s.Phase != PhaseAwaitLocal || !ev.Slot.Valid() {
			return s, eff
		}
		s.setLocal(ev.Slot)
		eff.SendPayload = duel.EncodeSlot(ev.Slot)
		if s.Role == duel.RoleShooter {
			// The shooter picks second, so both slots are known now.
			s.score()
			s.Phase = PhaseShowResult
		} else {
			s.Phase = PhaseAwaitRemote
		}

	case EventDelivery:
		if s.Phase != PhaseAwaitRemote {
			return s, eff
		}
		s.setRemote(ev.Slot)
		if s.Role == duel.RoleDodger {
			s.score()
			s.Phase = PhaseShowResult
		} else {
			s.Phase = PhaseAwaitLocal
		}

	case EventDisplayElapsed:
		if s.Phase != PhaseShowResult {
			return s, eff
		}
		if s.IsOver || (s.Round >= duel.MaxRounds && s.LastRoundSafe) {
			s.Phase = PhaseGameOver
		} else {
			s.Round++
			s.ShooterSlot = duel.SlotUnset
			s.DodgerSlot = duel.SlotUnset
			s.Phase = initialPhase(s.Role)
		}

	case EventRestart:
		if s.Phase != PhaseGameOver {
			return s, eff
		}
		return NewSession(s.Role), eff
	}

	return s, eff
}

func (s *Session) setLocal(slot duel.Slot) {
	if s.Role == duel.RoleShooter {
		s.ShooterSlot = slot
	} else {
		s.DodgerSlot = slot
	}
}

func (s *Session) setRemote(slot duel.Slot) {
	if s.Role == duel.RoleShooter {
		s.DodgerSlot = slot
	} else {
		s.ShooterSlot = slot
	}
}

func (s *Session) score() {
	outcome := duel.Evaluate(s.ShooterSlot, s.DodgerSlot)
	s.LastRoundSafe = outcome.Safe
	if outcome.Over {
		s.IsOver = true
	}
}
