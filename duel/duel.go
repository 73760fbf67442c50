// duel/duel.go
package duel

// MaxRounds is the number of rounds a dodger must survive to win.
const MaxRounds = 5

// NumBarrels is the number of hiding/firing positions.
const NumBarrels = 3

// Slot is a barrel choice. Valid choices are 1..3. SlotUnset means no choice
// has been made yet this round. SlotInvalid marks a payload that failed to
// decode; it is distinct from SlotUnset so a garbled message is never
// mistaken for a genuine choice.
type Slot int8

const (
	SlotInvalid Slot = -1
	SlotUnset   Slot = 0
)

// Valid reports whether s is a playable barrel choice.
func (s Slot) Valid() bool {
	return s >= 1 && s <= NumBarrels
}

func (s Slot) String() string {
	switch {
	case s == SlotUnset:
		return "unset"
	case s.Valid():
		return string('0' + byte(s))
	default:
		return "invalid"
	}
}

// Role identifies which side of the duel a device plays. Fixed for the
// process lifetime once selected.
type Role int

const (
	RoleShooter Role = iota + 1
	RoleDodger
)

func (r Role) String() string {
	switch r {
	case RoleShooter:
		return "shooter"
	case RoleDodger:
		return "dodger"
	default:
		return "unknown"
	}
}

// Opponent returns the other role.
func (r Role) Opponent() Role {
	if r == RoleShooter {
		return RoleDodger
	}
	return RoleShooter
}

// Outcome is the result of comparing both choices for one round.
type Outcome struct {
	Safe bool // the dodger picked the same barrel the shooter fired into
	Over bool // a miss by the dodger ends the game immediately
}

// Evaluate scores a round. Safe iff the slots match; any mismatch is fatal
// regardless of round number. An invalid slot on either side can never
// match, so a malformed message always scores as a hit.
func Evaluate(shooter, dodger Slot) Outcome {
	safe := shooter == dodger
	return Outcome{Safe: safe, Over: !safe}
}

// Winner maps the terminal round's outcome to the overall winner: the
// shooter wins iff the last round was not safe, the dodger wins by
// surviving.
func Winner(lastRoundSafe bool) Role {
	if lastRoundSafe {
		return RoleDodger
	}
	return RoleShooter
}
