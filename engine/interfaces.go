// engine/interfaces.go
package engine

import "github.com/wfunc/barrelduel/duel"

// Sender is the outgoing half of the peer link as the runner sees it.
// Send is best-effort with no acknowledgment; Connected gates whether a
// send is even attempted.
type Sender interface {
	Connected() bool
	Send(payload []byte) bool
}

// InputEvent is one debounced action from the local input hardware: either
// a barrel selection or a restart request. Debouncing happens upstream.
type InputEvent struct {
	Slot    duel.Slot
	Restart bool
}

// InputSource produces local input events. Closing the channel stops the
// runner.
type InputSource interface {
	Events() <-chan InputEvent
}
