// mailbox/mailbox.go
package mailbox

import (
	"sync/atomic"

	"github.com/wfunc/barrelduel/duel"
)

// Mailbox is the single synchronization point between the transport's
// asynchronous receive callback and the engine's polling loop. It holds at
// most one undelivered slot: a second Deliver before a Take overwrites the
// first, which the turn protocol makes harmless (at most one message is ever
// in flight per round).
//
// The pending flag and value are packed into one atomic word so Deliver and
// Take are each a single atomic exchange. Neither side blocks.
type Mailbox struct {
	cell atomic.Uint64
}

const pendingBit = 1 << 8

func pack(s duel.Slot) uint64 {
	return pendingBit | uint64(uint8(s))
}

func unpack(v uint64) duel.Slot {
	return duel.Slot(int8(uint8(v)))
}

// Deliver stores a slot for the control loop, overwriting any value it has
// not consumed yet. Safe to call from the receive goroutine.
func (m *Mailbox) Deliver(s duel.Slot) {
	m.cell.Store(pack(s))
}

// Take returns the pending slot and clears it. The second return is false
// when nothing has arrived since the last Take. Only the control loop may
// call Take.
func (m *Mailbox) Take() (duel.Slot, bool) {
	v := m.cell.Swap(0)
	if v&pendingBit == 0 {
		return duel.SlotUnset, false
	}
	return unpack(v), true
}
