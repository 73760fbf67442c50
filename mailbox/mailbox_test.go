package mailbox

import (
	"sync"
	"testing"

	"github.com/wfunc/barrelduel/duel"
)

func TestMailbox_EmptyTake(t *testing.T) {
	var m Mailbox

	slot, ok := m.Take()
	if ok {
		t.Fatal("Take on an empty mailbox should report empty")
	}
	if slot != duel.SlotUnset {
		t.Errorf("Expected unset slot from empty Take, got %v", slot)
	}
}

func TestMailbox_DeliverThenTake(t *testing.T) {
	var m Mailbox

	m.Deliver(duel.Slot(2))

	slot, ok := m.Take()
	if !ok {
		t.Fatal("Take should find the delivered slot")
	}
	if slot != 2 {
		t.Errorf("Expected slot 2, got %v", slot)
	}

	// The slot must be consumed exactly once.
	if _, ok := m.Take(); ok {
		t.Error("Second Take should report empty")
	}
}

func TestMailbox_OverwriteKeepsNewest(t *testing.T) {
	var m Mailbox

	m.Deliver(duel.Slot(1))
	m.Deliver(duel.Slot(3))

	slot, ok := m.Take()
	if !ok {
		t.Fatal("Take should find a slot after two deliveries")
	}
	if slot != 3 {
		t.Errorf("Expected the newest slot 3, got %v", slot)
	}
	if _, ok := m.Take(); ok {
		t.Error("Only one slot should be retrievable after overwrite")
	}
}

func TestMailbox_DeliverInvalid(t *testing.T) {
	var m Mailbox

	// An undecodable payload is still a delivery; the pending flag must not
	// depend on the value being playable.
	m.Deliver(duel.SlotInvalid)

	slot, ok := m.Take()
	if !ok {
		t.Fatal("An invalid slot should still be delivered")
	}
	if slot != duel.SlotInvalid {
		t.Errorf("Expected invalid slot, got %v", slot)
	}
}

func TestMailbox_ConcurrentHandoff(t *testing.T) {
	var m Mailbox
	const deliveries = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < deliveries; i++ {
			m.Deliver(duel.Slot(i%3 + 1))
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// The reader only ever sees valid slots or empty, never a torn value.
	for {
		slot, ok := m.Take()
		if ok && !slot.Valid() {
			t.Fatalf("Take returned a torn or invalid value: %v", slot)
		}
		select {
		case <-done:
			if slot, ok := m.Take(); ok && !slot.Valid() {
				t.Fatalf("Final Take returned a torn value: %v", slot)
			}
			return
		default:
		}
	}
}
