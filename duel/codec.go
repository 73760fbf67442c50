// duel/codec.go
package duel

import "strconv"

// EncodeSlot serializes a choice as its decimal digit in a single text byte.
// That is the whole wire format for a turn: no framing, no checksum.
func EncodeSlot(s Slot) []byte {
	return []byte(strconv.Itoa(int(s)))
}

// DecodeSlot parses an inbound payload. Anything that is not the text form
// of 1..3 (empty, non-numeric, out of range) decodes to SlotInvalid rather
// than being coerced to a playable value.
func DecodeSlot(payload []byte) Slot {
	n, err := strconv.Atoi(string(payload))
	if err != nil {
		return SlotInvalid
	}
	s := Slot(n)
	if !s.Valid() {
		return SlotInvalid
	}
	return s
}
