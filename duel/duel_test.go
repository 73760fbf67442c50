package duel

import "testing"

func TestEvaluate_AllPairs(t *testing.T) {
	for s := Slot(1); s <= NumBarrels; s++ {
		for d := Slot(1); d <= NumBarrels; d++ {
			outcome := Evaluate(s, d)
			wantSafe := s == d
			if outcome.Safe != wantSafe {
				t.Errorf("Evaluate(%v, %v).Safe = %v, want %v", s, d, outcome.Safe, wantSafe)
			}
			if outcome.Over != !wantSafe {
				t.Errorf("Evaluate(%v, %v).Over = %v, want %v", s, d, outcome.Over, !wantSafe)
			}
		}
	}
}

func TestEvaluate_InvalidNeverSafe(t *testing.T) {
	for d := Slot(1); d <= NumBarrels; d++ {
		if Evaluate(SlotInvalid, d).Safe {
			t.Errorf("Evaluate(invalid, %v) should never be safe", d)
		}
		if Evaluate(d, SlotInvalid).Safe {
			t.Errorf("Evaluate(%v, invalid) should never be safe", d)
		}
	}
}

func TestWinner(t *testing.T) {
	if got := Winner(true); got != RoleDodger {
		t.Errorf("Winner(safe) = %v, want dodger", got)
	}
	if got := Winner(false); got != RoleShooter {
		t.Errorf("Winner(hit) = %v, want shooter", got)
	}
}

func TestEncodeSlot(t *testing.T) {
	cases := []struct {
		slot Slot
		want string
	}{
		{1, "1"},
		{2, "2"},
		{3, "3"},
	}
	for _, c := range cases {
		if got := string(EncodeSlot(c.slot)); got != c.want {
			t.Errorf("EncodeSlot(%v) = %q, want %q", c.slot, got, c.want)
		}
	}
}

func TestDecodeSlot(t *testing.T) {
	cases := []struct {
		payload string
		want    Slot
	}{
		{"1", 1},
		{"2", 2},
		{"3", 3},
		{"", SlotInvalid},
		{"0", SlotInvalid},
		{"4", SlotInvalid},
		{"x", SlotInvalid},
		{"12", SlotInvalid},
		{" 1", SlotInvalid},
	}
	for _, c := range cases {
		if got := DecodeSlot([]byte(c.payload)); got != c.want {
			t.Errorf("DecodeSlot(%q) = %v, want %v", c.payload, got, c.want)
		}
	}
}

func TestDecodeSlot_InvalidDistinctFromUnset(t *testing.T) {
	if DecodeSlot([]byte("garbage")) == SlotUnset {
		t.Error("a malformed payload must not decode to the unset value")
	}
}

func TestRole_Opponent(t *testing.T) {
	if RoleShooter.Opponent() != RoleDodger || RoleDodger.Opponent() != RoleShooter {
		t.Error("Opponent should swap roles")
	}
}
