package engine

import (
	"testing"

	"github.com/wfunc/barrelduel/duel"
)

// playRound feeds one full round of choices to a session in the order the
// role experiences them, returning the session while the result is showing.
func playRound(t *testing.T, s Session, shooter, dodger duel.Slot) Session {
	t.Helper()

	if s.Role == duel.RoleShooter {
		s, _ = Step(s, Event{Kind: EventDelivery, Slot: dodger})
		if s.Phase != PhaseAwaitLocal {
			t.Fatalf("Shooter should await local input after delivery, got %v", s.Phase)
		}
		s, _ = Step(s, Event{Kind: EventSlotSelected, Slot: shooter})
	} else {
		s, _ = Step(s, Event{Kind: EventSlotSelected, Slot: dodger})
		if s.Phase != PhaseAwaitRemote {
			t.Fatalf("Dodger should await the shot after selecting, got %v", s.Phase)
		}
		s, _ = Step(s, Event{Kind: EventDelivery, Slot: shooter})
	}

	if s.Phase != PhaseShowResult {
		t.Fatalf("Expected show_result after both choices, got %v", s.Phase)
	}
	return s
}

func TestInitialPhasePerRole(t *testing.T) {
	if s := NewSession(duel.RoleShooter); s.Phase != PhaseAwaitRemote {
		t.Errorf("Shooter should start waiting for the dodger, got %v", s.Phase)
	}
	if s := NewSession(duel.RoleDodger); s.Phase != PhaseAwaitLocal {
		t.Errorf("Dodger should start with its own selection, got %v", s.Phase)
	}
}

func TestSurvivalPath_FiveSafeRounds(t *testing.T) {
	for _, role := range []duel.Role{duel.RoleShooter, duel.RoleDodger} {
		s := NewSession(role)
		pairs := [][2]duel.Slot{{1, 1}, {2, 2}, {3, 3}, {1, 1}, {2, 2}}

		for i, p := range pairs {
			s = playRound(t, s, p[0], p[1])
			if !s.LastRoundSafe {
				t.Fatalf("[%v] Round %d should be safe", role, i+1)
			}
			s, _ = Step(s, Event{Kind: EventDisplayElapsed})
		}

		if s.Phase != PhaseGameOver {
			t.Fatalf("[%v] Expected game over after surviving 5 rounds, got %v", role, s.Phase)
		}
		if s.Round != duel.MaxRounds {
			t.Errorf("[%v] Round should stay at %d, got %d", role, duel.MaxRounds, s.Round)
		}
		if !s.LastRoundSafe {
			t.Errorf("[%v] Terminal round should be safe", role)
		}
		if w := s.Snapshot().Winner; w != duel.RoleDodger {
			t.Errorf("[%v] Dodger should win the survival path, got %v", role, w)
		}
	}
}

func TestFirstMismatchEndsGame(t *testing.T) {
	for _, role := range []duel.Role{duel.RoleShooter, duel.RoleDodger} {
		s := NewSession(role)

		s = playRound(t, s, 1, 1)
		s, _ = Step(s, Event{Kind: EventDisplayElapsed})
		if s.Round != 2 {
			t.Fatalf("[%v] Expected round 2 after a safe round, got %d", role, s.Round)
		}

		s = playRound(t, s, 2, 3)
		if s.LastRoundSafe {
			t.Fatalf("[%v] Mismatched slots must not be safe", role)
		}
		if !s.IsOver {
			t.Fatalf("[%v] A single mismatch must end the game", role)
		}

		s, _ = Step(s, Event{Kind: EventDisplayElapsed})
		if s.Phase != PhaseGameOver {
			t.Fatalf("[%v] Expected game over after the hit, got %v", role, s.Phase)
		}
		if s.Round != 2 {
			t.Errorf("[%v] Round must never advance past the terminal round, got %d", role, s.Round)
		}
		if w := s.Snapshot().Winner; w != duel.RoleShooter {
			t.Errorf("[%v] Shooter should win on a hit, got %v", role, w)
		}
	}
}

func TestMalformedDeliveryScoresAsHit(t *testing.T) {
	// An empty payload decodes to the invalid slot; it is accepted as the
	// dodger's "choice" and can never match, so the round is a hit.
	s := NewSession(duel.RoleShooter)

	s, _ = Step(s, Event{Kind: EventDelivery, Slot: duel.DecodeSlot(nil)})
	if s.Phase != PhaseAwaitLocal {
		t.Fatalf("Invalid delivery should still advance the shooter, got %v", s.Phase)
	}
	if s.DodgerSlot != duel.SlotInvalid {
		t.Fatalf("Stored remote slot should be invalid, got %v", s.DodgerSlot)
	}

	s, _ = Step(s, Event{Kind: EventSlotSelected, Slot: 2})
	if s.LastRoundSafe {
		t.Error("A round against an invalid slot must never be safe")
	}
	if !s.IsOver {
		t.Error("A round against an invalid slot must end the game")
	}
}

func TestRestartIdempotence(t *testing.T) {
	s := NewSession(duel.RoleDodger)
	s = playRound(t, s, 1, 2)
	s, _ = Step(s, Event{Kind: EventDisplayElapsed})
	if s.Phase != PhaseGameOver {
		t.Fatalf("Setup failed: expected game over, got %v", s.Phase)
	}

	for i := 0; i < 3; i++ {
		restarted, _ := Step(s, Event{Kind: EventRestart})
		if restarted != NewSession(duel.RoleDodger) {
			t.Fatalf("Restart %d should reset to the initial session, got %+v", i, restarted)
		}
	}
}

func TestRestartOnlyFromGameOver(t *testing.T) {
	s := NewSession(duel.RoleShooter)
	s, _ = Step(s, Event{Kind: EventDelivery, Slot: 1})

	next, _ := Step(s, Event{Kind: EventRestart})
	if next != s {
		t.Error("Restart mid-round should be ignored")
	}
}

func TestOutOfPhaseEventsIgnored(t *testing.T) {
	s := NewSession(duel.RoleShooter)

	// Local input while waiting for the dodger does nothing.
	next, eff := Step(s, Event{Kind: EventSlotSelected, Slot: 1})
	if next != s || eff.SendPayload != nil {
		t.Error("Selection while awaiting the peer should be ignored")
	}

	// Display timer firing outside show_result does nothing.
	next, _ = Step(s, Event{Kind: EventDisplayElapsed})
	if next != s {
		t.Error("Display elapse outside show_result should be ignored")
	}

	// A stray delivery while the dodger is picking does nothing.
	d := NewSession(duel.RoleDodger)
	next, _ = Step(d, Event{Kind: EventDelivery, Slot: 2})
	if next != d {
		t.Error("Delivery while awaiting local input should be ignored")
	}
}

func TestInvalidLocalSelectionIgnored(t *testing.T) {
	s := NewSession(duel.RoleDodger)

	next, eff := Step(s, Event{Kind: EventSlotSelected, Slot: duel.SlotUnset})
	if next != s || eff.SendPayload != nil {
		t.Error("An unset local selection should be ignored")
	}
	next, _ = Step(s, Event{Kind: EventSlotSelected, Slot: 7})
	if next != s {
		t.Error("An out-of-range local selection should be ignored")
	}
}

func TestSelectionEmitsEncodedSend(t *testing.T) {
	s := NewSession(duel.RoleDodger)

	_, eff := Step(s, Event{Kind: EventSlotSelected, Slot: 3})
	if string(eff.SendPayload) != "3" {
		t.Errorf("Expected payload %q, got %q", "3", eff.SendPayload)
	}
}

func TestPrompt_ResultStringsPerRole(t *testing.T) {
	shooter := playRound(t, NewSession(duel.RoleShooter), 1, 1)
	if got := shooter.Snapshot().Prompt(); got != "Round Safe" {
		t.Errorf("Shooter safe result should read %q, got %q", "Round Safe", got)
	}

	dodger := playRound(t, NewSession(duel.RoleDodger), 2, 2)
	if got := dodger.Snapshot().Prompt(); got != "Safe!" {
		t.Errorf("Dodger safe result should read %q, got %q", "Safe!", got)
	}

	shooter = playRound(t, NewSession(duel.RoleShooter), 1, 3)
	if got := shooter.Snapshot().Prompt(); got != "Dodger Hit!" {
		t.Errorf("Shooter hit result should read %q, got %q", "Dodger Hit!", got)
	}

	dodger = playRound(t, NewSession(duel.RoleDodger), 3, 1)
	if got := dodger.Snapshot().Prompt(); got != "You Were Hit!" {
		t.Errorf("Dodger hit result should read %q, got %q", "You Were Hit!", got)
	}
}

func TestRoundAdvanceClearsSlots(t *testing.T) {
	s := NewSession(duel.RoleShooter)
	s = playRound(t, s, 2, 2)
	s, _ = Step(s, Event{Kind: EventDisplayElapsed})

	if s.Round != 2 {
		t.Fatalf("Expected round 2, got %d", s.Round)
	}
	if s.ShooterSlot != duel.SlotUnset || s.DodgerSlot != duel.SlotUnset {
		t.Error("Both slots should be cleared at the start of the next round")
	}
}
