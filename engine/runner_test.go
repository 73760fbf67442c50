package engine

import (
	"testing"
	"time"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/mailbox"
	"github.com/wfunc/barrelduel/timer"
)

// StubSender records sends and reports a configurable connection state.
type StubSender struct {
	connected bool
	sent      chan []byte
}

func NewStubSender(connected bool) *StubSender {
	return &StubSender{connected: connected, sent: make(chan []byte, 16)}
}

func (s *StubSender) Connected() bool { return s.connected }

func (s *StubSender) Send(payload []byte) bool {
	if !s.connected {
		return false
	}
	s.sent <- payload
	return true
}

// StubInput feeds scripted input events to a runner.
type StubInput struct {
	events chan InputEvent
}

func NewStubInput() *StubInput {
	return &StubInput{events: make(chan InputEvent, 16)}
}

func (s *StubInput) Events() <-chan InputEvent { return s.events }

func (s *StubInput) Select(slot duel.Slot) { s.events <- InputEvent{Slot: slot} }

func (s *StubInput) Restart() { s.events <- InputEvent{Restart: true} }

type runnerFixture struct {
	runner *Runner
	sender *StubSender
	input  *StubInput
	mail   *mailbox.Mailbox
	clock  *timer.Manual
	snaps  chan Snapshot
}

func newRunnerFixture(role duel.Role, connected bool) *runnerFixture {
	f := &runnerFixture{
		sender: NewStubSender(connected),
		input:  NewStubInput(),
		mail:   &mailbox.Mailbox{},
		clock:  timer.NewManual(time.Unix(0, 0)),
		snaps:  make(chan Snapshot, 256),
	}
	f.runner = NewRunner(RunnerOptions{
		Role:    role,
		Sender:  f.sender,
		Mailbox: f.mail,
		Input:   f.input,
		Clock:   f.clock,
		Notify:  func(s Snapshot) { f.snaps <- s },
	})
	go f.runner.Run()
	return f
}

// waitPhase keeps nudging the manual clock forward by one poll interval and
// draining snapshots until the wanted phase shows up. Nudging covers both
// mailbox polls and, cumulatively, the result-display interval.
func (f *runnerFixture) waitPhase(t *testing.T, want Phase) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case snap := <-f.snaps:
			if snap.Phase == want {
				return snap
			}
			continue
		default:
		}
		f.clock.Advance(DefaultPollInterval)
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for phase %v", want)
	return Snapshot{}
}

func (f *runnerFixture) waitSent(t *testing.T) []byte {
	t.Helper()
	select {
	case payload := <-f.sender.sent:
		return payload
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for a send")
		return nil
	}
}

func TestRunner_ShooterFullGame(t *testing.T) {
	f := newRunnerFixture(duel.RoleShooter, true)
	defer f.runner.Stop()

	f.waitPhase(t, PhaseAwaitRemote)

	// Dodger's choice arrives; a poll tick picks it up.
	f.mail.Deliver(2)
	f.waitPhase(t, PhaseAwaitLocal)

	// Shooter fires into a different barrel: hit, game over.
	f.input.Select(3)
	snap := f.waitPhase(t, PhaseShowResult)
	if snap.LastRoundSafe {
		t.Error("Mismatched slots should not be safe")
	}

	if payload := f.waitSent(t); string(payload) != "3" {
		t.Errorf("Expected sent payload %q, got %q", "3", payload)
	}

	snap = f.waitPhase(t, PhaseGameOver)
	if snap.Winner != duel.RoleShooter {
		t.Errorf("Shooter should win after a hit, got %v", snap.Winner)
	}
}

func TestRunner_SafeRoundAdvances(t *testing.T) {
	f := newRunnerFixture(duel.RoleShooter, true)
	defer f.runner.Stop()

	f.mail.Deliver(1)
	f.waitPhase(t, PhaseAwaitLocal)

	f.input.Select(1)
	snap := f.waitPhase(t, PhaseShowResult)
	if !snap.LastRoundSafe {
		t.Error("Matching slots should be safe")
	}
	f.waitSent(t)

	snap = f.waitPhase(t, PhaseAwaitRemote)
	if snap.Round != 2 {
		t.Errorf("Expected round 2 after a safe round, got %d", snap.Round)
	}
}

func TestRunner_DisconnectedSendIsDroppedButAdvances(t *testing.T) {
	f := newRunnerFixture(duel.RoleDodger, false)
	defer f.runner.Stop()

	f.waitPhase(t, PhaseAwaitLocal)

	// Selecting while disconnected drops the message silently but the
	// machine still moves on to waiting for the shot.
	f.input.Select(2)
	f.waitPhase(t, PhaseAwaitRemote)

	select {
	case payload := <-f.sender.sent:
		t.Fatalf("Nothing should have been sent while disconnected, got %q", payload)
	default:
	}
}

func TestRunner_MalformedPayloadDelivery(t *testing.T) {
	f := newRunnerFixture(duel.RoleShooter, true)
	defer f.runner.Stop()

	// Garbage on the wire still counts as the dodger's choice.
	f.mail.Deliver(duel.DecodeSlot([]byte("junk")))
	f.waitPhase(t, PhaseAwaitLocal)

	f.input.Select(1)
	snap := f.waitPhase(t, PhaseShowResult)
	if snap.LastRoundSafe {
		t.Error("A malformed peer choice must score as a hit")
	}
}

func TestRunner_RestartFromGameOver(t *testing.T) {
	f := newRunnerFixture(duel.RoleDodger, true)
	defer f.runner.Stop()

	f.waitPhase(t, PhaseAwaitLocal)
	f.input.Select(1)
	f.waitSent(t)
	f.waitPhase(t, PhaseAwaitRemote)

	f.mail.Deliver(3)
	f.waitPhase(t, PhaseShowResult)

	snap := f.waitPhase(t, PhaseGameOver)
	if snap.Winner != duel.RoleShooter {
		t.Errorf("Dodger was hit, shooter should win, got %v", snap.Winner)
	}

	f.input.Restart()
	snap = f.waitPhase(t, PhaseAwaitLocal)
	if snap.Round != 1 || snap.IsOver || snap.LastRoundSafe {
		t.Errorf("Restart should reset the session, got %+v", snap)
	}
}
