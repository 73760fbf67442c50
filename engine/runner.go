// engine/runner.go
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/mailbox"
	"github.com/wfunc/barrelduel/timer"
)

const (
	// DefaultDisplayInterval is how long the round result stays on screen.
	DefaultDisplayInterval = 1500 * time.Millisecond
	// DefaultPollInterval is how often the runner drains the mailbox.
	DefaultPollInterval = 20 * time.Millisecond
)

// Runner owns a Session and drives it from a single goroutine. The only
// data crossing in from another goroutine is the mailbox content; input
// events arrive on a channel and the result display is a timed phase on the
// injected clock, so nothing here blocks except the select itself.
type Runner struct {
	session  Session
	sender   Sender
	mail     *mailbox.Mailbox
	input    InputSource
	clock    timer.Clock
	log      *zap.SugaredLogger
	notify   func(Snapshot)
	display  time.Duration
	poll     time.Duration
	displayC <-chan time.Time

	closeChan chan struct{}
	doneChan  chan struct{}
}

// RunnerOptions configures a Runner. Zero durations fall back to defaults;
// Notify may be nil.
type RunnerOptions struct {
	Role            duel.Role
	Sender          Sender
	Mailbox         *mailbox.Mailbox
	Input           InputSource
	Clock           timer.Clock
	Logger          *zap.SugaredLogger
	Notify          func(Snapshot)
	DisplayInterval time.Duration
	PollInterval    time.Duration
}

// NewRunner wires a runner. Run must be called to start it.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Clock == nil {
		opts.Clock = timer.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.DisplayInterval <= 0 {
		opts.DisplayInterval = DefaultDisplayInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Runner{
		session:   NewSession(opts.Role),
		sender:    opts.Sender,
		mail:      opts.Mailbox,
		input:     opts.Input,
		clock:     opts.Clock,
		log:       opts.Logger,
		notify:    opts.Notify,
		display:   opts.DisplayInterval,
		poll:      opts.PollInterval,
		closeChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Run is the control loop. It returns when Stop is called or the input
// source closes its channel.
func (r *Runner) Run() {
	defer close(r.doneChan)

	r.publish()
	pollC := r.clock.After(r.poll)

	for {
		select {
		case <-r.closeChan:
			return

		case ev, ok := <-r.input.Events():
			if !ok {
				return
			}
			if ev.Restart {
				r.apply(Event{Kind: EventRestart})
			} else {
				r.apply(Event{Kind: EventSlotSelected, Slot: ev.Slot})
			}

		case <-pollC:
			if slot, ok := r.mail.Take(); ok {
				r.apply(Event{Kind: EventDelivery, Slot: slot})
			}
			pollC = r.clock.After(r.poll)

		case <-r.displayC:
			r.displayC = nil
			r.apply(Event{Kind: EventDisplayElapsed})
		}
	}
}

// Stop asks the loop to exit and waits for it.
func (r *Runner) Stop() {
	close(r.closeChan)
	<-r.doneChan
}

func (r *Runner) apply(ev Event) {
	prev := r.session
	next, eff := Step(prev, ev)

	if eff.SendPayload != nil {
		if r.sender.Connected() {
			if !r.sender.Send(eff.SendPayload) {
				r.log.Warnf("Choice send failed, peer will not see round %d", next.Round)
			}
		} else {
			// Dropped silently on the wire; the peer stalls in its waiting
			// phase with no timeout.
			r.log.Warnf("Not connected, choice for round %d dropped", next.Round)
		}
	}

	if next == prev {
		return
	}
	r.session = next

	if next.Phase == PhaseShowResult && prev.Phase != PhaseShowResult {
		r.displayC = r.clock.After(r.display)
	}

	r.log.Debugf("Phase %s -> %s (round %d)", prev.Phase, next.Phase, next.Round)
	r.publish()
}

func (r *Runner) publish() {
	if r.notify != nil {
		r.notify(r.session.Snapshot())
	}
}
