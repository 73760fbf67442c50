// client/main.go is the device peer: it dials the relay, takes barrel
// choices from stdin, and runs the duel engine exactly as a handheld
// would.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/engine"
	"github.com/wfunc/barrelduel/mailbox"
	"github.com/wfunc/barrelduel/network"
)

type stdinInput struct {
	events chan engine.InputEvent
}

func newStdinInput() *stdinInput {
	s := &stdinInput{events: make(chan engine.InputEvent, 4)}
	go s.readLoop()
	return s
}

func (s *stdinInput) Events() <-chan engine.InputEvent { return s.events }

// readLoop is the stand-in for the touch screen: it debounces nothing
// because line input already arrives one action at a time.
func (s *stdinInput) readLoop() {
	defer close(s.events)

	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		switch text := strings.TrimSpace(line); text {
		case "1", "2", "3":
			s.events <- engine.InputEvent{Slot: duel.Slot(text[0] - '0')}
		case "r", "restart":
			s.events <- engine.InputEvent{Restart: true}
		case "q", "quit":
			return
		case "":
		default:
			fmt.Printf("Unknown input %q (use 1/2/3, restart, quit)\n", text)
		}
	}
}

func render(snap engine.Snapshot) {
	fmt.Printf("[round %d/%d] %s\n", snap.Round, snap.MaxRounds, snap.Prompt())
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "relay websocket address")
	roleFlag := flag.String("role", "", "shooter or dodger")
	deviceID := flag.Int64("device", 0, "device id")
	flag.Parse()

	var role duel.Role
	switch *roleFlag {
	case "shooter":
		role = duel.RoleShooter
	case "dodger":
		role = duel.RoleDodger
	default:
		fmt.Fprintln(os.Stderr, "-role must be shooter or dodger")
		os.Exit(1)
	}

	zlog, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	log := zlog.Sugar()

	// The mailbox is the only thing the receive callback may touch.
	mail := &mailbox.Mailbox{}
	channel, err := network.DialDuel(*addr, role, *deviceID, func(payload []byte) {
		mail.Deliver(duel.DecodeSlot(payload))
	}, log)
	if err != nil {
		log.Fatalf("Failed to reach relay: %v", err)
	}
	defer channel.Close()

	log.Infof("Joined as %s (device %d), waiting for an opponent", role, *deviceID)

	runner := engine.NewRunner(engine.RunnerOptions{
		Role:    role,
		Sender:  channel,
		Mailbox: mail,
		Input:   newStdinInput(),
		Logger:  log,
		Notify:  render,
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		channel.Close()
		os.Exit(0)
	}()

	runner.Run()
}
