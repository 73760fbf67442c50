// match/match.go
package match

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/logger"
	"github.com/wfunc/barrelduel/models"
	"github.com/wfunc/barrelduel/network"
	"github.com/wfunc/barrelduel/session"
)

// Status 表示对局的生命周期状态
type Status int

const (
	StatusActive Status = iota + 1
	StatusComplete
	StatusAbandoned
)

var (
	ErrMatchNotActive = errors.New("match is not active")
	ErrNotParticipant = errors.New("session is not in this match")
)

// Match is one paired duel: exactly one shooter and one dodger. The relay
// forwards choice packets between them verbatim and, because it sees both
// choices, scores each round itself with the same rule the devices apply,
// so the stored record matches what the devices displayed.
type Match struct {
	ID      string
	Shooter *session.Session
	Dodger  *session.Session

	status      Status
	round       int
	shooterSlot duel.Slot
	dodgerSlot  duel.Slot
	rounds      []models.RoundResult
	startedAt   time.Time
	lastRelay   time.Time

	recorder Recorder
	mutex    sync.Mutex
}

// NewMatch pairs two sessions and notifies both devices that the link is up.
func NewMatch(id string, shooter, dodger *session.Session, recorder Recorder) *Match {
	now := time.Now()
	m := &Match{
		ID:        id,
		Shooter:   shooter,
		Dodger:    dodger,
		status:    StatusActive,
		round:     1,
		startedAt: now,
		lastRelay: now,
		recorder:  recorder,
	}

	shooter.SetMatchID(id)
	dodger.SetMatchID(id)

	m.notifyReady(shooter, dodger.DeviceID)
	m.notifyReady(dodger, shooter.DeviceID)

	return m
}

func (m *Match) notifyReady(to *session.Session, peerDevice int64) {
	data, _ := json.Marshal(network.MatchReady{MatchID: m.ID, PeerDeviceID: peerDevice})
	if err := to.Send(network.MsgTypeMatchReady, data); err != nil {
		logger.Log.Warnf("Failed to notify session %s of match %s: %v", to.GetID(), m.ID, err)
	}
}

// Relay forwards a choice packet from one participant to the other and
// feeds the server-side score. The payload is forwarded untouched even when
// it does not decode: the devices own the malformed-payload behavior.
//
// A choice arriving after a completed game opens the next one on the same
// pairing: the devices restart independently from their game-over screens
// and keep playing over the live link. Only an abandoned match refuses to
// relay.
func (m *Match) Relay(from *session.Session, payload []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.status == StatusAbandoned {
		return ErrMatchNotActive
	}
	if m.status == StatusComplete {
		m.rematchLocked()
	}

	to, role, err := m.peerOf(from)
	if err != nil {
		return err
	}

	if err := to.Send(network.MsgTypeChoice, payload); err != nil {
		// Fire and forget: the sender is not told.
		logger.Log.Warnf("Match %s: relay to session %s failed: %v", m.ID, to.GetID(), err)
	}
	m.lastRelay = time.Now()

	m.scoreChoice(role, duel.DecodeSlot(payload))
	return nil
}

func (m *Match) peerOf(from *session.Session) (*session.Session, duel.Role, error) {
	switch from {
	case m.Shooter:
		return m.Dodger, duel.RoleShooter, nil
	case m.Dodger:
		return m.Shooter, duel.RoleDodger, nil
	default:
		return nil, 0, ErrNotParticipant
	}
}

func (m *Match) scoreChoice(role duel.Role, slot duel.Slot) {
	if role == duel.RoleShooter {
		m.shooterSlot = slot
	} else {
		m.dodgerSlot = slot
	}

	if m.shooterSlot == duel.SlotUnset || m.dodgerSlot == duel.SlotUnset {
		return
	}

	outcome := duel.Evaluate(m.shooterSlot, m.dodgerSlot)
	m.rounds = append(m.rounds, models.RoundResult{
		Round:       m.round,
		ShooterSlot: m.shooterSlot,
		DodgerSlot:  m.dodgerSlot,
		Safe:        outcome.Safe,
	})

	if outcome.Over || (m.round >= duel.MaxRounds && outcome.Safe) {
		m.finishLocked(false)
		return
	}

	m.round++
	m.shooterSlot = duel.SlotUnset
	m.dodgerSlot = duel.SlotUnset
}

// rematchLocked resets the scoring state for a fresh game. The finished
// game's record has already been handed to the recorder. Caller holds the
// mutex.
func (m *Match) rematchLocked() {
	m.status = StatusActive
	m.round = 1
	m.shooterSlot = duel.SlotUnset
	m.dodgerSlot = duel.SlotUnset
	m.rounds = nil
	m.startedAt = time.Now()
}

// finishLocked closes out the match and hands the record to the recorder.
// Caller holds the mutex.
func (m *Match) finishLocked(abandoned bool) {
	if abandoned {
		m.status = StatusAbandoned
	} else {
		m.status = StatusComplete
	}

	lastSafe := false
	if n := len(m.rounds); n > 0 {
		lastSafe = m.rounds[n-1].Safe
	}

	record := &models.DuelRecord{
		MatchID:         m.ID,
		ShooterDeviceID: m.Shooter.DeviceID,
		DodgerDeviceID:  m.Dodger.DeviceID,
		Rounds:          m.rounds,
		RoundsPlayed:    len(m.rounds),
		LastRoundSafe:   lastSafe,
		Winner:          duel.Winner(lastSafe).String(),
		Abandoned:       abandoned,
		StartedAt:       m.startedAt,
		Duration:        int(time.Since(m.startedAt).Seconds()),
	}

	if m.recorder != nil {
		if err := m.recorder.RecordDuel(record); err != nil {
			logger.Log.Errorf("Failed to record duel %s: %v", m.ID, err)
		}
	}

	logger.Log.Infof("Match %s finished: winner=%s rounds=%d abandoned=%v",
		m.ID, record.Winner, record.RoundsPlayed, abandoned)
}

// PeerLeft tells the surviving participant its peer is gone and abandons
// the match if it was still running. The survivor's device simply loses its
// connected gate; any round it was mid-way through stalls.
func (m *Match) PeerLeft(leaver *session.Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	survivor, _, err := m.peerOf(leaver)
	if err != nil {
		return
	}

	if err := survivor.Send(network.MsgTypePeerLeft, nil); err != nil {
		logger.Log.Warnf("Match %s: failed to notify survivor: %v", m.ID, err)
	}

	if m.status == StatusActive {
		m.finishLocked(true)
	}
}

// GetStatus returns the lifecycle status.
func (m *Match) GetStatus() Status {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.status
}

// Round returns the round the relay believes is in progress.
func (m *Match) Round() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.round
}

// IdleFor reports how long ago the last choice was relayed.
func (m *Match) IdleFor() time.Duration {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return time.Since(m.lastRelay)
}

// Abandon force-finishes an idle match and notifies both devices.
func (m *Match) Abandon() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.status != StatusActive {
		return
	}

	m.Shooter.Send(network.MsgTypePeerLeft, nil)
	m.Dodger.Send(network.MsgTypePeerLeft, nil)
	m.finishLocked(true)
}
