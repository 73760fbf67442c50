// match/manager.go
package match

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/logger"
	"github.com/wfunc/barrelduel/session"
)

// Manager pairs joining devices and tracks live matches. Matchmaking is
// first-come first-served per role: the oldest waiting shooter is paired
// with the oldest waiting dodger.
type Manager struct {
	waitingShooters []*session.Session
	waitingDodgers  []*session.Session
	matches         map[string]*Match
	recorder        Recorder
	mutex           sync.Mutex
}

func NewManager(recorder Recorder) *Manager {
	return &Manager{
		matches:  make(map[string]*Match),
		recorder: recorder,
	}
}

// Enqueue adds a session to its role's queue and pairs immediately when the
// opposite role is waiting. Returns the created match, or nil if the
// session is queued.
func (m *Manager) Enqueue(sess *session.Session) *Match {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var shooter, dodger *session.Session
	if sess.Role == duel.RoleShooter {
		if len(m.waitingDodgers) == 0 {
			m.waitingShooters = append(m.waitingShooters, sess)
			return nil
		}
		shooter = sess
		dodger = m.waitingDodgers[0]
		m.waitingDodgers = m.waitingDodgers[1:]
	} else {
		if len(m.waitingShooters) == 0 {
			m.waitingDodgers = append(m.waitingDodgers, sess)
			return nil
		}
		dodger = sess
		shooter = m.waitingShooters[0]
		m.waitingShooters = m.waitingShooters[1:]
	}

	matchID := uuid.New().String()
	match := NewMatch(matchID, shooter, dodger, m.recorder)
	m.matches[matchID] = match

	logger.Log.Infof("Match %s paired: shooter=%d dodger=%d",
		matchID, shooter.DeviceID, dodger.DeviceID)
	return match
}

// Get returns a live match by id.
func (m *Manager) Get(matchID string) (*Match, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	match, exists := m.matches[matchID]
	return match, exists
}

// CountActive returns how many matches are still running.
func (m *Manager) CountActive() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	count := 0
	for _, match := range m.matches {
		if match.GetStatus() == StatusActive {
			count++
		}
	}
	return count
}

// SessionGone removes a departing session from the waiting queues, and if
// it was in a match, notifies the peer and drops the match.
func (m *Manager) SessionGone(sess *session.Session) {
	m.mutex.Lock()
	m.waitingShooters = removeSession(m.waitingShooters, sess)
	m.waitingDodgers = removeSession(m.waitingDodgers, sess)
	matchID := sess.MatchID()
	match, inMatch := m.matches[matchID]
	if inMatch {
		delete(m.matches, matchID)
	}
	m.mutex.Unlock()

	if inMatch {
		match.PeerLeft(sess)
	}
}

// AbandonIdle closes every active match with no relayed choice for at least
// maxIdle. Run periodically from a timer task.
func (m *Manager) AbandonIdle(maxIdle time.Duration) {
	m.mutex.Lock()
	var idle []*Match
	for id, match := range m.matches {
		if match.GetStatus() == StatusActive && match.IdleFor() >= maxIdle {
			idle = append(idle, match)
			delete(m.matches, id)
		}
	}
	m.mutex.Unlock()

	for _, match := range idle {
		logger.Log.Infof("Match %s abandoned after %v idle", match.ID, maxIdle)
		match.Abandon()
	}
}

func removeSession(queue []*session.Session, sess *session.Session) []*session.Session {
	for i, s := range queue {
		if s == sess {
			return append(queue[:i], queue[i+1:]...)
		}
	}
	return queue
}
