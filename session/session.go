// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/network"
)

// Session is one device's connection to the relay, tagged with the role it
// announced at join time.
type Session struct {
	ID        string
	Conn      network.Connection
	DeviceID  int64
	Role      duel.Role
	CreatedAt time.Time

	matchID    string
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// SetMatchID tags the session with the match it was paired into. The write
// comes from the pairing peer's connection goroutine, so access is guarded.
func (s *Session) SetMatchID(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.matchID = id
}

// MatchID returns the match this session is in, or "" while unpaired.
func (s *Session) MatchID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.matchID
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks all connected devices.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetByDeviceID returns every session a device currently has open.
func (m *Manager) GetByDeviceID(deviceID int64) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.DeviceID == deviceID {
			result = append(result, session)
		}
	}
	return result
}
