package server

import (
	"encoding/json"
	"net/http"
	netrpc "net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/barrelduel/config"
	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/logger"
	"github.com/wfunc/barrelduel/match"
	"github.com/wfunc/barrelduel/monitor"
	"github.com/wfunc/barrelduel/network"
	"github.com/wfunc/barrelduel/persistence"
	duelrpc "github.com/wfunc/barrelduel/rpc"
	"github.com/wfunc/barrelduel/services"
	"github.com/wfunc/barrelduel/session"
	"github.com/wfunc/barrelduel/timer"
)

// DuelServer is the relay standing in for the point-to-point radio link:
// it pairs a shooter with a dodger and forwards their choice packets. It
// adds no reliability of its own: no acks, no retries, no delivery
// guarantees beyond what the sockets provide.
type DuelServer struct {
	addr           string
	upgrader       websocket.Upgrader
	matchManager   *match.Manager
	sessionManager *session.Manager
	statsService   *services.StatsService
	rpcServer      *duelrpc.Server
	monitor        *monitor.Monitor
	timers         *timer.Manager
	idleTimeout    time.Duration
	shutdownChan   chan struct{}
}

func NewDuelServer(cfg *config.Config, db persistence.Database) *DuelServer {
	s := &DuelServer{
		addr:           cfg.Server.HTTPAddress,
		sessionManager: session.NewManager(),
		statsService:   services.NewStatsService(db),
		monitor:        monitor.NewMonitor("barrelduel"),
		timers:         timer.NewManager(),
		idleTimeout:    cfg.Match.IdleTimeout,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.matchManager = match.NewManager(s.statsService)

	rpcServer, err := duelrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	duelService := duelrpc.NewDuelService(s.statsService)
	netrpc.Register(duelService)

	s.monitor.StartServer(cfg.Server.MetricsAddress)

	// Sweep idle matches on a coarse schedule.
	if s.idleTimeout > 0 {
		s.timers.Add(time.Minute, time.Minute, func() {
			s.matchManager.AbandonIdle(s.idleTimeout)
			s.monitor.SetActiveMatches(s.matchManager.CountActive())
		})
	}

	return s
}

func (s *DuelServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Duel relay listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *DuelServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *DuelServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *DuelServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncConnectedDevices()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.matchManager.SessionGone(sess)
		s.monitor.DecConnectedDevices()
		s.monitor.SetActiveMatches(s.matchManager.CountActive())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *DuelServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeJoinDuel:
		s.handleJoinDuel(sess, packet)
	case network.MsgTypeChoice:
		s.handleChoice(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *DuelServer) handleJoinDuel(sess *session.Session, packet *network.Packet) {
	var req network.JoinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed join request")
		return
	}

	var role duel.Role
	switch req.Role {
	case duel.RoleShooter.String():
		role = duel.RoleShooter
	case duel.RoleDodger.String():
		role = duel.RoleDodger
	default:
		s.sendError(sess, "role must be shooter or dodger")
		return
	}

	if sess.MatchID() != "" || sess.Role != 0 {
		s.sendError(sess, "already joined")
		return
	}

	sess.Role = role
	sess.DeviceID = req.DeviceID

	if err := s.statsService.RegisterDevice(req.DeviceID, ""); err != nil {
		logger.Log.Warnf("Failed to register device %d: %v", req.DeviceID, err)
	}

	if m := s.matchManager.Enqueue(sess); m != nil {
		s.monitor.SetActiveMatches(s.matchManager.CountActive())
	} else {
		logger.Log.Infof("Session %s waiting for a %s", sess.GetID(), role.Opponent())
	}
}

func (s *DuelServer) handleChoice(sess *session.Session, packet *network.Packet) {
	start := time.Now()

	matchID := sess.MatchID()
	if matchID == "" {
		logger.Log.Warnf("Session %s sent a choice but is not in a match", sess.GetID())
		return
	}

	m, exists := s.matchManager.Get(matchID)
	if !exists {
		logger.Log.Errorf("Match %s not found for session %s", matchID, sess.GetID())
		return
	}

	sess.Touch()
	if err := m.Relay(sess, packet.Data); err != nil {
		logger.Log.Warnf("Relay failed for session %s: %v", sess.GetID(), err)
		return
	}

	s.monitor.IncChoicesRelayed()
	s.monitor.ObserveRelayLatency(time.Since(start))

	if m.GetStatus() != match.StatusActive {
		s.monitor.IncDuelsCompleted()
		s.monitor.SetActiveMatches(s.matchManager.CountActive())
	}
}

func (s *DuelServer) sendError(sess *session.Session, msg string) {
	if err := sess.Send(network.MsgTypeError, []byte(msg)); err != nil {
		logger.Log.Warnf("Failed to send error to session %s: %v", sess.GetID(), err)
	}
}
