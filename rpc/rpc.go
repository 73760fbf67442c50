package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/barrelduel/logger"
	"github.com/wfunc/barrelduel/models"
	"github.com/wfunc/barrelduel/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller
// through the net/rpc package before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// DuelService exposes duel statistics over net/rpc.
type DuelService struct {
	stats *services.StatsService
}

func NewDuelService(stats *services.StatsService) *DuelService {
	return &DuelService{stats: stats}
}

type GetDeviceStatsArgs struct {
	DeviceID int64
}

type GetDeviceStatsReply struct {
	Stats *models.DeviceStats
}

// GetDeviceStats follows the net/rpc signature: exported method, exported
// arguments, second argument a pointer, error return.
func (ds *DuelService) GetDeviceStats(args *GetDeviceStatsArgs, reply *GetDeviceStatsReply) error {
	stats, err := ds.stats.GetDeviceStats(args.DeviceID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type GetDuelArgs struct {
	MatchID string
}

type GetDuelReply struct {
	Record *models.DuelRecord
}

func (ds *DuelService) GetDuel(args *GetDuelArgs, reply *GetDuelReply) error {
	record, err := ds.stats.GetDuel(args.MatchID)
	if err != nil {
		return err
	}
	reply.Record = record
	return nil
}
