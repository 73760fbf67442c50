// services/stats_service.go
package services

import (
	"fmt"

	"github.com/wfunc/barrelduel/models"
	"github.com/wfunc/barrelduel/persistence"
)

// StatsService sits between the relay and the store: it records finished
// duels and answers stats queries.
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// RecordDuel persists a finished duel. Implements match.Recorder.
func (s *StatsService) RecordDuel(record *models.DuelRecord) error {
	if record.MatchID == "" {
		return fmt.Errorf("duel record missing match id")
	}
	return s.db.RecordDuelResult(record)
}

// RegisterDevice makes sure a device row exists before it plays.
func (s *StatsService) RegisterDevice(deviceID int64, name string) error {
	if name == "" {
		name = fmt.Sprintf("device-%d", deviceID)
	}
	return s.db.UpsertDevice(deviceID, name)
}

// GetDeviceStats 获取设备战绩
func (s *StatsService) GetDeviceStats(deviceID int64) (*models.DeviceStats, error) {
	return s.db.GetDeviceStats(deviceID)
}

// GetDuel returns the stored record of one match.
func (s *StatsService) GetDuel(matchID string) (*models.DuelRecord, error) {
	return s.db.LoadDuelRecord(matchID)
}
