// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/barrelduel/models"
)

// Database 数据库接口
type Database interface {
	// RecordDuelResult stores a finished duel and updates both devices'
	// tallies atomically.
	RecordDuelResult(record *models.DuelRecord) error
	LoadDuelRecord(matchID string) (*models.DuelRecord, error)
	UpsertDevice(deviceID int64, name string) error
	GetDeviceStats(deviceID int64) (*models.DeviceStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
