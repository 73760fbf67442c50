// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormDevice 设备模型
type GormDevice struct {
	gorm.Model
	DeviceID int64  `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	Duels    int    `gorm:"default:0"`
	Wins     int    `gorm:"default:0"`
	Losses   int    `gorm:"default:0"`
}

// GormDuelRecord 对决记录模型
type GormDuelRecord struct {
	gorm.Model
	MatchID         string                 `gorm:"uniqueIndex;not null"`
	ShooterDeviceID int64                  `gorm:"index;not null"`
	DodgerDeviceID  int64                  `gorm:"index;not null"`
	Rounds          map[string]interface{} `gorm:"type:jsonb"`
	RoundsPlayed    int                    `gorm:"default:0"`
	LastRoundSafe   bool                   `gorm:"default:false"`
	Winner          string                 `gorm:"not null"`
	Abandoned       bool                   `gorm:"default:false"`
	Duration        int                    `gorm:"default:0"` // 对决时长(秒)
}
