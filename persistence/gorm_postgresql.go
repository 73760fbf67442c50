// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormDevice{}, &models.GormDuelRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// RecordDuelResult 保存对决记录并更新双方设备战绩
func (p *GormPostgreSQL) RecordDuelResult(record *models.DuelRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormDuelRecord{
			MatchID:         record.MatchID,
			ShooterDeviceID: record.ShooterDeviceID,
			DodgerDeviceID:  record.DodgerDeviceID,
			Rounds:          roundsToJSONB(record.Rounds),
			RoundsPlayed:    record.RoundsPlayed,
			LastRoundSafe:   record.LastRoundSafe,
			Winner:          record.Winner,
			Abandoned:       record.Abandoned,
			Duration:        record.Duration,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if record.Abandoned {
			// No winner to credit.
			return nil
		}

		winnerID, loserID := record.DodgerDeviceID, record.ShooterDeviceID
		if record.Winner == duel.RoleShooter.String() {
			winnerID, loserID = record.ShooterDeviceID, record.DodgerDeviceID
		}

		if err := bumpDevice(tx, winnerID, true); err != nil {
			return err
		}
		return bumpDevice(tx, loserID, false)
	})
}

func bumpDevice(tx *gorm.DB, deviceID int64, won bool) error {
	var device models.GormDevice
	err := tx.Where("device_id = ?", deviceID).First(&device).Error
	if err == gorm.ErrRecordNotFound {
		device = models.GormDevice{
			DeviceID: deviceID,
			Name:     fmt.Sprintf("device-%d", deviceID),
		}
		if err := tx.Create(&device).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"duels": gorm.Expr("duels + 1"),
	}
	if won {
		updates["wins"] = gorm.Expr("wins + 1")
	} else {
		updates["losses"] = gorm.Expr("losses + 1")
	}
	return tx.Model(&device).Updates(updates).Error
}

// LoadDuelRecord 加载对决记录
func (p *GormPostgreSQL) LoadDuelRecord(matchID string) (*models.DuelRecord, error) {
	var row models.GormDuelRecord
	if err := p.db.Where("match_id = ?", matchID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	record := &models.DuelRecord{
		MatchID:         row.MatchID,
		ShooterDeviceID: row.ShooterDeviceID,
		DodgerDeviceID:  row.DodgerDeviceID,
		Rounds:          roundsFromJSONB(row.Rounds),
		RoundsPlayed:    row.RoundsPlayed,
		LastRoundSafe:   row.LastRoundSafe,
		Winner:          row.Winner,
		Abandoned:       row.Abandoned,
		StartedAt:       row.CreatedAt,
		Duration:        row.Duration,
	}
	return record, nil
}

// UpsertDevice 注册或更新设备
func (p *GormPostgreSQL) UpsertDevice(deviceID int64, name string) error {
	var device models.GormDevice
	err := p.db.Where("device_id = ?", deviceID).First(&device).Error

	if err == gorm.ErrRecordNotFound {
		device = models.GormDevice{DeviceID: deviceID, Name: name}
		return p.db.Create(&device).Error
	} else if err != nil {
		return err
	}

	device.Name = name
	return p.db.Save(&device).Error
}

// GetDeviceStats 获取设备战绩
func (p *GormPostgreSQL) GetDeviceStats(deviceID int64) (*models.DeviceStats, error) {
	var device models.GormDevice
	if err := p.db.Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	stats := &models.DeviceStats{
		TotalDuels: device.Duels,
		Wins:       device.Wins,
		Losses:     device.Losses,
	}

	// 统计命中与生还场次
	err := p.db.Raw(`
        SELECT
            COALESCE(SUM(CASE WHEN last_round_safe = false THEN 1 ELSE 0 END), 0) as hits,
            COALESCE(SUM(CASE WHEN last_round_safe = true THEN 1 ELSE 0 END), 0) as survivals
        FROM gorm_duel_records
        WHERE (shooter_device_id = ? OR dodger_device_id = ?) AND abandoned = false`,
		deviceID, deviceID,
	).Row().Scan(&stats.Hits, &stats.Survivals)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func roundsToJSONB(rounds []models.RoundResult) map[string]interface{} {
	data, _ := json.Marshal(rounds)
	var generic []interface{}
	_ = json.Unmarshal(data, &generic)
	return map[string]interface{}{"rounds": generic}
}

func roundsFromJSONB(blob map[string]interface{}) []models.RoundResult {
	data, err := json.Marshal(blob["rounds"])
	if err != nil {
		return nil
	}
	var rounds []models.RoundResult
	_ = json.Unmarshal(data, &rounds)
	return rounds
}
