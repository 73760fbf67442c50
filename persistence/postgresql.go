// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/barrelduel/duel"
	"github.com/wfunc/barrelduel/models"
)

// PostgreSQL 原生SQL实现，不依赖ORM
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS devices (
            id SERIAL PRIMARY KEY,
            device_id BIGINT UNIQUE NOT NULL,
            name VARCHAR(255) NOT NULL,
            duels INT DEFAULT 0,
            wins INT DEFAULT 0,
            losses INT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS duel_records (
            id SERIAL PRIMARY KEY,
            match_id VARCHAR(255) UNIQUE NOT NULL,
            shooter_device_id BIGINT NOT NULL,
            dodger_device_id BIGINT NOT NULL,
            rounds JSONB NOT NULL,
            rounds_played INT NOT NULL,
            last_round_safe BOOLEAN NOT NULL,
            winner VARCHAR(20) NOT NULL,
            abandoned BOOLEAN DEFAULT FALSE,
            duration INT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_devices_device_id ON devices(device_id);
        CREATE INDEX IF NOT EXISTS idx_duel_records_match_id ON duel_records(match_id);
        CREATE INDEX IF NOT EXISTS idx_duel_records_shooter ON duel_records(shooter_device_id);
        CREATE INDEX IF NOT EXISTS idx_duel_records_dodger ON duel_records(dodger_device_id);
    `)

	return err
}

// RecordDuelResult 保存对决记录并更新双方设备战绩
func (p *PostgreSQL) RecordDuelResult(record *models.DuelRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roundsJSON, err := json.Marshal(record.Rounds)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO duel_records
            (match_id, shooter_device_id, dodger_device_id, rounds,
             rounds_played, last_round_safe, winner, abandoned, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.MatchID, record.ShooterDeviceID, record.DodgerDeviceID,
		roundsJSON, record.RoundsPlayed, record.LastRoundSafe,
		record.Winner, record.Abandoned, record.Duration)
	if err != nil {
		return err
	}

	if !record.Abandoned {
		winnerID, loserID := record.DodgerDeviceID, record.ShooterDeviceID
		if record.Winner == duel.RoleShooter.String() {
			winnerID, loserID = record.ShooterDeviceID, record.DodgerDeviceID
		}

		if err := bumpDeviceTx(ctx, tx, winnerID, true); err != nil {
			return err
		}
		if err := bumpDeviceTx(ctx, tx, loserID, false); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func bumpDeviceTx(ctx context.Context, tx *sql.Tx, deviceID int64, won bool) error {
	winDelta, lossDelta := 0, 1
	if won {
		winDelta, lossDelta = 1, 0
	}

	_, err := tx.ExecContext(ctx, `
        INSERT INTO devices (device_id, name, duels, wins, losses)
        VALUES ($1, $2, 1, $3, $4)
        ON CONFLICT (device_id)
        DO UPDATE SET duels = devices.duels + 1,
                      wins = devices.wins + $3,
                      losses = devices.losses + $4,
                      updated_at = CURRENT_TIMESTAMP`,
		deviceID, fmt.Sprintf("device-%d", deviceID), winDelta, lossDelta)
	return err
}

// LoadDuelRecord 加载对决记录
func (p *PostgreSQL) LoadDuelRecord(matchID string) (*models.DuelRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := &models.DuelRecord{}
	var roundsJSON []byte
	err := p.db.QueryRowContext(ctx, `
        SELECT match_id, shooter_device_id, dodger_device_id, rounds,
               rounds_played, last_round_safe, winner, abandoned, duration, created_at
        FROM duel_records WHERE match_id = $1`, matchID).Scan(
		&record.MatchID, &record.ShooterDeviceID, &record.DodgerDeviceID,
		&roundsJSON, &record.RoundsPlayed, &record.LastRoundSafe,
		&record.Winner, &record.Abandoned, &record.Duration, &record.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(roundsJSON, &record.Rounds); err != nil {
		return nil, err
	}
	return record, nil
}

// UpsertDevice 注册或更新设备
func (p *PostgreSQL) UpsertDevice(deviceID int64, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
        INSERT INTO devices (device_id, name)
        VALUES ($1, $2)
        ON CONFLICT (device_id)
        DO UPDATE SET name = $2, updated_at = CURRENT_TIMESTAMP`,
		deviceID, name)
	return err
}

// GetDeviceStats 获取设备战绩
func (p *PostgreSQL) GetDeviceStats(deviceID int64) (*models.DeviceStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := &models.DeviceStats{}
	err := p.db.QueryRowContext(ctx,
		`SELECT duels, wins, losses FROM devices WHERE device_id = $1`,
		deviceID).Scan(&stats.TotalDuels, &stats.Wins, &stats.Losses)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	err = p.db.QueryRowContext(ctx, `
        SELECT
            COALESCE(SUM(CASE WHEN last_round_safe = false THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN last_round_safe = true THEN 1 ELSE 0 END), 0)
        FROM duel_records
        WHERE (shooter_device_id = $1 OR dodger_device_id = $1) AND abandoned = false`,
		deviceID).Scan(&stats.Hits, &stats.Survivals)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
