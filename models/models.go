// models/models.go
package models

import (
	"time"

	"github.com/wfunc/barrelduel/duel"
)

// RoundResult is one scored exchange of choices.
type RoundResult struct {
	Round       int       `json:"round"`
	ShooterSlot duel.Slot `json:"shooter_slot"`
	DodgerSlot  duel.Slot `json:"dodger_slot"`
	Safe        bool      `json:"safe"`
}

// DuelRecord is a finished duel as the relay observed it.
type DuelRecord struct {
	MatchID         string        `json:"match_id"`
	ShooterDeviceID int64         `json:"shooter_device_id"`
	DodgerDeviceID  int64         `json:"dodger_device_id"`
	Rounds          []RoundResult `json:"rounds"`
	RoundsPlayed    int           `json:"rounds_played"`
	LastRoundSafe   bool          `json:"last_round_safe"`
	Winner          string        `json:"winner"` // shooter/dodger
	Abandoned       bool          `json:"abandoned"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        int           `json:"duration"` // seconds
}

// DeviceStats are a device's lifetime tallies.
type DeviceStats struct {
	TotalDuels int `json:"total_duels"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Hits       int `json:"hits"`      // duels ending in a hit
	Survivals  int `json:"survivals"` // duels won by lasting all rounds
}
