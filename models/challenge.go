package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Difficulty selects the streak ladder and the minimum qualifying odds
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyPro      Difficulty = "pro"
)

// ChallengeStatus is the lifecycle state of a purchased challenge
type ChallengeStatus string

const (
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusExpired   ChallengeStatus = "expired"
	ChallengeStatusCancelled ChallengeStatus = "cancelled"
)

// LevelState tracks each reward level: locked → unlocked → claimed
type LevelState string

const (
	LevelLocked   LevelState = "locked"
	LevelUnlocked LevelState = "unlocked"
	LevelClaimed  LevelState = "claimed"
)

const (
	MaxActiveChallenges = 5
	ChallengeWindowDays = 45
	LevelCount          = 4
)

// Challenge is one purchased streak challenge. MinOdds is snapshotted at
// purchase time so later catalog changes never affect a running challenge.
type Challenge struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"` // external identity from the gateway

	Tier       int64      `gorm:"not null" json:"tier"`
	Difficulty Difficulty `gorm:"type:varchar(16);not null" json:"difficulty"`
	MinOdds    float64    `gorm:"not null" json:"min_odds"`

	CurrentLevel  int `gorm:"default:1" json:"current_level"` // next level still locked, 1..4
	CurrentStreak int `gorm:"default:0" json:"current_streak"`

	Level1State LevelState `gorm:"type:varchar(16);not null;default:'locked'" json:"level1_state"`
	Level2State LevelState `gorm:"type:varchar(16);not null;default:'locked'" json:"level2_state"`
	Level3State LevelState `gorm:"type:varchar(16);not null;default:'locked'" json:"level3_state"`
	Level4State LevelState `gorm:"type:varchar(16);not null;default:'locked'" json:"level4_state"`

	TotalRewardsEarned decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_rewards_earned"`
	TotalPendingAmount decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_pending_amount"`

	PurchaseCost decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"purchase_cost"`
	ResetFee     decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"reset_fee"`

	PurchasedAt time.Time       `gorm:"not null" json:"purchased_at"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expires_at"`
	Status      ChallengeStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// LevelStateAt returns the state of a level, 1-indexed. Out-of-range levels
// read as locked.
func (c *Challenge) LevelStateAt(level int) LevelState {
	switch level {
	case 1:
		return c.Level1State
	case 2:
		return c.Level2State
	case 3:
		return c.Level3State
	case 4:
		return c.Level4State
	}
	return LevelLocked
}

func (c *Challenge) SetLevelStateAt(level int, state LevelState) {
	switch level {
	case 1:
		c.Level1State = state
	case 2:
		c.Level2State = state
	case 3:
		c.Level3State = state
	case 4:
		c.Level4State = state
	}
}

// LevelCompleted reports whether a level has ever been reached. Completion is
// permanent: a reset streak never re-locks a level.
func (c *Challenge) LevelCompleted(level int) bool {
	return c.LevelStateAt(level) != LevelLocked
}

// DaysRemaining counts whole days until expiry, rounded up, never negative.
func (c *Challenge) DaysRemaining(now time.Time) int {
	if !now.Before(c.ExpiresAt) {
		return 0
	}
	days := int(c.ExpiresAt.Sub(now).Hours() / 24)
	if c.ExpiresAt.Sub(now)%(24*time.Hour) != 0 {
		days++
	}
	return days
}
