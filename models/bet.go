package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetResult is the settlement outcome of a bet
type BetResult string

const (
	BetResultPending BetResult = "pending"
	BetResultWon     BetResult = "won"
	BetResultLost    BetResult = "lost"
	BetResultPush    BetResult = "push" // voided/refunded stake, never touches streaks
)

// Bet is a wager placed through the platform. SettlementApplied is the
// idempotency marker: once set, re-delivered settlement events are no-ops.
type Bet struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	EventID   string `gorm:"not null" json:"event_id"`
	Market    string `gorm:"not null" json:"market"`
	Selection string `gorm:"not null" json:"selection"`

	Stake       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"stake"`
	OddsDecimal float64         `gorm:"not null" json:"odds_decimal"`

	Result            BetResult  `gorm:"type:varchar(16);not null;default:'pending';index" json:"result"`
	SettlementApplied bool       `gorm:"default:false" json:"settlement_applied"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`

	Links []BetChallengeLink `gorm:"foreignKey:BetID" json:"challenge_links,omitempty"`

	Timestamps
}

// BetChallengeLink joins a bet to one of the user's challenges. The odds
// floor and difficulty are copied here at placement time, so qualification is
// judged against what the user saw when the bet was placed.
type BetChallengeLink struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	BetID       string `gorm:"not null;index;uniqueIndex:idx_bet_challenge" json:"bet_id"`
	ChallengeID string `gorm:"not null;index;uniqueIndex:idx_bet_challenge" json:"challenge_id"`

	MinOddsSnapshot    float64    `gorm:"not null" json:"min_odds_snapshot"`
	DifficultySnapshot Difficulty `gorm:"type:varchar(16);not null" json:"difficulty_snapshot"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
