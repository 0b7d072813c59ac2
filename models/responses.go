package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeView is a Challenge plus the fields clients expect computed per
// request: remaining window and per-level completion flags.
type ChallengeView struct {
	Challenge
	DaysRemaining   int  `json:"days_remaining"`
	Level1Completed bool `json:"level1_completed"`
	Level2Completed bool `json:"level2_completed"`
	Level3Completed bool `json:"level3_completed"`
	Level4Completed bool `json:"level4_completed"`
}

// NewChallengeView builds the response view of a challenge at a point in time
func NewChallengeView(c Challenge, now time.Time) ChallengeView {
	return ChallengeView{
		Challenge:       c,
		DaysRemaining:   c.DaysRemaining(now),
		Level1Completed: c.LevelCompleted(1),
		Level2Completed: c.LevelCompleted(2),
		Level3Completed: c.LevelCompleted(3),
		Level4Completed: c.LevelCompleted(4),
	}
}

// UnlockedReward reports one level crossing produced by a settlement
type UnlockedReward struct {
	ChallengeID string          `json:"challenge_id"`
	Level       int             `json:"level"`
	Amount      decimal.Decimal `json:"amount"`
}

// SettlementSummary is the outcome of applying one bet settlement across all
// linked challenges
type SettlementSummary struct {
	BetID             string           `json:"bet_id"`
	Result            BetResult        `json:"result"`
	AlreadyApplied    bool             `json:"already_applied"`
	AppliedChallenges []string         `json:"applied_challenges"`
	SkippedChallenges []string         `json:"skipped_challenges"` // linked but no longer active
	UnlockedRewards   []UnlockedReward `json:"unlocked_rewards"`
}

// ClaimResult reports how much a claim moved and the balance after it
type ClaimResult struct {
	ClaimedAmount    decimal.Decimal `json:"claimed_amount"`
	ClaimedRewards   int             `json:"claimed_rewards"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}
