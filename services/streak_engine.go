package services

import (
	"time"

	"streak-challenge-system/models"

	"github.com/shopspring/decimal"
)

// BetOutcome is the settled view of one bet as it applies to one linked
// challenge. MinOdds comes from the link snapshot, not the live catalog.
type BetOutcome struct {
	BetID       string
	Result      models.BetResult
	OddsDecimal float64
	MinOdds     float64
}

// LevelUnlock is one threshold crossing produced by a streak advance
type LevelUnlock struct {
	Level  int
	Amount decimal.Decimal
}

// Qualifies reports whether the bet counts toward the streak at all. Bets
// below the snapshotted odds floor never touch the streak, win or lose.
func (o BetOutcome) Qualifies() bool {
	return o.OddsDecimal >= o.MinOdds
}

// ApplyBetOutcome runs one settled bet through a challenge's streak state.
// It mutates the challenge in memory and returns the levels the advance
// unlocked; persisting the challenge and creating reward rows is the
// caller's job.
//
// Rules, in order:
//   - push or non-qualifying odds: nothing changes
//   - qualifying loss: streak resets to zero, completed levels stay completed
//   - qualifying win: streak increments, then every still-locked level whose
//     threshold is now met unlocks, lowest first
func ApplyBetOutcome(ch *models.Challenge, out BetOutcome) []LevelUnlock {
	switch out.Result {
	case models.BetResultWon:
		if !out.Qualifies() {
			return nil
		}
		return advanceStreak(ch, 1)
	case models.BetResultLost:
		if !out.Qualifies() {
			return nil
		}
		ch.CurrentStreak = 0
		return nil
	}
	// push or anything unexpected: no-op
	return nil
}

// ApplyStreakGrant advances the streak by a number of synthetic wins. Used
// by support tooling to compensate users; unlocks cascade exactly as if the
// wins had been settled one by one.
func ApplyStreakGrant(ch *models.Challenge, wins int) []LevelUnlock {
	if wins <= 0 {
		return nil
	}
	return advanceStreak(ch, wins)
}

func advanceStreak(ch *models.Challenge, wins int) []LevelUnlock {
	ch.CurrentStreak += wins

	var unlocks []LevelUnlock
	for level := 1; level <= models.LevelCount; level++ {
		if ch.LevelStateAt(level) != models.LevelLocked {
			continue
		}
		if ch.CurrentStreak < ThresholdForLevel(ch.Difficulty, level) {
			break // thresholds ascend, nothing above can be met either
		}
		amount := RewardForLevel(ch.Tier, ch.Difficulty, level)
		ch.SetLevelStateAt(level, models.LevelUnlocked)
		ch.TotalRewardsEarned = ch.TotalRewardsEarned.Add(amount)
		ch.TotalPendingAmount = ch.TotalPendingAmount.Add(amount)
		unlocks = append(unlocks, LevelUnlock{Level: level, Amount: amount})
	}

	recomputeCurrentLevel(ch)
	return unlocks
}

// recomputeCurrentLevel points CurrentLevel at the lowest still-locked level,
// or the top level once everything is unlocked.
func recomputeCurrentLevel(ch *models.Challenge) {
	for level := 1; level <= models.LevelCount; level++ {
		if ch.LevelStateAt(level) == models.LevelLocked {
			ch.CurrentLevel = level
			return
		}
	}
	ch.CurrentLevel = models.LevelCount
}

// NewChallengeFromProduct builds a fresh challenge with catalog values
// snapshotted onto the row.
func NewChallengeFromProduct(id, userID string, p ChallengeProduct, now time.Time) models.Challenge {
	return models.Challenge{
		ID:                 id,
		UserID:             userID,
		Tier:               p.Tier,
		Difficulty:         p.Difficulty,
		MinOdds:            p.MinOdds,
		CurrentLevel:       1,
		Level1State:        models.LevelLocked,
		Level2State:        models.LevelLocked,
		Level3State:        models.LevelLocked,
		Level4State:        models.LevelLocked,
		TotalRewardsEarned: decimal.Zero,
		TotalPendingAmount: decimal.Zero,
		PurchaseCost:       p.Cost,
		ResetFee:           p.ResetFee,
		PurchasedAt:        now,
		ExpiresAt:          now.AddDate(0, 0, p.WindowDays),
		Status:             models.ChallengeStatusActive,
	}
}
