package services

import (
	"fmt"

	"streak-challenge-system/models"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// StreakThresholds: consecutive qualifying wins required per level
var StreakThresholds = map[models.Difficulty][models.LevelCount]int{
	models.DifficultyBeginner: {3, 6, 10, 15},
	models.DifficultyPro:      {2, 4, 6, 9},
}

// MinOddsByDifficulty: minimum decimal odds for a bet to count toward a streak
var MinOddsByDifficulty = map[models.Difficulty]float64{
	models.DifficultyBeginner: 1.5,
	models.DifficultyPro:      2.0,
}

// ChallengeTiers: sellable tier sizes (level 4 always pays the full tier)
var ChallengeTiers = []int64{1000, 5000, 10000, 25000, 50000, 100000}

// rewardPermille: level payout as ‰ of tier. Pro pays more per level because
// its odds floor makes every leg harder.
var rewardPermille = map[models.Difficulty][models.LevelCount]int64{
	models.DifficultyBeginner: {3, 100, 500, 1000},
	models.DifficultyPro:      {5, 150, 600, 1000},
}

// tierPrices: purchase cost per tier, same for both difficulties
var tierPrices = map[int64]decimal.Decimal{
	1000:   decimal.NewFromInt(99),
	5000:   decimal.NewFromInt(249),
	10000:  decimal.NewFromInt(399),
	25000:  decimal.NewFromInt(799),
	50000:  decimal.NewFromInt(1299),
	100000: decimal.NewFromInt(1999),
}

// resetFeeRatio: reset costs half the original purchase
var resetFeeRatio = decimal.NewFromFloat(0.5)

// ChallengeProduct is one purchasable catalog entry
type ChallengeProduct struct {
	Slug       string                             `json:"slug"`
	Tier       int64                              `json:"tier"`
	Difficulty models.Difficulty                  `json:"difficulty"`
	MinOdds    float64                            `json:"min_odds"`
	Cost       decimal.Decimal                    `json:"cost"`
	ResetFee   decimal.Decimal                    `json:"reset_fee"`
	Thresholds [models.LevelCount]int             `json:"thresholds"`
	Rewards    [models.LevelCount]decimal.Decimal `json:"rewards"`
	WindowDays int                                `json:"window_days"`
}

var catalog []ChallengeProduct

func init() {
	for _, tier := range ChallengeTiers {
		for _, diff := range []models.Difficulty{models.DifficultyBeginner, models.DifficultyPro} {
			catalog = append(catalog, buildProduct(tier, diff))
		}
	}
}

func buildProduct(tier int64, diff models.Difficulty) ChallengeProduct {
	var rewards [models.LevelCount]decimal.Decimal
	for i, pm := range rewardPermille[diff] {
		rewards[i] = decimal.NewFromInt(tier).Mul(decimal.NewFromInt(pm)).Div(decimal.NewFromInt(1000))
	}
	cost := tierPrices[tier]
	return ChallengeProduct{
		Slug:       slug.Make(fmt.Sprintf("%s-streak-%d", diff, tier)),
		Tier:       tier,
		Difficulty: diff,
		MinOdds:    MinOddsByDifficulty[diff],
		Cost:       cost,
		ResetFee:   cost.Mul(resetFeeRatio),
		Thresholds: StreakThresholds[diff],
		Rewards:    rewards,
		WindowDays: models.ChallengeWindowDays,
	}
}

// ChallengeCatalog returns every purchasable product
func ChallengeCatalog() []ChallengeProduct {
	out := make([]ChallengeProduct, len(catalog))
	copy(out, catalog)
	return out
}

// ProductFor resolves one catalog entry by tier and difficulty
func ProductFor(tier int64, diff models.Difficulty) (ChallengeProduct, error) {
	for _, p := range catalog {
		if p.Tier == tier && p.Difficulty == diff {
			return p, nil
		}
	}
	return ChallengeProduct{}, models.ErrUnknownProduct
}

// RewardForLevel returns the payout for crossing a level, 1-indexed
func RewardForLevel(tier int64, diff models.Difficulty, level int) decimal.Decimal {
	if level < 1 || level > models.LevelCount {
		return decimal.Zero
	}
	return decimal.NewFromInt(tier).
		Mul(decimal.NewFromInt(rewardPermille[diff][level-1])).
		Div(decimal.NewFromInt(1000))
}

// ThresholdForLevel returns the streak needed to unlock a level, 1-indexed
func ThresholdForLevel(diff models.Difficulty, level int) int {
	if level < 1 || level > models.LevelCount {
		return 0
	}
	return StreakThresholds[diff][level-1]
}
