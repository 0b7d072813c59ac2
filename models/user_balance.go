package models

import "github.com/shopspring/decimal"

// UserBalance is the materialized reward wallet, one row per user. It is
// maintained inside the same transaction as every claim, payout request and
// payout rejection, so AvailableBalance always equals
// total claimed minus total still reserved or sent.
//
// The row also serves as the per-user lock anchor: transactions that must
// serialize per user (purchase cap check, claim, payout) take a row lock on
// it first.
type UserBalance struct {
	UserID string `gorm:"primaryKey" json:"user_id"`

	AvailableBalance decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"available_balance"`
	TotalClaimed     decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_claimed"`
	TotalWithdrawn   decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_withdrawn"`

	Timestamps
}
