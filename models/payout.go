package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects which payout detail fields are required
type PaymentMethod string

const (
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// PayoutStatus follows pending → processing → completed, with rejection
// possible from any non-terminal state
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusRejected   PayoutStatus = "rejected"
)

// MinPayoutAmount is the smallest withdrawal the payment rails accept
var MinPayoutAmount = decimal.NewFromInt(10)

// PayoutDetails carries the method-specific destination. Only the fields for
// the chosen method are populated.
type PayoutDetails struct {
	IBAN          string `json:"iban,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	Network       string `json:"network,omitempty"`
}

// Payout is a withdrawal request. The amount is reserved against the user's
// available balance the moment the row is created and only returns on reject.
type Payout struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(16);not null" json:"payment_method"`
	Details       PayoutDetails   `gorm:"embedded;embeddedPrefix:details_" json:"details"`

	Status       PayoutStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	RejectReason string       `json:"reject_reason,omitempty"`
	ProcessedAt  *time.Time   `json:"processed_at,omitempty"`

	Timestamps
}

// CanTransitionTo enforces the payout state machine. Completed and rejected
// are terminal.
func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	switch s {
	case PayoutStatusPending:
		return next == PayoutStatusProcessing || next == PayoutStatusRejected
	case PayoutStatusProcessing:
		return next == PayoutStatusCompleted || next == PayoutStatusRejected
	}
	return false
}

// Reserved reports whether this payout still holds user funds. Rejected
// payouts have been refunded; everything else counts against the balance.
func (p *Payout) Reserved() bool {
	return p.Status != PayoutStatusRejected
}
