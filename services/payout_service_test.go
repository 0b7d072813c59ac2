package services

import (
	"errors"
	"testing"

	"streak-challenge-system/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func bankDetails() models.PayoutDetails {
	return models.PayoutDetails{IBAN: "DE89370400440532013000", AccountName: "Jane Doe"}
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(500))

	_, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        9.99,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if !errors.Is(err, models.ErrPayoutBelowMinimum) {
		t.Fatalf("err = %v, want ErrPayoutBelowMinimum", err)
	}
}

func TestRequestPayoutInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(50))

	_, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        100,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	var count int64
	db.Model(&models.Payout{}).Count(&count)
	if count != 0 {
		t.Fatalf("payout rows = %d, a failed request must write nothing", count)
	}

	// a user with no balance row at all gets the same answer
	_, err = svc.Request("user_nobody", &models.PayoutRequest{
		Amount:        100,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("no-wallet err = %v, want ErrInsufficientBalance", err)
	}
}

func TestRequestPayoutReservesImmediately(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(100))

	payout, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        60,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("status = %s, want pending", payout.Status)
	}
	if !payout.Amount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("amount = %s, want 60", payout.Amount)
	}

	var bal models.UserBalance
	db.First(&bal, "user_id = ?", "user_1")
	if !bal.AvailableBalance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("available = %s, want 40 with 60 reserved", bal.AvailableBalance)
	}
	if !bal.TotalWithdrawn.Equal(decimal.NewFromInt(60)) {
		t.Errorf("withdrawn = %s, want 60", bal.TotalWithdrawn)
	}

	// the reserve holds: a second request for more than the rest fails
	_, err = svc.Request("user_1", &models.PayoutRequest{
		Amount:        50,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("over-reserve err = %v, want ErrInsufficientBalance", err)
	}
}

func TestRequestPayoutValidatesDetails(t *testing.T) {
	tests := []struct {
		name    string
		method  models.PaymentMethod
		details models.PayoutDetails
		wantErr bool
	}{
		{"bank complete", models.PaymentMethodBank, bankDetails(), false},
		{"bank missing iban", models.PaymentMethodBank, models.PayoutDetails{AccountName: "Jane Doe"}, true},
		{"bank missing name", models.PaymentMethodBank, models.PayoutDetails{IBAN: "DE89370400440532013000"}, true},
		{"paypal complete", models.PaymentMethodPayPal, models.PayoutDetails{Email: "jane@example.com"}, false},
		{"paypal malformed email", models.PaymentMethodPayPal, models.PayoutDetails{Email: "not-an-email"}, true},
		{"crypto complete", models.PaymentMethodCrypto, models.PayoutDetails{WalletAddress: "0xabc123", Network: "ethereum"}, false},
		{"crypto missing network", models.PaymentMethodCrypto, models.PayoutDetails{WalletAddress: "0xabc123"}, true},
		{"unknown method", models.PaymentMethod("wire"), bankDetails(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			svc := NewPayoutService(db)
			fundBalance(t, db, "user_1", decimal.NewFromInt(500))

			_, err := svc.Request("user_1", &models.PayoutRequest{
				Amount:        50,
				PaymentMethod: tt.method,
				Details:       tt.details,
			})
			if tt.wantErr && !errors.Is(err, models.ErrInvalidPayoutDetails) {
				t.Fatalf("err = %v, want ErrInvalidPayoutDetails", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("err = %v, want success", err)
			}
		})
	}
}

func TestUpdatePayoutStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []models.PayoutStatus
		next    models.PayoutStatus
		wantErr bool
	}{
		{"pending to processing", nil, models.PayoutStatusProcessing, false},
		{"pending to rejected", nil, models.PayoutStatusRejected, false},
		{"pending straight to completed", nil, models.PayoutStatusCompleted, true},
		{"processing to completed", []models.PayoutStatus{models.PayoutStatusProcessing}, models.PayoutStatusCompleted, false},
		{"processing to rejected", []models.PayoutStatus{models.PayoutStatusProcessing}, models.PayoutStatusRejected, false},
		{"completed is terminal", []models.PayoutStatus{models.PayoutStatusProcessing, models.PayoutStatusCompleted}, models.PayoutStatusRejected, true},
		{"rejected is terminal", []models.PayoutStatus{models.PayoutStatusRejected}, models.PayoutStatusProcessing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			svc := NewPayoutService(db)
			fundBalance(t, db, "user_1", decimal.NewFromInt(500))

			payout, err := svc.Request("user_1", &models.PayoutRequest{
				Amount:        50,
				PaymentMethod: models.PaymentMethodBank,
				Details:       bankDetails(),
			})
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			for _, step := range tt.path {
				if _, err := svc.UpdateStatus(payout.ID, step, ""); err != nil {
					t.Fatalf("step %s: %v", step, err)
				}
			}

			updated, err := svc.UpdateStatus(payout.ID, tt.next, "")
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidStatusTransition) {
					t.Fatalf("err = %v, want ErrInvalidStatusTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if updated.Status != tt.next {
				t.Fatalf("status = %s, want %s", updated.Status, tt.next)
			}
			terminal := tt.next == models.PayoutStatusCompleted || tt.next == models.PayoutStatusRejected
			if terminal && updated.ProcessedAt == nil {
				t.Fatalf("terminal payout missing processed_at")
			}
		})
	}
}

func TestRejectionRefundsReservedFunds(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(100))

	payout, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        60,
		PaymentMethod: models.PaymentMethodCrypto,
		Details:       models.PayoutDetails{WalletAddress: "0xabc123", Network: "ethereum"},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.UpdateStatus(payout.ID, models.PayoutStatusProcessing, ""); err != nil {
		t.Fatalf("to processing: %v", err)
	}

	rejected, err := svc.UpdateStatus(payout.ID, models.PayoutStatusRejected, "compliance hold")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.RejectReason != "compliance hold" {
		t.Errorf("reason = %q, want recorded", rejected.RejectReason)
	}
	if rejected.Reserved() {
		t.Errorf("rejected payout still reports funds as reserved")
	}

	var bal models.UserBalance
	db.First(&bal, "user_id = ?", "user_1")
	if !bal.AvailableBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("available = %s, want the full 100 back", bal.AvailableBalance)
	}
	if !bal.TotalWithdrawn.IsZero() {
		t.Errorf("withdrawn = %s, want 0 after refund", bal.TotalWithdrawn)
	}
}

func TestCompletionKeepsFundsWithdrawn(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(100))

	payout, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        60,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.UpdateStatus(payout.ID, models.PayoutStatusProcessing, ""); err != nil {
		t.Fatalf("to processing: %v", err)
	}
	if _, err := svc.UpdateStatus(payout.ID, models.PayoutStatusCompleted, ""); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	var bal models.UserBalance
	db.First(&bal, "user_id = ?", "user_1")
	if !bal.AvailableBalance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("available = %s, want 40", bal.AvailableBalance)
	}
	if !bal.TotalWithdrawn.Equal(decimal.NewFromInt(60)) {
		t.Errorf("withdrawn = %s, want 60 kept", bal.TotalWithdrawn)
	}
	if !bal.TotalClaimed.Equal(bal.AvailableBalance.Add(bal.TotalWithdrawn)) {
		t.Errorf("wallet out of balance: claimed=%s available=%s withdrawn=%s",
			bal.TotalClaimed, bal.AvailableBalance, bal.TotalWithdrawn)
	}

	// withdrawn must match exactly the payouts still holding funds
	var payouts []models.Payout
	db.Find(&payouts)
	reserved := decimal.Zero
	for i := range payouts {
		if payouts[i].Reserved() {
			reserved = reserved.Add(payouts[i].Amount)
		}
	}
	if !bal.TotalWithdrawn.Equal(reserved) {
		t.Errorf("withdrawn = %s, reserved payouts sum to %s", bal.TotalWithdrawn, reserved)
	}
}

func TestUpdateStatusEchoIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(100))

	payout, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        50,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.UpdateStatus(payout.ID, models.PayoutStatusProcessing, ""); err != nil {
		t.Fatalf("to processing: %v", err)
	}

	// the rails feed may re-deliver the same status
	echoed, err := svc.UpdateStatus(payout.ID, models.PayoutStatusProcessing, "")
	if err != nil {
		t.Fatalf("echo err = %v, want no-op", err)
	}
	if echoed.Status != models.PayoutStatusProcessing {
		t.Fatalf("status = %s, want processing", echoed.Status)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)

	if _, err := svc.UpdateStatus(uuid.NewString(), models.PayoutStatusProcessing, ""); !errors.Is(err, models.ErrPayoutNotFound) {
		t.Fatalf("err = %v, want ErrPayoutNotFound", err)
	}
}

func TestListPayoutsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewPayoutService(db)
	fundBalance(t, db, "user_1", decimal.NewFromInt(500))

	first, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        50,
		PaymentMethod: models.PaymentMethodBank,
		Details:       bankDetails(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.Request("user_1", &models.PayoutRequest{
		Amount:        75,
		PaymentMethod: models.PaymentMethodPayPal,
		Details:       models.PayoutDetails{Email: "jane@example.com"},
	}); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if _, err := svc.UpdateStatus(first.ID, models.PayoutStatusProcessing, ""); err != nil {
		t.Fatalf("to processing: %v", err)
	}

	all, err := svc.ListForUser("user_1", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("payouts = %d, want 2", len(all))
	}

	pending := models.PayoutStatusPending
	onlyPending, err := svc.ListForUser("user_1", &pending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(onlyPending) != 1 || onlyPending[0].PaymentMethod != models.PaymentMethodPayPal {
		t.Fatalf("pending filter = %d rows, want the paypal payout", len(onlyPending))
	}
}
