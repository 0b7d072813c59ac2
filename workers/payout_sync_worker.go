package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"streak-challenge-system/models"
	"streak-challenge-system/services"
	"streak-challenge-system/utils"
)

// PayoutEvent is one status change reported by the payment rails
type PayoutEvent struct {
	PayoutID  string              `json:"payout_id"`
	Status    models.PayoutStatus `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PayoutRailsClient polls the payment rails for payout progress and applies
// it through the payout service, so the state machine and refund rules hold
// no matter where an update comes from.
type PayoutRailsClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Payouts    *services.PayoutService
}

func NewPayoutRailsClient(baseURL, token string, payouts *services.PayoutService) *PayoutRailsClient {
	return &PayoutRailsClient{
		BaseURL:    baseURL,
		Token:      token,
		Payouts:    payouts,
		HTTPClient: utils.ServiceHTTPClient,
	}
}

func (c *PayoutRailsClient) GetPayoutEvents(ctx context.Context, since time.Time) ([]PayoutEvent, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/payout-events", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment rails: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("payment rails returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Events []PayoutEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode payment rails response: %w", err)
	}

	return response.Events, nil
}

// PollPayoutEvents tails the payment rails feed. The cursor only advances
// after a whole batch applied, so a failed tick retries the same window.
func PollPayoutEvents(ctx context.Context, client *PayoutRailsClient, pollInterval time.Duration) {
	log.Println("Starting payout event polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Payout event polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			events, err := client.GetPayoutEvents(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling payout events: %v", err)
				continue
			}

			if len(events) == 0 {
				continue
			}
			log.Printf("📥 Received %d payout event(s) from payment rails.", len(events))

			applied, failed := 0, 0
			abort := false
			for _, ev := range events {
				_, err := client.Payouts.UpdateStatus(ev.PayoutID, ev.Status, ev.Reason)
				switch {
				case err == nil:
					applied++
				case errors.Is(err, models.ErrPayoutNotFound),
					errors.Is(err, models.ErrInvalidStatusTransition):
					// stale or echoed event, safe to drop
					log.Printf("⚠️ Skipping payout event %s → %s: %v", ev.PayoutID, ev.Status, err)
					failed++
				default:
					// real failure: stop here and retry the window next tick
					log.Printf("❌ Failed to apply payout event %s → %s: %v", ev.PayoutID, ev.Status, err)
					abort = true
				}
				if abort {
					break
				}
			}
			if abort {
				continue
			}

			lastSyncTime = logTime
			log.Printf("✅ Applied %d payout event(s), skipped %d.", applied, failed)
		}
	}
}
