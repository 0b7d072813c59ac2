// streak-challenge-system/services/payment_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"streak-challenge-system/models"
	"streak-challenge-system/utils"

	"github.com/shopspring/decimal"
)

// ResetFeeCharger is what the challenge service needs from the payment side
type ResetFeeCharger interface {
	ChargeResetFee(ctx context.Context, userID, challengeID string, amount decimal.Decimal) (string, error)
}

type PaymentClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type chargeResponse struct {
	PaymentID string `json:"payment_id"`
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason"`
}

func NewPaymentClient(baseURL, token string) *PaymentClient {
	return &PaymentClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.ServiceHTTPClient,
	}
}

// ChargeResetFee calls /charges on the payment service and returns the
// payment id. A declined charge comes back as ErrPaymentDeclined.
func (c *PaymentClient) ChargeResetFee(ctx context.Context, userID, challengeID string, amount decimal.Decimal) (string, error) {
	url := fmt.Sprintf("%s/charges", c.BaseURL)

	reqBody := map[string]interface{}{
		"user_id":   userID,
		"reference": challengeID,
		"amount":    amount,
		"reason":    "challenge_reset",
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token) // service → payment service token

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity {
		log.Printf("PaymentService declined reset fee for user %s: %s", userID, string(body))
		return "", models.ErrPaymentDeclined
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("PaymentService /charges returned %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("charge failed: %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if !out.Confirmed {
		log.Printf("PaymentService did not confirm reset fee for user %s (reason: %s)", userID, out.Reason)
		return "", models.ErrPaymentDeclined
	}

	return out.PaymentID, nil
}
