package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	config "github.com/jmwangi/tutorlink/configs"
)

type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
}

// CreateCheckoutSession opens an external PayFlow checkout for a payment.
// The reference ties the gateway's webhook back to our payment record, and
// amounts cross the wire as minor-unit integers.
func CreateCheckoutSession(paymentRef string, amountPence int64) (*CheckoutSession, error) {
	accessToken, err := GetGatewayAccessToken()
	if err != nil {
		return nil, err
	}

	apiBase := config.Config("PAYFLOW_API_BASE_URL")

	payload := map[string]interface{}{
		"reference":    paymentRef,
		"amount_minor": amountPence,
		"currency":     "GBP",
		"webhook_url":  config.Config("PAYFLOW_WEBHOOK_URL"),
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", fmt.Sprintf("%s/v1/checkout/sessions", apiBase), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create checkout session: %s", string(respBody))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
