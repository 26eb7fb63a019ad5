package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	config "github.com/jmwangi/tutorlink/configs"
)

// PayFlow delivers confirmations out-of-band, at least once. EventID is
// unique per confirmation and is what makes re-delivery detectable.
type WebhookPayload struct {
	EventID    string `json:"event_id"`
	CheckoutID string `json:"checkout_id"`
	Reference  string `json:"reference"`
	ResultCode int    `json:"result_code"`
	ResultDesc string `json:"result_desc"`
}

const ResultCodeSuccess = 0

// VerifyWebhookSignature checks the HMAC-SHA256 signature PayFlow sends in
// the X-Payflow-Signature header against the raw request body.
func VerifyWebhookSignature(body []byte, signature string) bool {
	secret := config.Config("PAYFLOW_WEBHOOK_SECRET")
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
