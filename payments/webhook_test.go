package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Setenv("PAYFLOW_WEBHOOK_SECRET", "test-secret")

	body := []byte(`{"event_id":"evt_1","reference":"ref_1","result_code":0}`)
	assert.True(t, VerifyWebhookSignature(body, signBody("test-secret", body)))
	assert.False(t, VerifyWebhookSignature(body, signBody("wrong-secret", body)))
	assert.False(t, VerifyWebhookSignature([]byte(`tampered`), signBody("test-secret", body)))
	assert.False(t, VerifyWebhookSignature(body, ""))
}

func TestVerifyWebhookSignatureWithoutSecret(t *testing.T) {
	t.Setenv("PAYFLOW_WEBHOOK_SECRET", "")

	body := []byte(`{}`)
	assert.False(t, VerifyWebhookSignature(body, signBody("", body)))
}
