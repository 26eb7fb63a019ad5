package payments

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	config "github.com/jmwangi/tutorlink/configs"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

var (
	gatewayToken       string
	gatewayTokenExpiry time.Time
	tokenMutex         sync.RWMutex
)

// GetGatewayAccessToken fetches and caches the PayFlow OAuth token, renewing
// it five minutes before expiry.
func GetGatewayAccessToken() (string, error) {
	tokenMutex.RLock()
	if gatewayToken != "" && time.Now().Before(gatewayTokenExpiry) {
		token := gatewayToken
		tokenMutex.RUnlock()
		return token, nil
	}
	tokenMutex.RUnlock()

	tokenMutex.Lock()
	defer tokenMutex.Unlock()

	if gatewayToken != "" && time.Now().Before(gatewayTokenExpiry) {
		return gatewayToken, nil
	}

	log.Println("Fetching new PayFlow access token...")
	apiBase := config.Config("PAYFLOW_API_BASE_URL")
	clientID := config.Config("PAYFLOW_CLIENT_ID")
	clientSecret := config.Config("PAYFLOW_CLIENT_SECRET")

	reqBody := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequest("POST", fmt.Sprintf("%s/oauth2/token", apiBase), reqBody)
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(clientID, clientSecret)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PayFlow token API returned non-200 status: %s", resp.Status)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	gatewayToken = tokenResp.AccessToken
	gatewayTokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-300) * time.Second)
	log.Println("Successfully fetched and cached PayFlow access token.")

	return gatewayToken, nil
}
