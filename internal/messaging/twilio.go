package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioGateway sends WhatsApp messages through the Twilio Messages API.
type TwilioGateway struct {
	accountSID     string
	authToken      string
	whatsappNumber string
	httpClient     *http.Client
	baseURL        string
	stubMode       bool
	logger         *slog.Logger
}

// NewTwilioGateway creates a gateway with the given credentials. In stub
// mode no network calls are made and fabricated SIDs are returned, for local
// development without Twilio credentials.
func NewTwilioGateway(accountSID, authToken, whatsappNumber string, stubMode bool, logger *slog.Logger) *TwilioGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioGateway{
		accountSID:     accountSID,
		authToken:      authToken,
		whatsappNumber: whatsappNumber,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        twilioAPIBase,
		stubMode:       stubMode,
		logger:         logger,
	}
}

// Send delivers text to the given handle and returns the provider message SID.
func (g *TwilioGateway) Send(ctx context.Context, to, text string) (string, error) {
	toWhatsApp := "whatsapp:" + NormalizePhone(to)

	if g.stubMode {
		sid := "SM" + strings.ReplaceAll(uuid.New().String(), "-", "")
		g.logger.Info("Stub mode: skipping Twilio send", "to", toWhatsApp, "sid", sid)
		return sid, nil
	}

	form := url.Values{}
	form.Set("To", toWhatsApp)
	form.Set("From", g.whatsappNumber)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.baseURL, g.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.accountSID, g.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.SID, nil
}
