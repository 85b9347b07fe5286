package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// SMSSender sends SMS messages to operators.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// NormalizeUSPhone strips non-digit characters and prefixes the number for
// the US: digits already starting with the country code get a bare "+",
// anything else gets "+1". Length is not validated; a malformed number is
// the provider's problem to reject.
func NormalizeUSPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "1") {
		return "+" + digits
	}
	return "+1" + digits
}

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SendSMS dispatches a single SMS, retrying transient failures.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" || s.from == "" {
		return errors.New("notify: twilio credentials missing")
	}
	if to == "" {
		return errors.New("notify: sms recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("notify: sms body required")
	}

	payload := url.Values{}
	payload.Set("To", NormalizeUSPhone(to))
	payload.Set("From", s.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err
			break
		}
		req.SetBasicAuth(s.accountSID, s.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("twilio sms sent", "to", payload.Get("To"))
				return nil
			}
			lastErr = fmt.Errorf("notify: twilio send failed: %s", formatTwilioError(resp.StatusCode, respBody))
			// Don't retry non-rate-limit 4xx errors.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
				break
			}
		}

		if attempt < 3 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(200+rand.Intn(300)) * time.Millisecond):
			}
		}
	}
	return lastErr
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}

// GatewaySender delivers SMS through a carrier email-to-SMS gateway
// (e.g. 4075551234@vtext.com for Verizon) using the configured email
// transport. Free, but best-effort only.
type GatewaySender struct {
	email   EmailSender
	gateway string
	logger  *logging.Logger
}

// NewGatewaySender creates a gateway sender, or nil when the gateway address
// or email transport is absent.
func NewGatewaySender(email EmailSender, gateway string, logger *logging.Logger) *GatewaySender {
	if email == nil || gateway == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GatewaySender{email: email, gateway: gateway, logger: logger}
}

// SendSMS emails the message to the gateway address. The recipient number is
// part of the gateway address, so `to` is ignored beyond logging.
func (g *GatewaySender) SendSMS(ctx context.Context, to, body string) error {
	subject := body
	if len(subject) > 50 {
		subject = subject[:50] + "..."
	}
	err := g.email.Send(ctx, EmailMessage{
		To:      g.gateway,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: sms via email gateway failed: %w", err)
	}
	g.logger.Info("sms sent via email gateway", "gateway", g.gateway, "operator", to)
	return nil
}

const (
	// SMSProviderTwilio identifies the paid Twilio path.
	SMSProviderTwilio = "twilio"
	// SMSProviderGateway identifies the free carrier-gateway path.
	SMSProviderGateway = "gateway"
)

// SMSProviderConfig captures the credentials required to build an SMS sender.
type SMSProviderConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	GatewayAddress   string
}

// BuildSMSSender instantiates an SMSSender from whatever is configured.
// Twilio takes priority when all three of its credentials are present; the
// email gateway is the fallback and needs a working email transport. Returns
// the sender and the provider that was selected, or (nil, "") when neither
// path is configured.
func BuildSMSSender(cfg SMSProviderConfig, email EmailSender, logger *logging.Logger) (SMSSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger), SMSProviderTwilio
	}
	if gw := NewGatewaySender(email, cfg.GatewayAddress, logger); gw != nil {
		return gw, SMSProviderGateway
	}
	return nil, ""
}

var _ SMSSender = (*TwilioSender)(nil)
var _ SMSSender = (*GatewaySender)(nil)
