package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"vendorhub/internal/config"
)

// TwilioError is a non-success response from the Twilio API
type TwilioError struct {
	StatusCode int
	Message    string
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio API error (status %d): %s", e.StatusCode, e.Message)
}

// recipientFault reports whether err was caused by the request itself, such as
// a bad number, rather than by Twilio being unavailable. Rate limiting is not.
func recipientFault(err error) bool {
	var te *TwilioError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode >= 400 && te.StatusCode < 500 && te.StatusCode != http.StatusTooManyRequests
}

// WhatsAppSender delivers notifications as WhatsApp messages through Twilio
type WhatsAppSender struct {
	cfg     *config.WhatsAppConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewWhatsAppSender creates a WhatsApp sender with default HTTP client
func NewWhatsAppSender(cfg *config.WhatsAppConfig) *WhatsAppSender {
	return NewWhatsAppSenderWithClient(cfg, &http.Client{Timeout: 10 * time.Second})
}

// NewWhatsAppSenderWithClient creates a WhatsApp sender with custom HTTP client
func NewWhatsAppSenderWithClient(cfg *config.WhatsAppConfig, client *http.Client) *WhatsAppSender {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		// A rejected recipient must not open the circuit for every other one
		IsSuccessful: func(err error) bool {
			return err == nil || recipientFault(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[WHATSAPP] Circuit %s: %s -> %s", name, from, to)
		},
	})
	return &WhatsAppSender{cfg: cfg, client: client, breaker: breaker}
}

// Name returns "whatsapp"
func (s *WhatsAppSender) Name() string {
	return "whatsapp"
}

// Send sends the text of content to phoneNumber
func (s *WhatsAppSender) Send(ctx context.Context, phoneNumber string, content Content) error {
	body := content.Text
	if content.Subject != "" {
		body = "*" + content.Subject + "*\n\n" + body
	}

	if !s.cfg.Enabled {
		log.Printf("[WHATSAPP] Would send to %s: %s", phoneNumber, content.Subject)
		return nil
	}

	switch strings.ToLower(s.cfg.Provider) {
	case "twilio":
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.sendViaTwilio(ctx, phoneNumber, body)
		})
		return err
	case "console", "dev", "development":
		log.Printf("[WHATSAPP] Would send to %s: %s", phoneNumber, content.Subject)
		return nil
	default:
		return fmt.Errorf("unsupported WhatsApp provider: %s", s.cfg.Provider)
	}
}

// normalizePhone ensures an E.164-style number with a leading +
func (s *WhatsAppSender) normalizePhone(phoneNumber string) string {
	var digits strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if strings.HasPrefix(strings.TrimSpace(phoneNumber), "+") {
		return "+" + normalized
	}
	normalized = strings.TrimPrefix(normalized, "0")
	if s.cfg.DefaultCountryCode != "" && len(normalized) <= 10 {
		normalized = s.cfg.DefaultCountryCode + normalized
	}
	return "+" + normalized
}

// sendViaTwilio posts the message to Twilio's Messages API
func (s *WhatsAppSender) sendViaTwilio(ctx context.Context, phoneNumber, body string) error {
	if s.cfg.TwilioSID == "" || s.cfg.TwilioAuth == "" || s.cfg.TwilioFrom == "" {
		return fmt.Errorf("twilio WhatsApp not properly configured")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(s.cfg.APIBaseURL, "/"), s.cfg.TwilioSID)

	form := url.Values{}
	form.Set("From", "whatsapp:"+s.normalizePhone(s.cfg.TwilioFrom))
	form.Set("To", "whatsapp:"+s.normalizePhone(phoneNumber))
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.TwilioSID, s.cfg.TwilioAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errorResp)
		return &TwilioError{StatusCode: resp.StatusCode, Message: errorResp.Message}
	}

	return nil
}
