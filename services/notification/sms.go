package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMSSender texts one phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// FormatPhone turns a local number into international form: a leading 0 is
// replaced by +countryCode, and bare digits get a + prefix.
func FormatPhone(phone, countryCode string) string {
	p := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.TrimSpace(phone))
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "00"):
		return "+" + p[2:]
	case strings.HasPrefix(p, "0"):
		return "+" + countryCode + p[1:]
	case strings.HasPrefix(p, countryCode):
		return "+" + p
	}
	return "+" + countryCode + p
}

// HTTPSMSSender posts to a JSON SMS gateway.
type HTTPSMSSender struct {
	URL         string
	APIKey      string
	Sender      string
	CountryCode string
	Client      *http.Client
}

func NewHTTPSMSSender(url, apiKey, sender, countryCode string) *HTTPSMSSender {
	return &HTTPSMSSender{
		URL:         url,
		APIKey:      apiKey,
		Sender:      sender,
		CountryCode: countryCode,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

func (s *HTTPSMSSender) Send(ctx context.Context, phone, message string) error {
	to := FormatPhone(phone, s.CountryCode)
	if to == "" {
		return fmt.Errorf("sms: empty phone number")
	}
	body, err := json.Marshal(smsPayload{To: to, From: s.Sender, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", to, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// LogSMSSender only logs. It stands in when no gateway is configured.
type LogSMSSender struct {
	Logger *zap.Logger
}

func (s LogSMSSender) Send(_ context.Context, phone, message string) error {
	s.Logger.Info("sms skipped, gateway not configured", zap.String("phone", phone), zap.Int("length", len(message)))
	return nil
}
