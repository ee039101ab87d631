package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
	Configured() bool
}

// HTTPGatewaySender posts messages to a provider-agnostic SMS gateway.
type HTTPGatewaySender struct {
	url    string
	client *http.Client
}

// NewHTTPGatewaySender constructs a gateway sender; an empty URL disables SMS.
func NewHTTPGatewaySender(url string) *HTTPGatewaySender {
	return &HTTPGatewaySender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a gateway URL is set.
func (s *HTTPGatewaySender) Configured() bool {
	return s.url != ""
}

// Send posts one message to the gateway.
func (s *HTTPGatewaySender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{"to": phone, "message": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
