package notify

import (
	"context"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"popup-service/internal/models"
)

// PushSender attempts a single web push delivery and reports the provider's
// HTTP status code.
type PushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error)
	Configured() bool
}

// WebPushConfig carries the VAPID key pair handed out at deploy time.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// WebPushSender delivers notifications through the web push protocol.
type WebPushSender struct {
	cfg    WebPushConfig
	client *http.Client
}

// NewWebPushSender constructs a WebPushSender.
func NewWebPushSender(cfg WebPushConfig) *WebPushSender {
	return &WebPushSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether both VAPID keys are present.
func (s *WebPushSender) Configured() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// Send pushes the payload to one subscription endpoint.
func (s *WebPushSender) Send(_ context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             3600,
		HTTPClient:      s.client,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
