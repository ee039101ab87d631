package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"popup-service/internal/models"
	"popup-service/internal/observability"
	"popup-service/internal/repositories"
)

// PushPayload is the JSON body delivered to push endpoints.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Dispatcher fans broadcast notifications out to push and SMS subscribers.
type Dispatcher struct {
	pushRepo repositories.PushSubscriptionRepository
	smsRepo  repositories.SMSSubscriberRepository
	push     PushSender
	sms      SMSSender
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(
	pushRepo repositories.PushSubscriptionRepository,
	smsRepo repositories.SMSSubscriberRepository,
	push PushSender,
	sms SMSSender,
) *Dispatcher {
	return &Dispatcher{pushRepo: pushRepo, smsRepo: smsRepo, push: push, sms: sms}
}

// NotifyCreated alerts every registered subscriber about a new broadcast.
// Delivery is best-effort: individual failures are logged and never abort the
// pass, and nothing is retried within the same call.
func (d *Dispatcher) NotifyCreated(ctx context.Context, b models.Broadcast) {
	body := fmt.Sprintf("%s — %s", b.User, b.Note)
	d.FanOutPush(ctx, PushPayload{Title: "Someone’s out!", Body: body})
	d.fanOutSMS(ctx, body)
}

// FanOutPush delivers the payload to every push subscription, pruning
// endpoints the provider reports gone. Exported for the push diagnostics
// endpoint.
func (d *Dispatcher) FanOutPush(ctx context.Context, payload PushPayload) {
	if !d.push.Configured() {
		log.Println("push: VAPID keys not configured, skipping fan-out")
		return
	}

	subs, err := d.pushRepo.List(ctx)
	if err != nil {
		log.Printf("push: failed to list subscriptions: %v", err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("push: failed to marshal payload: %v", err)
		return
	}

	var gone []int
	for _, sub := range subs {
		status, err := d.push.Send(ctx, sub, body)
		if err != nil {
			log.Printf("push: delivery failed id=%d endpoint=%s: %v", sub.ID, sub.Endpoint, err)
			observability.IncPushDelivery("error")
			continue
		}
		switch {
		case status == http.StatusNotFound || status == http.StatusGone:
			log.Printf("push: endpoint gone id=%d status=%d", sub.ID, status)
			observability.IncPushDelivery("gone")
			gone = append(gone, sub.ID)
		case status >= 200 && status < 300:
			observability.IncPushDelivery("ok")
		default:
			log.Printf("push: unexpected status id=%d status=%d", sub.ID, status)
			observability.IncPushDelivery("error")
		}
	}

	if len(gone) > 0 {
		if err := d.pushRepo.DeleteByIDs(ctx, gone); err != nil {
			log.Printf("push: failed to prune %d subscriptions: %v", len(gone), err)
			return
		}
		log.Printf("push: pruned %d gone subscriptions", len(gone))
	}
}

// fanOutSMS texts every subscriber. Phone numbers have no provider-verified
// "gone" signal, so a failing number is never removed.
func (d *Dispatcher) fanOutSMS(ctx context.Context, message string) {
	if !d.sms.Configured() {
		return
	}

	subs, err := d.smsRepo.List(ctx)
	if err != nil {
		log.Printf("sms: failed to list subscribers: %v", err)
		return
	}

	for _, sub := range subs {
		if err := d.sms.Send(ctx, sub.Phone, message); err != nil {
			log.Printf("sms: delivery failed phone=%s: %v", sub.Phone, err)
			observability.IncSMSDelivery("error")
			continue
		}
		observability.IncSMSDelivery("ok")
	}
}
