package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"popup-service/internal/models"
	"popup-service/internal/rabbitmq"
	"popup-service/internal/repositories"
	"popup-service/internal/stream"
	"popup-service/internal/telemetry"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("broadcast not found")
)

// Stream event names.
const (
	EventNewBroadcast = "new_broadcast"
	EventRefresh      = "refresh"
)

// AMQP routing keys for lifecycle mirroring.
const (
	RoutingKeyCreated = "broadcasts.created"
	RoutingKeyDeleted = "broadcasts.deleted"
	RoutingKeyReaped  = "broadcasts.reaped"
)

// Notifier is the out-of-band notification fan-out.
type Notifier interface {
	NotifyCreated(ctx context.Context, b models.Broadcast)
}

// FlexHours is a duration in hours that decodes from a JSON number or a
// numeric string.
type FlexHours float64

func (h *FlexHours) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(strings.Trim(string(data), `"`), 64)
	if err != nil {
		return fmt.Errorf("duration_hours: %w", err)
	}
	*h = FlexHours(v)
	return nil
}

// CreateBroadcastRequest carries the client's creation fields.
type CreateBroadcastRequest struct {
	User          string     `json:"user"`
	Note          string     `json:"note"`
	Lat           *float64   `json:"lat"`
	Lon           *float64   `json:"lon"`
	DurationHours *FlexHours `json:"duration_hours"`
	DeviceID      *string    `json:"device_id"`
}

// BroadcastEventPayload is the stream payload for a new broadcast. It never
// carries the delete token.
type BroadcastEventPayload struct {
	User      string `json:"user"`
	Note      string `json:"note"`
	ExpiresAt string `json:"expires_at"`
}

// RefreshEventPayload tells idle listeners the active set changed.
type RefreshEventPayload struct {
	Action string `json:"action"`
	Count  int64  `json:"count,omitempty"`
}

type lifecycleEvent struct {
	Action    string `json:"action"`
	ID        int    `json:"id,omitempty"`
	User      string `json:"user,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Count     int64  `json:"count,omitempty"`
}

// BroadcastService coordinates the broadcast lifecycle: validation, storage,
// stream fan-out and notification dispatch.
type BroadcastService struct {
	repo      repositories.BroadcastRepository
	hub       *stream.Hub
	notifier  Notifier
	publisher rabbitmq.Publisher
	audit     *telemetry.AuditEmitter
	now       func() time.Time
}

// NewBroadcastService builds a BroadcastService.
func NewBroadcastService(
	repo repositories.BroadcastRepository,
	hub *stream.Hub,
	notifier Notifier,
	publisher rabbitmq.Publisher,
	audit *telemetry.AuditEmitter,
) *BroadcastService {
	return &BroadcastService{
		repo:      repo,
		hub:       hub,
		notifier:  notifier,
		publisher: publisher,
		audit:     audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *BroadcastService) WithClock(now func() time.Time) *BroadcastService {
	s.now = now
	return s
}

// Create validates and stores a broadcast, announces it to live listeners and
// hands it to the notifier. The notifier runs detached from the request so
// provider latency never delays the response.
func (s *BroadcastService) Create(ctx context.Context, req CreateBroadcastRequest) (models.Broadcast, error) {
	ctx, span := otel.Tracer("popup-service/service").Start(ctx, "broadcast.create")
	defer span.End()

	user := strings.TrimSpace(req.User)
	note := strings.TrimSpace(req.Note)
	if user == "" || note == "" {
		return models.Broadcast{}, fmt.Errorf("%w: missing user or note", ErrValidation)
	}
	if req.DurationHours != nil && !(*req.DurationHours > 0) {
		return models.Broadcast{}, fmt.Errorf("%w: duration_hours must be positive", ErrValidation)
	}

	b, err := s.repo.Create(ctx, repositories.CreateBroadcastParams{
		User:          user,
		Note:          note,
		Lat:           req.Lat,
		Lon:           req.Lon,
		DurationHours: (*float64)(req.DurationHours),
		DeviceID:      req.DeviceID,
		Now:           s.now(),
	})
	if err != nil {
		return models.Broadcast{}, fmt.Errorf("create broadcast: %w", err)
	}

	expiresAt := b.ExpiresAt.UTC().Format(time.RFC3339)
	s.hub.Publish(EventNewBroadcast, BroadcastEventPayload{
		User:      b.User,
		Note:      b.Note,
		ExpiresAt: expiresAt,
	})
	s.mirror(ctx, RoutingKeyCreated, lifecycleEvent{
		Action:    "created",
		ID:        b.ID,
		User:      b.User,
		ExpiresAt: expiresAt,
	})
	s.audit.Emit(ctx, "INFO", fmt.Sprintf("broadcast %d created", b.ID), "")

	go s.notifier.NotifyCreated(context.Background(), b)

	return b, nil
}

// Delete removes the broadcast matching the token. An unknown token reports
// ErrNotFound whether it never existed or was already reaped.
func (s *BroadcastService) Delete(ctx context.Context, token string) error {
	ctx, span := otel.Tracer("popup-service/service").Start(ctx, "broadcast.delete")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing delete_token", ErrValidation)
	}

	removed, err := s.repo.DeleteByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("delete broadcast: %w", err)
	}
	if !removed {
		return ErrNotFound
	}

	s.hub.Publish(EventRefresh, RefreshEventPayload{Action: "deleted"})
	s.mirror(ctx, RoutingKeyDeleted, lifecycleEvent{Action: "deleted"})
	s.audit.Emit(ctx, "INFO", "broadcast deleted", "")
	return nil
}

// ListActive returns all non-expired broadcasts, soonest to expire first.
func (s *BroadcastService) ListActive(ctx context.Context) ([]models.Broadcast, error) {
	return s.repo.ListActive(ctx, s.now())
}

func (s *BroadcastService) mirror(ctx context.Context, routingKey string, event lifecycleEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("lifecycle mirror failed routing_key=%s: %v", routingKey, err)
	}
}
