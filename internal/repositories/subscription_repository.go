package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"popup-service/internal/models"
)

// PushSubscriptionRepository abstracts push subscription persistence.
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, endpoint, p256dh, auth string) error
	List(ctx context.Context) ([]models.PushSubscription, error)
	DeleteByIDs(ctx context.Context, ids []int) error
}

// PushSubscriptionRepo is a sqlx implementation of PushSubscriptionRepository.
type PushSubscriptionRepo struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepo constructs a PushSubscriptionRepo.
func NewPushSubscriptionRepo(db *sqlx.DB) *PushSubscriptionRepo {
	return &PushSubscriptionRepo{db: db}
}

// Upsert stores a subscription; re-subscribing an existing endpoint is a no-op.
func (r *PushSubscriptionRepo) Upsert(ctx context.Context, endpoint, p256dh, auth string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (endpoint, p256dh, auth) VALUES ($1, $2, $3)
         ON CONFLICT (endpoint) DO NOTHING`, endpoint, p256dh, auth)
	return err
}

// List returns every registered subscription.
func (r *PushSubscriptionRepo) List(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT id, endpoint, p256dh, auth FROM push_subscriptions`)
	return subs, err
}

// DeleteByIDs removes subscriptions in one batch.
func (r *PushSubscriptionRepo) DeleteByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

// SMSSubscriberRepository abstracts the SMS subscriber set.
type SMSSubscriberRepository interface {
	Upsert(ctx context.Context, phone string) error
	List(ctx context.Context) ([]models.SMSSubscriber, error)
}

// SMSSubscriberRepo is a sqlx implementation of SMSSubscriberRepository.
type SMSSubscriberRepo struct {
	db *sqlx.DB
}

// NewSMSSubscriberRepo constructs a SMSSubscriberRepo.
func NewSMSSubscriberRepo(db *sqlx.DB) *SMSSubscriberRepo {
	return &SMSSubscriberRepo{db: db}
}

// Upsert adds a phone number; re-subscribing is a no-op.
func (r *SMSSubscriberRepo) Upsert(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sms_subscribers (phone) VALUES ($1) ON CONFLICT (phone) DO NOTHING`, phone)
	return err
}

// List returns every subscribed phone number.
func (r *SMSSubscriberRepo) List(ctx context.Context) ([]models.SMSSubscriber, error) {
	var subs []models.SMSSubscriber
	err := r.db.SelectContext(ctx, &subs, `SELECT phone FROM sms_subscribers`)
	return subs, err
}
