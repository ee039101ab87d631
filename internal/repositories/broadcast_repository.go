package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"popup-service/internal/models"
)

// DefaultDurationHours is applied when a creation request carries no duration.
const DefaultDurationHours = 12.0

// CreateBroadcastParams carries validated fields into the store. Now is the
// canonical clock reading for both created_at and the expiry computation.
type CreateBroadcastParams struct {
	User          string
	Note          string
	Lat           *float64
	Lon           *float64
	DurationHours *float64
	DeviceID      *string
	Now           time.Time
}

// BroadcastRepository abstracts broadcast persistence.
type BroadcastRepository interface {
	Create(ctx context.Context, params CreateBroadcastParams) (models.Broadcast, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Broadcast, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByDevice(ctx context.Context, deviceID string) (bool, error)
}

// BroadcastRepo is a sqlx implementation of BroadcastRepository.
type BroadcastRepo struct {
	db *sqlx.DB
}

// NewBroadcastRepo constructs a BroadcastRepo.
func NewBroadcastRepo(db *sqlx.DB) *BroadcastRepo {
	return &BroadcastRepo{db: db}
}

// Create inserts a broadcast, assigning id, expiry and delete token. When the
// request carries a device id, the transaction takes an advisory lock on that
// id before removing any live broadcast for it, so two concurrent creations
// for one device cannot both leave a live row.
func (r *BroadcastRepo) Create(ctx context.Context, params CreateBroadcastParams) (models.Broadcast, error) {
	hours := DefaultDurationHours
	if params.DurationHours != nil {
		hours = *params.DurationHours
	}
	now := params.Now.UTC()
	expiresAt := now.Add(time.Duration(hours * float64(time.Hour)))

	token, err := newDeleteToken()
	if err != nil {
		return models.Broadcast{}, fmt.Errorf("generate delete token: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Broadcast{}, err
	}
	defer tx.Rollback()

	if params.DeviceID != nil && *params.DeviceID != "" {
		// Under READ COMMITTED the DELETE does not block a concurrent insert
		// for the same device, so serialize on a transaction-scoped advisory
		// lock keyed by the device id.
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, *params.DeviceID); err != nil {
			return models.Broadcast{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM broadcasts WHERE device_id=$1 AND expires_at > $2`,
			*params.DeviceID, now); err != nil {
			return models.Broadcast{}, err
		}
	}

	var b models.Broadcast
	row := tx.QueryRowxContext(ctx,
		`INSERT INTO broadcasts (usr, note, lat, lon, expires_at, delete_token, duration_hours, device_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING id, usr, note, lat, lon, expires_at, delete_token, duration_hours, device_id, created_at`,
		params.User, params.Note, params.Lat, params.Lon, expiresAt, token,
		params.DurationHours, params.DeviceID, now)
	if err := row.StructScan(&b); err != nil {
		return models.Broadcast{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Broadcast{}, err
	}
	return b, nil
}

// ListActive returns non-expired broadcasts ordered by ascending expiry.
func (r *BroadcastRepo) ListActive(ctx context.Context, now time.Time) ([]models.Broadcast, error) {
	var broadcasts []models.Broadcast
	err := r.db.SelectContext(ctx, &broadcasts,
		`SELECT id, usr, note, lat, lon, expires_at, delete_token, duration_hours, device_id, created_at
         FROM broadcasts WHERE expires_at > $1 ORDER BY expires_at ASC`, now.UTC())
	return broadcasts, err
}

// DeleteByToken removes the broadcast matching the token, expired or not.
func (r *BroadcastRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM broadcasts WHERE delete_token=$1`, token)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpired purges rows past their expiry and reports how many went.
func (r *BroadcastRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM broadcasts WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByDevice removes any broadcast tied to the device.
func (r *BroadcastRepo) DeleteByDevice(ctx context.Context, deviceID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM broadcasts WHERE device_id=$1`, deviceID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func newDeleteToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
