package models

import "time"

// Broadcast is an ephemeral, optionally location-tagged announcement.
type Broadcast struct {
	ID            int       `db:"id" json:"id"`
	User          string    `db:"usr" json:"user"`
	Note          string    `db:"note" json:"note"`
	Lat           *float64  `db:"lat" json:"lat"`
	Lon           *float64  `db:"lon" json:"lon"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	DeleteToken   string    `db:"delete_token" json:"-"`
	DurationHours *float64  `db:"duration_hours" json:"duration_hours"`
	DeviceID      *string   `db:"device_id" json:"device_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BroadcastView is the API-facing shape of a broadcast. The delete token is
// never part of it; it is returned exactly once, from the create response.
type BroadcastView struct {
	ID            int      `json:"id"`
	User          string   `json:"user"`
	Note          string   `json:"note"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	ExpiresAt     string   `json:"expires_at"`
	DurationHours *float64 `json:"duration_hours"`
}

// View renders the broadcast for listing responses with the wire timestamp
// format (RFC3339 UTC).
func (b Broadcast) View() BroadcastView {
	return BroadcastView{
		ID:            b.ID,
		User:          b.User,
		Note:          b.Note,
		Lat:           b.Lat,
		Lon:           b.Lon,
		ExpiresAt:     b.ExpiresAt.UTC().Format(time.RFC3339),
		DurationHours: b.DurationHours,
	}
}
