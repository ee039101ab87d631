package models

// PushSubscription stores a browser push channel registered by a client.
type PushSubscription struct {
	ID       int    `db:"id" json:"id"`
	Endpoint string `db:"endpoint" json:"endpoint"`
	P256dh   string `db:"p256dh" json:"p256dh"`
	Auth     string `db:"auth" json:"auth"`
}

// SMSSubscriber is a phone number that receives broadcast alerts.
type SMSSubscriber struct {
	Phone string `db:"phone" json:"phone"`
}
