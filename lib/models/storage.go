package models

import "time"

// KeyValue backs device-local state that is stored as one opaque blob per key.
type KeyValue struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// SeenNotification records that a notification was already surfaced to the
// user, so it is not surfaced again after a restart.
type SeenNotification struct {
	UserID         string `gorm:"primaryKey"`
	NotificationID string `gorm:"primaryKey"`
	SeenAt         time.Time
}
