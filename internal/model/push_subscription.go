package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscribers watch individual lockers and are notified when one cycles back
// to free after its contents were picked up.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Lockers []*Locker `gorm:"many2many:subscription_locker_mapping;"`
}
