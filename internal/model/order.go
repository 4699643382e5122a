package model

import "time"

// Order statuses. An order that paid but could not get a locker is parked in
// needs_support instead of failing silently; payment proof must never be lost.
const (
	OrderStatusProcessed    = "processed"
	OrderStatusNeedsSupport = "needs_support"
)

// Delivery methods.
const (
	DeliveryPickup   = "pickup"
	DeliveryShipping = "shipping"
)

// Order is the paid-order record the locker pool is allocated against.
// PaymentRef is the external payment capture reference and doubles as the
// idempotency key: a retried capture maps onto the same row.
type Order struct {
	ID             string  `gorm:"primaryKey;size:64" json:"id"`
	PaymentRef     string  `gorm:"uniqueIndex;size:128;not null" json:"paymentRef"`
	CustomerName   string  `gorm:"size:256" json:"customerName"`
	CustomerEmail  string  `gorm:"size:256" json:"customerEmail"`
	Total          float64 `gorm:"not null" json:"total"`
	Status         string  `gorm:"size:32;not null" json:"status"`
	DeliveryMethod string  `gorm:"size:32;not null" json:"deliveryMethod"`

	// Filled in once a locker is claimed for the order.
	LockerPhysicalID *string `gorm:"size:64" json:"lockerPhysicalId"`
	LockerCode       *string `gorm:"size:16" json:"lockerCode"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
