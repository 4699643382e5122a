package model

import (
	"errors"
	"time"
)

// Locker state machine values. State is logical availability, Gate and Led are
// commands the device picks up on its next poll.
const (
	StateFree     = "free"
	StateOccupied = "occupied"

	GateOpen  = "open"
	GateClose = "close"

	LedOn  = "on"
	LedOff = "off"
)

var (
	// ErrAlreadyOccupied is returned when claiming a locker that is not free.
	ErrAlreadyOccupied = errors.New("locker is already occupied")
	// ErrNotOccupied is returned when an operation requires an occupied locker.
	ErrNotOccupied = errors.New("locker is not occupied")
)

// Locker represents one physical pickup unit. PhysicalID is the stable hardware
// identifier and never changes after creation; everything else cycles as the
// locker is claimed and released.
type Locker struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	PhysicalID string `gorm:"uniqueIndex;size:64;not null" json:"physicalId"`
	State      string `gorm:"size:16;not null;default:free" json:"state"`
	Gate       string `gorm:"size:16;not null;default:close" json:"gate"`
	Led        string `gorm:"size:16;not null;default:off" json:"led"`
	Sensor1    bool   `gorm:"not null;default:false" json:"sensor1"`
	Sensor2    bool   `gorm:"not null;default:false" json:"sensor2"`
	Sensor3    bool   `gorm:"not null;default:false" json:"sensor3"`

	// OrderID and Code are present iff the locker is occupied.
	OrderID *string `gorm:"uniqueIndex;size:64" json:"orderId"`
	Code    *string `gorm:"uniqueIndex;size:16" json:"code"`

	// Device health, maintained by report stamps and the watchdog sweep.
	LastReportAt *time.Time `json:"lastReportAt"`
	Offline      bool       `gorm:"not null;default:false" json:"offline"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Empty reports whether all presence sensors read the empty value.
func (l *Locker) Empty() bool {
	return !l.Sensor1 && !l.Sensor2 && !l.Sensor3
}

// Claim binds a free locker to an order. Re-claiming an occupied locker is
// rejected rather than overwritten; only a sensor-confirmed reset (or the
// administrative override) can free it again. The device is commanded sealed
// and dark until the customer presents the code.
func (l *Locker) Claim(orderID, code string) error {
	if l.State != StateFree {
		return ErrAlreadyOccupied
	}
	l.State = StateOccupied
	l.Gate = GateClose
	l.Led = LedOff
	l.OrderID = &orderID
	l.Code = &code
	return nil
}

// Reset returns an occupied locker to the free state: the order binding and
// access code are cleared and the device is commanded to close and go dark.
func (l *Locker) Reset() {
	l.State = StateFree
	l.Gate = GateClose
	l.Led = LedOff
	l.OrderID = nil
	l.Code = nil
}

// CommandOpen marks the gate to be opened on the device's next poll. It does
// not release the locker; that transition belongs to sensor-confirmed removal.
func (l *Locker) CommandOpen() error {
	if l.State != StateOccupied {
		return ErrNotOccupied
	}
	l.Gate = GateOpen
	l.Led = LedOn
	return nil
}
