package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locker-fleet-backend/internal/model"
)

// allocationAttempts bounds the claim retry loop. A retry happens when a
// generated code collides or when a concurrent checkout wins the claim race.
const allocationAttempts = 3

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateLocker(ctx context.Context, physicalID string) (*model.Locker, error)
	GetLocker(ctx context.Context, physicalID string) (*model.Locker, error)
	ListLockers(ctx context.Context) ([]model.Locker, error)
	DeleteLocker(ctx context.Context, physicalID string) error
	CountFreeLockers(ctx context.Context) (int64, error)

	Allocate(ctx context.Context, orderID string, newCode func() (string, error)) (*model.Locker, error)
	ApplyDeviceReport(ctx context.Context, physicalID string, report DeviceReport) (*model.Locker, bool, error)
	OpenByCode(ctx context.Context, code, physicalID string) (*model.Locker, error)
	ForceRelease(ctx context.Context, physicalID string) (*model.Locker, error)

	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, bool, error)
	BindOrderLocker(ctx context.Context, orderID, physicalID, lockerCode string) error
	SetOrderStatus(ctx context.Context, orderID, status string) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)

	MarkStaleOffline(ctx context.Context, now time.Time, threshold time.Duration) ([]string, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for collaborators that run their own
// queries (subscription handlers, notification workers).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateLocker registers one physical unit. The row persists for the life of
// the hardware and cycles between free and occupied many times.
func (s *gormStore) CreateLocker(ctx context.Context, physicalID string) (*model.Locker, error) {
	locker := model.Locker{
		PhysicalID: physicalID,
		State:      model.StateFree,
		Gate:       model.GateClose,
		Led:        model.LedOff,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Locker{}).Where("physical_id = ?", physicalID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for existing locker: %w", err)
		}
		if count > 0 {
			return ErrDuplicateLocker
		}
		if err := tx.Create(&locker).Error; err != nil {
			return fmt.Errorf("failed to create locker %q: %w", physicalID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &locker, nil
}

func (s *gormStore) GetLocker(ctx context.Context, physicalID string) (*model.Locker, error) {
	var locker model.Locker
	err := s.db.WithContext(ctx).Where("physical_id = ?", physicalID).First(&locker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load locker %q: %w", physicalID, err)
	}
	return &locker, nil
}

func (s *gormStore) ListLockers(ctx context.Context) ([]model.Locker, error) {
	var lockers []model.Locker
	if err := s.db.WithContext(ctx).Order("physical_id").Find(&lockers).Error; err != nil {
		return nil, fmt.Errorf("failed to list lockers: %w", err)
	}
	return lockers, nil
}

// DeleteLocker decommissions a unit. It refuses while the locker is occupied;
// the conditional delete re-checks the state so a concurrent claim cannot
// slip through between the read and the delete.
func (s *gormStore) DeleteLocker(ctx context.Context, physicalID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locker model.Locker
		if err := tx.Where("physical_id = ?", physicalID).First(&locker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load locker %q: %w", physicalID, err)
		}

		res := tx.Where("id = ? AND state = ?", locker.ID, model.StateFree).Delete(&model.Locker{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete locker %q: %w", physicalID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrLockerOccupied
		}

		if err := tx.Exec("DELETE FROM subscription_locker_mapping WHERE locker_id = ?", locker.ID).Error; err != nil {
			return fmt.Errorf("failed to clear subscriptions for locker %q: %w", physicalID, err)
		}
		return nil
	})
}

func (s *gormStore) CountFreeLockers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Locker{}).Where("state = ?", model.StateFree).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count free lockers: %w", err)
	}
	return count, nil
}

// Allocate atomically claims one free locker for the order and binds a fresh
// pickup code to it. The transition runs through Locker.Claim and persists
// behind a conditional UPDATE guarded on state = free, so two concurrent
// checkouts can never bind the same unit: the loser's update matches zero
// rows and the attempt retries against the remaining pool. A pickup code
// colliding with a concurrent claim trips the unique index and likewise
// consumes one retry.
func (s *gormStore) Allocate(ctx context.Context, orderID string, newCode func() (string, error)) (*model.Locker, error) {
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		pickupCode, err := newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pickup code: %w", err)
		}

		var out model.Locker
		var claimed bool
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var locker model.Locker
			if err := tx.Where("state = ?", model.StateFree).Order("id").First(&locker).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNoFreeLocker
				}
				return fmt.Errorf("failed to find a free locker: %w", err)
			}

			if err := locker.Claim(orderID, pickupCode); err != nil {
				return err
			}

			res := tx.Model(&model.Locker{}).
				Where("id = ? AND state = ?", locker.ID, model.StateFree).
				Updates(map[string]any{
					"state":    locker.State,
					"order_id": locker.OrderID,
					"code":     locker.Code,
					"gate":     locker.Gate,
					"led":      locker.Led,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to claim locker %q: %w", locker.PhysicalID, res.Error)
			}
			if res.RowsAffected == 0 {
				return nil // a concurrent checkout won this row
			}
			claimed = true
			out = locker
			return nil
		})
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		if !claimed {
			continue
		}
		return &out, nil
	}
	return nil, ErrNoFreeLocker
}

// isUniqueViolation recognizes a unique index rejection from either backing
// database. The sqlite driver does not translate these to
// gorm.ErrDuplicatedKey, so the raw messages are matched too.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

// ApplyDeviceReport is the reconciliation core. Sensor readings are applied
// to the locker; if an occupied unit now senses empty on all three points of
// a full frame, the customer has retrieved the item and Locker.Reset frees
// it. Otherwise the report lands as a partial update. The returned record
// carries the commanded gate/led values the device actuates on its next
// poll; the second return value reports whether an auto-reset happened.
func (s *gormStore) ApplyDeviceReport(ctx context.Context, physicalID string, report DeviceReport) (*model.Locker, bool, error) {
	var out model.Locker
	var wasReset bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locker model.Locker
		if err := tx.Where("physical_id = ?", physicalID).First(&locker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load locker %q: %w", physicalID, err)
		}

		now := time.Now().UTC()

		if report.Sensor1 != nil {
			locker.Sensor1 = *report.Sensor1
		}
		if report.Sensor2 != nil {
			locker.Sensor2 = *report.Sensor2
		}
		if report.Sensor3 != nil {
			locker.Sensor3 = *report.Sensor3
		}

		if locker.State == model.StateOccupied && report.FullFrame() && locker.Empty() {
			// Item removed: free the locker and clear the binding. The guard
			// on state keeps a racing report from resetting twice.
			locker.Reset()
			res := tx.Model(&model.Locker{}).
				Where("id = ? AND state = ?", locker.ID, model.StateOccupied).
				Updates(map[string]any{
					"state":          locker.State,
					"gate":           locker.Gate,
					"led":            locker.Led,
					"order_id":       locker.OrderID,
					"code":           locker.Code,
					"sensor1":        locker.Sensor1,
					"sensor2":        locker.Sensor2,
					"sensor3":        locker.Sensor3,
					"last_report_at": now,
					"offline":        false,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to reset locker %q: %w", physicalID, res.Error)
			}
			wasReset = res.RowsAffected > 0
		} else {
			if report.Actuation {
				if report.Gate != nil {
					locker.Gate = *report.Gate
				}
				if report.Led != nil {
					locker.Led = *report.Led
				}
				if report.State != nil {
					locker.State = *report.State
				}
			}

			updates := map[string]any{
				"state":          locker.State,
				"gate":           locker.Gate,
				"led":            locker.Led,
				"sensor1":        locker.Sensor1,
				"sensor2":        locker.Sensor2,
				"sensor3":        locker.Sensor3,
				"last_report_at": now,
				"offline":        false,
			}
			if err := tx.Model(&model.Locker{}).Where("id = ?", locker.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update locker %q: %w", physicalID, err)
			}
		}

		if err := tx.Where("id = ?", locker.ID).First(&out).Error; err != nil {
			return fmt.Errorf("failed to reload locker %q: %w", physicalID, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, wasReset, nil
}

// OpenByCode validates a presented pickup code and commands the matching
// locker to open. The locker stays occupied: only a sensor-confirmed removal
// releases it, so guessing a code cannot free someone else's unit.
func (s *gormStore) OpenByCode(ctx context.Context, pickupCode, physicalID string) (*model.Locker, error) {
	var out model.Locker

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if physicalID != "" {
			var count int64
			if err := tx.Model(&model.Locker{}).Where("physical_id = ?", physicalID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check locker %q: %w", physicalID, err)
			}
			if count == 0 {
				return ErrNotFound
			}
		}

		q := tx.Where("code = ?", pickupCode)
		if physicalID != "" {
			q = q.Where("physical_id = ?", physicalID)
		}

		var locker model.Locker
		if err := q.First(&locker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("failed to look up code: %w", err)
		}

		// A code still bound to a freed locker no longer opens anything.
		if err := locker.CommandOpen(); err != nil {
			return ErrStaleCode
		}

		res := tx.Model(&model.Locker{}).
			Where("id = ? AND state = ?", locker.ID, model.StateOccupied).
			Updates(map[string]any{"gate": locker.Gate, "led": locker.Led})
		if res.Error != nil {
			return fmt.Errorf("failed to command open on %q: %w", locker.PhysicalID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleCode
		}

		out = locker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForceRelease is the administrative escape hatch for stuck units: it closes
// and frees the locker without waiting for sensor confirmation.
func (s *gormStore) ForceRelease(ctx context.Context, physicalID string) (*model.Locker, error) {
	var out model.Locker

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locker model.Locker
		if err := tx.Where("physical_id = ?", physicalID).First(&locker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load locker %q: %w", physicalID, err)
		}

		locker.Reset()
		err := tx.Model(&model.Locker{}).
			Where("id = ?", locker.ID).
			Updates(map[string]any{
				"state":    locker.State,
				"gate":     locker.Gate,
				"led":      locker.Led,
				"order_id": locker.OrderID,
				"code":     locker.Code,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to force-release locker %q: %w", physicalID, err)
		}

		out = locker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder inserts a paid order keyed on its external payment reference.
// A retried capture hits the unique key, inserts nothing and gets the prior
// row back; the boolean reports whether this call created the order.
func (s *gormStore) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_ref"}},
		DoNothing: true,
	}).Create(order)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create order: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var existing model.Order
		if err := s.db.WithContext(ctx).Where("payment_ref = ?", order.PaymentRef).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("failed to load order for payment ref %q: %w", order.PaymentRef, err)
		}
		return &existing, false, nil
	}
	return order, true, nil
}

func (s *gormStore) BindOrderLocker(ctx context.Context, orderID, physicalID, lockerCode string) error {
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"locker_physical_id": physicalID, "locker_code": lockerCode}).Error
	if err != nil {
		return fmt.Errorf("failed to bind locker to order %q: %w", orderID, err)
	}
	return nil
}

func (s *gormStore) SetOrderStatus(ctx context.Context, orderID, status string) error {
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to set status on order %q: %w", orderID, err)
	}
	return nil
}

func (s *gormStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %q: %w", id, err)
	}
	return &order, nil
}

func (s *gormStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// MarkStaleOffline flags lockers whose device has not reported within the
// threshold. Returns the physical IDs flagged by this sweep.
func (s *gormStore) MarkStaleOffline(ctx context.Context, now time.Time, threshold time.Duration) ([]string, error) {
	cutoff := now.Add(-threshold)
	var flagged []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []model.Locker
		err := tx.Where("offline = ? AND last_report_at IS NOT NULL AND last_report_at < ?", false, cutoff).
			Find(&stale).Error
		if err != nil {
			return fmt.Errorf("failed to find stale lockers: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]int64, len(stale))
		for i, l := range stale {
			ids[i] = l.ID
			flagged = append(flagged, l.PhysicalID)
		}

		if err := tx.Model(&model.Locker{}).Where("id IN ?", ids).Update("offline", true).Error; err != nil {
			return fmt.Errorf("failed to flag stale lockers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flagged, nil
}
