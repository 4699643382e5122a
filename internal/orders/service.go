package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"locker-fleet-backend/internal/code"
	"locker-fleet-backend/internal/model"
	"locker-fleet-backend/internal/payment"
	"locker-fleet-backend/internal/store"
)

// ErrAllocationConflict means payment settled but no locker could be claimed.
// The order is persisted in needs_support so payment proof survives; support
// resolves it by refund or manual assignment.
var ErrAllocationConflict = errors.New("payment captured but no locker available")

// Service orchestrates checkout: payment capture, idempotent order creation
// and locker allocation. It invokes the allocation engine at most once per
// distinct paid order, deduplicating capture retries on the payment ref.
type Service struct {
	store      store.Store
	capturer   payment.Capturer
	codeLength int
}

// NewService creates the order orchestrator.
func NewService(st store.Store, capturer payment.Capturer, codeLength int) *Service {
	return &Service{store: st, capturer: capturer, codeLength: codeLength}
}

// CaptureInput is one completed customer checkout ready for capture.
type CaptureInput struct {
	PaymentRef     string
	CustomerName   string
	CustomerEmail  string
	Total          float64
	DeliveryMethod string
}

// BeginCheckout runs the pre-payment availability check. A pickup checkout
// must not initiate payment while the pool is exhausted; availability can
// still change before capture, which CompleteCheckout handles separately.
func (s *Service) BeginCheckout(ctx context.Context, deliveryMethod string) error {
	if deliveryMethod != model.DeliveryPickup {
		return nil
	}

	free, err := s.store.CountFreeLockers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check locker availability: %w", err)
	}
	if free == 0 {
		return store.ErrNoFreeLocker
	}
	return nil
}

// CompleteCheckout captures the payment, records the order and claims a
// locker for pickup orders. Retried captures return the original order and
// its pickup code without touching the pool again.
func (s *Service) CompleteCheckout(ctx context.Context, in CaptureInput) (*model.Order, error) {
	if err := s.capturer.Capture(ctx, in.PaymentRef); err != nil {
		return nil, fmt.Errorf("payment capture failed: %w", err)
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		PaymentRef:     in.PaymentRef,
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		Total:          in.Total,
		Status:         model.OrderStatusProcessed,
		DeliveryMethod: in.DeliveryMethod,
	}

	order, wasNew, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if !wasNew {
		// Duplicate capture: this payment ref was already processed.
		log.Printf("duplicate capture for payment ref %q, returning order %s", in.PaymentRef, order.ID)
		return order, nil
	}

	if in.DeliveryMethod != model.DeliveryPickup {
		return order, nil
	}

	locker, err := s.store.Allocate(ctx, order.ID, func() (string, error) {
		return code.Generate(s.codeLength)
	})
	if errors.Is(err, store.ErrNoFreeLocker) {
		// The pool drained between pre-check and capture. The payment stands;
		// park the order for support instead of surfacing a generic failure.
		if setErr := s.store.SetOrderStatus(ctx, order.ID, model.OrderStatusNeedsSupport); setErr != nil {
			log.Printf("failed to park order %s for support: %v", order.ID, setErr)
		}
		order.Status = model.OrderStatusNeedsSupport
		return order, ErrAllocationConflict
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.BindOrderLocker(ctx, order.ID, locker.PhysicalID, *locker.Code); err != nil {
		return nil, err
	}
	order.LockerPhysicalID = &locker.PhysicalID
	order.LockerCode = locker.Code
	return order, nil
}
