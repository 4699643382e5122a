package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-fleet-backend/internal/orders"
	"locker-fleet-backend/internal/store"
)

type checkoutRequest struct {
	DeliveryMethod string `json:"deliveryMethod" binding:"required,oneof=pickup shipping"`
}

// BeginCheckout is the pre-payment gate: a pickup checkout is refused while
// no locker is free, so the customer never pays for an unfulfillable order.
func (h *Handler) BeginCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.BeginCheckout(c.Request.Context(), req.DeliveryMethod); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ready for payment"})
}

type captureRequest struct {
	PaymentRef     string  `json:"paymentRef" binding:"required"`
	CustomerName   string  `json:"customerName"`
	CustomerEmail  string  `json:"customerEmail"`
	Total          float64 `json:"total"`
	DeliveryMethod string  `json:"deliveryMethod" binding:"required,oneof=pickup shipping"`
}

// CaptureOrder completes checkout: captures the payment, records the order
// idempotently on the payment reference and claims a locker for pickup
// orders. A duplicate capture returns the original order unchanged.
func (h *Handler) CaptureOrder(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CompleteCheckout(c.Request.Context(), orders.CaptureInput{
		PaymentRef:     req.PaymentRef,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		Total:          req.Total,
		DeliveryMethod: req.DeliveryMethod,
	})
	if errors.Is(err, orders.ErrAllocationConflict) {
		// Payment settled but the pool drained; the customer must reach
		// support rather than see a generic failure.
		c.JSON(http.StatusConflict, gin.H{
			"error":          "payment completed but no locker could be assigned, please contact support",
			"order":          order,
			"contactSupport": true,
		})
		return
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "payment completed and order created",
		"order":      order,
		"lockerCode": order.LockerCode,
	})
}

// ListOrders returns all orders, most recent first (administrative).
func (h *Handler) ListOrders(c *gin.Context) {
	list, err := h.store.ListOrders(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrder returns one order by ID (administrative).
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.store.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
