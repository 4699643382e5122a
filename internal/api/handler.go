package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"locker-fleet-backend/config"
	"locker-fleet-backend/internal/notification"
	"locker-fleet-backend/internal/orders"
	"locker-fleet-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg     *config.Config
	store   store.Store
	orders  *orders.Service
	pool    *notification.WorkerPool
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, s store.Store, ordersSvc *orders.Service, pool *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   s,
		orders:  ordersSvc,
		pool:    pool,
		webpush: webpushOptions,
	}
}

// respondStoreError maps store sentinels onto HTTP statuses. Anything not in
// the taxonomy is a storage failure and stays a 500.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "locker not found"})
	case errors.Is(err, store.ErrDuplicateLocker):
		c.JSON(http.StatusConflict, gin.H{"error": "a locker with that physical id already exists"})
	case errors.Is(err, store.ErrNoFreeLocker):
		c.JSON(http.StatusConflict, gin.H{"error": "no lockers available"})
	case errors.Is(err, store.ErrLockerOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": "locker is currently occupied"})
	case errors.Is(err, store.ErrInvalidCode):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired code"})
	case errors.Is(err, store.ErrStaleCode):
		c.JSON(http.StatusConflict, gin.H{"error": "code is no longer active"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
