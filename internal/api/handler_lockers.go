package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-fleet-backend/internal/store"
)

type createLockerRequest struct {
	PhysicalID string `json:"physicalId" binding:"required"`
}

// CreateLocker registers a new physical unit (administrative).
func (h *Handler) CreateLocker(c *gin.Context) {
	var req createLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "physicalId is required"})
		return
	}

	locker, err := h.store.CreateLocker(c.Request.Context(), req.PhysicalID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "locker created", "locker": locker})
}

// ListLockers returns the whole fleet (administrative).
func (h *Handler) ListLockers(c *gin.Context) {
	lockers, err := h.store.ListLockers(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, lockers)
}

// GetLocker returns the current state of one unit. The device uses the
// returned gate/led values as its next actuation instruction.
func (h *Handler) GetLocker(c *gin.Context) {
	locker, err := h.store.GetLocker(c.Request.Context(), c.Param("physicalId"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, locker)
}

// DeleteLocker decommissions a unit; refused while occupied (administrative).
func (h *Handler) DeleteLocker(c *gin.Context) {
	if err := h.store.DeleteLocker(c.Request.Context(), c.Param("physicalId")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "locker decommissioned"})
}

type updateLockerRequest struct {
	Sensor1 *bool   `json:"sensor1"`
	Sensor2 *bool   `json:"sensor2"`
	Sensor3 *bool   `json:"sensor3"`
	Gate    *string `json:"gate" binding:"omitempty,oneof=open close"`
	Led     *string `json:"led" binding:"omitempty,oneof=on off"`
	State   *string `json:"state" binding:"omitempty,oneof=free occupied"`
}

// UpdateLocker is the device/admin state push: sensors plus gate/led/state
// actuation, with partial-update semantics. It triggers the auto-reset policy
// when an occupied locker reports all sensors empty.
func (h *Handler) UpdateLocker(c *gin.Context) {
	var req updateLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := store.DeviceReport{
		Sensor1:   req.Sensor1,
		Sensor2:   req.Sensor2,
		Sensor3:   req.Sensor3,
		Gate:      req.Gate,
		Led:       req.Led,
		State:     req.State,
		Actuation: true,
	}

	locker, wasReset, err := h.store.ApplyDeviceReport(c.Request.Context(), c.Param("physicalId"), report)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if wasReset {
		h.pool.Dispatch(locker.ID)
		c.JSON(http.StatusOK, gin.H{"message": "locker emptied and reset to free", "locker": locker})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "locker state updated", "locker": locker})
}

type updateSensorsRequest struct {
	Sensor1 *bool `json:"sensor1"`
	Sensor2 *bool `json:"sensor2"`
	Sensor3 *bool `json:"sensor3"`
}

// UpdateSensors is the narrow device channel: sensor fields only.
func (h *Handler) UpdateSensors(c *gin.Context) {
	var req updateSensorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sensor1 == nil && req.Sensor2 == nil && req.Sensor3 == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no sensor values provided"})
		return
	}

	report := store.DeviceReport{
		Sensor1: req.Sensor1,
		Sensor2: req.Sensor2,
		Sensor3: req.Sensor3,
	}

	locker, wasReset, err := h.store.ApplyDeviceReport(c.Request.Context(), c.Param("physicalId"), report)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if wasReset {
		h.pool.Dispatch(locker.ID)
		c.JSON(http.StatusOK, gin.H{"message": "locker emptied and reset to free", "locker": locker})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sensor values updated", "locker": locker})
}
