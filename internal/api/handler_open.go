package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-fleet-backend/internal/mw"
)

type openLockerRequest struct {
	Code       string `json:"code" binding:"required"`
	PhysicalID string `json:"physicalId"`
}

// OpenLockerByCode validates a presented pickup code and commands the
// matching locker to open on the device's next poll. The locker remains
// occupied until its sensors confirm the item was removed.
//
// The configured override code is the administrative escape hatch for stuck
// units: it force-closes and frees the locker, and requires an admin token.
func (h *Handler) OpenLockerByCode(c *gin.Context) {
	var req openLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	if h.cfg.Locker.OverrideCode != "" && req.Code == h.cfg.Locker.OverrideCode {
		h.forceRelease(c, req.PhysicalID)
		return
	}

	locker, err := h.store.OpenByCode(c.Request.Context(), req.Code, req.PhysicalID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "open command sent",
		"physicalId": locker.PhysicalID,
	})
}

func (h *Handler) forceRelease(c *gin.Context, physicalID string) {
	identity, ok := mw.IdentityFrom(c)
	if !ok || identity.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "override code requires an admin token"})
		return
	}
	if physicalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "physicalId is required with the override code"})
		return
	}

	locker, err := h.store.ForceRelease(c.Request.Context(), physicalID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "locker force-released",
		"physicalId": locker.PhysicalID,
		"locker":     locker,
	})
}
