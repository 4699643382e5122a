package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeviceKeyHeader is the header embedded controllers present on their routes.
const DeviceKeyHeader = "X-Device-Key"

// DeviceKey gates device-facing routes on a shared key. An empty configured
// key leaves the route open, matching deployments where the fleet sits on a
// trusted network segment.
func DeviceKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		presented := c.GetHeader(DeviceKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid device key"})
			return
		}
		c.Next()
	}
}

// Actuation admits callers allowed to command gate/led/state: either a device
// presenting the shared key or an authenticated administrator. With no device
// key configured the admin check still applies; the route is open only when
// neither credential is configured at all.
func Actuation(jwtSecret, deviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deviceKey != "" {
			presented := c.GetHeader(DeviceKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(deviceKey)) == 1 {
				c.Next()
				return
			}
		}
		if jwtSecret != "" {
			if identity, ok := identityFromRequest(c, jwtSecret); ok && identity.Role == "admin" {
				c.Set(identityKey, identity)
				c.Next()
				return
			}
		}
		if deviceKey == "" && jwtSecret == "" {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "device key or admin token required"})
	}
}
