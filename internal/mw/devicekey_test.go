package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actuationRouter(jwtSecret, deviceKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/actuate", Actuation(jwtSecret, deviceKey), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestActuation(t *testing.T) {
	const secret = "secret"
	const key = "device-key"

	t.Run("device key admits the device", func(t *testing.T) {
		r := actuationRouter(secret, key)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/actuate", nil)
		req.Header.Set(DeviceKeyHeader, key)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin token admits without a device key", func(t *testing.T) {
		r := actuationRouter(secret, key)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/actuate", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t, secret))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("anonymous caller is refused", func(t *testing.T) {
		r := actuationRouter(secret, key)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/actuate", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty device key still requires an admin token", func(t *testing.T) {
		r := actuationRouter(secret, "")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/actuate", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodPut, "/actuate", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t, secret))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("open only when nothing is configured", func(t *testing.T) {
		r := actuationRouter("", "")
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/actuate", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDeviceKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/poll", DeviceKey("device-key"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("matching key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/poll", nil)
		req.Header.Set(DeviceKeyHeader, "device-key")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/poll", nil)
		req.Header.Set(DeviceKeyHeader, "nope")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
