package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter() *gin.Engine {
	r := gin.Default()
	handler := NewHandler(nil, nil, nil, nil, nil)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	return r
}

func TestPutSubscription(t *testing.T) {
	router := setupSubscriptionRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptionRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.CreateLocker(context.Background(), "LCK-01")
	assert.NoError(t, err)

	body := gin.H{
		"endpoint":           "https://push.example/sub-1",
		"p256dh":             "key",
		"auth":               "auth",
		"subscribed_lockers": []string{"LCK-01"},
	}
	w := env.do(t, http.MethodPut, "/api/subscriptions", body, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/subscriptions?endpoint=https://push.example/sub-1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_lockers":["LCK-01"]}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example/sub-1"}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/subscriptions?endpoint=https://push.example/sub-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
