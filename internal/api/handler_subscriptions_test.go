package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscription(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeScale{}, &fakeNotifier{})

	w := doRequest(t, router, http.MethodPut, "/api/subscriptions", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, &fakeScale{}, &fakeNotifier{})
	endpoint := "https://push.example.com/send/abc%2Bdef"

	w := doRequest(t, router, http.MethodPut, "/api/subscriptions", map[string]any{
		"endpoint":            endpoint,
		"p256dh":              "key",
		"auth":                "secret",
		"subscribed_vehicles": []int64{3, 7},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The endpoint is matched without URL decoding.
	w = doRequest(t, router, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_vehicles":[3,7]}`, w.Body.String())

	w = doRequest(t, router, http.MethodDelete, "/api/subscriptions", map[string]string{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/subscriptions?endpoint="+url.QueryEscape("x"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeScale{}, &fakeNotifier{})

	w := doRequest(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
}
