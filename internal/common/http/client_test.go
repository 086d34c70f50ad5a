package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-dashboard/internal/common/metrics"
)

func TestClient_Do_SetsRequestIDAndCounts(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.GatewayRequests.WithLabelValues("probe", "418"))

	client := NewClient(time.Second)
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), "probe", req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	_, parseErr := uuid.Parse(seen)
	assert.NoError(t, parseErr)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GatewayRequests.WithLabelValues("probe", "418")))
}

func TestClient_Do_KeepsCallerRequestID(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "fixed-id")

	resp, err := NewClientWith(server.Client()).Do(context.Background(), "probe", req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "fixed-id", seen)
}

func TestClient_Do_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	_, err = NewClient(time.Second).Do(context.Background(), "probe", req)
	assert.Error(t, err)
}
