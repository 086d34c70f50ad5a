package loanservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/models"
)

type recordedRequest struct {
	method string
	path   string
	query  string
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, recordedRequest{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery})
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/loans/", 2*time.Second, logger.NewTestLogger(t)), &seen
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		call       func(ctx context.Context, c *Client) error
		wantMethod string
		wantPath   string
		wantQuery  string
	}{
		{
			name:       "list all",
			call:       func(ctx context.Context, c *Client) error { _, err := c.ListAll(ctx); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/loans/all",
		},
		{
			name:       "list by user",
			call:       func(ctx context.Context, c *Client) error { _, err := c.ListByUser(ctx, "u 1"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/loans/user/u%201",
		},
		{
			name: "update status",
			call: func(ctx context.Context, c *Client) error {
				return c.UpdateStatus(ctx, "a1", models.StatusApproved)
			},
			wantMethod: http.MethodPut,
			wantPath:   "/api/loans/update-status/a1",
			wantQuery:  "status=APPROVED",
		},
		{
			name: "disburse",
			call: func(ctx context.Context, c *Client) error {
				return c.Disburse(ctx, "a1", decimal.RequireFromString("250000.50"))
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/loans/disburse/a1",
			wantQuery:  "amount=250000.5",
		},
		{
			name:       "list emis",
			call:       func(ctx context.Context, c *Client) error { _, err := c.ListEMIs(ctx, "a1"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/loans/emi/a1",
		},
		{
			name:       "pay emi",
			call:       func(ctx context.Context, c *Client) error { return c.PayEMI(ctx, "r9") },
			wantMethod: http.MethodPost,
			wantPath:   "/api/loans/emi/pay/r9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, seen := newTestClient(t, respond(http.StatusOK, `[]`))

			require.NoError(t, tt.call(context.Background(), client))
			require.Len(t, *seen, 1)
			got := (*seen)[0]
			assert.Equal(t, tt.wantMethod, got.method)
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantQuery, got.query)
		})
	}
}

func TestClient_ListAll_Normalizes(t *testing.T) {
	client, _ := newTestClient(t, respond(http.StatusOK, `[
		{"applicationId": 1, "name": "Asha", "purpose": "Home", "loanAmount": "1000", "status": "PENDING", "createdAt": "2024-01-15T00:00:00"},
		{"applicationId": "2", "name": "Ravi", "purpose": "Car", "loanAmount": "oops", "status": "APPROVED", "applicationDate": "2024-02-01"}
	]`))

	apps, err := client.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)

	assert.Equal(t, "1", apps[0].ApplicationID)
	assert.True(t, decimal.NewFromInt(1000).Equal(apps[0].LoanAmount))
	assert.True(t, apps[1].LoanAmount.IsZero())
	assert.Equal(t, 2024, apps[1].SubmittedAt.Year())
}

func TestClient_ListAll_NonArrayBodies(t *testing.T) {
	for _, body := range []string{`null`, ``, `{"content": []}`, `"nothing"`} {
		t.Run(body, func(t *testing.T) {
			client, _ := newTestClient(t, respond(http.StatusOK, body))
			apps, err := client.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, apps)
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	client, _ := newTestClient(t, respond(http.StatusOK, `[{`))
	_, err := client.ListEMIs(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDecodeFailed, errors.CodeOf(err))
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantServerMsg string
		wantRetryable bool
	}{
		{"server message", http.StatusInternalServerError, `{"message":"server down"}`, "server down", true},
		{"forbidden without message", http.StatusForbidden, `{"error":"Forbidden"}`, "", false},
		{"plain text body", http.StatusBadGateway, `bad gateway`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, respond(tt.status, tt.body))

			_, err := client.ListByUser(context.Background(), "u1")
			require.Error(t, err)

			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeNetwork, stdErr.Code)
			assert.Equal(t, tt.status, stdErr.HTTPStatus)
			assert.Equal(t, tt.wantServerMsg, stdErr.ServerMessage)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client := NewClient(base, time.Second, logger.NewNoOpLogger())
	err := client.PayEMI(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetwork, errors.CodeOf(err))
	assert.Equal(t, "Failed to process EMI payment", errors.UserMessage(err, "Failed to process EMI payment"))
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("", time.Second, nil)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}
