// Package loanservice is the client for the remote loan-service REST API.
package loanservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loan-dashboard/internal/common/errors"
	dashhttp "loan-dashboard/internal/common/http"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/models"
)

const DefaultBaseURL = "http://localhost:8732/api/loans"

// Operation names, used as metric labels and span names.
const (
	OpListAll      = "list_all"
	OpListByUser   = "list_by_user"
	OpUpdateStatus = "update_status"
	OpDisburse     = "disburse"
	OpListEMIs     = "list_emis"
	OpPayEMI       = "pay_emi"
)

const maxErrorBody = 4096

type Client struct {
	baseURL    string
	httpClient *dashhttp.Client
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return NewClientWith(baseURL, dashhttp.NewClient(timeout), log)
}

func NewClientWith(baseURL string, httpClient *dashhttp.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// ListAll returns every application. Used for ADMIN principals.
func (c *Client) ListAll(ctx context.Context) ([]models.LoanApplication, error) {
	return c.listApplications(ctx, OpListAll, c.baseURL+"/all")
}

// ListByUser returns the applications owned by userID.
func (c *Client) ListByUser(ctx context.Context, userID string) ([]models.LoanApplication, error) {
	return c.listApplications(ctx, OpListByUser, fmt.Sprintf("%s/user/%s", c.baseURL, url.PathEscape(userID)))
}

func (c *Client) UpdateStatus(ctx context.Context, applicationID string, status models.Status) error {
	endpoint := fmt.Sprintf("%s/update-status/%s?%s", c.baseURL, url.PathEscape(applicationID),
		url.Values{"status": {string(status)}}.Encode())
	_, err := c.send(ctx, OpUpdateStatus, http.MethodPut, endpoint)
	return err
}

func (c *Client) Disburse(ctx context.Context, applicationID string, amount decimal.Decimal) error {
	endpoint := fmt.Sprintf("%s/disburse/%s?%s", c.baseURL, url.PathEscape(applicationID),
		url.Values{"amount": {amount.String()}}.Encode())
	_, err := c.send(ctx, OpDisburse, http.MethodPost, endpoint)
	return err
}

func (c *Client) ListEMIs(ctx context.Context, applicationID string) ([]models.EMIRecord, error) {
	endpoint := fmt.Sprintf("%s/emi/%s", c.baseURL, url.PathEscape(applicationID))
	body, err := c.send(ctx, OpListEMIs, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	wire, err := decodeList[models.WireEMI](OpListEMIs, body)
	if err != nil {
		return nil, err
	}

	emis := make([]models.EMIRecord, 0, len(wire))
	for _, w := range wire {
		emi, issues := models.NormalizeEMI(w)
		c.reportIssues(OpListEMIs, emi.ID, issues)
		emis = append(emis, emi)
	}
	return emis, nil
}

func (c *Client) PayEMI(ctx context.Context, repaymentID string) error {
	endpoint := fmt.Sprintf("%s/emi/pay/%s", c.baseURL, url.PathEscape(repaymentID))
	_, err := c.send(ctx, OpPayEMI, http.MethodPost, endpoint)
	return err
}

func (c *Client) listApplications(ctx context.Context, operation, endpoint string) ([]models.LoanApplication, error) {
	body, err := c.send(ctx, operation, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	wire, err := decodeList[models.WireApplication](operation, body)
	if err != nil {
		return nil, err
	}

	apps := make([]models.LoanApplication, 0, len(wire))
	for _, w := range wire {
		app, issues := models.NormalizeApplication(w)
		c.reportIssues(operation, app.ApplicationID, issues)
		apps = append(apps, app)
	}
	return apps, nil
}

func (c *Client) send(ctx context.Context, operation, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, errors.NewTransportError(operation, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, operation, req)
	if err != nil {
		c.logger.Error("Loan service request failed", map[string]interface{}{
			"operation": operation,
			"method":    method,
			"url":       endpoint,
			"error":     err,
		})
		return nil, errors.NewTransportError(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(operation, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		serverMessage := extractMessage(body)
		c.logger.Warn("Loan service returned error status", map[string]interface{}{
			"operation":     operation,
			"status":        resp.StatusCode,
			"serverMessage": serverMessage,
		})
		return nil, errors.NewHTTPStatusError(operation, resp.StatusCode, serverMessage, string(snippet))
	}

	c.logger.Debug("Loan service request completed", map[string]interface{}{
		"operation": operation,
		"status":    resp.StatusCode,
		"requestId": req.Header.Get(dashhttp.RequestIDHeader),
	})
	return body, nil
}

func (c *Client) reportIssues(operation, id string, issues []string) {
	for _, issue := range issues {
		c.logger.Warn("Coerced malformed loan service field", map[string]interface{}{
			"operation": operation,
			"id":        id,
			"issue":     issue,
		})
	}
}

// decodeList reads a JSON array. An empty body, null, or any non-array value
// decodes to an empty list; only invalid JSON is an error.
func decodeList[T any](operation string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, errors.NewDecodeError(operation, fmt.Errorf("invalid JSON body"))
	}
	if trimmed[0] != '[' {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, errors.NewDecodeError(operation, err)
	}
	return items, nil
}

// extractMessage returns the "message" field of a JSON error body.
func extractMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var msg string
	if err := json.Unmarshal(payload.Message, &msg); err != nil {
		return ""
	}
	return strings.TrimSpace(msg)
}
