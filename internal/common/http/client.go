// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"loan-dashboard/internal/common/metrics"
)

const RequestIDHeader = "X-Request-ID"

const tracerName = "loan-dashboard/http"

// Client is an instrumented HTTP client: every request gets a correlation id,
// a client span and a prometheus observation labelled by operation.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWith wraps an existing client, e.g. an httptest server's.
func NewClientWith(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

func (c *Client) Do(ctx context.Context, operation string, req *http.Request) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "loanservice."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.SetAttributes(attribute.String("http.request.id", req.Header.Get(RequestIDHeader)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayRequests.WithLabelValues(operation, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.GatewayRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
