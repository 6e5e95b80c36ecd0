package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nishant946/masset/internal/apperr"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the PayPal Orders v2 API using basic auth.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	timeout      time.Duration
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      timeout,
		http:         &http.Client{},
	}
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	if err := c.post(ctx, "create_order", "/v2/checkout/orders", "", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder moves the money for an approved order. The order id doubles
// as PayPal-Request-Id so a retried request is not processed twice.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"

	var capture Capture
	if err := c.post(ctx, "capture", path, orderID, nil, &capture); err != nil {
		return nil, err
	}
	return &capture, nil
}

func (c *Client) post(ctx context.Context, op, path, requestID string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.ExternalProvider(err, "failed to encode request")
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return apperr.ExternalProvider(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderCall(op, "error", time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("PayPal request timed out", "operation", op, "timeout", c.timeout.String())
			return apperr.ExternalProvider(err, "payment provider timed out")
		}
		logger.Error("PayPal request failed", "operation", op, "error", err)
		return apperr.ExternalProvider(err, "payment provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordProviderCall(op, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return apperr.ExternalProvider(err, "failed to read provider response")
	}

	logger.Debug("PayPal response", "operation", op, "status", resp.StatusCode, "body", string(raw))

	if resp.StatusCode >= http.StatusMultipleChoices {
		logger.Error("PayPal returned an error",
			"operation", op,
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return apperr.ExternalProvider(fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode), "payment provider rejected the request")
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.Error("PayPal response is not valid JSON", "operation", op, "body", string(raw))
		return apperr.ExternalProvider(err, "malformed provider response")
	}
	return nil
}
