package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tinytelemetry/packetstream/internal/model"
)

// RequestIDHeader carries a per-send identifier for log correlation.
const RequestIDHeader = "X-Request-ID"

// TransportError reports a send that never produced an HTTP response.
type TransportError struct {
	URL       string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: request %s to %s failed: %v", e.RequestID, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options holds tunables for the HTTP client.
type Options struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// Client talks to the ingestion service's packages endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client for the packages endpoint at url.
// A bare service URL such as http://host:5000 is completed with the packages path.
func New(url string, opts ...Options) *Client {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		url:  PackagesURL(url),
		http: httpClient,
	}
}

// PackagesURL appends the packages path when url does not already end with it.
func PackagesURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if strings.HasSuffix(trimmed, model.PackagesPath) {
		return trimmed
	}
	return trimmed + model.PackagesPath
}

// URL returns the packages endpoint used by the client.
func (c *Client) URL() string {
	return c.url
}

// SendResult describes one Accept call.
type SendResult struct {
	Status    int
	RequestID string
}

// OK reports whether the service acknowledged the record.
func (r SendResult) OK() bool {
	return r.Status == http.StatusOK
}

// Send posts rec as a JSON object. A non-200 status is not an error;
// failures to obtain any response are returned as *TransportError.
func (c *Client) Send(ctx context.Context, rec model.Record) (SendResult, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return SendResult{}, errors.Wrap(err, "client: marshal record")
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, errors.Wrap(err, "client: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{RequestID: requestID}, &TransportError{URL: c.url, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return SendResult{Status: resp.StatusCode, RequestID: requestID}, nil
}

// List fetches the currently retained packages, oldest first.
func (c *Client) List(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "client: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("client: list returned status %d", resp.StatusCode)
	}

	var out []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "client: decode list")
	}
	return out, nil
}
