package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Transport performs the read-only HTTP calls the client needs.
// Implementations must report non-2xx responses as *StatusError.
type Transport interface {
	// Get issues a GET and decodes the JSON body into v.
	Get(ctx context.Context, url string, v any) (http.Header, error)
	// Head issues a HEAD; the body is discarded.
	Head(ctx context.Context, url string) (http.Header, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

const maxErrorBody = 2048

// HTTPTransport is the default Transport backed by an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client gets a 10s timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, url string, v any) (http.Header, error) {
	resp, err := t.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return resp.Header, nil
}

func (t *HTTPTransport) Head(ctx context.Context, url string) (http.Header, error) {
	resp, err := t.do(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	closeBody(resp.Body)
	return resp.Header, nil
}

func (t *HTTPTransport) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		closeBody(resp.Body)
		return nil, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(b),
		}
	}
	return resp, nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}
