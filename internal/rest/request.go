package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/walletdesk/bitget-relay/internal/auth"
)

// successCode is the venue's "ok" value in the REST response envelope.
const successCode = "00000"

// APIError represents a failed venue REST call, either at the HTTP layer
// or via a non-success envelope code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("venue api error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("venue api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// envelope is the venue's standard REST response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// doRequest performs one signed request. The signature covers the full
// path including the query string, so callers pass them pre-joined.
func (c *Client) doRequest(ctx context.Context, creds auth.Credentials, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range creds.RESTHeaders(auth.Timestamp(), method, path, "") {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Code != "" && env.Code != successCode {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Msg,
			Body:       body,
		}
	}

	return env.Data, nil
}

// doWithRetry performs a request with exponential backoff retry. The
// signature is recomputed per attempt so the ACCESS-TIMESTAMP stays fresh.
func (c *Client) doWithRetry(ctx context.Context, creds auth.Credentials, method, path string) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		data, err := c.doRequest(ctx, creds, method, path)
		if err == nil {
			return data, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a signed GET with retries and decodes the envelope's data.
func (c *Client) get(ctx context.Context, creds auth.Credentials, path string, result any) error {
	data, err := c.doWithRetry(ctx, creds, http.MethodGet, path)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
