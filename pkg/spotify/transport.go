package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// apiErrorBody is the Web API's error envelope.
type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// call makes an HTTP request to the Web API with retry logic.
//
// It handles:
// - Bearer token acquisition and refresh
// - Query string construction
// - Response parsing (JSON) into out, which may be nil for 204 responses
// - Rate-limit and server-error retry with exponential backoff
// - Context cancellation
func (c *Client) call(ctx context.Context, method, path string, params url.Values, body io.Reader, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var bodyBytes []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		bodyBytes = b
	}

	var lastErr error
	backoff := 1 * time.Second
	maxRetries := 3

	for i := 0; i < maxRetries; i++ {
		c.logDebugf("spotify: %s %s (attempt %d/%d)", method, path, i+1, maxRetries)

		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = strings.NewReader(string(bodyBytes))
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", "resonate/1.0")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetryNetworkError(err) && i < maxRetries-1 {
				c.logDebugf("spotify: network error, retrying: %v", err)
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return fmt.Errorf("http request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if resp.StatusCode >= 400 {
			apiErr := parseAPIError(resp.StatusCode, respBody)
			lastErr = apiErr
			if apiErr.Temporary() && i < maxRetries-1 {
				wait := retryAfter(resp, backoff)
				c.logDebugf("spotify: transient error %d, retrying in %v", apiErr.Status, wait)
				if !sleep(ctx, wait) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return apiErr
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	return lastErr
}

// get performs a GET request against the Web API.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, params, nil, out)
}

// put performs a PUT request with a JSON body against the Web API.
func (c *Client) put(ctx context.Context, path string, params url.Values, body io.Reader) error {
	return c.call(ctx, http.MethodPut, path, params, body, nil)
}

// parseAPIError builds a structured error from an error response, falling
// back to the raw body when the envelope does not decode.
func parseAPIError(status int, body []byte) *Error {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &Error{Status: status, Message: envelope.Error.Message}
	}
	return &Error{Status: status, Message: strings.TrimSpace(string(body))}
}

// retryAfter honors the Retry-After header on 429 responses, falling back
// to the current backoff.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// shouldRetryNetworkError reports whether a transport-level error is worth
// retrying (timeouts and temporary network conditions).
func shouldRetryNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// sleep waits for d or until the context is cancelled, reporting whether
// the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// nextBackoff doubles the delay, capped at 30 seconds.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
