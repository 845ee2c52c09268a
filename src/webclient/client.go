package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NewDefault returns an HTTP client with sane timeouts.
func NewDefault(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// ErrInvalidBody marks a 2xx response whose body is not JSON. It is retried
// like any other failed attempt.
var ErrInvalidBody = errors.New("webclient: response body is not valid JSON")

// PostJSON marshals payload once and POSTs it to url under policy, returning
// the body of the first 2xx response that parses as JSON.
func PostJSON(ctx context.Context, client *http.Client, url string, payload any, policy Policy) ([]byte, error) {
	if client == nil {
		client = NewDefault(0)
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, MarkTerminal(fmt.Errorf("marshal payload: %w", err))
	}

	_, body, err := DoWithRetry(ctx, policy, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, MarkTerminal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.StatusCode, b, &StatusError{Status: resp.StatusCode, Body: b}
		}
		if !json.Valid(b) {
			return resp.StatusCode, b, fmt.Errorf("%w (status %d)", ErrInvalidBody, resp.StatusCode)
		}
		return resp.StatusCode, b, nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
