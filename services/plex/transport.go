package plex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
)

var (
	ErrUnauthorized   = errors.New("plex: unauthorized")
	ErrNotFound       = errors.New("plex: not found")
	ErrBadRequest     = errors.New("plex: bad request")
	ErrNotOnWatchlist = errors.New("plex: item is not on the watchlist")
)

// StatusError is returned for any non-success HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("plex %s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("plex %s failed: status %d: %s", e.Op, e.StatusCode, body)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// Temporary reports whether retrying the call may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsTransient reports whether err is worth retrying: throttling, server-side
// failures, and network errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// request describes one API call. It is rebuilt on every retry attempt.
type request struct {
	op     string
	method string
	url    string
	token  string
	form   url.Values
	ok     []int
}

func (r request) accepts(status int) bool {
	if len(r.ok) == 0 {
		return status == http.StatusOK
	}
	for _, s := range r.ok {
		if s == status {
			return true
		}
	}
	return false
}

// do performs the request with rate limiting and retries, decoding a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	attempt := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("rate limiter wait: %w", err))
			}
		}

		var body io.Reader
		if r.form != nil {
			body = strings.NewReader(r.form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
		}

		c.setPlexHeaders(req)
		if r.form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if r.token != "" {
			req.Header.Set("X-Plex-Token", r.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("plex api request: %w", err)
		}
		defer resp.Body.Close()

		if !r.accepts(resp.StatusCode) {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
			return &StatusError{Op: r.op, StatusCode: resp.StatusCode, Body: string(msg)}
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Unrecoverable(fmt.Errorf("decode %s response: %w", r.op, err))
		}
		return nil
	}

	return retry.Do(
		attempt,
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Err(err).Str("op", r.op).Uint("attempt", n+1).Msg("retrying plex request")
		}),
	)
}
