package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/responses"
)

type retryPolicy struct {
	rateLimitWaits   []time.Duration
	serverErrorWaits []time.Duration
}

var defaultRetry = retryPolicy{
	rateLimitWaits:   []time.Duration{20 * time.Second, 45 * time.Second},
	serverErrorWaits: []time.Duration{2 * time.Second, 10 * time.Second},
}

// call retries rate-limit and server errors with fixed waits. Other errors
// and context cancellation return immediately.
func (p retryPolicy) call(ctx context.Context, fn func(context.Context) (*responses.Response, error)) (*responses.Response, error) {
	attempts := 1 + max(len(p.rateLimitWaits), len(p.serverErrorWaits))
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var waits []time.Duration
		switch {
		case isRateLimitError(err):
			waits = p.rateLimitWaits
		case isServerError(err):
			waits = p.serverErrorWaits
		default:
			return nil, err
		}
		if attempt >= len(waits) {
			break
		}

		timer := time.NewTimer(waits[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("openai: giving up after retries: %w", lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}
