package telegram

import (
	"net"
	"net/http"
	"time"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	"github.com/m3rciful/dialogbot/core/telegram/netutil"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second

	// Headroom added on top of the long-poll window so getUpdates is not
	// cut off by the client timeout.
	longPollHeadroom = 5 * time.Second
)

// BuildHTTPClient returns the HTTP client used for Bot API calls, tuned
// from the telegram config section. Zero-valued knobs fall back to
// defaults, and the overall timeout is stretched to cover the configured
// long-poll window.
func BuildHTTPClient(tg coreconfig.TelegramConfig) *http.Client {
	timeout := time.Duration(tg.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	if poll := time.Duration(tg.LongPollTimeoutSeconds) * time.Second; poll > 0 && timeout < poll+longPollHeadroom {
		timeout = poll + longPollHeadroom
	}

	attempts := tg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	backoff := time.Duration(tg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: attempts,
			backoff:    backoff,
		},
	}
}

// retryTransport re-issues requests that failed with a transient network
// error, with linear backoff between attempts. Requests whose body cannot
// be rewound are never replayed.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			replay, err := rewind(req)
			if err != nil || replay == nil {
				return nil, lastErr
			}
			if err := t.wait(req, attempt); err != nil {
				return nil, err
			}
			req = replay
		}

		resp, err := base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (t *retryTransport) wait(req *http.Request, attempt int) error {
	delay := t.backoff * time.Duration(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// rewind clones the request with a fresh body, or returns nil when the
// body is not replayable.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
		return clone, nil
	}
	if req.Body != nil {
		return nil, nil
	}
	return clone, nil
}
