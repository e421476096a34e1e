package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
)

func TestBuildHTTPClientDefaults(t *testing.T) {
	client := BuildHTTPClient(coreconfig.TelegramConfig{})
	assert.Equal(t, 30*time.Second, client.Timeout)

	rt, ok := client.Transport.(*retryTransport)
	require.True(t, ok)
	assert.Equal(t, 3, rt.maxRetries)
	assert.Equal(t, 2*time.Second, rt.backoff)
}

func TestBuildHTTPClientFromConfig(t *testing.T) {
	client := BuildHTTPClient(coreconfig.TelegramConfig{
		HTTPTimeoutSeconds: 45,
		RetryAttempts:      1,
		RetryBackoffMS:     250,
	})
	assert.Equal(t, 45*time.Second, client.Timeout)

	rt := client.Transport.(*retryTransport)
	assert.Equal(t, 1, rt.maxRetries)
	assert.Equal(t, 250*time.Millisecond, rt.backoff)
}

func TestBuildHTTPClientCoversLongPollWindow(t *testing.T) {
	client := BuildHTTPClient(coreconfig.TelegramConfig{LongPollTimeoutSeconds: 60})
	// 30s default would cut getUpdates off mid-poll.
	assert.Equal(t, 65*time.Second, client.Timeout)
}

type scriptedTransport struct {
	calls int
	errs  []error
}

func (s *scriptedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func dialErr() error {
	return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
}

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	base := &scriptedTransport{errs: []error{dialErr(), dialErr()}}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, base.calls)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	boom := errors.New("boom")
	base := &scriptedTransport{errs: []error{boom, boom, boom, boom}}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, base.calls)
}

func TestRetryTransportReplaysRewindableBody(t *testing.T) {
	base := &scriptedTransport{errs: []error{dialErr()}}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}

	// http.NewRequest sets GetBody for string readers, so the body can
	// be replayed on retry.
	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage",
		strings.NewReader(`{"chat_id":1}`))
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, base.calls)
}
