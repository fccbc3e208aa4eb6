package providers

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// retryPolicy resends a request once, after a fixed backoff, when the first
// response is 429 or 5xx. The second response is returned whatever it is.
type retryPolicy struct {
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{backoff: time.Second, sleep: sleepContext}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (rp retryPolicy) do(ctx context.Context, client *http.Client, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	resp, err := send(ctx, client, newRequest)
	if err != nil || !retryable(resp.StatusCode) {
		return resp, err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	slog.Debug("retrying provider request", "status", resp.StatusCode, "backoff", rp.backoff)

	if err := rp.sleep(ctx, rp.backoff); err != nil {
		return nil, err
	}

	return send(ctx, client, newRequest)
}

func send(ctx context.Context, client *http.Client, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	req, err := newRequest(ctx)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// newHTTPClient bounds connection setup and the wait for response headers.
// Body reads are bounded separately by readFrames.
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: readTimeout,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
