// Package osrs holds the HTTP clients for the OSRS wiki, the GE price API and the hiscores.
package osrs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "GnomeGPT/1.0 (OSRS assistant)"
	requestTimeout   = 10 * time.Second
	maxResponseBytes = 8 * 1024 * 1024
)

// StatusError reports a non-2xx response from one of the lookup services.
type StatusError struct {
	Service string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Service, e.Status)
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

type fetcher struct {
	service   string
	userAgent string
	client    *http.Client
}

func newFetcher(service, userAgent string) fetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: requestTimeout}).DialContext
	transport.ResponseHeaderTimeout = requestTimeout

	return fetcher{
		service:   service,
		userAgent: userAgent,
		client:    &http.Client{Transport: transport, Timeout: 2 * requestTimeout},
	}
}

func (f fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", f.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Service: f.service, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", f.service, err)
	}

	return body, nil
}
