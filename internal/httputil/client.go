// Package httputil provides a security-hardened HTTP client and request helpers
// shared by the resolver.
package httputil

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// MaxBodySize caps how much of a response body is read.
const MaxBodySize = 10 * 1024 * 1024

// StatusError is returned by Fetch when the response status is not 200.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// NewClient creates a hardened HTTP client with secure defaults.
// Callers bound individual requests with a context; the client timeout is
// only an upper limit.
func NewClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}
	// On failure the transport keeps speaking HTTP/1.1.
	_ = http2.ConfigureTransport(transport)

	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// SetHeaders applies a fixed header set to req.
func SetHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// Fetch performs req and returns the body of a 200 response.
// Any other status yields a *StatusError.
func Fetch(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
