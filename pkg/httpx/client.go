// Package httpx builds HTTP clients tuned for streaming endpoints.
package httpx

import (
	"net/http"
	"net/http/cookiejar"
	"time"
)

// NewStreamingClient returns an HTTP client suitable for long-lived SSE
// requests. It carries no client-wide timeout (stream lifetimes are bounded
// by per-request contexts) and disables transparent compression so response
// bytes arrive as the server framed them.
func NewStreamingClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			DisableCompression: true,
		},
		Jar: jar,
	}
}

// NewRESTClient returns a plain request/response client for the session
// CRUD endpoints, with a conventional overall timeout.
func NewRESTClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
