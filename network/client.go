// Package network provides a pre-configured, optimized HTTP client for concurrent store communication.
package network

import (
	"net/http"
	"time"
)

// Client is the singleton HTTP client shared across the plugin for efficient resource utilization.
// It is configured with increased concurrency limits suited to fanning one search out across several vendors.
// Transfers that must outlive the client timeout (downloads) pass a request context instead.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// Download is a client without a global deadline, used for asset transfers whose
// liveness is enforced by progress monitoring rather than a flat timeout.
var Download = &http.Client{
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}
