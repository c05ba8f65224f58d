package solr

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file makes it easy to
// discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client. Useful for tuning the
// connection pool, tracing, custom TLS settings, etc. The per-attempt
// timeout still comes from WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		c.http = hc
		return nil
	}
}

// WithTimeout bounds each attempt: connection, headers and full body read.
// On expiry the operation reports a timeout transport error; there is no
// automatic retry.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("non-positive timeout %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithLogger scopes a logger to this client instance. The default discards
// everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithDecoder replaces the JSON decoder applied to query responses.
func WithDecoder(d DecodeFunc) Option {
	return func(c *Client) error {
		if d == nil {
			return fmt.Errorf("nil decoder")
		}
		c.decode = d
		return nil
	}
}

// WithResultsFactory replaces the projection applied to decoded query
// responses.
func WithResultsFactory(f ResultsFactory) Option {
	return func(c *Client) error {
		if f == nil {
			return fmt.Errorf("nil results factory")
		}
		c.results = f
		return nil
	}
}

// WithDebugLogging wraps the client's transport such that every request and
// response is dumped to the client logger when `enabled` is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			transport := c.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: transport, log: &c.log}
		}
		return nil
	}
}
