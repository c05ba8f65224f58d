// Package solr is a client for Apache Solr over HTTP: document indexing,
// querying and the administrative update commands. A single Client
// multiplexes concurrent operations over one pooled connection set; each
// call is an independent context-scoped request with no cross-request
// ordering, so add → commit → search must be sequenced by the caller.
package solr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 60 * time.Second

// Document maps field names to values. Scalars, []any and []string values
// are accepted; the reserved "boost" key carries a document-level boost
// weight instead of becoming a field.
type Document map[string]any

// DecodeFunc turns a raw JSON response body into a generic map. The
// default uses encoding/json; inject a replacement for custom number
// handling.
type DecodeFunc func(data []byte) (map[string]any, error)

// ResultsFactory projects a decoded response into a Results value. Inject
// a replacement to pull response keys the default Results does not cover.
type ResultsFactory func(decoded map[string]any) *Results

func defaultDecode(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Client talks to one Solr core. It is safe for concurrent use; the only
// shared state is configuration and the underlying connection pool.
// Rebinding configuration while requests are in flight is the caller's
// problem to avoid.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     zerolog.Logger
	decode  DecodeFunc
	results ResultsFactory

	closed uint32
}

// New constructs a Client for the core at base, e.g.
// "http://localhost:8983/solr/core0". Option errors panic; they are all
// programming mistakes.
func New(base string, opts ...Option) *Client {
	c := &Client{
		baseURL: base,
		http:    &http.Client{},
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
		decode:  defaultDecode,
	}
	c.results = NewResults

	// Auto-enable debug via env variable without changing code.
	if os.Getenv("GOSOLR_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	return c
}

// Close disposes the pooled connections. Safe to call multiple times;
// operations issued after Close fail with ErrClientClosed.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) isClosed() bool { return atomic.LoadUint32(&c.closed) == 1 }

// Ping asks the core's ping handler whether it is alive.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"wt": []string{"json"}}
	_, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "admin/ping?" + params.Encode(),
	})
	return err
}
