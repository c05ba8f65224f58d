package solr

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitForReady polls the core's ping handler with exponential backoff
// until it answers or ctx expires. Handy right after starting an engine
// container; the first pings routinely fail while cores load.
func (c *Client) WaitForReady(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(func() error {
		if c.isClosed() {
			return backoff.Permanent(ErrClientClosed)
		}
		return c.Ping(ctx)
	}, backoff.WithContext(bo, ctx))
}
