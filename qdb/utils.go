package qdb

import (
	"context"
	"net/url"
	"strings"
	"time"

	retry "github.com/sethvargo/go-retry"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

const defaultConnectRetries = 5

// connectWithRetry calls probe until it succeeds or the retry budget is exhausted.
// Every probe failure is treated as retryable; the last one is returned wrapped as a
// connection error.
func connectWithRetry(ctx context.Context, backend string, retries uint64, probe func(ctx context.Context) error) error {
	if retries == 0 {
		retries = defaultConnectRetries
	}
	attempt := 0
	backoff := retry.WithMaxRetries(retries, retry.NewFibonacci(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := probe(ctx); err != nil {
			spqrlog.Zero.Warn().
				Err(err).
				Str("backend", backend).
				Int("attempt", attempt).
				Msg("qdb: connection probe failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return spqrerror.Wrapf(spqrerror.SPQR_CONNECTION_ERROR, err, "%s: failed to connect to shard directory", backend)
	}

	spqrlog.Zero.Debug().
		Str("backend", backend).
		Int("attempts", attempt).
		Msg("qdb: connected")
	return nil
}

// escapeNodeName turns a name into a single key path segment. Dot names are encoded so
// path.Join cannot collapse them into the parent node.
func escapeNodeName(name string) string {
	escaped := url.PathEscape(name)
	if escaped == "." || escaped == ".." {
		return strings.ReplaceAll(escaped, ".", "%2E")
	}
	return escaped
}
