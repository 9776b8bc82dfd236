package ledger

import (
	"context"
	"log"
	"time"

	"solana-whale-graph/internal/observability"
)

// DefaultCallDelay is the fixed pause enforced before every external call
// to avoid triggering upstream throttling.
const DefaultCallDelay = 100 * time.Millisecond

// Fetcher issues transfer queries on behalf of the traversal.
type Fetcher interface {
	FetchTransfers(ctx context.Context, req TransfersRequest) ([]RawTransfer, error)
}

// RateLimitedFetcher wraps a Fetcher with a fixed inter-call delay and
// failure logging. It does not retry; errors propagate to the caller, which
// treats the branch as empty. Call counting for the produced artifact is the
// traversal session's job, not the fetcher's.
type RateLimitedFetcher struct {
	inner  Fetcher
	delay  time.Duration
	logger *log.Logger
}

// NewRateLimitedFetcher creates a paced fetcher. A non-positive delay falls
// back to DefaultCallDelay; a nil logger falls back to the default logger.
func NewRateLimitedFetcher(inner Fetcher, delay time.Duration, logger *log.Logger) *RateLimitedFetcher {
	if delay <= 0 {
		delay = DefaultCallDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RateLimitedFetcher{inner: inner, delay: delay, logger: logger}
}

// FetchTransfers pauses for the configured delay, then issues the call.
// The pause is a cancellation point.
func (f *RateLimitedFetcher) FetchTransfers(ctx context.Context, req TransfersRequest) ([]RawTransfer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay):
	}

	start := time.Now()
	records, err := f.inner.FetchTransfers(ctx, req)
	observability.RecordLedgerCall(string(req.Direction), err, time.Since(start).Seconds())
	if err != nil {
		f.logger.Printf("transfer query failed: address=%s direction=%s: %v",
			req.Address, req.Direction, err)
	}
	return records, err
}

// Verify interface compliance at compile time.
var _ Fetcher = (*RateLimitedFetcher)(nil)
var _ Fetcher = (*Client)(nil)
