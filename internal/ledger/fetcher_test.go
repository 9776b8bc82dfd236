package ledger

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-whale-graph/internal/domain"
)

type recordingFetcher struct {
	callTimes []time.Time
	records   []RawTransfer
	err       error
}

func (f *recordingFetcher) FetchTransfers(_ context.Context, _ TransfersRequest) ([]RawTransfer, error) {
	f.callTimes = append(f.callTimes, time.Now())
	return f.records, f.err
}

func discardLogger() *log.Logger {
	return log.New(nopWriter{}, "", 0)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestRateLimitedFetcher_PacesCalls(t *testing.T) {
	inner := &recordingFetcher{records: []RawTransfer{{FromAddress: "A"}}}
	f := NewRateLimitedFetcher(inner, 30*time.Millisecond, discardLogger())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.FetchTransfers(context.Background(), TransfersRequest{Address: "A", Direction: domain.FlowIn})
		require.NoError(t, err)
	}

	// Three calls, each preceded by the fixed delay
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Len(t, inner.callTimes, 3)
}

func TestRateLimitedFetcher_PropagatesError(t *testing.T) {
	inner := &recordingFetcher{err: errors.New("boom")}
	f := NewRateLimitedFetcher(inner, time.Millisecond, discardLogger())

	_, err := f.FetchTransfers(context.Background(), TransfersRequest{Address: "A", Direction: domain.FlowOut})
	require.Error(t, err)
}

func TestRateLimitedFetcher_CancelDuringDelay(t *testing.T) {
	inner := &recordingFetcher{}
	f := NewRateLimitedFetcher(inner, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchTransfers(ctx, TransfersRequest{Address: "A", Direction: domain.FlowIn})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inner.callTimes, "canceled call must never reach the API")
}

func TestRateLimitedFetcher_DefaultDelay(t *testing.T) {
	f := NewRateLimitedFetcher(&recordingFetcher{}, 0, nil)
	assert.Equal(t, DefaultCallDelay, f.delay)
}
