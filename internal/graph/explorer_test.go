package graph

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/ledger"
)

// fakeLedger serves canned transfer pages keyed by address and direction
// and records every call it receives.
type fakeLedger struct {
	mu    sync.Mutex
	pages map[string][]ledger.RawTransfer
	fails map[string]bool
	calls []string
}

func key(addr string, dir domain.FlowType) string {
	return addr + "|" + string(dir)
}

func (f *fakeLedger) FetchTransfers(_ context.Context, req ledger.TransfersRequest) ([]ledger.RawTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(req.Address, req.Direction)
	f.calls = append(f.calls, k)
	if f.fails[k] {
		return nil, errors.New("upstream unavailable")
	}

	page := f.pages[k]
	if req.PageSize > 0 && len(page) > req.PageSize {
		page = page[:req.PageSize]
	}
	return page, nil
}

func (f *fakeLedger) callsFor(addr string, dir domain.FlowType) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == key(addr, dir) {
			n++
		}
	}
	return n
}

func testLogger() *log.Logger {
	return log.New(sink{}, "", 0)
}

type sink struct{}

func (sink) Write(p []byte) (int, error) { return len(p), nil }

func out(from, to string, amount uint64, ts int64) ledger.RawTransfer {
	return ledger.RawTransfer{FromAddress: from, ToAddress: to, RawAmount: amount, Decimals: 0, BlockTime: ts}
}

func TestExplore_EmptyRoot(t *testing.T) {
	e := NewExplorer(&fakeLedger{}, 2, testLogger())
	_, _, err := e.Explore(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrEmptyRoot)
}

func TestExplore_NoQualifyingTransfers(t *testing.T) {
	// Root with no qualifying transfer in either direction: empty graph,
	// only the root visited, exactly two calls issued.
	f := &fakeLedger{}
	e := NewExplorer(f, 2, testLogger())

	g, sess, err := e.Explore(context.Background(), "A", 1000)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Len())
	assert.True(t, sess.Visited("A"))
	assert.Equal(t, 1, sess.VisitedCount())
	assert.Equal(t, 2, sess.CallCount())
}

func TestExplore_DepthBound(t *testing.T) {
	// A sends 50 to B, B sends 20 to C, maxDepth 2: both edges appear, C is
	// visited but never expanded.
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowOut): {out("A", "B", 50, 100)},
		key("B", domain.FlowOut): {out("B", "C", 20, 200)},
		key("C", domain.FlowOut): {out("C", "D", 15, 300)},
	}}
	e := NewExplorer(f, 2, testLogger())

	g, sess, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	require.Len(t, g.Edges("A"), 1)
	assert.Equal(t, "B", g.Edges("A")[0].To)
	assert.Equal(t, float64(50), g.Edges("A")[0].Amount)
	assert.Equal(t, domain.FlowOut, g.Edges("A")[0].Flow)

	require.Len(t, g.Edges("B"), 1)
	assert.Equal(t, "C", g.Edges("B")[0].To)

	assert.True(t, sess.Visited("C"))
	assert.Empty(t, g.Edges("C"))
	assert.Equal(t, 0, f.callsFor("C", domain.FlowIn))
	assert.Equal(t, 0, f.callsFor("C", domain.FlowOut))

	// Two calls per expanded node: A and B
	assert.Equal(t, 4, sess.CallCount())
}

func TestExplore_CycleNotRefetched(t *testing.T) {
	// A->B->A cycle: B's outbound points back at A, which is already
	// visited, so A is never fetched a second time.
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowOut): {out("A", "B", 50, 100)},
		key("B", domain.FlowOut): {out("B", "A", 30, 200)},
	}}
	e := NewExplorer(f, 3, testLogger())

	g, sess, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, f.callsFor("A", domain.FlowIn))
	assert.Equal(t, 1, f.callsFor("A", domain.FlowOut))
	assert.Equal(t, 1, f.callsFor("B", domain.FlowIn))
	assert.Equal(t, 1, f.callsFor("B", domain.FlowOut))

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 2, sess.VisitedCount())
}

func TestExplore_MinAmountFilter(t *testing.T) {
	// Upstream may return sub-threshold records; the normalized amount is
	// re-checked locally.
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowOut): {out("A", "B", 5, 100)},
	}}
	e := NewExplorer(f, 2, testLogger())

	g, _, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestExplore_TxDedup(t *testing.T) {
	// The same physical transfer B->A appears as A's inbound top and B's
	// outbound top. It must be recorded once.
	shared := out("B", "A", 40, 500)
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowIn):  {shared},
		key("B", domain.FlowOut): {shared},
	}}
	e := NewExplorer(f, 3, testLogger())

	g, _, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	require.Len(t, g.Edges("B"), 1)
	assert.Equal(t, 1, g.Len())
}

func TestExplore_InboundBeforeOutbound(t *testing.T) {
	// Per-node edge order is inbound first, then outbound.
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowIn):  {out("B", "A", 40, 100)},
		key("A", domain.FlowOut): {out("A", "C", 30, 200)},
	}}
	e := NewExplorer(f, 1, testLogger())

	g, _, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	// Inbound edge keyed by sender B, outbound by A itself
	require.Len(t, g.Edges("B"), 1)
	assert.Equal(t, domain.FlowIn, g.Edges("B")[0].Flow)
	require.Len(t, g.Edges("A"), 1)
	assert.Equal(t, domain.FlowOut, g.Edges("A")[0].Flow)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{key("A", domain.FlowIn), key("A", domain.FlowOut)}, f.calls)
}

func TestExplore_FetchErrorEmptiesBranch(t *testing.T) {
	// Inbound fetch fails; the outbound branch is unaffected and the failed
	// call still counts.
	f := &fakeLedger{
		pages: map[string][]ledger.RawTransfer{
			key("A", domain.FlowOut): {out("A", "B", 50, 100)},
		},
		fails: map[string]bool{key("A", domain.FlowIn): true},
	}
	e := NewExplorer(f, 1, testLogger())

	g, sess, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, "B", g.Edges("A")[0].To)
	assert.Equal(t, 2, sess.CallCount())
}

func TestExplore_Canceled(t *testing.T) {
	f := &fakeLedger{}
	e := NewExplorer(f, 2, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, sess, err := e.Explore(ctx, "A", 0)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, g)
	require.NotNil(t, sess)
	assert.Empty(t, f.calls, "canceled traversal must not call the ledger")
}

func TestExplore_ProgressEvents(t *testing.T) {
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowOut): {out("A", "B", 50, 100)},
	}}

	var events []Event
	e := NewExplorer(f, 1, testLogger()).WithProgress(func(ev Event) {
		events = append(events, ev)
	})

	_, _, err := e.Explore(context.Background(), "A", 10)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, EventAddressExpanded, events[0].Kind)
	assert.Equal(t, "A", events[0].Address)
	assert.Equal(t, EventEdgeFound, events[1].Kind)
	assert.Equal(t, "A", events[1].From)
	require.NotNil(t, events[1].Edge)
	assert.Equal(t, "B", events[1].Edge.To)
}

func TestExploreHop(t *testing.T) {
	f := &fakeLedger{pages: map[string][]ledger.RawTransfer{
		key("A", domain.FlowIn):  {out("X", "A", 40, 100)},
		key("A", domain.FlowOut): {out("A", "Y", 30, 200)},
		key("X", domain.FlowOut): {out("X", "Z", 99, 300)},
	}}
	e := NewExplorer(f, 2, testLogger())

	g, sess, err := e.ExploreHop(context.Background(), "A", 10)
	require.NoError(t, err)

	// Single hop: only A's two directions, counterparties not expanded
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 2, sess.CallCount())
	assert.Equal(t, 0, f.callsFor("X", domain.FlowIn))
	assert.Equal(t, 0, f.callsFor("X", domain.FlowOut))
}
