package graph

import (
	"context"
	"errors"
	"log"
	"time"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/ledger"
	"solana-whale-graph/internal/observability"
)

// DefaultMaxDepth bounds the traversal. Unrestricted recursion over a real
// transfer ledger is unbounded fan-out; following only the single largest
// qualifying transfer per direction models the most significant
// counterparty chain, not full provenance.
const DefaultMaxDepth = 2

// ErrEmptyRoot is returned when a traversal is started without a root.
var ErrEmptyRoot = errors.New("graph: root address is empty")

// EventKind identifies a progress event type.
type EventKind string

// Progress event kinds
const (
	EventAddressExpanded EventKind = "address_expanded"
	EventEdgeFound       EventKind = "edge_found"
)

// Event is one unit of traversal progress, suitable for streaming to a
// presentation client.
type Event struct {
	Kind    EventKind            `json:"kind"`
	Address string               `json:"address,omitempty"`
	Depth   int                  `json:"depth,omitempty"`
	From    string               `json:"from,omitempty"`
	Edge    *domain.TransferEdge `json:"edge,omitempty"`
}

// ProgressFunc receives traversal progress events. It must not block.
type ProgressFunc func(Event)

// Explorer walks the most significant counterparty chain outward from a
// root address, assembling a transfer graph. The traversal is iterative
// over an explicit work stack, depth-first, with the inbound branch of a
// node explored before its outbound branch.
type Explorer struct {
	fetcher  ledger.Fetcher
	maxDepth int
	logger   *log.Logger
	progress ProgressFunc
}

// NewExplorer creates an explorer. A non-positive maxDepth falls back to
// DefaultMaxDepth; a nil logger falls back to the default logger.
func NewExplorer(fetcher ledger.Fetcher, maxDepth int, logger *log.Logger) *Explorer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Explorer{fetcher: fetcher, maxDepth: maxDepth, logger: logger}
}

// WithProgress attaches a progress sink and returns the explorer.
func (e *Explorer) WithProgress(fn ProgressFunc) *Explorer {
	e.progress = fn
	return e
}

// MaxDepth returns the configured depth bound.
func (e *Explorer) MaxDepth() int {
	return e.maxDepth
}

// workItem is one pending expansion on the traversal stack.
type workItem struct {
	address string
	depth   int
}

// Explore runs one depth-bounded traversal from root, honoring the minimum
// transfer amount. It returns the accumulated graph and the session that
// owns the traversal's bookkeeping. A fetch failure empties that branch and
// the traversal continues; only cancellation aborts it, checked at the loop
// boundary, returning the partial graph alongside the context error.
func (e *Explorer) Explore(ctx context.Context, root string, minAmount float64) (*domain.TransferGraph, *Session, error) {
	if root == "" {
		return nil, nil, ErrEmptyRoot
	}

	start := time.Now()
	sess := NewSession()
	g := domain.NewTransferGraph()

	stack := []workItem{{address: root, depth: 0}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			observability.RecordTraversal("canceled", time.Since(start).Seconds())
			return g, sess, err
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if sess.Visited(item.address) {
			continue
		}
		sess.MarkVisited(item.address)

		// Depth budget exhausted: the node is marked visited above but
		// contributes no edges and issues no calls.
		if item.depth >= e.maxDepth {
			continue
		}

		e.emit(Event{Kind: EventAddressExpanded, Address: item.address, Depth: item.depth})
		observability.RecordAddressExpanded()

		// Inbound then outbound, sequentially; the fetcher paces between
		// the two calls.
		var children []workItem
		for _, flow := range []domain.FlowType{domain.FlowIn, domain.FlowOut} {
			if child, ok := e.followTop(ctx, g, sess, item, flow, minAmount); ok {
				children = append(children, child)
			}
		}

		// LIFO stack: push the outbound child first so the inbound branch
		// is explored before the outbound branch.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	observability.RecordTraversal("success", time.Since(start).Seconds())
	return g, sess, nil
}

// followTop fetches the single largest qualifying transfer for one
// direction of a node, records its edge, and returns the counterparty as
// the next work item. A fetch error, empty page, sub-threshold amount or
// duplicate transaction key all end the branch.
func (e *Explorer) followTop(ctx context.Context, g *domain.TransferGraph, sess *Session, item workItem, flow domain.FlowType, minAmount float64) (workItem, bool) {
	records, err := e.fetcher.FetchTransfers(ctx, ledger.TransfersRequest{
		Address:   item.address,
		Direction: flow,
		MinAmount: minAmount,
		PageSize:  1,
	})
	sess.CountCall()
	if err != nil {
		// Recovered locally as "no qualifying transfer found"; the fetcher
		// already logged the failure with address and direction.
		return workItem{}, false
	}
	if len(records) == 0 {
		return workItem{}, false
	}

	// Only the first record of the page is consulted.
	raw := records[0]
	edge := ledger.Normalize(raw, flow)
	if edge.Amount < minAmount {
		return workItem{}, false
	}

	key := ledger.Key(raw)
	if sess.SeenTx(key) {
		return workItem{}, false
	}
	sess.MarkTx(key)

	// The graph key is always the sender; for inbound queries that is the
	// counterparty, for outbound the queried node itself.
	g.AddEdge(raw.FromAddress, edge)
	observability.RecordEdgeDiscovered()
	e.emit(Event{Kind: EventEdgeFound, From: raw.FromAddress, Depth: item.depth, Edge: &edge})

	counterparty := raw.ToAddress
	if flow == domain.FlowIn {
		counterparty = raw.FromAddress
	}
	return workItem{address: counterparty, depth: item.depth + 1}, true
}

// ExploreHop fetches the single-hop graph of one address: its top inbound
// and top outbound edge, no recursion. Used by the batch transaction-graph
// path, where each seed gets an independent session.
func (e *Explorer) ExploreHop(ctx context.Context, address string, minAmount float64) (*domain.TransferGraph, *Session, error) {
	if address == "" {
		return nil, nil, ErrEmptyRoot
	}

	sess := NewSession()
	sess.MarkVisited(address)
	g := domain.NewTransferGraph()

	for _, flow := range []domain.FlowType{domain.FlowIn, domain.FlowOut} {
		e.followTop(ctx, g, sess, workItem{address: address, depth: 0}, flow, minAmount)
		if err := ctx.Err(); err != nil {
			return g, sess, err
		}
	}
	return g, sess, nil
}

func (e *Explorer) emit(ev Event) {
	if e.progress != nil {
		e.progress(ev)
	}
}
