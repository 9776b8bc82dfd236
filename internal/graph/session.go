// Package graph builds and labels the address relation graph: the
// depth-bounded traversal over the ledger transfer source and the depth
// classification of its result.
package graph

import "solana-whale-graph/internal/domain"

// Session carries the mutable bookkeeping of one top-level traversal: the
// visited set, the transaction-key set and the ledger call counter. A
// session is exclusively owned by its traversal and discarded with it;
// there is no global traversal state.
type Session struct {
	visited map[string]struct{}
	seenTx  map[domain.TxKey]struct{}
	calls   int
}

// NewSession creates an empty traversal session.
func NewSession() *Session {
	return &Session{
		visited: make(map[string]struct{}),
		seenTx:  make(map[domain.TxKey]struct{}),
	}
}

// Visited reports whether an address has already been expanded.
func (s *Session) Visited(addr string) bool {
	_, ok := s.visited[addr]
	return ok
}

// MarkVisited records an address as expanded.
func (s *Session) MarkVisited(addr string) {
	s.visited[addr] = struct{}{}
}

// VisitedCount returns the number of addresses marked visited.
func (s *Session) VisitedCount() int {
	return len(s.visited)
}

// SeenTx reports whether a transaction key was already accepted.
func (s *Session) SeenTx(key domain.TxKey) bool {
	_, ok := s.seenTx[key]
	return ok
}

// MarkTx records an accepted transaction key.
func (s *Session) MarkTx(key domain.TxKey) {
	s.seenTx[key] = struct{}{}
}

// CountCall increments the session's ledger call counter.
func (s *Session) CountCall() {
	s.calls++
}

// CallCount returns the number of ledger calls issued so far. Advisory
// telemetry only; rate limiting does not depend on it.
func (s *Session) CallCount() int {
	return s.calls
}
