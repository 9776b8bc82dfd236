package graph

import (
	"testing"

	"solana-whale-graph/internal/domain"
)

func TestSessionBookkeeping(t *testing.T) {
	s := NewSession()

	if s.Visited("A") {
		t.Error("fresh session should have no visited addresses")
	}
	s.MarkVisited("A")
	if !s.Visited("A") {
		t.Error("A should be visited after MarkVisited")
	}
	if got := s.VisitedCount(); got != 1 {
		t.Errorf("VisitedCount = %d, want 1", got)
	}

	key := domain.TxKey{From: "A", To: "B", Timestamp: 100}
	if s.SeenTx(key) {
		t.Error("fresh session should have no seen transactions")
	}
	s.MarkTx(key)
	if !s.SeenTx(key) {
		t.Error("key should be seen after MarkTx")
	}
	if s.SeenTx(domain.TxKey{From: "A", To: "B", Timestamp: 101}) {
		t.Error("different timestamp must be a different key")
	}

	for i := 0; i < 3; i++ {
		s.CountCall()
	}
	if got := s.CallCount(); got != 3 {
		t.Errorf("CallCount = %d, want 3", got)
	}
}
