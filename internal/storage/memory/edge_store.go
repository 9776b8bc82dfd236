package memory

import (
	"context"
	"sort"
	"sync"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/storage"
)

// EdgeStore is an in-memory implementation of storage.EdgeStore.
type EdgeStore struct {
	mu   sync.RWMutex
	data []*domain.EdgeRecord
	keys map[edgeKey]struct{}
}

type edgeKey struct {
	analysisID  string
	fromAddress string
	toAddress   string
	timestamp   int64
}

// NewEdgeStore creates a new in-memory edge store.
func NewEdgeStore() *EdgeStore {
	return &EdgeStore{keys: make(map[edgeKey]struct{})}
}

// InsertBulk adds the edges of one analysis. Fails the entire batch on any
// duplicate key, leaving the store unchanged.
func (s *EdgeStore) InsertBulk(_ context.Context, edges []*domain.EdgeRecord) error {
	if len(edges) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before mutating anything
	batch := make(map[edgeKey]struct{}, len(edges))
	for _, e := range edges {
		if e == nil || e.AnalysisID == "" {
			return storage.ErrInvalidInput
		}
		k := edgeKey{e.AnalysisID, e.FromAddress, e.ToAddress, e.Timestamp}
		if _, exists := s.keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, e := range edges {
		edgeCopy := *e
		s.data = append(s.data, &edgeCopy)
		s.keys[edgeKey{e.AnalysisID, e.FromAddress, e.ToAddress, e.Timestamp}] = struct{}{}
	}
	return nil
}

// GetByAnalysisID retrieves all edges of an analysis, ordered by timestamp ASC.
func (s *EdgeStore) GetByAnalysisID(_ context.Context, analysisID string) ([]*domain.EdgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EdgeRecord
	for _, e := range s.data {
		if e.AnalysisID == analysisID {
			edgeCopy := *e
			result = append(result, &edgeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].FromAddress < result[j].FromAddress
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.EdgeStore = (*EdgeStore)(nil)
