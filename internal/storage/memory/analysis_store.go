// Package memory provides in-memory storage implementations, used by tests
// and by --use-memory deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Analysis // keyed by analysis_id
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data: make(map[string]*domain.Analysis),
	}
}

// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id exists.
func (s *AnalysisStore) Insert(_ context.Context, a *domain.Analysis) error {
	if a == nil || a.AnalysisID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AnalysisID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	analysisCopy := *a
	s.data[a.AnalysisID] = &analysisCopy
	return nil
}

// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(_ context.Context, analysisID string) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[analysisID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	analysisCopy := *a
	return &analysisCopy, nil
}

// GetByToken retrieves analyses for a token mint, newest first.
func (s *AnalysisStore) GetByToken(_ context.Context, token string, limit int) ([]*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Analysis
	for _, a := range s.data {
		if a.Token == token {
			analysisCopy := *a
			result = append(result, &analysisCopy)
		}
	}

	sortNewestFirst(result)
	return clip(result, limit), nil
}

// GetRecent retrieves the most recent analyses across all tokens.
func (s *AnalysisStore) GetRecent(_ context.Context, limit int) ([]*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Analysis, 0, len(s.data))
	for _, a := range s.data {
		analysisCopy := *a
		result = append(result, &analysisCopy)
	}

	sortNewestFirst(result)
	return clip(result, limit), nil
}

// sortNewestFirst orders analyses by started_at DESC, analysis_id ASC.
func sortNewestFirst(list []*domain.Analysis) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartedAt != list[j].StartedAt {
			return list[i].StartedAt > list[j].StartedAt
		}
		return list[i].AnalysisID < list[j].AnalysisID
	})
}

func clip(list []*domain.Analysis, limit int) []*domain.Analysis {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// Verify interface compliance at compile time.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)
