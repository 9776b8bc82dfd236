package storage

import (
	"context"

	"solana-whale-graph/internal/domain"
)

// AnalysisStore provides access to completed analysis artifacts. The
// traversal core never touches it; persistence is a caller-side choice.
type AnalysisStore interface {
	// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id exists.
	Insert(ctx context.Context, a *domain.Analysis) error

	// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, analysisID string) (*domain.Analysis, error)

	// GetByToken retrieves analyses for a token mint, newest first.
	GetByToken(ctx context.Context, token string, limit int) ([]*domain.Analysis, error)

	// GetRecent retrieves the most recent analyses across all tokens.
	GetRecent(ctx context.Context, limit int) ([]*domain.Analysis, error)
}

// EdgeStore provides access to flattened transfer edges for analytics.
type EdgeStore interface {
	// InsertBulk adds the edges of one analysis. Fails the entire batch on
	// any duplicate (analysis_id, from_address, to_address, timestamp).
	InsertBulk(ctx context.Context, edges []*domain.EdgeRecord) error

	// GetByAnalysisID retrieves all edges of an analysis, ordered by
	// timestamp ASC.
	GetByAnalysisID(ctx context.Context, analysisID string) ([]*domain.EdgeRecord, error)
}
