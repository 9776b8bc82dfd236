package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL. The
// graph, depth map and seed list are stored as JSONB snapshots; the flat
// edge rows live in ClickHouse.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id exists.
func (s *AnalysisStore) Insert(ctx context.Context, a *domain.Analysis) error {
	if a == nil || a.AnalysisID == "" {
		return storage.ErrInvalidInput
	}

	graphJSON, err := json.Marshal(a.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	depthsJSON, err := json.Marshal(a.Depths)
	if err != nil {
		return fmt.Errorf("marshal depths: %w", err)
	}
	seedsJSON, err := json.Marshal(a.Seeds)
	if err != nil {
		return fmt.Errorf("marshal seeds: %w", err)
	}

	query := `
		INSERT INTO analyses (
			analysis_id, token, root, seeds, min_amount, max_depth,
			graph, depths, call_count, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		a.AnalysisID,
		a.Token,
		a.Root,
		seedsJSON,
		a.MinAmount,
		a.MaxDepth,
		graphJSON,
		depthsJSON,
		a.CallCount,
		a.StartedAt,
		a.CompletedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, analysisID string) (*domain.Analysis, error) {
	query := selectAnalysis + ` WHERE analysis_id = $1`

	row := s.pool.QueryRow(ctx, query, analysisID)
	a, err := scanAnalysis(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}
	return a, nil
}

// GetByToken retrieves analyses for a token mint, newest first.
func (s *AnalysisStore) GetByToken(ctx context.Context, token string, limit int) ([]*domain.Analysis, error) {
	query := selectAnalysis + `
		WHERE token = $1
		ORDER BY started_at DESC, analysis_id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, token, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get analyses by token: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// GetRecent retrieves the most recent analyses across all tokens.
func (s *AnalysisStore) GetRecent(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	query := selectAnalysis + `
		ORDER BY started_at DESC, analysis_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get recent analyses: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

const selectAnalysis = `
	SELECT analysis_id, token, root, seeds, min_amount, max_depth,
	       graph, depths, call_count, started_at, completed_at
	FROM analyses
`

const defaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// scanAnalysis scans a single row into an Analysis.
func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var a domain.Analysis
	var seedsJSON, graphJSON, depthsJSON []byte

	err := row.Scan(
		&a.AnalysisID,
		&a.Token,
		&a.Root,
		&seedsJSON,
		&a.MinAmount,
		&a.MaxDepth,
		&graphJSON,
		&depthsJSON,
		&a.CallCount,
		&a.StartedAt,
		&a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalAnalysisJSON(&a, seedsJSON, graphJSON, depthsJSON); err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAnalyses scans multiple rows into a slice of Analysis.
func scanAnalyses(rows pgx.Rows) ([]*domain.Analysis, error) {
	var analyses []*domain.Analysis

	for rows.Next() {
		var a domain.Analysis
		var seedsJSON, graphJSON, depthsJSON []byte

		err := rows.Scan(
			&a.AnalysisID,
			&a.Token,
			&a.Root,
			&seedsJSON,
			&a.MinAmount,
			&a.MaxDepth,
			&graphJSON,
			&depthsJSON,
			&a.CallCount,
			&a.StartedAt,
			&a.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}

		if err := unmarshalAnalysisJSON(&a, seedsJSON, graphJSON, depthsJSON); err != nil {
			return nil, err
		}
		analyses = append(analyses, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis rows: %w", err)
	}

	return analyses, nil
}

func unmarshalAnalysisJSON(a *domain.Analysis, seedsJSON, graphJSON, depthsJSON []byte) error {
	if len(seedsJSON) > 0 {
		if err := json.Unmarshal(seedsJSON, &a.Seeds); err != nil {
			return fmt.Errorf("unmarshal seeds: %w", err)
		}
	}
	if len(graphJSON) > 0 {
		a.Graph = domain.NewTransferGraph()
		if err := json.Unmarshal(graphJSON, a.Graph); err != nil {
			return fmt.Errorf("unmarshal graph: %w", err)
		}
	}
	if len(depthsJSON) > 0 {
		if err := json.Unmarshal(depthsJSON, &a.Depths); err != nil {
			return fmt.Errorf("unmarshal depths: %w", err)
		}
	}
	return nil
}
