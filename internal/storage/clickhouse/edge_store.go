package clickhouse

import (
	"context"
	"fmt"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/storage"
)

// EdgeStore implements storage.EdgeStore using ClickHouse. Edges are
// append-only analytics rows; each analysis writes its batch exactly once.
type EdgeStore struct {
	conn *Conn
}

// NewEdgeStore creates a new EdgeStore.
func NewEdgeStore(conn *Conn) *EdgeStore {
	return &EdgeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EdgeStore = (*EdgeStore)(nil)

// InsertBulk adds the edges of one analysis. Fails the entire batch on any
// duplicate (analysis_id, from_address, to_address, timestamp).
func (s *EdgeStore) InsertBulk(ctx context.Context, edges []*domain.EdgeRecord) error {
	if len(edges) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		analysisID  string
		fromAddress string
		toAddress   string
		timestamp   int64
	}
	seen := make(map[key]struct{})
	for _, e := range edges {
		if e == nil || e.AnalysisID == "" {
			return storage.ErrInvalidInput
		}
		k := key{e.AnalysisID, e.FromAddress, e.ToAddress, e.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. Analyses write their
	// batch once, so checking the analysis_id is enough.
	exists, err := s.exists(ctx, edges[0].AnalysisID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transfer_edges (
			analysis_id, from_address, to_address, amount, timestamp, flow
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range edges {
		err = batch.Append(
			e.AnalysisID, e.FromAddress, e.ToAddress,
			e.Amount, uint64(e.Timestamp), string(e.Flow),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAnalysisID retrieves all edges of an analysis, ordered by timestamp ASC.
func (s *EdgeStore) GetByAnalysisID(ctx context.Context, analysisID string) ([]*domain.EdgeRecord, error) {
	query := `
		SELECT analysis_id, from_address, to_address, amount, timestamp, flow
		FROM transfer_edges
		WHERE analysis_id = ?
		ORDER BY timestamp ASC, from_address ASC
	`

	rows, err := s.conn.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []*domain.EdgeRecord
	for rows.Next() {
		var e domain.EdgeRecord
		var timestamp uint64
		var flow string

		if err := rows.Scan(&e.AnalysisID, &e.FromAddress, &e.ToAddress, &e.Amount, &timestamp, &flow); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Timestamp = int64(timestamp)
		e.Flow = domain.FlowType(flow)
		edges = append(edges, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge rows: %w", err)
	}

	return edges, nil
}

// exists checks whether any edge of an analysis is already stored.
func (s *EdgeStore) exists(ctx context.Context, analysisID string) (bool, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT count() FROM transfer_edges WHERE analysis_id = ?
	`, analysisID)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
