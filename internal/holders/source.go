// Package holders supplies the seed addresses for an analysis: the ranked
// largest holders of a token.
package holders

import (
	"context"

	"solana-whale-graph/internal/domain"
)

// Source returns the largest holders of a token. Upstream ordering is not
// guaranteed; implementations sort by percent of supply, descending, so
// seed selection is stable.
type Source interface {
	TopHolders(ctx context.Context, token string, limit int) ([]domain.Holder, error)
}
