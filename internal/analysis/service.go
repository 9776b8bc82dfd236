// Package analysis orchestrates whale-graph analyses: holder discovery,
// graph traversal, depth classification and optional persistence.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/graph"
	"solana-whale-graph/internal/holders"
	"solana-whale-graph/internal/idhash"
	"solana-whale-graph/internal/ledger"
	"solana-whale-graph/internal/observability"
	"solana-whale-graph/internal/storage"
)

// Defaults for token analyses.
const (
	DefaultHolderLimit = 10
	batchConcurrency   = 4
)

// ErrNoHolders is returned when a token has no resolvable holders to seed
// an analysis from.
var ErrNoHolders = errors.New("analysis: no holders found for token")

// Options configures the analysis service. Fetcher is required; Holders is
// required only for token analyses. Stores are optional, analyses run fully
// in memory without them.
type Options struct {
	Fetcher       ledger.Fetcher
	Holders       holders.Source
	AnalysisStore storage.AnalysisStore
	EdgeStore     storage.EdgeStore
	Logger        *log.Logger
	MaxDepth      int
	HolderLimit   int
	Progress      graph.ProgressFunc
}

// Service runs analyses end to end.
type Service struct {
	fetcher       ledger.Fetcher
	holders       holders.Source
	analysisStore storage.AnalysisStore
	edgeStore     storage.EdgeStore
	logger        *log.Logger
	maxDepth      int
	holderLimit   int
	progress      graph.ProgressFunc
}

// NewService creates an analysis service from options.
func NewService(opts Options) (*Service, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("analysis: fetcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = graph.DefaultMaxDepth
	}
	if opts.HolderLimit <= 0 {
		opts.HolderLimit = DefaultHolderLimit
	}

	return &Service{
		fetcher:       opts.Fetcher,
		holders:       opts.Holders,
		analysisStore: opts.AnalysisStore,
		edgeStore:     opts.EdgeStore,
		logger:        opts.Logger,
		maxDepth:      opts.MaxDepth,
		holderLimit:   opts.HolderLimit,
		progress:      opts.Progress,
	}, nil
}

// MaxDepth returns the configured traversal depth bound.
func (s *Service) MaxDepth() int {
	return s.maxDepth
}

// BuildRelationGraph runs one deep traversal from root and classifies node
// depths, producing a complete analysis artifact. The artifact is not
// persisted here.
func (s *Service) BuildRelationGraph(ctx context.Context, token, root string, minAmount float64) (*domain.Analysis, error) {
	start := time.Now()

	explorer := graph.NewExplorer(s.fetcher, s.maxDepth, s.logger).WithProgress(s.progress)
	g, sess, err := explorer.Explore(ctx, root, minAmount)
	if err != nil {
		observability.RecordAnalysis("relation", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("explore from %s: %w", root, err)
	}

	a := s.assemble(token, root, []string{root}, minAmount, g, sess.CallCount(), start)
	observability.RecordAnalysis("relation", "success", time.Since(start).Seconds())

	s.logger.Printf("relation graph built: root=%s addresses=%d calls=%d elapsed=%s",
		root, g.Len(), a.CallCount, time.Since(start).Round(time.Millisecond))
	return a, nil
}

// BuildTransactionGraph fetches the single-hop graph of every seed
// concurrently and merges the partial graphs after all fetches resolve.
// Per-seed failures are logged and skipped. Returns the merged graph and
// the total number of ledger calls issued.
func (s *Service) BuildTransactionGraph(ctx context.Context, seeds []string, minAmount float64) (*domain.TransferGraph, int, error) {
	start := time.Now()

	explorer := graph.NewExplorer(s.fetcher, s.maxDepth, s.logger).WithProgress(s.progress)

	var mu sync.Mutex
	partials := make([]*domain.TransferGraph, 0, len(seeds))
	calls := 0

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(batchConcurrency)

	for _, seed := range seeds {
		seed := seed
		eg.Go(func() error {
			g, sess, err := explorer.ExploreHop(egCtx, seed, minAmount)
			if err != nil {
				// Cancellation is the only error ExploreHop returns; it
				// fails the whole batch.
				return err
			}

			mu.Lock()
			partials = append(partials, g)
			calls += sess.CallCount()
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		observability.RecordAnalysis("batch", "error", time.Since(start).Seconds())
		return nil, 0, fmt.Errorf("batch traversal: %w", err)
	}

	merged := domain.MergeGraphs(partials...)
	observability.RecordAnalysis("batch", "success", time.Since(start).Seconds())

	s.logger.Printf("transaction graph built: seeds=%d addresses=%d calls=%d elapsed=%s",
		len(seeds), merged.Len(), calls, time.Since(start).Round(time.Millisecond))
	return merged, calls, nil
}

// AnalyzeToken discovers the token's top holders, builds the shallow batch
// graph over all of them plus the deep relation graph from the largest
// holder, and merges both into one artifact. The artifact is persisted when
// stores are configured.
func (s *Service) AnalyzeToken(ctx context.Context, token string, minAmount float64) (*domain.Analysis, error) {
	if s.holders == nil {
		return nil, errors.New("analysis: holder source not configured")
	}

	start := time.Now()

	topHolders, err := s.holders.TopHolders(ctx, token, s.holderLimit)
	if err != nil {
		observability.RecordAnalysis("token", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("top holders for %s: %w", token, err)
	}
	if len(topHolders) == 0 {
		observability.RecordAnalysis("token", "error", time.Since(start).Seconds())
		return nil, ErrNoHolders
	}

	seeds := make([]string, 0, len(topHolders))
	for _, h := range topHolders {
		seeds = append(seeds, h.Address)
	}
	root := seeds[0]

	deep, err := s.BuildRelationGraph(ctx, token, root, minAmount)
	if err != nil {
		observability.RecordAnalysis("token", "error", time.Since(start).Seconds())
		return nil, err
	}

	shallow, shallowCalls, err := s.BuildTransactionGraph(ctx, seeds, minAmount)
	if err != nil {
		observability.RecordAnalysis("token", "error", time.Since(start).Seconds())
		return nil, err
	}

	deep.Graph.Merge(shallow)
	a := s.assemble(token, root, seeds, minAmount, deep.Graph, deep.CallCount+shallowCalls, start)

	if err := s.persist(ctx, a); err != nil {
		observability.RecordAnalysis("token", "error", time.Since(start).Seconds())
		return nil, err
	}

	observability.RecordAnalysis("token", "success", time.Since(start).Seconds())
	s.logger.Printf("token analysis done: token=%s id=%s holders=%d addresses=%d calls=%d elapsed=%s",
		token, a.AnalysisID, len(seeds), a.Graph.Len(), a.CallCount, time.Since(start).Round(time.Millisecond))
	return a, nil
}

// AnalyzeAddress builds the relation graph of a single address and persists
// the artifact when stores are configured.
func (s *Service) AnalyzeAddress(ctx context.Context, root string, minAmount float64) (*domain.Analysis, error) {
	a, err := s.BuildRelationGraph(ctx, "", root, minAmount)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// assemble builds the analysis artifact: deterministic id, depth labels and
// timing.
func (s *Service) assemble(token, root string, seeds []string, minAmount float64, g *domain.TransferGraph, callCount int, start time.Time) *domain.Analysis {
	sortedSeeds := append([]string(nil), seeds...)
	sort.Strings(sortedSeeds)

	startedAt := start.UnixMilli()
	return &domain.Analysis{
		AnalysisID:  idhash.ComputeAnalysisID(token, root, sortedSeeds, minAmount, s.maxDepth, startedAt),
		Token:       token,
		Root:        root,
		Seeds:       seeds,
		MinAmount:   minAmount,
		MaxDepth:    s.maxDepth,
		Graph:       g,
		Depths:      graph.ClassifyDepths(g, root),
		CallCount:   callCount,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UnixMilli(),
	}
}

// persist writes the artifact and its flattened edges to the configured
// stores. A nil store skips that side.
func (s *Service) persist(ctx context.Context, a *domain.Analysis) error {
	if s.analysisStore != nil {
		start := time.Now()
		err := s.analysisStore.Insert(ctx, a)
		observability.RecordDBQuery("postgres", "insert_analysis", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("persist analysis %s: %w", a.AnalysisID, err)
		}
	}

	if s.edgeStore != nil {
		start := time.Now()
		err := s.edgeStore.InsertBulk(ctx, domain.FlattenEdges(a))
		observability.RecordDBQuery("clickhouse", "insert_edges", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("persist edges of %s: %w", a.AnalysisID, err)
		}
	}
	return nil
}
