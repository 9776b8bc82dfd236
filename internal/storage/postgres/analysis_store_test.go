package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/storage"
	"solana-whale-graph/internal/storage/postgres"
)

func testAnalysis(id, token string, startedAt int64) *domain.Analysis {
	g := domain.NewTransferGraph()
	g.AddEdge("WalletA", domain.TransferEdge{
		To:        "WalletB",
		Amount:    1500,
		Timestamp: startedAt,
		Flow:      domain.FlowOut,
	})

	return &domain.Analysis{
		AnalysisID:  id,
		Token:       token,
		Root:        "WalletA",
		Seeds:       []string{"WalletA", "WalletB"},
		MinAmount:   1000,
		MaxDepth:    2,
		Graph:       g,
		Depths:      map[string]int{"WalletA": 0, "WalletB": -1},
		CallCount:   4,
		StartedAt:   startedAt,
		CompletedAt: startedAt + 2500,
	}
}

func TestAnalysisStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAnalysisStore(pool)
	ctx := context.Background()

	a := testAnalysis("an_001", "TokenMint111", time.Now().UnixMilli())
	require.NoError(t, store.Insert(ctx, a))

	got, err := store.GetByID(ctx, "an_001")
	require.NoError(t, err)

	assert.Equal(t, a.AnalysisID, got.AnalysisID)
	assert.Equal(t, a.Token, got.Token)
	assert.Equal(t, a.Root, got.Root)
	assert.Equal(t, a.Seeds, got.Seeds)
	assert.Equal(t, a.MinAmount, got.MinAmount)
	assert.Equal(t, a.MaxDepth, got.MaxDepth)
	assert.Equal(t, a.CallCount, got.CallCount)
	assert.Equal(t, a.Depths, got.Depths)

	require.NotNil(t, got.Graph)
	edges := got.Graph.Edges("WalletA")
	require.Len(t, edges, 1)
	assert.Equal(t, "WalletB", edges[0].To)
	assert.Equal(t, float64(1500), edges[0].Amount)
	assert.Equal(t, domain.FlowOut, edges[0].Flow)
}

func TestAnalysisStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAnalysisStore(pool)
	ctx := context.Background()

	a := testAnalysis("an_dup", "TokenMint111", time.Now().UnixMilli())
	require.NoError(t, store.Insert(ctx, a))

	err := store.Insert(ctx, a)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAnalysisStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAnalysisStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAnalysisStore_GetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAnalysisStore(pool)
	ctx := context.Background()

	base := time.Now().UnixMilli()
	require.NoError(t, store.Insert(ctx, testAnalysis("an_old", "TokenA", base-1000)))
	require.NoError(t, store.Insert(ctx, testAnalysis("an_new", "TokenA", base)))
	require.NoError(t, store.Insert(ctx, testAnalysis("an_other", "TokenB", base)))

	got, err := store.GetByToken(ctx, "TokenA", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, "an_new", got[0].AnalysisID)
	assert.Equal(t, "an_old", got[1].AnalysisID)
}

func TestAnalysisStore_GetRecentLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAnalysisStore(pool)
	ctx := context.Background()

	base := time.Now().UnixMilli()
	require.NoError(t, store.Insert(ctx, testAnalysis("an_1", "TokenA", base-2000)))
	require.NoError(t, store.Insert(ctx, testAnalysis("an_2", "TokenA", base-1000)))
	require.NoError(t, store.Insert(ctx, testAnalysis("an_3", "TokenB", base)))

	got, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "an_3", got[0].AnalysisID)
	assert.Equal(t, "an_2", got[1].AnalysisID)
}
