// Package main runs the whale-graph HTTP server: analysis triggers over the
// REST API, stored-artifact lookups, progress streaming over WebSocket, and
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-whale-graph/internal/analysis"
	"solana-whale-graph/internal/cache"
	"solana-whale-graph/internal/holders"
	"solana-whale-graph/internal/ledger"
	"solana-whale-graph/internal/server"
	"solana-whale-graph/internal/solana"
	"solana-whale-graph/internal/storage"
	chstore "solana-whale-graph/internal/storage/clickhouse"
	"solana-whale-graph/internal/storage/memory"
	"solana-whale-graph/internal/storage/migrations"
	pgstore "solana-whale-graph/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	ledgerEndpoint := flag.String("ledger-endpoint", os.Getenv("LEDGER_API_ENDPOINT"), "Transfer-query API endpoint")
	ledgerAPIKey := flag.String("ledger-api-key", os.Getenv("LEDGER_API_KEY"), "Transfer-query API key")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	cacheKind := flag.String("cache", envOr("TRANSFER_CACHE", ""), "Transfer page cache: empty (disabled), memory, redis")
	redisAddr := flag.String("redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address for --cache=redis")
	cacheTTL := flag.Duration("cache-ttl", cache.DefaultTTL, "Transfer cache TTL")
	callDelay := flag.Duration("call-delay", ledger.DefaultCallDelay, "Fixed delay before each ledger call")
	maxDepth := flag.Int("max-depth", 2, "Default traversal depth bound")
	holderLimit := flag.Int("holder-limit", analysis.DefaultHolderLimit, "Top holders used as analysis seeds")
	requestTimeout := flag.Duration("request-timeout", server.DefaultRequestTimeout, "Wall-clock budget per analysis request")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *ledgerEndpoint == "" {
		logger.Fatal("--ledger-endpoint is required")
	}
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ledger fetcher chain: client -> rate limiter -> optional cache
	client, err := ledger.NewClient(*ledgerEndpoint, ledger.WithAPIKey(*ledgerAPIKey))
	if err != nil {
		logger.Fatalf("Failed to create ledger client: %v", err)
	}
	var fetcher ledger.Fetcher = ledger.NewRateLimitedFetcher(client, *callDelay, logger)
	fetcher, cacheCleanup, err := wrapCache(ctx, fetcher, *cacheKind, *redisAddr, *cacheTTL, logger)
	if err != nil {
		logger.Fatalf("Failed to set up transfer cache: %v", err)
	}
	defer cacheCleanup()

	// Stores
	analysisStore, edgeStore, storeCleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer storeCleanup()

	// Holder source
	rpc := solana.NewHTTPClient(*rpcEndpoint)
	holderSource := holders.NewRPCSource(rpc, logger)

	// Progress hub
	hub := server.NewProgressHub(logger)
	go hub.Run(ctx)

	srv, err := server.New(server.Options{
		Analysis: analysis.Options{
			Fetcher:       fetcher,
			Holders:       holderSource,
			AnalysisStore: analysisStore,
			EdgeStore:     edgeStore,
			Logger:        logger,
			MaxDepth:      *maxDepth,
			HolderLimit:   *holderLimit,
		},
		Logger:         logger,
		RequestTimeout: *requestTimeout,
		Hub:            hub,
	})
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: srv.Routes(),
	}

	// Handle shutdown signals
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-done:
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	err = httpServer.ListenAndServe()
	close(done)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// wrapCache wraps the fetcher with the selected transfer cache.
func wrapCache(ctx context.Context, fetcher ledger.Fetcher, kind, redisAddr string, ttl time.Duration, logger *log.Logger) (ledger.Fetcher, func(), error) {
	switch kind {
	case "":
		return fetcher, func() {}, nil
	case "memory":
		return ledger.NewCachedFetcher(fetcher, cache.NewMemory(ttl), logger), func() {}, nil
	case "redis":
		rc, err := cache.NewRedis(ctx, redisAddr, os.Getenv("REDIS_PASSWORD"), 0, ttl)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := rc.Close(); err != nil {
				logger.Printf("Redis close error: %v", err)
			}
		}
		return ledger.NewCachedFetcher(fetcher, rc, logger), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache kind %q", kind)
	}
}

// createStores creates the analysis and edge stores, applying migrations for
// the database-backed pair.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.AnalysisStore, storage.EdgeStore, func(), error) {
	if useMemory {
		return memory.NewAnalysisStore(), memory.NewEdgeStore(), func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewAnalysisStore(pool), chstore.NewEdgeStore(chConn), cleanup, nil
}

// envOr returns the environment value or a fallback default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
