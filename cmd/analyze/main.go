// Package main runs a single whale-graph analysis from the command line and
// prints the artifact as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"solana-whale-graph/internal/analysis"
	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/graph"
	"solana-whale-graph/internal/holders"
	"solana-whale-graph/internal/ledger"
	"solana-whale-graph/internal/solana"
)

func main() {
	// Parse flags (env vars as defaults)
	token := flag.String("token", "", "Token mint to analyze (top holders become seeds)")
	address := flag.String("address", "", "Single wallet address to analyze")
	minAmount := flag.Float64("min-amount", 0, "Minimum transfer amount in token units")
	maxDepth := flag.Int("max-depth", 2, "Traversal depth bound")
	holderLimit := flag.Int("holder-limit", analysis.DefaultHolderLimit, "Top holders used as seeds (token mode)")
	callDelay := flag.Duration("call-delay", ledger.DefaultCallDelay, "Fixed delay before each ledger call")
	timeout := flag.Duration("timeout", 5*time.Minute, "Wall-clock budget for the analysis")
	ledgerEndpoint := flag.String("ledger-endpoint", os.Getenv("LEDGER_API_ENDPOINT"), "Transfer-query API endpoint")
	ledgerAPIKey := flag.String("ledger-api-key", os.Getenv("LEDGER_API_KEY"), "Transfer-query API key")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint (token mode)")
	output := flag.String("output", "", "Write the artifact JSON to this file instead of stdout")
	verbose := flag.Bool("verbose", false, "Log traversal progress to stderr")

	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

	// Validate flags
	if (*token == "") == (*address == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --token or --address is required")
		os.Exit(1)
	}
	if *ledgerEndpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: --ledger-endpoint (or LEDGER_API_ENDPOINT) is required")
		os.Exit(1)
	}
	if *token != "" && *rpcEndpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-endpoint (or SOLANA_RPC_ENDPOINT) is required for token mode")
		os.Exit(1)
	}
	target := *token
	if target == "" {
		target = *address
	}
	if !holders.ValidAddress(target) {
		fmt.Fprintf(os.Stderr, "Error: %q is not a valid base58 address\n", target)
		os.Exit(1)
	}

	client, err := ledger.NewClient(*ledgerEndpoint, ledger.WithAPIKey(*ledgerAPIKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating ledger client: %v\n", err)
		os.Exit(1)
	}

	opts := analysis.Options{
		Fetcher:     ledger.NewRateLimitedFetcher(client, *callDelay, logger),
		Logger:      logger,
		MaxDepth:    *maxDepth,
		HolderLimit: *holderLimit,
	}
	if *rpcEndpoint != "" {
		opts.Holders = holders.NewRPCSource(solana.NewHTTPClient(*rpcEndpoint), logger)
	}
	if *verbose {
		opts.Progress = logProgress(logger)
	}

	svc, err := analysis.NewService(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating analysis service: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := runAnalysis(ctx, svc, *token, *address, *minAmount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running analysis: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error serializing artifact: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, append(data, '\n'), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
			os.Exit(1)
		}
		fmt.Printf("Analysis %s written to %s\n", a.AnalysisID, *output)
		return
	}
	fmt.Println(string(data))
}

func runAnalysis(ctx context.Context, svc *analysis.Service, token, address string, minAmount float64) (*domain.Analysis, error) {
	if token != "" {
		return svc.AnalyzeToken(ctx, token, minAmount)
	}
	return svc.AnalyzeAddress(ctx, address, minAmount)
}

func logProgress(logger *log.Logger) graph.ProgressFunc {
	return func(ev graph.Event) {
		switch ev.Kind {
		case graph.EventAddressExpanded:
			logger.Printf("expanding %s at depth %d", ev.Address, ev.Depth)
		case graph.EventEdgeFound:
			if ev.Edge != nil {
				logger.Printf("edge %s -> %s amount=%s flow=%s",
					ev.From, ev.Edge.To, strings.TrimRight(strings.TrimRight(
						fmt.Sprintf("%f", ev.Edge.Amount), "0"), "."), ev.Edge.Flow)
			}
		}
	}
}
