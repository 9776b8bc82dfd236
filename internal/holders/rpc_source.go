package holders

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sort"

	"github.com/mr-tron/base58"

	"solana-whale-graph/internal/domain"
	"solana-whale-graph/internal/solana"
)

// RPCSource lists top holders via Solana RPC: getTokenLargestAccounts for
// the ranked token accounts, getTokenSupply for percent-of-supply, and
// getAccountInfo to resolve each token account to its owning wallet.
type RPCSource struct {
	rpc    *solana.HTTPClient
	logger *log.Logger
}

// NewRPCSource creates an RPC-backed holder source.
func NewRPCSource(rpc *solana.HTTPClient, logger *log.Logger) *RPCSource {
	if logger == nil {
		logger = log.Default()
	}
	return &RPCSource{rpc: rpc, logger: logger}
}

// Verify interface compliance at compile time.
var _ Source = (*RPCSource)(nil)

// TopHolders returns up to limit holders of a token, sorted by percent of
// supply descending. Accounts whose owner cannot be resolved keep the token
// account address itself as the holder address.
func (s *RPCSource) TopHolders(ctx context.Context, token string, limit int) ([]domain.Holder, error) {
	if !ValidAddress(token) {
		return nil, fmt.Errorf("holders: invalid token mint %q", token)
	}

	supply, err := s.rpc.GetTokenSupply(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get token supply: %w", err)
	}

	accounts, err := s.rpc.GetTokenLargestAccounts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get largest accounts: %w", err)
	}

	holders := make([]domain.Holder, 0, len(accounts))
	for _, acct := range accounts {
		owner, err := s.resolveOwner(ctx, acct.Address)
		if err != nil {
			s.logger.Printf("resolve owner failed for %s: %v", acct.Address, err)
			owner = acct.Address
		}

		percent := 0.0
		if supply.UIAmount > 0 {
			percent = acct.UIAmount / supply.UIAmount * 100
		}

		holders = append(holders, domain.Holder{
			Address:         owner,
			PercentOfSupply: percent,
			OnCurve:         IsOnCurve(owner),
		})
	}

	sort.SliceStable(holders, func(i, j int) bool {
		return holders[i].PercentOfSupply > holders[j].PercentOfSupply
	})

	if limit > 0 && len(holders) > limit {
		holders = holders[:limit]
	}
	return holders, nil
}

// resolveOwner parses the owning wallet out of an SPL token account.
// Token account layout: mint(32) | owner(32) | amount(8) | ...
func (s *RPCSource) resolveOwner(ctx context.Context, tokenAccount string) (string, error) {
	info, err := s.rpc.GetAccountInfo(ctx, tokenAccount)
	if err != nil {
		return "", err
	}
	if info == nil || info.Data == "" {
		return "", fmt.Errorf("account not found")
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return "", fmt.Errorf("decode token account data: %w", err)
	}
	if len(decoded) < 64 {
		return "", fmt.Errorf("token account data too short: %d", len(decoded))
	}
	return base58.Encode(decoded[32:64]), nil
}
