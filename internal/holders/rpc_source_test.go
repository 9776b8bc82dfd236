package holders

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-whale-graph/internal/solana"
)

const testMint = "So11111111111111111111111111111111111111112"

// tokenAccountData builds the binary layout of an SPL token account:
// mint(32) | owner(32) | amount(8).
func tokenAccountData(owner []byte) string {
	data := make([]byte, 72)
	copy(data[32:64], owner)
	return base64.StdEncoding.EncodeToString(data)
}

// rpcStub answers getTokenSupply, getTokenLargestAccounts and
// getAccountInfo with canned values.
type rpcStub struct {
	supplyUIAmount float64
	accounts       []map[string]any
	accountInfo    map[string]string // token account -> base64 data; missing means null
}

func (s *rpcStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var result any
		switch req.Method {
		case "getTokenSupply":
			result = map[string]any{"value": map[string]any{
				"amount": "1000000000", "decimals": 6, "uiAmount": s.supplyUIAmount,
			}}
		case "getTokenLargestAccounts":
			result = map[string]any{"value": s.accounts}
		case "getAccountInfo":
			pubkey, _ := req.Params[0].(string)
			data, ok := s.accountInfo[pubkey]
			if !ok {
				result = map[string]any{"value": nil}
				break
			}
			result = map[string]any{"value": map[string]any{
				"lamports": 2039280, "owner": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
				"data": []string{data, "base64"}, "executable": false,
			}}
		default:
			http.Error(w, "unknown method "+req.Method, http.StatusBadRequest)
			return
		}

		resp, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
	}
}

func testRPC(t *testing.T, stub *rpcStub) *solana.HTTPClient {
	t.Helper()
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)
	return solana.NewHTTPClient(ts.URL, solana.WithMaxRetries(0), solana.WithTimeout(5*time.Second))
}

func silentLogger() *log.Logger {
	return log.New(devNull{}, "", 0)
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

func TestTopHolders(t *testing.T) {
	ownerBytes := bytes.Repeat([]byte{7}, 32)
	ownerAddr := base58.Encode(ownerBytes)

	stub := &rpcStub{
		supplyUIAmount: 1000,
		accounts: []map[string]any{
			{"address": "Acc2", "amount": "100000000", "decimals": 6, "uiAmount": 100.0},
			{"address": "Acc1", "amount": "250000000", "decimals": 6, "uiAmount": 250.0},
		},
		accountInfo: map[string]string{
			"Acc1": tokenAccountData(ownerBytes),
			// Acc2 unresolvable; holder keeps the token account address
		},
	}

	src := NewRPCSource(testRPC(t, stub), silentLogger())
	holders, err := src.TopHolders(context.Background(), testMint, 10)
	require.NoError(t, err)
	require.Len(t, holders, 2)

	// Sorted by percent of supply descending
	assert.Equal(t, ownerAddr, holders[0].Address)
	assert.InDelta(t, 25.0, holders[0].PercentOfSupply, 1e-9)
	assert.Equal(t, IsOnCurve(ownerAddr), holders[0].OnCurve)

	assert.Equal(t, "Acc2", holders[1].Address)
	assert.InDelta(t, 10.0, holders[1].PercentOfSupply, 1e-9)
}

func TestTopHolders_Limit(t *testing.T) {
	stub := &rpcStub{
		supplyUIAmount: 100,
		accounts: []map[string]any{
			{"address": "Acc1", "amount": "1", "decimals": 0, "uiAmount": 50.0},
			{"address": "Acc2", "amount": "1", "decimals": 0, "uiAmount": 30.0},
			{"address": "Acc3", "amount": "1", "decimals": 0, "uiAmount": 20.0},
		},
	}

	src := NewRPCSource(testRPC(t, stub), silentLogger())
	holders, err := src.TopHolders(context.Background(), testMint, 2)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.InDelta(t, 50.0, holders[0].PercentOfSupply, 1e-9)
	assert.InDelta(t, 30.0, holders[1].PercentOfSupply, 1e-9)
}

func TestTopHolders_InvalidMint(t *testing.T) {
	src := NewRPCSource(solana.NewHTTPClient("http://unused"), silentLogger())
	_, err := src.TopHolders(context.Background(), "not-base58-0OIl", 5)
	require.Error(t, err)
}
