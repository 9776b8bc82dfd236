package ledger

import (
	"math"

	"solana-whale-graph/internal/domain"
)

// Normalize converts a raw ledger record into a transfer edge. Pure: the
// same record always yields the same edge. The flow direction comes from
// the query that produced the record, never from the record itself. The
// edge's To is the receiving side; the sender is the graph key, taken from
// the record by the caller.
func Normalize(raw RawTransfer, flow domain.FlowType) domain.TransferEdge {
	return domain.TransferEdge{
		To:        raw.ToAddress,
		Amount:    float64(raw.RawAmount) / math.Pow10(raw.Decimals),
		Timestamp: raw.BlockTime,
		Flow:      flow,
	}
}

// Key returns the dedup key of a raw record: (sender, recipient, blockTime).
func Key(raw RawTransfer) domain.TxKey {
	return domain.TxKey{From: raw.FromAddress, To: raw.ToAddress, Timestamp: raw.BlockTime}
}
