package domain

import "time"

// FlowType is the direction of a transfer relative to the queried address.
type FlowType string

// Flow type constants
const (
	FlowIn  FlowType = "in"
	FlowOut FlowType = "out"
)

// TransferEdge is a single normalized transfer in the relation graph.
// The edge is stored under its origin address; To is the receiving side
// for outbound edges and the queried node for inbound edges.
type TransferEdge struct {
	To        string   `json:"to"`
	Amount    float64  `json:"amount"`    // decimal token units (raw / 10^decimals)
	Timestamp int64    `json:"timestamp"` // unix seconds, authoritative
	Flow      FlowType `json:"flow"`
}

// Time renders the authoritative unix timestamp as UTC time.
// The rendering is derived, never stored.
func (e TransferEdge) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// TxKey identifies a physical transfer regardless of which traversal path
// discovered it. No two accepted edges in one traversal session share a key.
type TxKey struct {
	From      string
	To        string
	Timestamp int64
}
