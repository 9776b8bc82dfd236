package domain

// Analysis is the serializable artifact of one completed analysis run.
// The graph and depth map are built entirely in memory; persistence is the
// caller's choice at the storage boundary.
type Analysis struct {
	AnalysisID  string         `json:"analysis_id"`
	Token       string         `json:"token,omitempty"` // token mint, empty for address-rooted runs
	Root        string         `json:"root,omitempty"`  // traversal root, empty for batch runs
	Seeds       []string       `json:"seeds,omitempty"` // seed addresses of the batch path
	MinAmount   float64        `json:"min_amount"`
	MaxDepth    int            `json:"max_depth"`
	Graph       *TransferGraph `json:"graph"`
	Depths      map[string]int `json:"depths,omitempty"` // signed depth relative to Root
	CallCount   int            `json:"call_count"`       // ledger calls issued, advisory telemetry
	StartedAt   int64          `json:"started_at"`       // unix ms
	CompletedAt int64          `json:"completed_at"`     // unix ms
}
