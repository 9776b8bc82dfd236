package domain

// EdgeRecord is one transfer edge flattened for analytics storage, keyed
// back to the analysis that discovered it.
type EdgeRecord struct {
	AnalysisID  string
	FromAddress string
	ToAddress   string
	Amount      float64
	Timestamp   int64 // unix seconds
	Flow        FlowType
}

// FlattenEdges converts an analysis graph into flat edge records, unique
// by (from, to, timestamp). Merged deep and shallow graphs may carry the
// same transfer twice; storage rows may not.
func FlattenEdges(a *Analysis) []*EdgeRecord {
	if a == nil || a.Graph == nil {
		return nil
	}
	seen := make(map[TxKey]struct{})
	var records []*EdgeRecord
	for _, from := range a.Graph.Addresses() {
		for _, e := range a.Graph.Edges(from) {
			k := TxKey{From: from, To: e.To, Timestamp: e.Timestamp}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			records = append(records, &EdgeRecord{
				AnalysisID:  a.AnalysisID,
				FromAddress: from,
				ToAddress:   e.To,
				Amount:      e.Amount,
				Timestamp:   e.Timestamp,
				Flow:        e.Flow,
			})
		}
	}
	return records
}
