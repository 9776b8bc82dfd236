// Package idhash derives deterministic identifiers from domain fields.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ComputeAnalysisID computes a deterministic analysis_id using SHA256.
// Formula: SHA256(token|root|seeds,...|min_amount|max_depth|started_at)
// Returns hex-encoded hash (64 characters).
//
// Seeds are joined in their given order; the caller is expected to pass
// them sorted when order should not matter.
func ComputeAnalysisID(
	token string,
	root string,
	seeds []string,
	minAmount float64,
	maxDepth int,
	startedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		token,
		root,
		strings.Join(seeds, ","),
		strconv.FormatFloat(minAmount, 'f', -1, 64),
		maxDepth,
		startedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
