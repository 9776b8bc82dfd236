package idhash

import "testing"

func TestComputeAnalysisID(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		root      string
		seeds     []string
		minAmount float64
		maxDepth  int
		startedAt int64
	}{
		{
			name:      "single seed",
			token:     "TokenMint123ABC",
			root:      "WalletA",
			seeds:     []string{"WalletA"},
			minAmount: 1000,
			maxDepth:  2,
			startedAt: 1704067234567,
		},
		{
			name:      "multiple seeds",
			token:     "TokenMint123ABC",
			root:      "WalletA",
			seeds:     []string{"WalletA", "WalletB", "WalletC"},
			minAmount: 0.5,
			maxDepth:  3,
			startedAt: 1704067300000,
		},
		{
			name:      "no seeds",
			token:     "AnotherMint999",
			root:      "WalletX",
			seeds:     nil,
			minAmount: 0,
			maxDepth:  2,
			startedAt: 1704067234567,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAnalysisID(tt.token, tt.root, tt.seeds, tt.minAmount, tt.maxDepth, tt.startedAt)

			if len(got) != 64 {
				t.Errorf("ComputeAnalysisID() length = %d, want 64", len(got))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeAnalysisID(tt.token, tt.root, tt.seeds, tt.minAmount, tt.maxDepth, tt.startedAt)
			if got != got2 {
				t.Errorf("ComputeAnalysisID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeAnalysisID_DifferentInputs(t *testing.T) {
	base := ComputeAnalysisID("token", "root", []string{"a"}, 100, 2, 1000)

	diffToken := ComputeAnalysisID("other", "root", []string{"a"}, 100, 2, 1000)
	if base == diffToken {
		t.Error("Different token should produce different hash")
	}

	diffSeeds := ComputeAnalysisID("token", "root", []string{"a", "b"}, 100, 2, 1000)
	if base == diffSeeds {
		t.Error("Different seeds should produce different hash")
	}

	diffAmount := ComputeAnalysisID("token", "root", []string{"a"}, 200, 2, 1000)
	if base == diffAmount {
		t.Error("Different min amount should produce different hash")
	}

	diffTime := ComputeAnalysisID("token", "root", []string{"a"}, 100, 2, 2000)
	if base == diffTime {
		t.Error("Different start time should produce different hash")
	}
}
