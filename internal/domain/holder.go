package domain

// Holder is one entry of a token's ranked holder list.
type Holder struct {
	Address         string  `json:"address"`
	DisplayName     string  `json:"display_name,omitempty"`
	PercentOfSupply float64 `json:"percent_of_supply"`
	OnCurve         bool    `json:"on_curve"` // ed25519 on-curve key, i.e. a regular wallet rather than a PDA
}
