package solana

// TokenAccountBalance is one entry of getTokenLargestAccounts.
type TokenAccountBalance struct {
	Address  string  // token account address, not the owning wallet
	Amount   string  // raw integer amount as decimal string
	Decimals int
	UIAmount float64
}

// TokenAmount is the value of getTokenSupply.
type TokenAmount struct {
	Amount   string
	Decimals int
	UIAmount float64
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string // owning program
	Data       string // base64 encoded
	Executable bool
}
