package holders

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidAddress reports whether s is a well-formed Solana address: base58
// decoding to exactly 32 bytes. Format validation happens at this boundary;
// the traversal core treats addresses as opaque strings.
func ValidAddress(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsOnCurve reports whether an address is a valid ed25519 curve point.
// On-curve addresses are regular wallets; off-curve ones are program
// derived and usually belong to protocols rather than people.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
