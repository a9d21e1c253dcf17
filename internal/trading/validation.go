// internal/trading/validation.go
package trading

import (
	"math"

	"github.com/gagliardetto/solana-go"
)

// validateMint checks that the mint parses as a Solana public key. The
// pricing engine itself assumes validated inputs; this layer is where
// that assumption is paid for.
func validateMint(mint string) error {
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return ErrInvalidMint
	}
	return nil
}

// validateWallet checks a creator wallet address the same way.
func validateWallet(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return ErrInvalidWallet
	}
	return nil
}

// validateAmount bounds trade sizes to the signed 64-bit range: ledger
// deltas carry token and SOL movements as int64.
func validateAmount(amount uint64) error {
	if amount == 0 || amount > math.MaxInt64 {
		return ErrInvalidAmount
	}
	return nil
}

func validateTokenName(name string) error {
	if len(name) == 0 || len(name) > 32 {
		return ErrInvalidTokenName
	}
	return nil
}

func validateTokenSymbol(symbol string) error {
	if len(symbol) == 0 || len(symbol) > 10 {
		return ErrInvalidTokenSymbol
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ErrInvalidTokenSymbol
		}
	}
	return nil
}
