// internal/trading/errors.go
package trading

import "errors"

var (
	// ErrInvalidMint indicates the mint is not a valid Solana address.
	ErrInvalidMint = errors.New("invalid token mint address")

	// ErrInvalidWallet indicates a creator wallet that is not a valid
	// Solana address.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrInvalidAmount indicates a zero or otherwise unusable trade size.
	ErrInvalidAmount = errors.New("trade amount must be positive")

	// ErrTokenGraduated indicates the token left the curve; trading
	// continues on an external venue.
	ErrTokenGraduated = errors.New("token has graduated from the bonding curve")

	// ErrInvalidTokenName indicates a launch request with a bad name.
	ErrInvalidTokenName = errors.New("token name must be 1-32 characters")

	// ErrInvalidTokenSymbol indicates a launch request with a bad symbol.
	ErrInvalidTokenSymbol = errors.New("token symbol must be 1-10 uppercase characters")
)
