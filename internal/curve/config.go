// internal/curve/config.go
package curve

import "fmt"

const (
	// BpsDenominator is the basis-point scale: 100% = 10,000 bps.
	BpsDenominator = 10_000

	// LamportsPerSol converts between lamports and display SOL.
	LamportsPerSol = 1_000_000_000
)

// Default launch parameters for every ZeroGlaze token. They match the
// on-chain program constants and are not runtime-configurable in production;
// tests and the simulator may build variants via Config literals.
const (
	DefaultTotalSupply   = 1_000_000_000
	DefaultCurveSupply   = 800_000_000
	DefaultCreatorSupply = 200_000_000

	DefaultVirtualSolReserves   = 30 * LamportsPerSol
	DefaultVirtualTokenReserves = 1_073_000_000

	DefaultPlatformFeeBps       = 100 // 1%
	DefaultCreatorFeeLiveBps    = 200 // 2% while streaming
	DefaultCreatorFeeOfflineBps = 20  // 0.2% offline

	DefaultGraduationThreshold = 85 * LamportsPerSol
	DefaultGraduationFee       = 6 * LamportsPerSol
)

// Config holds the bonding curve parameters. All amounts are integers in
// smallest units: lamports for SOL, raw units for tokens.
type Config struct {
	TotalSupply   uint64
	CurveSupply   uint64
	CreatorSupply uint64

	InitialVirtualSolReserves   uint64
	InitialVirtualTokenReserves uint64

	PlatformFeeBps       uint16
	CreatorFeeLiveBps    uint16
	CreatorFeeOfflineBps uint16

	GraduationThresholdLamports uint64
	GraduationFeeLamports       uint64
}

// DefaultConfig returns the production curve parameters.
func DefaultConfig() Config {
	return Config{
		TotalSupply:   DefaultTotalSupply,
		CurveSupply:   DefaultCurveSupply,
		CreatorSupply: DefaultCreatorSupply,

		InitialVirtualSolReserves:   DefaultVirtualSolReserves,
		InitialVirtualTokenReserves: DefaultVirtualTokenReserves,

		PlatformFeeBps:       DefaultPlatformFeeBps,
		CreatorFeeLiveBps:    DefaultCreatorFeeLiveBps,
		CreatorFeeOfflineBps: DefaultCreatorFeeOfflineBps,

		GraduationThresholdLamports: DefaultGraduationThreshold,
		GraduationFeeLamports:       DefaultGraduationFee,
	}
}

// Validate checks the structural invariants of the curve parameters.
func (c Config) Validate() error {
	if c.CurveSupply+c.CreatorSupply != c.TotalSupply {
		return fmt.Errorf("curve supply %d + creator supply %d != total supply %d",
			c.CurveSupply, c.CreatorSupply, c.TotalSupply)
	}
	if c.InitialVirtualSolReserves == 0 || c.InitialVirtualTokenReserves == 0 {
		return fmt.Errorf("virtual reserves must be positive")
	}
	if c.CurveSupply == 0 {
		return fmt.Errorf("curve supply must be positive")
	}
	if c.CurveSupply >= c.InitialVirtualTokenReserves {
		return fmt.Errorf("curve supply %d must be below initial virtual token reserves %d",
			c.CurveSupply, c.InitialVirtualTokenReserves)
	}
	totalLiveBps := uint32(c.PlatformFeeBps) + uint32(c.CreatorFeeLiveBps)
	if totalLiveBps >= BpsDenominator {
		return fmt.Errorf("combined fee rate %d bps leaves no trade value", totalLiveBps)
	}
	return nil
}
