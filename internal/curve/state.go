// internal/curve/state.go
package curve

// Price returns the spot price in lamports per raw token. A curve with
// zero token reserves is degenerate (drained or graduated) and prices at
// zero rather than panicking.
func Price(virtualSol, virtualTokens uint64) float64 {
	if virtualTokens == 0 {
		return 0
	}
	return float64(virtualSol) / float64(virtualTokens)
}

// MarketCap values the whole supply at the given spot price, in lamports.
func (c Config) MarketCap(price float64) float64 {
	return price * float64(c.TotalSupply)
}

// Progress reports how much of the tradeable curve supply has been sold,
// as a percentage clamped to [0, 100]. Oversold aggregates (possible when
// reserves are reconciled out of band) never report past 100.
func (c Config) Progress(tokensSold uint64) float64 {
	p := float64(tokensSold) / float64(c.CurveSupply) * 100
	if p > 100 {
		return 100
	}
	return p
}

// ShouldGraduate reports whether accumulated real SOL reserves have
// reached the graduation threshold. The boundary is inclusive.
func (c Config) ShouldGraduate(realSolReserves uint64) bool {
	return realSolReserves >= c.GraduationThresholdLamports
}

// Projection is the derived, display-only view of a curve's state. It is
// never persisted; callers recompute it from reserves on every read.
type Projection struct {
	Price               float64 // lamports per raw token
	MarketCap           float64 // lamports
	Progress            float64 // percent of curve supply sold
	GraduationTriggered bool
}

// Project derives the full projection from caller-supplied state.
func (c Config) Project(virtualSol, virtualTokens, tokensSold, realSolReserves uint64) Projection {
	price := Price(virtualSol, virtualTokens)
	return Projection{
		Price:               price,
		MarketCap:           c.MarketCap(price),
		Progress:            c.Progress(tokensSold),
		GraduationTriggered: c.ShouldGraduate(realSolReserves),
	}
}
