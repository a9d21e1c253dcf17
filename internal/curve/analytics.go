// internal/curve/analytics.go
package curve

import "math"

// Returns is the projected round-trip outcome for a position, in the same
// unit as the entry/exit prices supplied by the caller.
type Returns struct {
	GrossProfit float64
	Fees        float64 // combined entry + exit fees
	NetProfit   float64
	ROI         float64 // percent, relative to entry cost + entry fees
}

// ExpectedReturns projects the outcome of buying tokenAmount at entryPrice
// and selling at exitPrice. Both legs apply the same combined platform +
// creator rate for the given liveness flag; a creator going live or
// offline between the legs is deliberately not modeled here.
func (c Config) ExpectedReturns(entryPrice, exitPrice, tokenAmount float64, isLive bool) Returns {
	entryCost := entryPrice * tokenAmount
	exitRevenue := exitPrice * tokenAmount

	feeBps := float64(c.PlatformFeeBps) + float64(c.CreatorFeeBps(isLive))
	entryFees := entryCost * feeBps / BpsDenominator
	exitFees := exitRevenue * feeBps / BpsDenominator
	totalFees := entryFees + exitFees

	grossProfit := exitRevenue - entryCost
	netProfit := grossProfit - totalFees

	roi := 0.0
	if basis := entryCost + entryFees; basis > 0 {
		roi = netProfit / basis * 100
	}

	return Returns{
		GrossProfit: grossProfit,
		Fees:        totalFees,
		NetProfit:   netProfit,
		ROI:         roi,
	}
}

// Slippage returns the absolute percentage deviation of the executed
// price from the quoted one. Always non-negative.
func Slippage(expectedPrice, actualPrice float64) float64 {
	if expectedPrice == 0 {
		return 0
	}
	return math.Abs((actualPrice-expectedPrice)/expectedPrice) * 100
}

// ProgressionPoint is one sample of the curve walked from launch to full
// graduation. Price and MarketCap are in display SOL, not lamports.
type ProgressionPoint struct {
	TokensSold uint64
	Price      float64
	MarketCap  float64
	Progress   float64
}

// SimulateProgression samples the curve at steps+1 evenly spaced points
// across [0, curveSupply] tokens sold. Token reserves only shrink along
// the walk, so price and market cap increase monotonically. Each call
// builds a fresh slice; the walk restarts from zero every time.
func (c Config) SimulateProgression(steps int) []ProgressionPoint {
	if steps <= 0 {
		steps = 10
	}

	points := make([]ProgressionPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		tokensSold := c.CurveSupply * uint64(i) / uint64(steps)
		virtualTokens := c.InitialVirtualTokenReserves - tokensSold

		price := Price(c.InitialVirtualSolReserves, virtualTokens)
		points = append(points, ProgressionPoint{
			TokensSold: tokensSold,
			Price:      price / LamportsPerSol,
			MarketCap:  c.MarketCap(price) / LamportsPerSol,
			Progress:   c.Progress(tokensSold),
		})
	}
	return points
}
