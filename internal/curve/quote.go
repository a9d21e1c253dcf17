// internal/curve/quote.go
package curve

import (
	"math"
	"math/big"
)

// BuyQuote describes the SOL side of buying a fixed token amount.
// NewVirtual*Reserves are the post-trade reserves the ledger must persist
// atomically; callers are responsible for serializing quote-then-apply per
// token so two in-flight trades never compute against stale reserves.
type BuyQuote struct {
	SolRequired uint64 // pre-fee lamports moved into the curve
	PlatformFee uint64
	CreatorFee  uint64
	TotalCost   uint64 // SolRequired + both fees

	NewVirtualSolReserves   uint64
	NewVirtualTokenReserves uint64

	NewPrice    float64 // lamports per raw token after the trade
	PriceImpact float64 // percent, positive for buys
}

// SellQuote describes the SOL side of selling a fixed token amount.
type SellQuote struct {
	SolToReturn uint64 // pre-fee lamports leaving the curve
	PlatformFee uint64
	CreatorFee  uint64
	NetOutput   uint64 // SolToReturn - both fees

	NewVirtualSolReserves   uint64
	NewVirtualTokenReserves uint64

	NewPrice    float64
	PriceImpact float64 // percent, positive for sells
}

// CalculateBuyCost computes the cost of buying tokenAmount tokens against
// the current virtual reserves under the constant-product invariant
// virtualSol * virtualTokens = k. Reserve arithmetic stays in integers;
// the product k exceeds uint64 at production reserve levels, so the
// division runs through big.Int, mirroring the program's u128 math.
//
// Inputs are assumed validated: reserves positive, tokenAmount positive.
func (c Config) CalculateBuyCost(virtualSol, virtualTokens, tokenAmount uint64, isLive bool) (*BuyQuote, error) {
	if tokenAmount >= virtualTokens {
		return nil, ErrInsufficientSupply
	}

	k := new(big.Int).Mul(
		new(big.Int).SetUint64(virtualSol),
		new(big.Int).SetUint64(virtualTokens),
	)

	newTokenReserves := virtualTokens - tokenAmount
	// The SOL side rounds up: the curve collects at least the exact price,
	// so selling the same amount straight back can never withdraw more SOL
	// than the buy deposited.
	newSolBig, rem := new(big.Int).QuoRem(k, new(big.Int).SetUint64(newTokenReserves), new(big.Int))
	if rem.Sign() != 0 {
		newSolBig.Add(newSolBig, big.NewInt(1))
	}
	if !newSolBig.IsUint64() {
		return nil, ErrMathOverflow
	}
	newSolReserves := newSolBig.Uint64()
	solRequired := newSolReserves - virtualSol

	fees := c.SplitFees(solRequired, isLive)

	currentPrice := Price(virtualSol, virtualTokens)
	newPrice := Price(newSolReserves, newTokenReserves)

	return &BuyQuote{
		SolRequired: solRequired,
		PlatformFee: fees.PlatformFee,
		CreatorFee:  fees.CreatorFee,
		TotalCost:   solRequired + fees.PlatformFee + fees.CreatorFee,

		NewVirtualSolReserves:   newSolReserves,
		NewVirtualTokenReserves: newTokenReserves,

		NewPrice:    newPrice,
		PriceImpact: priceImpact(currentPrice, newPrice),
	}, nil
}

// CalculateSellOutput computes the SOL returned for selling tokenAmount
// tokens. There is no upper bound on the amount: arbitrarily large sells
// simply approach zero output as the token reserve grows.
func (c Config) CalculateSellOutput(virtualSol, virtualTokens, tokenAmount uint64, isLive bool) (*SellQuote, error) {
	if tokenAmount > math.MaxUint64-virtualTokens {
		return nil, ErrMathOverflow
	}

	k := new(big.Int).Mul(
		new(big.Int).SetUint64(virtualSol),
		new(big.Int).SetUint64(virtualTokens),
	)

	newTokenReserves := virtualTokens + tokenAmount
	// k / newTokenReserves <= virtualSol here, so the result always fits.
	newSolReserves := new(big.Int).Quo(k, new(big.Int).SetUint64(newTokenReserves)).Uint64()
	solToReturn := virtualSol - newSolReserves

	fees := c.SplitFees(solToReturn, isLive)

	currentPrice := Price(virtualSol, virtualTokens)
	newPrice := Price(newSolReserves, newTokenReserves)

	return &SellQuote{
		SolToReturn: solToReturn,
		PlatformFee: fees.PlatformFee,
		CreatorFee:  fees.CreatorFee,
		NetOutput:   solToReturn - fees.PlatformFee - fees.CreatorFee,

		NewVirtualSolReserves:   newSolReserves,
		NewVirtualTokenReserves: newTokenReserves,

		NewPrice:    newPrice,
		PriceImpact: -priceImpact(currentPrice, newPrice),
	}, nil
}

// priceImpact is the percentage change of newPrice relative to the
// pre-trade price. Buys report it as-is (positive); sells negate it so
// both directions come out positive.
func priceImpact(currentPrice, newPrice float64) float64 {
	if currentPrice == 0 {
		return 0
	}
	return (newPrice - currentPrice) / currentPrice * 100
}
