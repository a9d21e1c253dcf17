// internal/curve/fees.go
package curve

// FeeBreakdown is the platform/creator split of a gross lamport amount.
type FeeBreakdown struct {
	PlatformFee uint64
	CreatorFee  uint64
}

// Total returns the combined fee amount.
func (f FeeBreakdown) Total() uint64 {
	return f.PlatformFee + f.CreatorFee
}

// CalculateFee computes floor(amount * bps / 10000) without overflow.
// The quotient/remainder split keeps every intermediate product inside
// uint64 while matching the exact floor the on-chain program computes.
func CalculateFee(amount uint64, bps uint16) uint64 {
	b := uint64(bps)
	return amount/BpsDenominator*b + amount%BpsDenominator*b/BpsDenominator
}

// CreatorFeeBps returns the creator rate for the given stream state.
func (c Config) CreatorFeeBps(isLive bool) uint16 {
	if isLive {
		return c.CreatorFeeLiveBps
	}
	return c.CreatorFeeOfflineBps
}

// SplitFees applies the platform rate and the liveness-dependent creator
// rate to a gross amount. Floor rounding means the collected total may be
// fractionally under the nominal rate; that downward bias is accepted.
func (c Config) SplitFees(grossAmount uint64, isLive bool) FeeBreakdown {
	return FeeBreakdown{
		PlatformFee: CalculateFee(grossAmount, c.PlatformFeeBps),
		CreatorFee:  CalculateFee(grossAmount, c.CreatorFeeBps(isLive)),
	}
}
