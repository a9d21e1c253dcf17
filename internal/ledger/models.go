// internal/ledger/models.go
package ledger

import "time"

// TokenCurve is the persisted per-token curve state. The ledger is the
// sole owner of this state; the pricing engine only ever sees copies of
// it and never writes back directly.
type TokenCurve struct {
	Mint        string
	Creator     string
	Name        string
	Symbol      string
	TwitchLogin string

	// Curve state, all in smallest units
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64

	// Trading aggregates
	TokensSold           uint64
	TotalVolume          uint64
	CreatorFeesCollected uint64

	// Stream status
	IsLive          bool
	LastStreamCheck time.Time

	Graduated bool
	CreatedAt time.Time
}

// TradeDelta is the state change produced by one executed trade. It is
// applied to a TokenCurve in a single store write so two concurrent
// trades can never interleave their reserve updates.
type TradeDelta struct {
	VirtualSolReserves   uint64 // absolute post-trade value
	VirtualTokenReserves uint64 // absolute post-trade value
	RealSolDelta         int64  // signed lamport change, negative on sells
	TokensSoldDelta      int64  // signed raw-token change
	VolumeLamports       uint64 // pre-fee trade notional
	CreatorFee           uint64
}
