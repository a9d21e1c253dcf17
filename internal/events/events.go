// internal/events/events.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Trading events
	TradeExecuted EventType = "trade.executed"

	// Curve lifecycle events
	TokenCreated   EventType = "token.created"
	TokenGraduated EventType = "token.graduated"

	// Stream status events
	StreamStatusChanged EventType = "stream.status_changed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TradeSide distinguishes buys from sells.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeExecutedEvent is emitted after a trade's reserve delta has been
// persisted to the ledger.
type TradeExecutedEvent struct {
	BaseEvent
	TokenMint   string
	Side        TradeSide
	TokenAmount uint64
	SolAmount   uint64 // pre-fee lamports
	PlatformFee uint64
	CreatorFee  uint64
	Price       float64 // post-trade lamports per raw token
	IsLive      bool
}

// TokenCreatedEvent is emitted when a streamer launches a token.
type TokenCreatedEvent struct {
	BaseEvent
	TokenMint   string
	Creator     string
	TwitchLogin string
}

// TokenGraduatedEvent is emitted when real SOL reserves cross the
// graduation threshold and the token leaves the curve.
type TokenGraduatedEvent struct {
	BaseEvent
	TokenMint       string
	RealSolReserves uint64
	GraduationFee   uint64
}

// StreamStatusChangedEvent is emitted when a creator's liveness flips.
type StreamStatusChangedEvent struct {
	BaseEvent
	TokenMint   string
	TwitchLogin string
	IsLive      bool
	ViewerCount int
}
