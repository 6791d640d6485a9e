// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	LaunchCreated   EventType = "launch.created"
	TradeExecuted   EventType = "trade.executed"
	LaunchGraduated EventType = "launch.graduated"
	TokensRedeemed  EventType = "tokens.redeemed"
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

// LaunchCreatedEvent is emitted when a launch opens for trading.
type LaunchCreatedEvent struct {
	BaseEvent
	LaunchID  string
	Creator   string
	Name      string
	Symbol    string
	PoolID    string
	Deposit   uint64
	TokensOut uint64
}

// TradeExecutedEvent is emitted for every buy and sell on the curve.
type TradeExecutedEvent struct {
	BaseEvent
	LaunchID     string
	Trader       string
	Side         string // "buy" or "sell"
	AmountIn     uint64
	AmountOut    uint64
	TokenReserve uint64
	AssetReserve uint64
}

// LaunchGraduatedEvent is emitted when a launch migrates to the external venue.
type LaunchGraduatedEvent struct {
	BaseEvent
	LaunchID    string
	VenuePoolID string
	SeededToken uint64
	SeededAsset uint64
	LPUnits     uint64
}

// TokensRedeemedEvent is emitted when restricted tokens are swapped 1:1 for
// the free representation.
type TokensRedeemedEvent struct {
	BaseEvent
	LaunchID string
	Holder   string
	Amount   uint64
}
