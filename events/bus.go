package events

import (
	"context"
)

type Type int

// Base common denominator all event-bus events share
type Base struct {
	ctx context.Context
	et  Type
}

type Event interface {
	Type() Type
	Context() context.Context
}

const (
	// All event type -> used by subscribers to just receive all events, has
	// no actual corresponding event payload
	All Type = iota
	// other event types that DO have corresponding event types
	CubeTokenAddedEvent
	DepositOrWithdrawEvent
	PriceUpdateEvent
	ProtocolFeesCollectedEvent
	GovernanceChangedEvent
	PausedChangedEvent
)

var eventStrings = map[Type]string{
	All:                        "ALL",
	CubeTokenAddedEvent:        "CubeTokenAdded",
	DepositOrWithdrawEvent:     "DepositOrWithdraw",
	PriceUpdateEvent:           "PriceUpdate",
	ProtocolFeesCollectedEvent: "ProtocolFeesCollected",
	GovernanceChangedEvent:     "GovernanceChanged",
	PausedChangedEvent:         "PausedChanged",
}

// A base event holds no data, so the constructor will not be called directly
func newBase(ctx context.Context, t Type) *Base {
	return &Base{
		ctx: ctx,
		et:  t,
	}
}

// Context returns context
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type
func (b Base) Type() Type {
	return b.et
}

// String get string representation of event type
func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}
