package events

import (
	"context"

	"code.cubepool.io/cube/libs/num"
)

type ProtocolFeesCollected struct {
	*Base
	collector string
	amount    *num.Uint
}

func NewProtocolFeesCollectedEvent(ctx context.Context, collector string, amount *num.Uint) *ProtocolFeesCollected {
	return &ProtocolFeesCollected{
		Base:      newBase(ctx, ProtocolFeesCollectedEvent),
		collector: collector,
		amount:    amount.Clone(),
	}
}

func (p ProtocolFeesCollected) Collector() string { return p.collector }

func (p ProtocolFeesCollected) Amount() *num.Uint { return p.amount.Clone() }
