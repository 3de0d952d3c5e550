package events

import (
	"context"
	"time"

	"code.cubepool.io/cube/libs/num"
)

// PriceUpdate is emitted when a token's stored relative price actually
// changes. Paused or no-op updates emit nothing.
type PriceUpdate struct {
	*Base
	token     string
	price     *num.Uint
	updatedAt time.Time
}

func NewPriceUpdateEvent(ctx context.Context, token string, price *num.Uint, updatedAt time.Time) *PriceUpdate {
	return &PriceUpdate{
		Base:      newBase(ctx, PriceUpdateEvent),
		token:     token,
		price:     price.Clone(),
		updatedAt: updatedAt,
	}
}

func (p PriceUpdate) CubeToken() string { return p.token }

func (p PriceUpdate) Price() *num.Uint { return p.price.Clone() }

func (p PriceUpdate) UpdatedAt() time.Time { return p.updatedAt }
