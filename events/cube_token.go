package events

import (
	"context"

	"code.cubepool.io/cube/types"
)

type CubeTokenAdded struct {
	*Base
	token types.CubeToken
}

func NewCubeTokenAddedEvent(ctx context.Context, token types.CubeToken) *CubeTokenAdded {
	return &CubeTokenAdded{
		Base:  newBase(ctx, CubeTokenAddedEvent),
		token: *token.Clone(),
	}
}

func (c CubeTokenAdded) CubeToken() types.CubeToken {
	return *c.token.Clone()
}

func (c CubeTokenAdded) Symbol() string { return c.token.Symbol }

func (c CubeTokenAdded) SpotSymbol() string { return c.token.SpotSymbol }

func (c CubeTokenAdded) Side() types.Side { return c.token.Side }
