package types

import (
	"time"

	"code.cubepool.io/cube/libs/num"
)

// Side tells whether a cube token tracks the underlying spot price raised to
// a positive power (long) or its reciprocal (short / inverse).
type Side int32

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	if s == SideShort {
		return "short"
	}
	return "long"
}

// CubeToken is the pool-side state of one leveraged token. The spot symbol
// and side are immutable after creation, as is the initial price captured
// from the oracle; everything else is driven by price updates and governance.
type CubeToken struct {
	// derived identity, e.g. "cubeBTC" / "3X Long BTC"
	Symbol string
	Name   string

	// feed registry key, e.g. "BTC"
	SpotSymbol string
	Side       Side

	// rawPower(spot) captured at creation, the normalization denominator
	InitialPrice *num.Uint
	// relative price, exactly 1e18 at creation
	LastPrice   *num.Uint
	LastUpdated time.Time

	DepositPaused  bool
	WithdrawPaused bool
	UpdatePaused   bool

	FeeBps          uint64
	MaxPoolShareBps uint64
}

func (c *CubeToken) Clone() *CubeToken {
	cpy := *c
	cpy.InitialPrice = c.InitialPrice.Clone()
	cpy.LastPrice = c.LastPrice.Clone()
	return &cpy
}

// CubeTokenParams is the read-only view of a token returned by the pool's
// Params operation.
type CubeTokenParams struct {
	SpotSymbol      string
	Side            Side
	DepositPaused   bool
	WithdrawPaused  bool
	UpdatePaused    bool
	Added           bool
	FeeBps          uint64
	MaxPoolShareBps uint64
	InitialPrice    *num.Uint
	LastPrice       *num.Uint
	LastUpdated     time.Time
	TotalSupply     *num.Uint
}

// PoolState is a consistent snapshot of the pool-wide balances.
type PoolState struct {
	PoolBalance         *num.Uint
	AccruedProtocolFees *num.Uint
	TotalEquity         *num.Uint
	MaxPoolBalance      *num.Uint
	ProtocolFeeBps      uint64
	Governance          string
	PendingGovernance   string
	Guardian            string
}
