package pricing

import (
	"errors"

	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/types"
)

var (
	// ErrInvalidPower is returned when the configured leverage exponent is
	// not supported.
	ErrInvalidPower = errors.New("leverage power must be 2 or 3")
	// ErrPriceOverflow is returned when the spot price exceeds the ceiling
	// or a power computation overflows.
	ErrPriceOverflow = errors.New("spot price out of range")
)

var (
	// spot prices are 8dp, so 1e15 is 10M USD. Keeping spot under this
	// bound keeps every downstream product inside 256 bits.
	maxSpotPrice = num.NewUint(1_000_000_000_000_000)

	priceOne = num.NewUint(1_000_000_000_000_000_000)

	// numerators for the inverse legs, 1e(16*N)
	shortNumSquare = num.MustUintFromString("100000000000000000000000000000000")
	shortNumCube   = num.MustUintFromString("1000000000000000000000000000000000000000000000000")
)

// PriceSource supplies 8dp spot prices by symbol.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/price_source_mock.go -package mocks code.cubepool.io/cube/pricing PriceSource
type PriceSource interface {
	GetPrice(symbol string) (*num.Uint, error)
}

// Engine turns spot prices into leveraged power prices. A long token tracks
// spot^N, a short token tracks the inverse, both at 8*N decimal places.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	source PriceSource
	power  uint64
}

// New returns a pricing engine reading spot prices from the given source.
func New(log *logging.Logger, cfg Config, source PriceSource) (*Engine, error) {
	if cfg.Power != 2 && cfg.Power != 3 {
		return nil, ErrInvalidPower
	}
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:    log,
		cfg:    cfg,
		source: source,
		power:  cfg.Power,
	}, nil
}

// ReloadConf updates the internal configuration. The power is fixed at
// construction, as registered tokens depend on it.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	if cfg.Power != e.power {
		e.log.Warn("ignoring power change on reload",
			logging.Uint64("power", e.power),
		)
		cfg.Power = e.power
	}
	e.cfg = cfg
}

// Power returns the leverage exponent.
func (e *Engine) Power() uint64 {
	return e.power
}

// Spot returns the current 8dp spot price for the symbol.
func (e *Engine) Spot(symbol string) (*num.Uint, error) {
	return e.source.GetPrice(symbol)
}

// RawPower computes the leveraged power price for the symbol and side:
// spot^N for a long, 1e(16*N)/spot^N for a short, both at 8*N decimals.
func (e *Engine) RawPower(symbol string, side types.Side) (*num.Uint, error) {
	spot, err := e.source.GetPrice(symbol)
	if err != nil {
		return nil, err
	}
	return e.rawFromSpot(spot, side)
}

func (e *Engine) rawFromSpot(spot *num.Uint, side types.Side) (*num.Uint, error) {
	if spot.IsZero() || spot.GT(maxSpotPrice) {
		return nil, ErrPriceOverflow
	}
	var (
		raw      *num.Uint
		overflow bool
	)
	numerator := shortNumCube
	switch e.power {
	case 2:
		raw, overflow = num.Square(spot)
		numerator = shortNumSquare
	default:
		raw, overflow = num.Cube(spot)
	}
	if overflow {
		return nil, ErrPriceOverflow
	}
	if side == types.SideShort {
		raw = num.Zero().Div(numerator, raw)
	}
	return raw, nil
}

// Relative rescales the raw power price against the token's initial
// reference, so a freshly registered token prices at exactly 1e18.
func (e *Engine) Relative(symbol string, side types.Side, initial *num.Uint) (*num.Uint, error) {
	raw, err := e.RawPower(symbol, side)
	if err != nil {
		return nil, err
	}
	rel, overflow := num.MulDiv(raw, priceOne, initial)
	if overflow {
		return nil, ErrPriceOverflow
	}
	return rel, nil
}
