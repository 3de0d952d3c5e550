package feeds

import (
	"sync"

	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"

	"github.com/pkg/errors"
)

const (
	// SymbolETH is the key of the reference feed used to compose USD prices
	// for assets which only have an ETH-denominated feed.
	SymbolETH = "ETH"
	// SymbolUSD always quotes at exactly 1.
	SymbolUSD = "USD"
)

var (
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrEmptySymbol      = errors.New("symbol should not be empty")
	ErrNilFeed          = errors.New("nil feed")
	ErrNotPushFeed      = errors.New("symbol is not covered by a push feed")
)

var (
	// 1.0 at 8 decimal places, the Chainlink USD convention
	usdUnit = num.NewUint(100000000)
	// 1.0 at 18 decimal places, the Chainlink ETH convention
	ethUnit = num.MustUintFromString("1000000000000000000")
)

// Registry maps a spot symbol to a USD price. An asset can be covered by a
// USD feed, or by an ETH feed composed through the ETH/USD reference feed.
// The USD feed always wins when both exist.
type Registry struct {
	log *logging.Logger
	cfg Config

	mu       sync.RWMutex
	usdFeeds map[string]Aggregator
	ethFeeds map[string]Aggregator
}

func NewRegistry(log *logging.Logger, cfg Config) *Registry {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Registry{
		log:      log,
		cfg:      cfg,
		usdFeeds: map[string]Aggregator{},
		ethFeeds: map[string]Aggregator{},
	}
}

// ReloadConf is used in order to reload the internal configuration of
// the registry
func (r *Registry) ReloadConf(cfg Config) {
	r.log.Info("reloading configuration")
	if r.log.GetLevel() != cfg.Level.Get() {
		r.log.Info("updating log level",
			logging.String("old", r.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		r.log.SetLevel(cfg.Level.Get())
	}

	r.cfg = cfg
}

// AddUSDFeed registers a USD-denominated feed for the given symbol. The feed
// must report a positive price at registration time.
func (r *Registry) AddUSDFeed(symbol string, feed Aggregator) error {
	if len(symbol) <= 0 {
		return ErrEmptySymbol
	}
	if feed == nil {
		return ErrNilFeed
	}
	if p := feed.LatestPrice(); p == nil || p.IsZero() {
		return ErrPriceUnavailable
	}

	r.mu.Lock()
	r.usdFeeds[symbol] = feed
	r.mu.Unlock()

	r.log.Info("usd feed added", logging.String("symbol", symbol))
	return nil
}

// AddETHFeed registers an ETH-denominated feed for the given symbol.
func (r *Registry) AddETHFeed(symbol string, feed Aggregator) error {
	if len(symbol) <= 0 {
		return ErrEmptySymbol
	}
	if feed == nil {
		return ErrNilFeed
	}
	if p := feed.LatestPrice(); p == nil || p.IsZero() {
		return ErrPriceUnavailable
	}

	r.mu.Lock()
	r.ethFeeds[symbol] = feed
	r.mu.Unlock()

	r.log.Info("eth feed added", logging.String("symbol", symbol))
	return nil
}

// PushPrice sets the USD price of symbol, at 8 decimal places. A push feed
// is created on first use; a symbol already covered by another feed kind
// cannot be overridden.
func (r *Registry) PushPrice(symbol string, price *num.Uint) error {
	if len(symbol) <= 0 {
		return ErrEmptySymbol
	}

	r.mu.Lock()
	feed, ok := r.usdFeeds[symbol]
	if !ok {
		feed = NewPushFeed()
		r.usdFeeds[symbol] = feed
	}
	r.mu.Unlock()

	pf, ok := feed.(*PushFeed)
	if !ok {
		return errors.Wrap(ErrNotPushFeed, symbol)
	}
	pf.SetPrice(price)
	return nil
}

// GetPrice returns the USD price of symbol at 8 decimal places. It errors
// with ErrPriceUnavailable when no feed covers the symbol or any leg of the
// composition has no positive answer.
func (r *Registry) GetPrice(symbol string) (*num.Uint, error) {
	if len(symbol) <= 0 {
		return nil, ErrEmptySymbol
	}
	if symbol == SymbolUSD {
		return usdUnit.Clone(), nil
	}

	r.mu.RLock()
	usd, hasUSD := r.usdFeeds[symbol]
	eth, hasETH := r.ethFeeds[symbol]
	ethusd, hasRef := r.usdFeeds[SymbolETH]
	r.mu.RUnlock()

	if hasUSD {
		p := usd.LatestPrice()
		if p == nil || p.IsZero() {
			return nil, errors.Wrap(ErrPriceUnavailable, symbol)
		}
		return p, nil
	}

	if !hasETH || !hasRef {
		return nil, errors.Wrap(ErrPriceUnavailable, symbol)
	}

	// compose: assetPrice(1e18) * ethUSD(1e8) / 1e18
	assetETH := eth.LatestPrice()
	ethUSD := ethusd.LatestPrice()
	if assetETH == nil || assetETH.IsZero() || ethUSD == nil || ethUSD.IsZero() {
		return nil, errors.Wrap(ErrPriceUnavailable, symbol)
	}
	p, overflow := num.MulDiv(assetETH, ethUSD, ethUnit)
	if overflow || p.IsZero() {
		return nil, errors.Wrap(ErrPriceUnavailable, symbol)
	}
	return p, nil
}
