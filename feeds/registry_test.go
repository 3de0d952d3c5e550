package feeds_test

import (
	"testing"

	"code.cubepool.io/cube/feeds"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *feeds.Registry {
	return feeds.NewRegistry(logging.NewTestLogger(), feeds.NewDefaultConfig())
}

func usd(units float64) *num.Uint {
	u, _ := num.UintFromDecimal(num.DecimalFromFloat(units).Mul(num.DecimalFromInt64(100000000)))
	return u
}

func eth(units float64) *num.Uint {
	u, _ := num.UintFromDecimal(num.DecimalFromFloat(units).Mul(num.MustDecimalFromString("1000000000000000000")))
	return u
}

func TestRegistry(t *testing.T) {
	t.Run("Add feed validation", testAddFeedValidation)
	t.Run("USD feeds win over ETH feeds", testUSDFeedPriority)
	t.Run("ETH feeds compose through the reference feed", testETHComposition)
	t.Run("Zero price is unavailable, not zero", testZeroPriceUnavailable)
	t.Run("USD symbol is the unit", testUSDUnit)
	t.Run("Pushed prices create and drive a feed", testPushPrice)
}

func testPushPrice(t *testing.T) {
	reg := newRegistry()

	require.NoError(t, reg.PushPrice("EEE", usd(42)))
	p, err := reg.GetPrice("EEE")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(42)))

	// subsequent pushes reuse the same feed
	require.NoError(t, reg.PushPrice("EEE", usd(43)))
	p, err = reg.GetPrice("EEE")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(43)))

	assert.ErrorIs(t, reg.PushPrice("", usd(1)), feeds.ErrEmptySymbol)

	// a symbol behind a non-push aggregator cannot be overridden
	fixed := staticFeed{price: usd(7)}
	require.NoError(t, reg.AddUSDFeed("FFF", fixed))
	assert.ErrorIs(t, reg.PushPrice("FFF", usd(8)), feeds.ErrNotPushFeed)
}

type staticFeed struct {
	price *num.Uint
}

func (f staticFeed) LatestPrice() *num.Uint {
	return f.price.Clone()
}

func testAddFeedValidation(t *testing.T) {
	reg := newRegistry()

	empty := feeds.NewPushFeed()
	assert.ErrorIs(t, reg.AddUSDFeed("AAA", empty), feeds.ErrPriceUnavailable)
	assert.ErrorIs(t, reg.AddETHFeed("AAA", empty), feeds.ErrPriceUnavailable)

	priced := feeds.NewPushFeed()
	priced.SetPrice(usd(0.1))
	assert.ErrorIs(t, reg.AddUSDFeed("", priced), feeds.ErrEmptySymbol)
	assert.ErrorIs(t, reg.AddUSDFeed("AAA", nil), feeds.ErrNilFeed)
	assert.NoError(t, reg.AddUSDFeed("AAA", priced))
}

func testUSDFeedPriority(t *testing.T) {
	reg := newRegistry()

	aaausd := feeds.NewPushFeed()
	aaausd.SetPrice(usd(0.1))
	aaaeth := feeds.NewPushFeed()
	aaaeth.SetPrice(eth(0.0000555))
	ethusd := feeds.NewPushFeed()
	ethusd.SetPrice(usd(2000))

	require.NoError(t, reg.AddUSDFeed("AAA", aaausd))
	require.NoError(t, reg.AddETHFeed("AAA", aaaeth))
	require.NoError(t, reg.AddUSDFeed(feeds.SymbolETH, ethusd))

	p, err := reg.GetPrice("AAA")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(0.1)))
}

func testETHComposition(t *testing.T) {
	reg := newRegistry()

	bbbeth := feeds.NewPushFeed()
	bbbeth.SetPrice(eth(10))
	require.NoError(t, reg.AddETHFeed("BBB", bbbeth))

	// no ETH/USD reference feed yet
	_, err := reg.GetPrice("BBB")
	assert.ErrorIs(t, err, feeds.ErrPriceUnavailable)
	_, err = reg.GetPrice(feeds.SymbolETH)
	assert.ErrorIs(t, err, feeds.ErrPriceUnavailable)

	ethusd := feeds.NewPushFeed()
	ethusd.SetPrice(usd(2000))
	require.NoError(t, reg.AddUSDFeed(feeds.SymbolETH, ethusd))

	p, err := reg.GetPrice("BBB")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(20000)), "got %s", p.String())

	p, err = reg.GetPrice(feeds.SymbolETH)
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(2000)))

	// both legs move
	bbbeth.SetPrice(eth(11))
	ethusd.SetPrice(usd(2200))
	p, err = reg.GetPrice("BBB")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(24200)), "got %s", p.String())
}

func testZeroPriceUnavailable(t *testing.T) {
	reg := newRegistry()

	cccusd := feeds.NewPushFeed()
	cccusd.SetPrice(usd(100))
	require.NoError(t, reg.AddUSDFeed("CCC", cccusd))

	p, err := reg.GetPrice("CCC")
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(100)))

	cccusd.SetPrice(num.Zero())
	_, err = reg.GetPrice("CCC")
	assert.ErrorIs(t, err, feeds.ErrPriceUnavailable)

	// never registered at all
	_, err = reg.GetPrice("DDD")
	assert.ErrorIs(t, err, feeds.ErrPriceUnavailable)
}

func testUSDUnit(t *testing.T) {
	reg := newRegistry()
	p, err := reg.GetPrice(feeds.SymbolUSD)
	require.NoError(t, err)
	assert.True(t, p.EQ(usd(1)))
}
