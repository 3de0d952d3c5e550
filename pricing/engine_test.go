package pricing_test

import (
	"testing"

	"code.cubepool.io/cube/feeds"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/pricing"
	"code.cubepool.io/cube/pricing/mocks"
	"code.cubepool.io/cube/types"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEngine struct {
	*pricing.Engine
	ctrl   *gomock.Controller
	source *mocks.MockPriceSource
}

func getTestEngine(t *testing.T, power uint64) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPriceSource(ctrl)
	cfg := pricing.NewDefaultConfig()
	cfg.Power = power
	eng, err := pricing.New(logging.NewTestLogger(), cfg, source)
	require.NoError(t, err)
	return &testEngine{
		Engine: eng,
		ctrl:   ctrl,
		source: source,
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects unsupported powers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		cfg := pricing.NewDefaultConfig()
		for _, p := range []uint64{0, 1, 4} {
			cfg.Power = p
			_, err := pricing.New(logging.NewTestLogger(), cfg, mocks.NewMockPriceSource(ctrl))
			assert.ErrorIs(t, err, pricing.ErrInvalidPower)
		}
	})
}

func TestRawPower(t *testing.T) {
	t.Run("long cube is spot cubed", testRawPowerLongCube)
	t.Run("short cube is the inverse", testRawPowerShortCube)
	t.Run("square power", testRawPowerSquare)
	t.Run("spot over the ceiling fails", testRawPowerCeiling)
	t.Run("source error is passed through", testRawPowerSourceError)
}

func TestRelative(t *testing.T) {
	t.Run("one at the initial reference", testRelativeAtReference)
	t.Run("tracks the cube of the spot move", testRelativeCubedMove)
}

func testRawPowerLongCube(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	// 50000 USD at 8dp
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(5_000_000_000_000), nil)
	raw, err := eng.RawPower("BTC", types.SideLong)
	require.NoError(t, err)
	assert.Equal(t, "125000000000000000000000000000000000000", raw.String())
}

func testRawPowerShortCube(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(5_000_000_000_000), nil)
	raw, err := eng.RawPower("BTC", types.SideShort)
	require.NoError(t, err)
	// 1e48 / (5e12)^3 = 8e9
	assert.Equal(t, "8000000000", raw.String())
}

func testRawPowerSquare(t *testing.T) {
	eng := getTestEngine(t, 2)
	defer eng.ctrl.Finish()

	eng.source.EXPECT().GetPrice("ETH").Times(2).Return(num.NewUint(200_000_000_000), nil)
	long, err := eng.RawPower("ETH", types.SideLong)
	require.NoError(t, err)
	assert.Equal(t, "40000000000000000000000", long.String())

	short, err := eng.RawPower("ETH", types.SideShort)
	require.NoError(t, err)
	// 1e32 / (2e11)^2 = 2.5e9
	assert.Equal(t, "2500000000", short.String())
}

func testRawPowerCeiling(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	// exactly at the 10M USD ceiling is fine
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(1_000_000_000_000_000), nil)
	_, err := eng.RawPower("BTC", types.SideLong)
	require.NoError(t, err)

	// one above is not
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(1_000_000_000_000_001), nil)
	_, err = eng.RawPower("BTC", types.SideLong)
	assert.ErrorIs(t, err, pricing.ErrPriceOverflow)
}

func testRawPowerSourceError(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	eng.source.EXPECT().GetPrice("DOGE").Times(1).Return(nil, feeds.ErrPriceUnavailable)
	_, err := eng.RawPower("DOGE", types.SideLong)
	assert.ErrorIs(t, err, feeds.ErrPriceUnavailable)
}

func testRelativeAtReference(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	spot := num.NewUint(5_000_000_000_000)
	eng.source.EXPECT().GetPrice("BTC").Times(2).Return(spot.Clone(), nil)
	initial, err := eng.RawPower("BTC", types.SideLong)
	require.NoError(t, err)

	rel, err := eng.Relative("BTC", types.SideLong, initial)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", rel.String())
}

func testRelativeCubedMove(t *testing.T) {
	eng := getTestEngine(t, 3)
	defer eng.ctrl.Finish()

	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(5_000_000_000_000), nil)
	initial, err := eng.RawPower("BTC", types.SideLong)
	require.NoError(t, err)

	// spot drops 50000 -> 40000, the cube moves by 0.8^3 = 0.512
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(4_000_000_000_000), nil)
	rel, err := eng.Relative("BTC", types.SideLong, initial)
	require.NoError(t, err)
	assert.Equal(t, "512000000000000000", rel.String())

	// the short leg moves the other way, 1/0.512 = 1.953125
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(5_000_000_000_000), nil)
	shortInitial, err := eng.RawPower("BTC", types.SideShort)
	require.NoError(t, err)
	eng.source.EXPECT().GetPrice("BTC").Times(1).Return(num.NewUint(4_000_000_000_000), nil)
	shortRel, err := eng.Relative("BTC", types.SideShort, shortInitial)
	require.NoError(t, err)
	assert.Equal(t, "1953125000000000000", shortRel.String())
}
