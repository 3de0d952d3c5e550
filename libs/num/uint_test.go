package num_test

import (
	"math/big"
	"testing"

	"code.cubepool.io/cube/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256Constructors(t *testing.T) {
	var expected uint64 = 42

	t.Run("test from uint64", func(t *testing.T) {
		n := num.NewUint(expected)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from string", func(t *testing.T) {
		n, ok := num.UintFromString("42", 10)
		assert.False(t, ok)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from big", func(t *testing.T) {
		n, ok := num.UintFromBig(big.NewInt(int64(expected)))
		assert.False(t, ok)
		assert.Equal(t, expected, n.Uint64())
	})
}

func TestUint256Clone(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = first.Clone()
	)

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())

	// now we change second value, and ensure 1 hasn't changed
	second.Add(second, num.NewUint(42))

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect2, second.Uint64())
}

func TestUint256Copy(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = num.NewUint(expect2)
	)

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect2, second.Uint64())

	// now we copy first into second
	second.Copy(first)

	// we check that first and second have the same value
	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())

	// and now we will update first to have expect2 value
	// and make sure it haven't changed second
	first.SetUint64(expect2)
	assert.Equal(t, expect2, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())
}

func TestUint256IsZero(t *testing.T) {
	zero := num.Zero()
	assert.True(t, zero.IsZero())
	assert.False(t, num.NewUint(1).IsZero())
}

func TestMulDiv(t *testing.T) {
	t.Run("rounds down", func(t *testing.T) {
		// 7 * 3 / 2 = 10.5
		z, overflow := num.MulDiv(num.NewUint(7), num.NewUint(3), num.NewUint(2))
		require.False(t, overflow)
		assert.Equal(t, uint64(10), z.Uint64())
	})

	t.Run("rounds up", func(t *testing.T) {
		z, overflow := num.MulDivUp(num.NewUint(7), num.NewUint(3), num.NewUint(2))
		require.False(t, overflow)
		assert.Equal(t, uint64(11), z.Uint64())
	})

	t.Run("exact division has no rounding gap", func(t *testing.T) {
		down, _ := num.MulDiv(num.NewUint(6), num.NewUint(4), num.NewUint(8))
		up, _ := num.MulDivUp(num.NewUint(6), num.NewUint(4), num.NewUint(8))
		assert.True(t, down.EQ(up))
		assert.Equal(t, uint64(3), down.Uint64())
	})

	t.Run("intermediate product may exceed 256 bits", func(t *testing.T) {
		// (2^256 - 1) * 1e18 / 1e18 fits even though the product does not
		max, overflow := num.UintFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
		require.False(t, overflow)
		e18 := num.MustUintFromString("1000000000000000000")

		z, overflow := num.MulDiv(max, e18, e18)
		require.False(t, overflow)
		assert.True(t, z.EQ(max))
	})

	t.Run("overflowing result is reported", func(t *testing.T) {
		max, _ := num.UintFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
		_, overflow := num.MulDiv(max, num.NewUint(2), num.NewUint(1))
		assert.True(t, overflow)
	})

	t.Run("division by zero is reported", func(t *testing.T) {
		_, overflow := num.MulDiv(num.NewUint(1), num.NewUint(1), num.Zero())
		assert.True(t, overflow)
		_, overflow = num.MulDivUp(num.NewUint(1), num.NewUint(1), num.Zero())
		assert.True(t, overflow)
	})
}

func TestPowers(t *testing.T) {
	t.Run("square", func(t *testing.T) {
		z, overflow := num.Square(num.NewUint(12))
		require.False(t, overflow)
		assert.Equal(t, uint64(144), z.Uint64())
	})

	t.Run("cube", func(t *testing.T) {
		z, overflow := num.Cube(num.NewUint(50000))
		require.False(t, overflow)
		assert.Equal(t, uint64(125000000000000), z.Uint64())
	})

	t.Run("cube of a chainlink scaled price", func(t *testing.T) {
		// 50,000 USD at 8 decimal places
		spot := num.MustUintFromString("5000000000000")
		z, overflow := num.Cube(spot)
		require.False(t, overflow)
		assert.Equal(t, "125000000000000000000000000000000000000", z.String())
	})

	t.Run("cube overflow is reported", func(t *testing.T) {
		// 2^86 cubed does not fit in 256 bits
		big86 := num.Zero()
		big86.AddOverflow(big86, num.MustUintFromString("77371252455336267181195264"))
		_, overflow := num.Cube(big86)
		assert.True(t, overflow)
	})
}

func TestUintSumAndDelta(t *testing.T) {
	sum := num.Sum(num.NewUint(1), num.NewUint(2), num.NewUint(3))
	assert.Equal(t, uint64(6), sum.Uint64())

	d, neg := num.Zero().Delta(num.NewUint(2), num.NewUint(5))
	assert.True(t, neg)
	assert.Equal(t, uint64(3), d.Uint64())
}
