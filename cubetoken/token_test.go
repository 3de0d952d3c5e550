package cubetoken_test

import (
	"testing"

	"code.cubepool.io/cube/cubetoken"
	"code.cubepool.io/cube/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pool = "pool"

func TestMint(t *testing.T) {
	t.Run("mint credits balance and supply", testMintCredits)
	t.Run("mint rejects non-owner", testMintNotOwner)
	t.Run("mint rejects zero quantity", testMintZero)
}

func TestBurn(t *testing.T) {
	t.Run("burn debits balance and supply", testBurnDebits)
	t.Run("burn over balance fails", testBurnOverBalance)
	t.Run("burn rejects non-owner", testBurnNotOwner)
}

func TestTransfer(t *testing.T) {
	t.Run("transfer moves balance, supply unchanged", testTransferMoves)
	t.Run("transfer over balance fails", testTransferOverBalance)
}

func testMintCredits(t *testing.T) {
	tok := cubetoken.New("3X Long BTC", "cubeBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(100)))
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(50)))
	require.NoError(t, tok.Mint(pool, "bob", num.NewUint(25)))
	assert.True(t, tok.BalanceOf("alice").EQUint64(150))
	assert.True(t, tok.BalanceOf("bob").EQUint64(25))
	assert.True(t, tok.TotalSupply().EQUint64(175))
}

func testMintNotOwner(t *testing.T) {
	tok := cubetoken.New("3X Long BTC", "cubeBTC", pool)
	err := tok.Mint("alice", "alice", num.NewUint(100))
	assert.ErrorIs(t, err, cubetoken.ErrNotOwner)
	assert.True(t, tok.TotalSupply().IsZero())
}

func testMintZero(t *testing.T) {
	tok := cubetoken.New("3X Long BTC", "cubeBTC", pool)
	assert.ErrorIs(t, tok.Mint(pool, "alice", num.Zero()), cubetoken.ErrZeroAmount)
	assert.ErrorIs(t, tok.Mint(pool, "alice", nil), cubetoken.ErrZeroAmount)
}

func testBurnDebits(t *testing.T) {
	tok := cubetoken.New("3X Short BTC", "invBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(100)))
	require.NoError(t, tok.Burn(pool, "alice", num.NewUint(40)))
	assert.True(t, tok.BalanceOf("alice").EQUint64(60))
	assert.True(t, tok.TotalSupply().EQUint64(60))
	// burning down to zero clears the holder entirely
	require.NoError(t, tok.Burn(pool, "alice", num.NewUint(60)))
	assert.True(t, tok.BalanceOf("alice").IsZero())
	assert.True(t, tok.TotalSupply().IsZero())
}

func testBurnOverBalance(t *testing.T) {
	tok := cubetoken.New("3X Short BTC", "invBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(10)))
	err := tok.Burn(pool, "alice", num.NewUint(11))
	assert.ErrorIs(t, err, cubetoken.ErrInsufficientBalance)
	assert.True(t, tok.BalanceOf("alice").EQUint64(10))
	assert.ErrorIs(t, tok.Burn(pool, "bob", num.NewUint(1)), cubetoken.ErrInsufficientBalance)
}

func testBurnNotOwner(t *testing.T) {
	tok := cubetoken.New("3X Short BTC", "invBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(10)))
	assert.ErrorIs(t, tok.Burn("alice", "alice", num.NewUint(10)), cubetoken.ErrNotOwner)
}

func testTransferMoves(t *testing.T) {
	tok := cubetoken.New("3X Long BTC", "cubeBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(100)))
	require.NoError(t, tok.Transfer("alice", "bob", num.NewUint(30)))
	assert.True(t, tok.BalanceOf("alice").EQUint64(70))
	assert.True(t, tok.BalanceOf("bob").EQUint64(30))
	assert.True(t, tok.TotalSupply().EQUint64(100))
}

func testTransferOverBalance(t *testing.T) {
	tok := cubetoken.New("3X Long BTC", "cubeBTC", pool)
	require.NoError(t, tok.Mint(pool, "alice", num.NewUint(100)))
	err := tok.Transfer("alice", "bob", num.NewUint(101))
	assert.ErrorIs(t, err, cubetoken.ErrInsufficientBalance)
	assert.True(t, tok.BalanceOf("alice").EQUint64(100))
}
