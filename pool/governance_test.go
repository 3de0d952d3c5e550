package pool_test

import (
	"context"
	"testing"

	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/pool"
	"code.cubepool.io/cube/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernanceTransfer(t *testing.T) {
	t.Run("two phase handover", testGovernanceHandover)
	t.Run("only the nominee can accept", testGovernanceAcceptWrongParty)
	t.Run("nomination can be replaced before acceptance", testGovernanceRenominate)
}

func TestGuardian(t *testing.T) {
	t.Run("guardian can pause but nothing else", testGuardianScope)
	t.Run("guardian can step down", testGuardianStepDown)
	t.Run("governance can remove the guardian", testGuardianRemoved)
	t.Run("pause all tokens at once", testPauseAll)
}

func testPauseAll(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()
	cube := te.addToken(t, "BTC", types.SideLong, 100, 0)
	inv := te.addToken(t, "BTC", types.SideShort, 100, 0)

	require.NoError(t, te.SetAllPaused(ctx, governance, true, true, false))
	for _, sym := range []string{cube, inv} {
		params := te.Params(sym)
		assert.True(t, params.DepositPaused)
		assert.True(t, params.WithdrawPaused)
		assert.False(t, params.UpdatePaused)
	}
	assert.Len(t, te.eventsOfType(events.PausedChangedEvent), 2)
}

func testGovernanceHandover(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	require.NoError(t, te.SetGovernance(ctx, governance, alice))
	// nothing changed yet
	assert.Equal(t, governance, te.State().Governance)
	assert.Equal(t, alice, te.State().PendingGovernance)

	require.NoError(t, te.AcceptGovernance(ctx, alice))
	st := te.State()
	assert.Equal(t, alice, st.Governance)
	assert.Empty(t, st.PendingGovernance)

	// the old governance party lost its powers
	assert.ErrorIs(t, te.SetProtocolFee(ctx, governance, 100), pool.ErrNotGovernance)
	require.NoError(t, te.SetProtocolFee(ctx, alice, 100))

	changed := te.eventsOfType(events.GovernanceChangedEvent)
	require.Len(t, changed, 1)
	assert.Equal(t, alice, changed[0].(*events.GovernanceChanged).Governance())
}

func testGovernanceAcceptWrongParty(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	// nothing pending at all
	assert.ErrorIs(t, te.AcceptGovernance(ctx, alice), pool.ErrNotPendingGovernance)

	require.NoError(t, te.SetGovernance(ctx, governance, alice))
	assert.ErrorIs(t, te.AcceptGovernance(ctx, bob), pool.ErrNotPendingGovernance)
	assert.Equal(t, governance, te.State().Governance)
}

func testGovernanceRenominate(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	require.NoError(t, te.SetGovernance(ctx, governance, alice))
	require.NoError(t, te.SetGovernance(ctx, governance, bob))
	assert.ErrorIs(t, te.AcceptGovernance(ctx, alice), pool.ErrNotPendingGovernance)
	require.NoError(t, te.AcceptGovernance(ctx, bob))
	assert.Equal(t, bob, te.State().Governance)
}

func testGuardianScope(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()
	sym := te.addToken(t, "BTC", types.SideLong, 100, 0)

	guardian := "guardian"
	assert.ErrorIs(t, te.SetGuardian(ctx, alice, guardian), pool.ErrNotGovernance)
	require.NoError(t, te.SetGuardian(ctx, governance, guardian))

	// the guardian may pause and unpause
	require.NoError(t, te.SetPaused(ctx, guardian, sym, true, true, true))
	params := te.Params(sym)
	assert.True(t, params.DepositPaused)
	assert.True(t, params.WithdrawPaused)
	assert.True(t, params.UpdatePaused)
	require.NoError(t, te.SetPaused(ctx, guardian, sym, false, false, false))

	// and do nothing else
	assert.ErrorIs(t, te.SetFee(ctx, guardian, sym, 200), pool.ErrNotGovernance)
	assert.ErrorIs(t, te.SetProtocolFee(ctx, guardian, 100), pool.ErrNotGovernance)
	_, err := te.CollectProtocolFees(ctx, guardian)
	assert.ErrorIs(t, err, pool.ErrNotGovernance)

	// random parties cannot pause
	assert.ErrorIs(t, te.SetPaused(ctx, alice, sym, true, false, false), pool.ErrNotGovernanceOrGuardian)
}

func testGuardianStepDown(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()
	sym := te.addToken(t, "BTC", types.SideLong, 100, 0)

	guardian := "guardian"
	require.NoError(t, te.SetGuardian(ctx, governance, guardian))
	require.NoError(t, te.RemoveGuardian(ctx, guardian))
	assert.Empty(t, te.State().Guardian)
	assert.ErrorIs(t, te.SetPaused(ctx, guardian, sym, true, false, false), pool.ErrNotGovernanceOrGuardian)
}

func testGuardianRemoved(t *testing.T) {
	te := getTestEngine(t)
	defer te.ctrl.Finish()
	ctx := context.Background()

	guardian := "guardian"
	require.NoError(t, te.SetGuardian(ctx, governance, guardian))
	assert.ErrorIs(t, te.RemoveGuardian(ctx, alice), pool.ErrNotGovernanceOrGuardian)
	require.NoError(t, te.RemoveGuardian(ctx, governance))
	assert.Empty(t, te.State().Guardian)
}
