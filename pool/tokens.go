package pool

import (
	"context"
	"fmt"

	"code.cubepool.io/cube/cubetoken"
	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/types"
)

// deriveNames builds the display name and symbol of a cube token, e.g.
// ("3X Long BTC", "cubeBTC") and ("3X Short BTC", "invBTC").
func deriveNames(power uint64, spotSymbol string, side types.Side) (name, symbol string) {
	if side == types.SideShort {
		return fmt.Sprintf("%dX Short %s", power, spotSymbol), "inv" + spotSymbol
	}
	return fmt.Sprintf("%dX Long %s", power, spotSymbol), "cube" + spotSymbol
}

// AddCubeToken registers a new cube token for the given spot symbol and
// side. The spot price is captured as the normalization reference, so the
// token starts trading at exactly 1.0. Tokens are never removed.
func (e *Engine) AddCubeToken(ctx context.Context, caller, spotSymbol string, side types.Side, feeBps, maxPoolShareBps uint64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return "", err
	}
	if spotSymbol == "" {
		return "", ErrEmptySymbol
	}
	if feeBps >= 10_000 {
		return "", ErrInvalidFee
	}
	if maxPoolShareBps > 10_000 {
		return "", ErrInvalidMaxPoolShare
	}
	name, symbol := deriveNames(e.oracle.Power(), spotSymbol, side)
	if _, ok := e.tokens[symbol]; ok {
		return "", ErrAlreadyAdded
	}
	initial, err := e.oracle.RawPower(spotSymbol, side)
	if err != nil {
		return "", err
	}

	state := &types.CubeToken{
		Symbol:          symbol,
		Name:            name,
		SpotSymbol:      spotSymbol,
		Side:            side,
		InitialPrice:    initial,
		LastPrice:       priceOne.Clone(),
		LastUpdated:     e.now,
		FeeBps:          feeBps,
		MaxPoolShareBps: maxPoolShareBps,
	}
	e.tokens[symbol] = &cubeTokenEntry{
		state:  state,
		ledger: cubetoken.New(name, symbol, poolParty),
	}
	e.order = append(e.order, symbol)

	e.log.Info("cube token added",
		logging.String("symbol", symbol),
		logging.String("spot", spotSymbol),
		logging.String("side", side.String()),
	)
	e.broker.Send(events.NewCubeTokenAddedEvent(ctx, *state.Clone()))
	return symbol, nil
}

// SetFee updates the deposit/withdraw fee of a token, in basis points.
func (e *Engine) SetFee(_ context.Context, caller, token string, feeBps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	if feeBps >= 10_000 {
		return ErrInvalidFee
	}
	entry, err := e.token(token)
	if err != nil {
		return err
	}
	entry.state.FeeBps = feeBps
	return nil
}

// SetMaxPoolShare caps the token's share of total equity, in basis points.
// Zero removes the cap.
func (e *Engine) SetMaxPoolShare(_ context.Context, caller, token string, shareBps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	if shareBps > 10_000 {
		return ErrInvalidMaxPoolShare
	}
	entry, err := e.token(token)
	if err != nil {
		return err
	}
	entry.state.MaxPoolShareBps = shareBps
	return nil
}

// SetProtocolFee sets the protocol's cut of collected fees, in basis points.
func (e *Engine) SetProtocolFee(_ context.Context, caller string, protocolFeeBps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	if protocolFeeBps > 10_000 {
		return ErrInvalidProtocolFee
	}
	e.protocolFeeBps = protocolFeeBps
	return nil
}

// SetMaxPoolBalance caps the collateral the pool will hold. Zero removes
// the cap.
func (e *Engine) SetMaxPoolBalance(_ context.Context, caller string, max *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	if max == nil {
		max = num.Zero()
	}
	e.maxPoolBalance = max.Clone()
	return nil
}

// Params returns the read-only view of a token. Unknown tokens report
// Added == false rather than an error.
func (e *Engine) Params(token string) types.CubeTokenParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.tokens[token]
	if !ok {
		return types.CubeTokenParams{
			InitialPrice: num.Zero(),
			LastPrice:    num.Zero(),
			TotalSupply:  num.Zero(),
		}
	}
	st := entry.state
	return types.CubeTokenParams{
		SpotSymbol:      st.SpotSymbol,
		Side:            st.Side,
		DepositPaused:   st.DepositPaused,
		WithdrawPaused:  st.WithdrawPaused,
		UpdatePaused:    st.UpdatePaused,
		Added:           true,
		FeeBps:          st.FeeBps,
		MaxPoolShareBps: st.MaxPoolShareBps,
		InitialPrice:    st.InitialPrice.Clone(),
		LastPrice:       st.LastPrice.Clone(),
		LastUpdated:     st.LastUpdated,
		TotalSupply:     entry.ledger.TotalSupply(),
	}
}

// CubeTokens returns the registered token symbols in registration order.
func (e *Engine) CubeTokens() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}
