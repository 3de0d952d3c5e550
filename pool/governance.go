package pool

import (
	"context"

	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/logging"
)

type permission int

const (
	permGovernance permission = iota
	permGovernanceOrGuardian
)

// allowed is the single permission check every restricted operation goes
// through.
func (e *Engine) allowed(caller string, p permission) error {
	switch p {
	case permGovernanceOrGuardian:
		if caller == e.governance || (e.guardian != "" && caller == e.guardian) {
			return nil
		}
		return ErrNotGovernanceOrGuardian
	default:
		if caller == e.governance {
			return nil
		}
		return ErrNotGovernance
	}
}

// SetGovernance nominates a new governance party. The transfer only takes
// effect once the nominee accepts, so a bad address cannot brick the pool.
func (e *Engine) SetGovernance(_ context.Context, caller, pending string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	e.pendingGovernance = pending
	e.log.Info("governance transfer nominated",
		logging.String("pending", pending),
	)
	return nil
}

// AcceptGovernance completes a governance transfer. Only the nominated
// party may call it.
func (e *Engine) AcceptGovernance(ctx context.Context, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingGovernance == "" || caller != e.pendingGovernance {
		return ErrNotPendingGovernance
	}
	e.governance = caller
	e.pendingGovernance = ""
	e.broker.Send(events.NewGovernanceChangedEvent(ctx, e.governance, e.guardian))
	return nil
}

// SetGuardian appoints the guardian, a party that may pause tokens but do
// nothing else.
func (e *Engine) SetGuardian(ctx context.Context, caller, guardian string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return err
	}
	e.guardian = guardian
	e.broker.Send(events.NewGovernanceChangedEvent(ctx, e.governance, e.guardian))
	return nil
}

// RemoveGuardian clears the guardian. Governance may remove it, and the
// guardian may step down.
func (e *Engine) RemoveGuardian(ctx context.Context, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernanceOrGuardian); err != nil {
		return err
	}
	e.guardian = ""
	e.broker.Send(events.NewGovernanceChangedEvent(ctx, e.governance, e.guardian))
	return nil
}

// SetPaused sets the three pause flags of a token in one call. Either
// governance or the guardian may pause and unpause.
func (e *Engine) SetPaused(ctx context.Context, caller, token string, deposit, withdraw, priceUpdate bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernanceOrGuardian); err != nil {
		return err
	}
	entry, err := e.token(token)
	if err != nil {
		return err
	}
	entry.state.DepositPaused = deposit
	entry.state.WithdrawPaused = withdraw
	entry.state.UpdatePaused = priceUpdate
	e.broker.Send(events.NewPausedChangedEvent(ctx, token, deposit, withdraw, priceUpdate))
	return nil
}

// SetAllPaused applies the same pause flags to every registered token.
func (e *Engine) SetAllPaused(ctx context.Context, caller string, deposit, withdraw, priceUpdate bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernanceOrGuardian); err != nil {
		return err
	}
	for _, sym := range e.order {
		entry := e.tokens[sym]
		entry.state.DepositPaused = deposit
		entry.state.WithdrawPaused = withdraw
		entry.state.UpdatePaused = priceUpdate
		e.broker.Send(events.NewPausedChangedEvent(ctx, sym, deposit, withdraw, priceUpdate))
	}
	return nil
}
