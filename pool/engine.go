package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"code.cubepool.io/cube/cubetoken"
	"code.cubepool.io/cube/events"
	"code.cubepool.io/cube/libs/num"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/metrics"
	"code.cubepool.io/cube/types"
)

var (
	// ErrNotAdded is returned when an operation references an unknown cube token.
	ErrNotAdded = errors.New("cube token not added to the pool")
	// ErrAlreadyAdded is returned when registering a (symbol, side) pair twice.
	ErrAlreadyAdded = errors.New("cube token already added")
	// ErrPaused is returned when the operation's pause flag is set for the token.
	ErrPaused = errors.New("operation paused for this cube token")
	// ErrZeroAddress is returned when the recipient is empty.
	ErrZeroAddress = errors.New("recipient must not be empty")
	// ErrZeroAmount is returned when a deposit or withdrawal amount is zero.
	ErrZeroAmount = errors.New("amount must be a positive quantity")
	// ErrEmptySymbol is returned when registering a token with no spot symbol.
	ErrEmptySymbol = errors.New("spot symbol must not be empty")
	// ErrNotGovernance is returned when a governance-only operation is called
	// by another party.
	ErrNotGovernance = errors.New("caller is not governance")
	// ErrNotPendingGovernance is returned when AcceptGovernance is called by a
	// party other than the pending governance.
	ErrNotPendingGovernance = errors.New("caller is not the pending governance")
	// ErrNotGovernanceOrGuardian is returned when a pause operation is called
	// by a party that is neither governance nor the guardian.
	ErrNotGovernanceOrGuardian = errors.New("caller is not governance or guardian")
	// ErrMaxPoolBalanceExceeded is returned when a deposit would push held
	// collateral over the configured cap.
	ErrMaxPoolBalanceExceeded = errors.New("max pool balance exceeded")
	// ErrMaxPoolShareExceeded is returned when a deposit would push the
	// token's share of total equity over its cap.
	ErrMaxPoolShareExceeded = errors.New("max pool share exceeded")
	// ErrMaxSlippageExceeded is returned when a buy or sell breaches the
	// caller's collateral bound.
	ErrMaxSlippageExceeded = errors.New("max slippage exceeded")
	// ErrAmountTooSmall is returned when the collateral deposited is too
	// small to mint a single unit at the current quote.
	ErrAmountTooSmall = errors.New("collateral too small to mint any quantity")
	// ErrInsufficientPoolBalance is returned when a payout would exceed the
	// pool's collateral balance.
	ErrInsufficientPoolBalance = errors.New("insufficient pool balance")
	// ErrInvalidFee is returned for a deposit/withdraw fee of 100% or more.
	ErrInvalidFee = errors.New("fee should be < 100%")
	// ErrInvalidProtocolFee is returned for a protocol fee above 100%.
	ErrInvalidProtocolFee = errors.New("protocol fee should be <= 100%")
	// ErrInvalidMaxPoolShare is returned for a pool share cap above 100%.
	ErrInvalidMaxPoolShare = errors.New("max pool share should be <= 100%")
	// ErrMathOverflow is returned when a fixed point computation cannot be
	// represented, including division by a zero quote price.
	ErrMathOverflow = errors.New("arithmetic overflow")
)

var (
	priceOne = num.NewUint(1_000_000_000_000_000_000)
	bpsUnit  = num.NewUint(10_000)
)

// party the token ledgers recognize as their minter
const poolParty = "cube-pool"

// Broker sends events out to the rest of the system.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.cubepool.io/cube/pool Broker
type Broker interface {
	Send(event events.Event)
}

// Oracle prices cube tokens off the spot feeds.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/oracle_mock.go -package mocks code.cubepool.io/cube/pool Oracle
type Oracle interface {
	Power() uint64
	RawPower(symbol string, side types.Side) (*num.Uint, error)
	Relative(symbol string, side types.Side, initial *num.Uint) (*num.Uint, error)
}

type cubeTokenEntry struct {
	state  *types.CubeToken
	ledger *cubetoken.Token
}

// Engine holds all pool accounting state. It is single-writer: one mutex
// guards every operation, quotes included, so callers always observe a
// consistent snapshot and failed operations leave no partial state behind.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	broker Broker
	oracle Oracle

	mu  sync.Mutex
	now time.Time

	governance        string
	pendingGovernance string
	guardian          string

	protocolFeeBps      uint64
	maxPoolBalance      *num.Uint
	poolBalance         *num.Uint
	accruedProtocolFees *num.Uint
	// sum over tokens of supply*lastPrice, kept as the exact 1e36 scale
	// product so it conserves under deposits, withdrawals and repricing
	totalEquity *num.Uint

	tokens map[string]*cubeTokenEntry
	order  []string
}

// New returns a pool engine with no registered tokens and empty balances.
func New(log *logging.Logger, cfg Config, broker Broker, oracle Oracle, now time.Time) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:                 log,
		cfg:                 cfg,
		broker:              broker,
		oracle:              oracle,
		now:                 now,
		governance:          cfg.Governance,
		maxPoolBalance:      num.Zero(),
		poolBalance:         num.Zero(),
		accruedProtocolFees: num.Zero(),
		totalEquity:         num.Zero(),
		tokens:              map[string]*cubeTokenEntry{},
	}
}

// ReloadConf updates the internal configuration of the engine. The
// governance party is state, not configuration, once running.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.mu.Lock()
	cfg.Governance = e.governance
	e.cfg = cfg
	e.mu.Unlock()
}

// OnTimeUpdate sets the time against which price updates are stamped.
func (e *Engine) OnTimeUpdate(_ context.Context, t time.Time) {
	e.mu.Lock()
	e.now = t
	e.mu.Unlock()
}

func (e *Engine) token(symbol string) (*cubeTokenEntry, error) {
	entry, ok := e.tokens[symbol]
	if !ok {
		return nil, ErrNotAdded
	}
	return entry, nil
}

// pricedState is the projection of one token's price through the update
// policy: the relative price that would be stored, the pool equity that
// would result, and the tradable quote derived from both. Mutating
// operations persist it, quotes discard it, and both see identical numbers.
type pricedState struct {
	last        *num.Uint
	totalEquity *num.Uint
	quote       *num.Uint
	changed     bool
}

func (e *Engine) project(entry *cubeTokenEntry) (*pricedState, error) {
	st := entry.state
	last := st.LastPrice.Clone()
	te := e.totalEquity.Clone()
	changed := false
	if !st.UpdatePaused {
		fresh, err := e.oracle.Relative(st.SpotSymbol, st.Side, st.InitialPrice)
		if err != nil {
			return nil, err
		}
		if fresh.NEQ(last) {
			supply := entry.ledger.TotalSupply()
			oldEq, _ := num.MulOverflow(supply, last)
			newEq, overflow := num.MulOverflow(supply, fresh)
			if overflow {
				return nil, ErrMathOverflow
			}
			if te.LT(oldEq) {
				te = num.Zero()
			} else {
				te.Sub(te, oldEq)
			}
			te.AddSum(newEq)
			last = fresh
			changed = true
		}
	}
	quote := priceOne.Clone()
	if !te.IsZero() {
		// floor(last * poolBalance * 1e18 / totalEquity), the full product
		// taken before the division
		pbScaled, overflow := num.MulOverflow(e.poolBalance, priceOne)
		if overflow {
			return nil, ErrMathOverflow
		}
		q, overflow := num.MulDiv(last, pbScaled, te)
		if overflow {
			return nil, ErrMathOverflow
		}
		quote = q
	}
	return &pricedState{
		last:        last,
		totalEquity: te,
		quote:       quote,
		changed:     changed,
	}, nil
}

// commitPrice persists a projection. A projection that found the stored
// price unchanged commits nothing, so a no-op oracle read leaves the token
// bit-identical, timestamp included.
func (e *Engine) commitPrice(ctx context.Context, entry *cubeTokenEntry, ps *pricedState) {
	if !ps.changed {
		return
	}
	entry.state.LastPrice = ps.last.Clone()
	entry.state.LastUpdated = e.now
	e.totalEquity = ps.totalEquity.Clone()
	e.broker.Send(events.NewPriceUpdateEvent(ctx, entry.state.Symbol, ps.last, e.now))
}

// UpdatePrice refreshes the stored price of one token from the oracle.
// Paused tokens and unchanged prices are silent no-ops.
func (e *Engine) UpdatePrice(ctx context.Context, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return err
	}
	ps, err := e.project(entry)
	if err != nil {
		return err
	}
	e.commitPrice(ctx, entry, ps)
	return nil
}

// UpdateAllPrices refreshes every registered token in registration order,
// stopping at the first oracle failure.
func (e *Engine) UpdateAllPrices(ctx context.Context) error {
	defer metrics.EngineTimeCounterAdd("pool", "UpdateAllPrices")()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, sym := range e.order {
		entry := e.tokens[sym]
		ps, err := e.project(entry)
		if err != nil {
			return err
		}
		e.commitPrice(ctx, entry, ps)
	}
	return nil
}

type depositResult struct {
	quantity    *num.Uint
	protocolCut *num.Uint
	poolIn      *num.Uint
	eqAdd       *num.Uint
}

func (e *Engine) depositCalc(entry *cubeTokenEntry, ps *pricedState, in *num.Uint) (*depositResult, error) {
	st := entry.state
	// fee rounds against the depositor
	fee, overflow := num.MulDivUp(in, num.NewUint(st.FeeBps), bpsUnit)
	if overflow {
		return nil, ErrMathOverflow
	}
	net := num.Zero().Sub(in, fee)
	if ps.quote.IsZero() {
		return nil, ErrMathOverflow
	}
	qty, overflow := num.MulDiv(net, priceOne, ps.quote)
	if overflow {
		return nil, ErrMathOverflow
	}
	if qty.IsZero() {
		return nil, ErrAmountTooSmall
	}
	protocolCut, _ := num.MulDiv(fee, num.NewUint(e.protocolFeeBps), bpsUnit)
	eqAdd, overflow := num.MulOverflow(qty, ps.last)
	if overflow {
		return nil, ErrMathOverflow
	}

	if err := e.checkDepositCaps(entry, ps, in, qty, eqAdd); err != nil {
		return nil, err
	}

	return &depositResult{
		quantity:    qty,
		protocolCut: protocolCut,
		poolIn:      num.Zero().Sub(in, protocolCut),
		eqAdd:       eqAdd,
	}, nil
}

// checkDepositCaps enforces the pool balance and pool share ceilings
// against the post-deposit state.
func (e *Engine) checkDepositCaps(entry *cubeTokenEntry, ps *pricedState, in, qty, eqAdd *num.Uint) error {
	if !e.maxPoolBalance.IsZero() {
		held := num.Sum(e.poolBalance, e.accruedProtocolFees, in)
		if held.GT(e.maxPoolBalance) {
			return ErrMaxPoolBalanceExceeded
		}
	}
	if st := entry.state; st.MaxPoolShareBps != 0 {
		supplyAfter := num.Sum(entry.ledger.TotalSupply(), qty)
		tokenEqAfter, overflow := num.MulOverflow(supplyAfter, ps.last)
		if overflow {
			return ErrMathOverflow
		}
		teAfter := num.Sum(ps.totalEquity, eqAdd)
		maxEq, _ := num.MulDiv(teAfter, num.NewUint(st.MaxPoolShareBps), bpsUnit)
		if tokenEqAfter.GT(maxEq) {
			return ErrMaxPoolShareExceeded
		}
	}
	return nil
}

// Deposit exchanges collateral for freshly minted cube tokens at the
// current quote price and returns the quantity minted to the recipient.
func (e *Engine) Deposit(ctx context.Context, token, sender, recipient string, collateralIn *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd("pool", "Deposit")()
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if entry.state.DepositPaused {
		return nil, ErrPaused
	}
	if recipient == "" {
		return nil, ErrZeroAddress
	}
	if collateralIn == nil || collateralIn.IsZero() {
		return nil, ErrZeroAmount
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	res, err := e.depositCalc(entry, ps, collateralIn)
	if err != nil {
		return nil, err
	}

	e.commitPrice(ctx, entry, ps)
	if err := entry.ledger.Mint(poolParty, recipient, res.quantity); err != nil {
		return nil, err
	}
	e.poolBalance.AddSum(res.poolIn)
	e.accruedProtocolFees.AddSum(res.protocolCut)
	e.totalEquity.AddSum(res.eqAdd)

	e.broker.Send(events.NewDepositOrWithdrawEvent(
		ctx, token, sender, recipient, true, res.quantity, collateralIn, res.protocolCut,
	))
	return res.quantity.Clone(), nil
}

type withdrawResult struct {
	gross       *num.Uint
	net         *num.Uint
	protocolCut *num.Uint
	eqSub       *num.Uint
}

func (e *Engine) withdrawCalc(entry *cubeTokenEntry, ps *pricedState, qty *num.Uint) (*withdrawResult, error) {
	st := entry.state
	gross, overflow := num.MulDiv(qty, ps.quote, priceOne)
	if overflow {
		return nil, ErrMathOverflow
	}
	// fee rounds against the withdrawer
	fee, overflow := num.MulDivUp(gross, num.NewUint(st.FeeBps), bpsUnit)
	if overflow {
		return nil, ErrMathOverflow
	}
	net := num.Zero().Sub(gross, fee)
	protocolCut, _ := num.MulDiv(fee, num.NewUint(e.protocolFeeBps), bpsUnit)
	eqSub, overflow := num.MulOverflow(qty, ps.last)
	if overflow {
		return nil, ErrMathOverflow
	}
	// invariant check: floor rounding on gross keeps every payout within
	// the pool balance, so this cannot trip through the public operations
	out := num.Sum(net, protocolCut)
	if e.poolBalance.LT(out) {
		return nil, ErrInsufficientPoolBalance
	}
	return &withdrawResult{
		gross:       gross,
		net:         net,
		protocolCut: protocolCut,
		eqSub:       eqSub,
	}, nil
}

func (e *Engine) commitWithdraw(ctx context.Context, entry *cubeTokenEntry, ps *pricedState, sender, recipient string, qty *num.Uint, res *withdrawResult) error {
	e.commitPrice(ctx, entry, ps)
	if err := entry.ledger.Burn(poolParty, sender, qty); err != nil {
		return err
	}
	e.poolBalance.Sub(e.poolBalance, num.Sum(res.net, res.protocolCut))
	e.accruedProtocolFees.AddSum(res.protocolCut)
	if e.totalEquity.LT(res.eqSub) {
		e.totalEquity = num.Zero()
	} else {
		e.totalEquity.Sub(e.totalEquity, res.eqSub)
	}
	e.broker.Send(events.NewDepositOrWithdrawEvent(
		ctx, entry.state.Symbol, sender, recipient, false, qty, res.net, res.protocolCut,
	))
	return nil
}

// Withdraw burns cube tokens from the sender and pays out the net
// collateral value to the recipient.
func (e *Engine) Withdraw(ctx context.Context, token, sender, recipient string, quantityIn *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd("pool", "Withdraw")()
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if entry.state.WithdrawPaused {
		return nil, ErrPaused
	}
	if recipient == "" {
		return nil, ErrZeroAddress
	}
	if quantityIn == nil || quantityIn.IsZero() {
		return nil, ErrZeroAmount
	}
	if entry.ledger.BalanceOf(sender).LT(quantityIn) {
		return nil, cubetoken.ErrInsufficientBalance
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	res, err := e.withdrawCalc(entry, ps, quantityIn)
	if err != nil {
		return nil, err
	}
	if err := e.commitWithdraw(ctx, entry, ps, sender, recipient, quantityIn, res); err != nil {
		return nil, err
	}
	return res.net.Clone(), nil
}

// Buy mints an exact quantity of cube tokens, charging whatever collateral
// that costs at the current quote, rounded against the buyer. It fails with
// ErrMaxSlippageExceeded when the cost breaches maxCollateralIn. A zero
// quantity costs nothing and is not an error.
func (e *Engine) Buy(ctx context.Context, token, sender, recipient string, quantity, maxCollateralIn *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd("pool", "Buy")()
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if entry.state.DepositPaused {
		return nil, ErrPaused
	}
	if recipient == "" {
		return nil, ErrZeroAddress
	}
	if quantity == nil || quantity.IsZero() {
		return num.Zero(), nil
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}

	st := entry.state
	// collateral needed to mint exactly quantity, both legs rounded up
	net, overflow := num.MulDivUp(quantity, ps.quote, priceOne)
	if overflow {
		return nil, ErrMathOverflow
	}
	if st.FeeBps >= 10_000 {
		return nil, ErrInvalidFee
	}
	in, overflow := num.MulDivUp(net, bpsUnit, num.NewUint(10_000-st.FeeBps))
	if overflow {
		return nil, ErrMathOverflow
	}
	if maxCollateralIn != nil && !maxCollateralIn.IsZero() && in.GT(maxCollateralIn) {
		return nil, ErrMaxSlippageExceeded
	}
	fee := num.Zero().Sub(in, net)
	protocolCut, _ := num.MulDiv(fee, num.NewUint(e.protocolFeeBps), bpsUnit)
	eqAdd, overflow := num.MulOverflow(quantity, ps.last)
	if overflow {
		return nil, ErrMathOverflow
	}
	if err := e.checkDepositCaps(entry, ps, in, quantity, eqAdd); err != nil {
		return nil, err
	}

	e.commitPrice(ctx, entry, ps)
	if err := entry.ledger.Mint(poolParty, recipient, quantity); err != nil {
		return nil, err
	}
	e.poolBalance.AddSum(num.Zero().Sub(in, protocolCut))
	e.accruedProtocolFees.AddSum(protocolCut)
	e.totalEquity.AddSum(eqAdd)

	e.broker.Send(events.NewDepositOrWithdrawEvent(
		ctx, token, sender, recipient, true, quantity, in, protocolCut,
	))
	return in.Clone(), nil
}

// Sell burns an exact quantity of cube tokens, paying out the net proceeds.
// It fails with ErrMaxSlippageExceeded when the proceeds fall below
// minCollateralOut. A zero quantity pays nothing and is not an error.
func (e *Engine) Sell(ctx context.Context, token, sender, recipient string, quantity, minCollateralOut *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd("pool", "Sell")()
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if entry.state.WithdrawPaused {
		return nil, ErrPaused
	}
	if recipient == "" {
		return nil, ErrZeroAddress
	}
	if quantity == nil || quantity.IsZero() {
		return num.Zero(), nil
	}
	if entry.ledger.BalanceOf(sender).LT(quantity) {
		return nil, cubetoken.ErrInsufficientBalance
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	res, err := e.withdrawCalc(entry, ps, quantity)
	if err != nil {
		return nil, err
	}
	if minCollateralOut != nil && res.net.LT(minCollateralOut) {
		return nil, ErrMaxSlippageExceeded
	}
	if err := e.commitWithdraw(ctx, entry, ps, sender, recipient, quantity, res); err != nil {
		return nil, err
	}
	return res.net.Clone(), nil
}

// Quote returns the tradable price of the token: the stored relative price
// normalized by the pool's balance to equity ratio, priced fresh unless the
// token's updates are paused. Nothing is persisted.
func (e *Engine) Quote(token string) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	return ps.quote, nil
}

// QuoteDeposit returns the quantity a deposit of collateralIn would mint,
// without mutating anything. Identical arithmetic to Deposit.
func (e *Engine) QuoteDeposit(token string, collateralIn *num.Uint) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if collateralIn == nil || collateralIn.IsZero() {
		return nil, ErrZeroAmount
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	res, err := e.depositCalc(entry, ps, collateralIn)
	if err != nil {
		return nil, err
	}
	return res.quantity, nil
}

// QuoteWithdraw returns the net collateral a withdrawal of quantityIn would
// pay out, without mutating anything. Identical arithmetic to Withdraw.
func (e *Engine) QuoteWithdraw(token string, quantityIn *num.Uint) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	if quantityIn == nil || quantityIn.IsZero() {
		return nil, ErrZeroAmount
	}
	ps, err := e.project(entry)
	if err != nil {
		return nil, err
	}
	res, err := e.withdrawCalc(entry, ps, quantityIn)
	if err != nil {
		return nil, err
	}
	return res.net, nil
}

// CollectProtocolFees pays the accrued protocol fees out to governance and
// resets the accrual to zero, returning the amount collected.
func (e *Engine) CollectProtocolFees(ctx context.Context, caller string) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.allowed(caller, permGovernance); err != nil {
		return nil, err
	}
	amount := e.accruedProtocolFees
	e.accruedProtocolFees = num.Zero()
	e.broker.Send(events.NewProtocolFeesCollectedEvent(ctx, caller, amount))
	return amount, nil
}

// BalanceOf returns the holder's balance of the given cube token.
func (e *Engine) BalanceOf(token, holder string) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	return entry.ledger.BalanceOf(holder), nil
}

// TotalSupply returns the total supply of the given cube token.
func (e *Engine) TotalSupply(token string) (*num.Uint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.token(token)
	if err != nil {
		return nil, err
	}
	return entry.ledger.TotalSupply(), nil
}

// State returns a consistent snapshot of the pool-wide balances.
func (e *Engine) State() types.PoolState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return types.PoolState{
		PoolBalance:         e.poolBalance.Clone(),
		AccruedProtocolFees: e.accruedProtocolFees.Clone(),
		TotalEquity:         e.totalEquity.Clone(),
		MaxPoolBalance:      e.maxPoolBalance.Clone(),
		ProtocolFeeBps:      e.protocolFeeBps,
		Governance:          e.governance,
		PendingGovernance:   e.pendingGovernance,
		Guardian:            e.guardian,
	}
}
