package cubetoken

import (
	"errors"
	"sync"

	"code.cubepool.io/cube/libs/num"
)

var (
	// ErrNotOwner is returned when a party other than the owning pool
	// attempts to mint or burn.
	ErrNotOwner = errors.New("caller is not the token owner")
	// ErrInsufficientBalance is returned on a burn or transfer exceeding
	// the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrZeroAmount is returned when an operation is given a nil or zero amount.
	ErrZeroAmount = errors.New("amount must be a positive quantity")
)

// Token is the supply ledger for a single cube token. Minting and burning
// are reserved to the owner party, which in practice is the pool engine.
type Token struct {
	name   string
	symbol string
	owner  string

	mu       sync.RWMutex
	balances map[string]*num.Uint
	supply   *num.Uint
}

// New returns an empty ledger owned by the given party.
func New(name, symbol, owner string) *Token {
	return &Token{
		name:     name,
		symbol:   symbol,
		owner:    owner,
		balances: map[string]*num.Uint{},
		supply:   num.Zero(),
	}
}

func (t *Token) Name() string { return t.name }

func (t *Token) Symbol() string { return t.symbol }

// TotalSupply returns the sum of all balances.
func (t *Token) TotalSupply() *num.Uint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.supply.Clone()
}

// BalanceOf returns the holder's balance, zero for unknown holders.
func (t *Token) BalanceOf(holder string) *num.Uint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if b, ok := t.balances[holder]; ok {
		return b.Clone()
	}
	return num.Zero()
}

// Mint credits qty to the recipient. Only the owner may call it.
func (t *Token) Mint(caller, to string, qty *num.Uint) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, ok := t.balances[to]
	if !ok {
		bal = num.Zero()
		t.balances[to] = bal
	}
	bal.AddSum(qty)
	t.supply.AddSum(qty)
	return nil
}

// Burn debits qty from the holder. Only the owner may call it, and the
// holder's balance must cover the full quantity.
func (t *Token) Burn(caller, from string, qty *num.Uint) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, ok := t.balances[from]
	if !ok || bal.LT(qty) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, qty)
	if bal.IsZero() {
		delete(t.balances, from)
	}
	t.supply.Sub(t.supply, qty)
	return nil
}

// Transfer moves qty between holders without touching the supply.
func (t *Token) Transfer(from, to string, qty *num.Uint) error {
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal, ok := t.balances[from]
	if !ok || bal.LT(qty) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, qty)
	if bal.IsZero() {
		delete(t.balances, from)
	}
	dst, ok := t.balances[to]
	if !ok {
		dst = num.Zero()
		t.balances[to] = dst
	}
	dst.AddSum(qty)
	return nil
}
