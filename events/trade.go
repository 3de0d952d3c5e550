package events

import (
	"context"

	"code.cubepool.io/cube/libs/num"
)

// DepositOrWithdraw is emitted for every completed deposit, withdrawal, buy
// or sell against the pool.
type DepositOrWithdraw struct {
	*Base
	token        string
	sender       string
	recipient    string
	isDeposit    bool
	quantity     *num.Uint
	collateral   *num.Uint
	protocolFees *num.Uint
}

func NewDepositOrWithdrawEvent(
	ctx context.Context,
	token, sender, recipient string,
	isDeposit bool,
	quantity, collateral, protocolFees *num.Uint,
) *DepositOrWithdraw {
	return &DepositOrWithdraw{
		Base:         newBase(ctx, DepositOrWithdrawEvent),
		token:        token,
		sender:       sender,
		recipient:    recipient,
		isDeposit:    isDeposit,
		quantity:     quantity.Clone(),
		collateral:   collateral.Clone(),
		protocolFees: protocolFees.Clone(),
	}
}

func (d DepositOrWithdraw) CubeToken() string { return d.token }

func (d DepositOrWithdraw) Sender() string { return d.sender }

func (d DepositOrWithdraw) Recipient() string { return d.recipient }

func (d DepositOrWithdraw) IsDeposit() bool { return d.isDeposit }

// Quantity is the cube token quantity minted or burned.
func (d DepositOrWithdraw) Quantity() *num.Uint { return d.quantity.Clone() }

// Collateral is the full collateral amount paid in or out, fees included.
func (d DepositOrWithdraw) Collateral() *num.Uint { return d.collateral.Clone() }

// ProtocolFees is the protocol share of the fee accrued by the operation.
func (d DepositOrWithdraw) ProtocolFees() *num.Uint { return d.protocolFees.Clone() }
