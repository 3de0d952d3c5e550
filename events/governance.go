package events

import (
	"context"
)

type GovernanceChanged struct {
	*Base
	governance string
	guardian   string
}

func NewGovernanceChangedEvent(ctx context.Context, governance, guardian string) *GovernanceChanged {
	return &GovernanceChanged{
		Base:       newBase(ctx, GovernanceChangedEvent),
		governance: governance,
		guardian:   guardian,
	}
}

func (g GovernanceChanged) Governance() string { return g.governance }

func (g GovernanceChanged) Guardian() string { return g.guardian }

type PausedChanged struct {
	*Base
	token          string
	depositPaused  bool
	withdrawPaused bool
	updatePaused   bool
}

func NewPausedChangedEvent(ctx context.Context, token string, deposit, withdraw, update bool) *PausedChanged {
	return &PausedChanged{
		Base:           newBase(ctx, PausedChangedEvent),
		token:          token,
		depositPaused:  deposit,
		withdrawPaused: withdraw,
		updatePaused:   update,
	}
}

func (p PausedChanged) CubeToken() string { return p.token }

func (p PausedChanged) DepositPaused() bool { return p.depositPaused }

func (p PausedChanged) WithdrawPaused() bool { return p.withdrawPaused }

func (p PausedChanged) UpdatePaused() bool { return p.updatePaused }
