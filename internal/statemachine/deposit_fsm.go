package statemachine

import (
	"context"
	"fmt"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/looplab/fsm"
)

// DepositFSM wraps a deposit with its lifecycle state machine
type DepositFSM struct {
	deposit *models.Deposit
	fsm     *fsm.FSM
}

// NewDepositFSM creates a new deposit state machine
func NewDepositFSM(deposit *models.Deposit) *DepositFSM {
	d := &DepositFSM{
		deposit: deposit,
	}

	d.fsm = fsm.NewFSM(
		deposit.Status,
		fsm.Events{
			// pending → accepted
			{Name: "accept", Src: []string{models.DepositStatusPending}, Dst: models.DepositStatusAccepted},

			// pending → rejected (terminal)
			{Name: "reject", Src: []string{models.DepositStatusPending}, Dst: models.DepositStatusRejected},

			// accepted → complete
			{Name: "complete", Src: []string{models.DepositStatusAccepted}, Dst: models.DepositStatusComplete},
		},
		fsm.Callbacks{},
	)

	return d
}

// Accept transitions the deposit to accepted
func (d *DepositFSM) Accept(ctx context.Context) error {
	if !d.deposit.MayReview() {
		return fmt.Errorf("deposit cannot be accepted in current status: %s", d.deposit.Status)
	}

	if err := d.fsm.Event(ctx, "accept"); err != nil {
		return fmt.Errorf("failed to accept deposit: %w", err)
	}

	d.deposit.Status = d.fsm.Current()
	return nil
}

// Reject transitions the deposit to rejected
func (d *DepositFSM) Reject(ctx context.Context) error {
	if !d.deposit.MayReview() {
		return fmt.Errorf("deposit cannot be rejected in current status: %s", d.deposit.Status)
	}

	if err := d.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject deposit: %w", err)
	}

	d.deposit.Status = d.fsm.Current()
	return nil
}

// Complete transitions the deposit to complete
func (d *DepositFSM) Complete(ctx context.Context) error {
	if !d.deposit.MayComplete() {
		return fmt.Errorf("deposit cannot be completed in current status: %s", d.deposit.Status)
	}

	if err := d.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete deposit: %w", err)
	}

	d.deposit.Status = d.fsm.Current()
	return nil
}

// TransitionTo fires the event whose destination is the target status.
func (d *DepositFSM) TransitionTo(ctx context.Context, target string) error {
	switch target {
	case models.DepositStatusAccepted:
		return d.Accept(ctx)
	case models.DepositStatusRejected:
		return d.Reject(ctx)
	case models.DepositStatusComplete:
		return d.Complete(ctx)
	default:
		return fmt.Errorf("no transition leads to status: %s", target)
	}
}

// Current returns the current state
func (d *DepositFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DepositFSM) Can(event string) bool {
	return d.fsm.Can(event)
}
