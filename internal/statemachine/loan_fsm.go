package statemachine

import (
	"context"
	"fmt"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/looplab/fsm"
)

// LoanFSM wraps a loan with its lifecycle state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	l := &LoanFSM{
		loan: loan,
	}

	l.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusApproved},

			// pending → rejected (terminal)
			{Name: "reject", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusRejected},

			// approved → released
			{Name: "release", Src: []string{models.LoanStatusApproved}, Dst: models.LoanStatusReleased},

			// released → complete
			{Name: "complete", Src: []string{models.LoanStatusReleased}, Dst: models.LoanStatusComplete},
		},
		fsm.Callbacks{},
	)

	return l
}

// Approve transitions the loan to approved
func (l *LoanFSM) Approve(ctx context.Context) error {
	if !l.loan.MayReview() {
		return fmt.Errorf("loan cannot be approved in current status: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Reject transitions the loan to rejected
func (l *LoanFSM) Reject(ctx context.Context) error {
	if !l.loan.MayReview() {
		return fmt.Errorf("loan cannot be rejected in current status: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Release transitions the loan to released
func (l *LoanFSM) Release(ctx context.Context) error {
	if !l.loan.MayRelease() {
		return fmt.Errorf("loan cannot be released in current status: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "release"); err != nil {
		return fmt.Errorf("failed to release loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Complete transitions the loan to complete
func (l *LoanFSM) Complete(ctx context.Context) error {
	if !l.loan.MayComplete() {
		return fmt.Errorf("loan cannot be completed in current status: %s", l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// TransitionTo fires the event whose destination is the target status.
// Used by the patch endpoint, which receives a target status rather than an
// event name.
func (l *LoanFSM) TransitionTo(ctx context.Context, target string) error {
	switch target {
	case models.LoanStatusApproved:
		return l.Approve(ctx)
	case models.LoanStatusRejected:
		return l.Reject(ctx)
	case models.LoanStatusReleased:
		return l.Release(ctx)
	case models.LoanStatusComplete:
		return l.Complete(ctx)
	default:
		return fmt.Errorf("no transition leads to status: %s", target)
	}
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
