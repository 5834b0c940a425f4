package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/internal/repository"
	"gorm.io/gorm"
)

// AccrualService applies scheduled interest and advances due dates. Every
// run is idempotent: the next accrual date advances from its previous stored
// value, so a delayed or repeated run lands on the same grid instead of
// drifting with the clock.
type AccrualService struct {
	loans    repository.LoanRepository
	deposits repository.DepositRepository
	settings repository.SettingsRepository
}

// NewAccrualService creates a new accrual service
func NewAccrualService(loans repository.LoanRepository, deposits repository.DepositRepository, settings repository.SettingsRepository) *AccrualService {
	return &AccrualService{
		loans:    loans,
		deposits: deposits,
		settings: settings,
	}
}

// AccrueLoanInterest charges one period's interest to every released loan
// whose next accrual date has arrived. Returns the number of loans processed.
func (s *AccrualService) AccrueLoanInterest(ctx context.Context, now time.Time) (int, error) {
	due, err := s.loans.FindDueForAccrual(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		id := due[i].ID
		if err := s.accrueLoan(ctx, id, now); err != nil {
			if errors.Is(err, errAlreadyAccrued) {
				continue
			}
			// one bad loan must not stall the batch
			slog.Error("loan interest accrual failed", "loan_id", id, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		slog.Info("loan interest accrual complete", "processed", processed, "due", len(due))
	}
	return processed, nil
}

func (s *AccrualService) accrueLoan(ctx context.Context, id string, now time.Time) error {
	return s.loans.ApplyLocked(ctx, id, func(loan *models.Loan) (*repository.LoanMutation, error) {
		if loan.NextAccrualDate == nil {
			return nil, errors.New("loan has no accrual anchor")
		}
		// the selection snapshot may predate a concurrent run; the locked
		// row decides
		if loan.Status != models.LoanStatusReleased || loan.NextAccrualDate.After(now) {
			return nil, errAlreadyAccrued
		}

		settings, err := s.settings.GetLoanType(ctx, loan.LoanType)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSettingsMissing
			}
			return nil, err
		}

		interest := settings.InterestOn(loan.Balance)
		newBalance := loan.Balance.Add(interest).Round2()

		entry := &models.LoanTransaction{
			LoanID:          loan.ID,
			TransactionID:   NextTransactionID(),
			TransactionType: models.LoanTransactionInterest,
			TransactionDate: now,
			SubmissionDate:  now,
			InterestDue:     interest,
			Balance:         newBalance,
			Officer:         models.SystemOfficer,
		}

		return &repository.LoanMutation{
			Set: map[string]any{
				"balance":           newBalance,
				"next_accrual_date": settings.Accrual.NextFrom(*loan.NextAccrualDate),
			},
			Entry: entry,
		}, nil
	})
}

// AccrueDepositInterest credits one period's interest to every accepted
// deposit whose next accrual date has arrived. Returns the number of
// deposits processed.
func (s *AccrualService) AccrueDepositInterest(ctx context.Context, now time.Time) (int, error) {
	due, err := s.deposits.FindDueForAccrual(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		id := due[i].ID
		if err := s.accrueDeposit(ctx, id, now); err != nil {
			if errors.Is(err, errAlreadyAccrued) {
				continue
			}
			slog.Error("deposit interest accrual failed", "deposit_id", id, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		slog.Info("deposit interest accrual complete", "processed", processed, "due", len(due))
	}
	return processed, nil
}

func (s *AccrualService) accrueDeposit(ctx context.Context, id string, now time.Time) error {
	return s.deposits.ApplyLocked(ctx, id, func(deposit *models.Deposit) (*repository.DepositMutation, error) {
		if deposit.NextAccrualDate == nil {
			return nil, errors.New("deposit has no accrual anchor")
		}
		if deposit.Status != models.DepositStatusAccepted || deposit.NextAccrualDate.After(now) {
			return nil, errAlreadyAccrued
		}

		settings, err := s.settings.GetDepositCategory(ctx, deposit.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSettingsMissing
			}
			return nil, err
		}

		interest := settings.InterestOn(deposit.RunningAmount)
		newBalance := deposit.RunningAmount.Add(interest).Round2()

		entry := &models.DepositTransaction{
			DepositID:       deposit.ID,
			TransactionID:   NextTransactionID(),
			TransactionType: models.DepositTransactionDeposit,
			TransactionDate: now,
			SubmissionDate:  now,
			Interest:        interest,
			Balance:         newBalance,
			Officer:         models.SystemOfficer,
		}

		return &repository.DepositMutation{
			Set: map[string]any{
				"running_amount":    newBalance,
				"next_accrual_date": settings.Accrual.NextFrom(*deposit.NextAccrualDate),
			},
			Entry: entry,
		}, nil
	})
}

// RollOverDueDates advances the due date of every released loan whose due
// date has passed and whose current period was paid, then re-arms the paid
// flag for the new period. Unpaid loans are left past due for follow-up.
func (s *AccrualService) RollOverDueDates(ctx context.Context, now time.Time) (int, error) {
	pastDue, err := s.loans.FindPastDue(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range pastDue {
		id := pastDue[i].ID
		err := s.loans.ApplyLocked(ctx, id, func(loan *models.Loan) (*repository.LoanMutation, error) {
			if loan.DueDate == nil {
				return nil, errors.New("loan has no due date")
			}
			if loan.Status != models.LoanStatusReleased || !loan.DueDate.Before(now) {
				return nil, errAlreadyRolled
			}
			if !loan.IsPaidForCurrentPeriod {
				return nil, errSkipRollover
			}

			return &repository.LoanMutation{
				Set: map[string]any{
					"due_date":                   models.NextDueDate(*loan.DueDate, loan.PaymentFrequency),
					"is_paid_for_current_period": false,
				},
			}, nil
		})
		if err != nil {
			if errors.Is(err, errSkipRollover) || errors.Is(err, errAlreadyRolled) {
				continue
			}
			slog.Error("due date rollover failed", "loan_id", id, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		slog.Info("due date rollover complete", "processed", processed, "past_due", len(pastDue))
	}
	return processed, nil
}

// sentinel errors that abort a mutation without treating it as a failure
var (
	errSkipRollover   = errors.New("loan not paid for current period")
	errAlreadyAccrued = errors.New("accrual grid already advanced")
	errAlreadyRolled  = errors.New("due date already advanced")
)
