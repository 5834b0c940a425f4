package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/internal/repository"
	"github.com/coopfin/ledger-api/internal/statemachine"
	"github.com/coopfin/ledger-api/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanService handles loan lifecycle and ledger business logic
type LoanService struct {
	loans    repository.LoanRepository
	settings repository.SettingsRepository
}

// NewLoanService creates a new loan service
func NewLoanService(loans repository.LoanRepository, settings repository.SettingsRepository) *LoanService {
	return &LoanService{
		loans:    loans,
		settings: settings,
	}
}

// CreateLoanInput carries the member-facing fields of a new application.
// Status, balance and dates are assigned server-side.
type CreateLoanInput struct {
	LoanType         string             `json:"loanType" binding:"required"`
	Term             int                `json:"term" binding:"required,gt=0"`
	PaymentFrequency string             `json:"paymentFrequency" binding:"required"`
	Classification   string             `json:"classification"`
	OriginalAmount   money.Money        `json:"originalLoanAmount" binding:"required"`
	Coborrower       *models.Coborrower `json:"coborrower"`
}

// Create registers a new loan application in pending status
func (s *LoanService) Create(ctx context.Context, username string, input CreateLoanInput) (*models.Loan, error) {
	if !models.ValidLoanType(input.LoanType) {
		return nil, validationError("loanType", "is not a known loan type")
	}
	if !models.ValidPaymentFrequency(input.PaymentFrequency) {
		return nil, validationError("paymentFrequency", "must be days, weekly or months")
	}
	if input.Classification != "" && !models.ValidClassification(input.Classification) {
		return nil, validationError("classification", "must be new or renewal")
	}
	if input.Term <= 0 {
		return nil, validationError("term", "must be greater than zero")
	}
	if input.OriginalAmount.IsZero() || input.OriginalAmount.IsNegative() {
		return nil, validationError("originalLoanAmount", "must be greater than zero")
	}

	classification := input.Classification
	if classification == "" {
		classification = models.ClassificationNew
	}

	loan := &models.Loan{
		ID:               uuid.NewString(),
		Username:         username,
		LoanType:         input.LoanType,
		Term:             input.Term,
		PaymentFrequency: input.PaymentFrequency,
		Classification:   classification,
		Status:           models.LoanStatusPending,
		SubmissionDate:   time.Now(),
		OriginalAmount:   input.OriginalAmount.Round2(),
		Balance:          input.OriginalAmount.Round2(),
	}
	if input.Coborrower != nil {
		loan.Coborrower = *input.Coborrower
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, err
	}

	slog.Info("loan application created",
		"loan_id", loan.ID,
		"username", username,
		"loan_type", loan.LoanType,
		"amount", loan.OriginalAmount.String())

	return loan, nil
}

// Review approves or rejects a pending loan. Approval looks up the loan
// type settings, charges the enabled upfront deductions against the balance
// and records them as the first ledger entry; both writes happen inside the
// same row-locked transaction as the status change.
func (s *LoanService) Review(ctx context.Context, id string, approved bool, officer models.Name) (*models.Loan, error) {
	var reviewed *models.Loan

	err := s.loans.ApplyLocked(ctx, id, func(loan *models.Loan) (*repository.LoanMutation, error) {
		machine := statemachine.NewLoanFSM(loan)
		now := time.Now()

		if !approved {
			if err := machine.Reject(ctx); err != nil {
				return nil, ErrInvalidState
			}
			reviewed = loan
			return &repository.LoanMutation{
				Set: map[string]any{
					"status":        loan.Status,
					"approval_date": now,
				},
			}, nil
		}

		settings, err := s.settings.GetLoanType(ctx, loan.LoanType)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSettingsMissing
			}
			return nil, err
		}

		if err := machine.Approve(ctx); err != nil {
			return nil, ErrInvalidState
		}

		deductions := settings.TotalDeductions(loan.OriginalAmount)
		newBalance := loan.Balance.Sub(deductions).Round2()
		if newBalance.IsNegative() {
			return nil, ErrInvalidBalance
		}

		mutation := &repository.LoanMutation{
			Set: map[string]any{
				"status":        loan.Status,
				"approval_date": now,
				"balance":       newBalance,
			},
		}

		// the opening entry is written once; a re-review after a failed
		// write must not double-charge
		if len(loan.Ledger) == 0 {
			mutation.Entry = &models.LoanTransaction{
				LoanID:          loan.ID,
				TransactionID:   NextTransactionID(),
				TransactionType: models.LoanTransactionDeduction,
				TransactionDate: now,
				SubmissionDate:  now,
				AmountPaid:      deductions,
				Balance:         newBalance,
				Officer:         officer,
			}
		}

		loan.Balance = newBalance
		reviewed = loan
		return mutation, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("loan reviewed",
		"loan_id", id,
		"approved", approved,
		"status", reviewed.Status)

	return reviewed, nil
}

// UpdateStatus drives a loan through release or completion. Releasing stamps
// the release date and seeds both the due date and the accrual grid anchor.
func (s *LoanService) UpdateStatus(ctx context.Context, id string, target string) (*models.Loan, error) {
	if !models.ValidLoanStatus(target) {
		return nil, validationError("status", "is not a known loan status")
	}

	var updated *models.Loan

	err := s.loans.ApplyLocked(ctx, id, func(loan *models.Loan) (*repository.LoanMutation, error) {
		machine := statemachine.NewLoanFSM(loan)
		if err := machine.TransitionTo(ctx, target); err != nil {
			return nil, ErrInvalidState
		}

		set := map[string]any{"status": loan.Status}

		if target == models.LoanStatusReleased {
			settings, err := s.settings.GetLoanType(ctx, loan.LoanType)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrSettingsMissing
				}
				return nil, err
			}

			now := time.Now()
			set["release_date"] = now
			set["due_date"] = models.NextDueDate(now, loan.PaymentFrequency)
			set["next_accrual_date"] = settings.Accrual.NextFrom(now)
		}

		updated = loan
		return &repository.LoanMutation{Set: set}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("loan status updated", "loan_id", id, "status", updated.Status)
	return updated, nil
}

// AppendTransactionInput carries a manual ledger entry
type AppendTransactionInput struct {
	ORNumber        string      `json:"ORNumber"`
	TransactionType string      `json:"transactionType"`
	TransactionDate time.Time   `json:"transactionDate"`
	AmountPaid      money.Money `json:"amountPaid"`
	AmountDue       money.Money `json:"amountDue"`
	InterestPaid    money.Money `json:"interestPaid"`
	InterestDue     money.Money `json:"interestDue"`
	FinesPaid       money.Money `json:"finesPaid"`
	FinesDue        money.Money `json:"finesDue"`
	Officer         models.Name `json:"officer"`
}

// AppendTransaction appends a ledger entry to a loan and recomputes its
// balance atomically. Payment entries also mark the current period paid.
func (s *LoanService) AppendTransaction(ctx context.Context, id string, input AppendTransactionInput) (*models.LoanTransaction, error) {
	if input.TransactionType != models.LoanTransactionPayment &&
		input.TransactionType != models.LoanTransactionDeduction &&
		input.TransactionType != models.LoanTransactionInterest {
		return nil, validationError("transactionType", "is not a known transaction type")
	}

	var appended *models.LoanTransaction

	err := s.loans.ApplyLocked(ctx, id, func(loan *models.Loan) (*repository.LoanMutation, error) {
		now := time.Now()
		transactionDate := input.TransactionDate
		if transactionDate.IsZero() {
			transactionDate = now
		}

		entry := &models.LoanTransaction{
			LoanID:          loan.ID,
			TransactionID:   NextTransactionID(),
			ORNumber:        input.ORNumber,
			TransactionType: input.TransactionType,
			TransactionDate: transactionDate,
			SubmissionDate:  now,
			AmountPaid:      input.AmountPaid.Round2(),
			AmountDue:       input.AmountDue.Round2(),
			InterestPaid:    input.InterestPaid.Round2(),
			InterestDue:     input.InterestDue.Round2(),
			FinesPaid:       input.FinesPaid.Round2(),
			FinesDue:        input.FinesDue.Round2(),
			Officer:         input.Officer,
		}

		newBalance := loan.Balance.Add(entry.Delta()).Round2()
		if newBalance.IsNegative() {
			return nil, ErrInvalidBalance
		}
		entry.Balance = newBalance

		set := map[string]any{"balance": newBalance}
		if entry.TransactionType == models.LoanTransactionPayment {
			set["is_paid_for_current_period"] = true
		}

		appended = entry
		return &repository.LoanMutation{Set: set, Entry: entry}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("loan ledger entry appended",
		"loan_id", id,
		"transaction_id", appended.TransactionID,
		"type", appended.TransactionType,
		"balance", appended.Balance.String())

	return appended, nil
}

// AmendTransactionInput patches a historical ledger entry in place. Nil
// fields are left untouched. Amendments do not cascade into later balances.
type AmendTransactionInput struct {
	ORNumber        *string      `json:"ORNumber"`
	TransactionDate *time.Time   `json:"transactionDate"`
	AmountPaid      *money.Money `json:"amountPaid"`
	AmountDue       *money.Money `json:"amountDue"`
	InterestPaid    *money.Money `json:"interestPaid"`
	InterestDue     *money.Money `json:"interestDue"`
	FinesPaid       *money.Money `json:"finesPaid"`
	FinesDue        *money.Money `json:"finesDue"`
	Officer         *models.Name `json:"officer"`
}

func (in AmendTransactionInput) changes() map[string]any {
	set := map[string]any{}
	if in.ORNumber != nil {
		set["or_number"] = *in.ORNumber
	}
	if in.TransactionDate != nil {
		set["transaction_date"] = *in.TransactionDate
	}
	if in.AmountPaid != nil {
		set["amount_paid"] = in.AmountPaid.Round2()
	}
	if in.AmountDue != nil {
		set["amount_due"] = in.AmountDue.Round2()
	}
	if in.InterestPaid != nil {
		set["interest_paid"] = in.InterestPaid.Round2()
	}
	if in.InterestDue != nil {
		set["interest_due"] = in.InterestDue.Round2()
	}
	if in.FinesPaid != nil {
		set["fines_paid"] = in.FinesPaid.Round2()
	}
	if in.FinesDue != nil {
		set["fines_due"] = in.FinesDue.Round2()
	}
	if in.Officer != nil {
		set["officer_given"] = in.Officer.Given
		set["officer_middle"] = in.Officer.Middle
		set["officer_last"] = in.Officer.Last
	}
	return set
}

// AmendTransaction corrects fields of an existing ledger entry
func (s *LoanService) AmendTransaction(ctx context.Context, loanID, transactionID string, input AmendTransactionInput) (*models.LoanTransaction, error) {
	set := input.changes()
	if len(set) == 0 {
		return nil, validationError("body", "contains no amendable fields")
	}

	if err := s.loans.UpdateTransaction(ctx, loanID, transactionID, set); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entry, err := s.loans.FindTransaction(ctx, loanID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("loan ledger entry amended", "loan_id", loanID, "transaction_id", transactionID)
	return entry, nil
}

// Get returns a loan by ID
func (s *LoanService) Get(ctx context.Context, id string) (*models.Loan, error) {
	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loan, nil
}

// Ledger returns a loan with its full ledger in append order
func (s *LoanService) Ledger(ctx context.Context, id string) (*models.Loan, error) {
	loan, err := s.loans.FindByIDWithLedger(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetTransaction returns a single ledger entry
func (s *LoanService) GetTransaction(ctx context.Context, loanID, transactionID string) (*models.LoanTransaction, error) {
	entry, err := s.loans.FindTransaction(ctx, loanID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// List returns loans, optionally filtered by status
func (s *LoanService) List(ctx context.Context, statuses []string) ([]models.Loan, error) {
	for _, status := range statuses {
		if !models.ValidLoanStatus(status) {
			return nil, validationError("status", "is not a known loan status")
		}
	}
	return s.loans.List(ctx, statuses)
}

// FindByMember returns a member's loans, optionally filtered by status
func (s *LoanService) FindByMember(ctx context.Context, username string, statuses []string) ([]models.Loan, error) {
	for _, status := range statuses {
		if !models.ValidLoanStatus(status) {
			return nil, validationError("status", "is not a known loan status")
		}
	}
	return s.loans.FindByUsername(ctx, username, statuses)
}

// Delete soft-deletes a loan; its rows survive for audit but no read or
// mutation path returns it afterwards
func (s *LoanService) Delete(ctx context.Context, id string) error {
	if err := s.loans.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("loan deleted", "loan_id", id)
	return nil
}
