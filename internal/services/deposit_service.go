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

// DepositService handles deposit account lifecycle and ledger business logic
type DepositService struct {
	deposits repository.DepositRepository
	settings repository.SettingsRepository
}

// NewDepositService creates a new deposit service
func NewDepositService(deposits repository.DepositRepository, settings repository.SettingsRepository) *DepositService {
	return &DepositService{
		deposits: deposits,
		settings: settings,
	}
}

// CreateDepositInput carries the member-facing fields of a new deposit account
type CreateDepositInput struct {
	Category       string      `json:"category" binding:"required"`
	OriginalAmount money.Money `json:"originalDepositAmount" binding:"required"`
}

// Create registers a new deposit account in pending status
func (s *DepositService) Create(ctx context.Context, username string, input CreateDepositInput) (*models.Deposit, error) {
	if !models.ValidDepositCategory(input.Category) {
		return nil, validationError("category", "is not a known deposit category")
	}
	if input.OriginalAmount.IsZero() || input.OriginalAmount.IsNegative() {
		return nil, validationError("originalDepositAmount", "must be greater than zero")
	}

	deposit := &models.Deposit{
		ID:             uuid.NewString(),
		Username:       username,
		Category:       input.Category,
		Status:         models.DepositStatusPending,
		SubmissionDate: time.Now(),
		OriginalAmount: input.OriginalAmount.Round2(),
		RunningAmount:  input.OriginalAmount.Round2(),
	}

	if err := s.deposits.Create(ctx, deposit); err != nil {
		return nil, err
	}

	slog.Info("deposit account created",
		"deposit_id", deposit.ID,
		"username", username,
		"category", deposit.Category,
		"amount", deposit.OriginalAmount.String())

	return deposit, nil
}

// Review accepts or rejects a pending deposit. Acceptance anchors the
// accrual grid one period after the submission date so interest starts
// counting from when the member actually put the money in.
func (s *DepositService) Review(ctx context.Context, id string, accepted bool) (*models.Deposit, error) {
	var reviewed *models.Deposit

	err := s.deposits.ApplyLocked(ctx, id, func(deposit *models.Deposit) (*repository.DepositMutation, error) {
		machine := statemachine.NewDepositFSM(deposit)
		now := time.Now()

		if !accepted {
			if err := machine.Reject(ctx); err != nil {
				return nil, ErrInvalidState
			}
			reviewed = deposit
			return &repository.DepositMutation{
				Set: map[string]any{
					"status":        deposit.Status,
					"approval_date": now,
				},
			}, nil
		}

		settings, err := s.settings.GetDepositCategory(ctx, deposit.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSettingsMissing
			}
			return nil, err
		}

		if err := machine.Accept(ctx); err != nil {
			return nil, ErrInvalidState
		}

		reviewed = deposit
		return &repository.DepositMutation{
			Set: map[string]any{
				"status":            deposit.Status,
				"approval_date":     now,
				"next_accrual_date": settings.Accrual.NextFrom(deposit.SubmissionDate),
			},
		}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("deposit reviewed",
		"deposit_id", id,
		"accepted", accepted,
		"status", reviewed.Status)

	return reviewed, nil
}

// UpdateStatus drives a deposit to completion (account closure)
func (s *DepositService) UpdateStatus(ctx context.Context, id string, target string) (*models.Deposit, error) {
	if !models.ValidDepositStatus(target) {
		return nil, validationError("status", "is not a known deposit status")
	}

	var updated *models.Deposit

	err := s.deposits.ApplyLocked(ctx, id, func(deposit *models.Deposit) (*repository.DepositMutation, error) {
		machine := statemachine.NewDepositFSM(deposit)
		if err := machine.TransitionTo(ctx, target); err != nil {
			return nil, ErrInvalidState
		}

		updated = deposit
		return &repository.DepositMutation{
			Set: map[string]any{"status": deposit.Status},
		}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("deposit status updated", "deposit_id", id, "status", updated.Status)
	return updated, nil
}

// AppendDepositTransactionInput carries a manual deposit ledger entry
type AppendDepositTransactionInput struct {
	ORNumber        string      `json:"ORNumber"`
	TransactionType string      `json:"transactionType"`
	TransactionDate time.Time   `json:"transactionDate"`
	Amount          money.Money `json:"amount"`
	Interest        money.Money `json:"interest"`
	Officer         models.Name `json:"officer"`
}

// AppendTransaction appends a deposit or withdrawal entry and recomputes the
// running amount atomically. Withdrawals may not overdraw the account.
func (s *DepositService) AppendTransaction(ctx context.Context, id string, input AppendDepositTransactionInput) (*models.DepositTransaction, error) {
	if !models.ValidDepositTransactionType(input.TransactionType) {
		return nil, validationError("transactionType", "must be Deposit or Withdrawal")
	}
	if input.Amount.IsNegative() {
		return nil, validationError("amount", "must not be negative")
	}

	var appended *models.DepositTransaction

	err := s.deposits.ApplyLocked(ctx, id, func(deposit *models.Deposit) (*repository.DepositMutation, error) {
		now := time.Now()
		transactionDate := input.TransactionDate
		if transactionDate.IsZero() {
			transactionDate = now
		}

		entry := &models.DepositTransaction{
			DepositID:       deposit.ID,
			TransactionID:   NextTransactionID(),
			ORNumber:        input.ORNumber,
			TransactionType: input.TransactionType,
			TransactionDate: transactionDate,
			SubmissionDate:  now,
			Amount:          input.Amount.Round2(),
			Interest:        input.Interest.Round2(),
			Officer:         input.Officer,
		}

		newBalance := deposit.RunningAmount.Add(entry.Delta()).Round2()
		if newBalance.IsNegative() {
			return nil, ErrInvalidBalance
		}
		entry.Balance = newBalance

		appended = entry
		return &repository.DepositMutation{
			Set:   map[string]any{"running_amount": newBalance},
			Entry: entry,
		}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("deposit ledger entry appended",
		"deposit_id", id,
		"transaction_id", appended.TransactionID,
		"type", appended.TransactionType,
		"balance", appended.Balance.String())

	return appended, nil
}

// AmendDepositTransactionInput patches a historical deposit ledger entry.
// Nil fields are left untouched; amendments do not cascade.
type AmendDepositTransactionInput struct {
	ORNumber        *string      `json:"ORNumber"`
	TransactionDate *time.Time   `json:"transactionDate"`
	Amount          *money.Money `json:"amount"`
	Interest        *money.Money `json:"interest"`
	Officer         *models.Name `json:"officer"`
}

func (in AmendDepositTransactionInput) changes() map[string]any {
	set := map[string]any{}
	if in.ORNumber != nil {
		set["or_number"] = *in.ORNumber
	}
	if in.TransactionDate != nil {
		set["transaction_date"] = *in.TransactionDate
	}
	if in.Amount != nil {
		set["amount"] = in.Amount.Round2()
	}
	if in.Interest != nil {
		set["interest"] = in.Interest.Round2()
	}
	if in.Officer != nil {
		set["officer_given"] = in.Officer.Given
		set["officer_middle"] = in.Officer.Middle
		set["officer_last"] = in.Officer.Last
	}
	return set
}

// AmendTransaction corrects fields of an existing deposit ledger entry
func (s *DepositService) AmendTransaction(ctx context.Context, depositID, transactionID string, input AmendDepositTransactionInput) (*models.DepositTransaction, error) {
	set := input.changes()
	if len(set) == 0 {
		return nil, validationError("body", "contains no amendable fields")
	}

	if err := s.deposits.UpdateTransaction(ctx, depositID, transactionID, set); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entry, err := s.deposits.FindTransaction(ctx, depositID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("deposit ledger entry amended", "deposit_id", depositID, "transaction_id", transactionID)
	return entry, nil
}

// Get returns a deposit by ID
func (s *DepositService) Get(ctx context.Context, id string) (*models.Deposit, error) {
	deposit, err := s.deposits.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return deposit, nil
}

// Ledger returns a deposit with its full ledger in append order
func (s *DepositService) Ledger(ctx context.Context, id string) (*models.Deposit, error) {
	deposit, err := s.deposits.FindByIDWithLedger(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return deposit, nil
}

// GetTransaction returns a single deposit ledger entry
func (s *DepositService) GetTransaction(ctx context.Context, depositID, transactionID string) (*models.DepositTransaction, error) {
	entry, err := s.deposits.FindTransaction(ctx, depositID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// List returns deposits, optionally filtered by status
func (s *DepositService) List(ctx context.Context, statuses []string) ([]models.Deposit, error) {
	for _, status := range statuses {
		if !models.ValidDepositStatus(status) {
			return nil, validationError("status", "is not a known deposit status")
		}
	}
	return s.deposits.List(ctx, statuses)
}

// FindByMember returns a member's deposit accounts
func (s *DepositService) FindByMember(ctx context.Context, username string) ([]models.Deposit, error) {
	return s.deposits.FindByUsername(ctx, username)
}

// Delete soft-deletes a deposit
func (s *DepositService) Delete(ctx context.Context, id string) error {
	if err := s.deposits.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("deposit deleted", "deposit_id", id)
	return nil
}
