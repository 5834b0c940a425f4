package repository

import (
	"context"
	"time"

	"github.com/coopfin/ledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DepositMutation mirrors LoanMutation for deposit aggregates.
type DepositMutation struct {
	Set   map[string]any
	Entry *models.DepositTransaction
}

// DepositMutator inspects the current (row-locked) state of a deposit and
// returns the mutation to apply, or an error to abort with it unchanged.
type DepositMutator func(deposit *models.Deposit) (*DepositMutation, error)

// DepositRepository defines the interface for deposit data access. Every
// read excludes soft-deleted deposits explicitly.
type DepositRepository interface {
	Create(ctx context.Context, deposit *models.Deposit) error
	FindByID(ctx context.Context, id string) (*models.Deposit, error)
	FindByIDWithLedger(ctx context.Context, id string) (*models.Deposit, error)
	FindByUsername(ctx context.Context, username string) ([]models.Deposit, error)
	List(ctx context.Context, statuses []string) ([]models.Deposit, error)
	ApplyLocked(ctx context.Context, id string, fn DepositMutator) error
	SoftDelete(ctx context.Context, id string) error
	FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Deposit, error)
	FindTransaction(ctx context.Context, depositID, transactionID string) (*models.DepositTransaction, error)
	UpdateTransaction(ctx context.Context, depositID, transactionID string, set map[string]any) error
}

type depositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *gorm.DB) DepositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

func (r *depositRepository) FindByID(ctx context.Context, id string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepository) FindByIDWithLedger(ctx context.Context, id string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Preload("Ledger", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepository) FindByUsername(ctx context.Context, username string) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("deleted = ? AND username = ?", false, username).
		Order("submission_date DESC").
		Find(&deposits).Error
	return deposits, err
}

func (r *depositRepository) List(ctx context.Context, statuses []string) ([]models.Deposit, error) {
	var deposits []models.Deposit
	q := r.db.WithContext(ctx).Where("deleted = ?", false)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("submission_date DESC").Find(&deposits).Error
	return deposits, err
}

// ApplyLocked loads the deposit under a row lock, passes it (with its ledger
// in append order) to fn, and persists the returned mutation atomically.
func (r *depositRepository) ApplyLocked(ctx context.Context, id string, fn DepositMutator) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deposit models.Deposit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deleted = ?", false).
			First(&deposit, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("deposit_id = ?", id).
			Order("seq ASC").
			Find(&deposit.Ledger).Error; err != nil {
			return err
		}

		mut, err := fn(&deposit)
		if err != nil {
			return err
		}
		if mut == nil {
			return nil
		}

		if mut.Entry != nil {
			mut.Entry.DepositID = id
			mut.Entry.Seq = len(deposit.Ledger) + 1
			if err := tx.Create(mut.Entry).Error; err != nil {
				return err
			}
		}

		if len(mut.Set) > 0 {
			if err := tx.Model(&models.Deposit{}).
				Where("id = ?", id).
				Updates(mut.Set).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SoftDelete marks the deposit deleted regardless of its status.
func (r *depositRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Deposit{}).
		Where("id = ?", id).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *depositRepository) FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("deleted = ? AND status = ? AND next_accrual_date IS NOT NULL AND next_accrual_date <= ?",
			false, models.DepositStatusAccepted, now).
		Find(&deposits).Error
	return deposits, err
}

func (r *depositRepository) FindTransaction(ctx context.Context, depositID, transactionID string) (*models.DepositTransaction, error) {
	var entry models.DepositTransaction
	err := r.db.WithContext(ctx).
		Where("deposit_id = ? AND transaction_id = ?", depositID, transactionID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateTransaction corrects fields of one ledger entry in place without
// recomputing later balances.
func (r *depositRepository) UpdateTransaction(ctx context.Context, depositID, transactionID string, set map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.DepositTransaction{}).
		Where("deposit_id = ? AND transaction_id = ?", depositID, transactionID).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
