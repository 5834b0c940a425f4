package repository

import (
	"context"
	"time"

	"github.com/coopfin/ledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanMutation describes the outcome of a locked mutation: column updates on
// the aggregate and, optionally, one new ledger entry. Both are persisted in
// the same database transaction, so a reader never observes an appended entry
// without its balance update or vice versa.
type LoanMutation struct {
	Set   map[string]any
	Entry *models.LoanTransaction
}

// LoanMutator inspects the current (row-locked) state of a loan and returns
// the mutation to apply, or an error to abort with the loan unchanged.
type LoanMutator func(loan *models.Loan) (*LoanMutation, error)

// LoanRepository defines the interface for loan data access. Every read
// excludes soft-deleted loans explicitly.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id string) (*models.Loan, error)
	FindByIDWithLedger(ctx context.Context, id string) (*models.Loan, error)
	FindByUsername(ctx context.Context, username string, statuses []string) ([]models.Loan, error)
	List(ctx context.Context, statuses []string) ([]models.Loan, error)
	ApplyLocked(ctx context.Context, id string, fn LoanMutator) error
	SoftDelete(ctx context.Context, id string) error
	FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Loan, error)
	FindPastDue(ctx context.Context, now time.Time) ([]models.Loan, error)
	FindTransaction(ctx context.Context, loanID, transactionID string) (*models.LoanTransaction, error)
	UpdateTransaction(ctx context.Context, loanID, transactionID string, set map[string]any) error
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) FindByID(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithLedger(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Preload("Ledger", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByUsername(ctx context.Context, username string, statuses []string) ([]models.Loan, error) {
	var loans []models.Loan
	q := r.db.WithContext(ctx).Where("deleted = ? AND username = ?", false, username)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("submission_date DESC").Find(&loans).Error
	return loans, err
}

func (r *loanRepository) List(ctx context.Context, statuses []string) ([]models.Loan, error) {
	var loans []models.Loan
	q := r.db.WithContext(ctx).Where("deleted = ?", false)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("submission_date DESC").Find(&loans).Error
	return loans, err
}

// ApplyLocked loads the loan under a row lock, passes it (with its ledger in
// append order) to fn, and persists the returned mutation atomically. The
// row lock serializes concurrent mutations of the same loan, so balance
// updates can never lose a concurrent append.
func (r *loanRepository) ApplyLocked(ctx context.Context, id string, fn LoanMutator) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("deleted = ?", false).
			First(&loan, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("loan_id = ?", id).
			Order("seq ASC").
			Find(&loan.Ledger).Error; err != nil {
			return err
		}

		mut, err := fn(&loan)
		if err != nil {
			return err
		}
		if mut == nil {
			return nil
		}

		if mut.Entry != nil {
			mut.Entry.LoanID = id
			mut.Entry.Seq = len(loan.Ledger) + 1
			if err := tx.Create(mut.Entry).Error; err != nil {
				return err
			}
		}

		if len(mut.Set) > 0 {
			if err := tx.Model(&models.Loan{}).
				Where("id = ?", id).
				Updates(mut.Set).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SoftDelete marks the loan deleted regardless of its status. The ledger and
// balance are left untouched.
func (r *loanRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
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

func (r *loanRepository) FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("deleted = ? AND status = ? AND next_accrual_date IS NOT NULL AND next_accrual_date <= ?",
			false, models.LoanStatusReleased, now).
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) FindPastDue(ctx context.Context, now time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("deleted = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?",
			false, models.LoanStatusReleased, now).
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) FindTransaction(ctx context.Context, loanID, transactionID string) (*models.LoanTransaction, error) {
	var entry models.LoanTransaction
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND transaction_id = ?", loanID, transactionID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateTransaction corrects fields of one ledger entry in place. Order, seq
// and transaction ID are never touched, and balances of later entries are not
// recomputed.
func (r *loanRepository) UpdateTransaction(ctx context.Context, loanID, transactionID string, set map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.LoanTransaction{}).
		Where("loan_id = ? AND transaction_id = ?", loanID, transactionID).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
