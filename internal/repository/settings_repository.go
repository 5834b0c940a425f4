package repository

import (
	"context"

	"github.com/coopfin/ledger-api/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository defines the interface for product settings access.
type SettingsRepository interface {
	GetLoanType(ctx context.Context, loanType string) (*models.LoanTypeSettings, error)
	ListLoanTypes(ctx context.Context) ([]models.LoanTypeSettings, error)
	UpdateLoanType(ctx context.Context, loanType string, set map[string]any) (*models.LoanTypeSettings, error)
	GetDepositCategory(ctx context.Context, category string) (*models.DepositCategorySettings, error)
	ListDepositCategories(ctx context.Context) ([]models.DepositCategorySettings, error)
	UpdateDepositCategory(ctx context.Context, category string, set map[string]any) (*models.DepositCategorySettings, error)
	EnsureDefaults(ctx context.Context) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetLoanType(ctx context.Context, loanType string) (*models.LoanTypeSettings, error) {
	var s models.LoanTypeSettings
	err := r.db.WithContext(ctx).First(&s, "loan_type = ?", loanType).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) ListLoanTypes(ctx context.Context) ([]models.LoanTypeSettings, error) {
	var all []models.LoanTypeSettings
	err := r.db.WithContext(ctx).Order("loan_type ASC").Find(&all).Error
	return all, err
}

func (r *settingsRepository) UpdateLoanType(ctx context.Context, loanType string, set map[string]any) (*models.LoanTypeSettings, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LoanTypeSettings{}).
		Where("loan_type = ?", loanType).
		Updates(set)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetLoanType(ctx, loanType)
}

func (r *settingsRepository) GetDepositCategory(ctx context.Context, category string) (*models.DepositCategorySettings, error) {
	var s models.DepositCategorySettings
	err := r.db.WithContext(ctx).First(&s, "category = ?", category).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) ListDepositCategories(ctx context.Context) ([]models.DepositCategorySettings, error) {
	var all []models.DepositCategorySettings
	err := r.db.WithContext(ctx).Order("category ASC").Find(&all).Error
	return all, err
}

func (r *settingsRepository) UpdateDepositCategory(ctx context.Context, category string, set map[string]any) (*models.DepositCategorySettings, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DepositCategorySettings{}).
		Where("category = ?", category).
		Updates(set)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetDepositCategory(ctx, category)
}

// EnsureDefaults provisions zeroed settings rows for every known product
// type. Runs once at startup and is idempotent, so no read path ever has to
// create settings as a side effect.
func (r *settingsRepository) EnsureDefaults(ctx context.Context) error {
	for _, loanType := range models.LoanTypes {
		defaults := models.DefaultLoanTypeSettings(loanType)
		err := r.db.WithContext(ctx).
			Where("loan_type = ?", loanType).
			FirstOrCreate(defaults).Error
		if err != nil {
			return err
		}
	}
	for _, category := range models.DepositCategories {
		defaults := models.DefaultDepositCategorySettings(category)
		err := r.db.WithContext(ctx).
			Where("category = ?", category).
			FirstOrCreate(defaults).Error
		if err != nil {
			return err
		}
	}
	return nil
}
