package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/internal/repository"
	"github.com/coopfin/ledger-api/pkg/money"
	"gorm.io/gorm"
)

// SettingsService manages per-product rate and fee configuration
type SettingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// RateSettingInput patches a mandatory rate. Nil fields are left untouched.
type RateSettingInput struct {
	Unit  *string      `json:"unit"`
	Value *money.Money `json:"value"`
}

// FeeSettingInput patches an optional fee
type FeeSettingInput struct {
	Unit    *string      `json:"unit"`
	Value   *money.Money `json:"value"`
	Enabled *bool        `json:"enabled"`
}

// AccrualPeriodInput patches the accrual interval
type AccrualPeriodInput struct {
	Unit  *string `json:"type"`
	Value *int64  `json:"value"`
}

// UpdateLoanTypeInput is a partial update of one loan type's settings
type UpdateLoanTypeInput struct {
	InterestRate   *RateSettingInput   `json:"interest_rate"`
	ServiceFee     *FeeSettingInput    `json:"service_fee"`
	CapitalBuildUp *FeeSettingInput    `json:"capital_build_up"`
	Savings        *FeeSettingInput    `json:"savings"`
	Accrual        *AccrualPeriodInput `json:"time"`
}

// UpdateDepositCategoryInput is a partial update of one deposit category's
// settings
type UpdateDepositCategoryInput struct {
	InterestRate *RateSettingInput   `json:"interest_rate"`
	Accrual      *AccrualPeriodInput `json:"time"`
}

func applyRate(set map[string]any, prefix string, in *RateSettingInput) error {
	if in == nil {
		return nil
	}
	if in.Unit != nil {
		if !models.ValidSettingUnit(*in.Unit) {
			return validationError(prefix+"unit", "must be % or Fixed")
		}
		set[prefix+"unit"] = *in.Unit
	}
	if in.Value != nil {
		if in.Value.IsNegative() {
			return validationError(prefix+"value", "must not be negative")
		}
		set[prefix+"value"] = *in.Value
	}
	return nil
}

func applyFee(set map[string]any, prefix string, in *FeeSettingInput) error {
	if in == nil {
		return nil
	}
	if in.Unit != nil {
		if !models.ValidSettingUnit(*in.Unit) {
			return validationError(prefix+"unit", "must be % or Fixed")
		}
		set[prefix+"unit"] = *in.Unit
	}
	if in.Value != nil {
		if in.Value.IsNegative() {
			return validationError(prefix+"value", "must not be negative")
		}
		set[prefix+"value"] = *in.Value
	}
	if in.Enabled != nil {
		set[prefix+"enabled"] = *in.Enabled
	}
	return nil
}

func applyAccrual(set map[string]any, in *AccrualPeriodInput) error {
	if in == nil {
		return nil
	}
	if in.Unit != nil {
		if !models.ValidPeriodUnit(*in.Unit) {
			return validationError("time.type", "must be days, months or years")
		}
		set["accrual_unit"] = *in.Unit
	}
	if in.Value != nil {
		if *in.Value < 0 {
			return validationError("time.value", "must not be negative")
		}
		set["accrual_value"] = *in.Value
	}
	return nil
}

// GetLoanType returns settings for one loan type
func (s *SettingsService) GetLoanType(ctx context.Context, loanType string) (*models.LoanTypeSettings, error) {
	if !models.ValidLoanType(loanType) {
		return nil, validationError("loanType", "is not a known loan type")
	}
	settings, err := s.settings.GetLoanType(ctx, loanType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}
	return settings, nil
}

// ListLoanTypes returns settings for every loan type
func (s *SettingsService) ListLoanTypes(ctx context.Context) ([]models.LoanTypeSettings, error) {
	return s.settings.ListLoanTypes(ctx)
}

// UpdateLoanType applies a partial update to one loan type's settings
func (s *SettingsService) UpdateLoanType(ctx context.Context, loanType string, input UpdateLoanTypeInput) (*models.LoanTypeSettings, error) {
	if !models.ValidLoanType(loanType) {
		return nil, validationError("loanType", "is not a known loan type")
	}

	set := map[string]any{}
	if err := applyRate(set, "interest_rate_", input.InterestRate); err != nil {
		return nil, err
	}
	if err := applyFee(set, "service_fee_", input.ServiceFee); err != nil {
		return nil, err
	}
	if err := applyFee(set, "capital_build_up_", input.CapitalBuildUp); err != nil {
		return nil, err
	}
	if err := applyFee(set, "savings_", input.Savings); err != nil {
		return nil, err
	}
	if err := applyAccrual(set, input.Accrual); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, validationError("body", "contains no settings fields")
	}

	updated, err := s.settings.UpdateLoanType(ctx, loanType, set)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}

	slog.Info("loan type settings updated", "loan_type", loanType)
	return updated, nil
}

// GetDepositCategory returns settings for one deposit category
func (s *SettingsService) GetDepositCategory(ctx context.Context, category string) (*models.DepositCategorySettings, error) {
	if !models.ValidDepositCategory(category) {
		return nil, validationError("category", "is not a known deposit category")
	}
	settings, err := s.settings.GetDepositCategory(ctx, category)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}
	return settings, nil
}

// ListDepositCategories returns settings for every deposit category
func (s *SettingsService) ListDepositCategories(ctx context.Context) ([]models.DepositCategorySettings, error) {
	return s.settings.ListDepositCategories(ctx)
}

// UpdateDepositCategory applies a partial update to one deposit category's
// settings
func (s *SettingsService) UpdateDepositCategory(ctx context.Context, category string, input UpdateDepositCategoryInput) (*models.DepositCategorySettings, error) {
	if !models.ValidDepositCategory(category) {
		return nil, validationError("category", "is not a known deposit category")
	}

	set := map[string]any{}
	if err := applyRate(set, "interest_rate_", input.InterestRate); err != nil {
		return nil, err
	}
	if err := applyAccrual(set, input.Accrual); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, validationError("body", "contains no settings fields")
	}

	updated, err := s.settings.UpdateDepositCategory(ctx, category, set)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}

	slog.Info("deposit category settings updated", "category", category)
	return updated, nil
}

// EnsureDefaults provisions zeroed settings rows for every known product
// so lookups never miss on a fresh database
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	return s.settings.EnsureDefaults(ctx)
}
