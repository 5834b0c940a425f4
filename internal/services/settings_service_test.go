package services

import (
	"context"
	"testing"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsFixture(t *testing.T) (*SettingsService, *mockSettingsRepository) {
	t.Helper()
	repo := newMockSettingsRepository()
	repo.loanTypes["emergency"] = emergencySettings(t)
	repo.categories["savings"] = savingsSettings(t)
	return NewSettingsService(repo), repo
}

func TestSettingsService_GetLoanType(t *testing.T) {
	svc, _ := newSettingsFixture(t)
	ctx := context.Background()

	settings, err := svc.GetLoanType(ctx, "emergency")
	require.NoError(t, err)
	assert.Equal(t, "emergency", settings.LoanType)

	_, err = svc.GetLoanType(ctx, "mortgage")
	assert.ErrorIs(t, err, ErrValidation, "unknown product names fail validation")

	_, err = svc.GetLoanType(ctx, "commercial")
	assert.ErrorIs(t, err, ErrSettingsMissing, "known product without a row reports missing settings")
}

func TestSettingsService_UpdateLoanType_Validation(t *testing.T) {
	svc, _ := newSettingsFixture(t)
	ctx := context.Background()

	badUnit := "ratio"
	_, err := svc.UpdateLoanType(ctx, "emergency", UpdateLoanTypeInput{
		InterestRate: &RateSettingInput{Unit: &badUnit},
	})
	assert.ErrorIs(t, err, ErrValidation)

	negative := money.MustFromString("-1")
	_, err = svc.UpdateLoanType(ctx, "emergency", UpdateLoanTypeInput{
		ServiceFee: &FeeSettingInput{Value: &negative},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateLoanType(ctx, "emergency", UpdateLoanTypeInput{})
	assert.ErrorIs(t, err, ErrValidation, "empty patch is rejected")
}

func TestSettingsService_UpdateLoanType(t *testing.T) {
	svc, repo := newSettingsFixture(t)

	unit := "%"
	value := money.MustFromString("3")
	enabled := true
	periodUnit := "days"
	periodValue := int64(15)

	updated, err := svc.UpdateLoanType(context.Background(), "emergency", UpdateLoanTypeInput{
		InterestRate: &RateSettingInput{Unit: &unit, Value: &value},
		Savings:      &FeeSettingInput{Enabled: &enabled},
		Accrual:      &AccrualPeriodInput{Unit: &periodUnit, Value: &periodValue},
	})
	require.NoError(t, err)

	assert.Equal(t, "%", updated.InterestRate.Unit)
	assert.Equal(t, "3.00", updated.InterestRate.Value.String())
	assert.True(t, updated.Savings.Enabled)
	assert.Equal(t, "days", updated.Accrual.Unit)
	assert.Equal(t, int64(15), updated.Accrual.Value)

	// fields outside the patch are untouched
	assert.Equal(t, "5.00", updated.ServiceFee.Value.String())
	assert.True(t, updated.ServiceFee.Enabled)

	stored := repo.loanTypes["emergency"]
	assert.Equal(t, "3.00", stored.InterestRate.Value.String(), "patch persists")
	assert.Equal(t, int64(15), stored.Accrual.Value)
}

func TestSettingsService_UpdateDepositCategory(t *testing.T) {
	svc, repo := newSettingsFixture(t)
	ctx := context.Background()

	value := money.MustFromString("1.5")
	updated, err := svc.UpdateDepositCategory(ctx, "savings", UpdateDepositCategoryInput{
		InterestRate: &RateSettingInput{Value: &value},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.50", updated.InterestRate.Value.String())
	assert.Equal(t, "1.50", repo.categories["savings"].InterestRate.Value.String())
	assert.Equal(t, models.PeriodMonths, updated.Accrual.Unit, "unpatched fields keep their value")

	_, err = svc.UpdateDepositCategory(ctx, "checking", UpdateDepositCategoryInput{
		InterestRate: &RateSettingInput{Value: &value},
	})
	assert.ErrorIs(t, err, ErrValidation)
}
