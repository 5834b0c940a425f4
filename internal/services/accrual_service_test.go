package services

import (
	"context"
	"testing"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccrualFixture(t *testing.T) (*AccrualService, *mockLoanRepository, *mockDepositRepository, *mockSettingsRepository) {
	t.Helper()
	loans := newMockLoanRepository()
	deposits := newMockDepositRepository()
	settings := newMockSettingsRepository()
	settings.loanTypes["emergency"] = emergencySettings(t)
	settings.categories["savings"] = savingsSettings(t)
	return NewAccrualService(loans, deposits, settings), loans, deposits, settings
}

func TestAccrualService_AccrueDepositInterest(t *testing.T) {
	svc, _, deposits, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	deposits.deposits["dep-1"] = &models.Deposit{
		ID:              "dep-1",
		Category:        "savings",
		Status:          models.DepositStatusAccepted,
		RunningAmount:   mustMoney(t, "1000"),
		NextAccrualDate: &anchor,
	}

	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	processed, err := svc.AccrueDepositInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored := deposits.deposits["dep-1"]
	// 2% of 1000 credited
	assert.Equal(t, "1020.00", stored.RunningAmount.String())

	require.Len(t, stored.Ledger, 1)
	entry := stored.Ledger[0]
	assert.Equal(t, models.DepositTransactionDeposit, entry.TransactionType)
	assert.Equal(t, "20.00", entry.Interest.String())
	assert.Equal(t, "1020.00", entry.Balance.String())
	assert.Equal(t, models.SystemOfficer, entry.Officer)

	// grid advances from the stored anchor, not from now
	assert.Equal(t, anchor.AddDate(0, 0, 30), *stored.NextAccrualDate)
}

func TestAccrualService_AccrueDepositInterest_NotDueYet(t *testing.T) {
	svc, _, deposits, _ := newAccrualFixture(t)

	future := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	deposits.deposits["dep-1"] = &models.Deposit{
		ID:              "dep-1",
		Category:        "savings",
		Status:          models.DepositStatusAccepted,
		RunningAmount:   mustMoney(t, "1000"),
		NextAccrualDate: &future,
	}

	processed, err := svc.AccrueDepositInterest(context.Background(), time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, deposits.deposits["dep-1"].Ledger)
}

func TestAccrualService_AccrueDepositInterest_DoubleRunIsIdempotent(t *testing.T) {
	svc, _, deposits, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	deposits.deposits["dep-1"] = &models.Deposit{
		ID:              "dep-1",
		Category:        "savings",
		Status:          models.DepositStatusAccepted,
		RunningAmount:   mustMoney(t, "1000"),
		NextAccrualDate: &anchor,
	}

	now := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

	processed, err := svc.AccrueDepositInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	// the advanced anchor (August 31) is past now, so a second run within
	// the same period finds nothing due
	processed, err = svc.AccrueDepositInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Len(t, deposits.deposits["dep-1"].Ledger, 1)
	assert.Equal(t, "1020.00", deposits.deposits["dep-1"].RunningAmount.String())
}

func TestAccrualService_AccrueLoanInterest(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:              "loan-1",
		LoanType:        "emergency",
		Status:          models.LoanStatusReleased,
		Balance:         mustMoney(t, "9500"),
		NextAccrualDate: &anchor,
	}

	processed, err := svc.AccrueLoanInterest(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored := loans.loans["loan-1"]
	// 2% of 9500 charged
	assert.Equal(t, "9690.00", stored.Balance.String())

	require.Len(t, stored.Ledger, 1)
	entry := stored.Ledger[0]
	assert.Equal(t, models.LoanTransactionInterest, entry.TransactionType)
	assert.Equal(t, "190.00", entry.InterestDue.String())
	assert.Equal(t, models.SystemOfficer, entry.Officer)

	assert.Equal(t, anchor.AddDate(0, 0, 30), *stored.NextAccrualDate)
}

func TestAccrualService_AccrueLoanInterest_SettingsMissingSkips(t *testing.T) {
	svc, loans, _, settings := newAccrualFixture(t)
	delete(settings.loanTypes, "emergency")

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:              "loan-1",
		LoanType:        "emergency",
		Status:          models.LoanStatusReleased,
		Balance:         mustMoney(t, "9500"),
		NextAccrualDate: &anchor,
	}

	// a loan without settings is logged and skipped, not a batch failure
	processed, err := svc.AccrueLoanInterest(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, loans.loans["loan-1"].Ledger)
}

func TestAccrualService_RollOverDueDates_Paid(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	due := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:                     "loan-1",
		LoanType:               "emergency",
		PaymentFrequency:       models.FrequencyMonthly,
		Status:                 models.LoanStatusReleased,
		DueDate:                &due,
		IsPaidForCurrentPeriod: true,
	}

	processed, err := svc.RollOverDueDates(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored := loans.loans["loan-1"]
	// advanced from the stored due date: next day plus one month minus a day
	assert.Equal(t, time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC), *stored.DueDate)
	assert.False(t, stored.IsPaidForCurrentPeriod, "paid flag re-arms for the new period")
}

func TestAccrualService_RollOverDueDates_UnpaidLeftPastDue(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	due := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:                     "loan-1",
		LoanType:               "emergency",
		PaymentFrequency:       models.FrequencyMonthly,
		Status:                 models.LoanStatusReleased,
		DueDate:                &due,
		IsPaidForCurrentPeriod: false,
	}

	processed, err := svc.RollOverDueDates(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Equal(t, due, *loans.loans["loan-1"].DueDate, "unpaid loans keep their past due date")
}

func TestAccrualService_RollOverDueDates_WeeklyFrequency(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	due := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:                     "loan-1",
		PaymentFrequency:       models.FrequencyWeekly,
		Status:                 models.LoanStatusReleased,
		DueDate:                &due,
		IsPaidForCurrentPeriod: true,
	}

	_, err := svc.RollOverDueDates(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 7), *loans.loans["loan-1"].DueDate)
}

func TestAccrualService_AccrueLoanInterest_OverlappingRunSkips(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:              "loan-1",
		LoanType:        "emergency",
		Status:          models.LoanStatusReleased,
		Balance:         mustMoney(t, "1000"),
		NextAccrualDate: &anchor,
	}

	// both runs select from the same stale snapshot, as when the cron tick
	// and a manual trigger overlap
	snapshot := []models.Loan{*loans.loans["loan-1"]}
	loans.dueFn = func(now time.Time) []models.Loan { return snapshot }

	now := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

	processed, err := svc.AccrueLoanInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	processed, err = svc.AccrueLoanInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed, "second overlapping run must skip the already-accrued loan")

	stored := loans.loans["loan-1"]
	assert.Equal(t, "1020.00", stored.Balance.String())
	assert.Len(t, stored.Ledger, 1)
	assert.Equal(t, anchor.AddDate(0, 0, 30), *stored.NextAccrualDate)
}

func TestAccrualService_AccrueDepositInterest_OverlappingRunSkips(t *testing.T) {
	svc, _, deposits, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	deposits.deposits["dep-1"] = &models.Deposit{
		ID:              "dep-1",
		Category:        "savings",
		Status:          models.DepositStatusAccepted,
		RunningAmount:   mustMoney(t, "1000"),
		NextAccrualDate: &anchor,
	}

	snapshot := []models.Deposit{*deposits.deposits["dep-1"]}
	deposits.dueFn = func(now time.Time) []models.Deposit { return snapshot }

	now := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

	processed, err := svc.AccrueDepositInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	processed, err = svc.AccrueDepositInterest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Equal(t, "1020.00", deposits.deposits["dep-1"].RunningAmount.String())
	assert.Len(t, deposits.deposits["dep-1"].Ledger, 1)
}

func TestAccrualService_AccrueLoanInterest_CompletedLoanSkipped(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:              "loan-1",
		LoanType:        "emergency",
		Status:          models.LoanStatusComplete,
		Balance:         mustMoney(t, "0"),
		NextAccrualDate: &anchor,
	}

	// stale selection from before the loan completed
	loans.dueFn = func(now time.Time) []models.Loan { return []models.Loan{*loans.loans["loan-1"]} }

	processed, err := svc.AccrueLoanInterest(context.Background(), time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, loans.loans["loan-1"].Ledger)
	assert.Equal(t, anchor, *loans.loans["loan-1"].NextAccrualDate)
}

func TestAccrualService_RollOverDueDates_OverlappingRunSkips(t *testing.T) {
	svc, loans, _, _ := newAccrualFixture(t)

	due := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	loans.loans["loan-1"] = &models.Loan{
		ID:                     "loan-1",
		LoanType:               "emergency",
		PaymentFrequency:       models.FrequencyMonthly,
		Status:                 models.LoanStatusReleased,
		DueDate:                &due,
		IsPaidForCurrentPeriod: true,
	}

	snapshot := []models.Loan{*loans.loans["loan-1"]}
	loans.pastDueFn = func(now time.Time) []models.Loan { return snapshot }

	now := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

	processed, err := svc.RollOverDueDates(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	processed, err = svc.RollOverDueDates(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Equal(t, time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC), *loans.loans["loan-1"].DueDate,
		"second overlapping run must not advance the due date again")
}
