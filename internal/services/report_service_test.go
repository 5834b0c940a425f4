package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(t *testing.T) (*ReportService, *mockLoanRepository, *mockDepositRepository) {
	t.Helper()
	loans := newMockLoanRepository()
	deposits := newMockDepositRepository()
	settings := newMockSettingsRepository()
	loanSvc := NewLoanService(loans, settings)
	depositSvc := NewDepositService(deposits, settings)
	return NewReportService(loanSvc, depositSvc), loans, deposits
}

func TestReportService_Summary(t *testing.T) {
	svc, loans, deposits := newReportFixture(t)

	pastDue := time.Now().AddDate(0, 0, -3)
	loans.loans["loan-1"] = &models.Loan{
		ID: "loan-1", Username: "jcruz", Status: models.LoanStatusReleased,
		Balance: mustMoney(t, "9500"), DueDate: &pastDue,
	}
	loans.loans["loan-2"] = &models.Loan{
		ID: "loan-2", Username: "jcruz", Status: models.LoanStatusPending,
		Balance: mustMoney(t, "5000"),
	}
	deposits.deposits["dep-1"] = &models.Deposit{
		ID: "dep-1", Username: "jcruz", Status: models.DepositStatusAccepted,
		RunningAmount: mustMoney(t, "1020"),
	}

	summary, err := svc.Summary(context.Background(), "jcruz")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ActiveLoans, "pending loans are not active")
	assert.Equal(t, 1, summary.PastDueLoans)
	assert.Equal(t, "9500.00", summary.TotalLoanBalance.String())
	assert.Equal(t, "1020.00", summary.TotalDeposits.String())
	assert.Len(t, summary.Loans, 2)
	assert.Len(t, summary.Deposits, 1)
}

func TestReportService_LoanLedgerCSV(t *testing.T) {
	svc, loans, _ := newReportFixture(t)

	loans.loans["loan-1"] = &models.Loan{
		ID: "loan-1", Username: "jcruz", Status: models.LoanStatusReleased,
		Ledger: []models.LoanTransaction{
			{
				TransactionID:   "TX1",
				ORNumber:        "OR-1",
				TransactionType: models.LoanTransactionPayment,
				TransactionDate: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
				AmountPaid:      mustMoney(t, "1000"),
				Balance:         mustMoney(t, "8500"),
				Officer:         models.Name{Given: "Maria", Last: "Santos"},
			},
		},
	}

	data, filename, err := svc.LoanLedgerCSV(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Contains(t, filename, "loan_ledger_loan-1")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header plus one entry")
	assert.Equal(t, "Transaction ID", records[0][0])
	assert.Equal(t, "TX1", records[1][0])
	assert.Equal(t, "1000.00", records[1][5])
	assert.Equal(t, "Maria Santos", records[1][11])
}

func TestReportService_LoanLedgerXLSX(t *testing.T) {
	svc, loans, _ := newReportFixture(t)

	loans.loans["loan-1"] = &models.Loan{
		ID: "loan-1", Status: models.LoanStatusReleased,
		Ledger: []models.LoanTransaction{
			{TransactionID: "TX1", TransactionType: models.LoanTransactionInterest},
		},
	}

	data, filename, err := svc.LoanLedgerXLSX(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}

func TestReportService_LoanStatementPDF(t *testing.T) {
	svc, loans, _ := newReportFixture(t)

	loans.loans["loan-1"] = &models.Loan{
		ID: "loan-1", Username: "jcruz", LoanType: "emergency",
		Status:         models.LoanStatusReleased,
		OriginalAmount: mustMoney(t, "10000"),
		Balance:        mustMoney(t, "9500"),
	}

	data, filename, err := svc.LoanStatementPDF(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Contains(t, filename, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestReportService_ExportMissingLoan(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	_, _, err := svc.LoanLedgerCSV(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
