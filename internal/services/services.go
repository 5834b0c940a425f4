package services

import (
	"github.com/coopfin/ledger-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Loan     *LoanService
	Deposit  *DepositService
	Settings *SettingsService
	Accrual  *AccrualService
	Report   *ReportService
}

// NewServices creates all services wired to the given repositories
func NewServices(repos *repository.Repositories) *Services {
	loan := NewLoanService(repos.Loan, repos.Settings)
	deposit := NewDepositService(repos.Deposit, repos.Settings)

	return &Services{
		Loan:     loan,
		Deposit:  deposit,
		Settings: NewSettingsService(repos.Settings),
		Accrual:  NewAccrualService(repos.Loan, repos.Deposit, repos.Settings),
		Report:   NewReportService(loan, deposit),
	}
}
