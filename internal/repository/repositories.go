package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Loan     LoanRepository
	Deposit  DepositRepository
	Settings SettingsRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Loan:     NewLoanRepository(db),
		Deposit:  NewDepositRepository(db),
		Settings: NewSettingsRepository(db),
	}
}
