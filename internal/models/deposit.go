package models

import (
	"time"

	"github.com/coopfin/ledger-api/pkg/money"
)

// Deposit is a member's deposit account together with its ordered transaction
// ledger. RunningAmount mirrors the balance written on the last appended
// transaction and never goes negative.
type Deposit struct {
	ID              string      `gorm:"primaryKey;size:36" json:"depositID"`
	Username        string      `gorm:"not null;index" json:"username"`
	Category        string      `gorm:"size:30;not null" json:"category"`
	Status          string      `gorm:"size:10;not null;index" json:"status"`
	SubmissionDate  time.Time   `gorm:"not null" json:"submissionDate"`
	ApprovalDate    *time.Time  `json:"approvalDate"`
	NextAccrualDate *time.Time  `gorm:"index" json:"nextAccrualDate"`
	OriginalAmount  money.Money `gorm:"not null" json:"originalDepositAmount"`
	RunningAmount   money.Money `json:"runningAmount"`
	Deleted         bool        `gorm:"default:false;index" json:"-"`
	CreatedAt       time.Time   `json:"-"`
	UpdatedAt       time.Time   `json:"-"`

	// Associations
	Ledger []DepositTransaction `gorm:"foreignKey:DepositID" json:"ledger,omitempty"`
}

// TableName specifies the table name for Deposit
func (Deposit) TableName() string {
	return "deposits"
}

// Deposit status constants
const (
	DepositStatusPending  = "pending"
	DepositStatusAccepted = "accepted"
	DepositStatusRejected = "rejected"
	DepositStatusComplete = "complete"
)

// Deposit category keys into DepositCategorySettings
var DepositCategories = []string{
	"shareCapital",
	"savings",
	"timeDeposit",
}

// ValidDepositCategory reports whether c is a configured deposit category.
func ValidDepositCategory(c string) bool {
	for _, known := range DepositCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidDepositStatus reports whether s is a recognized deposit status.
func ValidDepositStatus(s string) bool {
	switch s {
	case DepositStatusPending, DepositStatusAccepted,
		DepositStatusRejected, DepositStatusComplete:
		return true
	}
	return false
}

// MayReview returns true if the deposit can still be accepted or rejected
func (d *Deposit) MayReview() bool {
	return d.Status == DepositStatusPending
}

// MayComplete returns true if the deposit can be marked complete
func (d *Deposit) MayComplete() bool {
	return d.Status == DepositStatusAccepted
}

// DepositTransaction is a single immutable ledger entry on a deposit.
// Balance records the running amount immediately after this entry applied.
type DepositTransaction struct {
	ID              uint        `gorm:"primaryKey" json:"-"`
	DepositID       string      `gorm:"size:36;not null;index" json:"-"`
	Seq             int         `gorm:"not null" json:"-"`
	TransactionID   string      `gorm:"size:20;not null;index" json:"transactionID"`
	ORNumber        string      `gorm:"size:50" json:"ORNumber"`
	TransactionType string      `gorm:"size:20;not null" json:"transactionType"`
	TransactionDate time.Time   `gorm:"not null" json:"transactionDate"`
	SubmissionDate  time.Time   `gorm:"not null" json:"submissionDate"`
	Amount          money.Money `json:"amount"`
	Interest        money.Money `json:"interest"`
	Balance         money.Money `json:"balance"`
	Officer         Name        `gorm:"embedded;embeddedPrefix:officer_" json:"officerInCharge"`
	CreatedAt       time.Time   `json:"-"`
}

// TableName specifies the table name for DepositTransaction
func (DepositTransaction) TableName() string {
	return "deposit_transactions"
}

// Deposit transaction type constants
const (
	DepositTransactionDeposit    = "Deposit"
	DepositTransactionWithdrawal = "Withdrawal"
)

// ValidDepositTransactionType reports whether t is a recognized entry type.
func ValidDepositTransactionType(t string) bool {
	return t == DepositTransactionDeposit || t == DepositTransactionWithdrawal
}

// Delta is the net change this entry applies to the running amount:
// deposits credit amount plus interest, withdrawals debit the amount but
// still credit any interest recorded alongside.
func (t *DepositTransaction) Delta() money.Money {
	if t.TransactionType == DepositTransactionWithdrawal {
		return t.Interest.Sub(t.Amount)
	}
	return t.Amount.Add(t.Interest)
}
