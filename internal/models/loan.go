package models

import (
	"time"

	"github.com/coopfin/ledger-api/pkg/money"
)

// Loan is a member's loan together with its ordered transaction ledger.
// The ledger is append-only; `Seq` preserves recording order independently of
// transaction dates, and the stored balance always equals the balance written
// on the last appended transaction.
type Loan struct {
	ID                     string      `gorm:"primaryKey;size:36" json:"loanID"`
	Username               string      `gorm:"not null;index" json:"username"`
	LoanType               string      `gorm:"size:30;not null" json:"loanType"`
	Term                   int         `gorm:"not null" json:"term"`
	PaymentFrequency       string      `gorm:"size:10;not null" json:"paymentFrequency"`
	Classification         string      `gorm:"size:10;not null" json:"classification"`
	Status                 string      `gorm:"size:10;not null;index" json:"status"`
	SubmissionDate         time.Time   `gorm:"not null" json:"submissionDate"`
	ApprovalDate           *time.Time  `json:"approvalDate"`
	ReleaseDate            *time.Time  `json:"releaseDate"`
	DueDate                *time.Time  `gorm:"index" json:"dueDate"`
	NextAccrualDate        *time.Time  `gorm:"index" json:"nextAccrualDate"`
	IsPaidForCurrentPeriod bool        `gorm:"default:false" json:"isPaidForCurrentPeriod"`
	OriginalAmount         money.Money `gorm:"not null" json:"originalLoanAmount"`
	Balance                money.Money `json:"balance"`
	Coborrower             Coborrower  `gorm:"embedded;embeddedPrefix:coborrower_" json:"coborrower"`
	Deleted                bool        `gorm:"default:false;index" json:"-"`
	CreatedAt              time.Time   `json:"-"`
	UpdatedAt              time.Time   `json:"-"`

	// Associations
	Ledger []LoanTransaction `gorm:"foreignKey:LoanID" json:"ledger,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Coborrower is the optional second party on a loan.
type Coborrower struct {
	Name          Name       `gorm:"embedded" json:"name"`
	Birthday      *time.Time `json:"birthday"`
	Birthplace    string     `gorm:"size:200" json:"birthplace"`
	Occupation    string     `gorm:"size:200" json:"occupation"`
	ContactNumber string     `gorm:"size:50" json:"contact_no"`
}

// Loan status constants
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusReleased = "released"
	LoanStatusRejected = "rejected"
	LoanStatusComplete = "complete"
)

// Payment frequency constants
const (
	FrequencyDaily   = "days"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "months"
)

// Loan classification constants
const (
	ClassificationNew     = "new"
	ClassificationRenewal = "renewal"
)

// Loan type keys into LoanTypeSettings
var LoanTypes = []string{
	"emergency",
	"multipurpose",
	"educational",
	"pettyCash",
	"commercial",
	"livelihood",
}

// ValidLoanType reports whether t is a configured loan product type.
func ValidLoanType(t string) bool {
	for _, known := range LoanTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidLoanStatus reports whether s is a recognized loan status.
func ValidLoanStatus(s string) bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusReleased,
		LoanStatusRejected, LoanStatusComplete:
		return true
	}
	return false
}

// ValidPaymentFrequency reports whether f is a recognized payment frequency.
func ValidPaymentFrequency(f string) bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// ValidClassification reports whether c is a recognized loan classification.
func ValidClassification(c string) bool {
	return c == ClassificationNew || c == ClassificationRenewal
}

// MayReview returns true if the loan can still be approved or rejected
func (l *Loan) MayReview() bool {
	return l.Status == LoanStatusPending
}

// MayRelease returns true if the loan can transition to released
func (l *Loan) MayRelease() bool {
	return l.Status == LoanStatusApproved
}

// MayComplete returns true if the loan can be marked complete
func (l *Loan) MayComplete() bool {
	return l.Status == LoanStatusReleased
}

// NextDueDate extends a due date by one payment period: the day after the
// anchor marks the start of the period, weekly adds the remaining 6 days and
// monthly runs to the same day next month minus one. Used both when a loan is
// released (anchor = release time) and when the rollover job advances an
// already-set due date (anchor = previous due date).
func NextDueDate(anchor time.Time, frequency string) time.Time {
	due := anchor.AddDate(0, 0, 1)
	switch frequency {
	case FrequencyWeekly:
		due = due.AddDate(0, 0, 6)
	case FrequencyMonthly:
		due = due.AddDate(0, 1, -1)
	}
	return due
}

// LoanTransaction is a single immutable ledger entry on a loan. Paid fields
// credit the balance, due fields debit it; Balance records the loan balance
// immediately after this entry was applied.
type LoanTransaction struct {
	ID              uint        `gorm:"primaryKey" json:"-"`
	LoanID          string      `gorm:"size:36;not null;index" json:"-"`
	Seq             int         `gorm:"not null" json:"-"`
	TransactionID   string      `gorm:"size:20;not null;index" json:"transactionID"`
	ORNumber        string      `gorm:"size:50" json:"ORNumber"`
	TransactionType string      `gorm:"size:20" json:"transactionType"`
	TransactionDate time.Time   `gorm:"not null" json:"transactionDate"`
	SubmissionDate  time.Time   `gorm:"not null" json:"submissionDate"`
	AmountPaid      money.Money `json:"amountPaid"`
	AmountDue       money.Money `json:"amountDue"`
	InterestPaid    money.Money `json:"interestPaid"`
	InterestDue     money.Money `json:"interestDue"`
	FinesPaid       money.Money `json:"finesPaid"`
	FinesDue        money.Money `json:"finesDue"`
	Balance         money.Money `json:"balance"`
	Officer         Name        `gorm:"embedded;embeddedPrefix:officer_" json:"officerInCharge"`
	CreatedAt       time.Time   `json:"-"`
}

// TableName specifies the table name for LoanTransaction
func (LoanTransaction) TableName() string {
	return "loan_transactions"
}

// Loan transaction type constants. Payment entries mark the loan paid for the
// current period; the rest are informational.
const (
	LoanTransactionPayment   = "payment"
	LoanTransactionDeduction = "deduction"
	LoanTransactionInterest  = "interest"
)

// Delta is the net change this entry applies to the loan balance: dues add
// to the outstanding amount, payments reduce it.
func (t *LoanTransaction) Delta() money.Money {
	return t.AmountDue.Add(t.InterestDue).Add(t.FinesDue).
		Sub(t.AmountPaid).Sub(t.InterestPaid).Sub(t.FinesPaid)
}
