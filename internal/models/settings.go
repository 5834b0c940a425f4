package models

import (
	"time"

	"github.com/coopfin/ledger-api/pkg/money"
)

// Setting value units
const (
	UnitPercent = "%"
	UnitFixed   = "Fixed"
)

// Accrual period time units
const (
	PeriodDays   = "days"
	PeriodMonths = "months"
	PeriodYears  = "years"
)

// RateSetting is a mandatory monetary setting, always applied.
type RateSetting struct {
	Unit  string      `gorm:"size:10;default:%" json:"unit"`
	Value money.Money `json:"value"`
}

// FeeSetting is an optional monetary setting that only applies while enabled.
type FeeSetting struct {
	Unit    string      `gorm:"size:10;default:%" json:"unit"`
	Value   money.Money `json:"value"`
	Enabled bool        `gorm:"default:false" json:"enabled"`
}

// AmountAgainst resolves the fee against a base amount: percentage fees are
// computed from the base, fixed fees are taken verbatim.
func (f FeeSetting) AmountAgainst(base money.Money) money.Money {
	if f.Unit == UnitPercent {
		return base.Percent(f.Value)
	}
	return f.Value
}

// AccrualPeriod is the interval between interest applications. The JSON shape
// ({type, value}) matches what the admin UI has always sent.
type AccrualPeriod struct {
	Unit  string `gorm:"size:10;default:months" json:"type"`
	Value int64  `gorm:"default:0" json:"value"`
}

// periodDayConversions maps accrual units to days. Months and years are
// banker's intervals (30/365), not calendar months; the grid stays uniform.
var periodDayConversions = map[string]int64{
	PeriodDays:   1,
	PeriodMonths: 30,
	PeriodYears:  365,
}

// NextFrom returns the accrual date one full period after anchor, normalized
// to midnight. Advancing from the previous scheduled value (never from the
// current time) keeps the accrual grid fixed.
func (p AccrualPeriod) NextFrom(anchor time.Time) time.Time {
	days := p.Value * periodDayConversions[p.Unit]
	next := anchor.AddDate(0, 0, int(days))
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
}

// ValidPeriodUnit reports whether unit is a recognized accrual time unit.
func ValidPeriodUnit(unit string) bool {
	_, ok := periodDayConversions[unit]
	return ok
}

// ValidSettingUnit reports whether unit is a recognized monetary setting unit.
func ValidSettingUnit(unit string) bool {
	return unit == UnitPercent || unit == UnitFixed
}

// LoanTypeSettings configures one loan product type: the interest rate used
// by accrual, the deductions taken from the principal on approval, and the
// accrual period.
type LoanTypeSettings struct {
	ID             uint          `gorm:"primaryKey" json:"-"`
	LoanType       string        `gorm:"uniqueIndex;size:30;not null" json:"loan_type"`
	InterestRate   RateSetting   `gorm:"embedded;embeddedPrefix:interest_rate_" json:"interest_rate"`
	ServiceFee     FeeSetting    `gorm:"embedded;embeddedPrefix:service_fee_" json:"service_fee"`
	CapitalBuildUp FeeSetting    `gorm:"embedded;embeddedPrefix:capital_build_up_" json:"capital_build_up"`
	Savings        FeeSetting    `gorm:"embedded;embeddedPrefix:savings_" json:"savings"`
	Accrual        AccrualPeriod `gorm:"embedded;embeddedPrefix:accrual_" json:"time"`
	CreatedAt      time.Time     `json:"-"`
	UpdatedAt      time.Time     `json:"-"`
}

// TableName specifies the table name for LoanTypeSettings
func (LoanTypeSettings) TableName() string {
	return "loan_type_settings"
}

// Deductions returns the optional deduction settings in their canonical order.
func (s *LoanTypeSettings) Deductions() []FeeSetting {
	return []FeeSetting{s.ServiceFee, s.CapitalBuildUp, s.Savings}
}

// TotalDeductions sums every enabled deduction against the given principal.
func (s *LoanTypeSettings) TotalDeductions(principal money.Money) money.Money {
	total := money.Zero()
	for _, d := range s.Deductions() {
		if d.Enabled {
			total = total.Add(d.AmountAgainst(principal))
		}
	}
	return total.Round2()
}

// InterestOn computes one period's interest against the given balance,
// rounded to 2 decimals.
func (s *LoanTypeSettings) InterestOn(balance money.Money) money.Money {
	return interestOn(s.InterestRate, balance)
}

// DepositCategorySettings configures one deposit category. Deposits carry no
// deduction step, only a rate and an accrual period.
type DepositCategorySettings struct {
	ID           uint          `gorm:"primaryKey" json:"-"`
	Category     string        `gorm:"uniqueIndex;size:30;not null" json:"category"`
	InterestRate RateSetting   `gorm:"embedded;embeddedPrefix:interest_rate_" json:"interest_rate"`
	Accrual      AccrualPeriod `gorm:"embedded;embeddedPrefix:accrual_" json:"time"`
	CreatedAt    time.Time     `json:"-"`
	UpdatedAt    time.Time     `json:"-"`
}

// TableName specifies the table name for DepositCategorySettings
func (DepositCategorySettings) TableName() string {
	return "deposit_category_settings"
}

// InterestOn computes one period's interest against the given running amount.
func (s *DepositCategorySettings) InterestOn(balance money.Money) money.Money {
	return interestOn(s.InterestRate, balance)
}

func interestOn(rate RateSetting, balance money.Money) money.Money {
	if rate.Unit == UnitFixed {
		return rate.Value.Round2()
	}
	return balance.Percent(rate.Value).Round2()
}

// DefaultLoanTypeSettings returns the zeroed settings provisioned for a loan
// type that has never been configured.
func DefaultLoanTypeSettings(loanType string) *LoanTypeSettings {
	return &LoanTypeSettings{
		LoanType:       loanType,
		InterestRate:   RateSetting{Unit: UnitPercent},
		ServiceFee:     FeeSetting{Unit: UnitPercent},
		CapitalBuildUp: FeeSetting{Unit: UnitPercent},
		Savings:        FeeSetting{Unit: UnitPercent},
		Accrual:        AccrualPeriod{Unit: PeriodMonths},
	}
}

// DefaultDepositCategorySettings returns the zeroed settings provisioned for
// a deposit category that has never been configured.
func DefaultDepositCategorySettings(category string) *DepositCategorySettings {
	return &DepositCategorySettings{
		Category:     category,
		InterestRate: RateSetting{Unit: UnitPercent},
		Accrual:      AccrualPeriod{Unit: PeriodMonths},
	}
}
