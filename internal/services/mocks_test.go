package services

import (
	"context"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/internal/repository"
	"github.com/coopfin/ledger-api/pkg/money"
	"gorm.io/gorm"
)

// mockLoanRepository is a hand-written test double. ApplyLocked mimics the
// real repository: it loads the stored loan, runs the mutator, applies the
// returned set map to the stored copy and appends the entry with the next
// sequence number.
type mockLoanRepository struct {
	loans        map[string]*models.Loan
	createFn     func(ctx context.Context, loan *models.Loan) error
	dueFn        func(now time.Time) []models.Loan
	pastDueFn    func(now time.Time) []models.Loan
	mutations    []repository.LoanMutation
	transactions map[string]*models.LoanTransaction
	updatedSets  []map[string]any
}

func newMockLoanRepository() *mockLoanRepository {
	return &mockLoanRepository{
		loans:        map[string]*models.Loan{},
		transactions: map[string]*models.LoanTransaction{},
	}
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if m.createFn != nil {
		return m.createFn(ctx, loan)
	}
	m.loans[loan.ID] = loan
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id string) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok || loan.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	return loan, nil
}

func (m *mockLoanRepository) FindByIDWithLedger(ctx context.Context, id string) (*models.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLoanRepository) FindByUsername(ctx context.Context, username string, statuses []string) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range m.loans {
		if loan.Username == username && !loan.Deleted {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) List(ctx context.Context, statuses []string) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range m.loans {
		if !loan.Deleted {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) ApplyLocked(ctx context.Context, id string, fn repository.LoanMutator) error {
	stored, ok := m.loans[id]
	if !ok || stored.Deleted {
		return gorm.ErrRecordNotFound
	}

	// work on a copy so a failed mutation rolls back, like a real transaction
	loan := *stored
	mut, err := fn(&loan)
	if err != nil {
		return err
	}
	if mut == nil {
		return nil
	}

	if mut.Entry != nil {
		mut.Entry.Seq = len(loan.Ledger) + 1
		loan.Ledger = append(loan.Ledger, *mut.Entry)
		m.transactions[mut.Entry.TransactionID] = mut.Entry
	}
	applyLoanSet(&loan, mut.Set)
	m.loans[id] = &loan

	m.mutations = append(m.mutations, *mut)
	return nil
}

func applyLoanSet(loan *models.Loan, set map[string]any) {
	for column, value := range set {
		switch column {
		case "status":
			loan.Status = value.(string)
		case "balance":
			loan.Balance = value.(money.Money)
		case "is_paid_for_current_period":
			loan.IsPaidForCurrentPeriod = value.(bool)
		case "due_date":
			d := value.(time.Time)
			loan.DueDate = &d
		case "next_accrual_date":
			d := value.(time.Time)
			loan.NextAccrualDate = &d
		}
	}
}

func (m *mockLoanRepository) SoftDelete(ctx context.Context, id string) error {
	loan, ok := m.loans[id]
	if !ok || loan.Deleted {
		return gorm.ErrRecordNotFound
	}
	loan.Deleted = true
	return nil
}

func (m *mockLoanRepository) FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Loan, error) {
	if m.dueFn != nil {
		return m.dueFn(now), nil
	}
	var out []models.Loan
	for _, loan := range m.loans {
		if loan.Deleted || loan.Status != models.LoanStatusReleased || loan.NextAccrualDate == nil {
			continue
		}
		if !loan.NextAccrualDate.After(now) {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) FindPastDue(ctx context.Context, now time.Time) ([]models.Loan, error) {
	if m.pastDueFn != nil {
		return m.pastDueFn(now), nil
	}
	var out []models.Loan
	for _, loan := range m.loans {
		if loan.Deleted || loan.Status != models.LoanStatusReleased || loan.DueDate == nil {
			continue
		}
		if loan.DueDate.Before(now) {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) FindTransaction(ctx context.Context, loanID, transactionID string) (*models.LoanTransaction, error) {
	entry, ok := m.transactions[transactionID]
	if !ok || entry.LoanID != loanID {
		return nil, gorm.ErrRecordNotFound
	}
	return entry, nil
}

func (m *mockLoanRepository) UpdateTransaction(ctx context.Context, loanID, transactionID string, set map[string]any) error {
	entry, ok := m.transactions[transactionID]
	if !ok || entry.LoanID != loanID {
		return gorm.ErrRecordNotFound
	}
	m.updatedSets = append(m.updatedSets, set)
	return nil
}

// mockDepositRepository mirrors mockLoanRepository for deposits
type mockDepositRepository struct {
	deposits     map[string]*models.Deposit
	dueFn        func(now time.Time) []models.Deposit
	mutations    []repository.DepositMutation
	transactions map[string]*models.DepositTransaction
	updatedSets  []map[string]any
}

func newMockDepositRepository() *mockDepositRepository {
	return &mockDepositRepository{
		deposits:     map[string]*models.Deposit{},
		transactions: map[string]*models.DepositTransaction{},
	}
}

func (m *mockDepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	m.deposits[deposit.ID] = deposit
	return nil
}

func (m *mockDepositRepository) FindByID(ctx context.Context, id string) (*models.Deposit, error) {
	deposit, ok := m.deposits[id]
	if !ok || deposit.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	return deposit, nil
}

func (m *mockDepositRepository) FindByIDWithLedger(ctx context.Context, id string) (*models.Deposit, error) {
	return m.FindByID(ctx, id)
}

func (m *mockDepositRepository) FindByUsername(ctx context.Context, username string) ([]models.Deposit, error) {
	var out []models.Deposit
	for _, deposit := range m.deposits {
		if deposit.Username == username && !deposit.Deleted {
			out = append(out, *deposit)
		}
	}
	return out, nil
}

func (m *mockDepositRepository) List(ctx context.Context, statuses []string) ([]models.Deposit, error) {
	var out []models.Deposit
	for _, deposit := range m.deposits {
		if !deposit.Deleted {
			out = append(out, *deposit)
		}
	}
	return out, nil
}

func (m *mockDepositRepository) ApplyLocked(ctx context.Context, id string, fn repository.DepositMutator) error {
	stored, ok := m.deposits[id]
	if !ok || stored.Deleted {
		return gorm.ErrRecordNotFound
	}

	deposit := *stored
	mut, err := fn(&deposit)
	if err != nil {
		return err
	}
	if mut == nil {
		return nil
	}

	if mut.Entry != nil {
		mut.Entry.Seq = len(deposit.Ledger) + 1
		deposit.Ledger = append(deposit.Ledger, *mut.Entry)
		m.transactions[mut.Entry.TransactionID] = mut.Entry
	}
	applyDepositSet(&deposit, mut.Set)
	m.deposits[id] = &deposit

	m.mutations = append(m.mutations, *mut)
	return nil
}

func applyDepositSet(deposit *models.Deposit, set map[string]any) {
	for column, value := range set {
		switch column {
		case "status":
			deposit.Status = value.(string)
		case "running_amount":
			deposit.RunningAmount = value.(money.Money)
		case "next_accrual_date":
			d := value.(time.Time)
			deposit.NextAccrualDate = &d
		}
	}
}

func (m *mockDepositRepository) SoftDelete(ctx context.Context, id string) error {
	deposit, ok := m.deposits[id]
	if !ok || deposit.Deleted {
		return gorm.ErrRecordNotFound
	}
	deposit.Deleted = true
	return nil
}

func (m *mockDepositRepository) FindDueForAccrual(ctx context.Context, now time.Time) ([]models.Deposit, error) {
	if m.dueFn != nil {
		return m.dueFn(now), nil
	}
	var out []models.Deposit
	for _, deposit := range m.deposits {
		if deposit.Deleted || deposit.Status != models.DepositStatusAccepted || deposit.NextAccrualDate == nil {
			continue
		}
		if !deposit.NextAccrualDate.After(now) {
			out = append(out, *deposit)
		}
	}
	return out, nil
}

func (m *mockDepositRepository) FindTransaction(ctx context.Context, depositID, transactionID string) (*models.DepositTransaction, error) {
	entry, ok := m.transactions[transactionID]
	if !ok || entry.DepositID != depositID {
		return nil, gorm.ErrRecordNotFound
	}
	return entry, nil
}

func (m *mockDepositRepository) UpdateTransaction(ctx context.Context, depositID, transactionID string, set map[string]any) error {
	entry, ok := m.transactions[transactionID]
	if !ok || entry.DepositID != depositID {
		return gorm.ErrRecordNotFound
	}
	m.updatedSets = append(m.updatedSets, set)
	return nil
}

// mockSettingsRepository serves fixed settings per product
type mockSettingsRepository struct {
	loanTypes  map[string]*models.LoanTypeSettings
	categories map[string]*models.DepositCategorySettings
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{
		loanTypes:  map[string]*models.LoanTypeSettings{},
		categories: map[string]*models.DepositCategorySettings{},
	}
}

func (m *mockSettingsRepository) GetLoanType(ctx context.Context, loanType string) (*models.LoanTypeSettings, error) {
	s, ok := m.loanTypes[loanType]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockSettingsRepository) ListLoanTypes(ctx context.Context) ([]models.LoanTypeSettings, error) {
	var out []models.LoanTypeSettings
	for _, s := range m.loanTypes {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSettingsRepository) UpdateLoanType(ctx context.Context, loanType string, set map[string]any) (*models.LoanTypeSettings, error) {
	stored, ok := m.loanTypes[loanType]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s := *stored
	applyLoanTypeSet(&s, set)
	m.loanTypes[loanType] = &s
	return &s, nil
}

func applyLoanTypeSet(s *models.LoanTypeSettings, set map[string]any) {
	for column, value := range set {
		switch column {
		case "interest_rate_unit":
			s.InterestRate.Unit = value.(string)
		case "interest_rate_value":
			s.InterestRate.Value = value.(money.Money)
		case "service_fee_unit":
			s.ServiceFee.Unit = value.(string)
		case "service_fee_value":
			s.ServiceFee.Value = value.(money.Money)
		case "service_fee_enabled":
			s.ServiceFee.Enabled = value.(bool)
		case "capital_build_up_unit":
			s.CapitalBuildUp.Unit = value.(string)
		case "capital_build_up_value":
			s.CapitalBuildUp.Value = value.(money.Money)
		case "capital_build_up_enabled":
			s.CapitalBuildUp.Enabled = value.(bool)
		case "savings_unit":
			s.Savings.Unit = value.(string)
		case "savings_value":
			s.Savings.Value = value.(money.Money)
		case "savings_enabled":
			s.Savings.Enabled = value.(bool)
		case "accrual_unit":
			s.Accrual.Unit = value.(string)
		case "accrual_value":
			s.Accrual.Value = value.(int64)
		}
	}
}

func (m *mockSettingsRepository) GetDepositCategory(ctx context.Context, category string) (*models.DepositCategorySettings, error) {
	s, ok := m.categories[category]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockSettingsRepository) ListDepositCategories(ctx context.Context) ([]models.DepositCategorySettings, error) {
	var out []models.DepositCategorySettings
	for _, s := range m.categories {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSettingsRepository) UpdateDepositCategory(ctx context.Context, category string, set map[string]any) (*models.DepositCategorySettings, error) {
	stored, ok := m.categories[category]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s := *stored
	applyDepositCategorySet(&s, set)
	m.categories[category] = &s
	return &s, nil
}

func applyDepositCategorySet(s *models.DepositCategorySettings, set map[string]any) {
	for column, value := range set {
		switch column {
		case "interest_rate_unit":
			s.InterestRate.Unit = value.(string)
		case "interest_rate_value":
			s.InterestRate.Value = value.(money.Money)
		case "accrual_unit":
			s.Accrual.Unit = value.(string)
		case "accrual_value":
			s.Accrual.Value = value.(int64)
		}
	}
}

func (m *mockSettingsRepository) EnsureDefaults(ctx context.Context) error {
	return nil
}
