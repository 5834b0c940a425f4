package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/pkg/money"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ReportService produces member summaries and ledger exports
type ReportService struct {
	loans    *LoanService
	deposits *DepositService
}

// NewReportService creates a new report service
func NewReportService(loans *LoanService, deposits *DepositService) *ReportService {
	return &ReportService{
		loans:    loans,
		deposits: deposits,
	}
}

// MemberSummary aggregates a member's position across every product
type MemberSummary struct {
	Username         string           `json:"username"`
	TotalLoanBalance money.Money      `json:"totalLoanBalance"`
	TotalDeposits    money.Money      `json:"totalDeposits"`
	ActiveLoans      int              `json:"activeLoans"`
	PastDueLoans     int              `json:"pastDueLoans"`
	Loans            []models.Loan    `json:"loans"`
	Deposits         []models.Deposit `json:"deposits"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// Summary builds a member's consolidated position
func (s *ReportService) Summary(ctx context.Context, username string) (*MemberSummary, error) {
	loans, err := s.loans.FindByMember(ctx, username, nil)
	if err != nil {
		return nil, err
	}
	deposits, err := s.deposits.FindByMember(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &MemberSummary{
		Username:    username,
		Loans:       loans,
		Deposits:    deposits,
		GeneratedAt: now,
	}

	for i := range loans {
		loan := &loans[i]
		if loan.Status != models.LoanStatusReleased {
			continue
		}
		summary.ActiveLoans++
		summary.TotalLoanBalance = summary.TotalLoanBalance.Add(loan.Balance)
		if loan.DueDate != nil && loan.DueDate.Before(now) && !loan.IsPaidForCurrentPeriod {
			summary.PastDueLoans++
		}
	}
	summary.TotalLoanBalance = summary.TotalLoanBalance.Round2()

	for i := range deposits {
		deposit := &deposits[i]
		if deposit.Status != models.DepositStatusAccepted {
			continue
		}
		summary.TotalDeposits = summary.TotalDeposits.Add(deposit.RunningAmount)
	}
	summary.TotalDeposits = summary.TotalDeposits.Round2()

	return summary, nil
}

var loanLedgerHeader = []string{
	"Transaction ID", "OR Number", "Type", "Transaction Date",
	"Amount Due", "Amount Paid", "Interest Due", "Interest Paid",
	"Fines Due", "Fines Paid", "Balance", "Officer",
}

func loanLedgerRow(t *models.LoanTransaction) []string {
	return []string{
		t.TransactionID,
		t.ORNumber,
		t.TransactionType,
		t.TransactionDate.Format("2006-01-02"),
		t.AmountDue.String(),
		t.AmountPaid.String(),
		t.InterestDue.String(),
		t.InterestPaid.String(),
		t.FinesDue.String(),
		t.FinesPaid.String(),
		t.Balance.String(),
		t.Officer.Full(),
	}
}

// LoanLedgerCSV exports a loan's ledger as CSV. Returns the file content
// and a suggested filename.
func (s *ReportService) LoanLedgerCSV(ctx context.Context, loanID string) ([]byte, string, error) {
	loan, err := s.loans.Ledger(ctx, loanID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(loanLedgerHeader); err != nil {
		return nil, "", err
	}
	for i := range loan.Ledger {
		if err := w.Write(loanLedgerRow(&loan.Ledger[i])); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_ledger_%s_%s.csv", loan.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// LoanLedgerXLSX exports a loan's ledger as a spreadsheet
func (s *ReportService) LoanLedgerXLSX(ctx context.Context, loanID string) ([]byte, string, error) {
	loan, err := s.loans.Ledger(ctx, loanID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ledger"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}

	for col, title := range loanLedgerHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row := range loan.Ledger {
		for col, value := range loanLedgerRow(&loan.Ledger[row]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	f.SetColWidth(sheet, "A", "L", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_ledger_%s_%s.xlsx", loan.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// DepositLedgerCSV exports a deposit's ledger as CSV
func (s *ReportService) DepositLedgerCSV(ctx context.Context, depositID string) ([]byte, string, error) {
	deposit, err := s.deposits.Ledger(ctx, depositID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Transaction ID", "OR Number", "Type", "Transaction Date", "Amount", "Interest", "Balance", "Officer"}
	if err := w.Write(header); err != nil {
		return nil, "", err
	}
	for i := range deposit.Ledger {
		t := &deposit.Ledger[i]
		row := []string{
			t.TransactionID,
			t.ORNumber,
			t.TransactionType,
			t.TransactionDate.Format("2006-01-02"),
			t.Amount.String(),
			t.Interest.String(),
			t.Balance.String(),
			t.Officer.Full(),
		}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("deposit_ledger_%s_%s.csv", deposit.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// DepositLedgerXLSX exports a deposit's ledger as a spreadsheet
func (s *ReportService) DepositLedgerXLSX(ctx context.Context, depositID string) ([]byte, string, error) {
	deposit, err := s.deposits.Ledger(ctx, depositID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ledger"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}

	header := []string{"Transaction ID", "OR Number", "Type", "Transaction Date", "Amount", "Interest", "Balance", "Officer"}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row := range deposit.Ledger {
		t := &deposit.Ledger[row]
		values := []string{
			t.TransactionID,
			t.ORNumber,
			t.TransactionType,
			t.TransactionDate.Format("2006-01-02"),
			t.Amount.String(),
			t.Interest.String(),
			t.Balance.String(),
			t.Officer.Full(),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	f.SetColWidth(sheet, "A", "H", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("deposit_ledger_%s_%s.xlsx", deposit.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// LoanStatementPDF renders a printable statement for one loan
func (s *ReportService) LoanStatementPDF(ctx context.Context, loanID string) ([]byte, string, error) {
	loan, err := s.loans.Ledger(ctx, loanID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Loan Statement", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Loan Statement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Loan ID: %s", loan.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Member: %s", loan.Username))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Type: %s    Status: %s    Term: %d (%s)", loan.LoanType, loan.Status, loan.Term, loan.PaymentFrequency))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Original Amount: %s    Outstanding Balance: %s", loan.OriginalAmount.String(), loan.Balance.String()))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("January 2, 2006")))
	pdf.Ln(10)

	widths := []float64{28, 22, 20, 24, 22, 22, 22, 22, 20, 20, 24, 30}

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(221, 235, 247)
	for i, title := range loanLedgerHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i := range loan.Ledger {
		for j, value := range loanLedgerRow(&loan.Ledger[i]) {
			pdf.CellFormat(widths[j], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_statement_%s_%s.pdf", loan.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
