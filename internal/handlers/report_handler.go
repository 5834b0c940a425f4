package handlers

import (
	"fmt"
	"net/http"

	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves member summaries and ledger exports
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// MemberSummary returns a member's consolidated position
func (h *ReportHandler) MemberSummary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func sendFile(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// LoanLedgerCSV downloads a loan's ledger as CSV
func (h *ReportHandler) LoanLedgerCSV(c *gin.Context) {
	data, filename, err := h.reportService.LoanLedgerCSV(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, "text/csv")
}

// LoanLedgerXLSX downloads a loan's ledger as a spreadsheet
func (h *ReportHandler) LoanLedgerXLSX(c *gin.Context) {
	data, filename, err := h.reportService.LoanLedgerXLSX(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// LoanStatementPDF downloads a printable loan statement
func (h *ReportHandler) LoanStatementPDF(c *gin.Context) {
	data, filename, err := h.reportService.LoanStatementPDF(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, "application/pdf")
}

// DepositLedgerXLSX downloads a deposit's ledger as a spreadsheet
func (h *ReportHandler) DepositLedgerXLSX(c *gin.Context) {
	data, filename, err := h.reportService.DepositLedgerXLSX(c.Request.Context(), c.Param("deposit_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// DepositLedgerCSV downloads a deposit's ledger as CSV
func (h *ReportHandler) DepositLedgerCSV(c *gin.Context) {
	data, filename, err := h.reportService.DepositLedgerCSV(c.Request.Context(), c.Param("deposit_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, "text/csv")
}
