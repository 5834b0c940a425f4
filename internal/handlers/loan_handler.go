package handlers

import (
	"net/http"
	"strings"

	"github.com/coopfin/ledger-api/internal/models"
	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// LoanHandler serves the loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func statusFilter(c *gin.Context) []string {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// Index lists loans, optionally filtered by status (?status=pending,approved)
func (h *LoanHandler) Index(c *gin.Context) {
	loans, err := h.loanService.List(c.Request.Context(), statusFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// Show returns a single loan
func (h *LoanHandler) Show(c *gin.Context) {
	loan, err := h.loanService.Get(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ByMember lists a member's loans
func (h *LoanHandler) ByMember(c *gin.Context) {
	loans, err := h.loanService.FindByMember(c.Request.Context(), c.Param("username"), statusFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// Create registers a new loan application for a member
func (h *LoanHandler) Create(c *gin.Context) {
	var input services.CreateLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), c.Param("username"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

type reviewLoanRequest struct {
	Approved *bool       `json:"approved" binding:"required"`
	Officer  models.Name `json:"oic"`
}

// Review approves or rejects a pending loan
func (h *LoanHandler) Review(c *gin.Context) {
	var req reviewLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.Review(c.Request.Context(), c.Param("loan_id"), *req.Approved, req.Officer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

type updateLoanRequest struct {
	Status string `json:"status" binding:"required"`
}

// Update drives a loan through release or completion
func (h *LoanHandler) Update(c *gin.Context) {
	var req updateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.UpdateStatus(c.Request.Context(), c.Param("loan_id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// Delete soft-deletes a loan
func (h *LoanHandler) Delete(c *gin.Context) {
	if err := h.loanService.Delete(c.Request.Context(), c.Param("loan_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "loan deleted"})
}

// Ledger returns a loan with its full ledger in append order
func (h *LoanHandler) Ledger(c *gin.Context) {
	loan, err := h.loanService.Ledger(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// AppendTransaction appends a manual ledger entry to a loan
func (h *LoanHandler) AppendTransaction(c *gin.Context) {
	var input services.AppendTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.loanService.AppendTransaction(c.Request.Context(), c.Param("loan_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ShowTransaction returns a single ledger entry
func (h *LoanHandler) ShowTransaction(c *gin.Context) {
	entry, err := h.loanService.GetTransaction(c.Request.Context(), c.Param("loan_id"), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AmendTransaction corrects fields of a historical ledger entry
func (h *LoanHandler) AmendTransaction(c *gin.Context) {
	var input services.AmendTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.loanService.AmendTransaction(c.Request.Context(), c.Param("loan_id"), c.Param("transaction_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
