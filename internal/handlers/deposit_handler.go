package handlers

import (
	"net/http"

	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// DepositHandler serves the deposit endpoints
type DepositHandler struct {
	depositService *services.DepositService
}

// NewDepositHandler creates a new deposit handler
func NewDepositHandler(depositService *services.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// Index lists deposits, optionally filtered by status
func (h *DepositHandler) Index(c *gin.Context) {
	deposits, err := h.depositService.List(c.Request.Context(), statusFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

// Show returns a single deposit
func (h *DepositHandler) Show(c *gin.Context) {
	deposit, err := h.depositService.Get(c.Request.Context(), c.Param("deposit_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

// ByMember lists a member's deposit accounts
func (h *DepositHandler) ByMember(c *gin.Context) {
	deposits, err := h.depositService.FindByMember(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

// Create registers a new deposit account for a member
func (h *DepositHandler) Create(c *gin.Context) {
	var input services.CreateDepositInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := h.depositService.Create(c.Request.Context(), c.Param("username"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deposit)
}

type reviewDepositRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

// Review accepts or rejects a pending deposit
func (h *DepositHandler) Review(c *gin.Context) {
	var req reviewDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := h.depositService.Review(c.Request.Context(), c.Param("deposit_id"), *req.Accepted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

type updateDepositRequest struct {
	Status string `json:"status" binding:"required"`
}

// Update drives a deposit to completion
func (h *DepositHandler) Update(c *gin.Context) {
	var req updateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deposit, err := h.depositService.UpdateStatus(c.Request.Context(), c.Param("deposit_id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

// Delete soft-deletes a deposit
func (h *DepositHandler) Delete(c *gin.Context) {
	if err := h.depositService.Delete(c.Request.Context(), c.Param("deposit_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit deleted"})
}

// Ledger returns a deposit with its full ledger in append order
func (h *DepositHandler) Ledger(c *gin.Context) {
	deposit, err := h.depositService.Ledger(c.Request.Context(), c.Param("deposit_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

// AppendTransaction appends a deposit or withdrawal entry
func (h *DepositHandler) AppendTransaction(c *gin.Context) {
	var input services.AppendDepositTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.depositService.AppendTransaction(c.Request.Context(), c.Param("deposit_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ShowTransaction returns a single deposit ledger entry
func (h *DepositHandler) ShowTransaction(c *gin.Context) {
	entry, err := h.depositService.GetTransaction(c.Request.Context(), c.Param("deposit_id"), c.Param("transaction_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AmendTransaction corrects fields of a historical deposit ledger entry
func (h *DepositHandler) AmendTransaction(c *gin.Context) {
	var input services.AmendDepositTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.depositService.AmendTransaction(c.Request.Context(), c.Param("deposit_id"), c.Param("transaction_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
