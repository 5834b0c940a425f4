package handlers

import (
	"net/http"

	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the product settings endpoints
type SettingsHandler struct {
	settingsService *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// LoanTypes lists settings for every loan type
func (h *SettingsHandler) LoanTypes(c *gin.Context) {
	settings, err := h.settingsService.ListLoanTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// ShowLoanType returns settings for one loan type
func (h *SettingsHandler) ShowLoanType(c *gin.Context) {
	settings, err := h.settingsService.GetLoanType(c.Request.Context(), c.Param("loan_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateLoanType applies a partial update to one loan type's settings
func (h *SettingsHandler) UpdateLoanType(c *gin.Context) {
	var input services.UpdateLoanTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settingsService.UpdateLoanType(c.Request.Context(), c.Param("loan_type"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// DepositCategories lists settings for every deposit category
func (h *SettingsHandler) DepositCategories(c *gin.Context) {
	settings, err := h.settingsService.ListDepositCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// ShowDepositCategory returns settings for one deposit category
func (h *SettingsHandler) ShowDepositCategory(c *gin.Context) {
	settings, err := h.settingsService.GetDepositCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateDepositCategory applies a partial update to one deposit category's
// settings
func (h *SettingsHandler) UpdateDepositCategory(c *gin.Context) {
	var input services.UpdateDepositCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settingsService.UpdateDepositCategory(c.Request.Context(), c.Param("category"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
