package handlers

import (
	"errors"
	"net/http"

	"github.com/coopfin/ledger-api/internal/jobs"
	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Loan     *LoanHandler
	Deposit  *DepositHandler
	Settings *SettingsHandler
	Report   *ReportHandler
	Job      *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Loan:     NewLoanHandler(svcs.Loan),
		Deposit:  NewDepositHandler(svcs.Deposit),
		Settings: NewSettingsHandler(svcs.Settings),
		Report:   NewReportHandler(svcs.Report),
		Job:      NewJobHandler(svcs.Accrual, worker),
	}
}

// respondError maps service errors to HTTP status codes with a uniform
// {"error": ...} body
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrInvalidBalance),
		errors.Is(err, services.ErrSettingsMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
