package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coopfin/ledger-api/internal/jobs"
	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
)

// JobHandler exposes worker statistics and manual triggers for the
// scheduled jobs. Triggers run through the same worker pool as the cron
// schedule, so a manual run after a missed tick lands on the same accrual
// grid.
type JobHandler struct {
	accrualService *services.AccrualService
	worker         *jobs.Worker
}

// NewJobHandler creates a new job handler
func NewJobHandler(accrualService *services.AccrualService, worker *jobs.Worker) *JobHandler {
	return &JobHandler{
		accrualService: accrualService,
		worker:         worker,
	}
}

// Stats returns worker pool statistics
func (h *JobHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStats())
}

// AccrueInterest enqueues an immediate interest accrual run
func (h *JobHandler) AccrueInterest(c *gin.Context) {
	h.worker.Enqueue("accrue_interest", func(ctx context.Context) error {
		now := time.Now()
		if _, err := h.accrualService.AccrueLoanInterest(ctx, now); err != nil {
			return err
		}
		_, err := h.accrualService.AccrueDepositInterest(ctx, now)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "interest accrual enqueued"})
}

// RollOverDueDates enqueues an immediate due date rollover run
func (h *JobHandler) RollOverDueDates(c *gin.Context) {
	h.worker.Enqueue("rollover_due_dates", func(ctx context.Context) error {
		_, err := h.accrualService.RollOverDueDates(ctx, time.Now())
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "due date rollover enqueued"})
}
