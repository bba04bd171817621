package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/presentation/http/dto/response"
)

// SweepHandler exposes the periodic billing jobs over HTTP so an external
// scheduler (cron, Cloud Scheduler) can trigger them
type SweepHandler struct {
	sweepService *service.SweepService
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(sweepService *service.SweepService) *SweepHandler {
	return &SweepHandler{sweepService: sweepService}
}

// RunOverdue handles triggering the overdue sweep. An optional "as_of"
// query parameter (RFC3339) overrides the cutoff, which is useful for
// backfills.
func (h *SweepHandler) RunOverdue(c *gin.Context) {
	now := time.Now()
	if asOf := c.Query("as_of"); asOf != "" {
		parsed, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			response.BadRequest(c, "Invalid as_of timestamp, expected RFC3339")
			return
		}
		now = parsed
	}

	report, err := h.sweepService.RunOverdueSweep(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overdue sweep completed", report)
}

// RunReconcile handles triggering one auto-reconciliation pass
func (h *SweepHandler) RunReconcile(c *gin.Context) {
	report, err := h.sweepService.RunReconcileSweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reconcile sweep completed", report)
}
