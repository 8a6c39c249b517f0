package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
)

// settlementHandler triggers treasurer reconciliation sweeps. The background
// worker runs sweeps on a timer; this endpoint exists for catch-up after
// maintenance and for debugging.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

// newSettlementHandler creates a new settlementHandler.
func newSettlementHandler(ss portssvc.SettlementSvcFacade) *settlementHandler {
	return &settlementHandler{settlementService: ss}
}

// registerSettlementRoutes registers routes related to settlement sweeps.
func registerSettlementRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := newSettlementHandler(settlementService)

	settlement := rg.Group("/settlement")
	{
		settlement.POST("/sweep", h.sweep)
	}
}

// sweep godoc
// @Summary Run one settlement sweep
// @Description Settles unsettled completed-ticket ledger entries after the given cursor; safe to run concurrently
// @Tags settlement
// @Produce  json
// @Param   afterID query int false "Ledger id cursor to sweep after" default(0)
// @Success 200 {object} dto.SweepResponse
// @Failure 400 {object} map[string]string "Invalid cursor"
// @Failure 500 {object} map[string]string "Sweep failed"
// @Security BearerAuth
// @Router /settlement/sweep [post]
func (h *settlementHandler) sweep(c *gin.Context) {
	afterID := int64(0)
	if raw := c.Query("afterID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "afterID must be a non-negative integer"})
			return
		}
		afterID = parsed
	}

	resp, err := h.settlementService.SweepOnce(c.Request.Context(), afterID)
	if err != nil {
		respondTicketError(c, err, "Settlement sweep failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
