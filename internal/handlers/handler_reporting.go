package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
)

// reportingHandler exposes read-only reports derived from the ledger.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers routes related to reports.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/trade-routes", h.tradeRouteProfit)
		reports.GET("/fleet-summary", h.fleetSummary)
	}
}

// tradeRouteProfit godoc
// @Summary Trade route profit report
// @Description Lists closed sell tickets with their matched purchase outcomes and margins, newest first
// @Tags reports
// @Produce  json
// @Param   limit query int false "Maximum rows" default(50)
// @Success 200 {array} domain.TradeRouteProfitRow
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 500 {object} map[string]string "Failed to build report"
// @Security BearerAuth
// @Router /reports/trade-routes [get]
func (h *reportingHandler) tradeRouteProfit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	rows, err := h.reportingService.TradeRouteProfit(c.Request.Context(), limit)
	if err != nil {
		respondTicketError(c, err, "Failed to build trade route profit report")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// fleetSummary godoc
// @Summary Fleet summary report
// @Description Aggregates completed-ticket income and expenses per fleet
// @Tags reports
// @Produce  json
// @Success 200 {array} domain.FleetSummaryRow
// @Failure 500 {object} map[string]string "Failed to build report"
// @Security BearerAuth
// @Router /reports/fleet-summary [get]
func (h *reportingHandler) fleetSummary(c *gin.Context) {
	rows, err := h.reportingService.FleetSummary(c.Request.Context())
	if err != nil {
		respondTicketError(c, err, "Failed to build fleet summary report")
		return
	}
	c.JSON(http.StatusOK, rows)
}
