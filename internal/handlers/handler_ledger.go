package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
	"github.com/stautomata/fleet_treasury/internal/dto"
	"github.com/stautomata/fleet_treasury/internal/middleware"
)

// ledgerHandler exposes read-only, cursor-paged access to the ledger.
type ledgerHandler struct {
	ledgerService portssvc.LedgerReaderSvc
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerReaderSvc) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers routes related to the ledger.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerReaderSvc) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("", h.listEntries)
	}
}

// listEntries godoc
// @Summary List ledger entries
// @Description Reads ledger entries after the cursor in ascending id order
// @Tags ledger
// @Produce  json
// @Param   afterID query int false "Ledger id cursor" default(0)
// @Param   limit query int false "Page size" default(100)
// @Success 200 {object} dto.ListLedgerResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 500 {object} map[string]string "Failed to read ledger"
// @Security BearerAuth
// @Router /ledger [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	var params dto.ListLedgerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Failed to bind ledger query params", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondTicketError(c, err, "Failed to read ledger")
		return
	}
	c.JSON(http.StatusOK, resp)
}
