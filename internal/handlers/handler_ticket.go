package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
	"github.com/stautomata/fleet_treasury/internal/dto"
	"github.com/stautomata/fleet_treasury/internal/middleware"
)

// ticketHandler handles HTTP requests related to tickets and their
// transactions. Ticket issuing and closing go through the treasury service
// because they move money; reads and transaction recording do not.
type ticketHandler struct {
	ticketService   portssvc.TicketSvcFacade
	treasuryService portssvc.TreasurySvcFacade
}

// newTicketHandler creates a new ticketHandler.
func newTicketHandler(ts portssvc.TicketSvcFacade, trs portssvc.TreasurySvcFacade) *ticketHandler {
	return &ticketHandler{
		ticketService:   ts,
		treasuryService: trs,
	}
}

// registerTicketRoutes registers routes related to tickets.
func registerTicketRoutes(rg *gin.RouterGroup, ticketService portssvc.TicketSvcFacade, treasuryService portssvc.TreasurySvcFacade) {
	h := newTicketHandler(ticketService, treasuryService)

	tickets := rg.Group("/tickets")
	{
		tickets.POST("/purchase", h.createPurchaseTicket)
		tickets.POST("/sell", h.createSellTicket)
		tickets.POST("/ship-purchase", h.createShipPurchaseTicket)
		tickets.POST("/supply-construction", h.createSupplyConstructionTicket)
		tickets.POST("/refuel", h.createRefuelTicket)
		tickets.GET("", h.listOpenTickets)
		tickets.GET("/:ticketID", h.getTicketByID)
		tickets.POST("/:ticketID/close", h.closeTicket)
		tickets.GET("/:ticketID/transactions", h.listTransactions)
		tickets.POST("/:ticketID/transactions", h.recordTransaction)
	}
}

// createPurchaseTicket godoc
// @Summary Create a purchase ticket
// @Description Issues a trade-good purchase ticket, capping quantity at what the fleet can afford
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticket body dto.CreatePurchaseTicketRequest true "Purchase ticket details"
// @Success 201 {object} dto.TicketResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient funds"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to create ticket"
// @Security BearerAuth
// @Router /tickets/purchase [post]
func (h *ticketHandler) createPurchaseTicket(c *gin.Context) {
	var req dto.CreatePurchaseTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.treasuryService.CreatePurchaseTicket(c.Request.Context(), req)
	if err != nil {
		respondTicketError(c, err, "Failed to create purchase ticket")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTicketResponse(*ticket))
}

// createSellTicket godoc
// @Summary Create a sell ticket
// @Description Issues a trade-good sell ticket, optionally correlated to the purchase ticket that sourced the cargo
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticket body dto.CreateSellTicketRequest true "Sell ticket details"
// @Success 201 {object} dto.TicketResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to create ticket"
// @Security BearerAuth
// @Router /tickets/sell [post]
func (h *ticketHandler) createSellTicket(c *gin.Context) {
	var req dto.CreateSellTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.treasuryService.CreateSellTicket(c.Request.Context(), req)
	if err != nil {
		respondTicketError(c, err, "Failed to create sell ticket")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTicketResponse(*ticket))
}

// createShipPurchaseTicket godoc
// @Summary Create a ship purchase ticket
// @Description Issues a ship purchase ticket, reserving the full expected price
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticket body dto.CreateShipPurchaseTicketRequest true "Ship purchase ticket details"
// @Success 201 {object} dto.TicketResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient funds"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to create ticket"
// @Security BearerAuth
// @Router /tickets/ship-purchase [post]
func (h *ticketHandler) createShipPurchaseTicket(c *gin.Context) {
	var req dto.CreateShipPurchaseTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.treasuryService.CreateShipPurchaseTicket(c.Request.Context(), req)
	if err != nil {
		respondTicketError(c, err, "Failed to create ship purchase ticket")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTicketResponse(*ticket))
}

// createSupplyConstructionTicket godoc
// @Summary Create a supply-construction ticket
// @Description Issues a construction-material delivery ticket; the delivery itself moves no money
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticket body dto.CreateSupplyConstructionTicketRequest true "Supply construction ticket details"
// @Success 201 {object} dto.TicketResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to create ticket"
// @Security BearerAuth
// @Router /tickets/supply-construction [post]
func (h *ticketHandler) createSupplyConstructionTicket(c *gin.Context) {
	var req dto.CreateSupplyConstructionTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.treasuryService.CreateSupplyConstructionTicket(c.Request.Context(), req)
	if err != nil {
		respondTicketError(c, err, "Failed to create supply construction ticket")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTicketResponse(*ticket))
}

// createRefuelTicket godoc
// @Summary Create a refuel ticket
// @Description Issues a refueling ticket, reserving the expected cost
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticket body dto.CreateRefuelTicketRequest true "Refuel ticket details"
// @Success 201 {object} dto.TicketResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient funds"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to create ticket"
// @Security BearerAuth
// @Router /tickets/refuel [post]
func (h *ticketHandler) createRefuelTicket(c *gin.Context) {
	var req dto.CreateRefuelTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.treasuryService.CreateRefuelTicket(c.Request.Context(), req)
	if err != nil {
		respondTicketError(c, err, "Failed to create refuel ticket")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTicketResponse(*ticket))
}

// listOpenTickets godoc
// @Summary List open tickets for a ship
// @Description Retrieves the open tickets assigned to the given ship
// @Tags tickets
// @Produce  json
// @Param   shipSymbol query string true "Ship symbol"
// @Success 200 {array} dto.TicketResponse
// @Failure 400 {object} map[string]string "Missing ship symbol"
// @Failure 500 {object} map[string]string "Failed to list tickets"
// @Security BearerAuth
// @Router /tickets [get]
func (h *ticketHandler) listOpenTickets(c *gin.Context) {
	shipSymbol := c.Query("shipSymbol")
	if shipSymbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shipSymbol query parameter is required"})
		return
	}

	tickets, err := h.ticketService.ListOpenTicketsForShip(c.Request.Context(), domain.ShipSymbol(shipSymbol))
	if err != nil {
		respondTicketError(c, err, "Failed to list open tickets")
		return
	}

	resp := make([]dto.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		resp = append(resp, dto.ToTicketResponse(ticket))
	}
	c.JSON(http.StatusOK, resp)
}

// getTicketByID godoc
// @Summary Get a ticket by ID
// @Description Retrieves one ticket, open or closed
// @Tags tickets
// @Produce  json
// @Param   ticketID path string true "Ticket ID"
// @Success 200 {object} dto.TicketResponse
// @Failure 404 {object} map[string]string "Ticket not found"
// @Failure 500 {object} map[string]string "Failed to retrieve ticket"
// @Security BearerAuth
// @Router /tickets/{ticketID} [get]
func (h *ticketHandler) getTicketByID(c *gin.Context) {
	ticketID := domain.TicketID(c.Param("ticketID"))

	ticket, err := h.ticketService.GetTicketByID(c.Request.Context(), ticketID)
	if err != nil {
		respondTicketError(c, err, "Failed to retrieve ticket")
		return
	}
	c.JSON(http.StatusOK, dto.ToTicketResponse(*ticket))
}

// closeTicket godoc
// @Summary Close a ticket
// @Description Finalizes the ticket's outcome and appends the TicketCompleted ledger entry; a second close fails with 409
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticketID path string true "Ticket ID"
// @Param   outcome body dto.CloseTicketRequest true "Final outcome"
// @Success 200 {object} dto.CloseTicketResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Ticket not found"
// @Failure 409 {object} map[string]string "Ticket already closed"
// @Failure 500 {object} map[string]string "Failed to close ticket"
// @Security BearerAuth
// @Router /tickets/{ticketID}/close [post]
func (h *ticketHandler) closeTicket(c *gin.Context) {
	ticketID := domain.TicketID(c.Param("ticketID"))
	var req dto.CloseTicketRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.treasuryService.CompleteTicket(c.Request.Context(), ticketID, req.ActualUnits, domain.Credits(req.ActualPricePerUnit))
	if err != nil {
		respondTicketError(c, err, "Failed to close ticket")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listTransactions godoc
// @Summary List transactions for a ticket
// @Description Retrieves every physical attempt recorded against a ticket, oldest first
// @Tags tickets
// @Produce  json
// @Param   ticketID path string true "Ticket ID"
// @Success 200 {array} dto.TransactionResponse
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /tickets/{ticketID}/transactions [get]
func (h *ticketHandler) listTransactions(c *gin.Context) {
	ticketID := domain.TicketID(c.Param("ticketID"))

	txns, err := h.ticketService.ListTransactions(c.Request.Context(), ticketID)
	if err != nil {
		respondTicketError(c, err, "Failed to list transactions")
		return
	}

	resp := make([]dto.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		resp = append(resp, dto.ToTransactionResponse(txn))
	}
	c.JSON(http.StatusOK, resp)
}

// recordTransaction godoc
// @Summary Record a transaction against a ticket
// @Description Records one physical attempt; the external response payload is stored verbatim
// @Tags tickets
// @Accept  json
// @Produce  json
// @Param   ticketID path string true "Ticket ID"
// @Param   transaction body dto.RecordTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Ticket not found"
// @Failure 409 {object} map[string]string "Ticket already closed"
// @Failure 500 {object} map[string]string "Failed to record transaction"
// @Security BearerAuth
// @Router /tickets/{ticketID}/transactions [post]
func (h *ticketHandler) recordTransaction(c *gin.Context) {
	ticketID := domain.TicketID(c.Param("ticketID"))
	var req dto.RecordTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.ticketService.RecordTransaction(c.Request.Context(), ticketID, req)
	if err != nil {
		respondTicketError(c, err, "Failed to record transaction")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(*txn))
}

// bindJSON binds the request body and reports a uniform 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}

// respondTicketError maps domain errors from ticket and treasury operations
// to HTTP status codes.
func respondTicketError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrUnknownTicket), errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTicketAlreadyClosed), errors.Is(err, apperrors.ErrDuplicateTicket):
		logger.Warn("Conflicting ticket state", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
