package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// treasuryHandler handles HTTP requests for fleet budgets and fund movement.
type treasuryHandler struct {
	treasuryService portssvc.TreasurySvcFacade
}

// newTreasuryHandler creates a new treasuryHandler.
func newTreasuryHandler(ts portssvc.TreasurySvcFacade) *treasuryHandler {
	return &treasuryHandler{treasuryService: ts}
}

// registerTreasuryRoutes registers routes related to the treasury and fleet budgets.
func registerTreasuryRoutes(rg *gin.RouterGroup, treasuryService portssvc.TreasurySvcFacade) {
	h := newTreasuryHandler(treasuryService)

	treasury := rg.Group("/treasury")
	{
		treasury.GET("/credits", h.getAgentCredits)
	}

	fleets := rg.Group("/fleets")
	{
		fleets.POST("", h.createFleet)
		fleets.GET("", h.listFleetBudgets)
		fleets.GET("/:fleetID/budget", h.getFleetBudget)
		fleets.POST("/:fleetID/top-up", h.topUpFleet)
		fleets.POST("/:fleetID/return-excess", h.returnExcessFunds)
		fleets.PUT("/:fleetID/total-capital", h.setTotalCapital)
		fleets.PUT("/:fleetID/operating-reserve", h.setOperatingReserve)
		fleets.POST("/:fleetID/expenses", h.logExpense)
	}
}

// fleetIDParam parses the :fleetID path parameter.
func fleetIDParam(c *gin.Context) (domain.FleetID, bool) {
	id, err := strconv.ParseInt(c.Param("fleetID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fleetID must be an integer"})
		return 0, false
	}
	return domain.FleetID(id), true
}

// getAgentCredits godoc
// @Summary Get agent-wide credits
// @Description Reports the treasury fund and the agent total (treasury plus all fleet capital)
// @Tags treasury
// @Produce  json
// @Success 200 {object} dto.AgentCreditsResponse
// @Failure 500 {object} map[string]string "Failed to read credits"
// @Security BearerAuth
// @Router /treasury/credits [get]
func (h *treasuryHandler) getAgentCredits(c *gin.Context) {
	agentCredits, err := h.treasuryService.CurrentAgentCredits(c.Request.Context())
	if err != nil {
		respondTicketError(c, err, "Failed to read agent credits")
		return
	}
	treasuryFund, err := h.treasuryService.CurrentTreasuryFund(c.Request.Context())
	if err != nil {
		respondTicketError(c, err, "Failed to read treasury fund")
		return
	}
	c.JSON(http.StatusOK, dto.AgentCreditsResponse{
		AgentCredits: int64(agentCredits),
		TreasuryFund: int64(treasuryFund),
	})
}

// createFleet godoc
// @Summary Create a fleet budget
// @Description Opens a budget for a new fleet; the budget starts empty until topped up
// @Tags fleets
// @Accept  json
// @Produce  json
// @Param   fleet body dto.CreateFleetRequest true "Fleet details"
// @Success 201 {object} dto.FleetBudgetResponse
// @Failure 400 {object} map[string]string "Invalid input or fleet already exists"
// @Failure 500 {object} map[string]string "Failed to create fleet"
// @Security BearerAuth
// @Router /fleets [post]
func (h *treasuryHandler) createFleet(c *gin.Context) {
	var req dto.CreateFleetRequest
	if !bindJSON(c, &req) {
		return
	}

	fleetID := domain.FleetID(req.FleetID)
	if err := h.treasuryService.CreateFleet(c.Request.Context(), fleetID, domain.Credits(req.TotalCapital)); err != nil {
		respondTicketError(c, err, "Failed to create fleet")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusCreated, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// listFleetBudgets godoc
// @Summary List fleet budgets
// @Description Retrieves the projected budget of every fleet
// @Tags fleets
// @Produce  json
// @Success 200 {array} dto.FleetBudgetResponse
// @Failure 500 {object} map[string]string "Failed to list budgets"
// @Security BearerAuth
// @Router /fleets [get]
func (h *treasuryHandler) listFleetBudgets(c *gin.Context) {
	budgets, err := h.treasuryService.ListFleetBudgets(c.Request.Context())
	if err != nil {
		respondTicketError(c, err, "Failed to list fleet budgets")
		return
	}

	resp := make([]dto.FleetBudgetResponse, 0, len(budgets))
	for fleetID, budget := range budgets {
		resp = append(resp, dto.ToFleetBudgetResponse(fleetID, budget))
	}
	c.JSON(http.StatusOK, resp)
}

// getFleetBudget godoc
// @Summary Get a fleet budget
// @Description Retrieves the projected budget for one fleet
// @Tags fleets
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to read budget"
// @Security BearerAuth
// @Router /fleets/{fleetID}/budget [get]
func (h *treasuryHandler) getFleetBudget(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// topUpFleet godoc
// @Summary Top up a fleet
// @Description Transfers funds from the treasury until the fleet reaches its total capital, bounded by treasury holdings
// @Tags fleets
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to top up fleet"
// @Security BearerAuth
// @Router /fleets/{fleetID}/top-up [post]
func (h *treasuryHandler) topUpFleet(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}

	if err := h.treasuryService.TopUpFleet(c.Request.Context(), fleetID); err != nil {
		respondTicketError(c, err, "Failed to top up fleet")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// returnExcessFunds godoc
// @Summary Return excess fleet funds
// @Description Transfers capital above the fleet's total back to the treasury
// @Tags fleets
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to return excess funds"
// @Security BearerAuth
// @Router /fleets/{fleetID}/return-excess [post]
func (h *treasuryHandler) returnExcessFunds(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}

	if err := h.treasuryService.ReturnExcessFunds(c.Request.Context(), fleetID); err != nil {
		respondTicketError(c, err, "Failed to return excess funds")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// setTotalCapital godoc
// @Summary Set fleet total capital
// @Description Adjusts the fleet's capital target; lowering it below current holdings releases the excess to the treasury
// @Tags fleets
// @Accept  json
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Param   body body dto.SetTotalCapitalRequest true "New total capital"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to set total capital"
// @Security BearerAuth
// @Router /fleets/{fleetID}/total-capital [put]
func (h *treasuryHandler) setTotalCapital(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}
	var req dto.SetTotalCapitalRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.treasuryService.SetFleetTotalCapital(c.Request.Context(), fleetID, domain.Credits(req.NewTotalCapital)); err != nil {
		respondTicketError(c, err, "Failed to set total capital")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// setOperatingReserve godoc
// @Summary Set fleet operating reserve
// @Description Adjusts the floor the fleet keeps for running costs
// @Tags fleets
// @Accept  json
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Param   body body dto.SetOperatingReserveRequest true "New operating reserve"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to set operating reserve"
// @Security BearerAuth
// @Router /fleets/{fleetID}/operating-reserve [put]
func (h *treasuryHandler) setOperatingReserve(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}
	var req dto.SetOperatingReserveRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.treasuryService.SetOperatingReserve(c.Request.Context(), fleetID, domain.Credits(req.NewOperatingReserve)); err != nil {
		respondTicketError(c, err, "Failed to set operating reserve")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}

// logExpense godoc
// @Summary Log an expense
// @Description Records an outflow outside any ticket against a fleet
// @Tags fleets
// @Accept  json
// @Produce  json
// @Param   fleetID path int true "Fleet ID"
// @Param   expense body dto.LogExpenseRequest true "Expense details"
// @Success 200 {object} dto.FleetBudgetResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Fleet not found"
// @Failure 500 {object} map[string]string "Failed to log expense"
// @Security BearerAuth
// @Router /fleets/{fleetID}/expenses [post]
func (h *treasuryHandler) logExpense(c *gin.Context) {
	fleetID, ok := fleetIDParam(c)
	if !ok {
		return
	}
	var req dto.LogExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	var maybeTicketID *domain.TicketID
	if req.TicketID != nil {
		id := domain.TicketID(*req.TicketID)
		maybeTicketID = &id
	}

	if err := h.treasuryService.LogExpense(c.Request.Context(), fleetID, domain.Credits(req.Credits), maybeTicketID); err != nil {
		respondTicketError(c, err, "Failed to log expense")
		return
	}

	budget, err := h.treasuryService.GetFleetBudget(c.Request.Context(), fleetID)
	if err != nil {
		respondTicketError(c, err, "Failed to read fleet budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToFleetBudgetResponse(fleetID, *budget))
}
