package dto

import "github.com/stautomata/fleet_treasury/internal/core/domain"

// CreateFleetRequest opens a budget for a new fleet.
type CreateFleetRequest struct {
	FleetID      int64 `json:"fleetID" binding:"required"`
	TotalCapital int64 `json:"totalCapital" binding:"required,gt=0"`
}

// SetTotalCapitalRequest adjusts the capital target of a fleet.
type SetTotalCapitalRequest struct {
	NewTotalCapital int64 `json:"newTotalCapital" binding:"required,gt=0"`
}

// SetOperatingReserveRequest adjusts the operating floor of a fleet.
type SetOperatingReserveRequest struct {
	NewOperatingReserve int64 `json:"newOperatingReserve" binding:"min=0"`
}

// LogExpenseRequest records an outflow outside any ticket.
type LogExpenseRequest struct {
	Credits  int64   `json:"credits" binding:"required,gt=0"`
	TicketID *string `json:"ticketID,omitempty" binding:"omitempty,uuid"`
}

// FleetBudgetResponse is the API shape of a fleet budget.
type FleetBudgetResponse struct {
	FleetID          int64 `json:"fleetID"`
	CurrentCapital   int64 `json:"currentCapital"`
	ReservedCapital  int64 `json:"reservedCapital"`
	TotalCapital     int64 `json:"totalCapital"`
	OperatingReserve int64 `json:"operatingReserve"`
	AvailableCapital int64 `json:"availableCapital"`
}

// ToFleetBudgetResponse maps a domain budget to its API shape.
func ToFleetBudgetResponse(fleetID domain.FleetID, b domain.FleetBudget) FleetBudgetResponse {
	return FleetBudgetResponse{
		FleetID:          int64(fleetID),
		CurrentCapital:   int64(b.CurrentCapital),
		ReservedCapital:  int64(b.ReservedCapital),
		TotalCapital:     int64(b.TotalCapital),
		OperatingReserve: int64(b.OperatingReserve),
		AvailableCapital: int64(b.AvailableCapital()),
	}
}

// AgentCreditsResponse reports the agent-wide money position.
type AgentCreditsResponse struct {
	AgentCredits int64 `json:"agentCredits"`
	TreasuryFund int64 `json:"treasuryFund"`
}

// SweepResponse summarizes one settlement sweep.
type SweepResponse struct {
	Settled         int   `json:"settled"`
	AlreadySettled  int   `json:"alreadySettled"`
	MaxLedgerIDSeen int64 `json:"maxLedgerIDSeen"`
}
