package domain

// FleetBudget tracks one fleet's money. CurrentCapital is the cash actually
// at hand (the single source of truth); the other three are targets and
// reservations layered on top of it.
type FleetBudget struct {
	// CurrentCapital is the cash the fleet holds right now.
	CurrentCapital Credits `json:"current_capital"`
	// ReservedCapital is earmarked for open tickets, not spent yet.
	ReservedCapital Credits `json:"reserved_capital"`
	// TotalCapital is the level the treasury tops the fleet up to. Holdings
	// above it flow back to the treasury.
	TotalCapital Credits `json:"total_capital"`
	// OperatingReserve is the floor the fleet keeps for running costs.
	OperatingReserve Credits `json:"operating_reserve"`
}

// AvailableCapital is what the fleet can still commit to new tickets.
func (b FleetBudget) AvailableCapital() Credits {
	return b.CurrentCapital - b.ReservedCapital
}
