package services

import (
	"fmt"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// fleetReserve is the floor a fleet keeps untouched when sizing purchase
// tickets, so a fleet never spends itself below refueling money.
const fleetReserve = domain.Credits(10_000)

// TreasuryProjection is the in-memory money position derived by replaying
// the ledger: treasury fund, per-fleet budgets and open-ticket reservations.
// It is deterministic: replaying the same entries always yields the same
// state, which is what makes rebuild-on-startup safe.
//
// The projection is not safe for concurrent use; TreasuryService serializes
// access behind its mutex.
type TreasuryProjection struct {
	treasuryFund  domain.Credits
	fleetBudgets  map[domain.FleetID]domain.FleetBudget
	openTickets   map[domain.TicketID]domain.Ticket
	lastAppliedID int64
}

// NewTreasuryProjection returns an empty projection, ready for replay.
func NewTreasuryProjection() *TreasuryProjection {
	return &TreasuryProjection{
		fleetBudgets: make(map[domain.FleetID]domain.FleetBudget),
		openTickets:  make(map[domain.TicketID]domain.Ticket),
	}
}

// TreasuryFund is the unallocated money held centrally.
func (p *TreasuryProjection) TreasuryFund() domain.Credits {
	return p.treasuryFund
}

// AgentCredits is the agent-wide position: treasury fund plus the cash every
// fleet holds. Reservations are virtual and do not move this number.
func (p *TreasuryProjection) AgentCredits() domain.Credits {
	total := p.treasuryFund
	for _, budget := range p.fleetBudgets {
		total += budget.CurrentCapital
	}
	return total
}

// FleetBudget returns a copy of one fleet's budget.
func (p *TreasuryProjection) FleetBudget(fleetID domain.FleetID) (domain.FleetBudget, bool) {
	budget, ok := p.fleetBudgets[fleetID]
	return budget, ok
}

// FleetBudgets returns a copy of all fleet budgets.
func (p *TreasuryProjection) FleetBudgets() map[domain.FleetID]domain.FleetBudget {
	budgets := make(map[domain.FleetID]domain.FleetBudget, len(p.fleetBudgets))
	for id, budget := range p.fleetBudgets {
		budgets[id] = budget
	}
	return budgets
}

// OpenTicket returns the projected open ticket with the given ID.
func (p *TreasuryProjection) OpenTicket(ticketID domain.TicketID) (domain.Ticket, bool) {
	ticket, ok := p.openTickets[ticketID]
	return ticket, ok
}

// LastAppliedID is the id of the newest ledger entry folded in.
func (p *TreasuryProjection) LastAppliedID() int64 {
	return p.lastAppliedID
}

// Apply folds one ledger entry into the projection. Each case validates
// before it mutates, so a failed Apply leaves the projection unchanged.
//
// Apply stays dumb on purpose: no follow-up entries are produced here (e.g.
// no excess-funds transfer after a profitable sale). Follow-ups are separate
// ledger entries appended by the treasury service, which keeps replay exact.
func (p *TreasuryProjection) Apply(entry domain.LedgerEntry) error {
	switch event := entry.Event.(type) {
	case domain.TreasuryCreated:
		p.treasuryFund = event.Credits

	case domain.FleetCreated:
		if _, exists := p.fleetBudgets[event.FleetID]; exists {
			return fmt.Errorf("%w: fleet budget %d already exists", apperrors.ErrValidation, event.FleetID)
		}
		p.fleetBudgets[event.FleetID] = domain.FleetBudget{
			TotalCapital: event.TotalCapital,
		}

	case domain.TransferFundsTreasuryToFleet:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		p.treasuryFund -= event.Credits
		budget.CurrentCapital += event.Credits
		p.fleetBudgets[event.FleetID] = budget

	case domain.TransferFundsFromFleetToTreasury:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		if budget.CurrentCapital < event.Credits {
			return fmt.Errorf("%w: fleet %d holds %d, cannot transfer %d to treasury",
				apperrors.ErrValidation, event.FleetID, budget.CurrentCapital, event.Credits)
		}
		budget.CurrentCapital -= event.Credits
		p.treasuryFund += event.Credits
		p.fleetBudgets[event.FleetID] = budget

	case domain.TicketCreated:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		if budget.CurrentCapital < event.Ticket.AllocatedCredits {
			return fmt.Errorf("%w: insufficient funds, current capital %d, allocated %d",
				apperrors.ErrValidation, budget.CurrentCapital, event.Ticket.AllocatedCredits)
		}
		budget.ReservedCapital += event.Ticket.AllocatedCredits
		p.fleetBudgets[event.FleetID] = budget
		p.openTickets[event.Ticket.TicketID] = event.Ticket

	case domain.TicketCompleted:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		if event.Ticket.AllocatedCredits.IsPositive() {
			// clear the reservation
			budget.ReservedCapital -= event.Ticket.AllocatedCredits
		}
		budget.CurrentCapital += event.Total
		p.fleetBudgets[event.FleetID] = budget
		delete(p.openTickets, event.Ticket.TicketID)

	case domain.ExpenseLogged:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		budget.CurrentCapital -= event.Credits
		p.fleetBudgets[event.FleetID] = budget

	case domain.SetNewTotalCapitalForFleet:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		budget.TotalCapital = event.NewTotalCapital
		p.fleetBudgets[event.FleetID] = budget

	case domain.SetNewOperatingReserveForFleet:
		budget, ok := p.fleetBudgets[event.FleetID]
		if !ok {
			return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, event.FleetID)
		}
		budget.OperatingReserve = event.NewOperatingReserve
		p.fleetBudgets[event.FleetID] = budget

	default:
		return fmt.Errorf("%w: unhandled ledger event kind %q", apperrors.ErrMalformedEntry, entry.Event.Kind())
	}

	if entry.ID > p.lastAppliedID {
		p.lastAppliedID = entry.ID
	}
	return nil
}
