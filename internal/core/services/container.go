package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
)

// NewContainer creates the service container with properly initialized
// dependencies. The treasury service is bootstrapped here: the ledger is
// replayed into the projection before any request is served.
func NewContainer(ctx context.Context, repos *portsrepo.RepositoryProvider, startingCredits domain.Credits) (*portssvc.ServiceContainer, error) {
	treasury := NewTreasuryService(repos.LedgerRepo, repos.TicketRepo, startingCredits)
	if err := treasury.Bootstrap(ctx); err != nil {
		return nil, err
	}

	return &portssvc.ServiceContainer{
		Treasury:   treasury,
		Tickets:    NewTicketService(repos.TicketRepo),
		Settlement: NewSettlementService(repos.LedgerRepo, repos.TreasurerRepo),
		Ledger:     NewLedgerService(repos.LedgerRepo),
		Reporting:  NewReportingService(repos.ReportingRepo),
	}, nil
}

// Interface implementation checks at compile time
var (
	_ portssvc.TreasurySvcFacade   = (*TreasuryService)(nil)
	_ portssvc.TicketSvcFacade     = (*TicketService)(nil)
	_ portssvc.SettlementSvcFacade = (*SettlementService)(nil)
	_ portssvc.LedgerReaderSvc     = (*LedgerService)(nil)
	_ portssvc.ReportingSvcFacade  = (*ReportingService)(nil)
)
