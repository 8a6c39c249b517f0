package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgsql repositories over one shared pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		TicketRepo:    NewTicketRepository(pool),
		LedgerRepo:    NewLedgerRepository(pool),
		TreasurerRepo: NewTreasurerRepository(pool),
		ReportingRepo: NewReportingRepository(pool),
	}
}
