package repositories

import (
	"context"
	"time"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// TicketReader defines read operations for trade tickets.
type TicketReader interface {
	// FindTicketByID retrieves a ticket by its unique identifier.
	FindTicketByID(ctx context.Context, ticketID domain.TicketID) (*domain.Ticket, error)

	// ListOpenTicketsForShip retrieves the open tickets assigned to one ship.
	// The scheduler uses this to avoid double-assigning a ship mid-trade.
	ListOpenTicketsForShip(ctx context.Context, ship domain.ShipSymbol) ([]domain.Ticket, error)

	// ListOpenTickets retrieves every open ticket, for restart recovery.
	ListOpenTickets(ctx context.Context) ([]domain.Ticket, error)
}

// TicketWriter defines write operations for trade tickets.
type TicketWriter interface {
	// CreateTicket persists a new open ticket and appends its TicketCreated
	// ledger event in the same storage transaction. Returns the assigned
	// ledger entry id. Fails with apperrors.ErrDuplicateTicket on ID collision.
	CreateTicket(ctx context.Context, ticket domain.Ticket) (int64, error)

	// RecordTransaction appends a transaction row against an open ticket and
	// advances the ticket's updated_at. Fails with apperrors.ErrUnknownTicket
	// or apperrors.ErrTicketAlreadyClosed.
	RecordTransaction(ctx context.Context, txn domain.Transaction) error

	// CloseTicket sets completed_at and appends the TicketCompleted ledger
	// event atomically: either both happen or neither. Returns the ledger
	// entry id. A second close fails with apperrors.ErrTicketAlreadyClosed
	// and leaves the stored completed_at untouched.
	CloseTicket(ctx context.Context, ticketID domain.TicketID, completedAt time.Time, event domain.TicketCompleted) (int64, error)
}

// TransactionReader defines read operations for recorded transactions.
type TransactionReader interface {
	// FindTransactionsByTicketID retrieves all attempts recorded for a ticket,
	// oldest first.
	FindTransactionsByTicketID(ctx context.Context, ticketID domain.TicketID) ([]domain.Transaction, error)
}

// TicketRepositoryFacade combines all ticket-related repository interfaces.
type TicketRepositoryFacade interface {
	TicketReader
	TicketWriter
	TransactionReader
}

// TicketRepositoryWithTx extends TicketRepositoryFacade with transaction capabilities.
type TicketRepositoryWithTx interface {
	TicketRepositoryFacade
	TransactionManager
}
