package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// TicketReaderSvc defines read operations for tickets.
type TicketReaderSvc interface {
	// GetTicketByID retrieves a ticket by its ID.
	GetTicketByID(ctx context.Context, ticketID domain.TicketID) (*domain.Ticket, error)

	// ListOpenTicketsForShip retrieves the open tickets owned by one ship.
	ListOpenTicketsForShip(ctx context.Context, ship domain.ShipSymbol) ([]domain.Ticket, error)

	// ListTransactions retrieves the attempts recorded against a ticket.
	ListTransactions(ctx context.Context, ticketID domain.TicketID) ([]domain.Transaction, error)
}

// TransactionRecorderSvc shapes and records physical transaction attempts.
type TransactionRecorderSvc interface {
	// RecordTransaction shapes the uniform tx_summary for the ticket's detail
	// kind, derives the signed total price, and appends the transaction row.
	RecordTransaction(ctx context.Context, ticketID domain.TicketID, req dto.RecordTransactionRequest) (*domain.Transaction, error)
}

// TicketSvcFacade combines all ticket-related service interfaces.
type TicketSvcFacade interface {
	TicketReaderSvc
	TransactionRecorderSvc
}
