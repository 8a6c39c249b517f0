package services

import (
	"context"
	"time"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// TicketService reads tickets and records the physical transaction attempts
// made against them. Money movement stays in the treasury service; this one
// only keeps the audit trail of what the external system reported.
type TicketService struct {
	BaseService
	ticketRepo portsrepo.TicketRepositoryFacade
}

// NewTicketService creates a new ticket service.
func NewTicketService(ticketRepo portsrepo.TicketRepositoryFacade) *TicketService {
	return &TicketService{ticketRepo: ticketRepo}
}

// GetTicketByID retrieves a ticket by its ID.
func (s *TicketService) GetTicketByID(ctx context.Context, ticketID domain.TicketID) (*domain.Ticket, error) {
	return s.ticketRepo.FindTicketByID(ctx, ticketID)
}

// ListOpenTicketsForShip retrieves the open tickets owned by one ship.
func (s *TicketService) ListOpenTicketsForShip(ctx context.Context, ship domain.ShipSymbol) ([]domain.Ticket, error) {
	return s.ticketRepo.ListOpenTicketsForShip(ctx, ship)
}

// ListTransactions retrieves the attempts recorded against a ticket.
func (s *TicketService) ListTransactions(ctx context.Context, ticketID domain.TicketID) ([]domain.Transaction, error) {
	return s.ticketRepo.FindTransactionsByTicketID(ctx, ticketID)
}

// RecordTransaction shapes the uniform tx_summary for the ticket's detail
// kind, derives the signed total from the ticket's direction, and appends
// the transaction row. The external response payload is stored verbatim.
func (s *TicketService) RecordTransaction(ctx context.Context, ticketID domain.TicketID, req dto.RecordTransactionRequest) (*domain.Transaction, error) {
	ticket, err := s.ticketRepo.FindTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	summaryKind, err := domain.TxSummaryKindForDetails(ticket.Details.Kind())
	if err != nil {
		return nil, err
	}

	// Delivering construction materials moves no money; the outlay was the
	// purchase that sourced them. Everything else is signed by direction.
	total := domain.Credits(req.TotalPrice) * domain.Credits(ticket.Details.Signum())
	if ticket.Details.Kind() == domain.KindSupplyConstructionSite {
		total = 0
	}

	txn := domain.Transaction{
		TransactionTicketID: domain.NewTransactionTicketID(),
		TicketID:            ticket.TicketID,
		ShipSymbol:          ticket.ShipSymbol,
		TotalPrice:          total,
		Summary: domain.TxSummary{
			Kind:          summaryKind,
			TicketDetails: ticket.Details,
			Response:      req.Response,
		},
		CompletedAt: time.Now().UTC(),
		IsComplete:  req.IsComplete,
	}

	// The repository re-checks open-ness under a row lock; a concurrent
	// close between the read above and this insert surfaces
	// ErrTicketAlreadyClosed.
	if err := s.ticketRepo.RecordTransaction(ctx, txn); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Recorded transaction",
		"ticket_id", string(ticket.TicketID),
		"transaction_ticket_id", string(txn.TransactionTicketID),
		"total_price", int64(txn.TotalPrice),
		"is_complete", txn.IsComplete,
	)
	return &txn, nil
}
