package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
)

// PgxTicketRepository persists trade tickets and their transactions. Ticket
// creation and closing also touch the ledger: both writes go through one
// database transaction so the ticket state and the ledger can never disagree.
type PgxTicketRepository struct {
	BaseRepository
}

// NewTicketRepository creates a new repository for ticket and transaction data.
func NewTicketRepository(pool *pgxpool.Pool) portsrepo.TicketRepositoryWithTx {
	return &PgxTicketRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TicketRepositoryWithTx = (*PgxTicketRepository)(nil)

// CreateTicket persists a new open ticket and its TicketCreated ledger event
// in one database transaction.
func (r *PgxTicketRepository) CreateTicket(ctx context.Context, ticket domain.Ticket) (int64, error) {
	entry, err := json.Marshal(ticket)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to encode ticket "+string(ticket.TicketID), err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO trade_tickets (ticket_id, ship_symbol, entry, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, NULL);
	`, string(ticket.TicketID), string(ticket.ShipSymbol), entry, ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.ErrDuplicateTicket
		}
		return 0, apperrors.NewAppError(500, "failed to insert ticket "+string(ticket.TicketID), err)
	}

	ledgerID, err := appendLedgerEntry(ctx, tx, domain.TicketCreated{
		FleetID: ticket.FleetID,
		Ticket:  ticket,
	}, ticket.CreatedAt)
	if err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return ledgerID, nil
}

// RecordTransaction appends a transaction row against an open ticket. The
// ticket row is locked first so a concurrent close cannot slip between the
// check and the insert.
func (r *PgxTicketRepository) RecordTransaction(ctx context.Context, txn domain.Transaction) error {
	summary, err := domain.MarshalTxSummary(txn.Summary)
	if err != nil {
		return err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var completedAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT completed_at FROM trade_tickets WHERE ticket_id = $1 FOR UPDATE;
	`, string(txn.TicketID)).Scan(&completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUnknownTicket
		}
		return apperrors.NewAppError(500, "failed to lock ticket "+string(txn.TicketID), err)
	}
	if completedAt != nil {
		return apperrors.ErrTicketAlreadyClosed
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (transaction_ticket_id, ticket_id, ship_symbol, total_price, tx_summary, completed_at, is_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`,
		string(txn.TransactionTicketID),
		string(txn.TicketID),
		string(txn.ShipSymbol),
		int64(txn.TotalPrice),
		summary,
		txn.CompletedAt,
		txn.IsComplete,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrValidation
		}
		return apperrors.NewAppError(500, "failed to insert transaction for ticket "+string(txn.TicketID), err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE trade_tickets SET updated_at = $2 WHERE ticket_id = $1;
	`, string(txn.TicketID), txn.CompletedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to touch ticket "+string(txn.TicketID), err)
	}

	return r.Commit(ctx, tx)
}

// CloseTicket sets completed_at and appends the TicketCompleted event in one
// database transaction: either both happen or neither. The guarded UPDATE is
// what makes a double close impossible regardless of how many workers race.
func (r *PgxTicketRepository) CloseTicket(ctx context.Context, ticketID domain.TicketID, completedAt time.Time, event domain.TicketCompleted) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE trade_tickets
		SET completed_at = $2, updated_at = $2
		WHERE ticket_id = $1 AND completed_at IS NULL;
	`, string(ticketID), completedAt)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to close ticket "+string(ticketID), err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM trade_tickets WHERE ticket_id = $1);`,
			string(ticketID),
		).Scan(&exists); err != nil {
			return 0, apperrors.NewAppError(500, "failed to check ticket "+string(ticketID), err)
		}
		if !exists {
			return 0, apperrors.ErrUnknownTicket
		}
		return 0, apperrors.ErrTicketAlreadyClosed
	}

	ledgerID, err := appendLedgerEntry(ctx, tx, event, completedAt)
	if err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return ledgerID, nil
}

// FindTicketByID retrieves a ticket by its ID.
func (r *PgxTicketRepository) FindTicketByID(ctx context.Context, ticketID domain.TicketID) (*domain.Ticket, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT entry, created_at, updated_at, completed_at
		FROM trade_tickets
		WHERE ticket_id = $1;
	`, string(ticketID))

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnknownTicket
		}
		return nil, err
	}
	return ticket, nil
}

// ListOpenTicketsForShip retrieves the open tickets assigned to one ship.
func (r *PgxTicketRepository) ListOpenTicketsForShip(ctx context.Context, ship domain.ShipSymbol) ([]domain.Ticket, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT entry, created_at, updated_at, completed_at
		FROM trade_tickets
		WHERE ship_symbol = $1 AND completed_at IS NULL
		ORDER BY created_at ASC;
	`, string(ship))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list open tickets for ship "+string(ship), err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// ListOpenTickets retrieves every open ticket.
func (r *PgxTicketRepository) ListOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT entry, created_at, updated_at, completed_at
		FROM trade_tickets
		WHERE completed_at IS NULL
		ORDER BY created_at ASC;
	`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list open tickets", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// FindTransactionsByTicketID retrieves all attempts for a ticket, oldest first.
func (r *PgxTicketRepository) FindTransactionsByTicketID(ctx context.Context, ticketID domain.TicketID) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT transaction_ticket_id, ticket_id, ship_symbol, total_price, tx_summary, completed_at, is_complete
		FROM transactions
		WHERE ticket_id = $1
		ORDER BY completed_at ASC;
	`, string(ticketID))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions for ticket "+string(ticketID), err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			txn     domain.Transaction
			summary []byte
		)
		if err := rows.Scan(&txn.TransactionTicketID, &txn.TicketID, &txn.ShipSymbol, &txn.TotalPrice, &summary, &txn.CompletedAt, &txn.IsComplete); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
		}
		// Legacy rows migrate to the current schema on read; storage is
		// never rewritten in place.
		txn.Summary, err = domain.UnmarshalTxSummary(summary)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate transactions", err)
	}
	return txns, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		entry       []byte
		createdAt   time.Time
		updatedAt   time.Time
		completedAt *time.Time
	)
	if err := row.Scan(&entry, &createdAt, &updatedAt, &completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, apperrors.NewAppError(500, "failed to scan ticket", err)
	}

	var ticket domain.Ticket
	if err := json.Unmarshal(entry, &ticket); err != nil {
		return nil, err
	}
	ticket.CreatedAt = createdAt
	ticket.UpdatedAt = updatedAt
	ticket.CompletedAt = completedAt
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate tickets", err)
	}
	return tickets, nil
}
