package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
)

// PgxReportingRepository runs the read-only report queries. It joins
// completed-ticket ledger events to their matched purchases via the
// caller-supplied maybe_matching_purchase_ticket correlation.
type PgxReportingRepository struct {
	BaseRepository
}

// NewReportingRepository creates a new repository for report queries.
func NewReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// TradeRouteProfit lists closed sell tickets with their matched purchase
// outcomes, newest first.
func (r *PgxReportingRepository) TradeRouteProfit(ctx context.Context, limit int) ([]domain.TradeRouteProfitRow, error) {
	rows, err := r.Pool.Query(ctx, `
		WITH completed AS (
			SELECT id,
			       entry->'payload'->'finance_ticket'->>'ticket_id'          AS ticket_id,
			       entry->'payload'->'finance_ticket'->'details'->>'kind'    AS kind,
			       entry->'payload'->'finance_ticket'->'details'->'details'  AS details,
			       (entry->'payload'->>'actual_units')::bigint               AS actual_units,
			       (entry->'payload'->>'total')::bigint                      AS total
			FROM ledger_entries
			WHERE entry->>'kind' = 'TICKET_COMPLETED'
		)
		SELECT s.ticket_id,
		       s.details->>'maybe_matching_purchase_ticket' AS purchase_ticket_id,
		       s.details->>'trade_good'                     AS trade_good,
		       s.details->>'waypoint_symbol'                AS sell_waypoint,
		       s.actual_units,
		       s.total                                      AS sell_total,
		       COALESCE(p.total, 0)                         AS purchase_total
		FROM completed s
		LEFT JOIN completed p ON p.ticket_id = s.details->>'maybe_matching_purchase_ticket'
		WHERE s.kind = 'SELL_TRADE_GOODS'
		ORDER BY s.id DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query trade route profit", err)
	}
	defer rows.Close()

	var report []domain.TradeRouteProfitRow
	for rows.Next() {
		var (
			row              domain.TradeRouteProfitRow
			purchaseTicketID *string
			tradeGood        string
			sellWaypoint     string
			sellTicketID     string
		)
		if err := rows.Scan(&sellTicketID, &purchaseTicketID, &tradeGood, &sellWaypoint, &row.UnitsSold, &row.SellTotal, &row.PurchaseTotal); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan trade route profit row", err)
		}
		row.SellTicketID = domain.TicketID(sellTicketID)
		row.TradeGood = domain.TradeGoodSymbol(tradeGood)
		row.SellWaypoint = domain.WaypointSymbol(sellWaypoint)
		if purchaseTicketID != nil {
			id := domain.TicketID(*purchaseTicketID)
			row.PurchaseTicketID = &id
		}
		// Purchase totals are stored negative; profit is the plain sum.
		row.Profit = row.SellTotal + row.PurchaseTotal
		if row.UnitsSold > 0 {
			row.AvgSellPricePerUnit = decimal.NewFromInt(int64(row.SellTotal)).
				Div(decimal.NewFromInt(row.UnitsSold)).Round(2)
		}
		if row.PurchaseTotal != 0 {
			row.MarginPct = decimal.NewFromInt(int64(row.Profit)).
				Div(decimal.NewFromInt(int64(row.PurchaseTotal)).Neg()).
				Mul(decimal.NewFromInt(100)).Round(2)
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate trade route profit rows", err)
	}
	return report, nil
}

// FleetSummary aggregates completed-ticket totals per fleet.
func (r *PgxReportingRepository) FleetSummary(ctx context.Context) ([]domain.FleetSummaryRow, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT (entry->'payload'->>'fleet_id')::bigint AS fleet_id,
		       COUNT(*)                                AS completed_tickets,
		       COALESCE(SUM(CASE WHEN (entry->'payload'->>'total')::bigint > 0
		                         THEN (entry->'payload'->>'total')::bigint ELSE 0 END), 0) AS income,
		       COALESCE(SUM(CASE WHEN (entry->'payload'->>'total')::bigint < 0
		                         THEN -(entry->'payload'->>'total')::bigint ELSE 0 END), 0) AS expenses
		FROM ledger_entries
		WHERE entry->>'kind' = 'TICKET_COMPLETED'
		GROUP BY 1
		ORDER BY 1;
	`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fleet summary", err)
	}
	defer rows.Close()

	var report []domain.FleetSummaryRow
	for rows.Next() {
		var row domain.FleetSummaryRow
		if err := rows.Scan(&row.FleetID, &row.CompletedTickets, &row.Income, &row.Expenses); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan fleet summary row", err)
		}
		row.Net = row.Income - row.Expenses
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate fleet summary rows", err)
	}
	return report, nil
}
