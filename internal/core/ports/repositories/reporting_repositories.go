package repositories

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// ReportingRepository defines the read-only report queries over ledger and
// transaction history. Reports never mutate anything.
type ReportingRepository interface {
	// TradeRouteProfit joins closed sell tickets to their matched purchase
	// tickets via the maybe_matching_purchase_ticket correlation.
	TradeRouteProfit(ctx context.Context, limit int) ([]domain.TradeRouteProfitRow, error)

	// FleetSummary aggregates completed-ticket totals per fleet.
	FleetSummary(ctx context.Context) ([]domain.FleetSummaryRow, error)
}
