package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// ReportingSvcFacade exposes read-only reports over ledger and transaction
// history.
type ReportingSvcFacade interface {
	// TradeRouteProfit lists closed sell tickets with their matched purchase
	// outcomes and margins.
	TradeRouteProfit(ctx context.Context, limit int) ([]domain.TradeRouteProfitRow, error)

	// FleetSummary aggregates completed-ticket income and expenses per fleet.
	FleetSummary(ctx context.Context) ([]domain.FleetSummaryRow, error)
}
