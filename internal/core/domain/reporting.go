package domain

import "github.com/shopspring/decimal"

// TradeRouteProfitRow is one line of the trade-profit report: a closed sell
// ticket joined to its matched purchase ticket via the caller-supplied
// correlation field. Sells without a correlation appear with zero purchase
// figures and a nil PurchaseTicketID.
type TradeRouteProfitRow struct {
	SellTicketID     TicketID        `json:"sell_ticket_id"`
	PurchaseTicketID *TicketID       `json:"purchase_ticket_id,omitempty"`
	TradeGood        TradeGoodSymbol `json:"trade_good"`
	SellWaypoint     WaypointSymbol  `json:"sell_waypoint"`
	UnitsSold        int64           `json:"units_sold"`
	SellTotal        Credits         `json:"sell_total"`
	PurchaseTotal    Credits         `json:"purchase_total"`
	Profit           Credits         `json:"profit"`
	// AvgSellPricePerUnit keeps fractional precision lost by integer credits.
	AvgSellPricePerUnit decimal.Decimal `json:"avg_sell_price_per_unit"`
	// MarginPct is profit over purchase total, as a percentage.
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// FleetSummaryRow aggregates a fleet's realized inflows and outflows from the
// ledger's completed tickets.
type FleetSummaryRow struct {
	FleetID          FleetID `json:"fleet_id"`
	CompletedTickets int64   `json:"completed_tickets"`
	Income           Credits `json:"income"`
	Expenses         Credits `json:"expenses"`
	Net              Credits `json:"net"`
}
