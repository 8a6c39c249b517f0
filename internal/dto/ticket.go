package dto

import (
	"encoding/json"
	"time"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// CreatePurchaseTicketRequest asks the treasury for a trade-good purchase
// ticket. The quantity is a request; the treasury caps it at what the fleet
// can afford.
type CreatePurchaseTicketRequest struct {
	FleetID              int64  `json:"fleetID" binding:"required"`
	ShipSymbol           string `json:"shipSymbol" binding:"required"`
	TradeGood            string `json:"tradeGood" binding:"required"`
	WaypointSymbol       string `json:"waypointSymbol" binding:"required"`
	Quantity             int64  `json:"quantity" binding:"required,gt=0"`
	ExpectedPricePerUnit int64  `json:"expectedPricePerUnit" binding:"required,gt=0"`
}

// CreateSellTicketRequest asks the treasury for a trade-good sell ticket.
// MatchingPurchaseTicketID is optional caller-supplied correlation metadata;
// the core never infers it.
type CreateSellTicketRequest struct {
	FleetID                  int64   `json:"fleetID" binding:"required"`
	ShipSymbol               string  `json:"shipSymbol" binding:"required"`
	TradeGood                string  `json:"tradeGood" binding:"required"`
	WaypointSymbol           string  `json:"waypointSymbol" binding:"required"`
	Quantity                 int64   `json:"quantity" binding:"required,gt=0"`
	ExpectedPricePerUnit     int64   `json:"expectedPricePerUnit" binding:"required,gt=0"`
	MatchingPurchaseTicketID *string `json:"matchingPurchaseTicketID,omitempty" binding:"omitempty,uuid"`
}

// CreateShipPurchaseTicketRequest asks the treasury for a ship purchase ticket.
type CreateShipPurchaseTicketRequest struct {
	FleetID                int64  `json:"fleetID" binding:"required"`
	ShipSymbol             string `json:"shipSymbol" binding:"required"`
	ShipType               string `json:"shipType" binding:"required"`
	ExpectedPurchasePrice  int64  `json:"expectedPurchasePrice" binding:"required,gt=0"`
	ShipyardWaypointSymbol string `json:"shipyardWaypointSymbol" binding:"required"`
}

// CreateSupplyConstructionTicketRequest asks the treasury for a
// construction-material delivery ticket.
type CreateSupplyConstructionTicketRequest struct {
	FleetID                  int64   `json:"fleetID" binding:"required"`
	ShipSymbol               string  `json:"shipSymbol" binding:"required"`
	TradeGood                string  `json:"tradeGood" binding:"required"`
	WaypointSymbol           string  `json:"waypointSymbol" binding:"required"`
	Quantity                 int64   `json:"quantity" binding:"required,gt=0"`
	MatchingPurchaseTicketID *string `json:"matchingPurchaseTicketID,omitempty" binding:"omitempty,uuid"`
}

// CreateRefuelTicketRequest asks the treasury for a refueling ticket.
type CreateRefuelTicketRequest struct {
	FleetID              int64  `json:"fleetID" binding:"required"`
	ShipSymbol           string `json:"shipSymbol" binding:"required"`
	ExpectedPricePerUnit int64  `json:"expectedPricePerUnit" binding:"required,gt=0"`
	NumFuelBarrels       int64  `json:"numFuelBarrels" binding:"required,gt=0"`
}

// RecordTransactionRequest records one physical attempt against an open
// ticket. TotalPrice is the absolute amount reported by the external system;
// the recorder derives the sign from the ticket kind. Construction deliveries
// report zero. Response is stored verbatim.
type RecordTransactionRequest struct {
	TotalPrice int64           `json:"totalPrice" binding:"min=0"`
	Response   json.RawMessage `json:"response" binding:"required"`
	IsComplete bool            `json:"isComplete"`
}

// CloseTicketRequest finalizes a ticket's outcome. Zero ActualUnits closes an
// abandoned ticket: nothing was realized, the reservation is released.
type CloseTicketRequest struct {
	ActualUnits        int64 `json:"actualUnits" binding:"min=0"`
	ActualPricePerUnit int64 `json:"actualPricePerUnit" binding:"min=0"`
}

// TicketResponse is the API shape of a ticket.
type TicketResponse struct {
	TicketID         string               `json:"ticketID"`
	FleetID          int64                `json:"fleetID"`
	ShipSymbol       string               `json:"shipSymbol"`
	Kind             string               `json:"kind"`
	Details          domain.TicketDetails `json:"details"`
	AllocatedCredits int64                `json:"allocatedCredits"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
}

// ToTicketResponse maps a domain ticket to its API shape.
func ToTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:         string(t.TicketID),
		FleetID:          int64(t.FleetID),
		ShipSymbol:       string(t.ShipSymbol),
		Kind:             string(t.Details.Kind()),
		Details:          t.Details,
		AllocatedCredits: int64(t.AllocatedCredits),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
	}
}

// TransactionResponse is the API shape of a recorded transaction.
type TransactionResponse struct {
	TransactionTicketID string          `json:"transactionTicketID"`
	TicketID            string          `json:"ticketID"`
	ShipSymbol          string          `json:"shipSymbol"`
	TotalPrice          int64           `json:"totalPrice"`
	SummaryKind         string          `json:"summaryKind"`
	Response            json.RawMessage `json:"response"`
	CompletedAt         time.Time       `json:"completedAt"`
	IsComplete          bool            `json:"isComplete"`
}

// ToTransactionResponse maps a domain transaction to its API shape.
func ToTransactionResponse(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionTicketID: string(txn.TransactionTicketID),
		TicketID:            string(txn.TicketID),
		ShipSymbol:          string(txn.ShipSymbol),
		TotalPrice:          int64(txn.TotalPrice),
		SummaryKind:         string(txn.Summary.Kind),
		Response:            txn.Summary.Response,
		CompletedAt:         txn.CompletedAt,
		IsComplete:          txn.IsComplete,
	}
}

// CloseTicketResponse reports the ledger entry a close produced.
type CloseTicketResponse struct {
	TicketID      string    `json:"ticketID"`
	LedgerEntryID int64     `json:"ledgerEntryID"`
	CompletedAt   time.Time `json:"completedAt"`
	Total         int64     `json:"total"`
}
