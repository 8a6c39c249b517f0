package domain

import "github.com/google/uuid"

// TicketID uniquely identifies a trade ticket. IDs are caller-supplied UUIDs;
// a collision on insert is a caller bug, not a retryable condition.
type TicketID string

// NewTicketID returns a fresh random ticket ID.
func NewTicketID() TicketID {
	return TicketID(uuid.NewString())
}

// TransactionTicketID identifies one physical attempt at fulfilling a ticket.
type TransactionTicketID string

// NewTransactionTicketID returns a fresh random transaction ticket ID.
func NewTransactionTicketID() TransactionTicketID {
	return TransactionTicketID(uuid.NewString())
}

// FleetID identifies a fleet. Fleet management itself lives outside this
// service; the ledger only routes funds by this ID.
type FleetID int64

// ShipSymbol is the game-assigned ship identifier (e.g. "MERCATOR-3").
type ShipSymbol string

// WaypointSymbol is the game-assigned waypoint identifier (e.g. "X1-BC42-A1").
type WaypointSymbol string

// TradeGoodSymbol is the game-assigned trade good identifier (e.g. "IRON").
type TradeGoodSymbol string

// ShipType is the shipyard model identifier (e.g. "SHIP_LIGHT_HAULER").
type ShipType string
