package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
)

// LedgerEventKind discriminates the closed set of ledger event variants.
type LedgerEventKind string

const (
	EventTreasuryCreated                LedgerEventKind = "TREASURY_CREATED"
	EventFleetCreated                   LedgerEventKind = "FLEET_CREATED"
	EventTicketCreated                  LedgerEventKind = "TICKET_CREATED"
	EventTicketCompleted                LedgerEventKind = "TICKET_COMPLETED"
	EventExpenseLogged                  LedgerEventKind = "EXPENSE_LOGGED"
	EventTransferFleetToTreasury        LedgerEventKind = "TRANSFER_FUNDS_FLEET_TO_TREASURY"
	EventTransferTreasuryToFleet        LedgerEventKind = "TRANSFER_FUNDS_TREASURY_TO_FLEET"
	EventSetNewTotalCapitalForFleet     LedgerEventKind = "SET_NEW_TOTAL_CAPITAL_FOR_FLEET"
	EventSetNewOperatingReserveForFleet LedgerEventKind = "SET_NEW_OPERATING_RESERVE_FOR_FLEET"
)

// LedgerEvent is the closed sum type of financial effects recorded in the
// ledger. The ledger itself never interprets these; the treasury projection
// and the settlement sweep do.
type LedgerEvent interface {
	Kind() LedgerEventKind
	isLedgerEvent()
}

// TreasuryCreated seeds the treasury with the agent's starting credits. It is
// the first entry of every ledger and the settlement anchor for expenses.
type TreasuryCreated struct {
	Credits Credits `json:"credits"`
}

func (TreasuryCreated) Kind() LedgerEventKind { return EventTreasuryCreated }
func (TreasuryCreated) isLedgerEvent()        {}

// FleetCreated opens a fleet budget. Sale proceeds of the fleet settle
// against this entry.
type FleetCreated struct {
	FleetID      FleetID `json:"fleet_id"`
	TotalCapital Credits `json:"total_capital"`
}

func (FleetCreated) Kind() LedgerEventKind { return EventFleetCreated }
func (FleetCreated) isLedgerEvent()        {}

// TicketCreated records a new open ticket and the credits reserved for it.
type TicketCreated struct {
	FleetID FleetID `json:"fleet_id"`
	Ticket  Ticket  `json:"ticket_details"`
}

func (TicketCreated) Kind() LedgerEventKind { return EventTicketCreated }
func (TicketCreated) isLedgerEvent()        {}

// TicketCompleted records the finalized outcome of a ticket: what was
// intended (the embedded ticket) and what actually happened.
type TicketCompleted struct {
	FleetID            FleetID `json:"fleet_id"`
	Ticket             Ticket  `json:"finance_ticket"`
	ActualUnits        int64   `json:"actual_units"`
	ActualPricePerUnit Credits `json:"actual_price_per_unit"`
	// Total is signed: positive for sales, negative for purchases.
	Total Credits `json:"total"`
}

func (TicketCompleted) Kind() LedgerEventKind { return EventTicketCompleted }
func (TicketCompleted) isLedgerEvent()        {}

// ExpenseLogged records an outflow that happened outside any ticket, or an
// unplanned overrun attributable to one.
type ExpenseLogged struct {
	FleetID       FleetID   `json:"fleet_id"`
	MaybeTicketID *TicketID `json:"maybe_ticket_id,omitempty"`
	Credits       Credits   `json:"credits"`
}

func (ExpenseLogged) Kind() LedgerEventKind { return EventExpenseLogged }
func (ExpenseLogged) isLedgerEvent()        {}

// TransferFundsFromFleetToTreasury moves excess fleet capital back to the
// treasury fund.
type TransferFundsFromFleetToTreasury struct {
	FleetID FleetID `json:"fleet_id"`
	Credits Credits `json:"credits"`
}

func (TransferFundsFromFleetToTreasury) Kind() LedgerEventKind { return EventTransferFleetToTreasury }
func (TransferFundsFromFleetToTreasury) isLedgerEvent()        {}

// TransferFundsTreasuryToFleet tops up a fleet's available capital from the
// treasury fund.
type TransferFundsTreasuryToFleet struct {
	FleetID FleetID `json:"fleet_id"`
	Credits Credits `json:"credits"`
}

func (TransferFundsTreasuryToFleet) Kind() LedgerEventKind { return EventTransferTreasuryToFleet }
func (TransferFundsTreasuryToFleet) isLedgerEvent()        {}

// SetNewTotalCapitalForFleet adjusts the capital target a fleet is topped up to.
type SetNewTotalCapitalForFleet struct {
	FleetID         FleetID `json:"fleet_id"`
	NewTotalCapital Credits `json:"new_total_capital"`
}

func (SetNewTotalCapitalForFleet) Kind() LedgerEventKind { return EventSetNewTotalCapitalForFleet }
func (SetNewTotalCapitalForFleet) isLedgerEvent()        {}

// SetNewOperatingReserveForFleet adjusts the floor a fleet keeps for operating costs.
type SetNewOperatingReserveForFleet struct {
	FleetID             FleetID `json:"fleet_id"`
	NewOperatingReserve Credits `json:"new_operating_reserve"`
}

func (SetNewOperatingReserveForFleet) Kind() LedgerEventKind {
	return EventSetNewOperatingReserveForFleet
}
func (SetNewOperatingReserveForFleet) isLedgerEvent() {}

// LedgerEntry is one immutable row of the ledger. ID is the sole ordering
// key; CreatedAt is informational only (clock skew makes it unfit for
// ordering).
type LedgerEntry struct {
	ID        int64
	Event     LedgerEvent
	CreatedAt time.Time
}

// IsSettleable reports whether the entry is subject to treasurer settlement.
func (e LedgerEntry) IsSettleable() bool {
	return e.Event.Kind() == EventTicketCompleted
}

type ledgerEventEnvelope struct {
	Kind    LedgerEventKind `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalLedgerEvent encodes an event into its storage envelope.
func MarshalLedgerEvent(event LedgerEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal ledger event %s: %w", event.Kind(), err)
	}
	return json.Marshal(ledgerEventEnvelope{Kind: event.Kind(), Payload: payload})
}

// UnmarshalLedgerEvent decodes a storage envelope back into its variant.
// Unknown kinds and unparseable payloads surface ErrMalformedEntry.
func UnmarshalLedgerEvent(data []byte) (LedgerEvent, error) {
	var env ledgerEventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: ledger event envelope: %v", apperrors.ErrMalformedEntry, err)
	}

	var (
		event LedgerEvent
		err   error
	)
	switch env.Kind {
	case EventTreasuryCreated:
		var e TreasuryCreated
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventFleetCreated:
		var e FleetCreated
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventTicketCreated:
		var e TicketCreated
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventTicketCompleted:
		var e TicketCompleted
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventExpenseLogged:
		var e ExpenseLogged
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventTransferFleetToTreasury:
		var e TransferFundsFromFleetToTreasury
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventTransferTreasuryToFleet:
		var e TransferFundsTreasuryToFleet
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventSetNewTotalCapitalForFleet:
		var e SetNewTotalCapitalForFleet
		err = json.Unmarshal(env.Payload, &e)
		event = e
	case EventSetNewOperatingReserveForFleet:
		var e SetNewOperatingReserveForFleet
		err = json.Unmarshal(env.Payload, &e)
		event = e
	default:
		return nil, fmt.Errorf("%w: unknown ledger event kind %q", apperrors.ErrMalformedEntry, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ledger event payload for kind %q: %v", apperrors.ErrMalformedEntry, env.Kind, err)
	}
	return event, nil
}
