package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
)

// TicketDetailsKind discriminates the closed set of ticket detail variants.
type TicketDetailsKind string

const (
	KindPurchaseTradeGoods     TicketDetailsKind = "PURCHASE_TRADE_GOODS"
	KindSellTradeGoods         TicketDetailsKind = "SELL_TRADE_GOODS"
	KindSupplyConstructionSite TicketDetailsKind = "SUPPLY_CONSTRUCTION_SITE"
	KindPurchaseShip           TicketDetailsKind = "PURCHASE_SHIP"
	KindRefuelShip             TicketDetailsKind = "REFUEL_SHIP"
)

// TicketDetails is the closed sum type describing what a ticket intends to do.
// Variants are sealed so a missing case in a switch is a build-time smell, and
// deserialization is strict at the storage edge.
type TicketDetails interface {
	Kind() TicketDetailsKind
	// Signum is the direction of the cash flow: +1 for inflows (sales),
	// -1 for outflows (everything else).
	Signum() int64
	isTicketDetails()
}

// PurchaseTradeGoodsDetails describes an intended purchase of trade goods at
// a marketplace waypoint.
type PurchaseTradeGoodsDetails struct {
	WaypointSymbol             WaypointSymbol  `json:"waypoint_symbol"`
	TradeGood                  TradeGoodSymbol `json:"trade_good"`
	ExpectedPricePerUnit       Credits         `json:"expected_price_per_unit"`
	Quantity                   int64           `json:"quantity"`
	ExpectedTotalPurchasePrice Credits         `json:"expected_total_purchase_price"`
}

func (PurchaseTradeGoodsDetails) Kind() TicketDetailsKind { return KindPurchaseTradeGoods }
func (PurchaseTradeGoodsDetails) Signum() int64           { return -1 }
func (PurchaseTradeGoodsDetails) isTicketDetails()        {}

// SellTradeGoodsDetails describes an intended sale of trade goods.
//
// MaybeMatchingPurchaseTicket is caller-supplied correlation metadata linking
// this sale to the purchase ticket that sourced the cargo. The core never
// infers it; reporting joins on it when present.
type SellTradeGoodsDetails struct {
	WaypointSymbol              WaypointSymbol  `json:"waypoint_symbol"`
	TradeGood                   TradeGoodSymbol `json:"trade_good"`
	ExpectedPricePerUnit        Credits         `json:"expected_price_per_unit"`
	Quantity                    int64           `json:"quantity"`
	ExpectedTotalSellPrice      Credits         `json:"expected_total_sell_price"`
	MaybeMatchingPurchaseTicket *TicketID       `json:"maybe_matching_purchase_ticket,omitempty"`
}

func (SellTradeGoodsDetails) Kind() TicketDetailsKind { return KindSellTradeGoods }
func (SellTradeGoodsDetails) Signum() int64           { return 1 }
func (SellTradeGoodsDetails) isTicketDetails()        {}

// SupplyConstructionSiteDetails describes delivering construction materials
// to a jump-gate construction site. The delivery itself earns nothing; the
// outlay was the purchase that sourced the materials.
type SupplyConstructionSiteDetails struct {
	WaypointSymbol              WaypointSymbol  `json:"waypoint_symbol"`
	TradeGood                   TradeGoodSymbol `json:"trade_good"`
	Quantity                    int64           `json:"quantity"`
	MaybeMatchingPurchaseTicket *TicketID       `json:"maybe_matching_purchase_ticket,omitempty"`
}

func (SupplyConstructionSiteDetails) Kind() TicketDetailsKind { return KindSupplyConstructionSite }
func (SupplyConstructionSiteDetails) Signum() int64           { return -1 }
func (SupplyConstructionSiteDetails) isTicketDetails()        {}

// PurchaseShipDetails describes an intended ship purchase at a shipyard.
type PurchaseShipDetails struct {
	ShipType               ShipType       `json:"ship_type"`
	ExpectedPurchasePrice  Credits        `json:"expected_purchase_price"`
	ShipyardWaypointSymbol WaypointSymbol `json:"shipyard_waypoint_symbol"`
}

func (PurchaseShipDetails) Kind() TicketDetailsKind { return KindPurchaseShip }
func (PurchaseShipDetails) Signum() int64           { return -1 }
func (PurchaseShipDetails) isTicketDetails()        {}

// RefuelShipDetails describes an intended refueling stop.
type RefuelShipDetails struct {
	ExpectedPricePerUnit       Credits `json:"expected_price_per_unit"`
	NumFuelBarrels             int64   `json:"num_fuel_barrels"`
	ExpectedTotalPurchasePrice Credits `json:"expected_total_purchase_price"`
}

func (RefuelShipDetails) Kind() TicketDetailsKind { return KindRefuelShip }
func (RefuelShipDetails) Signum() int64           { return -1 }
func (RefuelShipDetails) isTicketDetails()        {}

// ticketDetailsEnvelope is the persisted shape: an explicit kind
// discriminator plus the variant payload. Object-key sniffing is not a
// contract; the kind field is.
type ticketDetailsEnvelope struct {
	Kind    TicketDetailsKind `json:"kind"`
	Details json.RawMessage   `json:"details"`
}

// MarshalTicketDetails encodes a variant into its storage envelope.
func MarshalTicketDetails(d TicketDetails) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal ticket details %s: %w", d.Kind(), err)
	}
	return json.Marshal(ticketDetailsEnvelope{Kind: d.Kind(), Details: payload})
}

// UnmarshalTicketDetails decodes a storage envelope back into its variant.
// An unknown kind or an unparseable payload surfaces ErrMalformedEntry.
func UnmarshalTicketDetails(data []byte) (TicketDetails, error) {
	var env ticketDetailsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: ticket details envelope: %v", apperrors.ErrMalformedEntry, err)
	}

	var (
		details TicketDetails
		err     error
	)
	switch env.Kind {
	case KindPurchaseTradeGoods:
		var d PurchaseTradeGoodsDetails
		err = json.Unmarshal(env.Details, &d)
		details = d
	case KindSellTradeGoods:
		var d SellTradeGoodsDetails
		err = json.Unmarshal(env.Details, &d)
		details = d
	case KindSupplyConstructionSite:
		var d SupplyConstructionSiteDetails
		err = json.Unmarshal(env.Details, &d)
		details = d
	case KindPurchaseShip:
		var d PurchaseShipDetails
		err = json.Unmarshal(env.Details, &d)
		details = d
	case KindRefuelShip:
		var d RefuelShipDetails
		err = json.Unmarshal(env.Details, &d)
		details = d
	default:
		return nil, fmt.Errorf("%w: unknown ticket details kind %q", apperrors.ErrMalformedEntry, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ticket details payload for kind %q: %v", apperrors.ErrMalformedEntry, env.Kind, err)
	}
	return details, nil
}

// Ticket is a durable record of an intended financial action, open until
// closed. A ticket with CompletedAt == nil is open; closing is irreversible
// and happens at most once.
type Ticket struct {
	TicketID         TicketID
	FleetID          FleetID
	ShipSymbol       ShipSymbol
	Details          TicketDetails
	AllocatedCredits Credits
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// IsOpen reports whether the ticket has not been closed yet.
func (t Ticket) IsOpen() bool {
	return t.CompletedAt == nil
}

// ticketPayload is the jsonb shape stored in trade_tickets.entry and embedded
// inside ledger events that carry the full ticket.
type ticketPayload struct {
	TicketID         TicketID        `json:"ticket_id"`
	FleetID          FleetID         `json:"fleet_id"`
	ShipSymbol       ShipSymbol      `json:"ship_symbol"`
	Details          json.RawMessage `json:"details"`
	AllocatedCredits Credits         `json:"allocated_credits"`
}

// MarshalJSON implements json.Marshaler using the kind-discriminated details
// envelope. Timestamps live in table columns, not in the payload.
func (t Ticket) MarshalJSON() ([]byte, error) {
	details, err := MarshalTicketDetails(t.Details)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ticketPayload{
		TicketID:         t.TicketID,
		FleetID:          t.FleetID,
		ShipSymbol:       t.ShipSymbol,
		Details:          details,
		AllocatedCredits: t.AllocatedCredits,
	})
}

// UnmarshalJSON implements json.Unmarshaler with a strict details boundary.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var payload ticketPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: ticket payload: %v", apperrors.ErrMalformedEntry, err)
	}
	details, err := UnmarshalTicketDetails(payload.Details)
	if err != nil {
		return err
	}
	t.TicketID = payload.TicketID
	t.FleetID = payload.FleetID
	t.ShipSymbol = payload.ShipSymbol
	t.Details = details
	t.AllocatedCredits = payload.AllocatedCredits
	return nil
}
