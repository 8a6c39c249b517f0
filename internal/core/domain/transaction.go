package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
)

// TxSummaryKind discriminates the closed set of transaction summary variants,
// one per ticket detail kind.
type TxSummaryKind string

const (
	TxPurchasedTradeGoods      TxSummaryKind = "PURCHASED_TRADE_GOODS"
	TxSoldTradeGoods           TxSummaryKind = "SOLD_TRADE_GOODS"
	TxSuppliedConstructionSite TxSummaryKind = "SUPPLIED_CONSTRUCTION_SITE"
	TxShipPurchased            TxSummaryKind = "SHIP_PURCHASED"
	TxShipRefueled             TxSummaryKind = "SHIP_REFUELED"
)

// TxSummarySchemaVersion is the schema version written for new tx_summary
// payloads. Older versions are migrated lazily on read; storage is never
// rewritten in place.
const TxSummarySchemaVersion = 2

// TxSummary pairs the ticket-detail snapshot a transaction was fulfilling
// with the unmodified payload the external system returned for that attempt.
// The shape is uniform across all kinds, which is what makes historical
// payloads auditable and migratable.
type TxSummary struct {
	Kind          TxSummaryKind
	TicketDetails TicketDetails
	// Response is the verbatim external-system payload. The core never
	// interprets it; reporting and debugging do.
	Response json.RawMessage
}

// TxSummaryKindForDetails maps a ticket detail kind to its summary kind.
func TxSummaryKindForDetails(kind TicketDetailsKind) (TxSummaryKind, error) {
	switch kind {
	case KindPurchaseTradeGoods:
		return TxPurchasedTradeGoods, nil
	case KindSellTradeGoods:
		return TxSoldTradeGoods, nil
	case KindSupplyConstructionSite:
		return TxSuppliedConstructionSite, nil
	case KindPurchaseShip:
		return TxShipPurchased, nil
	case KindRefuelShip:
		return TxShipRefueled, nil
	default:
		return "", fmt.Errorf("%w: no summary kind for ticket details kind %q", apperrors.ErrMalformedEntry, kind)
	}
}

type txSummaryEnvelopeV2 struct {
	SchemaVersion int             `json:"schema_version"`
	Kind          TxSummaryKind   `json:"kind"`
	TicketDetails json.RawMessage `json:"ticket_details"`
	Response      json.RawMessage `json:"response"`
}

// txSummaryPayloadV1 is the legacy externally-tagged shape: a single-keyed
// object {"PurchasedTradeGoods": {"ticket_details": ..., "response": ...}}.
// Discriminating by object key is exactly the contract v2 retired.
type txSummaryPayloadV1 struct {
	TicketDetails json.RawMessage `json:"ticket_details"`
	Response      json.RawMessage `json:"response"`
}

var txSummaryV1Kinds = map[string]TxSummaryKind{
	"PurchasedTradeGoods":      TxPurchasedTradeGoods,
	"SoldTradeGoods":           TxSoldTradeGoods,
	"SuppliedConstructionSite": TxSuppliedConstructionSite,
	"ShipPurchased":            TxShipPurchased,
	"RefueledShip":             TxShipRefueled,
}

// MarshalTxSummary encodes a summary in the current schema version.
func MarshalTxSummary(s TxSummary) ([]byte, error) {
	details, err := MarshalTicketDetails(s.TicketDetails)
	if err != nil {
		return nil, err
	}
	return json.Marshal(txSummaryEnvelopeV2{
		SchemaVersion: TxSummarySchemaVersion,
		Kind:          s.Kind,
		TicketDetails: details,
		Response:      s.Response,
	})
}

// UnmarshalTxSummary decodes a tx_summary payload of any known schema
// version, migrating older shapes on the fly. Unknown versions and shapes
// surface ErrMalformedEntry.
func UnmarshalTxSummary(data []byte) (TxSummary, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return TxSummary{}, fmt.Errorf("%w: tx summary: %v", apperrors.ErrMalformedEntry, err)
	}

	switch probe.SchemaVersion {
	case TxSummarySchemaVersion:
		return unmarshalTxSummaryV2(data)
	case 0:
		// Legacy payloads predate the schema_version field.
		migrated, err := migrateTxSummaryV1(data)
		if err != nil {
			return TxSummary{}, err
		}
		return unmarshalTxSummaryV2(migrated)
	default:
		return TxSummary{}, fmt.Errorf("%w: unsupported tx summary schema version %d", apperrors.ErrMalformedEntry, probe.SchemaVersion)
	}
}

func unmarshalTxSummaryV2(data []byte) (TxSummary, error) {
	var env txSummaryEnvelopeV2
	if err := json.Unmarshal(data, &env); err != nil {
		return TxSummary{}, fmt.Errorf("%w: tx summary envelope: %v", apperrors.ErrMalformedEntry, err)
	}
	switch env.Kind {
	case TxPurchasedTradeGoods, TxSoldTradeGoods, TxSuppliedConstructionSite, TxShipPurchased, TxShipRefueled:
	default:
		return TxSummary{}, fmt.Errorf("%w: unknown tx summary kind %q", apperrors.ErrMalformedEntry, env.Kind)
	}
	details, err := UnmarshalTicketDetails(env.TicketDetails)
	if err != nil {
		return TxSummary{}, err
	}
	return TxSummary{Kind: env.Kind, TicketDetails: details, Response: env.Response}, nil
}

// migrateTxSummaryV1 is a pure v1 -> v2 migration. It never touches storage;
// callers re-encode only when writing a new row.
func migrateTxSummaryV1(data []byte) ([]byte, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("%w: legacy tx summary: %v", apperrors.ErrMalformedEntry, err)
	}
	if len(keyed) != 1 {
		return nil, fmt.Errorf("%w: legacy tx summary must have exactly one variant key, got %d", apperrors.ErrMalformedEntry, len(keyed))
	}
	for key, raw := range keyed {
		kind, ok := txSummaryV1Kinds[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown legacy tx summary variant %q", apperrors.ErrMalformedEntry, key)
		}
		var payload txSummaryPayloadV1
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: legacy tx summary payload: %v", apperrors.ErrMalformedEntry, err)
		}
		return json.Marshal(txSummaryEnvelopeV2{
			SchemaVersion: TxSummarySchemaVersion,
			Kind:          kind,
			TicketDetails: payload.TicketDetails,
			Response:      payload.Response,
		})
	}
	return nil, fmt.Errorf("%w: empty legacy tx summary", apperrors.ErrMalformedEntry)
}

// Transaction is one physical attempt at fulfilling part or all of a ticket's
// intended quantity. A ticket can accumulate several before it closes.
type Transaction struct {
	TransactionTicketID TransactionTicketID
	TicketID            TicketID
	ShipSymbol          ShipSymbol
	// TotalPrice is signed: negative for outflows, positive for inflows.
	TotalPrice  Credits
	Summary     TxSummary
	CompletedAt time.Time
	// IsComplete marks the attempt that fully realized the ticket quantity.
	IsComplete bool
}
