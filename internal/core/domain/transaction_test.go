package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

func TestTxSummaryRoundTrip(t *testing.T) {
	summary := domain.TxSummary{
		Kind: domain.TxPurchasedTradeGoods,
		TicketDetails: domain.PurchaseTradeGoodsDetails{
			WaypointSymbol:             "X1-BC42-A1",
			TradeGood:                  "IRON",
			ExpectedPricePerUnit:       50,
			Quantity:                   10,
			ExpectedTotalPurchasePrice: 500,
		},
		Response: json.RawMessage(`{"agent":{"credits":99500},"cargo":{"units":10}}`),
	}

	encoded, err := domain.MarshalTxSummary(summary)
	require.NoError(t, err)

	// New rows always carry the current schema version.
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	require.NoError(t, json.Unmarshal(encoded, &probe))
	assert.Equal(t, domain.TxSummarySchemaVersion, probe.SchemaVersion)

	decoded, err := domain.UnmarshalTxSummary(encoded)
	require.NoError(t, err)
	assert.Equal(t, summary.Kind, decoded.Kind)
	assert.Equal(t, summary.TicketDetails, decoded.TicketDetails)
	assert.JSONEq(t, string(summary.Response), string(decoded.Response))
}

func TestUnmarshalTxSummaryMigratesLegacyShape(t *testing.T) {
	// Historical rows are externally tagged: a single-keyed object whose key
	// names the variant. They predate the schema_version field.
	legacy := []byte(`{
		"RefueledShip": {
			"ticket_details": {
				"kind": "REFUEL_SHIP",
				"details": {
					"expected_price_per_unit": 72,
					"num_fuel_barrels": 6,
					"expected_total_purchase_price": 432
				}
			},
			"response": {"fuel": {"current": 400}}
		}
	}`)

	decoded, err := domain.UnmarshalTxSummary(legacy)
	require.NoError(t, err)
	assert.Equal(t, domain.TxShipRefueled, decoded.Kind)
	assert.Equal(t, domain.RefuelShipDetails{
		ExpectedPricePerUnit:       72,
		NumFuelBarrels:             6,
		ExpectedTotalPurchasePrice: 432,
	}, decoded.TicketDetails)
	assert.JSONEq(t, `{"fuel": {"current": 400}}`, string(decoded.Response))
}

func TestUnmarshalTxSummaryLegacyKindMapping(t *testing.T) {
	cases := map[string]domain.TxSummaryKind{
		"PurchasedTradeGoods":      domain.TxPurchasedTradeGoods,
		"SoldTradeGoods":           domain.TxSoldTradeGoods,
		"SuppliedConstructionSite": domain.TxSuppliedConstructionSite,
		"ShipPurchased":            domain.TxShipPurchased,
		"RefueledShip":             domain.TxShipRefueled,
	}

	detailsByKind := map[domain.TxSummaryKind]string{
		domain.TxPurchasedTradeGoods:      `{"kind":"PURCHASE_TRADE_GOODS","details":{"waypoint_symbol":"W","trade_good":"IRON","expected_price_per_unit":1,"quantity":1,"expected_total_purchase_price":1}}`,
		domain.TxSoldTradeGoods:           `{"kind":"SELL_TRADE_GOODS","details":{"waypoint_symbol":"W","trade_good":"IRON","expected_price_per_unit":1,"quantity":1,"expected_total_sell_price":1}}`,
		domain.TxSuppliedConstructionSite: `{"kind":"SUPPLY_CONSTRUCTION_SITE","details":{"waypoint_symbol":"W","trade_good":"FAB_MATS","quantity":1}}`,
		domain.TxShipPurchased:            `{"kind":"PURCHASE_SHIP","details":{"ship_type":"SHIP_PROBE","expected_purchase_price":1,"shipyard_waypoint_symbol":"W"}}`,
		domain.TxShipRefueled:             `{"kind":"REFUEL_SHIP","details":{"expected_price_per_unit":1,"num_fuel_barrels":1,"expected_total_purchase_price":1}}`,
	}

	for legacyKey, wantKind := range cases {
		t.Run(legacyKey, func(t *testing.T) {
			payload := []byte(`{"` + legacyKey + `":{"ticket_details":` + detailsByKind[wantKind] + `,"response":{}}}`)
			decoded, err := domain.UnmarshalTxSummary(payload)
			require.NoError(t, err)
			assert.Equal(t, wantKind, decoded.Kind)
		})
	}
}

func TestUnmarshalTxSummaryRejectsUnknownLegacyVariant(t *testing.T) {
	_, err := domain.UnmarshalTxSummary([]byte(`{"TeleportedShip":{"ticket_details":{},"response":{}}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}

func TestUnmarshalTxSummaryRejectsMultiKeyLegacy(t *testing.T) {
	_, err := domain.UnmarshalTxSummary([]byte(`{"SoldTradeGoods":{},"RefueledShip":{}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}

func TestUnmarshalTxSummaryRejectsFutureVersion(t *testing.T) {
	_, err := domain.UnmarshalTxSummary([]byte(`{"schema_version":99,"kind":"SOLD_TRADE_GOODS"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}

func TestTxSummaryKindForDetails(t *testing.T) {
	kind, err := domain.TxSummaryKindForDetails(domain.KindSellTradeGoods)
	require.NoError(t, err)
	assert.Equal(t, domain.TxSoldTradeGoods, kind)

	_, err = domain.TxSummaryKindForDetails(domain.TicketDetailsKind("NOT_A_KIND"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}
