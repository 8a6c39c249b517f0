package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		TicketID:   "c4f8e9a0-11d2-4a0b-9c3d-5e6f7a8b9c0d",
		FleetID:    1,
		ShipSymbol: "MERCATOR-1",
		Details: domain.SellTradeGoodsDetails{
			WaypointSymbol:         "X1-BC42-B2",
			TradeGood:              "IRON",
			ExpectedPricePerUnit:   60,
			Quantity:               10,
			ExpectedTotalSellPrice: 600,
		},
		AllocatedCredits: 0,
	}
}

func TestLedgerEventRoundTrip(t *testing.T) {
	ticketID := domain.TicketID("2a2b8a54-5a6f-4f3f-8a42-cc0123456789")

	events := []domain.LedgerEvent{
		domain.TreasuryCreated{Credits: 175_000},
		domain.FleetCreated{FleetID: 1, TotalCapital: 75_000},
		domain.TicketCreated{FleetID: 1, Ticket: sampleTicket()},
		domain.TicketCompleted{
			FleetID:            1,
			Ticket:             sampleTicket(),
			ActualUnits:        10,
			ActualPricePerUnit: 62,
			Total:              620,
		},
		domain.ExpenseLogged{FleetID: 1, MaybeTicketID: &ticketID, Credits: 300},
		domain.TransferFundsFromFleetToTreasury{FleetID: 1, Credits: 5_000},
		domain.TransferFundsTreasuryToFleet{FleetID: 1, Credits: 75_000},
		domain.SetNewTotalCapitalForFleet{FleetID: 1, NewTotalCapital: 100_000},
		domain.SetNewOperatingReserveForFleet{FleetID: 1, NewOperatingReserve: 20_000},
	}

	for _, event := range events {
		t.Run(string(event.Kind()), func(t *testing.T) {
			encoded, err := domain.MarshalLedgerEvent(event)
			require.NoError(t, err)

			decoded, err := domain.UnmarshalLedgerEvent(encoded)
			require.NoError(t, err)
			assert.Equal(t, event, decoded)
		})
	}
}

func TestUnmarshalLedgerEventUnknownKind(t *testing.T) {
	_, err := domain.UnmarshalLedgerEvent([]byte(`{"kind":"MYSTERY_EVENT","payload":{}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}

func TestUnmarshalLedgerEventBadPayload(t *testing.T) {
	_, err := domain.UnmarshalLedgerEvent([]byte(`{"kind":"TREASURY_CREATED","payload":"nope"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedEntry)
}

func TestLedgerEntryIsSettleable(t *testing.T) {
	completed := domain.LedgerEntry{
		ID:        7,
		Event:     domain.TicketCompleted{FleetID: 1, Ticket: sampleTicket(), Total: 620},
		CreatedAt: time.Now().UTC(),
	}
	assert.True(t, completed.IsSettleable())

	created := domain.LedgerEntry{
		ID:    8,
		Event: domain.TicketCreated{FleetID: 1, Ticket: sampleTicket()},
	}
	assert.False(t, created.IsSettleable())
}
