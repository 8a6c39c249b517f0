package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	"github.com/stautomata/fleet_treasury/internal/core/services"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// MockLedgerRepository is a mock implementation of repositories.LedgerRepositoryFacade.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) ReadSince(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, afterID, limit)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLedgerRepository) FindTreasuryAnchorID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) FindFleetAnchorID(ctx context.Context, fleetID domain.FleetID) (int64, error) {
	args := m.Called(ctx, fleetID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) Append(ctx context.Context, event domain.LedgerEvent) (int64, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketRepository is a mock implementation of repositories.TicketRepositoryFacade.
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindTicketByID(ctx context.Context, ticketID domain.TicketID) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	var ticket *domain.Ticket
	if args.Get(0) != nil {
		ticket = args.Get(0).(*domain.Ticket)
	}
	return ticket, args.Error(1)
}

func (m *MockTicketRepository) ListOpenTicketsForShip(ctx context.Context, ship domain.ShipSymbol) ([]domain.Ticket, error) {
	args := m.Called(ctx, ship)
	var tickets []domain.Ticket
	if args.Get(0) != nil {
		tickets = args.Get(0).([]domain.Ticket)
	}
	return tickets, args.Error(1)
}

func (m *MockTicketRepository) ListOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	var tickets []domain.Ticket
	if args.Get(0) != nil {
		tickets = args.Get(0).([]domain.Ticket)
	}
	return tickets, args.Error(1)
}

func (m *MockTicketRepository) CreateTicket(ctx context.Context, ticket domain.Ticket) (int64, error) {
	args := m.Called(ctx, ticket)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) RecordTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTicketRepository) CloseTicket(ctx context.Context, ticketID domain.TicketID, completedAt time.Time, event domain.TicketCompleted) (int64, error) {
	args := m.Called(ctx, ticketID, completedAt, event)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) FindTransactionsByTicketID(ctx context.Context, ticketID domain.TicketID) ([]domain.Transaction, error) {
	args := m.Called(ctx, ticketID)
	var txns []domain.Transaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.Transaction)
	}
	return txns, args.Error(1)
}

type TreasuryServiceTestSuite struct {
	suite.Suite
	mockLedger *MockLedgerRepository
	mockTicket *MockTicketRepository
	service    *services.TreasuryService
	ctx        context.Context
}

func (suite *TreasuryServiceTestSuite) SetupTest() {
	suite.mockLedger = new(MockLedgerRepository)
	suite.mockTicket = new(MockTicketRepository)
	suite.service = services.NewTreasuryService(suite.mockLedger, suite.mockTicket, 175_000)
	suite.ctx = context.Background()
}

// bootstrapWith replays the given entries into the service, as startup does.
func (suite *TreasuryServiceTestSuite) bootstrapWith(entries []domain.LedgerEntry) {
	suite.mockLedger.On("ReadSince", mock.Anything, int64(0), 500).Return(entries, nil).Once()
	suite.Require().NoError(suite.service.Bootstrap(suite.ctx))
}

// fundedFleet is three entries that leave fleet 1 holding 50k of a 50k target.
func (suite *TreasuryServiceTestSuite) fundedFleet() []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 175_000}},
		{ID: 2, Event: domain.FleetCreated{FleetID: 1, TotalCapital: 50_000}},
		{ID: 3, Event: domain.TransferFundsTreasuryToFleet{FleetID: 1, Credits: 50_000}},
	}
}

func (suite *TreasuryServiceTestSuite) TestBootstrapSeedsEmptyLedger() {
	suite.mockLedger.On("ReadSince", mock.Anything, int64(0), 500).Return(nil, nil).Once()
	suite.mockLedger.On("Append", mock.Anything, domain.TreasuryCreated{Credits: 175_000}).Return(int64(1), nil).Once()

	err := suite.service.Bootstrap(suite.ctx)
	suite.NoError(err)

	fund, err := suite.service.CurrentTreasuryFund(suite.ctx)
	suite.NoError(err)
	suite.Equal(domain.Credits(175_000), fund)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestBootstrapReplaysExistingLedger() {
	suite.bootstrapWith(suite.fundedFleet())

	fund, err := suite.service.CurrentTreasuryFund(suite.ctx)
	suite.NoError(err)
	suite.Equal(domain.Credits(125_000), fund)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(50_000), budget.CurrentCapital)

	// No seeding append on a non-empty ledger.
	suite.mockLedger.AssertNotCalled(suite.T(), "Append", mock.Anything, mock.Anything)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCreateFleetRejectsDuplicate() {
	suite.bootstrapWith([]domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 175_000}},
	})
	suite.mockLedger.On("Append", mock.Anything, domain.FleetCreated{FleetID: 2, TotalCapital: 60_000}).Return(int64(2), nil).Once()

	suite.NoError(suite.service.CreateFleet(suite.ctx, 2, 60_000))

	// The projection rejects the duplicate before anything is persisted.
	err := suite.service.CreateFleet(suite.ctx, 2, 60_000)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestTopUpFleetBoundedByTreasuryFund() {
	suite.bootstrapWith([]domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 30_000}},
		{ID: 2, Event: domain.FleetCreated{FleetID: 1, TotalCapital: 75_000}},
	})
	// The fleet wants 75k but the treasury only holds 30k.
	suite.mockLedger.On("Append", mock.Anything, domain.TransferFundsTreasuryToFleet{FleetID: 1, Credits: 30_000}).Return(int64(3), nil).Once()

	suite.NoError(suite.service.TopUpFleet(suite.ctx, 1))

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(30_000), budget.CurrentCapital)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestTopUpFleetNoOpWhenAtTarget() {
	suite.bootstrapWith(suite.fundedFleet())

	suite.NoError(suite.service.TopUpFleet(suite.ctx, 1))
	suite.mockLedger.AssertNotCalled(suite.T(), "Append", mock.Anything, mock.Anything)
}

func (suite *TreasuryServiceTestSuite) TestTopUpFleetUnknownFleet() {
	suite.bootstrapWith(suite.fundedFleet())

	err := suite.service.TopUpFleet(suite.ctx, 99)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *TreasuryServiceTestSuite) TestCreatePurchaseTicketCapsQuantityAtAffordable() {
	suite.bootstrapWith(suite.fundedFleet())

	// 50k held, 10k reserve floor: 40 units at 1000 is the most the fleet
	// can commit to, however many were asked for.
	suite.mockTicket.On("CreateTicket", mock.Anything, mock.MatchedBy(func(t domain.Ticket) bool {
		details, ok := t.Details.(domain.PurchaseTradeGoodsDetails)
		return ok && details.Quantity == 40 && t.AllocatedCredits == 40_000
	})).Return(int64(4), nil).Once()

	ticket, err := suite.service.CreatePurchaseTicket(suite.ctx, dto.CreatePurchaseTicketRequest{
		FleetID:              1,
		ShipSymbol:           "FLWI-1",
		WaypointSymbol:       "X1-BC42-A1",
		TradeGood:            "ADVANCED_CIRCUITRY",
		Quantity:             100,
		ExpectedPricePerUnit: 1_000,
	})
	suite.NoError(err)
	suite.Equal(domain.Credits(40_000), ticket.AllocatedCredits)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(40_000), budget.ReservedCapital)
	suite.Equal(domain.Credits(10_000), budget.AvailableCapital())
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCreatePurchaseTicketRejectsWhenBroke() {
	suite.bootstrapWith([]domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 175_000}},
		{ID: 2, Event: domain.FleetCreated{FleetID: 1, TotalCapital: 50_000}},
		{ID: 3, Event: domain.TransferFundsTreasuryToFleet{FleetID: 1, Credits: 10_000}},
	})

	// Nothing above the reserve floor, so not a single unit is affordable.
	_, err := suite.service.CreatePurchaseTicket(suite.ctx, dto.CreatePurchaseTicketRequest{
		FleetID:              1,
		ShipSymbol:           "FLWI-1",
		WaypointSymbol:       "X1-BC42-A1",
		TradeGood:            "IRON",
		Quantity:             5,
		ExpectedPricePerUnit: 1_000,
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTicket.AssertNotCalled(suite.T(), "CreateTicket", mock.Anything, mock.Anything)
}

func (suite *TreasuryServiceTestSuite) TestCreateShipPurchaseTicketChecksFunds() {
	suite.bootstrapWith(suite.fundedFleet())

	_, err := suite.service.CreateShipPurchaseTicket(suite.ctx, dto.CreateShipPurchaseTicketRequest{
		FleetID:                1,
		ShipSymbol:             "FLWI-1",
		ShipType:               "SHIP_LIGHT_HAULER",
		ExpectedPurchasePrice:  350_000,
		ShipyardWaypointSymbol: "X1-BC42-C3",
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTicket.AssertNotCalled(suite.T(), "CreateTicket", mock.Anything, mock.Anything)
}

func (suite *TreasuryServiceTestSuite) TestCreateSellTicketReservesNothing() {
	suite.bootstrapWith(suite.fundedFleet())

	suite.mockTicket.On("CreateTicket", mock.Anything, mock.MatchedBy(func(t domain.Ticket) bool {
		return t.AllocatedCredits == 0
	})).Return(int64(4), nil).Once()

	matching := "8f3f68d5-973c-4a3f-a42c-7a6f77e7a967"
	ticket, err := suite.service.CreateSellTicket(suite.ctx, dto.CreateSellTicketRequest{
		FleetID:                  1,
		ShipSymbol:               "FLWI-1",
		WaypointSymbol:           "X1-BC42-B2",
		TradeGood:                "ADVANCED_CIRCUITRY",
		Quantity:                 40,
		ExpectedPricePerUnit:     1_200,
		MatchingPurchaseTicketID: &matching,
	})
	suite.NoError(err)

	details := ticket.Details.(domain.SellTradeGoodsDetails)
	suite.Equal(domain.Credits(48_000), details.ExpectedTotalSellPrice)
	suite.Require().NotNil(details.MaybeMatchingPurchaseTicket)
	suite.Equal(domain.TicketID(matching), *details.MaybeMatchingPurchaseTicket)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(0), budget.ReservedCapital)
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCompleteTicketComputesSignedTotal() {
	open := purchaseTicket(1, 40, 1_000)
	suite.bootstrapWith(append(suite.fundedFleet(),
		domain.LedgerEntry{ID: 4, Event: domain.TicketCreated{FleetID: 1, Ticket: open}},
	))

	suite.mockTicket.On("FindTicketByID", mock.Anything, open.TicketID).Return(&open, nil).Once()
	suite.mockTicket.On("CloseTicket", mock.Anything, open.TicketID, mock.Anything, mock.MatchedBy(func(e domain.TicketCompleted) bool {
		return e.Total == -38_000 && e.ActualUnits == 40 && e.ActualPricePerUnit == 950
	})).Return(int64(5), nil).Once()

	resp, err := suite.service.CompleteTicket(suite.ctx, open.TicketID, 40, 950)
	suite.Require().NoError(err)
	suite.Equal(int64(-38_000), resp.Total)
	suite.Equal(int64(5), resp.LedgerEntryID)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(12_000), budget.CurrentCapital)
	suite.Equal(domain.Credits(0), budget.ReservedCapital)
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCompleteSellTicketReturnsExcessToTreasury() {
	open := sellTicket(1, 40, 1_200)
	suite.bootstrapWith(append(suite.fundedFleet(),
		domain.LedgerEntry{ID: 4, Event: domain.TicketCreated{FleetID: 1, Ticket: open}},
	))

	suite.mockTicket.On("FindTicketByID", mock.Anything, open.TicketID).Return(&open, nil).Once()
	suite.mockTicket.On("CloseTicket", mock.Anything, open.TicketID, mock.Anything, mock.MatchedBy(func(e domain.TicketCompleted) bool {
		return e.Total == 48_000
	})).Return(int64(5), nil).Once()
	// 50k + 48k proceeds against a 50k target: 48k flows straight back.
	suite.mockLedger.On("Append", mock.Anything, domain.TransferFundsFromFleetToTreasury{FleetID: 1, Credits: 48_000}).Return(int64(6), nil).Once()

	resp, err := suite.service.CompleteTicket(suite.ctx, open.TicketID, 40, 1_200)
	suite.Require().NoError(err)
	suite.Equal(int64(48_000), resp.Total)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(50_000), budget.CurrentCapital)

	fund, err := suite.service.CurrentTreasuryFund(suite.ctx)
	suite.NoError(err)
	suite.Equal(domain.Credits(173_000), fund)
	suite.mockLedger.AssertExpectations(suite.T())
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCompleteTicketAbandonedWithZeroUnits() {
	open := purchaseTicket(1, 40, 1_000)
	suite.bootstrapWith(append(suite.fundedFleet(),
		domain.LedgerEntry{ID: 4, Event: domain.TicketCreated{FleetID: 1, Ticket: open}},
	))

	// Abandonment: nothing realized, the reservation is simply released.
	suite.mockTicket.On("FindTicketByID", mock.Anything, open.TicketID).Return(&open, nil).Once()
	suite.mockTicket.On("CloseTicket", mock.Anything, open.TicketID, mock.Anything, mock.MatchedBy(func(e domain.TicketCompleted) bool {
		return e.Total == 0 && e.ActualUnits == 0 && e.ActualPricePerUnit == 0
	})).Return(int64(5), nil).Once()

	resp, err := suite.service.CompleteTicket(suite.ctx, open.TicketID, 0, 0)
	suite.Require().NoError(err)
	suite.Equal(int64(0), resp.Total)

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(50_000), budget.CurrentCapital)
	suite.Equal(domain.Credits(0), budget.ReservedCapital)
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestCompleteTicketAlreadyClosed() {
	suite.bootstrapWith(suite.fundedFleet())

	closed := purchaseTicket(1, 10, 500)
	completedAt := time.Now().UTC()
	closed.CompletedAt = &completedAt
	suite.mockTicket.On("FindTicketByID", mock.Anything, closed.TicketID).Return(&closed, nil).Once()

	_, err := suite.service.CompleteTicket(suite.ctx, closed.TicketID, 10, 500)
	suite.ErrorIs(err, apperrors.ErrTicketAlreadyClosed)
	suite.mockTicket.AssertNotCalled(suite.T(), "CloseTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TreasuryServiceTestSuite) TestCompleteTicketLosesCloseRace() {
	open := purchaseTicket(1, 40, 1_000)
	suite.bootstrapWith(append(suite.fundedFleet(),
		domain.LedgerEntry{ID: 4, Event: domain.TicketCreated{FleetID: 1, Ticket: open}},
	))

	// Another process closed the ticket between our read and our update.
	suite.mockTicket.On("FindTicketByID", mock.Anything, open.TicketID).Return(&open, nil).Once()
	suite.mockTicket.On("CloseTicket", mock.Anything, open.TicketID, mock.Anything, mock.Anything).Return(int64(0), apperrors.ErrTicketAlreadyClosed).Once()

	_, err := suite.service.CompleteTicket(suite.ctx, open.TicketID, 40, 1_000)
	suite.ErrorIs(err, apperrors.ErrTicketAlreadyClosed)
	suite.mockTicket.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestSetFleetTotalCapitalReleasesExcess() {
	suite.bootstrapWith(suite.fundedFleet())

	suite.mockLedger.On("Append", mock.Anything, domain.SetNewTotalCapitalForFleet{FleetID: 1, NewTotalCapital: 20_000}).Return(int64(4), nil).Once()
	suite.mockLedger.On("Append", mock.Anything, domain.TransferFundsFromFleetToTreasury{FleetID: 1, Credits: 30_000}).Return(int64(5), nil).Once()

	suite.NoError(suite.service.SetFleetTotalCapital(suite.ctx, 1, 20_000))

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(20_000), budget.CurrentCapital)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestLogExpenseDeductsFleetCapital() {
	suite.bootstrapWith(suite.fundedFleet())

	suite.mockLedger.On("Append", mock.Anything, mock.MatchedBy(func(e domain.ExpenseLogged) bool {
		return e.FleetID == 1 && e.Credits == 2_500
	})).Return(int64(4), nil).Once()

	suite.NoError(suite.service.LogExpense(suite.ctx, 1, 2_500, nil))

	budget, err := suite.service.GetFleetBudget(suite.ctx, 1)
	suite.NoError(err)
	suite.Equal(domain.Credits(47_500), budget.CurrentCapital)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TreasuryServiceTestSuite) TestAppendFailureSurfacesError() {
	suite.bootstrapWith([]domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 175_000}},
	})

	repoErr := errors.New("connection reset")
	suite.mockLedger.On("Append", mock.Anything, domain.FleetCreated{FleetID: 1, TotalCapital: 50_000}).Return(int64(0), repoErr).Once()
	// A failed append triggers a resync replay.
	suite.mockLedger.On("ReadSince", mock.Anything, int64(0), 500).Return([]domain.LedgerEntry{
		{ID: 1, Event: domain.TreasuryCreated{Credits: 175_000}},
	}, nil).Once()

	err := suite.service.CreateFleet(suite.ctx, 1, 50_000)
	suite.ErrorIs(err, repoErr)

	// The projection fell back to the persisted state: no phantom fleet.
	_, err = suite.service.GetFleetBudget(suite.ctx, 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedger.AssertExpectations(suite.T())
}

func TestTreasuryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TreasuryServiceTestSuite))
}
