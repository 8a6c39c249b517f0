package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	"github.com/stautomata/fleet_treasury/internal/core/services"
)

// MockTreasurerRepository is a mock implementation of repositories.TreasurerRepositoryFacade.
type MockTreasurerRepository struct {
	mock.Mock
}

func (m *MockTreasurerRepository) FindUnsettled(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, afterID, limit)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	return entries, args.Error(1)
}

func (m *MockTreasurerRepository) FindSettlement(ctx context.Context, fromLedgerID int64) (*domain.TreasurerEntry, error) {
	args := m.Called(ctx, fromLedgerID)
	var entry *domain.TreasurerEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*domain.TreasurerEntry)
	}
	return entry, args.Error(1)
}

func (m *MockTreasurerRepository) Settle(ctx context.Context, entry domain.TreasurerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type SettlementServiceTestSuite struct {
	suite.Suite
	mockLedger    *MockLedgerRepository
	mockTreasurer *MockTreasurerRepository
	service       *services.SettlementService
	ctx           context.Context
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockLedger = new(MockLedgerRepository)
	suite.mockTreasurer = new(MockTreasurerRepository)
	suite.service = services.NewSettlementService(suite.mockLedger, suite.mockTreasurer)
	suite.ctx = context.Background()
}

func completedEntry(id int64, fleetID domain.FleetID, total domain.Credits) domain.LedgerEntry {
	ticket := purchaseTicket(fleetID, 10, 500)
	if total.IsPositive() {
		ticket = sellTicket(fleetID, 10, 500)
	}
	return domain.LedgerEntry{
		ID: id,
		Event: domain.TicketCompleted{
			FleetID: fleetID,
			Ticket:  ticket,
			Total:   total,
		},
	}
}

func (suite *SettlementServiceTestSuite) TestSweepRoutesSaleToFleetAnchor() {
	entry := completedEntry(7, 1, 48_000)
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return([]domain.LedgerEntry{entry}, nil).Once()
	suite.mockLedger.On("FindFleetAnchorID", mock.Anything, domain.FleetID(1)).Return(int64(2), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		proceeds, ok := e.Settlement.(domain.SaleProceedsRouted)
		return ok && e.FromLedgerID == 7 && e.ToLedgerID == 2 && proceeds.Credits == 48_000
	})).Return(nil).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Equal(1, resp.Settled)
	suite.Equal(0, resp.AlreadySettled)
	suite.Equal(int64(7), resp.MaxLedgerIDSeen)
	suite.mockTreasurer.AssertExpectations(suite.T())
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSweepRoutesExpenseToTreasuryAnchor() {
	entry := completedEntry(9, 1, -38_000)
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return([]domain.LedgerEntry{entry}, nil).Once()
	suite.mockLedger.On("FindTreasuryAnchorID", mock.Anything).Return(int64(1), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		expense, ok := e.Settlement.(domain.ExpenseCovered)
		return ok && e.FromLedgerID == 9 && e.ToLedgerID == 1 && expense.Credits == 38_000
	})).Return(nil).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Equal(1, resp.Settled)
	suite.mockTreasurer.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSweepRoutesZeroTotalAsExpense() {
	// Supply construction completes with total zero; it still settles, as an
	// expense of zero against the treasury.
	entry := completedEntry(11, 1, 0)
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return([]domain.LedgerEntry{entry}, nil).Once()
	suite.mockLedger.On("FindTreasuryAnchorID", mock.Anything).Return(int64(1), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		expense, ok := e.Settlement.(domain.ExpenseCovered)
		return ok && expense.Credits == 0
	})).Return(nil).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Equal(1, resp.Settled)
	suite.mockTreasurer.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSweepCountsLostRaceAsSettled() {
	entries := []domain.LedgerEntry{
		completedEntry(7, 1, 48_000),
		completedEntry(8, 1, 52_000),
	}
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return(entries, nil).Once()
	suite.mockLedger.On("FindFleetAnchorID", mock.Anything, domain.FleetID(1)).Return(int64(2), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		return e.FromLedgerID == 7
	})).Return(apperrors.ErrAlreadySettled).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		return e.FromLedgerID == 8
	})).Return(nil).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Equal(1, resp.Settled)
	suite.Equal(1, resp.AlreadySettled)
	suite.Equal(int64(8), resp.MaxLedgerIDSeen)
	suite.mockTreasurer.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSweepStopsOnRepositoryError() {
	entries := []domain.LedgerEntry{
		completedEntry(7, 1, 48_000),
		completedEntry(8, 1, 52_000),
	}
	repoErr := errors.New("connection reset")
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return(entries, nil).Once()
	suite.mockLedger.On("FindFleetAnchorID", mock.Anything, domain.FleetID(1)).Return(int64(2), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.MatchedBy(func(e domain.TreasurerEntry) bool {
		return e.FromLedgerID == 7
	})).Return(repoErr).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.ErrorIs(err, repoErr)
	suite.Equal(0, resp.Settled)
	// Entry 8 was never attempted; the next sweep picks it up.
	suite.mockTreasurer.AssertNumberOfCalls(suite.T(), "Settle", 1)
}

func (suite *SettlementServiceTestSuite) TestAnchorLookupsAreCached() {
	first := []domain.LedgerEntry{completedEntry(7, 1, 48_000)}
	second := []domain.LedgerEntry{completedEntry(8, 1, 52_000)}
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(0), 200).Return(first, nil).Once()
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(7), 200).Return(second, nil).Once()
	// One lookup serves both sweeps.
	suite.mockLedger.On("FindFleetAnchorID", mock.Anything, domain.FleetID(1)).Return(int64(2), nil).Once()
	suite.mockTreasurer.On("Settle", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := suite.service.SweepOnce(suite.ctx, 0)
	suite.Require().NoError(err)
	_, err = suite.service.SweepOnce(suite.ctx, 7)
	suite.Require().NoError(err)

	suite.mockLedger.AssertNumberOfCalls(suite.T(), "FindFleetAnchorID", 1)
	suite.mockTreasurer.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSweepEmptyBacklog() {
	suite.mockTreasurer.On("FindUnsettled", mock.Anything, int64(42), 200).Return(nil, nil).Once()

	resp, err := suite.service.SweepOnce(suite.ctx, 42)
	suite.Require().NoError(err)
	suite.Equal(0, resp.Settled)
	suite.Equal(int64(42), resp.MaxLedgerIDSeen)
	suite.mockTreasurer.AssertNotCalled(suite.T(), "Settle", mock.Anything, mock.Anything)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
