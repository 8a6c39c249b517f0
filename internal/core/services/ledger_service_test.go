package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	"github.com/stautomata/fleet_treasury/internal/core/services"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedger *MockLedgerRepository
	service    *services.LedgerService
	ctx        context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedger = new(MockLedgerRepository)
	suite.service = services.NewLedgerService(suite.mockLedger)
	suite.ctx = context.Background()
}

func (suite *LedgerServiceTestSuite) TestListEntriesAdvancesCursor() {
	entries := []domain.LedgerEntry{
		{ID: 5, Event: domain.TreasuryCreated{Credits: 175_000}},
		{ID: 6, Event: domain.FleetCreated{FleetID: 1, TotalCapital: 50_000}},
	}
	suite.mockLedger.On("ReadSince", mock.Anything, int64(4), 100).Return(entries, nil).Once()

	resp, err := suite.service.ListEntries(suite.ctx, dto.ListLedgerParams{AfterID: 4})
	suite.Require().NoError(err)
	suite.Len(resp.Entries, 2)
	suite.Equal(int64(6), resp.NextID)
	suite.Equal("TREASURY_CREATED", resp.Entries[0].Kind)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntriesEmptyPageKeepsCursor() {
	suite.mockLedger.On("ReadSince", mock.Anything, int64(42), 100).Return(nil, nil).Once()

	resp, err := suite.service.ListEntries(suite.ctx, dto.ListLedgerParams{AfterID: 42})
	suite.Require().NoError(err)
	suite.Empty(resp.Entries)
	suite.Equal(int64(42), resp.NextID)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestListEntriesHonorsLimit() {
	suite.mockLedger.On("ReadSince", mock.Anything, int64(0), 10).Return(nil, nil).Once()

	_, err := suite.service.ListEntries(suite.ctx, dto.ListLedgerParams{Limit: 10})
	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
