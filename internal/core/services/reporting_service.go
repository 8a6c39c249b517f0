package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
)

const defaultReportLimit = 50

// ReportingService exposes read-only reports derived from the ledger.
type ReportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository) *ReportingService {
	return &ReportingService{reportingRepo: reportingRepo}
}

// TradeRouteProfit lists closed sell tickets with their matched purchase
// outcomes and margins, newest first.
func (s *ReportingService) TradeRouteProfit(ctx context.Context, limit int) ([]domain.TradeRouteProfitRow, error) {
	if limit <= 0 {
		limit = defaultReportLimit
	}
	rows, err := s.reportingRepo.TradeRouteProfit(ctx, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.TradeRouteProfitRow{}
	}
	return rows, nil
}

// FleetSummary aggregates completed-ticket income and expenses per fleet.
func (s *ReportingService) FleetSummary(ctx context.Context) ([]domain.FleetSummaryRow, error) {
	rows, err := s.reportingRepo.FleetSummary(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.FleetSummaryRow{}
	}
	return rows, nil
}
