package dto

import (
	"time"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// ListLedgerParams selects a ledger window by cursor. The id cursor is the
// only ordering contract; created_at is informational.
type ListLedgerParams struct {
	AfterID int64 `form:"afterID" binding:"min=0"`
	Limit   int   `form:"limit" binding:"omitempty,gt=0,lte=500"`
}

// LedgerEntryResponse is the API shape of one ledger entry.
type LedgerEntryResponse struct {
	ID        int64              `json:"id"`
	Kind      string             `json:"kind"`
	Event     domain.LedgerEvent `json:"event"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ToLedgerEntryResponse maps a domain ledger entry to its API shape.
func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:        e.ID,
		Kind:      string(e.Event.Kind()),
		Event:     e.Event,
		CreatedAt: e.CreatedAt,
	}
}

// ListLedgerResponse is a page of ledger entries plus the cursor to resume from.
type ListLedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	NextID  int64                 `json:"nextID"`
}
