package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
)

// SettlementKind discriminates the closed set of settlement metadata variants.
type SettlementKind string

const (
	SettlementSaleProceedsRouted SettlementKind = "SALE_PROCEEDS_ROUTED"
	SettlementExpenseCovered     SettlementKind = "EXPENSE_COVERED"
)

// Settlement is the metadata attached to a treasurer row: how much moved and
// which fleet it was routed for.
type Settlement interface {
	Kind() SettlementKind
	isSettlement()
}

// SaleProceedsRouted records a completed sale's proceeds being credited to a
// fleet's account.
type SaleProceedsRouted struct {
	FleetID FleetID `json:"fleet_id"`
	Credits Credits `json:"credits"`
}

func (SaleProceedsRouted) Kind() SettlementKind { return SettlementSaleProceedsRouted }
func (SaleProceedsRouted) isSettlement()        {}

// ExpenseCovered records a completed outflow being charged against the
// treasury fund.
type ExpenseCovered struct {
	FleetID FleetID `json:"fleet_id"`
	Credits Credits `json:"credits"`
}

func (ExpenseCovered) Kind() SettlementKind { return SettlementExpenseCovered }
func (ExpenseCovered) isSettlement()        {}

// TreasurerEntry links an originating ledger entry to the ledger entry that
// accounts for its downstream effect. FromLedgerID is the primary key, so
// each originating entry settles at most once; ToLedgerID may be shared by
// many settlements (e.g. many sells funding one fleet account).
type TreasurerEntry struct {
	FromLedgerID int64
	ToLedgerID   int64
	Settlement   Settlement
	CreatedAt    time.Time
}

type settlementEnvelope struct {
	Kind    SettlementKind  `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalSettlement encodes settlement metadata into its storage envelope.
func MarshalSettlement(s Settlement) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settlement %s: %w", s.Kind(), err)
	}
	return json.Marshal(settlementEnvelope{Kind: s.Kind(), Payload: payload})
}

// UnmarshalSettlement decodes a storage envelope back into its variant.
func UnmarshalSettlement(data []byte) (Settlement, error) {
	var env settlementEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: settlement envelope: %v", apperrors.ErrMalformedEntry, err)
	}

	var (
		settlement Settlement
		err        error
	)
	switch env.Kind {
	case SettlementSaleProceedsRouted:
		var s SaleProceedsRouted
		err = json.Unmarshal(env.Payload, &s)
		settlement = s
	case SettlementExpenseCovered:
		var s ExpenseCovered
		err = json.Unmarshal(env.Payload, &s)
		settlement = s
	default:
		return nil, fmt.Errorf("%w: unknown settlement kind %q", apperrors.ErrMalformedEntry, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: settlement payload for kind %q: %v", apperrors.ErrMalformedEntry, env.Kind, err)
	}
	return settlement, nil
}
