package refdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ksred/auo-api/internal/types"
	"gorm.io/gorm"
)

// DefaultSymbol is the designated symbol whose snapshot backs lookups for
// unknown symbols. Its data still produces a fully valid prefill, just one
// based on default market assumptions.
const DefaultSymbol = "RELIANCE.NS"

// Service resolves read-only reference data for the inference engine. Unknown
// keys are never errors: they resolve to documented default entries so the
// engine always has something to work from.
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// MarketSnapshot returns the latest snapshot for symbol. When the symbol is
// unknown it falls back to the default symbol's snapshot, relabelled for the
// requested symbol so downstream rationales stay traceable.
func (s *Service) MarketSnapshot(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	snap, err := s.db.GetMarketSnapshot(symbol)
	if err != nil {
		return nil, fmt.Errorf("market snapshot lookup: %w", err)
	}
	if snap != nil {
		return snap, nil
	}

	log.Warn().
		Str("component", "refdata").
		Str("symbol", symbol).
		Str("fallback", DefaultSymbol).
		Msg("unknown symbol, using default snapshot")

	def, err := s.db.GetMarketSnapshot(DefaultSymbol)
	if err != nil {
		return nil, fmt.Errorf("default snapshot lookup: %w", err)
	}
	if def == nil {
		def = builtinDefaultSnapshot()
	}

	fallback := *def
	fallback.Symbol = symbol
	fallback.InstrumentLabel = fmt.Sprintf("%s T+1", symbol)
	return &fallback, nil
}

// Counterparty returns the profile for id, falling back to the configured
// profile with the lowest urgency factor when the id is unknown.
func (s *Service) Counterparty(ctx context.Context, id string) (*types.CounterpartyProfile, error) {
	profile, err := s.db.GetCounterparty(id)
	if err != nil {
		return nil, fmt.Errorf("counterparty lookup: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	log.Warn().
		Str("component", "refdata").
		Str("cpty_id", id).
		Msg("unknown counterparty, using lowest-urgency default profile")

	def, err := s.db.GetLowestUrgencyCounterparty()
	if err != nil {
		return nil, fmt.Errorf("default counterparty lookup: %w", err)
	}
	if def == nil {
		def = builtinDefaultCounterparty()
	}

	fallback := *def
	fallback.CounterpartyID = id
	return &fallback, nil
}

// UpdateTimeToClose overwrites the feed's time-to-close for a symbol. Exists
// for the terminal's demo clock slider; live feeds would own this value.
func (s *Service) UpdateTimeToClose(symbol string, minutes int) error {
	return s.db.UpdateTimeToClose(symbol, minutes)
}

func (s *Service) ListMarketSnapshots() ([]types.MarketSnapshot, error) {
	return s.db.ListMarketSnapshots()
}

func (s *Service) ListCounterparties() ([]types.CounterpartyProfile, error) {
	return s.db.ListCounterparties()
}

// builtinDefaultSnapshot is the compiled-in last resort when even the default
// symbol has no row, e.g. an unseeded database.
func builtinDefaultSnapshot() *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Symbol:          DefaultSymbol,
		InstrumentLabel: "RELIANCE INDS T+1",
		LastPrice:       2570.2,
		Bid:             2570.0,
		Ask:             2570.5,
		VolatilityPct:   2.1,
		AvgTradeSize:    7500,
		TimeToClose:     180,
	}
}

func builtinDefaultCounterparty() *types.CounterpartyProfile {
	return &types.CounterpartyProfile{
		CounterpartyID: "Client_DEFAULT",
		DisplayName:    "Unknown Counterparty",
		UrgencyFactor:  0.2,
	}
}
