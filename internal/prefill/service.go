// Package prefill orchestrates one inference request: validate the input,
// resolve reference data, score urgency, derive every ticket parameter and
// assemble the PrefillResult.
package prefill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ksred/auo-api/internal/inference"
	"github.com/ksred/auo-api/internal/intent"
	"github.com/ksred/auo-api/internal/types"
	"github.com/ksred/auo-api/internal/urgency"
)

// EngineVersion is stamped into every result's metadata.
const EngineVersion = "1.0.0"

var (
	ErrMissingSymbol       = errors.New("symbol is required")
	ErrMissingCounterparty = errors.New("counterparty id is required")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidTimeToClose  = errors.New("time to close must not be negative")
)

// MarketLookup resolves a symbol to its market snapshot. Unknown symbols are
// expected to resolve to a documented default, not an error.
type MarketLookup interface {
	MarketSnapshot(ctx context.Context, symbol string) (*types.MarketSnapshot, error)
}

// CounterpartyLookup resolves a counterparty id to its profile, with the same
// fallback expectation as MarketLookup.
type CounterpartyLookup interface {
	Counterparty(ctx context.Context, id string) (*types.CounterpartyProfile, error)
}

// Service is the prefill engine's entry point. It is stateless: every call is
// a pure function of the input and the two lookup collaborators.
type Service struct {
	markets        MarketLookup
	counterparties CounterpartyLookup
}

func NewService(markets MarketLookup, counterparties CounterpartyLookup) *Service {
	return &Service{
		markets:        markets,
		counterparties: counterparties,
	}
}

// Validate rejects structurally invalid input. The engine refuses to run on
// bad numbers rather than fabricate a degenerate score.
func Validate(input types.OrderInput) error {
	if input.Symbol == "" {
		return ErrMissingSymbol
	}
	if input.CounterpartyID == "" {
		return ErrMissingCounterparty
	}
	if input.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if input.TimeToCloseMinutes < 0 {
		return ErrInvalidTimeToClose
	}
	return nil
}

// ComputePrefill runs one full inference pass. Deterministic given identical
// inputs and lookup responses, except for the request id, timestamp and
// processing-time metadata.
func (s *Service) ComputePrefill(ctx context.Context, input types.OrderInput) (*types.PrefillResult, error) {
	start := time.Now()

	if err := Validate(input); err != nil {
		return nil, err
	}

	market, err := s.markets.MarketSnapshot(ctx, input.Symbol)
	if err != nil {
		return nil, fmt.Errorf("resolving market snapshot: %w", err)
	}

	counterparty, err := s.counterparties.Counterparty(ctx, input.CounterpartyID)
	if err != nil {
		return nil, fmt.Errorf("resolving counterparty: %w", err)
	}

	urgencyResult := urgency.Score(input, market, counterparty)
	fields, useAlgo := inference.Infer(input, urgencyResult, market, counterparty)
	window := inference.DetectAuctionWindow(input.TimeToCloseMinutes, market.LastPrice)

	spreadBps := 0.0
	if market.LastPrice > 0 {
		spreadBps = math.Round((market.Ask-market.Bid)/market.LastPrice*10000*10) / 10
	}

	result := &types.PrefillResult{
		Urgency: urgencyResult,
		Fields:  fields,
		UseAlgo: useAlgo,
		MarketContext: types.MarketContext{
			TimeToCloseMinutes:   input.TimeToCloseMinutes,
			MarketState:          window.State,
			ClosingAuctionActive: window.Active,
			ReferencePrice:       window.ReferencePrice,
			BandUpper:            window.BandUpper,
			BandLower:            window.BandLower,
			LastPrice:            market.LastPrice,
			Bid:                  market.Bid,
			Ask:                  market.Ask,
			SpreadBps:            spreadBps,
			VolatilityPct:        market.VolatilityPct,
		},
		Metadata: types.Metadata{
			RequestID:        uuid.New().String(),
			EngineVersion:    EngineVersion,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ConfidenceScore:  confidenceScore(urgencyResult.Score),
			Intent:           intent.Parse(input.Notes),
			Timestamp:        time.Now().UTC(),
		},
	}

	log.Debug().
		Str("component", "prefill").
		Str("symbol", input.Symbol).
		Str("cpty_id", input.CounterpartyID).
		Int("urgency_score", urgencyResult.Score).
		Str("classification", string(urgencyResult.Classification)).
		Bool("cas_active", window.Active).
		Bool("use_algo", useAlgo).
		Msg("prefill computed")

	return result, nil
}

// confidenceScore is a deterministic overall grade that rises with urgency,
// capped just below certainty.
func confidenceScore(score int) float64 {
	c := math.Round((0.82+float64(score)/500)*100) / 100
	return math.Min(c, 0.99)
}
