package types

import "time"

// Side is the direction of an order. An empty Side means the engine could not
// determine a direction and the trader must pick one.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Confidence grades how strongly the engine believes a derived value.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Classification buckets the 0-100 urgency score.
type Classification string

const (
	UrgencyLow      Classification = "LOW"
	UrgencyMedium   Classification = "MEDIUM"
	UrgencyHigh     Classification = "HIGH"
	UrgencyCritical Classification = "CRITICAL"
)

// MarketState describes which session the instrument is trading in.
type MarketState string

const (
	MarketStateContinuous MarketState = "Continuous"
	MarketStatePreClose   MarketState = "Pre_Close"
	MarketStateCAS        MarketState = "CAS"
)

// ClosingAuctionThresholdMinutes is the time-to-close at or below which an
// order falls into the closing auction (CAS) window.
const ClosingAuctionThresholdMinutes = 25

// OrderInput is one immutable inference request. It is rebuilt from scratch on
// every (debounced) input change; the engine never mutates it.
type OrderInput struct {
	Symbol             string `json:"symbol"`
	CounterpartyID     string `json:"cpty_id"`
	Quantity           int64  `json:"size"`
	Notes              string `json:"order_notes"`
	TimeToCloseMinutes int    `json:"time_to_close"`
	ManualSide         Side   `json:"side,omitempty"`
}

// InferredField is the atomic unit of every derived parameter: the value, how
// confident the engine is in it, and a human-readable audit trail of how it
// was derived. Rationale is a hard contract and must never be empty.
type InferredField struct {
	Value      any        `json:"value"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`
}

// Fields maps field names (see fields.go) to their inferred values.
type Fields map[string]InferredField

// UrgencyBreakdown holds the individual contributions that sum (after the
// final clamp) to the urgency score.
type UrgencyBreakdown struct {
	TimePressure       float64 `json:"time_pressure"`
	SizePressure       float64 `json:"size_pressure"`
	CounterpartyFactor float64 `json:"counterparty_factor"`
	NotesSignal        float64 `json:"notes_signal"`
}

// UrgencyResult is the scored urgency of one order input.
type UrgencyResult struct {
	Score          int              `json:"score"`
	Classification Classification   `json:"classification"`
	Breakdown      UrgencyBreakdown `json:"breakdown"`
}

// MarketContext summarizes the market conditions the inference ran against.
type MarketContext struct {
	TimeToCloseMinutes   int         `json:"time_to_close"`
	MarketState          MarketState `json:"market_state"`
	ClosingAuctionActive bool        `json:"cas_active"`
	ReferencePrice       float64     `json:"reference_price"`
	BandUpper            float64     `json:"upper_band"`
	BandLower            float64     `json:"lower_band"`
	LastPrice            float64     `json:"ltp"`
	Bid                  float64     `json:"bid"`
	Ask                  float64     `json:"ask"`
	SpreadBps            float64     `json:"spread_bps"`
	VolatilityPct        float64     `json:"volatility"`
}

// Metadata carries per-request bookkeeping. Timestamp, RequestID and
// ProcessingTimeMs are the only non-deterministic parts of a PrefillResult.
type Metadata struct {
	RequestID        string      `json:"request_id"`
	EngineVersion    string      `json:"engine_version"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	ConfidenceScore  float64     `json:"confidence_score"`
	Intent           OrderIntent `json:"intent"`
	Timestamp        time.Time   `json:"timestamp"`
}

// PrefillResult is the fully derived output of one inference call. Consumers
// treat it as an immutable snapshot; a recompute replaces it wholesale.
type PrefillResult struct {
	Urgency       UrgencyResult `json:"urgency"`
	Fields        Fields        `json:"prefilled_params"`
	UseAlgo       bool          `json:"use_algo"`
	MarketContext MarketContext `json:"market_context"`
	Metadata      Metadata      `json:"metadata"`
}
