package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/auo-api/internal/types"
)

func reliance() *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Symbol:          "RELIANCE.NS",
		InstrumentLabel: "RELIANCE INDS T+1",
		LastPrice:       2570.2,
		Bid:             2570.0,
		Ask:             2570.5,
		VolatilityPct:   2.1,
		AvgTradeSize:    7500,
	}
}

func profile(factor float64) *types.CounterpartyProfile {
	return &types.CounterpartyProfile{CounterpartyID: "Client_XYZ", UrgencyFactor: factor}
}

func urgencyOf(score int) types.UrgencyResult {
	return types.UrgencyResult{Score: score}
}

func TestDetectAuctionWindow(t *testing.T) {
	tests := []struct {
		timeToClose int
		wantActive  bool
		wantState   types.MarketState
	}{
		{10, true, types.MarketStateCAS},
		{25, true, types.MarketStateCAS},
		{26, false, types.MarketStatePreClose},
		{60, false, types.MarketStatePreClose},
		{61, false, types.MarketStateContinuous},
		{300, false, types.MarketStateContinuous},
	}

	for _, tt := range tests {
		window := DetectAuctionWindow(tt.timeToClose, 2570.2)
		assert.Equal(t, tt.wantActive, window.Active, "ttc %d", tt.timeToClose)
		assert.Equal(t, tt.wantState, window.State, "ttc %d", tt.timeToClose)
		assert.InDelta(t, 2647.3, window.BandUpper, 0.001)
		assert.InDelta(t, 2493.1, window.BandLower, 0.001)
		assert.InDelta(t, 2570.2, window.ReferencePrice, 0.001)
	}
}

func TestInferAuctionWindow(t *testing.T) {
	input := types.OrderInput{
		Symbol:             "RELIANCE.NS",
		CounterpartyID:     "Client_XYZ",
		Quantity:           50000,
		Notes:              "sell urgent",
		TimeToCloseMinutes: 20,
	}

	fields, useAlgo := Infer(input, urgencyOf(85), reliance(), profile(0.85))

	// The auction never takes an algo; orders go in as direct limits.
	assert.False(t, useAlgo)
	assert.Equal(t, "Limit", fields[types.FieldOrderType].Value)
	assert.Equal(t, "CAS", fields[types.FieldTIF].Value)
	assert.Nil(t, fields[types.FieldExecutor].Value)
	assert.Equal(t, "Market", fields[types.FieldService].Value)

	// Aggressive sell limit: -0.8% off reference for critical urgency,
	// clamped into the collar.
	limit, ok := fields[types.FieldLimitPrice].Value.(float64)
	require.True(t, ok)
	assert.InDelta(t, 2549.6, limit, 0.001)
	window := DetectAuctionWindow(input.TimeToCloseMinutes, 2570.2)
	assert.GreaterOrEqual(t, limit, window.BandLower)
	assert.LessOrEqual(t, limit, window.BandUpper)
}

func TestInferAuctionLimitStaysInsideCollar(t *testing.T) {
	// A near-zero band cannot be escaped even by the aggressive tier.
	market := reliance()
	input := types.OrderInput{Quantity: 100, Notes: "buy urgent", TimeToCloseMinutes: 5}

	fields, _ := Infer(input, urgencyOf(95), market, profile(0.5))

	limit, ok := fields[types.FieldLimitPrice].Value.(float64)
	require.True(t, ok)
	window := DetectAuctionWindow(5, market.LastPrice)
	assert.GreaterOrEqual(t, limit, window.BandLower)
	assert.LessOrEqual(t, limit, window.BandUpper)
}

func TestInferSideDetection(t *testing.T) {
	tests := []struct {
		name     string
		input    types.OrderInput
		want     any
		wantConf types.Confidence
	}{
		{
			name:     "manual side wins over notes",
			input:    types.OrderInput{Quantity: 100, Notes: "sell everything", ManualSide: types.SideBuy, TimeToCloseMinutes: 180},
			want:     "Buy",
			wantConf: types.ConfidenceHigh,
		},
		{
			name:     "buy vocabulary",
			input:    types.OrderInput{Quantity: 100, Notes: "purchase for the fund", TimeToCloseMinutes: 180},
			want:     "Buy",
			wantConf: types.ConfidenceHigh,
		},
		{
			name:     "sell vocabulary",
			input:    types.OrderInput{Quantity: 100, Notes: "liquidate the position", TimeToCloseMinutes: 180},
			want:     "Sell",
			wantConf: types.ConfidenceHigh,
		},
		{
			name:     "no signal leaves side unset",
			input:    types.OrderInput{Quantity: 100, Notes: "work through the day", TimeToCloseMinutes: 180},
			want:     nil,
			wantConf: types.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, _ := Infer(tt.input, urgencyOf(50), reliance(), profile(0.5))
			assert.Equal(t, tt.want, fields[types.FieldSide].Value)
			assert.Equal(t, tt.wantConf, fields[types.FieldSide].Confidence)
		})
	}
}

// An undetermined side prices like a buy until the trader picks one. The
// mid-urgency mid-price case is side-neutral, so probe the low-urgency branch.
func TestInferUnsetSideUsesBuyPricing(t *testing.T) {
	input := types.OrderInput{Quantity: 100, Notes: "nothing directional", TimeToCloseMinutes: 180}

	fields, _ := Infer(input, urgencyOf(30), reliance(), profile(0.2))

	assert.Nil(t, fields[types.FieldSide].Value)
	// Low urgency buy branch posts one tick inside the bid.
	assert.InDelta(t, 2570.1, fields[types.FieldLimitPrice].Value.(float64), 0.001)
	// IWould arms on the buy side too: half a percent under last.
	assert.InDelta(t, 2557.3, fields[types.FieldIWouldPrice].Value.(float64), 0.001)
}

func TestInferLimitPriceByUrgency(t *testing.T) {
	tests := []struct {
		name  string
		score int
		side  types.Side
		want  float64
	}{
		{"high urgency buy pays the ask", 75, types.SideBuy, 2570.5},
		{"high urgency sell hits the bid", 75, types.SideSell, 2570.0},
		{"medium urgency rests at mid", 50, types.SideBuy, 2570.3},
		{"low urgency buy posts near bid", 30, types.SideBuy, 2570.1},
		{"low urgency sell posts near ask", 30, types.SideSell, 2570.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := types.OrderInput{Quantity: 100, ManualSide: tt.side, TimeToCloseMinutes: 180}
			fields, _ := Infer(input, urgencyOf(tt.score), reliance(), profile(0.5))
			assert.InDelta(t, tt.want, fields[types.FieldLimitPrice].Value.(float64), 0.001)
		})
	}
}

// Flipping the driver field must flip every side-dependent output together.
func TestInferSideCascade(t *testing.T) {
	base := types.OrderInput{Quantity: 50000, TimeToCloseMinutes: 180}

	buy := base
	buy.ManualSide = types.SideBuy
	buyFields, _ := Infer(buy, urgencyOf(85), reliance(), profile(0.85))

	sell := base
	sell.ManualSide = types.SideSell
	sellFields, _ := Infer(sell, urgencyOf(85), reliance(), profile(0.85))

	assert.Equal(t, "Buy", buyFields[types.FieldSide].Value)
	assert.Equal(t, "Sell", sellFields[types.FieldSide].Value)

	assert.InDelta(t, 2570.5, buyFields[types.FieldLimitPrice].Value.(float64), 0.001)
	assert.InDelta(t, 2570.0, sellFields[types.FieldLimitPrice].Value.(float64), 0.001)

	assert.Equal(t, "Primary Best Bid", buyFields[types.FieldLimitOption].Value)
	assert.Equal(t, "Primary Best Ask", sellFields[types.FieldLimitOption].Value)
}

func TestInferOrderType(t *testing.T) {
	tests := []struct {
		name          string
		score         int
		urgencyFactor float64
		volatility    float64
		want          string
	}{
		{"critical score with aggressive counterparty goes market", 85, 0.85, 2.1, "Market"},
		{"critical score with passive counterparty stays limit", 85, 0.5, 2.1, "Limit"},
		{"score branch outranks volatility", 85, 0.85, 3.0, "Market"},
		{"high volatility stays limit", 50, 0.5, 3.0, "Limit"},
		{"standard limit", 50, 0.5, 1.5, "Limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := reliance()
			market.VolatilityPct = tt.volatility
			input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, TimeToCloseMinutes: 180}
			fields, _ := Infer(input, urgencyOf(tt.score), market, profile(tt.urgencyFactor))
			assert.Equal(t, tt.want, fields[types.FieldOrderType].Value)
		})
	}
}

// Every pricing branch resolves to Adaptive, the high-volatility one included.
// This pins the observable contract so a refactor cannot silently revive a
// divergent value for volatile names.
func TestInferPricingAlwaysAdaptive(t *testing.T) {
	cases := []struct {
		score      int
		volatility float64
	}{
		{85, 2.1}, // high urgency branch
		{50, 3.0}, // high volatility branch
		{50, 1.5}, // default branch
	}

	for _, tc := range cases {
		market := reliance()
		market.VolatilityPct = tc.volatility
		input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, TimeToCloseMinutes: 180}
		fields, _ := Infer(input, urgencyOf(tc.score), market, profile(0.5))
		assert.Equal(t, "Adaptive", fields[types.FieldPricing].Value,
			"score %d volatility %.1f", tc.score, tc.volatility)
		assert.NotEmpty(t, fields[types.FieldPricing].Rationale)
	}
}

func TestInferTIF(t *testing.T) {
	tests := []struct {
		name  string
		score int
		notes string
		ttc   int
		want  string
	}{
		{"auction window", 50, "", 20, "CAS"},
		{"critical immediate goes IOC", 95, "immediate fill required", 180, "IOC"},
		{"critical without the word stays GFD", 95, "very urgent", 180, "GFD"},
		{"immediate without critical score stays GFD", 80, "immediate fill required", 180, "GFD"},
		{"standard day order", 50, "", 180, "GFD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, Notes: tt.notes, TimeToCloseMinutes: tt.ttc}
			fields, _ := Infer(input, urgencyOf(tt.score), reliance(), profile(0.5))
			assert.Equal(t, tt.want, fields[types.FieldTIF].Value)
		})
	}
}

func TestInferAlgoSelection(t *testing.T) {
	tests := []struct {
		name         string
		score        int
		notes        string
		quantity     int64
		wantExecutor any
		wantUseAlgo  bool
		wantService  string
	}{
		{"explicit vwap", 50, "work the vwap", 1000, "VWAP", true, "BlueBox 2"},
		{"explicit twap", 50, "twap into the close", 1000, "TWAP", true, "BlueBox 2"},
		{"urgent large order takes pov", 75, "", 30000, "POV", true, "BlueBox 2"},
		{"large order defaults to vwap", 50, "", 20000, "VWAP", true, "BlueBox 2"},
		{"small order executes direct", 50, "", 1000, nil, false, "Market"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := types.OrderInput{Quantity: tt.quantity, ManualSide: types.SideBuy, Notes: tt.notes, TimeToCloseMinutes: 180}
			fields, useAlgo := Infer(input, urgencyOf(tt.score), reliance(), profile(0.5))
			assert.Equal(t, tt.wantExecutor, fields[types.FieldExecutor].Value)
			assert.Equal(t, tt.wantUseAlgo, useAlgo)
			assert.Equal(t, tt.wantService, fields[types.FieldService].Value)
		})
	}
}

func TestInferCrossing(t *testing.T) {
	// 50k against a 7.5k average trade size crosses the block threshold.
	input := types.OrderInput{Quantity: 50000, ManualSide: types.SideBuy, TimeToCloseMinutes: 180}
	fields, _ := Infer(input, urgencyOf(50), reliance(), profile(0.5))

	assert.Equal(t, int64(10000), fields[types.FieldMinCrossQty].Value)
	assert.Equal(t, int64(25000), fields[types.FieldMaxCrossQty].Value)
	assert.Equal(t, "Shares", fields[types.FieldCrossQtyUnit].Value)
	assert.Equal(t, "False", fields[types.FieldLeaveActiveSlice].Value)

	// Small orders leave crossing disarmed.
	input.Quantity = 1000
	fields, _ = Infer(input, urgencyOf(50), reliance(), profile(0.5))
	assert.Nil(t, fields[types.FieldMinCrossQty].Value)
	assert.Nil(t, fields[types.FieldMaxCrossQty].Value)
}

func TestInferIWould(t *testing.T) {
	// Patient flow arms an opportunistic rest on the order's own side.
	input := types.OrderInput{Quantity: 50000, ManualSide: types.SideSell, TimeToCloseMinutes: 300}
	fields, _ := Infer(input, urgencyOf(30), reliance(), profile(0.2))

	assert.InDelta(t, 2583.1, fields[types.FieldIWouldPrice].Value.(float64), 0.001)
	assert.Equal(t, int64(15000), fields[types.FieldIWouldQty].Value)

	// Urgent flow does not.
	fields, _ = Infer(input, urgencyOf(40), reliance(), profile(0.2))
	assert.Nil(t, fields[types.FieldIWouldPrice].Value)
	assert.Nil(t, fields[types.FieldIWouldQty].Value)
}

func TestInferLimitAdjustment(t *testing.T) {
	input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, TimeToCloseMinutes: 180}

	fields, _ := Infer(input, urgencyOf(80), reliance(), profile(0.5))
	assert.Equal(t, "Primary Best Bid", fields[types.FieldLimitOption].Value)
	assert.Equal(t, 1, fields[types.FieldLimitOffset].Value)
	assert.Equal(t, "Tick", fields[types.FieldOffsetUnit].Value)

	fields, _ = Infer(input, urgencyOf(79), reliance(), profile(0.5))
	assert.Equal(t, "Order Limit", fields[types.FieldLimitOption].Value)
	assert.Equal(t, 0, fields[types.FieldLimitOffset].Value)
}

func TestInferAlgoParams(t *testing.T) {
	input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, TimeToCloseMinutes: 350}

	// Long runway: opening print on, closing print off.
	fields, _ := Infer(input, urgencyOf(50), reliance(), profile(0.5))
	assert.Equal(t, "True", fields[types.FieldOpeningPrint].Value)
	assert.Equal(t, 10, fields[types.FieldOpeningPct].Value)
	assert.Equal(t, "False", fields[types.FieldClosingPrint].Value)
	assert.Equal(t, 0, fields[types.FieldClosingPct].Value)
	assert.Equal(t, "Auto", fields[types.FieldUrgencySetting].Value)
	assert.Equal(t, "False", fields[types.FieldGetDone].Value)

	// Near the close but outside the auction: closing print on.
	input.TimeToCloseMinutes = 40
	fields, _ = Infer(input, urgencyOf(85), reliance(), profile(0.5))
	assert.Equal(t, "False", fields[types.FieldOpeningPrint].Value)
	assert.Equal(t, "True", fields[types.FieldClosingPrint].Value)
	assert.Equal(t, 30, fields[types.FieldClosingPct].Value)
	assert.Equal(t, "High", fields[types.FieldUrgencySetting].Value)
	assert.Equal(t, "True", fields[types.FieldGetDone].Value)

	// "must complete" forces get_done regardless of score.
	input.Notes = "must complete today"
	fields, _ = Infer(input, urgencyOf(30), reliance(), profile(0.5))
	assert.Equal(t, "True", fields[types.FieldGetDone].Value)
}

func TestInferStaticFields(t *testing.T) {
	input := types.OrderInput{Quantity: 100, ManualSide: types.SideBuy, TimeToCloseMinutes: 180}

	fields, _ := Infer(input, urgencyOf(50), reliance(), profile(0.85))
	assert.Equal(t, "Principal", fields[types.FieldCapacity].Value)
	assert.Equal(t, "No", fields[types.FieldHold].Value)
	assert.Equal(t, "Client", fields[types.FieldCategory].Value)
	assert.Equal(t, "UNALLOC", fields[types.FieldAccount].Value)

	fields, _ = Infer(input, urgencyOf(50), reliance(), profile(0.4))
	assert.Equal(t, "Agent", fields[types.FieldCapacity].Value)
}

func TestInferEveryFieldHasRationale(t *testing.T) {
	input := types.OrderInput{Quantity: 50000, Notes: "sell urgent", TimeToCloseMinutes: 20}
	fields, _ := Infer(input, urgencyOf(85), reliance(), profile(0.85))

	require.NotEmpty(t, fields)
	for name, f := range fields {
		assert.NotEmpty(t, f.Rationale, "field %s has no rationale", name)
		assert.NotEmpty(t, f.Confidence, "field %s has no confidence", name)
	}
}
