package urgency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/auo-api/internal/types"
)

func market(avgTradeSize int64) *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Symbol:       "RELIANCE.NS",
		LastPrice:    2570.2,
		Bid:          2570.0,
		Ask:          2570.5,
		AvgTradeSize: avgTradeSize,
	}
}

func counterparty(factor float64) *types.CounterpartyProfile {
	return &types.CounterpartyProfile{
		CounterpartyID: "Client_XYZ",
		UrgencyFactor:  factor,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		input          types.OrderInput
		avgTradeSize   int64
		urgencyFactor  float64
		wantScore      int
		wantClass      types.Classification
		wantTime       float64
		wantSize       float64
		wantCpty       float64
		wantNotes      float64
	}{
		{
			name: "critical inside auction window",
			input: types.OrderInput{
				Quantity:           50000,
				Notes:              "urgent - must complete by eod compliance",
				TimeToCloseMinutes: 20,
			},
			avgTradeSize:  7500,
			urgencyFactor: 0.85,
			wantScore:     85,
			wantClass:     types.UrgencyCritical,
			wantTime:      40,
			wantSize:      20,
			wantCpty:      17,
			wantNotes:     8,
		},
		{
			name: "high urgency mid session",
			input: types.OrderInput{
				Quantity:           90000,
				TimeToCloseMinutes: 60,
			},
			avgTradeSize:  7500,
			urgencyFactor: 0.5,
			wantScore:     69,
			wantClass:     types.UrgencyHigh,
			wantTime:      33.8,
			wantSize:      25,
			wantCpty:      10,
			wantNotes:     0,
		},
		{
			name: "medium urgency",
			input: types.OrderInput{
				Quantity:           45000,
				TimeToCloseMinutes: 180,
			},
			avgTradeSize:  7500,
			urgencyFactor: 0.5,
			wantScore:     52,
			wantClass:     types.UrgencyMedium,
			wantTime:      21.5,
			wantSize:      20,
			wantCpty:      10,
			wantNotes:     0,
		},
		{
			name: "patient small order late booking",
			input: types.OrderInput{
				Quantity:           1000,
				Notes:              "patient accumulation",
				TimeToCloseMinutes: 300,
			},
			avgTradeSize:  7500,
			urgencyFactor: 0.2,
			wantScore:     9,
			wantClass:     types.UrgencyLow,
			wantTime:      9.2,
			wantSize:      0.4,
			wantCpty:      4,
			wantNotes:     -5,
		},
		{
			name: "clamped to zero",
			input: types.OrderInput{
				Quantity:           1,
				Notes:              "no urgency",
				TimeToCloseMinutes: 390,
			},
			avgTradeSize:  7500,
			urgencyFactor: 0,
			wantScore:     0,
			wantClass:     types.UrgencyLow,
			wantTime:      0,
			wantSize:      0,
			wantCpty:      0,
			wantNotes:     -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.input, market(tt.avgTradeSize), counterparty(tt.urgencyFactor))

			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantClass, result.Classification)
			assert.InDelta(t, tt.wantTime, result.Breakdown.TimePressure, 0.05)
			assert.InDelta(t, tt.wantSize, result.Breakdown.SizePressure, 0.05)
			assert.InDelta(t, tt.wantCpty, result.Breakdown.CounterpartyFactor, 0.05)
			assert.InDelta(t, tt.wantNotes, result.Breakdown.NotesSignal, 0.001)
		})
	}
}

func TestScoreTimePressureMonotonic(t *testing.T) {
	// Same order, less time remaining, never a lower score.
	input := types.OrderInput{Quantity: 10000}
	prev := -1
	for ttc := 390; ttc >= 0; ttc -= 10 {
		input.TimeToCloseMinutes = ttc
		score := Score(input, market(7500), counterparty(0.5)).Score
		require.GreaterOrEqual(t, score, prev, "score dropped as time to close fell to %d", ttc)
		prev = score
	}
}

func TestScoreAuctionWindowMaxesTimePressure(t *testing.T) {
	input := types.OrderInput{Quantity: 100, TimeToCloseMinutes: types.ClosingAuctionThresholdMinutes}
	result := Score(input, market(7500), counterparty(0))
	assert.InDelta(t, 40.0, result.Breakdown.TimePressure, 0.001)

	input.TimeToCloseMinutes = types.ClosingAuctionThresholdMinutes + 1
	result = Score(input, market(7500), counterparty(0))
	assert.Less(t, result.Breakdown.TimePressure, 40.0)
}

func TestSizePressureTiers(t *testing.T) {
	tests := []struct {
		quantity int64
		want     float64
	}{
		{quantity: 160000, want: 30}, // ratio > 20
		{quantity: 120000, want: 25}, // ratio > 10
		{quantity: 50000, want: 20},  // ratio > 5
		{quantity: 30000, want: 12},  // ratio 4 ramps linearly
		{quantity: 7500, want: 3},    // ratio 1
	}

	for _, tt := range tests {
		result := Score(types.OrderInput{Quantity: tt.quantity, TimeToCloseMinutes: 390},
			market(7500), counterparty(0))
		assert.InDelta(t, tt.want, result.Breakdown.SizePressure, 0.05, "quantity %d", tt.quantity)
	}
}

func TestSizePressureZeroAvgTradeSize(t *testing.T) {
	// A missing average trade size must not divide by zero; it reads as 1.
	result := Score(types.OrderInput{Quantity: 100, TimeToCloseMinutes: 390}, market(0), counterparty(0))
	assert.InDelta(t, 30.0, result.Breakdown.SizePressure, 0.001)
}

func TestNotesSignal(t *testing.T) {
	tests := []struct {
		notes string
		want  float64
	}{
		{"", 0},
		{"URGENT fill please", 8},
		{"rush this through", 8},
		{"eod compliance requirement", 8},
		{"patient accumulation", -5},
		{"no urgency on this one", -5},
		// Urgency vocabulary wins when both appear.
		{"urgent but be patient on the tail", 8},
		{"nothing notable here", 0},
	}

	for _, tt := range tests {
		result := Score(types.OrderInput{Quantity: 100, Notes: tt.notes, TimeToCloseMinutes: 390},
			market(7500), counterparty(0))
		assert.InDelta(t, tt.want, result.Breakdown.NotesSignal, 0.001, "notes %q", tt.notes)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score int
		want  types.Classification
	}{
		{100, types.UrgencyCritical},
		{80, types.UrgencyCritical},
		{79, types.UrgencyHigh},
		{60, types.UrgencyHigh},
		{59, types.UrgencyMedium},
		{40, types.UrgencyMedium},
		{39, types.UrgencyLow},
		{0, types.UrgencyLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %d", tt.score)
	}
}
