// Package urgency derives a 0-100 urgency score for a proposed order from
// four pressures: time to close, order size relative to average trade size,
// counterparty aggressiveness, and free-text note signals.
package urgency

import (
	"math"
	"strings"

	"github.com/ksred/auo-api/internal/types"
)

const (
	// TotalTradingMinutes is the nominal session length time pressure decays
	// across (6.5 hours).
	TotalTradingMinutes = 390

	timePressureWeight       = 40.0
	sizePressureWeight       = 30.0
	counterpartyFactorWeight = 20.0

	urgentNotesSignal  = 8.0
	patientNotesSignal = -5.0
)

// urgentVocabulary is checked first; the first hit wins and the patience
// vocabulary is skipped entirely for that call.
var urgentVocabulary = []string{
	"urgent", "critical", "immediate", "must complete",
	"eod compliance", "rush", "asap",
}

var patientVocabulary = []string{
	"patient", "no urgency",
}

// Score computes the urgency of one order input against its market snapshot
// and counterparty profile. The breakdown contributions sum, after the final
// clamp, to the returned score.
func Score(input types.OrderInput, market *types.MarketSnapshot, counterparty *types.CounterpartyProfile) types.UrgencyResult {
	timeScore := timePressure(input.TimeToCloseMinutes)
	sizeScore := sizePressure(input.Quantity, market.AvgTradeSize)
	cptyScore := counterparty.UrgencyFactor * counterpartyFactorWeight
	notesScore := notesSignal(input.Notes)

	raw := timeScore + sizeScore + cptyScore + notesScore
	score := int(math.Round(clamp(raw, 0, 100)))

	return types.UrgencyResult{
		Score:          score,
		Classification: Classify(score),
		Breakdown: types.UrgencyBreakdown{
			TimePressure:       round1(timeScore),
			SizePressure:       round1(sizeScore),
			CounterpartyFactor: round1(cptyScore),
			NotesSignal:        notesScore,
		},
	}
}

// Classify maps a score to its urgency bucket. The thresholds here are reused
// by the inference rules and must stay in lockstep with them.
func Classify(score int) types.Classification {
	switch {
	case score >= 80:
		return types.UrgencyCritical
	case score >= 60:
		return types.UrgencyHigh
	case score >= 40:
		return types.UrgencyMedium
	default:
		return types.UrgencyLow
	}
}

// timePressure is maximal inside the closing auction window and decays
// linearly across the session outside it. Values can go negative past the
// nominal session length; the final score clamp absorbs that.
func timePressure(timeToClose int) float64 {
	if timeToClose <= types.ClosingAuctionThresholdMinutes {
		return timePressureWeight
	}
	return (1 - float64(timeToClose)/TotalTradingMinutes) * timePressureWeight
}

// sizePressure tiers on the order's size ratio against average trade size.
// Below the first tier it ramps linearly, which by construction stays under
// the next tier's floor (ratio <= 5 implies <= 15).
func sizePressure(quantity, avgTradeSize int64) float64 {
	if avgTradeSize < 1 {
		avgTradeSize = 1
	}
	ratio := float64(quantity) / float64(avgTradeSize)

	switch {
	case ratio > 20:
		return sizePressureWeight
	case ratio > 10:
		return 25
	case ratio > 5:
		return 20
	default:
		return ratio * 3
	}
}

// notesSignal scans the note for urgency vocabulary first, then patience
// vocabulary. At most one of the two can fire per call.
func notesSignal(notes string) float64 {
	lower := strings.ToLower(notes)
	for _, word := range urgentVocabulary {
		if strings.Contains(lower, word) {
			return urgentNotesSignal
		}
	}
	for _, word := range patientVocabulary {
		if strings.Contains(lower, word) {
			return patientNotesSignal
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
