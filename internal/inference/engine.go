// Package inference derives every order-ticket parameter from an order input,
// its urgency score and the supporting reference data. Each derived field
// carries a confidence grade and a rationale string; the rationale is the
// audit trail a trader reads before accepting a suggestion, so it is never
// empty.
package inference

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ksred/auo-api/internal/types"
)

const (
	crossingSizeThreshold = 5.0
	crossingMinPct        = 0.2
	crossingMaxPct        = 0.5

	iwouldUrgencyThreshold = 40
	iwouldPriceOffset      = 0.005
	iwouldQtyPct           = 0.3

	limitPegUrgencyThreshold = 80

	algoServiceLabel   = "BlueBox 2"
	directServiceLabel = "Market"
)

var buyVocabulary = []string{"buy", "purchase", "long"}
var sellVocabulary = []string{"sell", "liquidate", "short"}

// Infer derives the full parameter set. It is a pure function of its inputs;
// derivation order matters only because several fields branch on the detected
// side and the auction window, both computed up front.
func Infer(input types.OrderInput, urgency types.UrgencyResult, market *types.MarketSnapshot, counterparty *types.CounterpartyProfile) (types.Fields, bool) {
	window := DetectAuctionWindow(input.TimeToCloseMinutes, market.LastPrice)
	score := urgency.Score

	avgTradeSize := market.AvgTradeSize
	if avgTradeSize < 1 {
		avgTradeSize = 1
	}
	sizeRatio := float64(input.Quantity) / float64(avgTradeSize)

	sideField, side := detectSide(input)
	orderType, priceType := selectOrderType(score, window.Active, counterparty.UrgencyFactor, market.VolatilityPct)
	algo := selectAlgo(score, window.Active, input.Notes, sizeRatio)

	fields := types.Fields{
		types.FieldInstrument: field(market.InstrumentLabel, types.ConfidenceHigh, "Auto-populated from symbol"),
		types.FieldSide:       sideField,
		types.FieldQuantity:   field(input.Quantity, types.ConfidenceHigh, "Quantity from client mandate"),
		types.FieldOrderType:  orderType,
		types.FieldPriceType:  priceType,
		types.FieldLimitPrice: limitPrice(side, score, window, market),
		types.FieldTIF:        selectTIF(score, window.Active, input.Notes),
		types.FieldService: field(algo.Service, types.ConfidenceHigh,
			serviceRationale(algo.UseAlgo)),
		types.FieldExecutor: field(algo.Executor, algo.Confidence, algo.Rationale),
	}

	addStaticFields(fields, score, counterparty.UrgencyFactor)
	addAlgoParams(fields, score, input.Notes, input.TimeToCloseMinutes, market.VolatilityPct)
	addCrossing(fields, input.Quantity, sizeRatio)
	addIWould(fields, score, side, input.Quantity, market.LastPrice)
	addLimitAdjustment(fields, score, side)

	return fields, algo.UseAlgo
}

func field(value any, confidence types.Confidence, rationale string) types.InferredField {
	return types.InferredField{Value: value, Confidence: confidence, Rationale: rationale}
}

// detectSide resolves the order direction: a manual override wins, then buy
// and sell vocabulary in the notes, in that order. When nothing matches the
// field is nil-valued and the trader must pick; every downstream formula that
// branches on side then uses the buy branch.
func detectSide(input types.OrderInput) (types.InferredField, types.Side) {
	if input.ManualSide != "" {
		return field(string(input.ManualSide), types.ConfidenceHigh, "User-specified side"), input.ManualSide
	}

	lower := strings.ToLower(input.Notes)
	for _, word := range buyVocabulary {
		if strings.Contains(lower, word) {
			return field(string(types.SideBuy), types.ConfidenceHigh, "Order notes indicate buy instruction"), types.SideBuy
		}
	}
	for _, word := range sellVocabulary {
		if strings.Contains(lower, word) {
			return field(string(types.SideSell), types.ConfidenceHigh, "Order notes indicate sell instruction"), types.SideSell
		}
	}

	return field(nil, types.ConfidenceLow, "Require manual selection"), ""
}

func selectOrderType(score int, casActive bool, urgencyFactor, volatility float64) (types.InferredField, types.InferredField) {
	if casActive {
		return field("Limit", types.ConfidenceHigh,
				"CAS window detected. Limit order required for auction participation within +/-3% band."),
			field("Limit", types.ConfidenceHigh, "Limit pricing")
	}
	if score > 80 && urgencyFactor > 0.7 {
		return field("Market", types.ConfidenceHigh,
				"High urgency + low price sensitivity: Market order for guaranteed fill"),
			field("Market", types.ConfidenceHigh, "Market pricing")
	}
	if volatility > 2.5 {
		return field("Limit", types.ConfidenceHigh,
				fmt.Sprintf("High volatility (%.1f%%): Limit order to avoid adverse selection", volatility)),
			field("Limit", types.ConfidenceHigh, "Limit pricing")
	}
	return field("Limit", types.ConfidenceMedium, "Standard limit order for price protection"),
		field("Limit", types.ConfidenceMedium, "Limit pricing")
}

// limitPrice picks the limit level. Inside the auction window the price is a
// tiered offset from the reference price, clamped into the collar. Outside it,
// high urgency pays up to the near touch, medium urgency rests at mid, and low
// urgency posts one tick inside the far touch.
func limitPrice(side types.Side, score int, window AuctionWindow, market *types.MarketSnapshot) types.InferredField {
	selling := side == types.SideSell // nil side defaults to the buy branch

	if window.Active {
		var limit float64
		var pct string
		if selling {
			mult := 0.995
			pct = "-0.5%"
			if score > 80 {
				mult = 0.992
				pct = "-0.8%"
			}
			limit = math.Max(round1(window.ReferencePrice*mult), window.BandLower)
		} else {
			mult := 1.005
			pct = "+0.5%"
			if score > 80 {
				mult = 1.008
				pct = "+0.8%"
			}
			limit = math.Min(round1(window.ReferencePrice*mult), window.BandUpper)
		}
		rationale := fmt.Sprintf("CAS: Aggressive limit at %s for high fill probability (Band: %v - %v)",
			pct, window.BandLower, window.BandUpper)
		return field(limit, types.ConfidenceHigh, rationale)
	}

	mid := round1((market.Bid + market.Ask) / 2)
	switch {
	case score > 70:
		if selling {
			return field(market.Bid, types.ConfidenceHigh, "High urgency: Limit at bid price for immediate execution")
		}
		return field(market.Ask, types.ConfidenceHigh, "High urgency: Limit at ask price for immediate execution")
	case score > 40:
		return field(mid, types.ConfidenceHigh, "Medium urgency: Mid-price balances cost and fill probability")
	default:
		if selling {
			return field(round1(market.Ask-0.1), types.ConfidenceHigh, "Low urgency: Patient limit near ask for better price")
		}
		return field(round1(market.Bid+0.1), types.ConfidenceHigh, "Low urgency: Patient limit near bid for better price")
	}
}

func selectTIF(score int, casActive bool, notes string) types.InferredField {
	if casActive {
		return field("CAS", types.ConfidenceHigh, "CAS session: Order valid only for closing auction window")
	}
	if score > 90 && strings.Contains(strings.ToLower(notes), "immediate") {
		return field("IOC", types.ConfidenceMedium, "Critical urgency: IOC ensures immediate execution attempt")
	}
	return field("GFD", types.ConfidenceHigh, "Standard day order: Valid until market close")
}

type algoChoice struct {
	Executor   any // algo name, nil when executing directly
	UseAlgo    bool
	Service    string
	Confidence types.Confidence
	Rationale  string
}

// selectAlgo picks the execution algorithm: explicit client instructions win,
// then urgency and size decide between POV, VWAP and direct execution. The
// auction window never uses an algo.
func selectAlgo(score int, casActive bool, notes string, sizeRatio float64) algoChoice {
	lower := strings.ToLower(notes)
	switch {
	case casActive:
		return algoChoice{Executor: nil, UseAlgo: false, Service: directServiceLabel,
			Confidence: types.ConfidenceHigh,
			Rationale:  "CAS window: Direct limit order to closing auction (no algo needed)"}
	case strings.Contains(lower, "vwap"):
		return algoChoice{Executor: "VWAP", UseAlgo: true, Service: algoServiceLabel,
			Confidence: types.ConfidenceHigh,
			Rationale:  "Client explicitly requires VWAP benchmark execution"}
	case strings.Contains(lower, "twap"):
		return algoChoice{Executor: "TWAP", UseAlgo: true, Service: algoServiceLabel,
			Confidence: types.ConfidenceHigh,
			Rationale:  "Client explicitly requires TWAP execution"}
	case score > 70 && sizeRatio > 3:
		return algoChoice{Executor: "POV", UseAlgo: true, Service: algoServiceLabel,
			Confidence: types.ConfidenceHigh,
			Rationale:  "High urgency with large order requires aggressive participation (POV)"}
	case sizeRatio > 2:
		return algoChoice{Executor: "VWAP", UseAlgo: true, Service: algoServiceLabel,
			Confidence: types.ConfidenceMedium,
			Rationale:  "Standard VWAP execution balances cost and completion"}
	default:
		return algoChoice{Executor: nil, UseAlgo: false, Service: directServiceLabel,
			Confidence: types.ConfidenceHigh,
			Rationale:  "Small order - direct market execution sufficient"}
	}
}

func serviceRationale(useAlgo bool) string {
	if useAlgo {
		return "Algo engine"
	}
	return "Direct market execution"
}

func addStaticFields(fields types.Fields, score int, urgencyFactor float64) {
	capacity := "Agent"
	capacityRationale := "Agency execution model"
	if urgencyFactor > 0.6 {
		capacity = "Principal"
		capacityRationale = "Standard principal capacity"
	}

	holdRationale := "Standard immediate release"
	if score > 70 {
		holdRationale = "High urgency - release immediately"
	}

	fields[types.FieldReleaseDate] = field(time.Now().Format("2006-01-02"), types.ConfidenceHigh, "Immediate execution requested")
	fields[types.FieldHold] = field("No", types.ConfidenceHigh, holdRationale)
	fields[types.FieldCategory] = field("Client", types.ConfidenceHigh, "Client order flow")
	fields[types.FieldCapacity] = field(capacity, types.ConfidenceMedium, capacityRationale)
	fields[types.FieldAccount] = field("UNALLOC", types.ConfidenceMedium, "Standard unallocated block order")
}

// addAlgoParams fills the algo-engine parameter block. These are always
// derived; the ticket only displays them when an algo is in use.
func addAlgoParams(fields types.Fields, score int, notes string, timeToClose int, volatility float64) {
	// All three pricing branches resolve to Adaptive, the high-volatility one
	// included; only the rationale differs.
	switch {
	case score > 70:
		fields[types.FieldPricing] = field("Adaptive", types.ConfidenceHigh,
			"High urgency: Adaptive pricing crosses spread when necessary")
	case volatility > 2.5:
		fields[types.FieldPricing] = field("Adaptive", types.ConfidenceHigh,
			"High volatility: Adaptive pricing manages adverse selection")
	default:
		fields[types.FieldPricing] = field("Adaptive", types.ConfidenceHigh,
			"Standard adaptive pricing balances aggression and patience")
	}

	fields[types.FieldLayering] = field("Auto", types.ConfidenceHigh,
		"Auto-layering optimizes order book placement dynamically")

	switch {
	case score > 80:
		fields[types.FieldUrgencySetting] = field("High", types.ConfidenceHigh,
			fmt.Sprintf("Urgency score: %d/100 - High", score))
	case score > 50:
		fields[types.FieldUrgencySetting] = field("Auto", types.ConfidenceHigh,
			"Auto urgency adapts to market conditions")
	default:
		fields[types.FieldUrgencySetting] = field("Low", types.ConfidenceHigh,
			"Low urgency allows patient accumulation")
	}

	getDone := score > 75 || strings.Contains(strings.ToLower(notes), "must complete")
	if getDone {
		fields[types.FieldGetDone] = field("True", types.ConfidenceHigh, "Force completion by end time")
	} else {
		fields[types.FieldGetDone] = field("False", types.ConfidenceHigh, "Allow unfilled quantity to remain")
	}

	openingPrint := timeToClose > 300
	openingPct := 0
	if openingPrint {
		openingPct = 10
		fields[types.FieldOpeningPrint] = field("True", types.ConfidenceHigh,
			"Participate in opening auction for early liquidity")
	} else {
		fields[types.FieldOpeningPrint] = field("False", types.ConfidenceHigh, "Order entered after open")
	}
	fields[types.FieldOpeningPct] = field(openingPct, types.ConfidenceMedium, "Max % in opening auction")

	closingPrint := timeToClose < 60
	closingPct := 0
	if closingPrint {
		closingPct = 20
		if score > 80 {
			closingPct = 30
		}
		fields[types.FieldClosingPrint] = field("True", types.ConfidenceHigh,
			"Approaching close - participate in closing auction")
	} else {
		fields[types.FieldClosingPrint] = field("False", types.ConfidenceHigh, "Sufficient time remaining")
	}
	fields[types.FieldClosingPct] = field(closingPct, types.ConfidenceMedium,
		fmt.Sprintf("Max %d%% in closing auction", closingPct))
}

// addCrossing enables block crossing for orders over five times the average
// trade size, offering 20-50% of the order as crossable blocks.
func addCrossing(fields types.Fields, quantity int64, sizeRatio float64) {
	if sizeRatio > crossingSizeThreshold {
		rationale := "Large order: Enable crossing for 20-50% blocks"
		fields[types.FieldMinCrossQty] = field(roundQty(float64(quantity)*crossingMinPct), types.ConfidenceMedium, rationale)
		fields[types.FieldMaxCrossQty] = field(roundQty(float64(quantity)*crossingMaxPct), types.ConfidenceMedium, rationale)
	} else {
		fields[types.FieldMinCrossQty] = field(nil, types.ConfidenceMedium, "Not applicable")
		fields[types.FieldMaxCrossQty] = field(nil, types.ConfidenceMedium, "Not applicable")
	}
	fields[types.FieldCrossQtyUnit] = field("Shares", types.ConfidenceHigh, "Standard unit")
	fields[types.FieldLeaveActiveSlice] = field("False", types.ConfidenceHigh, "Avoid over-execution during cross")
}

// addIWould arms an opportunistic resting order for patient flow: a third of
// the order half a percent inside the last price, on the order's own side.
func addIWould(fields types.Fields, score int, side types.Side, quantity int64, lastPrice float64) {
	if score >= iwouldUrgencyThreshold {
		fields[types.FieldIWouldPrice] = field(nil, types.ConfidenceMedium, "Not applicable for urgent orders")
		fields[types.FieldIWouldQty] = field(nil, types.ConfidenceMedium, "Not applicable")
		return
	}

	offset := 1 - iwouldPriceOffset
	if side == types.SideSell {
		offset = 1 + iwouldPriceOffset
	}
	fields[types.FieldIWouldPrice] = field(round1(lastPrice*offset), types.ConfidenceMedium, "Opportunistic execution price")
	fields[types.FieldIWouldQty] = field(roundQty(float64(quantity)*iwouldQtyPct), types.ConfidenceMedium, "30% of total order")
}

// addLimitAdjustment pegs critical orders to the near touch with a one-tick
// offset; everything else keeps the static order limit.
func addLimitAdjustment(fields types.Fields, score int, side types.Side) {
	if score >= limitPegUrgencyThreshold {
		option := "Primary Best Bid"
		if side == types.SideSell {
			option = "Primary Best Ask"
		}
		fields[types.FieldLimitOption] = field(option, types.ConfidenceMedium, "Peg to best price for aggressive fill")
		fields[types.FieldLimitOffset] = field(1, types.ConfidenceHigh, "1 tick offset")
	} else {
		fields[types.FieldLimitOption] = field("Order Limit", types.ConfidenceHigh, "Static limit price from order")
		fields[types.FieldLimitOffset] = field(0, types.ConfidenceHigh, "No offset")
	}
	fields[types.FieldOffsetUnit] = field("Tick", types.ConfidenceHigh, "Standard tick-based offset")
}

func roundQty(v float64) int64 {
	return int64(math.Round(v))
}
