package inference

import (
	"math"

	"github.com/ksred/auo-api/internal/types"
)

const (
	// Closing-auction collar: limit prices must sit within +/-3% of the
	// reference price.
	casBandUpper = 1.03
	casBandLower = 0.97

	preCloseThresholdMinutes = 60
)

// AuctionWindow describes where the order sits relative to the closing
// auction: the session state plus the reference price and its collar.
type AuctionWindow struct {
	Active         bool
	State          types.MarketState
	ReferencePrice float64
	BandUpper      float64
	BandLower      float64
}

// DetectAuctionWindow classifies the session from time-to-close and anchors
// the auction collar on the last traded price.
func DetectAuctionWindow(timeToClose int, lastPrice float64) AuctionWindow {
	active := timeToClose <= types.ClosingAuctionThresholdMinutes

	state := types.MarketStateContinuous
	switch {
	case active:
		state = types.MarketStateCAS
	case timeToClose <= preCloseThresholdMinutes:
		state = types.MarketStatePreClose
	}

	return AuctionWindow{
		Active:         active,
		State:          state,
		ReferencePrice: lastPrice,
		BandUpper:      round1(lastPrice * casBandUpper),
		BandLower:      round1(lastPrice * casBandLower),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
