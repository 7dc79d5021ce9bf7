package types

import "gorm.io/gorm"

// MarketSnapshot is the per-symbol reference data the engine reads: last
// traded price, quote, volatility and average trade size, plus the canonical
// instrument label shown on the ticket. TimeToClose is carried alongside so a
// caller that does not supply its own clock can use the feed's value.
type MarketSnapshot struct {
	gorm.Model      `json:"-"`
	Symbol          string  `gorm:"uniqueIndex" json:"symbol"`
	InstrumentLabel string  `json:"instrument_label"`
	LastPrice       float64 `json:"ltp"`
	Bid             float64 `json:"bid"`
	Ask             float64 `json:"ask"`
	VolatilityPct   float64 `json:"volatility_pct"`
	AvgTradeSize    int64   `json:"avg_trade_size"`
	TimeToClose     int     `json:"time_to_close"`
}

// CounterpartyProfile is the per-client reference data the engine reads. The
// urgency factor in [0,1] reflects how aggressively this counterparty's flow
// has historically been executed.
type CounterpartyProfile struct {
	gorm.Model     `json:"-"`
	CounterpartyID string  `gorm:"uniqueIndex" json:"cpty_id"`
	DisplayName    string  `json:"client_name"`
	UrgencyFactor  float64 `json:"urgency_factor"`
}
