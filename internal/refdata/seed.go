package refdata

import (
	"github.com/rs/zerolog/log"

	"github.com/ksred/auo-api/internal/types"
	"gorm.io/gorm"
)

// Seed populates the reference tables when they are empty. The universe is the
// NSE large-cap set the terminal trades, with indicative quote data.
func Seed(gormDB *gorm.DB) error {
	db := NewDatabase(gormDB)

	count, err := db.CountMarketSnapshots()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	snapshots := []types.MarketSnapshot{
		{Symbol: "RELIANCE.NS", InstrumentLabel: "RELIANCE INDS T+1", LastPrice: 2570.2, Bid: 2570.0, Ask: 2570.5, VolatilityPct: 2.1, AvgTradeSize: 7500, TimeToClose: 180},
		{Symbol: "INFY.NS", InstrumentLabel: "INFOSYS LTD T+1", LastPrice: 1848.6, Bid: 1848.0, Ask: 1849.0, VolatilityPct: 1.4, AvgTradeSize: 12000, TimeToClose: 180},
		{Symbol: "TCS.NS", InstrumentLabel: "TCS LTD T+1", LastPrice: 4120.8, Bid: 4120.5, Ask: 4121.2, VolatilityPct: 1.1, AvgTradeSize: 5000, TimeToClose: 180},
		{Symbol: "HDFCBANK.NS", InstrumentLabel: "HDFC BANK T+1", LastPrice: 1720.4, Bid: 1720.0, Ask: 1720.8, VolatilityPct: 1.8, AvgTradeSize: 9000, TimeToClose: 180},
		{Symbol: "ICICIBANK.NS", InstrumentLabel: "ICICI BANK T+1", LastPrice: 1185.3, Bid: 1185.0, Ask: 1185.6, VolatilityPct: 1.6, AvgTradeSize: 11000, TimeToClose: 180},
		{Symbol: "SBIN.NS", InstrumentLabel: "STATE BANK T+1", LastPrice: 812.3, Bid: 812.0, Ask: 812.6, VolatilityPct: 2.3, AvgTradeSize: 15000, TimeToClose: 180},
		{Symbol: "BHARTIARTL.NS", InstrumentLabel: "BHARTI AIRTEL T+1", LastPrice: 1542.7, Bid: 1542.4, Ask: 1543.1, VolatilityPct: 1.5, AvgTradeSize: 8000, TimeToClose: 180},
		{Symbol: "ITC.NS", InstrumentLabel: "ITC LTD T+1", LastPrice: 465.8, Bid: 465.6, Ask: 466.0, VolatilityPct: 1.2, AvgTradeSize: 20000, TimeToClose: 180},
		{Symbol: "KOTAKBANK.NS", InstrumentLabel: "KOTAK BANK T+1", LastPrice: 1755.2, Bid: 1754.8, Ask: 1755.6, VolatilityPct: 1.7, AvgTradeSize: 7000, TimeToClose: 180},
		{Symbol: "LT.NS", InstrumentLabel: "LARSEN & TOUBRO T+1", LastPrice: 3624.5, Bid: 3624.0, Ask: 3625.0, VolatilityPct: 1.9, AvgTradeSize: 4500, TimeToClose: 180},
		{Symbol: "HINDUNILVR.NS", InstrumentLabel: "HINDUSTAN UNILEVER T+1", LastPrice: 2389.6, Bid: 2389.2, Ask: 2390.0, VolatilityPct: 1.0, AvgTradeSize: 6000, TimeToClose: 180},
		{Symbol: "BAJFINANCE.NS", InstrumentLabel: "BAJAJ FINANCE T+1", LastPrice: 6882.1, Bid: 6881.5, Ask: 6882.8, VolatilityPct: 2.6, AvgTradeSize: 3000, TimeToClose: 180},
		{Symbol: "MARUTI.NS", InstrumentLabel: "MARUTI SUZUKI T+1", LastPrice: 12240.3, Bid: 12239.5, Ask: 12241.0, VolatilityPct: 1.8, AvgTradeSize: 1500, TimeToClose: 180},
		{Symbol: "ASIANPAINT.NS", InstrumentLabel: "ASIAN PAINTS T+1", LastPrice: 2310.9, Bid: 2310.5, Ask: 2311.3, VolatilityPct: 1.3, AvgTradeSize: 5500, TimeToClose: 180},
		{Symbol: "WIPRO.NS", InstrumentLabel: "WIPRO LTD T+1", LastPrice: 298.4, Bid: 298.2, Ask: 298.6, VolatilityPct: 2.0, AvgTradeSize: 25000, TimeToClose: 180},
	}

	counterparties := []types.CounterpartyProfile{
		{CounterpartyID: "Client_XYZ", DisplayName: "XYZ Capital Partners", UrgencyFactor: 0.85},
		{CounterpartyID: "Client_ABC", DisplayName: "ABC Asset Management", UrgencyFactor: 0.50},
		{CounterpartyID: "Client_GHI", DisplayName: "GHI Global Fund", UrgencyFactor: 0.70},
		{CounterpartyID: "Client_STU", DisplayName: "STU Securities", UrgencyFactor: 0.80},
		{CounterpartyID: "Client_VWX", DisplayName: "VWX Pension Trust", UrgencyFactor: 0.20},
	}

	if err := db.CreateMarketSnapshots(snapshots); err != nil {
		return err
	}
	if err := db.CreateCounterparties(counterparties); err != nil {
		return err
	}

	log.Info().
		Str("component", "refdata").
		Int("symbols", len(snapshots)).
		Int("counterparties", len(counterparties)).
		Msg("seeded reference data")

	return nil
}
