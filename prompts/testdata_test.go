package prompts

import (
	"testing"

	"github.com/gtoxlili/echoChart/entity"
)

func mustDefaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	return c
}

func optionMarket() entity.MarketContext {
	return entity.MarketContext{
		Symbol:          "NIFTY",
		InstrumentType:  entity.Option,
		CurrentPrice:    19700,
		MarketCondition: entity.Bullish,
		Volatility:      20,
		Volume:          1000000,
		Timeframe:       "1D",
	}
}

func equityMarket() entity.MarketContext {
	m := optionMarket()
	m.Symbol = "RELIANCE"
	m.InstrumentType = entity.Equity
	m.CurrentPrice = 2850
	return m
}

func intermediateUser() entity.UserContext {
	return entity.UserContext{
		UserID:         "u1",
		Experience:     entity.Intermediate,
		RiskTolerance:  entity.RiskMedium,
		TradingStyle:   entity.Swing,
		RecentAnalyses: []string{},
		Preferences:    entity.Preferences{DetailLevel: entity.Detailed, FocusAreas: []string{}},
	}
}

func ptr(f float64) *float64 { return &f }
