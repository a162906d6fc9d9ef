package collector

import (
	"math"
	"testing"

	"github.com/gtoxlili/echoChart/entity"
)

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestInferInstrumentType(t *testing.T) {
	tests := map[string]entity.InstrumentType{
		"NIFTY":     entity.Future,
		"BANKNIFTY": entity.Future,
		"RELIANCE":  entity.Equity,
		"infy":      entity.Equity,
	}
	for sym, want := range tests {
		if got := InferInstrumentType(sym); got != want {
			t.Errorf("InferInstrumentType(%q) = %s, want %s", sym, got, want)
		}
	}
}

func TestBuildMarketContextFromQuote(t *testing.T) {
	snap := Snapshot{Quote: entity.Quote{
		Symbol:        "RELIANCE",
		LastPrice:     2850,
		Change:        12.5,
		ChangePercent: 0.44,
		Volume:        1200000,
	}}
	mc := BuildMarketContext(snap, DefaultContextOptions())

	if mc.InstrumentType != entity.Equity {
		t.Errorf("instrument: got %s", mc.InstrumentType)
	}
	if mc.MarketCondition != entity.Bullish {
		t.Errorf("condition: got %s", mc.MarketCondition)
	}
	if mc.Volatility != 0.44 || mc.Timeframe != "1D" || mc.Volume != 1200000 {
		t.Errorf("unexpected context: %+v", mc)
	}
	if mc.TechnicalIndicators != nil {
		t.Errorf("indicators should be absent without closes")
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("built context should validate: %v", err)
	}
}

func TestBuildMarketContextConditions(t *testing.T) {
	opts := DefaultContextOptions()

	bearish := BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "TCS", Change: -3, ChangePercent: -0.1}}, opts)
	if bearish.MarketCondition != entity.Bearish {
		t.Errorf("expected bearish, got %s", bearish.MarketCondition)
	}

	flat := BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "TCS"}}, opts)
	if flat.MarketCondition != entity.Neutral {
		t.Errorf("expected neutral, got %s", flat.MarketCondition)
	}

	spike := BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "TCS", Change: 90, ChangePercent: 4.2}}, opts)
	if spike.MarketCondition != entity.Volatile {
		t.Errorf("expected volatile on large move, got %s", spike.MarketCondition)
	}

	choppy := make([]float64, 30)
	for i := range choppy {
		choppy[i] = 100
		if i%2 == 1 {
			choppy[i] = 110
		}
	}
	swings := BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "TCS", Change: 1, ChangePercent: 0.5}, Closes: choppy}, opts)
	if swings.MarketCondition != entity.Volatile {
		t.Errorf("expected volatile on choppy closes, got %s", swings.MarketCondition)
	}
}

func TestBuildMarketContextOverrides(t *testing.T) {
	opts := DefaultContextOptions()
	opts.InstrumentType = entity.Option
	opts.Timeframe = "15m"
	mc := BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "NIFTY"}, InstrumentType: entity.Future}, opts)
	if mc.InstrumentType != entity.Option || mc.Timeframe != "15m" {
		t.Fatalf("overrides not applied: %+v", mc)
	}

	mc = BuildMarketContext(Snapshot{Quote: entity.Quote{Symbol: "BTC"}, InstrumentType: entity.Future}, DefaultContextOptions())
	if mc.InstrumentType != entity.Future {
		t.Fatalf("snapshot instrument type should win over inference: %s", mc.InstrumentType)
	}
}

func TestIndicators(t *testing.T) {
	if Indicators(rising(10, 100, 1)) != nil {
		t.Error("too few closes should yield no indicators")
	}

	ti := Indicators(rising(60, 100, 1))
	if ti == nil || ti.RSI == nil || ti.MACD == nil || ti.SMA50 == nil {
		t.Fatalf("expected rsi, macd and sma50, got %+v", ti)
	}
	if ti.SMA200 != nil {
		t.Error("sma200 needs 200 closes")
	}
	// 最后 50 个收盘价为 110..159
	if math.Abs(*ti.SMA50-134.5) > 1e-9 {
		t.Errorf("sma50: got %v", *ti.SMA50)
	}
	if *ti.MACD <= 0 {
		t.Errorf("macd should be positive in an uptrend, got %v", *ti.MACD)
	}

	full := Indicators(rising(220, 100, 1))
	if full.SMA200 == nil {
		t.Error("expected sma200 with 220 closes")
	}
}

func TestRealizedVolatility(t *testing.T) {
	if RealizedVolatility([]float64{1, 2}) != 0 {
		t.Error("too few closes should give 0")
	}
	flat := []float64{100, 100, 100, 100, 100}
	if RealizedVolatility(flat) != 0 {
		t.Error("flat series should have zero volatility")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := normalizeSymbol(" btc "); got != "BTCUSDT" {
		t.Errorf("got %q", got)
	}
	if got := normalizeSymbol("ETHUSDT"); got != "ETHUSDT" {
		t.Errorf("got %q", got)
	}
}
