package entity

import (
	"math"
	"testing"

	json "github.com/bytedance/sonic"
)

func TestParseInstrumentType(t *testing.T) {
	for in, want := range map[string]InstrumentType{"EQUITY": Equity, "option": Option, " Future ": Future} {
		got, err := ParseInstrumentType(in)
		if err != nil || got != want {
			t.Errorf("ParseInstrumentType(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseInstrumentType("CRYPTO"); err == nil {
		t.Error("expected error for unknown instrument")
	}
}

func TestMarketContextValidate(t *testing.T) {
	valid := MarketContext{
		Symbol:          "NIFTY",
		InstrumentType:  Option,
		CurrentPrice:    19700,
		MarketCondition: Bullish,
		Volatility:      20,
		Volume:          1000000,
		Timeframe:       "1D",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid context rejected: %v", err)
	}

	tests := map[string]func(m *MarketContext){
		"empty symbol":      func(m *MarketContext) { m.Symbol = " " },
		"unknown type":      func(m *MarketContext) { m.InstrumentType = "BOND" },
		"lowercase type":    func(m *MarketContext) { m.InstrumentType = "option" },
		"padded condition":  func(m *MarketContext) { m.MarketCondition = " Bullish " },
		"unknown condition": func(m *MarketContext) { m.MarketCondition = "sideways" },
		"negative price":    func(m *MarketContext) { m.CurrentPrice = -1 },
		"nan price":         func(m *MarketContext) { m.CurrentPrice = math.NaN() },
		"negative volume":   func(m *MarketContext) { m.Volume = -5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			m := valid
			mutate(&m)
			if err := m.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTechnicalIndicatorsPresent(t *testing.T) {
	var nilTI *TechnicalIndicators
	if nilTI.Present() != nil {
		t.Error("nil indicators should have nothing present")
	}

	rsi, sma := 48.5, 2600.0
	got := (&TechnicalIndicators{SMA200: &sma, RSI: &rsi}).Present()
	if len(got) != 2 || got[0].Name != "rsi" || got[1].Name != "sma_200" || got[1].Value != 2600 {
		t.Fatalf("got %+v", got)
	}
}

func TestMarketContextDecodeNormalizesEnums(t *testing.T) {
	var m MarketContext
	raw := `{"symbol":"NIFTY","instrumentType":" option ","marketCondition":"BULLISH","currentPrice":19700}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.InstrumentType != Option || m.MarketCondition != Bullish {
		t.Fatalf("enums not normalized: %q %q", m.InstrumentType, m.MarketCondition)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("normalized context rejected: %v", err)
	}

	if err := json.Unmarshal([]byte(`{"symbol":"X","instrumentType":"bond","marketCondition":"bullish"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.InstrumentType != "bond" {
		t.Fatalf("unknown value should be kept verbatim, got %q", m.InstrumentType)
	}
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for unknown instrument")
	}
}
