package entity

import (
	"fmt"
	"math"
	"slices"
	"strings"

	json "github.com/bytedance/sonic"
)

type InstrumentType string

const (
	Equity InstrumentType = "EQUITY"
	Option InstrumentType = "OPTION"
	Future InstrumentType = "FUTURE"
)

var InstrumentTypes = []InstrumentType{Equity, Option, Future}

func ParseInstrumentType(s string) (InstrumentType, error) {
	t := InstrumentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case Equity, Option, Future:
		return t, nil
	}
	return "", fmt.Errorf("unknown instrument type %q", s)
}

// UnmarshalJSON 接受大小写和首尾空白不规范的取值，无法识别的值原样保留交给 Validate
func (t *InstrumentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := ParseInstrumentType(s); err == nil {
		*t = parsed
	} else {
		*t = InstrumentType(s)
	}
	return nil
}

type MarketCondition string

const (
	Bullish  MarketCondition = "bullish"
	Bearish  MarketCondition = "bearish"
	Neutral  MarketCondition = "neutral"
	Volatile MarketCondition = "volatile"
)

var MarketConditions = []MarketCondition{Bullish, Bearish, Neutral, Volatile}

func ParseMarketCondition(s string) (MarketCondition, error) {
	c := MarketCondition(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Bullish, Bearish, Neutral, Volatile:
		return c, nil
	}
	return "", fmt.Errorf("unknown market condition %q", s)
}

func (c *MarketCondition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := ParseMarketCondition(s); err == nil {
		*c = parsed
	} else {
		*c = MarketCondition(s)
	}
	return nil
}

// TechnicalIndicators 中每个字段都是可选的，nil 表示调用方没有该指标
type TechnicalIndicators struct {
	RSI    *float64 `json:"rsi,omitempty"`
	MACD   *float64 `json:"macd,omitempty"`
	SMA50  *float64 `json:"sma_50,omitempty"`
	SMA200 *float64 `json:"sma_200,omitempty"`
}

// Present 按固定顺序返回已提供的指标
func (ti *TechnicalIndicators) Present() []NamedValue {
	if ti == nil {
		return nil
	}
	var out []NamedValue
	for _, nv := range []struct {
		name string
		v    *float64
	}{
		{"rsi", ti.RSI},
		{"macd", ti.MACD},
		{"sma_50", ti.SMA50},
		{"sma_200", ti.SMA200},
	} {
		if nv.v != nil {
			out = append(out, NamedValue{Name: nv.name, Value: *nv.v})
		}
	}
	return out
}

type NamedValue struct {
	Name  string
	Value float64
}

// MarketContext 是单次分析请求的行情快照，不做持久化
type MarketContext struct {
	Symbol              string               `json:"symbol"`
	InstrumentType      InstrumentType       `json:"instrumentType"`
	CurrentPrice        float64              `json:"currentPrice"`
	MarketCondition     MarketCondition      `json:"marketCondition"`
	Volatility          float64              `json:"volatility"`
	Volume              int64                `json:"volume"`
	Timeframe           string               `json:"timeframe"`
	TechnicalIndicators *TechnicalIndicators `json:"technicalIndicators,omitempty"`
}

func (m MarketContext) Validate() error {
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("market context: symbol is required")
	}
	// 只接受规范取值，选择器按精确值匹配模板
	if !slices.Contains(InstrumentTypes, m.InstrumentType) {
		return fmt.Errorf("market context: unknown instrument type %q", m.InstrumentType)
	}
	if !slices.Contains(MarketConditions, m.MarketCondition) {
		return fmt.Errorf("market context: unknown market condition %q", m.MarketCondition)
	}
	if m.CurrentPrice < 0 || math.IsNaN(m.CurrentPrice) {
		return fmt.Errorf("market context: current price must be >= 0, got %v", m.CurrentPrice)
	}
	if m.Volume < 0 {
		return fmt.Errorf("market context: volume must be >= 0, got %d", m.Volume)
	}
	return nil
}

// OHLC 与 Quote 对应行情协作方返回的数据结构
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type Quote struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"last_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	OHLC          OHLC    `json:"ohlc"`
	Timestamp     int64   `json:"timestamp"`
}
