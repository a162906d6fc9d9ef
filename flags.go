package main

import (
	"fmt"
	"strings"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// marketFlags 从命令行构造 MarketContext
type marketFlags struct {
	symbol     string
	instrument string
	price      float64
	condition  string
	volatility float64
	volume     int64
	timeframe  string
	rsi        float64
	macd       float64
	sma50      float64
	sma200     float64
}

func (f *marketFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.symbol, "symbol", "", "instrument symbol, e.g. RELIANCE")
	fs.StringVar(&f.instrument, "instrument", string(entity.Equity), "instrument type (EQUITY, OPTION, FUTURE)")
	fs.Float64Var(&f.price, "price", 0, "current price")
	fs.StringVar(&f.condition, "condition", string(entity.Neutral), "market condition (bullish, bearish, neutral, volatile)")
	fs.Float64Var(&f.volatility, "volatility", 0, "volatility in percent")
	fs.Int64Var(&f.volume, "volume", 0, "traded volume")
	fs.StringVar(&f.timeframe, "timeframe", "1D", "chart timeframe")
	fs.Float64Var(&f.rsi, "rsi", 0, "RSI value")
	fs.Float64Var(&f.macd, "macd", 0, "MACD value")
	fs.Float64Var(&f.sma50, "sma50", 0, "50-period SMA")
	fs.Float64Var(&f.sma200, "sma200", 0, "200-period SMA")
}

// build 只为显式传入的指标设置值
func (f *marketFlags) build(cmd *cobra.Command) (entity.MarketContext, error) {
	it, err := entity.ParseInstrumentType(f.instrument)
	if err != nil {
		return entity.MarketContext{}, err
	}
	cond, err := entity.ParseMarketCondition(f.condition)
	if err != nil {
		return entity.MarketContext{}, err
	}
	m := entity.MarketContext{
		Symbol:          strings.ToUpper(strings.TrimSpace(f.symbol)),
		InstrumentType:  it,
		CurrentPrice:    f.price,
		MarketCondition: cond,
		Volatility:      f.volatility,
		Volume:          f.volume,
		Timeframe:       f.timeframe,
	}

	ti := &entity.TechnicalIndicators{}
	set := false
	for name, dst := range map[string]**float64{"rsi": &ti.RSI, "macd": &ti.MACD, "sma50": &ti.SMA50, "sma200": &ti.SMA200} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, _ := cmd.Flags().GetFloat64(name)
		*dst = &v
		set = true
	}
	if set {
		m.TechnicalIndicators = ti
	}

	if err := m.Validate(); err != nil {
		return entity.MarketContext{}, err
	}
	return m, nil
}

// userFlags 在命令执行前临时覆盖用户画像
type userFlags struct {
	userID     string
	experience string
	risk       string
	style      string
}

func (f *userFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.userID, "user", "cli", "user id")
	fs.StringVar(&f.experience, "experience", "", "override experience (beginner, intermediate, advanced)")
	fs.StringVar(&f.risk, "risk", "", "override risk tolerance (low, medium, high)")
	fs.StringVar(&f.style, "style", "", "override trading style (scalping, swing, position, long_term)")
}

func (f *userFlags) patch() entity.ProfilePatch {
	var p entity.ProfilePatch
	if f.experience != "" {
		e := entity.Experience(strings.ToLower(f.experience))
		p.Experience = &e
	}
	if f.risk != "" {
		r := entity.RiskTolerance(strings.ToLower(f.risk))
		p.RiskTolerance = &r
	}
	if f.style != "" {
		s := entity.TradingStyle(strings.ToLower(f.style))
		p.TradingStyle = &s
	}
	return p
}

// parseVars 把 key=value 形式的自定义变量转换为字符串映射
func parseVars(pairs map[string]string) map[string]any {
	return lo.MapValues(pairs, func(v string, _ string) any { return v })
}

func mustNonEmpty(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
