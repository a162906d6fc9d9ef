package collector

import (
	"math"
	"strings"

	"github.com/cinar/indicator"
	"github.com/gtoxlili/echoChart/config"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/utils"
	"github.com/samber/lo"
)

const (
	rsiPeriod  = 14
	macdWindow = 26
	// realizedWindow 是计算已实现波动率的收益率个数
	realizedWindow = 20
)

type ContextOptions struct {
	// InstrumentType 优先于快照和代码推断
	InstrumentType entity.InstrumentType
	Timeframe      string
	// 涨跌幅或已实现波动率（百分比）超过阈值时视为 volatile
	VolatileChangePct float64
	VolatileStdDevPct float64
}

func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		Timeframe:         config.DefaultTimeframe,
		VolatileChangePct: config.VolatileChangePct,
		VolatileStdDevPct: config.VolatileStdDevPct,
	}
}

// BuildMarketContext 把行情快照转换为分析用的 MarketContext。
// 指标只在收盘价足够长时计算，否则保持为空。
func BuildMarketContext(snap Snapshot, opts ContextOptions) entity.MarketContext {
	q := snap.Quote
	it := opts.InstrumentType
	if it == "" {
		it = snap.InstrumentType
	}
	if it == "" {
		it = InferInstrumentType(q.Symbol)
	}
	timeframe := opts.Timeframe
	if timeframe == "" {
		timeframe = config.DefaultTimeframe
	}

	return entity.MarketContext{
		Symbol:              q.Symbol,
		InstrumentType:      it,
		CurrentPrice:        math.Max(q.LastPrice, 0),
		MarketCondition:     classify(q, snap.Closes, opts),
		Volatility:          math.Abs(q.ChangePercent),
		Volume:              max(q.Volume, 0),
		Timeframe:           timeframe,
		TechnicalIndicators: Indicators(snap.Closes),
	}
}

// InferInstrumentType 指数代码按期货处理，其余按股票
func InferInstrumentType(symbol string) entity.InstrumentType {
	if strings.Contains(strings.ToUpper(symbol), "NIFTY") {
		return entity.Future
	}
	return entity.Equity
}

// Indicators 计算 RSI(14)、MACD、SMA50、SMA200 的最新值
func Indicators(closes []float64) *entity.TechnicalIndicators {
	if len(closes) <= rsiPeriod {
		return nil
	}
	ti := &entity.TechnicalIndicators{}

	_, rsi := indicator.RsiPeriod(rsiPeriod, closes)
	ti.RSI = lastPtr(rsi)

	if len(closes) >= macdWindow {
		macd, _ := indicator.Macd(closes)
		ti.MACD = lastPtr(macd)
	}
	if len(closes) >= 50 {
		ti.SMA50 = lastPtr(indicator.Sma(50, closes))
	}
	if len(closes) >= 200 {
		ti.SMA200 = lastPtr(indicator.Sma(200, closes))
	}
	return ti
}

// RealizedVolatility 返回最近收益率（百分比）的样本标准差
func RealizedVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	window := lo.Subset(closes, -(realizedWindow + 1), uint(realizedWindow+1))
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns = append(returns, (window[i]/window[i-1]-1)*100)
	}
	return utils.StdDev(returns)
}

func classify(q entity.Quote, closes []float64, opts ContextOptions) entity.MarketCondition {
	if opts.VolatileChangePct > 0 && math.Abs(q.ChangePercent) >= opts.VolatileChangePct {
		return entity.Volatile
	}
	if opts.VolatileStdDevPct > 0 && RealizedVolatility(closes) >= opts.VolatileStdDevPct {
		return entity.Volatile
	}
	switch {
	case q.Change > 0:
		return entity.Bullish
	case q.Change < 0:
		return entity.Bearish
	default:
		return entity.Neutral
	}
}

func lastPtr(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := lo.LastOrEmpty(series)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
