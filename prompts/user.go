package prompts

import (
	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
)

// MarketVariables 展开行情上下文，技术指标提升到顶层。
// 只要有任意指标存在，technicalIndicators 就为真，供模板中的条件块使用。
func MarketVariables(m entity.MarketContext) Variables {
	vars := Variables{
		"symbol":          String(m.Symbol),
		"instrumentType":  String(string(m.InstrumentType)),
		"currentPrice":    Number(m.CurrentPrice),
		"marketCondition": String(string(m.MarketCondition)),
		"volatility":      Number(m.Volatility),
		"volume":          Int(m.Volume),
		"timeframe":       String(m.Timeframe),
	}
	present := m.TechnicalIndicators.Present()
	for _, nv := range present {
		vars[nv.Name] = Number(nv.Value)
	}
	if len(present) > 0 {
		vars["technicalIndicators"] = List(lo.Map(present, func(nv entity.NamedValue, _ int) string { return nv.Name }))
	}
	return vars
}

func UserVariables(u entity.UserContext) Variables {
	return Variables{
		"experience":     String(string(u.Experience)),
		"riskTolerance":  String(string(u.RiskTolerance)),
		"tradingStyle":   String(string(u.TradingStyle)),
		"detailLevel":    String(string(u.Preferences.DetailLevel)),
		"recentAnalyses": List(u.RecentAnalyses),
	}
}

// ContextVariables 合并顺序：行情 < 用户 < 自定义
func ContextVariables(m entity.MarketContext, u entity.UserContext, custom Variables) Variables {
	return Merge(MarketVariables(m), UserVariables(u), custom)
}
