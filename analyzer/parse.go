package analyzer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/bytedance/sonic"
	"github.com/gtoxlili/echoChart/config"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/utils"
	"github.com/samber/lo"
)

// modelOutput 是模型输出的宽松形态，缺失字段由 normalize 补齐
type modelOutput struct {
	Trend             string       `json:"trend"`
	Confidence        looseFloat   `json:"confidence"`
	Recommendation    string       `json:"recommendation"`
	Patterns          []string     `json:"patterns"`
	SupportLevels     []looseFloat `json:"supportLevels"`
	ResistanceLevels  []looseFloat `json:"resistanceLevels"`
	Entry             looseFloat   `json:"entry"`
	Target            looseFloat   `json:"target"`
	StopLoss          looseFloat   `json:"stopLoss"`
	Summary           string       `json:"summary"`
	Insights          []string     `json:"insights"`
	RiskLevel         string       `json:"riskLevel"`
	UserAdaptedAdvice string       `json:"userAdaptedAdvice"`
	TimeframeGuidance string       `json:"timeframeGuidance"`
	VolumeAnalysis    string       `json:"volumeAnalysis"`
	NextLevelsToWatch []looseFloat `json:"nextLevelsToWatch"`
	ContingencyPlan   string       `json:"contingencyPlan"`
}

// looseFloat 同时接受数字和 "2,850.5"、"$2850"、"75%" 这类字符串，
// 无法识别的值视为缺失，不让整个回复解析失败
type looseFloat struct {
	Value float64
	Valid bool
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	*f = looseFloat{}
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if raw[0] == '"' {
		if err := json.UnmarshalString(raw, &raw); err != nil {
			return nil
		}
		raw = strings.ReplaceAll(strings.Trim(raw, " $₹%"), ",", "")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = looseFloat{Value: v, Valid: true}
	return nil
}

func (f looseFloat) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	return lo.ToPtr(f.Value)
}

// levels 丢弃无法识别的价位，结果不为 nil
func levels(in []looseFloat) []float64 {
	return lo.FilterMap(in, func(f looseFloat, _ int) (float64, bool) { return f.Value, f.Valid })
}

// ParseAnalysis 解析模型输出；无法解析时返回本地兜底结果，不会失败
func ParseAnalysis(raw string, market entity.MarketContext, user entity.UserContext) entity.AnalysisResult {
	out, err := utils.ParseResult[modelOutput](raw)
	if err != nil || !out.shaped() {
		return FallbackAnalysis(raw, market, user)
	}
	return normalize(out)
}

// shaped 判断解码出的对象是否至少带有一个结论字段，修复后的任意对象不算有效结果
func (o modelOutput) shaped() bool {
	return o.Trend != "" || o.Recommendation != "" || o.Summary != "" || o.Confidence.Valid
}

func normalize(o modelOutput) entity.AnalysisResult {
	confidence := 50.0
	if o.Confidence.Valid {
		confidence = math.Min(100, math.Max(0, o.Confidence.Value))
	}
	return entity.AnalysisResult{
		Trend:             parseTrend(o.Trend),
		Confidence:        confidence,
		Recommendation:    parseRecommendation(o.Recommendation),
		Patterns:          nonNil(o.Patterns),
		SupportLevels:     levels(o.SupportLevels),
		ResistanceLevels:  levels(o.ResistanceLevels),
		Entry:             o.Entry.ptr(),
		Target:            o.Target.ptr(),
		StopLoss:          o.StopLoss.ptr(),
		Summary:           lo.CoalesceOrEmpty(strings.TrimSpace(o.Summary), "Analysis completed successfully"),
		Insights:          lo.Ternary(len(o.Insights) > 0, o.Insights, []string{"Technical analysis completed"}),
		RiskLevel:         parseRisk(o.RiskLevel),
		UserAdaptedAdvice: lo.CoalesceOrEmpty(o.UserAdaptedAdvice, "Follow your trading plan"),
		TimeframeGuidance: lo.CoalesceOrEmpty(o.TimeframeGuidance, "Monitor price action"),
		VolumeAnalysis:    lo.CoalesceOrEmpty(o.VolumeAnalysis, "Volume confirmation pending"),
		NextLevelsToWatch: levels(o.NextLevelsToWatch),
		ContingencyPlan:   lo.CoalesceOrEmpty(o.ContingencyPlan, "Reassess if analysis invalidated"),
	}
}

// FallbackAnalysis 在模型输出不可用时根据行情给出中性结论
func FallbackAnalysis(raw string, market entity.MarketContext, user entity.UserContext) entity.AnalysisResult {
	experience := lo.CoalesceOrEmpty(string(user.Experience), string(entity.Intermediate))

	res := entity.AnalysisResult{
		Trend:            entity.TrendNeutral,
		Confidence:       lo.Ternary(market.Volatility > 50, 30.0, 60.0),
		Recommendation:   entity.Hold,
		Patterns:         []string{"Analysis format needs adjustment"},
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
		Summary:          "Technical analysis completed. Chart shows mixed signals requiring further confirmation.",
		Insights: []string{
			"Analysis completed with partial data extraction",
			fmt.Sprintf("Adjusted for %s trader experience", experience),
			"Consider multiple timeframe confirmation",
		},
		RiskLevel:         riskFromVolatility(market.Volatility),
		UserAdaptedAdvice: fmt.Sprintf("As a %s trader, focus on risk management", experience),
		NextLevelsToWatch: []float64{},
		RawAnalysis:       utils.Truncate(raw, config.RawAnalysisMaxRunes),
		Fallback:          true,
	}
	if market.CurrentPrice > 0 {
		res.SupportLevels = []float64{market.CurrentPrice * 0.98}
		res.ResistanceLevels = []float64{market.CurrentPrice * 1.02}
	}
	return res
}

func riskFromVolatility(v float64) entity.RiskTolerance {
	switch {
	case v > 50:
		return entity.RiskHigh
	case v > 25:
		return entity.RiskMedium
	default:
		return entity.RiskLow
	}
}

func parseTrend(s string) entity.Trend {
	t := entity.Trend(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case entity.TrendBullish, entity.TrendBearish, entity.TrendNeutral:
		return t
	}
	return entity.TrendNeutral
}

func parseRecommendation(s string) entity.Recommendation {
	r := entity.Recommendation(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case entity.Buy, entity.Sell, entity.Hold:
		return r
	}
	return entity.Hold
}

func parseRisk(s string) entity.RiskTolerance {
	r := entity.RiskTolerance(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case entity.RiskLow, entity.RiskMedium, entity.RiskHigh:
		return r
	}
	return entity.RiskMedium
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
