package entity

import (
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
)

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

type Recommendation string

const (
	Buy  Recommendation = "buy"
	Sell Recommendation = "sell"
	Hold Recommendation = "hold"
)

// AnalysisResult 对应视觉模型应返回的 JSON 结构
type AnalysisResult struct {
	Trend            Trend          `json:"trend"`
	Confidence       float64        `json:"confidence"`
	Recommendation   Recommendation `json:"recommendation"`
	Patterns         []string       `json:"patterns"`
	SupportLevels    []float64      `json:"supportLevels"`
	ResistanceLevels []float64      `json:"resistanceLevels"`
	Entry            *float64       `json:"entry"`
	Target           *float64       `json:"target"`
	StopLoss         *float64       `json:"stopLoss"`
	Summary          string         `json:"summary"`
	Insights         []string       `json:"insights"`
	RiskLevel        RiskTolerance  `json:"riskLevel"`

	UserAdaptedAdvice string    `json:"userAdaptedAdvice,omitempty"`
	TimeframeGuidance string    `json:"timeframeGuidance,omitempty"`
	VolumeAnalysis    string    `json:"volumeAnalysis,omitempty"`
	NextLevelsToWatch []float64 `json:"nextLevelsToWatch,omitempty"`
	ContingencyPlan   string    `json:"contingencyPlan,omitempty"`
	RawAnalysis       string    `json:"rawAnalysis,omitempty"`

	// Fallback 为 true 表示模型输出无法解析，结果由本地兜底生成
	Fallback bool `json:"fallback"`
}

// AnalysisRecord 是一次完成的分析，交给调用方并写入使用日志
type AnalysisRecord struct {
	UserID       string         `json:"userId"`
	Symbol       string         `json:"symbol"`
	TemplateID   string         `json:"templateId,omitempty"`
	AnalysisType string         `json:"analysisType"`
	Prompt       string         `json:"prompt"`
	Result       AnalysisResult `json:"analysis"`
	Model        string         `json:"model"`
	CreatedAt    time.Time      `json:"timestamp"`
}

func (r AnalysisResult) Print() {
	display, _ := json.ConfigDefault.MarshalIndent(r, "", "  ")
	fmt.Printf("%s\n", display)
}
