package config

import "time"

const (
	EnvPrefix = "ECHOCHART"

	DefaultModel        = "gpt-4.1-2025-04-14"
	LLMTemperature      = 0.1
	LLMMaxTokens        = 2000
	LLMMaxRetries       = 2
	LLMRequestTimeout   = 90 * time.Second
	PromptLogMaxRunes   = 1000
	RawAnalysisMaxRunes = 500

	DefaultTimeframe     = "1D"
	KlineLimit           = 250
	VolatileChangePct    = 3.0
	VolatileStdDevPct    = 2.5
	MaxConcurrentAnalyze = 4
	// InsightWindow 统计"最近分析次数"时回看的记录条数
	InsightWindow = 10
)
