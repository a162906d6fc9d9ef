package entity

import (
	"fmt"
	"slices"
)

type Category string

const (
	ChartAnalysis      Category = "chart_analysis"
	MarketSentiment    Category = "market_sentiment"
	RiskAssessment     Category = "risk_assessment"
	PatternRecognition Category = "pattern_recognition"
	Custom             Category = "custom"
)

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case ChartAnalysis, MarketSentiment, RiskAssessment, PatternRecognition, Custom:
		return c, nil
	}
	return "", fmt.Errorf("unknown template category %q", s)
}

// Template 是目录中的一条分析模板
type Template struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Category         Category          `json:"category" yaml:"category"`
	Description      string            `json:"description" yaml:"description"`
	Body             string            `json:"template" yaml:"template"`
	Variables        []string          `json:"variables" yaml:"variables"`
	InstrumentTypes  []InstrumentType  `json:"instrumentTypes" yaml:"instrument_types"`
	MarketConditions []MarketCondition `json:"marketConditions,omitempty" yaml:"market_conditions,omitempty"`
}

func (t Template) Supports(it InstrumentType) bool {
	return slices.Contains(t.InstrumentTypes, it)
}

// IsZero 用于区分“未传入模板”和真实模板
func (t Template) IsZero() bool {
	return t.ID == "" && t.Body == ""
}
