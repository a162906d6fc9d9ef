package prompts

import (
	"strings"
	"testing"

	"github.com/gtoxlili/echoChart/entity"
)

func TestEngine(t *testing.T) {
	e := NewEngine(mustDefaultCatalog(t), DefaultSelectionRules())

	tmpl, err := e.SelectOptimalTemplate(optionMarket(), intermediateUser(), "")
	if err != nil || tmpl.ID != "options_strategy_analysis" {
		t.Fatalf("SelectOptimalTemplate: %s %v", tmpl.ID, err)
	}
	prompt, err := e.BuildPrompt(tmpl, optionMarket(), intermediateUser(), nil)
	if err != nil || !strings.Contains(prompt, "NIFTY") {
		t.Fatalf("BuildPrompt: %v\n%s", err, prompt)
	}
	if n := len(e.TemplatesByCategory(entity.RiskAssessment)); n != 1 {
		t.Errorf("TemplatesByCategory: %d", n)
	}
	if n := len(e.TemplatesByInstrument(entity.Future)); n != 4 {
		t.Errorf("TemplatesByInstrument: %d", n)
	}
	if _, err := e.Template("market_sentiment_analysis"); err != nil {
		t.Errorf("Template: %v", err)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	user := intermediateUser()
	user.Experience = entity.Advanced
	user.TradingStyle = entity.Scalping

	got := BuildSystemPrompt(optionMarket(), user)
	for _, want := range []string{
		"**User Experience**: advanced",
		"**Risk Tolerance**: medium",
		"**Trading Style**: scalping",
		"**Instrument Type**: OPTION",
		"**Market Condition**: bullish",
		`"riskLevel": "low" | "medium" | "high"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if strings.Contains(got, "{experience}") {
		t.Error("unreplaced placeholder")
	}

	defaults := BuildSystemPrompt(entity.MarketContext{}, entity.UserContext{})
	for _, want := range []string{"**User Experience**: intermediate", "**Instrument Type**: EQUITY", "**Market Condition**: neutral"} {
		if !strings.Contains(defaults, want) {
			t.Errorf("defaults missing %q", want)
		}
	}
}
