package prompts

import (
	"github.com/gtoxlili/echoChart/entity"
)

// Engine 组合模板目录与选择规则，是分析流程使用的入口
type Engine struct {
	catalog *Catalog
	rules   SelectionRules
}

func NewEngine(catalog *Catalog, rules SelectionRules) *Engine {
	return &Engine{catalog: catalog, rules: rules}
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) SelectOptimalTemplate(market entity.MarketContext, user entity.UserContext, hint string) (entity.Template, error) {
	return Select(e.catalog, e.rules, market, user, hint)
}

func (e *Engine) BuildPrompt(t entity.Template, market entity.MarketContext, user entity.UserContext, custom Variables) (string, error) {
	return BuildPrompt(t, market, user, custom)
}

func (e *Engine) Template(id string) (entity.Template, error) {
	return e.catalog.ByID(id)
}

func (e *Engine) TemplatesByCategory(category entity.Category) []entity.Template {
	return e.catalog.ByCategory(category)
}

func (e *Engine) TemplatesByInstrument(it entity.InstrumentType) []entity.Template {
	return e.catalog.ByInstrument(it)
}
