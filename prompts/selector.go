package prompts

import (
	"fmt"
	"strings"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
)

// DefaultTemplateID 是没有更具体偏好时的首选模板
const DefaultTemplateID = "comprehensive_chart_analysis"

// SelectionRules 把选择启发式中的关键字作为配置数据
type SelectionRules struct {
	// NoviceAvoidTerm 出现在描述中的模板不推荐给新手
	NoviceAvoidTerm string
	// Specializations 为特定品种优先选择名称包含该关键字的模板
	Specializations map[entity.InstrumentType]string
	// DefaultTemplateID 是最后一步的默认模板
	DefaultTemplateID string
}

func DefaultSelectionRules() SelectionRules {
	return SelectionRules{
		NoviceAvoidTerm:   "comprehensive",
		Specializations:   map[entity.InstrumentType]string{entity.Option: "option"},
		DefaultTemplateID: DefaultTemplateID,
	}
}

// Select 按固定顺序挑选模板：品种过滤、提示过滤、新手调整、品种专用、默认。
// 它是纯函数，相同输入总是得到相同模板。
func Select(
	c *Catalog,
	rules SelectionRules,
	market entity.MarketContext,
	user entity.UserContext,
	hint string,
) (entity.Template, error) {
	candidates := c.ByInstrument(market.InstrumentType)
	if len(candidates) == 0 {
		return entity.Template{}, fmt.Errorf("%w: %s", ErrNoTemplateForInstrument, market.InstrumentType)
	}

	// 提示没有命中时保留原候选集
	if hint = strings.TrimSpace(hint); hint != "" {
		h := strings.ToLower(hint)
		narrowed := lo.Filter(candidates, func(t entity.Template, _ int) bool {
			return strings.Contains(strings.ToLower(t.Name), h) ||
				strings.Contains(strings.ToLower(string(t.Category)), h)
		})
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	if user.Experience == entity.Beginner && rules.NoviceAvoidTerm != "" {
		avoid := strings.ToLower(rules.NoviceAvoidTerm)
		if t, ok := lo.Find(candidates, func(t entity.Template) bool {
			return !strings.Contains(strings.ToLower(t.Description), avoid)
		}); ok {
			return t, nil
		}
	}

	if term := strings.ToLower(rules.Specializations[market.InstrumentType]); term != "" {
		if t, ok := lo.Find(candidates, func(t entity.Template) bool {
			return strings.Contains(strings.ToLower(t.Name), term)
		}); ok {
			return t, nil
		}
	}

	defaultID := rules.DefaultTemplateID
	if defaultID == "" {
		defaultID = DefaultTemplateID
	}
	if t, ok := lo.Find(candidates, func(t entity.Template) bool { return t.ID == defaultID }); ok {
		return t, nil
	}
	return candidates[0], nil
}
