package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Templates []entity.Template `yaml:"templates"`
}

// Catalog 是只读的模板目录，构造完成后不再变化。
// 所有查询都按声明顺序返回副本。
type Catalog struct {
	templates []entity.Template
	index     map[string]int
}

func NewCatalog(templates ...entity.Template) (*Catalog, error) {
	c := &Catalog{
		templates: make([]entity.Template, 0, len(templates)),
		index:     make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("catalog: template %q has an empty id", t.Name)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %q", t.ID)
		}
		if _, err := entity.ParseCategory(string(t.Category)); err != nil {
			return nil, fmt.Errorf("catalog: template %q: %w", t.ID, err)
		}
		if len(t.InstrumentTypes) == 0 {
			return nil, fmt.Errorf("catalog: template %q supports no instrument type", t.ID)
		}
		for _, it := range t.InstrumentTypes {
			if _, err := entity.ParseInstrumentType(string(it)); err != nil {
				return nil, fmt.Errorf("catalog: template %q: %w", t.ID, err)
			}
		}
		c.index[t.ID] = len(c.templates)
		c.templates = append(c.templates, cloneTemplate(t))
	}
	return c, nil
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode yaml: %w", err)
	}
	return NewCatalog(file.Templates...)
}

func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return ParseCatalog(data)
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
})

// DefaultCatalog 返回内置模板目录
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

func (c *Catalog) Len() int {
	return len(c.templates)
}

func (c *Catalog) ByID(id string) (entity.Template, error) {
	i, ok := c.index[id]
	if !ok {
		return entity.Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	return cloneTemplate(c.templates[i]), nil
}

func (c *Catalog) ByInstrument(it entity.InstrumentType) []entity.Template {
	return c.filter(func(t entity.Template) bool { return t.Supports(it) })
}

func (c *Catalog) ByCategory(category entity.Category) []entity.Template {
	return c.filter(func(t entity.Template) bool { return t.Category == category })
}

func (c *Catalog) All() []entity.Template {
	return c.filter(func(entity.Template) bool { return true })
}

func (c *Catalog) filter(keep func(entity.Template) bool) []entity.Template {
	return lo.FilterMap(c.templates, func(t entity.Template, _ int) (entity.Template, bool) {
		if !keep(t) {
			return entity.Template{}, false
		}
		return cloneTemplate(t), true
	})
}

func cloneTemplate(t entity.Template) entity.Template {
	t.Variables = append([]string(nil), t.Variables...)
	t.InstrumentTypes = append([]entity.InstrumentType(nil), t.InstrumentTypes...)
	t.MarketConditions = append([]entity.MarketCondition(nil), t.MarketConditions...)
	return t
}
