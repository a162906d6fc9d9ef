package prompts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Value 是渲染用的变量值：文本形式加上真值语义
type Value struct {
	text   string
	truthy bool
}

func String(s string) Value {
	return Value{text: s, truthy: s != ""}
}

func Number(f float64) Value {
	return Value{
		text:   strconv.FormatFloat(f, 'f', -1, 64),
		truthy: f != 0 && !math.IsNaN(f),
	}
}

func Int(n int64) Value {
	return Value{text: strconv.FormatInt(n, 10), truthy: n != 0}
}

func Bool(b bool) Value {
	return Value{text: strconv.FormatBool(b), truthy: b}
}

// List 以逗号连接，空列表为假
func List(items []string) Value {
	return Value{text: strings.Join(items, ","), truthy: len(items) > 0}
}

// FromAny 转换 JSON 解码得到的值，nil 视为未提供
func FromAny(v any) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Value{}, false
	case Value:
		return x, true
	case string:
		return String(x), true
	case bool:
		return Bool(x), true
	case float64:
		return Number(x), true
	case float32:
		return Number(float64(x)), true
	case int:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case int32:
		return Int(int64(x)), true
	case []string:
		return List(x), true
	case []float64:
		return List(lo.Map(x, func(f float64, _ int) string { return Number(f).text })), true
	case []any:
		return List(lo.FilterMap(x, func(item any, _ int) (string, bool) {
			iv, ok := FromAny(item)
			return iv.text, ok
		})), true
	case fmt.Stringer:
		return String(x.String()), true
	default:
		return String(fmt.Sprint(x)), true
	}
}

func (v Value) String() string {
	return v.text
}

func (v Value) Truthy() bool {
	return v.truthy
}

type Variables map[string]Value

// VariablesFrom 转换调用方传入的自定义变量
func VariablesFrom(raw map[string]any) Variables {
	vars := make(Variables, len(raw))
	for k, v := range raw {
		if val, ok := FromAny(v); ok {
			vars[k] = val
		}
	}
	return vars
}

// Merge 按顺序合并，后者覆盖前者
func Merge(layers ...Variables) Variables {
	size := lo.SumBy(layers, func(l Variables) int { return len(l) })
	out := make(Variables, size)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
