package prompts

import (
	"strings"

	"github.com/gtoxlili/echoChart/entity"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	// dotTag 在条件块内部引用该块自身的值
	dotTag = "."
)

type tokenKind uint8

const (
	textToken tokenKind = iota
	varToken
)

type token struct {
	kind tokenKind
	// textToken 为字面量；varToken 为变量名
	text string
	// raw 是原始标签，变量缺失时原样输出
	raw string
}

// Render 先展开条件块，再替换占位符。缺失的变量保留原始占位符，
// 未闭合的块标签和多余的结束标签同样原样保留。
func Render(body string, vars Variables) string {
	return substitute(resolveBlocks(body, vars, ""), vars)
}

// BuildPrompt 用合并后的上下文变量渲染模板
func BuildPrompt(t entity.Template, m entity.MarketContext, u entity.UserContext, custom Variables) (string, error) {
	if t.IsZero() {
		return "", ErrNilTemplate
	}
	return Render(t.Body, ContextVariables(m, u, custom)), nil
}

// resolveBlocks 按字面分隔符扫描，返回已处理完条件块的 token 序列。
// 块值为真时保留内部内容，否则连同标签一起删除；独占一行的块标签连同换行一起去掉。
func resolveBlocks(body string, vars Variables, section string) []token {
	var toks []token
	pos := 0
	for pos < len(body) {
		i := strings.Index(body[pos:], openDelim)
		if i < 0 {
			toks = appendText(toks, body[pos:])
			break
		}
		start := pos + i
		nameStart := start + len(openDelim)
		j := strings.Index(body[nameStart:], closeDelim)
		if j < 0 {
			toks = appendText(toks, body[pos:])
			break
		}
		name := body[nameStart : nameStart+j]
		end := nameStart + j + len(closeDelim)
		raw := body[start:end]
		toks = appendText(toks, body[pos:start])
		pos = end

		switch {
		case len(name) > 1 && name[0] == '#':
			block := name[1:]
			closing := openDelim + "/" + block + closeDelim
			k := strings.Index(body[end:], closing)
			if k < 0 {
				toks = appendText(toks, raw)
				continue
			}
			innerStart, innerEnd := end, end+k
			after := innerEnd + len(closing)
			if atLineStart(body, start) && strings.HasPrefix(body[innerStart:], "\n") &&
				atLineStart(body, innerEnd) && strings.HasPrefix(body[after:], "\n") {
				innerStart++
				after++
			}
			pos = after
			if v, ok := vars[block]; ok && v.Truthy() {
				toks = append(toks, resolveBlocks(body[innerStart:innerEnd], vars, block)...)
			}
		case name == dotTag && section != "":
			toks = append(toks, token{kind: varToken, text: section, raw: raw})
		default:
			toks = append(toks, token{kind: varToken, text: name, raw: raw})
		}
	}
	return toks
}

func substitute(toks []token, vars Variables) string {
	var b strings.Builder
	for _, t := range toks {
		if t.kind == textToken {
			b.WriteString(t.text)
			continue
		}
		if v, ok := vars[t.text]; ok {
			b.WriteString(v.String())
		} else {
			b.WriteString(t.raw)
		}
	}
	return b.String()
}

func appendText(toks []token, s string) []token {
	if s == "" {
		return toks
	}
	return append(toks, token{kind: textToken, text: s})
}

func atLineStart(s string, i int) bool {
	return i == 0 || s[i-1] == '\n'
}
