package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"
	"unsafe"

	json "github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"github.com/samber/lo"
)

var ErrNoJSON = errors.New("no JSON object found in response")

// ParseResult 从模型输出中提取 JSON 对象，修复后解码为 T
func ParseResult[T any](responseContent string) (T, error) {
	raw, err := ExtractJSON(responseContent)
	if err != nil {
		return lo.Empty[T](), err
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return lo.Empty[T](), fmt.Errorf("failed to repair JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(unsafe.Slice(unsafe.StringData(repaired), len(repaired)), &result); err != nil {
		return lo.Empty[T](), fmt.Errorf("failed to parse analysis result: %w", err)
	}
	return result, nil
}

// ExtractJSON 依次尝试 ```json 代码块、最外层花括号、普通代码块
func ExtractJSON(content string) (string, error) {
	if body, ok := fenced(content, "```json"); ok {
		return body, nil
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1], nil
	}
	if body, ok := fenced(content, "```"); ok && strings.TrimSpace(body) != "" {
		return body, nil
	}
	return "", ErrNoJSON
}

func fenced(content, opener string) (string, bool) {
	i := strings.Index(content, opener)
	if i < 0 {
		return "", false
	}
	rest := content[i+len(opener):]
	j := strings.Index(rest, "```")
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}

// Truncate 按字符数截断，不会切断多字节字符
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent 标记不可重试的错误，RetryWithBackoff 遇到后直接返回原错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff 执行泛型操作 op，并在失败时按指数退避重试。
// maxRetries 指定最大重试次数（不含首次尝试）；ctx 取消时立即返回。
func RetryWithBackoff[T any](ctx context.Context, op func() (T, error), maxRetries int) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseDelay := 100 * time.Millisecond
	maxDelay := 5 * time.Second

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		res, err := op()
		if err == nil {
			return res, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return lo.Empty[T](), perm.err
		}
		if attempt == maxRetries {
			break
		}

		// 指数退避：delay = min(maxDelay, baseDelay * 2^attempt)
		delay := baseDelay << attempt
		if delay > maxDelay {
			delay = maxDelay
		}

		// 带抖动：在 [delay/2, delay] 区间随机
		half := delay / 2
		jitter := half + time.Duration(rand.Int63n(int64(delay-half)+1))
		select {
		case <-ctx.Done():
			return lo.Empty[T](), ctx.Err()
		case <-time.After(jitter):
		}
	}

	return lo.Empty[T](), fmt.Errorf("after %d retries, last error: %w", maxRetries, lastErr)
}

func Avg(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return lo.Sum(data) / float64(len(data))
}

func StdDev(data []float64) float64 {
	// 至少需要2个点才能计算标准差
	if len(data) < 2 {
		return 0.0
	}

	mean := Avg(data)
	sumOfSquares := 0.0
	for _, val := range data {
		sumOfSquares += math.Pow(val-mean, 2)
	}

	// 使用样本标准差 (n-1)
	variance := sumOfSquares / float64(len(data)-1)
	return math.Sqrt(variance)
}
