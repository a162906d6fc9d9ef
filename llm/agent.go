package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gtoxlili/echoChart/config"
	"github.com/gtoxlili/echoChart/utils"

	"github.com/openai/openai-go/v2"
	"github.com/samber/lo"
)

var ErrEmptyCompletion = errors.New("no choices in completion")

// Agent 把渲染好的提示词和图表截图发送给视觉模型
type Agent struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	maxRetries  int
}

func NewAgent(cfg config.LLMConfig) (*Agent, error) {
	client, err := resolveClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel
	}
	return &Agent{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

func (a *Agent) Model() string {
	return a.model
}

// Analyze 返回模型的原始文本输出，解析由调用方负责
func (a *Agent) Analyze(ctx context.Context, systemPrompt, prompt, imageData string) (string, error) {
	param := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    ImageURL(imageData),
					Detail: "high",
				}),
			}),
		},
		Temperature: openai.Float(a.temperature),
	}
	if a.maxTokens > 0 {
		param.MaxTokens = openai.Int(a.maxTokens)
	}

	completion, err := utils.RetryWithBackoff(ctx, func() (*openai.ChatCompletion, error) {
		completion, err := a.client.Chat.Completions.New(ctx, param)
		if err != nil && !transient(err) {
			return nil, utils.Permanent(err)
		}
		return completion, err
	}, a.maxRetries)
	if err != nil {
		return lo.Empty[string](), fmt.Errorf("failed to get completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return lo.Empty[string](), ErrEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}

// transient 判断错误是否值得重试：4xx 中只有超时、冲突和限流会重试
func transient(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	switch code := apiErr.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests:
		return true
	case code >= 400 && code < 500:
		return false
	}
	return true
}

// ImageURL 接受 data URL、http(s) URL 或裸 base64，裸数据按 PNG 处理
func ImageURL(imageData string) string {
	s := strings.TrimSpace(imageData)
	if strings.HasPrefix(s, "data:") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "data:image/png;base64," + s
}
