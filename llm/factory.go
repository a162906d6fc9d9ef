package llm

import (
	"errors"

	"github.com/gtoxlili/echoChart/config"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var ErrMissingAPIKey = errors.New("llm api key not configured")

// resolveClient 默认走 OpenAI，配置了 base_url 时使用兼容接口
func resolveClient(cfg config.LLMConfig) (openai.Client, error) {
	if cfg.APIKey == "" {
		return openai.Client{}, ErrMissingAPIKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// 重试由 Agent 自己处理
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return openai.NewClient(opts...), nil
}
