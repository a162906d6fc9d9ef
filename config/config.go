// Package config 加载 echoChart 的配置：默认值 < 配置文件 < 环境变量。
// 环境变量格式为 ECHOCHART_<SECTION>_<KEY>，例如 ECHOCHART_LLM_API_KEY。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/prompts"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Session   SessionConfig   `mapstructure:"session"`
	Selection SelectionConfig `mapstructure:"selection"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Collector CollectorConfig `mapstructure:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StoreConfig struct {
	// DSN 为 sqlite 文件路径，":memory:" 表示内存库
	DSN string `mapstructure:"dsn"`
}

type SessionConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	RecentCap    int    `mapstructure:"recent_cap"`
}

// SelectionConfig 覆盖模板选择的关键字规则
type SelectionConfig struct {
	CatalogPath       string            `mapstructure:"catalog_path"`
	NoviceAvoidTerm   string            `mapstructure:"novice_avoid_term"`
	Specializations   map[string]string `mapstructure:"specializations"`
	DefaultTemplateID string            `mapstructure:"default_template_id"`
}

type AnalysisConfig struct {
	PromptLogMaxRunes int `mapstructure:"prompt_log_max_runes"`
	MaxConcurrent     int `mapstructure:"max_concurrent"`
}

type CollectorConfig struct {
	BinanceAPIKey    string  `mapstructure:"binance_api_key"`
	BinanceSecretKey string  `mapstructure:"binance_secret_key"`
	KlineInterval    string  `mapstructure:"kline_interval"`
	KlineLimit       int     `mapstructure:"kline_limit"`
	VolatileChange   float64 `mapstructure:"volatile_change_pct"`
	VolatileStdDev   float64 `mapstructure:"volatile_stddev_pct"`
}

type LoggingConfig struct {
	// Mode 为 "dev" 或 "prod"
	Mode string `mapstructure:"mode"`
}

// Load 依次读取 .env、./config/config.yaml、~/.echochart/config.yaml，
// path 非空时只读取该文件且文件必须存在。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".echochart"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// 兼容通用的 OPENAI_API_KEY
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.temperature", LLMTemperature)
	v.SetDefault("llm.max_tokens", LLMMaxTokens)
	v.SetDefault("llm.max_retries", LLMMaxRetries)
	v.SetDefault("llm.timeout", LLMRequestTimeout)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("store.dsn", "echochart.db")

	v.SetDefault("session.snapshot_path", "sessions.json")
	v.SetDefault("session.recent_cap", 5)

	v.SetDefault("selection.catalog_path", "")
	v.SetDefault("selection.novice_avoid_term", "comprehensive")
	v.SetDefault("selection.specializations", map[string]string{"OPTION": "option"})
	v.SetDefault("selection.default_template_id", "comprehensive_chart_analysis")

	v.SetDefault("analysis.prompt_log_max_runes", PromptLogMaxRunes)
	v.SetDefault("analysis.max_concurrent", MaxConcurrentAnalyze)

	v.SetDefault("collector.binance_api_key", "")
	v.SetDefault("collector.binance_secret_key", "")
	v.SetDefault("collector.kline_interval", "1d")
	v.SetDefault("collector.kline_limit", KlineLimit)
	v.SetDefault("collector.volatile_change_pct", VolatileChangePct)
	v.SetDefault("collector.volatile_stddev_pct", VolatileStdDevPct)

	v.SetDefault("logging.mode", "dev")
}

// Rules 转换为模板选择规则，品种名不区分大小写
func (s SelectionConfig) Rules() (prompts.SelectionRules, error) {
	rules := prompts.SelectionRules{
		NoviceAvoidTerm:   s.NoviceAvoidTerm,
		Specializations:   make(map[entity.InstrumentType]string, len(s.Specializations)),
		DefaultTemplateID: s.DefaultTemplateID,
	}
	for k, term := range s.Specializations {
		it, err := entity.ParseInstrumentType(k)
		if err != nil {
			return prompts.SelectionRules{}, fmt.Errorf("selection.specializations: %w", err)
		}
		rules.Specializations[it] = term
	}
	return rules, nil
}
