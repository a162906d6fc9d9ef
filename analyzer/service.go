// Package analyzer 串联一次图表分析：选模板、渲染提示词、调用视觉模型、
// 解析结果、写使用日志并更新用户画像。
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gtoxlili/echoChart/config"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/logger"
	"github.com/gtoxlili/echoChart/prompts"
	"github.com/gtoxlili/echoChart/session"
	"github.com/gtoxlili/echoChart/store"
	"github.com/gtoxlili/echoChart/utils"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// CustomAnalysisType 是自定义提示词在最近分析列表和使用日志中的类型
const CustomAnalysisType = "custom"

type Vision interface {
	Analyze(ctx context.Context, systemPrompt, prompt, imageData string) (string, error)
	Model() string
}

type Recorder interface {
	Record(ctx context.Context, rec entity.AnalysisRecord) error
}

type History interface {
	Recent(ctx context.Context, userID string, limit int) ([]store.UsageLog, error)
	CountRecentBySymbol(ctx context.Context, userID, symbol string, window int) (int64, error)
	RecentBySymbol(ctx context.Context, userID, symbol string, limit int) ([]store.UsageLog, error)
}

// Request 是一次分析请求，CustomPrompt 优先于 TemplateID，TemplateID 优先于自动选择
type Request struct {
	ImageData       string               `json:"imageData"`
	Market          entity.MarketContext `json:"marketContext"`
	TemplateID      string               `json:"templateId,omitempty"`
	Hint            string               `json:"analysisType,omitempty"`
	CustomPrompt    string               `json:"customPrompt,omitempty"`
	CustomVariables map[string]any       `json:"customVariables,omitempty"`
}

// Deps 中 Recorder 与 History 可以为空
type Deps struct {
	Engine   *prompts.Engine
	Vision   Vision
	Sessions *session.Manager
	Recorder Recorder
	History  History
	Log      *logger.Logger
}

type Service struct {
	engine        *prompts.Engine
	vision        Vision
	sessions      *session.Manager
	recorder      Recorder
	history       History
	log           *logger.Logger
	maxConcurrent int
	now           func() time.Time
}

func NewService(d Deps, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = config.MaxConcurrentAnalyze
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		engine:        d.Engine,
		vision:        d.Vision,
		sessions:      d.Sessions,
		recorder:      d.Recorder,
		history:       d.History,
		log:           log,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// Prepared 是调用模型前的中间结果
type Prepared struct {
	Template     entity.Template `json:"template"`
	AnalysisType string          `json:"analysisType"`
	SystemPrompt string          `json:"systemPrompt"`
	Prompt       string          `json:"prompt"`
}

// Prepare 校验请求并生成系统提示词和用户提示词，不产生任何副作用
func (s *Service) Prepare(userID string, req Request) (Prepared, error) {
	if err := req.Market.Validate(); err != nil {
		return Prepared{}, fmt.Errorf("%w: %w", ErrInvalidMarket, err)
	}
	user := s.sessions.Get(userID)

	p := Prepared{SystemPrompt: prompts.BuildSystemPrompt(req.Market, user)}
	if strings.TrimSpace(req.CustomPrompt) != "" {
		p.Prompt = req.CustomPrompt
		p.AnalysisType = CustomAnalysisType
		return p, nil
	}

	var err error
	if req.TemplateID != "" {
		p.Template, err = s.engine.Template(req.TemplateID)
	} else {
		p.Template, err = s.engine.SelectOptimalTemplate(req.Market, user, req.Hint)
	}
	if err != nil {
		return Prepared{}, err
	}
	p.Prompt, err = s.engine.BuildPrompt(p.Template, req.Market, user, prompts.VariablesFrom(req.CustomVariables))
	if err != nil {
		return Prepared{}, err
	}
	p.AnalysisType = string(p.Template.Category)
	return p, nil
}

// Analyze 执行一次完整分析。模型调用失败会返回错误，输出无法解析时使用兜底结果。
func (s *Service) Analyze(ctx context.Context, userID string, req Request) (entity.AnalysisRecord, error) {
	if strings.TrimSpace(req.ImageData) == "" {
		return entity.AnalysisRecord{}, ErrMissingImage
	}
	s.seedFromHistory(ctx, userID)
	p, err := s.Prepare(userID, req)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}

	log := s.log.With("user", userID, "symbol", req.Market.Symbol, "type", p.AnalysisType)
	log.Info("analyzer: requesting analysis", "template", p.Template.ID)

	raw, err := s.vision.Analyze(ctx, p.SystemPrompt, p.Prompt, req.ImageData)
	if err != nil {
		return entity.AnalysisRecord{}, fmt.Errorf("vision analysis failed: %w", err)
	}

	user := s.sessions.Get(userID)
	result := ParseAnalysis(raw, req.Market, user)
	if result.Fallback {
		log.Warn("analyzer: model output not parseable, using fallback", "raw", utils.Truncate(raw, 200))
	}

	rec := entity.AnalysisRecord{
		UserID:       userID,
		Symbol:       req.Market.Symbol,
		TemplateID:   p.Template.ID,
		AnalysisType: p.AnalysisType,
		Prompt:       p.Prompt,
		Result:       result,
		Model:        s.vision.Model(),
		CreatedAt:    s.now(),
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, rec); err != nil {
			log.Warn("analyzer: failed to record usage log", "error", err)
		}
	}
	s.sessions.RecordAnalysis(userID, p.AnalysisType)
	return rec, nil
}

// BatchResult 与请求按下标一一对应
type BatchResult struct {
	Record entity.AnalysisRecord `json:"record"`
	Err    error                 `json:"-"`
}

// AnalyzeBatch 并发执行互不相关的请求，单个失败不影响其他请求
func (s *Service) AnalyzeBatch(ctx context.Context, userID string, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, req := range reqs {
		g.Go(func() error {
			rec, err := s.Analyze(gctx, userID, req)
			results[i] = BatchResult{Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Insights 根据使用日志和最近分析类型给出提示，次数只统计最近 config.InsightWindow 条记录
func (s *Service) Insights(ctx context.Context, userID, symbol string) ([]string, error) {
	insights := make([]string, 0, 3)

	if s.history != nil && symbol != "" {
		n, err := s.history.CountRecentBySymbol(ctx, userID, symbol, config.InsightWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to count analyses: %w", err)
		}
		if n > 0 {
			insights = append(insights, fmt.Sprintf("You've analyzed %s %d times recently", symbol, n))

			last, err := s.history.RecentBySymbol(ctx, userID, symbol, 1)
			if err != nil {
				return nil, fmt.Errorf("failed to load last analysis: %w", err)
			}
			if len(last) > 0 {
				if hours := int(s.now().Sub(last[0].CreatedAt).Hours()); hours >= 0 && hours < 24 {
					insights = append(insights, fmt.Sprintf("Last analysis was %d hours ago", hours))
				}
			}
		}
	}

	s.seedFromHistory(ctx, userID)
	recent := s.sessions.Get(userID).RecentAnalyses
	if len(recent) > 3 {
		recent = recent[:3]
	}
	if len(recent) > 0 {
		insights = append(insights, "Recent focus: "+strings.Join(recent, ", "))
	}
	return insights, nil
}

// seedFromHistory 在会话画像为空时用使用日志恢复最近分析类型，例如服务重启后
func (s *Service) seedFromHistory(ctx context.Context, userID string) {
	if s.history == nil || len(s.sessions.Get(userID).RecentAnalyses) > 0 {
		return
	}
	rows, err := s.history.Recent(ctx, userID, s.sessions.RecentCap())
	if err != nil {
		s.log.Warn("analyzer: failed to load history", "user", userID, "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	s.sessions.Seed(userID, lo.Map(rows, func(r store.UsageLog, _ int) string { return r.AnalysisType }))
}

// IsCatalogMiss 判断错误是否来自模板目录，调用方据此返回可读的提示
func IsCatalogMiss(err error) bool {
	return errors.Is(err, prompts.ErrTemplateNotFound) || errors.Is(err, prompts.ErrNoTemplateForInstrument)
}
