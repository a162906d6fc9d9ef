package main

import (
	"fmt"

	"github.com/gtoxlili/echoChart/analyzer"
	"github.com/gtoxlili/echoChart/llm"
	"github.com/gtoxlili/echoChart/prompts"
	"github.com/gtoxlili/echoChart/session"
	"github.com/gtoxlili/echoChart/store"
)

// app 持有一次命令执行所需的全部组件
type app struct {
	engine   *prompts.Engine
	sessions *session.Manager
	store    *store.Store
	analyzer *analyzer.Service
}

func newEngine() (*prompts.Engine, error) {
	var (
		catalog *prompts.Catalog
		err     error
	)
	if path := cfg.Selection.CatalogPath; path != "" {
		catalog, err = prompts.LoadCatalogFile(path)
	} else {
		catalog, err = prompts.DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}
	rules, err := cfg.Selection.Rules()
	if err != nil {
		return nil, err
	}
	log.Debug("catalog loaded", "templates", catalog.Len())
	return prompts.NewEngine(catalog, rules), nil
}

// newSessions 创建会话管理器并恢复快照
func newSessions() (*session.Manager, error) {
	sessions := session.NewManager(cfg.Session.RecentCap, log)
	if path := cfg.Session.SnapshotPath; path != "" {
		if err := sessions.Load(path); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// newApp 组装分析链路，needVision 为 false 时不创建模型客户端
func newApp(needVision bool) (*app, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	sessions, err := newSessions()
	if err != nil {
		return nil, err
	}
	a := &app{engine: engine, sessions: sessions}
	if !needVision {
		a.analyzer = analyzer.NewService(analyzer.Deps{Engine: engine, Sessions: sessions, Log: log}, cfg.Analysis.MaxConcurrent)
		return a, nil
	}

	agent, err := llm.NewAgent(cfg.LLM)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.DSN, cfg.Analysis.PromptLogMaxRunes)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.analyzer = analyzer.NewService(analyzer.Deps{
		Engine:   engine,
		Vision:   agent,
		Sessions: sessions,
		Recorder: st,
		History:  st,
		Log:      log,
	}, cfg.Analysis.MaxConcurrent)
	return a, nil
}

// Close 保存会话快照并关闭数据库
func (a *app) Close() error {
	var firstErr error
	if path := cfg.Session.SnapshotPath; path != "" {
		if err := a.sessions.Save(path); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("store: %w", err)
		}
	}
	return firstErr
}
