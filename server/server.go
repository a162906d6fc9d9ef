// Package server 通过 HTTP 暴露模板查询、提示词渲染、分析和用户画像接口。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtoxlili/echoChart/analyzer"
	"github.com/gtoxlili/echoChart/logger"
	"github.com/gtoxlili/echoChart/prompts"
	"github.com/gtoxlili/echoChart/session"
)

const shutdownTimeout = 10 * time.Second

type Deps struct {
	Engine      *prompts.Engine
	Analyzer    *analyzer.Service
	Sessions    *session.Manager
	Log         *logger.Logger
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{
		engine:   d.Engine,
		analyzer: d.Analyzer,
		sessions: d.Sessions,
		log:      log,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(corsMiddleware(d.CORSOrigins))

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	{
		api.GET("/templates", h.listTemplates)
		api.GET("/templates/:id", h.getTemplate)

		api.POST("/prompts/select", h.selectTemplate)
		api.POST("/prompts/render", h.renderPrompt)

		api.POST("/analyze", h.analyze)
		api.POST("/analyze/batch", h.analyzeBatch)

		api.GET("/users/:id/context", h.getUserContext)
		api.PATCH("/users/:id/context", h.patchUserContext)
		api.GET("/users/:id/insights", h.insights)
	}
	return r
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(d), log: log}
}

// Run 阻塞直到 ctx 取消，随后优雅关闭
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("server: shutting down")
	return srv.Shutdown(shutdownCtx)
}
