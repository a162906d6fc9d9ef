package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtoxlili/echoChart/analyzer"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/logger"
	"github.com/gtoxlili/echoChart/prompts"
	"github.com/gtoxlili/echoChart/session"
	"github.com/samber/lo"
)

const (
	defaultUserID = "anonymous"
	maxBatchSize  = 10
)

type handler struct {
	engine   *prompts.Engine
	analyzer *analyzer.Service
	sessions *session.Manager
	log      *logger.Logger
}

// GET /healthz
func (h *handler) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/templates?category=&instrument=
func (h *handler) listTemplates(c *gin.Context) {
	templates := h.engine.Catalog().All()

	if raw := c.Query("category"); raw != "" {
		category, err := entity.ParseCategory(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_category", err)
			return
		}
		templates = h.engine.TemplatesByCategory(category)
	}
	if raw := c.Query("instrument"); raw != "" {
		it, err := entity.ParseInstrumentType(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_instrument", err)
			return
		}
		templates = lo.Filter(templates, func(t entity.Template, _ int) bool { return t.Supports(it) })
	}
	respondOK(c, gin.H{"templates": templates})
}

// GET /api/templates/:id
func (h *handler) getTemplate(c *gin.Context) {
	t, err := h.engine.Template(c.Param("id"))
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respondOK(c, gin.H{"template": t})
}

type selectRequest struct {
	UserID string               `json:"userId"`
	Market entity.MarketContext `json:"marketContext"`
	Hint   string               `json:"analysisType"`
}

// POST /api/prompts/select
func (h *handler) selectTemplate(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := req.Market.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_market", err)
		return
	}
	user := h.sessions.Get(userIDOrDefault(req.UserID))
	t, err := h.engine.SelectOptimalTemplate(req.Market, user, req.Hint)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respondOK(c, gin.H{"template": t})
}

type analyzeRequest struct {
	UserID string `json:"userId"`
	analyzer.Request
}

// POST /api/prompts/render 只渲染不调用模型，imageData 可以为空
func (h *handler) renderPrompt(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.analyzer.Prepare(userIDOrDefault(req.UserID), req.Request)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respondOK(c, p)
}

// POST /api/analyze
func (h *handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.analyzer.Analyze(c.Request.Context(), userIDOrDefault(req.UserID), req.Request)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respondOK(c, rec)
}

type batchRequest struct {
	UserID   string             `json:"userId"`
	Requests []analyzer.Request `json:"requests"`
}

type batchItem struct {
	Record *entity.AnalysisRecord `json:"record,omitempty"`
	Error  *APIError              `json:"error,omitempty"`
}

// POST /api/analyze/batch
func (h *handler) analyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Requests) == 0 || len(req.Requests) > maxBatchSize {
		respondError(c, http.StatusBadRequest, "invalid_batch", errors.New("requests must contain between 1 and 10 items"))
		return
	}
	results := h.analyzer.AnalyzeBatch(c.Request.Context(), userIDOrDefault(req.UserID), req.Requests)
	items := lo.Map(results, func(r analyzer.BatchResult, _ int) batchItem {
		if r.Err != nil {
			_, code := classify(r.Err)
			return batchItem{Error: &APIError{Message: r.Err.Error(), Code: code}}
		}
		return batchItem{Record: &r.Record}
	})
	respondOK(c, gin.H{"results": items})
}

// GET /api/users/:id/context
func (h *handler) getUserContext(c *gin.Context) {
	respondOK(c, h.sessions.Get(c.Param("id")))
}

type contextPatch struct {
	entity.ProfilePatch
	Preferences *entity.PreferencesPatch `json:"preferences,omitempty"`
}

// PATCH /api/users/:id/context
func (h *handler) patchUserContext(c *gin.Context) {
	var req contextPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	uc, err := h.sessions.Update(c.Param("id"), req.ProfilePatch, req.Preferences)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_context", err)
		return
	}
	respondOK(c, uc)
}

// GET /api/users/:id/insights?symbol=
func (h *handler) insights(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	insights, err := h.analyzer.Insights(c.Request.Context(), c.Param("id"), symbol)
	if err != nil {
		h.log.Error("server: failed to build insights", "error", err)
		respondError(c, http.StatusInternalServerError, "insights_failed", err)
		return
	}
	respondOK(c, gin.H{"insights": insights})
}

func (h *handler) respondAnalysisError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("server: analysis failed", "error", err)
	}
	respondError(c, status, code, err)
}

// classify 把领域错误映射为 HTTP 状态码和错误码
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analyzer.ErrMissingImage):
		return http.StatusBadRequest, "missing_image"
	case errors.Is(err, analyzer.ErrInvalidMarket):
		return http.StatusBadRequest, "invalid_market"
	case errors.Is(err, prompts.ErrTemplateNotFound):
		return http.StatusNotFound, "template_not_found"
	case errors.Is(err, prompts.ErrNoTemplateForInstrument):
		return http.StatusUnprocessableEntity, "no_template_for_instrument"
	default:
		return http.StatusBadGateway, "analysis_failed"
	}
}

func userIDOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return defaultUserID
	}
	return id
}
