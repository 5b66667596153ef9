package httpadapter

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/ports"
	"github.com/finvetra/fund-recommender/internal/observability/metrics"
)

// ReportWriter streams the embedding audit workbook.
type ReportWriter interface {
	Write(ctx context.Context, w io.Writer) error
}

type Config struct {
	Service        string
	RateLimitRPS   int
	RateLimitBurst int
	MaxConcurrent  int
	SaturationWait time.Duration
}

type Router struct {
	cfg           Config
	questionnaire ports.QuestionnaireService
	intake        ports.ResponseIntake
	completion    ports.CompletionService
	recommender   ports.Recommender
	maintenance   ports.MaintenanceService
	filters       ports.FilterOptionCache
	report        ReportWriter
	metrics       *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg Config,
	questionnaire ports.QuestionnaireService,
	intake ports.ResponseIntake,
	completion ports.CompletionService,
	recommender ports.Recommender,
	maintenance ports.MaintenanceService,
	filters ports.FilterOptionCache,
	report ReportWriter,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	if cfg.SaturationWait <= 0 {
		cfg.SaturationWait = 100 * time.Millisecond
	}
	return &Router{
		cfg:           cfg,
		questionnaire: questionnaire,
		intake:        intake,
		completion:    completion,
		recommender:   recommender,
		maintenance:   maintenance,
		filters:       filters,
		report:        report,
		metrics:       httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/questionnaire/sections/{id}/questions", rt.sectionQuestions)
	mux.HandleFunc("POST /v1/questionnaire/sections/{id}/responses", rt.submitResponses)
	mux.HandleFunc("POST /v1/questionnaire/sections/{id}/commit", rt.commitSection)
	mux.HandleFunc("GET /v1/questionnaire/completion", rt.totalCompletion)

	mux.HandleFunc("GET /v1/recommendations", rt.recommend)
	mux.HandleFunc("GET /v1/filters", rt.filterOptions)

	mux.HandleFunc("POST /v1/admin/options/rebuild", rt.rebuildOptions)
	mux.HandleFunc("POST /v1/admin/vectors/rebuild", rt.rebuildVectors)
	mux.HandleFunc("GET /v1/admin/embeddings/report", rt.embeddingReport)

	var handler http.Handler = mux
	handler = rt.metricsMiddleware(handler)
	handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, rt.cfg.SaturationWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) metricsMiddleware(next http.Handler) http.Handler {
	if rt.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rt.metrics.StartRequest()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		rt.metrics.FinishRequest()
		rt.metrics.ObserveRequest(rt.cfg.Service, r.Method, r.URL.Path, recorder.statusCode, time.Since(start))
	})
}

// userIDFromRequest resolves the authenticated user id set by the edge
// identity provider, with a query-parameter fallback for tooling.
func userIDFromRequest(r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
