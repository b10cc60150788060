package chi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/version"
)

const defaultMaxBodyBytes = 32 << 20

// DefaultLimits are the request limits of a server without WithLimits.
var DefaultLimits = Limits{
	MaxShards:       request.MaxShards,
	MaxHitsPerShard: request.MaxHitsPerShard,
	MaxBodyBytes:    defaultMaxBodyBytes,
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Limits caps the size of a fusion request.
type Limits struct {
	MaxShards       int
	MaxHitsPerShard int
	MaxBodyBytes    int64
}

// Server serves the fusion and pipeline HTTP API.
type Server struct {
	fusion        *fusionuc.Service
	pipelines     *pipelineuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	limits        Limits
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	fusion *fusionuc.Service,
	pipelines *pipelineuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		fusion:    fusion,
		pipelines: pipelines,
		health:    health,
		logger:    logger,
		limits:    DefaultLimits,
	}
	s.errorHandlers = []errorHandler{
		fusionErrorHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodePipelineNotFound, false),
		sentinelHandler(domain.ErrInvalidPipeline, http.StatusBadRequest, CodeInvalidPipeline, true),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed, true),
	}
	return s
}

// WithLimits overrides the default request limits. Zero fields keep their defaults.
func (s *Server) WithLimits(l Limits) *Server {
	if l.MaxShards > 0 {
		s.limits.MaxShards = l.MaxShards
	}
	if l.MaxHitsPerShard > 0 {
		s.limits.MaxHitsPerShard = l.MaxHitsPerShard
	}
	if l.MaxBodyBytes > 0 {
		s.limits.MaxBodyBytes = l.MaxBodyBytes
	}
	return s
}

// Routes registers the API routes on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/fuse", s.Fuse)
	r.Get("/pipelines", s.ListPipelines)
	r.Put("/pipelines/{name}", s.PutPipeline)
	r.Get("/pipelines/{name}", s.GetPipeline)
	r.Delete("/pipelines/{name}", s.DeletePipeline)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Fuse handles POST /fuse.
func (s *Server) Fuse(w http.ResponseWriter, r *http.Request) {
	var body FuseRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	var explainParam *bool
	if err := runtime.BindQueryParameter("form", true, false, "explain", r.URL.Query(), &explainParam); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter explain: "+err.Error())
		return
	}
	if explainParam != nil {
		body.Explain = *explainParam
	}
	var pipelineParam *string
	if err := runtime.BindQueryParameter("form", true, false, "pipeline", r.URL.Query(), &pipelineParam); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter pipeline: "+err.Error())
		return
	}
	if pipelineParam != nil {
		body.Pipeline = *pipelineParam
	}

	req, err := RequestFromBody(body, s.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	resp, err := s.fusion.Fuse(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewFuseResponse(resp))
}

// ListPipelines handles GET /pipelines.
func (s *Server) ListPipelines(w http.ResponseWriter, r *http.Request) {
	ps, err := s.pipelines.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]Pipeline, len(ps))
	for i, p := range ps {
		items[i] = pipelineToBody(p)
	}
	writeJSON(w, http.StatusOK, PipelineList{Items: items})
}

// PutPipeline handles PUT /pipelines/{name}. Responds 201 on create, 200 on replace.
func (s *Server) PutPipeline(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	var body PipelineRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	def, err := definitionFromBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPipeline, err.Error())
		return
	}

	p, created, err := s.pipelines.Put(r.Context(), name, def)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, pipelineToBody(p))
}

// GetPipeline handles GET /pipelines/{name}.
func (s *Server) GetPipeline(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	p, err := s.pipelines.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipelineToBody(p))
}

// DeletePipeline handles DELETE /pipelines/{name}.
func (s *Server) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	if err := s.pipelines.Delete(r.Context(), name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Pipelines: report.Pipelines,
		Version:   version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.limits.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// RequestFromBody validates a fusion request body against limits.
func RequestFromBody(body FuseRequest, limits Limits) (request.Request, error) {
	if len(body.Shards) > limits.MaxShards {
		return request.Request{}, fmt.Errorf("too many shards (max %d)", limits.MaxShards)
	}

	shards := make([]request.ShardResult, len(body.Shards))
	for i, sr := range body.Shards {
		if len(sr.Hits) > limits.MaxHitsPerShard {
			return request.Request{}, fmt.Errorf(
				"too many hits for shard %s (max %d)", sr.Shard, limits.MaxHitsPerShard,
			)
		}
		shards[i] = request.ShardResult{Shard: sr.Shard, Hits: sr.Hits, CacheEligible: sr.CacheEligible}
	}

	var fetch []request.FetchSet
	if body.Fetch != nil {
		fetch = make([]request.FetchSet, len(*body.Fetch))
		for i, f := range *body.Fetch {
			fetch[i] = request.FetchSet{Shard: f.Shard, Documents: f.Documents}
		}
	}

	inline, err := techniquesFromBody(body.Normalization, body.RankConstant, body.Combination, body.Weights)
	if err != nil {
		return request.Request{}, err
	}

	return request.New(shards, fetch, body.Pipeline, inline, body.From, body.Explain)
}

func techniquesFromBody(norm string, rank int, comb string, weights []float32) (request.Techniques, error) {
	t := request.Techniques{RankConstant: rank, Weights: weights}
	if norm != "" {
		n, err := technique.ParseNormalization(norm)
		if err != nil {
			return request.Techniques{}, err
		}
		t.Normalization = n
	}
	if comb != "" {
		c, err := technique.ParseCombination(comb)
		if err != nil {
			return request.Techniques{}, err
		}
		t.Combination = c
	}
	return t, nil
}

func definitionFromBody(body PipelineRequest) (pipelineuc.Definition, error) {
	t, err := techniquesFromBody(body.Normalization, body.RankConstant, body.Combination, body.Weights)
	if err != nil {
		return pipelineuc.Definition{}, err
	}
	return pipelineuc.Definition{
		Description:   body.Description,
		Normalization: t.Normalization,
		RankConstant:  t.RankConstant,
		Combination:   t.Combination,
		Weights:       t.Weights,
	}, nil
}

func pathName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithLocation(
		"simple", false, "name", runtime.ParamLocationPath, gochi.URLParam(r, "name"), &name,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter name: "+err.Error())
		return "", false
	}
	return name, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// fusionStatus maps fusion error kinds to HTTP status and code.
var fusionStatus = map[domain.ErrorKind]struct {
	status int
	code   string
}{
	domain.KindWeightCountMismatch:           {http.StatusBadRequest, CodeWeightCountMismatch},
	domain.KindPaginationExhausted:           {http.StatusBadRequest, CodePaginationExhausted},
	domain.KindMalformedWireFormat:           {http.StatusBadRequest, CodeMalformedWireFormat},
	domain.KindUnreliableDocumentCorrelation: {http.StatusInternalServerError, CodeUnreliableDocumentCorrelation},
	domain.KindInconsistentState:             {http.StatusInternalServerError, CodeInconsistentState},
}

// fusionErrorHandler surfaces a FusionError message verbatim.
func fusionErrorHandler(w http.ResponseWriter, err error) bool {
	var fe *domain.FusionError
	if !errors.As(err, &fe) {
		return false
	}
	m, ok := fusionStatus[fe.Kind]
	if !ok {
		m.status, m.code = http.StatusInternalServerError, CodeInternalError
	}
	writeError(w, m.status, m.code, fe.Message)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// verbose returns the whole error chain instead of the sentinel text.
func sentinelHandler(sentinel error, status int, code string, verbose bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if verbose {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
