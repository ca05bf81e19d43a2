// Package server exposes the labeling tool's ML backend API, the static page
// server and the gRPC health service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
	"github.com/joseph-ayodele/property-annotator/internal/export"
	"github.com/joseph-ayodele/property-annotator/internal/llm"
	"github.com/joseph-ayodele/property-annotator/internal/repository"
)

const (
	modelClass   = "PropertyExtractor"
	noPagesError = "No pages found in the request."
	maxBodyBytes = 10 << 20
)

// Predictor is the batch orchestrator as seen by the HTTP layer.
type Predictor interface {
	Run(ctx context.Context, tasks []entity.Task) ([]entity.TaskResult, []entity.PageOutcome)
	ModelVersion() string
}

// CredentialStatus reports the oracle credential pool state.
type CredentialStatus interface {
	State() llm.CredentialState
}

type predictRequest struct {
	Tasks []entity.Task `json:"tasks"`
}

type predictResponse struct {
	Results []entity.TaskResult `json:"results"`
	Error   string              `json:"error,omitempty"`
}

type Backend struct {
	predictor Predictor
	creds     CredentialStatus
	runs      repository.PredictionRunRepository
	exporter  *export.Service
	logger    *slog.Logger
}

type BackendOption func(*Backend)

// WithRunLog enables the /runs endpoints backed by the prediction run log.
func WithRunLog(runs repository.PredictionRunRepository) BackendOption {
	return func(b *Backend) { b.runs = runs }
}

func NewBackend(predictor Predictor, creds CredentialStatus, logger *slog.Logger, opts ...BackendOption) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{predictor: predictor, creds: creds, logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	if b.runs != nil {
		b.exporter = export.NewService(b.runs, logger)
	}
	return b
}

// Handler returns the routed ML backend API.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", b.handlePredict)
	mux.HandleFunc("POST /setup", b.handleSetup)
	mux.HandleFunc("GET /health", b.handleHealth)
	mux.HandleFunc("POST /webhook", b.handleWebhook)
	if b.runs != nil {
		mux.HandleFunc("GET /runs", b.handleListRuns)
		mux.HandleFunc("GET /runs/{id}", b.handleGetRun)
		mux.HandleFunc("GET /runs/{id}/export.xlsx", b.handleExportRun)
	}
	return b.withRequestLog(mux)
}

func (b *Backend) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// run ids are always server generated; a client id is only logged
		rid := uuid.New().String()
		ctx := common.WithRequestID(r.Context(), rid)
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(ctx))
		b.logger.Debug("http.request",
			"req_id", rid,
			"client_req_id", r.Header.Get("X-Request-ID"),
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (b *Backend) handlePredict(w http.ResponseWriter, r *http.Request) {
	rid := common.RequestIDFromContext(r.Context())
	var req predictRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		b.logger.Warn("predict.bad_request", "req_id", rid, "error", err)
		writeError(w, b.logger, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if entity.PageCount(req.Tasks) == 0 {
		b.logger.Warn("predict.no_pages", "req_id", rid, "tasks", len(req.Tasks))
		writeJSON(w, b.logger, http.StatusOK, predictResponse{Results: []entity.TaskResult{}, Error: noPagesError})
		return
	}

	results, outcomes := b.predictor.Run(r.Context(), req.Tasks)
	annotations := 0
	for _, o := range outcomes {
		annotations += len(o.Annotations)
	}
	b.logger.Info("predict.ok",
		"req_id", rid,
		"tasks", len(results),
		"pages", len(outcomes),
		"annotations", annotations,
	)
	writeJSON(w, b.logger, http.StatusOK, predictResponse{Results: results})
}

func (b *Backend) handleSetup(w http.ResponseWriter, r *http.Request) {
	// The labeling tool posts its project config here; nothing in it changes extraction.
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxBodyBytes))
	writeJSON(w, b.logger, http.StatusOK, map[string]string{
		"status":        "ok",
		"model_version": b.predictor.ModelVersion(),
	})
}

func (b *Backend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := llm.CredentialsActive
	if b.creds != nil {
		state = b.creds.State()
	}
	writeJSON(w, b.logger, http.StatusOK, map[string]string{
		"status":      "UP",
		"model_class": modelClass,
		"credentials": string(state),
	})
}

func (b *Backend) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev struct {
		Action string `json:"action"`
	}
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&ev)
	b.logger.Info("webhook.received", "req_id", common.RequestIDFromContext(r.Context()), "action", ev.Action)
	writeJSON(w, b.logger, http.StatusOK, map[string]string{"status": "ok"})
}
