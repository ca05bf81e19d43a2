// Package app wires configuration into a ready-to-run prediction stack.
package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/llm"
	"github.com/joseph-ayodele/property-annotator/internal/llm/openai"
	"github.com/joseph-ayodele/property-annotator/internal/ocr"
	"github.com/joseph-ayodele/property-annotator/internal/ocr/tesseract"
	"github.com/joseph-ayodele/property-annotator/internal/pipeline"
	"github.com/joseph-ayodele/property-annotator/internal/repository"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config       *common.Config
	Logger       *slog.Logger
	Credentials  *llm.CredentialPool
	Oracle       *openai.Client
	OCR          *ocr.Extractor
	Orchestrator *pipeline.Orchestrator

	// DB and Runs are nil when STORE_DSN is empty.
	DB   *repository.DB
	Runs repository.PredictionRunRepository
}

// NewLogger returns a JSON slog logger at the configured level and installs it as default.
func NewLogger(cfg *common.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)
	return logger
}

type Option func(*options)

type options struct {
	engine     ocr.Engine
	oracle     []openai.Option
	allowLocal bool
}

// WithEngine replaces the tesseract engine.
func WithEngine(e ocr.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithLocalImages lets page sources be file:// URLs or local paths. Only
// offline tools should enable it; the HTTP backend fetches over http(s) only.
func WithLocalImages() Option {
	return func(o *options) { o.allowLocal = true }
}

// WithOracleOptions passes options through to the oracle client.
func WithOracleOptions(opts ...openai.Option) Option {
	return func(o *options) { o.oracle = append(o.oracle, opts...) }
}

// Build validates cfg and wires credentials, oracle, OCR, run log and orchestrator.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	creds, err := llm.NewCredentialPool(cfg.Credentials())
	if err != nil {
		return nil, err
	}
	oracle := openai.NewClient(openai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, creds, logger, o.oracle...)
	logger.Info("oracle client initialized", "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL, "credentials", creds.Size())

	engine := o.engine
	if engine == nil {
		engine = tesseract.NewEngine(tesseract.Config{
			Languages:   strings.Split(cfg.OCR.Lang, "+"),
			TessdataDir: cfg.OCR.TessdataDir,
		})
	}
	extractor := ocr.NewExtractor(ocr.Config{
		FetchTimeout:  cfg.OCR.FetchTimeout,
		MaxImageBytes: cfg.OCR.MaxImageBytes,
		AllowLocal:    o.allowLocal,
	}, engine, logger)

	a := &App{
		Config:      cfg,
		Logger:      logger,
		Credentials: creds,
		Oracle:      oracle,
		OCR:         extractor,
	}

	orchOpts := []pipeline.Option{pipeline.WithModelVersion(cfg.Server.ModelVersion)}
	if cfg.Store.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Store.DSN,
			MaxConns:        10,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     5 * time.Second,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
			db.Close(logger)
			return nil, err
		}
		a.DB = db
		a.Runs = repository.NewPredictionRunRepository(db, logger)
		orchOpts = append(orchOpts, pipeline.WithRecorder(a.Runs))
		logger.Info("run log enabled", "dialect", db.Dialect)
	} else {
		logger.Warn("STORE_DSN not set, prediction runs will not be recorded")
	}

	a.Orchestrator = pipeline.NewOrchestrator(logger, extractor, oracle, orchOpts...)
	return a, nil
}

// Close releases the run log connection, if any.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
	}
}
