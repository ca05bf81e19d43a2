// Package pipeline runs OCR, property extraction and reconciliation over batches of page images.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
	"github.com/joseph-ayodele/property-annotator/internal/llm"
	"github.com/joseph-ayodele/property-annotator/internal/reconcile"
)

// PageOCR is the OCR step: page image URL in, fragments and dimensions out.
type PageOCR interface {
	Extract(ctx context.Context, url string) (entity.PageOCRResult, error)
}

// Recorder persists page outcomes. Errors are logged and never stop a run.
type Recorder interface {
	RecordPage(ctx context.Context, runID string, o entity.PageOutcome) error
}

// Orchestrator processes tasks strictly in order, and pages within a task in order.
type Orchestrator struct {
	logger       *slog.Logger
	ocr          PageOCR
	extractor    llm.PropertyExtractor
	recorder     Recorder
	modelVersion string
}

type Option func(*Orchestrator)

// WithRecorder records every page outcome.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithModelVersion sets the model_version reported on each TaskResult.
func WithModelVersion(v string) Option {
	return func(o *Orchestrator) {
		if v != "" {
			o.modelVersion = v
		}
	}
}

func NewOrchestrator(logger *slog.Logger, ocr PageOCR, extractor llm.PropertyExtractor, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		logger:       logger,
		ocr:          ocr,
		extractor:    extractor,
		modelVersion: constants.DefaultModelVersion,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModelVersion is the version reported with predictions.
func (o *Orchestrator) ModelVersion() string { return o.modelVersion }

// Run returns one TaskResult per task plus one outcome per page.
//
// An OCR failure skips the page. Credential exhaustion (or cancellation of ctx)
// halts every remaining page of this call; work already done is kept and every
// task still gets a TaskResult. Any other extraction failure counts as zero
// properties for the page. The run id is taken from ctx when present.
func (o *Orchestrator) Run(ctx context.Context, tasks []entity.Task) ([]entity.TaskResult, []entity.PageOutcome) {
	ctx, runID := common.EnsureRequestID(ctx)
	start := time.Now()
	o.logger.Info("pipeline.run.start", "req_id", runID, "tasks", len(tasks), "pages", entity.PageCount(tasks))

	results := make([]entity.TaskResult, 0, len(tasks))
	outcomes := make([]entity.PageOutcome, 0, entity.PageCount(tasks))
	haltReason := ""

	for ti, task := range tasks {
		tr := entity.TaskResult{ModelVersion: o.modelVersion, Annotations: []entity.Annotation{}}
		for pi, url := range task.Data.Pages {
			var out entity.PageOutcome
			switch {
			case haltReason != "":
				out = halted(ti, pi, url, haltReason)
			case ctx.Err() != nil:
				haltReason = "cancelled: " + ctx.Err().Error()
				out = halted(ti, pi, url, haltReason)
			default:
				out = o.processPage(ctx, ti, pi, url)
				if out.Status == constants.PageStatusHalted {
					haltReason = out.Reason
					o.logger.Error("pipeline.run.halted", "req_id", runID, "task_index", ti, "page_index", pi, "reason", haltReason)
				}
			}
			tr.Annotations = append(tr.Annotations, out.Annotations...)
			outcomes = append(outcomes, out)
			o.record(ctx, runID, out)
		}
		results = append(results, tr)
	}

	o.logger.Info("pipeline.run.done",
		"req_id", runID,
		"tasks", len(results),
		"halted", haltReason != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, outcomes
}

func (o *Orchestrator) processPage(ctx context.Context, ti, pi int, url string) entity.PageOutcome {
	rid := common.RequestIDFromContext(ctx)
	out := entity.PageOutcome{TaskIndex: ti, PageIndex: pi, URL: url}
	start := time.Now()

	page, err := o.ocr.Extract(ctx, url)
	if err != nil {
		o.logger.Warn("pipeline.page.skipped", "req_id", rid, "task_index", ti, "page_index", pi, "url", url, "error", err)
		out.Status = constants.PageStatusSkipped
		out.Reason = err.Error()
		return out
	}

	props, err := o.extractor.ExtractProperties(ctx, page.Transcript())
	switch {
	case err == nil:
	case common.IsTerminal(err):
		out.Status = constants.PageStatusHalted
		out.Reason = err.Error()
		return out
	default:
		o.logger.Warn("pipeline.page.extract_failed", "req_id", rid, "task_index", ti, "page_index", pi, "error", err)
		out.Reason = err.Error()
		props = nil
	}

	out.Status = constants.PageStatusOK
	out.Properties = props
	out.Annotations = reconcile.Reconcile(page.Fragments, props, page.ImageWidth, page.ImageHeight, pi)

	o.logger.Info("pipeline.page.ok",
		"req_id", rid,
		"task_index", ti,
		"page_index", pi,
		"fragments", len(page.Fragments),
		"properties", len(props),
		"annotations", len(out.Annotations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func halted(ti, pi int, url, reason string) entity.PageOutcome {
	return entity.PageOutcome{TaskIndex: ti, PageIndex: pi, URL: url, Status: constants.PageStatusHalted, Reason: reason}
}

func (o *Orchestrator) record(ctx context.Context, runID string, out entity.PageOutcome) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordPage(context.WithoutCancel(ctx), runID, out); err != nil {
		o.logger.Warn("pipeline.record.error", "req_id", runID, "task_index", out.TaskIndex, "page_index", out.PageIndex, "error", err)
	}
}
