package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/app"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
	"github.com/joseph-ayodele/property-annotator/internal/export"
	"github.com/joseph-ayodele/property-annotator/internal/ingest"
)

// prediction is one task in the labeling tool's pre-annotation import format.
type prediction struct {
	ID          int                 `json:"id,omitempty"`
	Data        entity.TaskData     `json:"data"`
	Predictions []entity.TaskResult `json:"predictions"`
}

func main() {
	_ = godotenv.Load()

	var (
		out  = flag.String("out", "predictions.json", "predictions JSON output path")
		xlsx = flag.String("xlsx", "", "optional XLSX workbook of the extracted properties")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: annotate [-out predictions.json] [-xlsx props.xlsx] <task.json|dir|image>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks, err := ingest.LoadTasks(flag.Args())
	if err != nil {
		logger.Error("failed to load tasks", "error", err)
		os.Exit(1)
	}
	if entity.PageCount(tasks) == 0 {
		logger.Error("no pages found in the inputs")
		os.Exit(1)
	}

	a, err := app.Build(ctx, cfg, logger, app.WithLocalImages())
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(2)
	}
	defer a.Close()

	results, outcomes := a.Orchestrator.Run(ctx, tasks)

	preds := make([]prediction, len(tasks))
	for i, t := range tasks {
		preds[i] = prediction{ID: t.ID, Data: t.Data, Predictions: []entity.TaskResult{results[i]}}
	}
	b, err := json.MarshalIndent(preds, "", "  ")
	if err != nil {
		logger.Error("marshal predictions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		logger.Error("failed to write predictions", "path", *out, "error", err)
		os.Exit(1)
	}

	if *xlsx != "" {
		wb, err := export.OutcomesXLSX(outcomes)
		if err != nil {
			logger.Error("failed to build workbook", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, wb, 0o644); err != nil {
			logger.Error("failed to write workbook", "path", *xlsx, "error", err)
			os.Exit(1)
		}
	}

	var ok, skipped, halted, annotations int
	for _, o := range outcomes {
		switch {
		case o.OK():
			ok++
		case o.Status == constants.PageStatusHalted:
			halted++
		default:
			skipped++
		}
		annotations += len(o.Annotations)
	}
	logger.Info("annotation complete",
		"tasks", len(tasks),
		"pages_ok", ok,
		"pages_skipped", skipped,
		"pages_halted", halted,
		"annotations", annotations,
		"out", *out,
		"xlsx", *xlsx,
	)
	if halted > 0 {
		os.Exit(3)
	}
}
