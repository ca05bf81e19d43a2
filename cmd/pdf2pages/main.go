package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/app"
	"github.com/joseph-ayodele/property-annotator/internal/async"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/convert"
	"github.com/joseph-ayodele/property-annotator/internal/ingest"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	var (
		in       = flag.String("in", "", "PDF file or folder of PDFs (required)")
		out      = flag.String("out", cfg.Pages.Root, "output root, one folder per PDF")
		baseURL  = flag.String("base-url", cfg.Pages.BaseURL, "public URL of the output root")
		dpi      = flag.Int("dpi", cfg.Pages.DPI, "rasterization resolution")
		keep     = flag.Bool("keep", false, "copy PDFs into their folder instead of moving them")
		watch    = flag.Bool("watch", false, "keep running and convert PDFs dropped into -in")
		workers  = flag.Int("workers", 2, "concurrent conversions")
		pdftoppm = flag.String("pdftoppm", "pdftoppm", "pdftoppm binary")
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv := convert.NewConverter(convert.Config{
		OutputRoot: *out,
		BaseURL:    *baseURL,
		DPI:        *dpi,
		Pdftoppm:   *pdftoppm,
		KeepSource: *keep,
	}, logger)
	pool := async.NewPool(conv, logger, async.WithWorkers(*workers), async.WithJobTimeout(30*time.Minute))

	submit := func(path string) {
		if err := pool.Enqueue(ctx, async.Job{Path: path, TraceID: uuid.New().String()}); err != nil {
			logger.Warn("enqueue failed", "path", path, "error", err)
		}
	}

	st, err := os.Stat(*in)
	if err != nil {
		logger.Error("cannot stat input", "path", *in, "error", err)
		os.Exit(1)
	}

	switch {
	case !st.IsDir():
		if constants.MapExtToFormat(filepath.Ext(*in)) != constants.PDF {
			logger.Error("input is not a PDF", "path", *in)
			os.Exit(1)
		}
		submit(*in)
	case *watch:
		files, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{*in},
			InitialScan: true,
			Debounce:    time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("watcher start failed", "error", err)
			os.Exit(1)
		}
		logger.Info("watching for PDFs", "dir", *in, "out", *out)
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case p, ok := <-files:
				if !ok {
					break loop
				}
				submit(p)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	default:
		paths, stats, err := ingest.ScanDirectory(*in, ingest.ScanOptions{SkipHidden: true})
		if err != nil {
			logger.Error("scan failed", "dir", *in, "error", err)
			os.Exit(1)
		}
		logger.Info("scan complete", "dir", *in, "scanned", stats.Scanned, "matched", stats.Matched)
		for _, p := range paths {
			submit(p)
		}
	}

	pool.Shutdown(context.Background())
	ok, failed := pool.Stats()
	logger.Info("conversion complete", "succeeded", ok, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
