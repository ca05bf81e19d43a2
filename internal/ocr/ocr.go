// Package ocr turns page images into text fragments with pixel boxes.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

type Config struct {
	FetchTimeout  time.Duration // default 60s
	MaxImageBytes int64         // default 50 MiB
	AllowLocal    bool          // also read file:// URLs and bare paths
}

type Extractor struct {
	cfg     Config
	engine  Engine
	fetcher Fetcher
	logger  *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(e *Extractor) {
		if f != nil {
			e.fetcher = f
		}
	}
}

func NewExtractor(cfg Config, engine Engine, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 50 << 20
	}
	e := &Extractor{
		cfg:     cfg,
		engine:  engine,
		fetcher: NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxImageBytes, cfg.AllowLocal, logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the page image at src and recognizes it.
// Errors wrap common.ErrFetch, common.ErrDecode or common.ErrOCR.
func (e *Extractor) Extract(ctx context.Context, src string) (entity.PageOCRResult, error) {
	start := time.Now()
	e.logger.Debug("ocr.extract.start", "url", src)

	b, err := e.fetcher.Fetch(ctx, src)
	if err != nil {
		e.logger.Error("ocr.extract.fetch_error", "url", src, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.PageOCRResult{}, err
	}

	res, err := e.ExtractBytes(ctx, b)
	if err != nil {
		e.logger.Error("ocr.extract.error", "url", src, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.PageOCRResult{}, err
	}

	e.logger.Info("ocr.extract.ok",
		"url", src,
		"fragments", len(res.Fragments),
		"width", res.ImageWidth,
		"height", res.ImageHeight,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ExtractBytes decodes, orients and recognizes an already-retrieved image.
// Fragments with blank text are dropped.
func (e *Extractor) ExtractBytes(ctx context.Context, b []byte) (entity.PageOCRResult, error) {
	img, err := DecodeOriented(b)
	if err != nil {
		return entity.PageOCRResult{}, err
	}
	bounds := img.Bounds()

	pngBytes, err := encodePNG(img)
	if err != nil {
		return entity.PageOCRResult{}, fmt.Errorf("%w: %v", common.ErrOCR, err)
	}
	if err := ctx.Err(); err != nil {
		return entity.PageOCRResult{}, fmt.Errorf("%w: %w", common.ErrOCR, err)
	}

	words, err := e.engine.Recognize(ctx, pngBytes)
	if err != nil {
		return entity.PageOCRResult{}, fmt.Errorf("%w: %v", common.ErrOCR, err)
	}

	return entity.PageOCRResult{
		Fragments:   toFragments(words),
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
	}, nil
}

func toFragments(words []Word) []entity.TextFragment {
	out := make([]entity.TextFragment, 0, len(words))
	for _, w := range words {
		txt := strings.TrimSpace(w.Text)
		if txt == "" {
			continue
		}
		out = append(out, entity.TextFragment{
			Text: txt,
			BBox: entity.BBox{
				X:      w.Box.Min.X,
				Y:      w.Box.Min.Y,
				Width:  w.Box.Dx(),
				Height: w.Box.Dy(),
			},
		})
	}
	return out
}
