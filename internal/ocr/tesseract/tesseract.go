// Package tesseract provides the gosseract-backed OCR engine. It needs cgo and
// libtesseract at build time.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/property-annotator/internal/ocr"
)

type Config struct {
	Languages   []string // default ["eng"]
	TessdataDir string   // optional; tesseract also honors TESSDATA_PREFIX
	PSM         gosseract.PageSegMode
}

// Engine implements ocr.Engine with one gosseract client per call.
type Engine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

var _ ocr.Engine = (*Engine)(nil)

func NewEngine(cfg Config) *Engine {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.PSM == 0 {
		cfg.PSM = gosseract.PSM_AUTO
	}
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Recognize returns word-level boxes for the image.
func (e *Engine) Recognize(ctx context.Context, img []byte) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(e.cfg.PSM); err != nil {
		return nil, fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, ocr.Word{
			Text:       b.Word,
			Box:        b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words, nil
}
