package ocr

import (
	"context"
	"image"
)

// Word is one token reported by an OCR engine. Text may be blank.
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Engine recognizes words on an encoded image (PNG).
type Engine interface {
	Recognize(ctx context.Context, img []byte) ([]Word, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img []byte) ([]Word, error)

func (f EngineFunc) Recognize(ctx context.Context, img []byte) ([]Word, error) {
	return f(ctx, img)
}
