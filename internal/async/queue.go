package async

import (
	"context"
	"time"
)

// Job is one PDF waiting to be converted into page images.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Handler does the work for one job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
