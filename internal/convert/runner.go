package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes an external tool. Tests swap in a fake that writes page files.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	attrs := []any{
		"cmd", name,
		"args", args,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.logger.Debug("convert.exec.ok", attrs...)
	case errors.As(err, &exitErr):
		r.logger.Error("convert.exec.failed", append(attrs, "exit_code", exitErr.ExitCode(), "stderr", truncate(stderr.String(), 8<<10))...)
	default:
		r.logger.Error("convert.exec.failed", append(attrs, "error", err)...)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
