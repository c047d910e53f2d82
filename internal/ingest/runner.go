package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"dispatchreport/internal/report"
)

// Runner consumes watcher events: each mail file becomes a report artifact
// in the output directory. One file failing never stops the loop.
type Runner struct {
	svc       *report.Service
	outputDir string
	logger    *slog.Logger
}

func NewRunner(svc *report.Service, outputDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{svc: svc, outputDir: outputDir, logger: logger}
}

// Run blocks until ctx is cancelled or the event channel closes.
func (r *Runner) Run(ctx context.Context, events <-chan string) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-events:
			if !ok {
				return nil
			}
			r.process(ctx, path)
		}
	}
}

// Process handles a single mail file; exported for the CLI's one-shot mode.
func (r *Runner) Process(ctx context.Context, path string) (string, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	res, err := r.svc.GenerateFromText(ctx, string(text), nil)
	if err != nil {
		return "", err
	}
	out := filepath.Join(r.outputDir, res.Filename)
	if err := os.WriteFile(out, res.Artifact, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func (r *Runner) process(ctx context.Context, path string) {
	out, err := r.Process(ctx, path)
	if err != nil {
		r.logger.Error("ingest.report.failed", "mail", path, "error", err)
		return
	}
	r.logger.Info("ingest.report.ok", "mail", path, "artifact", out)
}
