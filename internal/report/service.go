// Package report sequences the pipeline: normalize → extract →
// [edit draft → commit] → project → name.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatchreport/constants"
	"dispatchreport/internal/common"
	"dispatchreport/internal/extract"
	"dispatchreport/internal/filename"
	"dispatchreport/internal/repository"
	"dispatchreport/internal/template"
)

// Service turns incident mail text into a filled report artifact. The base
// template bytes are shared read-only across calls; every generation works
// on its own in-memory copy.
type Service struct {
	templateBytes []byte
	extractor     *extract.Extractor
	projector     *template.Projector
	history       repository.HistoryRepository
	required      []constants.Field
	logger        *slog.Logger
}

// NewService wires the pipeline. history may be nil when bookkeeping is not
// wanted (the CLI's one-shot mode).
func NewService(templateBytes []byte, layout template.Layout, history repository.HistoryRepository, required []constants.Field, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		templateBytes: templateBytes,
		extractor:     extract.NewExtractor(logger),
		projector:     template.NewProjector(layout, logger),
		history:       history,
		required:      required,
		logger:        logger,
	}
}

// Extract parses mail text into a record. Never fails; missing data stays
// absent.
func (s *Service) Extract(_ context.Context, text string) *extract.Record {
	return s.extractor.Extract(text)
}

// Result is one finished generation.
type Result struct {
	ID       uuid.UUID
	Filename string
	Artifact []byte
}

// Generate validates the required-field policy, projects the record onto a
// working copy of the template, and derives the artifact filename. The
// outcome is recorded in history either way.
func (s *Service) Generate(ctx context.Context, rec *extract.Record) (*Result, error) {
	start := time.Now()
	id := uuid.New()

	if err := s.checkRequired(rec); err != nil {
		s.record(ctx, id, rec, "", err, start)
		return nil, err
	}

	artifact, err := s.projector.Project(s.templateBytes, rec)
	if err != nil {
		s.record(ctx, id, rec, "", err, start)
		s.logger.Error("report.generate.failed",
			"report_id", id.String(),
			"request_id", common.RequestIDFromContext(ctx),
			"error", err,
		)
		return nil, err
	}

	name := filename.Build(rec)
	s.record(ctx, id, rec, name, nil, start)
	s.logger.Info("report.generate.ok",
		"report_id", id.String(),
		"request_id", common.RequestIDFromContext(ctx),
		"filename", name,
		"bytes", len(artifact),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Result{ID: id, Filename: name, Artifact: artifact}, nil
}

// GenerateFromText runs the full pipeline, applying caller edits through a
// draft so a failed merge can never corrupt the extracted record.
func (s *Service) GenerateFromText(ctx context.Context, text string, edits map[string]string) (*Result, error) {
	rec := s.extractor.Extract(text)
	if len(edits) > 0 {
		draft := rec.Draft()
		for k, v := range edits {
			f := constants.Field(k)
			if !constants.IsKnown(f) {
				return nil, fmt.Errorf("%w: unknown field %q", common.ErrInvalidInput, k)
			}
			draft.Set(f, v)
		}
		rec.Commit(draft)
	}
	return s.Generate(ctx, rec)
}

// History lists recent generation attempts.
func (s *Service) History(ctx context.Context, limit int) ([]repository.ReportEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}

func (s *Service) checkRequired(rec *extract.Record) error {
	var missing []string
	for _, f := range s.required {
		if !rec.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// record books the attempt; history failures are logged, never surfaced.
func (s *Service) record(ctx context.Context, id uuid.UUID, rec *extract.Record, name string, genErr error, start time.Time) {
	if s.history == nil {
		return
	}
	entry := repository.ReportEntry{
		ID:        id,
		Filename:  name,
		Status:    constants.ReportStatusOK,
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	entry.ManagementNo, _ = rec.Get(constants.FieldManagementNo)
	entry.SiteName, _ = rec.Get(constants.FieldSiteName)
	if genErr != nil {
		entry.Status = constants.ReportStatusFailed
		entry.Detail = genErr.Error()
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		s.logger.Warn("report history insert failed", "report_id", id.String(), "error", err)
	}
}

// ParseRequiredFields parses the comma-separated REQUIRED_FIELDS setting.
func ParseRequiredFields(s string) ([]constants.Field, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []constants.Field
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		f := constants.Field(name)
		if !constants.IsKnown(f) {
			return nil, fmt.Errorf("%w: unknown required field %q", common.ErrInvalidInput, name)
		}
		out = append(out, f)
	}
	return out, nil
}
