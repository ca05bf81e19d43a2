package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
	"github.com/joseph-ayodele/property-annotator/internal/repository"
)

const (
	propertiesSheet = "Properties"
	pagesSheet      = "Pages"
)

// Service is a tiny façade over the run log that produces XLSX bytes for exports.
type Service struct {
	runs   repository.PredictionRunRepository
	logger *slog.Logger
}

func NewService(runs repository.PredictionRunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// ExportRunXLSX returns a workbook with the extracted properties and page statuses of one run.
// A run with no recorded pages yields common.ErrNotFound.
func (s *Service) ExportRunXLSX(ctx context.Context, runID string) ([]byte, error) {
	start := time.Now()
	recs, err := s.runs.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query run pages: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: run %q", common.ErrNotFound, runID)
	}
	rows := make([]pageRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, pageRow{
			task: r.TaskIndex, page: r.PageIndex, url: r.URL, status: r.Status, reason: r.Reason,
			props: r.Properties, annotations: r.AnnotationCount,
		})
	}
	b, err := buildWorkbook(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"run_id", runID,
		"pages", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// OutcomesXLSX renders page outcomes straight from an orchestrator run.
func OutcomesXLSX(outcomes []entity.PageOutcome) ([]byte, error) {
	rows := make([]pageRow, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, pageRow{
			task: o.TaskIndex, page: o.PageIndex, url: o.URL, status: o.Status, reason: o.Reason,
			props: o.Properties, annotations: len(o.Annotations),
		})
	}
	return buildWorkbook(rows)
}

type pageRow struct {
	task, page  int
	url         string
	status      constants.PageStatus
	reason      string
	props       []entity.PropertyTriple
	annotations int
}

func buildWorkbook(rows []pageRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default "Sheet1" becomes the properties sheet
	if err := f.SetSheetName(f.GetSheetName(0), propertiesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(pagesSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(propertiesSheet)
	f.SetActiveSheet(activeIndex)

	writeHeaders(f, propertiesSheet, []string{"Task", "Page", "Property", "Value", "Unit", "Page URL"})
	writeHeaders(f, pagesSheet, []string{"Task", "Page", "Status", "Properties", "Annotations", "Reason", "Page URL"})

	propRow, pageRowN := 2, 2
	for _, r := range rows {
		for _, p := range r.props {
			writeRow(f, propertiesSheet, propRow, r.task, r.page+1, p.Name, p.Value, p.Unit, r.url)
			propRow++
		}
		writeRow(f, pagesSheet, pageRowN, r.task, r.page+1, string(r.status), len(r.props), r.annotations, truncate(r.reason, 140), r.url)
		pageRowN++
	}

	_ = f.SetColWidth(propertiesSheet, "A", "B", 8)
	_ = f.SetColWidth(propertiesSheet, "C", "C", 32)
	_ = f.SetColWidth(propertiesSheet, "D", "E", 16)
	_ = f.SetColWidth(propertiesSheet, "F", "F", 60)
	_ = f.SetColWidth(pagesSheet, "A", "B", 8)
	_ = f.SetColWidth(pagesSheet, "C", "E", 12)
	_ = f.SetColWidth(pagesSheet, "F", "F", 48)
	_ = f.SetColWidth(pagesSheet, "G", "G", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
