package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

type fakeRuns struct {
	recs []entity.PageRecord
}

func (f *fakeRuns) RecordPage(context.Context, string, entity.PageOutcome) error { return nil }
func (f *fakeRuns) ListByRun(context.Context, string) ([]entity.PageRecord, error) {
	return f.recs, nil
}
func (f *fakeRuns) RecentRuns(context.Context, int) ([]entity.RunSummary, error) { return nil, nil }

func openWorkbook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestOutcomesXLSX(t *testing.T) {
	outcomes := []entity.PageOutcome{
		{
			TaskIndex: 0, PageIndex: 0, URL: "http://h/a_1.jpg", Status: constants.PageStatusOK,
			Properties: []entity.PropertyTriple{
				{Name: "Battery", Value: "5000", Unit: "mAh"},
				{Name: "Screen size", Value: "6.2", Unit: "inch"},
			},
			Annotations: []entity.Annotation{{}, {}},
		},
		{TaskIndex: 0, PageIndex: 1, URL: "http://h/a_2.jpg", Status: constants.PageStatusSkipped, Reason: "image fetch failed"},
	}

	b, err := OutcomesXLSX(outcomes)
	if err != nil {
		t.Fatalf("OutcomesXLSX() error = %v", err)
	}
	f := openWorkbook(t, b)

	props, err := f.GetRows(propertiesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(props) != 3 {
		t.Fatalf("properties rows = %d, want header + 2", len(props))
	}
	if props[1][2] != "Battery" || props[1][3] != "5000" || props[1][4] != "mAh" {
		t.Errorf("first property row = %v", props[1])
	}

	pages, err := f.GetRows(pagesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(pages) != 3 || pages[2][2] != "SKIPPED" || pages[1][4] != "2" {
		t.Errorf("pages rows = %v", pages)
	}
}

func TestExportRunXLSX(t *testing.T) {
	svc := NewService(&fakeRuns{recs: []entity.PageRecord{{
		RunID: "r", PageIndex: 0, Status: constants.PageStatusOK, AnnotationCount: 1,
		Properties: []entity.PropertyTriple{{Name: "Weight", Value: "180", Unit: "g"}},
	}}}, nil)

	b, err := svc.ExportRunXLSX(context.Background(), "r")
	if err != nil {
		t.Fatalf("ExportRunXLSX() error = %v", err)
	}
	rows, err := openWorkbook(t, b).GetRows(propertiesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "Weight" {
		t.Errorf("rows = %v", rows)
	}
}

func TestExportRunXLSXUnknownRun(t *testing.T) {
	svc := NewService(&fakeRuns{}, nil)
	b, err := svc.ExportRunXLSX(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("ExportRunXLSX() error = %v, want ErrNotFound", err)
	}
	if b != nil {
		t.Errorf("ExportRunXLSX() returned %d bytes for an unknown run", len(b))
	}
}
