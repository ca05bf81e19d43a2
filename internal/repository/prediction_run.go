package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

type PredictionRunRepository interface {
	RecordPage(ctx context.Context, runID string, o entity.PageOutcome) error
	ListByRun(ctx context.Context, runID string) ([]entity.PageRecord, error)
	RecentRuns(ctx context.Context, limit int) ([]entity.RunSummary, error)
}

type predictionRunRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewPredictionRunRepository(db *DB, log *slog.Logger) PredictionRunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &predictionRunRepo{db: db, log: log, now: time.Now}
}

func (r *predictionRunRepo) RecordPage(ctx context.Context, runID string, o entity.PageOutcome) error {
	props := o.Properties
	if props == nil {
		props = []entity.PropertyTriple{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	_, err = r.db.SQL.ExecContext(ctx, r.db.rebind(`INSERT INTO prediction_pages
		(run_id, task_index, page_index, url, status, reason, property_count, annotation_count, properties_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		runID, o.TaskIndex, o.PageIndex, o.URL, string(o.Status), o.Reason,
		len(o.Properties), len(o.Annotations), string(raw), r.now().UTC(),
	)
	if err != nil {
		r.log.Error("prediction_page insert failed", "run_id", runID, "page_index", o.PageIndex, "err", err)
		return fmt.Errorf("%w: insert page: %v", common.ErrDatabase, err)
	}
	r.log.Debug("prediction_page recorded", "run_id", runID, "task_index", o.TaskIndex, "page_index", o.PageIndex, "status", o.Status)
	return nil
}

func (r *predictionRunRepo) ListByRun(ctx context.Context, runID string) ([]entity.PageRecord, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT
		id, run_id, task_index, page_index, url, status, reason, property_count, annotation_count, properties_json, created_at
		FROM prediction_pages WHERE run_id = ? ORDER BY task_index, page_index, id`), runID)
	if err != nil {
		return nil, fmt.Errorf("%w: list pages: %v", common.ErrDatabase, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Warn("prediction_page rows close failed", "err", err)
		}
	}(rows)

	var out []entity.PageRecord
	for rows.Next() {
		var (
			rec    entity.PageRecord
			status string
			raw    string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.TaskIndex, &rec.PageIndex, &rec.URL, &status,
			&rec.Reason, &rec.PropertyCount, &rec.AnnotationCount, &raw, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan page: %v", common.ErrDatabase, err)
		}
		rec.Status = constants.PageStatus(status)
		if err := json.Unmarshal([]byte(raw), &rec.Properties); err != nil {
			r.log.Warn("prediction_page properties unreadable", "id", rec.ID, "err", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pages: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *predictionRunRepo) RecentRuns(ctx context.Context, limit int) ([]entity.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT
		run_id,
		COUNT(*),
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		SUM(annotation_count),
		MIN(id)
		FROM prediction_pages GROUP BY run_id ORDER BY MIN(id) DESC LIMIT ?`),
		string(constants.PageStatusOK), string(constants.PageStatusSkipped), string(constants.PageStatusHalted), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var (
		out      []entity.RunSummary
		firstIDs []int64
	)
	for rows.Next() {
		var s entity.RunSummary
		var firstID int64
		if err := rows.Scan(&s.RunID, &s.Pages, &s.OK, &s.Skipped, &s.Halted, &s.Annotations, &firstID); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", common.ErrDatabase, err)
		}
		out = append(out, s)
		firstIDs = append(firstIDs, firstID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate runs: %v", common.ErrDatabase, err)
	}
	_ = rows.Close()

	for i, id := range firstIDs {
		if err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT created_at FROM prediction_pages WHERE id = ?`), id).
			Scan(&out[i].StartedAt); err != nil {
			return nil, fmt.Errorf("%w: run start: %v", common.ErrDatabase, err)
		}
	}
	return out, nil
}
