package server

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/property-annotator/internal/common"
)

const defaultRunsLimit = 20

func (b *Backend) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, b.logger, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := b.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		b.logger.Error("runs.list.failed", "error", err)
		writeError(w, b.logger, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, b.logger, http.StatusOK, map[string]any{"runs": runs})
}

func (b *Backend) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pages, err := b.runs.ListByRun(r.Context(), id)
	if err != nil {
		b.logger.Error("runs.get.failed", "run_id", id, "error", err)
		writeError(w, b.logger, http.StatusInternalServerError, "load run failed")
		return
	}
	if len(pages) == 0 {
		writeError(w, b.logger, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, b.logger, http.StatusOK, map[string]any{"run_id": id, "pages": pages})
}

func (b *Backend) handleExportRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	xlsx, err := b.exporter.ExportRunXLSX(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, b.logger, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		b.logger.Error("runs.export.failed", "run_id", id, "error", err)
		writeError(w, b.logger, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "run-" + id + ".xlsx"}))
	if _, err := w.Write(xlsx); err != nil {
		b.logger.Warn("runs.export.write_failed", "run_id", id, "error", err)
	}
}
