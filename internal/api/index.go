package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pathwise/pathwise/internal/log"
)

// IndexService indexes course content into the vector store. Implemented by
// rag.Indexer; tests substitute a stub.
type IndexService interface {
	IndexCourse(ctx context.Context, courseID string) (int, error)
	ReindexAll(ctx context.Context) (map[string]int, error)
}

type indexCourseRequest struct {
	CourseID string `json:"courseId"`
}

type indexHandler struct {
	indexer IndexService
	logger  log.Logger
}

// indexCourse indexes one course and reports its chunk count.
func (h *indexHandler) indexCourse(w http.ResponseWriter, r *http.Request) {
	var req indexCourseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body", h.logger)
		return
	}
	if strings.TrimSpace(req.CourseID) == "" {
		writeError(w, http.StatusBadRequest, "empty_course_id", "courseId is required", h.logger)
		return
	}

	count, err := h.indexer.IndexCourse(r.Context(), req.CourseID)
	if err != nil {
		h.logger.Error("course indexing failed", "course_id", req.CourseID, "error", err)
		writeError(w, http.StatusBadGateway, "index_failed", "course indexing failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courseId":      req.CourseID,
		"chunksIndexed": count,
	}, h.logger)
}

// reindexAll reindexes every course sequentially. A failure aborts the run;
// the per-course counts accumulated so far are not returned.
func (h *indexHandler) reindexAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.indexer.ReindexAll(r.Context())
	if err != nil {
		h.logger.Error("reindex failed", "error", err)
		writeError(w, http.StatusBadGateway, "reindex_failed", "reindex failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"courses": results}, h.logger)
}
