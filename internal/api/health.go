package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/pathwise/internal/log"
)

// health is the liveness probe.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness reports readiness, including pool statistics when a pool is
// wired. A nil pool still reports ready: the service can run chat turns
// without a vector store.
func readiness(pool *pgxpool.Pool, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if pool != nil {
			stats := pool.Stat()
			body["db"] = map[string]any{
				"total_conns":    stats.TotalConns(),
				"idle_conns":     stats.IdleConns(),
				"acquired_conns": stats.AcquiredConns(),
			}
		}
		writeJSON(w, http.StatusOK, body, logger)
	}
}
