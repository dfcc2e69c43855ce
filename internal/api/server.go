package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/pathwise/internal/log"
)

// defaultRateBurst is the per-IP burst when none is configured.
const defaultRateBurst = 60

// ServerConfig contains the server's collaborators.
type ServerConfig struct {
	Logger  log.Logger
	Chat    ChatService   // Required
	Indexer IndexService  // Optional: nil disables the indexing routes
	Pool    *pgxpool.Pool // Optional: nil disables pool stats in /ready

	// RequestsPerMinute caps per-IP request rate. 0 uses the default burst
	// with a one-token-per-second refill.
	RequestsPerMinute int
}

// Server is the JSON API HTTP server.
type Server struct {
	handler http.Handler
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{service: cfg.Chat, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)

	if cfg.Indexer != nil {
		ih := &indexHandler{indexer: cfg.Indexer, logger: logger}
		mux.HandleFunc("POST /api/v1/index/course", ih.indexCourse)
		mux.HandleFunc("POST /api/v1/index/all", ih.reindexAll)
	}

	burst := cfg.RequestsPerMinute
	refill := 1.0
	if burst <= 0 {
		burst = defaultRateBurst
	} else {
		refill = float64(burst) / 60.0
	}
	rl := newRateLimiter(refill, burst)

	// Middleware stack, outermost first:
	//   Recovery → Logging → RateLimit → Routes
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the stack so probes are never rate limited.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.HandleFunc("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{handler: topMux}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
