// Package api exposes the tutoring service over a JSON HTTP API.
//
// Routes:
//   - GET  /health           — liveness probe
//   - GET  /ready            — readiness probe, includes pool stats when available
//   - POST /api/v1/chat      — one tutoring turn
//   - POST /api/v1/index/course — index one course
//   - POST /api/v1/index/all — reindex every course
//
// Health probes bypass the middleware stack. Everything else goes through
// recovery, request logging and per-IP rate limiting.
package api
