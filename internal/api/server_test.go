package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/orchestrator"
)

// stubChat returns a canned result and records what it was asked.
type stubChat struct {
	result      orchestrator.ChatResult
	err         error
	lastMessage string
	lastOpts    orchestrator.ChatOptions
	panicOnCall bool
}

func (s *stubChat) Chat(_ context.Context, userMessage string, opts orchestrator.ChatOptions) (orchestrator.ChatResult, error) {
	if s.panicOnCall {
		panic("handler blew up")
	}
	s.lastMessage = userMessage
	s.lastOpts = opts
	return s.result, s.err
}

type stubIndexer struct {
	count        int
	courses      map[string]int
	err          error
	lastCourseID string
}

func (s *stubIndexer) IndexCourse(_ context.Context, courseID string) (int, error) {
	s.lastCourseID = courseID
	return s.count, s.err
}

func (s *stubIndexer) ReindexAll(context.Context) (map[string]int, error) {
	return s.courses, s.err
}

func newTestServer(t *testing.T, chat ChatService, indexer IndexService) *Server {
	t.Helper()
	cfg := ServerConfig{Logger: log.NewNop(), Chat: chat}
	if indexer != nil {
		cfg.Indexer = indexer
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresChat(t *testing.T) {
	if _, err := NewServer(ServerConfig{Logger: log.NewNop()}); err == nil {
		t.Error("NewServer() without a chat service should fail")
	}
}

func TestChatEndpoint(t *testing.T) {
	chat := &stubChat{result: orchestrator.ChatResult{
		Response:  "Slices grow by doubling.",
		AgentType: "tutor",
		Metadata:  map[string]any{"agentType": "tutor"},
	}}
	srv := newTestServer(t, chat, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		`{"message": "how do slices grow?", "lessonId": "lesson-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var result orchestrator.ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if result.Response != "Slices grow by doubling." || result.AgentType != "tutor" {
		t.Errorf("result = %+v", result)
	}

	if chat.lastMessage != "how do slices grow?" || chat.lastOpts.LessonID != "lesson-1" {
		t.Errorf("service saw (%q, %+v)", chat.lastMessage, chat.lastOpts)
	}
}

func TestChatEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message": `},
		{"unknown field", `{"message": "hi", "bogus": true}`},
		{"blank message", `{"message": "   "}`},
		{"missing message", `{"lessonId": "l1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubChat{}, nil)
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatEndpointUpstreamFailure(t *testing.T) {
	chat := &stubChat{err: errors.New("model down")}
	srv := newTestServer(t, chat, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"message": "hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if body.Error != "chat_failed" {
		t.Errorf("error code = %q", body.Error)
	}
}

func TestIndexCourseEndpoint(t *testing.T) {
	indexer := &stubIndexer{count: 12}
	srv := newTestServer(t, &stubChat{}, indexer)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/course", `{"courseId": "go-101"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["courseId"] != "go-101" || body["chunksIndexed"] != float64(12) {
		t.Errorf("body = %v", body)
	}
	if indexer.lastCourseID != "go-101" {
		t.Errorf("indexer saw %q", indexer.lastCourseID)
	}
}

func TestIndexCourseEndpointEmptyID(t *testing.T) {
	srv := newTestServer(t, &stubChat{}, &stubIndexer{})
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/course", `{"courseId": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReindexAllEndpoint(t *testing.T) {
	indexer := &stubIndexer{courses: map[string]int{"go-101": 12, "go-201": 7}}
	srv := newTestServer(t, &stubChat{}, indexer)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Courses map[string]int `json:"courses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Courses["go-101"] != 12 || body.Courses["go-201"] != 7 {
		t.Errorf("courses = %v", body.Courses)
	}
}

func TestReindexAllEndpointFailure(t *testing.T) {
	indexer := &stubIndexer{err: errors.New("store down")}
	srv := newTestServer(t, &stubChat{}, indexer)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/all", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

// Without an indexer the indexing routes do not exist.
func TestIndexRoutesDisabled(t *testing.T) {
	srv := newTestServer(t, &stubChat{}, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/index/course", `{"courseId": "go-101"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubChat{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyEndpointWithoutPool(t *testing.T) {
	srv := newTestServer(t, &stubChat{}, nil)

	rec := doJSON(t, srv, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	chat := &stubChat{panicOnCall: true}
	srv := newTestServer(t, chat, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"message": "hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 from the recovery middleware", rec.Code)
	}
}

// A one-request budget exhausts immediately and the second request from the
// same address is rejected with Retry-After.
func TestRateLimiting(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:            log.NewNop(),
		Chat:              &stubChat{},
		RequestsPerMinute: 1,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	first := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"message": "hi"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"message": "hi"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
}

// Health probes sit outside the rate-limited stack.
func TestHealthBypassesRateLimit(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:            log.NewNop(),
		Chat:              &stubChat{},
		RequestsPerMinute: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"message": "hi"}`)
	for range 3 {
		rec := doJSON(t, srv, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("health status = %d, want 200 regardless of budget", rec.Code)
		}
	}
}
