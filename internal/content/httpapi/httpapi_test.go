package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/resolver"
	"github.com/yungbote/nst-content-backend/internal/content/settings"
	"github.com/yungbote/nst-content-backend/internal/content/storage"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
	"github.com/yungbote/nst-content-backend/internal/platform/requestid"
)

func init() { gin.SetMode(gin.TestMode) }

const testSecret = "test-admin-secret"

type fakeResolver struct {
	lastChapters resolver.ChapterRequest
	lastLesson   resolver.LessonRequest
}

func (f *fakeResolver) ResolveChapters(_ context.Context, req resolver.ChapterRequest) ([]types.Chapter, resolver.Source) {
	f.lastChapters = req
	return []types.Chapter{{ID: "ch-1", Title: "Introduction to " + req.Subject.Name}}, resolver.SourceOffline
}

func (f *fakeResolver) ResolveLesson(_ context.Context, req resolver.LessonRequest) (*types.LessonContent, resolver.Source) {
	f.lastLesson = req
	return &types.LessonContent{ID: "l-1", Title: req.Chapter.Title, Type: req.Type}, resolver.SourceGenerated
}

type testServer struct {
	handler   http.Handler
	resolver  *fakeResolver
	overrides *override.GormStore
	settings  *settings.Store
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	ov := override.NewGormStore(db, nil)
	st := settings.NewStore(db, nil, settings.Static{Keys: []string{"seed"}})
	if err := ov.AutoMigrate(); err != nil {
		t.Fatalf("migrate overrides: %v", err)
	}
	if err := st.AutoMigrate(); err != nil {
		t.Fatalf("migrate settings: %v", err)
	}
	fr := &fakeResolver{}
	h := NewRouter(RouterConfig{
		ServiceName:    "nst-content-test",
		AllowedOrigins: []string{"http://localhost:5173"},
		AdminSecret:    secret,
		Log:            logger.Nop(),
		ContentHandler: NewContentHandler(fr),
		AdminHandler:   NewAdminHandler(ov, st, logger.Nop()),
	})
	return &testServer{handler: h, resolver: fr, overrides: ov, settings: st}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestHealthcheckAndRequestID(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(t, http.MethodGet, "/healthcheck", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(requestid.Header) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestChaptersEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(t, http.MethodPost, "/api/chapters", map[string]any{
		"board": "CBSE", "class_level": "10", "subject": map[string]string{"id": "phy", "name": "Physics"}, "language": "English",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out chaptersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Source != resolver.SourceOffline || out.Chapters[0].Title != "Introduction to Physics" {
		t.Fatalf("out=%+v", out)
	}
	if s.resolver.lastChapters.Stream != "" || s.resolver.lastChapters.Board != "CBSE" {
		t.Fatalf("request=%+v", s.resolver.lastChapters)
	}
}

func TestChaptersValidation(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(t, http.MethodPost, "/api/chapters", map[string]any{"board": "CBSE"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error.Code != "invalid_request" {
		t.Fatalf("envelope=%s", rec.Body.String())
	}
}

func TestLessonEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	body := map[string]any{
		"board": "CBSE", "class_level": "12", "stream": "Science",
		"subject": map[string]string{"name": "Chemistry"}, "language": "English",
		"chapter": map[string]string{"id": "ch-3", "title": "Solutions"},
		"type":    "mcq_analysis", "prior_attempts": 2, "privileged": true,
	}
	rec := s.do(t, http.MethodPost, "/api/lessons", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := s.resolver.lastLesson
	if got.Type != types.MCQAnalysis || got.PriorAttempts != 2 || !got.Privileged || got.Stream != "Science" {
		t.Fatalf("request=%+v", got)
	}

	body["type"] = "VIDEO"
	if rec := s.do(t, http.MethodPost, "/api/lessons", body, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status=%d", rec.Code)
	}
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(t, http.MethodGet, "/api/admin/settings", nil, "anything")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t, testSecret)
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", AdminRole, time.Hour), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, AdminRole, -time.Minute), http.StatusUnauthorized},
		{"not admin", signToken(t, testSecret, "student", time.Hour), http.StatusForbidden},
		{"admin", signToken(t, testSecret, AdminRole, time.Hour), http.StatusOK},
	}
	for _, tc := range cases {
		rec := s.do(t, http.MethodGet, "/api/admin/settings", nil, tc.token)
		if rec.Code != tc.want {
			t.Fatalf("%s: status=%d want %d body=%s", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestAdminChapterOverrideLifecycle(t *testing.T) {
	s := newTestServer(t, testSecret)
	token := signToken(t, testSecret, AdminRole, time.Hour)
	scope := map[string]any{
		"board": "CBSE", "class_level": "10", "subject": map[string]string{"name": "Physics"}, "language": "English",
	}

	put := map[string]any{}
	for k, v := range scope {
		put[k] = v
	}
	put["chapters"] = []types.Chapter{}
	if rec := s.do(t, http.MethodPut, "/api/admin/overrides/chapters", put, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty list status=%d", rec.Code)
	}

	put["chapters"] = []types.Chapter{{ID: "c-1", Title: "Light"}}
	rec := s.do(t, http.MethodPut, "/api/admin/overrides/chapters", put, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rec.Code, rec.Body.String())
	}
	key := resolver.ChapterRequest{Board: "CBSE", Class: "10", Subject: types.Subject{Name: "Physics"}, Language: "English"}.Key()
	if got, ok := s.overrides.GetChapters(context.Background(), key); !ok || got[0].Title != "Light" {
		t.Fatalf("stored=%v ok=%v", got, ok)
	}

	if rec := s.do(t, http.MethodDelete, "/api/admin/overrides/chapters", scope, token); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/api/admin/overrides/chapters", scope, token); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestAdminLessonOverride(t *testing.T) {
	s := newTestServer(t, testSecret)
	token := signToken(t, testSecret, AdminRole, time.Hour)
	body := map[string]any{
		"board": "CBSE", "class_level": "10", "subject": "Physics", "chapter_id": "ch-2", "type": "MCQ_SIMPLE",
		"lesson": map[string]any{
			"title":   "Electricity",
			"content": "ignored for quizzes",
			"mcqData": []types.MCQItem{{Question: "Unit of charge?", Options: []string{"Coulomb", "Volt"}, CorrectAnswer: 5}},
		},
	}
	if rec := s.do(t, http.MethodPut, "/api/admin/overrides/lessons", body, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid answer status=%d", rec.Code)
	}

	body["lesson"].(map[string]any)["mcqData"] = []types.MCQItem{{Question: "Unit of charge?", Options: []string{"Coulomb", "Volt"}, CorrectAnswer: 0}}
	rec := s.do(t, http.MethodPut, "/api/admin/overrides/lessons", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["key"] != "CBSE-10-Physics-ch-2-MCQ_SIMPLE" {
		t.Fatalf("key=%q", out["key"])
	}

	req := resolver.LessonRequest{Board: "CBSE", Class: "10", Subject: types.Subject{Name: "Physics"}, Chapter: types.Chapter{ID: "ch-2"}, Language: "Hindi", Type: types.MCQSimple, PriorAttempts: 4}
	got, ok := s.overrides.GetLesson(context.Background(), req.Key())
	if !ok || got.Content != types.MCQSentinel || got.Type != types.MCQSimple {
		t.Fatalf("stored=%+v ok=%v", got, ok)
	}
}

func TestAdminSettings(t *testing.T) {
	s := newTestServer(t, testSecret)
	token := signToken(t, testSecret, AdminRole, time.Hour)

	if rec := s.do(t, http.MethodPut, "/api/admin/settings", map[string]any{}, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update status=%d", rec.Code)
	}

	rec := s.do(t, http.MethodPut, "/api/admin/settings", map[string]any{
		"api_keys": []string{"k1", "k2", " "}, "style_instruction": "Use simple words and many examples.",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("k1")) {
		t.Fatalf("settings response must not expose keys: %s", rec.Body.String())
	}
	var snap settings.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.CredentialCount != 2 || !snap.Persisted || snap.StyleInstruction != "Use simple words and many examples." {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/chapters", bytes.NewBufferString(`{"board":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.Header, "req-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != codeInvalidRequest || env.Error.RequestID != "req-123" {
		t.Fatalf("envelope=%+v", env)
	}
}
