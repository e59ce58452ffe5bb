package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arnoldmoya/newsroom/internal/metrics"
	"github.com/arnoldmoya/newsroom/internal/middleware"
	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
)

// mockSessionFinder はmiddleware.SessionFinderのモック。
type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// newTestRouter は全依存をモックで組み立てたルーターを返す。
func newTestRouter(finder middleware.SessionFinder) http.Handler {
	limiter := ratelimit.New(time.Now)

	return NewRouter(&RouterDeps{
		SessionFinder:     finder,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		RateLimiterConfig: middleware.DefaultRateLimiterConfig(),
		Logger:            slog.Default(),
		Metrics:           metrics.NewCollector(prometheus.NewRegistry()),
		AuthService:       &mockAuthService{},
		AuthConfig:        AuthHandlerConfig{SessionMaxAge: 3600},
		ArticleService:    &mockArticleService{},
		NewsService:       &mockNewsService{},
		SubscriberService: &mockSubscriberService{},
		Dispatcher:        &mockDispatcher{},
	})
}

// validSessionFinder は常に有効なセッションを返すSessionFinderを返す。
func validSessionFinder() *mockSessionFinder {
	return &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
}

// TestRouter_Health はヘルスチェックエンドポイントを検証する。
func TestRouter_Health(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

// TestRouter_AdminRequiresSession は管理ルートが未認証で401を返すことを検証する。
func TestRouter_AdminRequiresSession(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/articles"},
		{http.MethodGet, "/api/admin/news"},
		{http.MethodGet, "/api/admin/subscribers"},
		{http.MethodPost, "/api/admin/news/news-1/send"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

// TestRouter_AdminWithSession は有効なセッションで管理ルートにアクセスできることを検証する。
func TestRouter_AdminWithSession(t *testing.T) {
	router := newTestRouter(validSessionFinder())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/articles", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestRouter_PublicRoutes は公開ルートが認証なしでアクセスできることを検証する。
func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	paths := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/articles", "", http.StatusOK},
		{http.MethodGet, "/api/news", "", http.StatusOK},
		{http.MethodPost, "/api/subscribe", `{"email":"ana@example.com"}`, http.StatusOK},
		{http.MethodGet, "/api/subscribe/confirm/sub-1", "", http.StatusSeeOther},
		{http.MethodGet, "/api/unsubscribe/sub-1", "", http.StatusSeeOther},
		{http.MethodPost, "/api/unsubscribe/sub-1", "", http.StatusOK},
	}

	for _, p := range paths {
		var reader *strings.Reader
		if p.body != "" {
			reader = strings.NewReader(p.body)
		} else {
			reader = strings.NewReader("")
		}
		req := httptest.NewRequest(p.method, p.path, reader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != p.want {
			t.Errorf("%s %s: status = %d, want %d", p.method, p.path, w.Code, p.want)
		}
	}
}

// TestRouter_PublicRoutesHaveRateLimitHeaders は公開ルートにレート制限ヘッダが付くことを検証する。
func TestRouter_PublicRoutesHaveRateLimitHeaders(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("X-Real-IP", "192.0.2.1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("expected X-RateLimit-Limit header on public route")
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("expected X-RateLimit-Remaining header on public route")
	}
}

// TestRouter_AdminRoutesAreRateLimited は管理ルートにもレート制限が適用されることを検証する。
func TestRouter_AdminRoutesAreRateLimited(t *testing.T) {
	router := newTestRouter(validSessionFinder())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/articles", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	req.Header.Set("X-Real-IP", "192.0.2.2")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("expected X-RateLimit-Limit header on admin route")
	}
}

// TestRouter_AdminRateLimitExceeded は管理ルートで上限超過時に429が返ることを検証する。
func TestRouter_AdminRateLimitExceeded(t *testing.T) {
	router := newTestRouter(validSessionFinder())
	limit := middleware.DefaultRateLimiterConfig().Limit

	var last *httptest.ResponseRecorder
	for i := 0; i < limit+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/articles", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
		req.Header.Set("X-Real-IP", "192.0.2.3")
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}
}

// TestRouter_CORSHeaders はCORSヘッダが全ルートに適用されることを検証する。
func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:3000", got)
	}
}

// TestRouter_Login はログインルートが公開されていることを検証する。
func TestRouter_Login(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"secret"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestRouter_AdminMutationRequiresCSRFToken は管理ルートの状態変更リクエストが
// CSRFトークンなしで403になることを検証する。
func TestRouter_AdminMutationRequiresCSRFToken(t *testing.T) {
	router := newTestRouter(validSessionFinder())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/news/news-1/send", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

// TestRouter_AdminMutationWithCSRFToken はCSRFトークン付きの状態変更リクエストが通ることを検証する。
func TestRouter_AdminMutationWithCSRFToken(t *testing.T) {
	router := newTestRouter(validSessionFinder())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/news/news-1/send", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "token-1"})
	req.Header.Set("X-CSRF-Token", "token-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestRouter_CSRFTokenEndpoint はCSRFトークン取得エンドポイントを検証する。
func TestRouter_CSRFTokenEndpoint(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body["token"] == "" {
		t.Error("expected non-empty csrf token")
	}
}

// TestRouter_UnknownRoute は未定義ルートで404が返ることを検証する。
func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(&mockSessionFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
