package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/go-chi/chi/v5"
)

// mockSubscriberService はSubscriberServiceInterfaceのモック。
type mockSubscriberService struct {
	subscribeFn   func(ctx context.Context, email string) error
	confirmFn     func(ctx context.Context, id string) error
	unsubscribeFn func(ctx context.Context, id string) error
	listFn        func(ctx context.Context) ([]*model.Subscriber, error)
}

func (m *mockSubscriberService) Subscribe(ctx context.Context, email string) error {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email)
	}
	return nil
}

func (m *mockSubscriberService) Confirm(ctx context.Context, id string) error {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, id)
	}
	return nil
}

func (m *mockSubscriberService) Unsubscribe(ctx context.Context, id string) error {
	if m.unsubscribeFn != nil {
		return m.unsubscribeFn(ctx, id)
	}
	return nil
}

func (m *mockSubscriberService) List(ctx context.Context) ([]*model.Subscriber, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// mockEventRecorder はSubscriptionEventRecorderのモック。
type mockEventRecorder struct {
	events []string
}

func (m *mockEventRecorder) RecordSubscription(event string) {
	m.events = append(m.events, event)
}

// subscriberTestRouter はURLパラメータ解決のためchi経由でハンドラーを組み立てる。
func subscriberTestRouter(service SubscriberServiceInterface, rec *mockEventRecorder) http.Handler {
	h := NewSubscriberHandler(service, rec)
	r := chi.NewRouter()
	r.Post("/api/subscribe", h.Subscribe)
	r.Get("/api/subscribe/confirm/{id}", h.Confirm)
	r.Get("/api/unsubscribe/{id}", h.Unsubscribe)
	r.Post("/api/unsubscribe/{id}", h.UnsubscribeOneClick)
	r.Get("/api/admin/subscribers", h.ListSubscribers)
	return r
}

// TestSubscriberHandler_Subscribe は購読登録の成功レスポンスを検証する。
func TestSubscriberHandler_Subscribe(t *testing.T) {
	var gotEmail string
	rec := &mockEventRecorder{}
	router := subscriberTestRouter(&mockSubscriberService{
		subscribeFn: func(ctx context.Context, email string) error {
			gotEmail = email
			return nil
		},
	}, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(`{"email":"ana@example.com"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if gotEmail != "ana@example.com" {
		t.Errorf("email = %q, want ana@example.com", gotEmail)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("body = %v, want ok=true", body)
	}
	if len(rec.events) != 1 || rec.events[0] != "subscribe" {
		t.Errorf("recorded events = %v, want [subscribe]", rec.events)
	}
}

// TestSubscriberHandler_Subscribe_InvalidEmail は不正なメールアドレスで400が返ることを検証する。
func TestSubscriberHandler_Subscribe_InvalidEmail(t *testing.T) {
	rec := &mockEventRecorder{}
	router := subscriberTestRouter(&mockSubscriberService{
		subscribeFn: func(ctx context.Context, email string) error {
			return model.NewInvalidEmailError()
		},
	}, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(`{"email":"not-an-email"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var body apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body.Code != model.ErrCodeInvalidEmail {
		t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeInvalidEmail)
	}
	if len(rec.events) != 0 {
		t.Errorf("recorded events = %v, want none", rec.events)
	}
}

// TestSubscriberHandler_Subscribe_EmptyEmail は空メールアドレスがサービス呼び出し前に拒否されることを検証する。
func TestSubscriberHandler_Subscribe_EmptyEmail(t *testing.T) {
	called := false
	router := subscriberTestRouter(&mockSubscriberService{
		subscribeFn: func(ctx context.Context, email string) error {
			called = true
			return nil
		},
	}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(`{"email":""}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if called {
		t.Error("Subscribe service must not be called for empty email")
	}
}

// TestSubscriberHandler_Confirm は確認成功時のリダイレクト先を検証する。
func TestSubscriberHandler_Confirm(t *testing.T) {
	var gotID string
	rec := &mockEventRecorder{}
	router := subscriberTestRouter(&mockSubscriberService{
		confirmFn: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/subscribe/confirm/sub-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/confirmed" {
		t.Errorf("Location = %q, want /confirmed", loc)
	}
	if gotID != "sub-1" {
		t.Errorf("id = %q, want sub-1", gotID)
	}
	if len(rec.events) != 1 || rec.events[0] != "confirm" {
		t.Errorf("recorded events = %v, want [confirm]", rec.events)
	}
}

// TestSubscriberHandler_Confirm_Failure は確認失敗時にエラーページへリダイレクトすることを検証する。
func TestSubscriberHandler_Confirm_Failure(t *testing.T) {
	router := subscriberTestRouter(&mockSubscriberService{
		confirmFn: func(ctx context.Context, id string) error {
			return model.NewSubscriberNotFoundError(id)
		},
	}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/subscribe/confirm/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/confirmed/error" {
		t.Errorf("Location = %q, want /confirmed/error", loc)
	}
}

// TestSubscriberHandler_Unsubscribe は購読解除のリダイレクト先を検証する。
func TestSubscriberHandler_Unsubscribe(t *testing.T) {
	router := subscriberTestRouter(&mockSubscriberService{}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/unsubscribe/sub-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/unsubscribed" {
		t.Errorf("Location = %q, want /unsubscribed", loc)
	}
}

// TestSubscriberHandler_Unsubscribe_Unknown は未知のIDでトップページへ戻ることを検証する。
func TestSubscriberHandler_Unsubscribe_Unknown(t *testing.T) {
	router := subscriberTestRouter(&mockSubscriberService{
		unsubscribeFn: func(ctx context.Context, id string) error {
			return model.NewSubscriberNotFoundError(id)
		},
	}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/unsubscribe/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

// TestSubscriberHandler_UnsubscribeOneClick はワンクリック解除がJSONで応答することを検証する。
func TestSubscriberHandler_UnsubscribeOneClick(t *testing.T) {
	rec := &mockEventRecorder{}
	router := subscriberTestRouter(&mockSubscriberService{}, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/unsubscribe/sub-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if len(rec.events) != 1 || rec.events[0] != "unsubscribe" {
		t.Errorf("recorded events = %v, want [unsubscribe]", rec.events)
	}
}

// TestSubscriberHandler_UnsubscribeOneClick_Unknown は未知のIDで404が返ることを検証する。
func TestSubscriberHandler_UnsubscribeOneClick_Unknown(t *testing.T) {
	router := subscriberTestRouter(&mockSubscriberService{
		unsubscribeFn: func(ctx context.Context, id string) error {
			return model.NewSubscriberNotFoundError(id)
		},
	}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodPost, "/api/unsubscribe/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestSubscriberHandler_ListSubscribers は購読者一覧のレスポンスを検証する。
func TestSubscriberHandler_ListSubscribers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	router := subscriberTestRouter(&mockSubscriberService{
		listFn: func(ctx context.Context) ([]*model.Subscriber, error) {
			return []*model.Subscriber{
				{
					ID:             "sub-1",
					Email:          "ana@example.com",
					Status:         model.SubscriberStatusActive,
					EmailConfirmed: true,
					SubscribedAt:   now,
				},
			}, nil
		},
	}, &mockEventRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscribers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body []subscriberResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("len(body) = %d, want 1", len(body))
	}
	if body[0].Email != "ana@example.com" || body[0].Status != "ACTIVE" || !body[0].EmailConfirmed {
		t.Errorf("unexpected subscriber response: %+v", body[0])
	}
}
