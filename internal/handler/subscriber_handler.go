package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/go-chi/chi/v5"
)

// SubscriberServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriberServiceInterface interface {
	// Subscribe はメールアドレスを購読登録し確認メールを送信する。
	Subscribe(ctx context.Context, email string) error
	// Confirm は確認リンクのクリックを処理する。
	Confirm(ctx context.Context, id string) error
	// Unsubscribe は購読を解除する。
	Unsubscribe(ctx context.Context, id string) error
	// List は全購読者を返す（管理画面用）。
	List(ctx context.Context) ([]*model.Subscriber, error)
}

// SubscriptionEventRecorder は購読イベントのメトリクス記録インターフェース。
// metrics.MetricsCollectorを直接要求せず、最小限のインターフェースとして定義する。
type SubscriptionEventRecorder interface {
	RecordSubscription(event string)
}

// SubscriberHandler は購読管理のHTTPハンドラー。
type SubscriberHandler struct {
	service SubscriberServiceInterface
	metrics SubscriptionEventRecorder
}

// NewSubscriberHandler はSubscriberHandlerを生成する。
func NewSubscriberHandler(service SubscriberServiceInterface, metrics SubscriptionEventRecorder) *SubscriberHandler {
	return &SubscriberHandler{
		service: service,
		metrics: metrics,
	}
}

// subscribeRequest は購読登録リクエストのボディ。
type subscribeRequest struct {
	Email string `json:"email"`
}

// subscriberResponse は購読者情報のAPIレスポンス（管理画面用）。
type subscriberResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	EmailConfirmed bool       `json:"email_confirmed"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

// Subscribe は購読登録を処理する。
// POST /api/subscribe
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidEmailError())
		return
	}

	if err := h.service.Subscribe(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSubscription("subscribe")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Confirm はメール確認リンクのクリックを処理し、結果ページへリダイレクトする。
// GET /api/subscribe/confirm/{id}
func (h *SubscriberHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Confirm(r.Context(), id); err != nil {
		http.Redirect(w, r, "/confirmed/error", http.StatusSeeOther)
		return
	}

	h.metrics.RecordSubscription("confirm")
	http.Redirect(w, r, "/confirmed", http.StatusSeeOther)
}

// Unsubscribe はメール内リンクからの購読解除を処理し、結果ページへリダイレクトする。
// GET /api/unsubscribe/{id}
func (h *SubscriberHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Unsubscribe(r.Context(), id); err != nil {
		// 未知のIDはトップページへ戻す
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.metrics.RecordSubscription("unsubscribe")
	http.Redirect(w, r, "/unsubscribed", http.StatusSeeOther)
}

// UnsubscribeOneClick はメールクライアントからのワンクリック購読解除を処理する。
// RFC 8058のList-Unsubscribe-Postヘッダー経由でGmail等が呼び出す。
// POST /api/unsubscribe/{id}
func (h *SubscriberHandler) UnsubscribeOneClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Unsubscribe(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSubscription("unsubscribe")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ListSubscribers は全購読者の一覧を返す。
// GET /api/admin/subscribers
func (h *SubscriberHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]subscriberResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toSubscriberResponse(sub))
	}

	writeJSON(w, http.StatusOK, resp)
}

// toSubscriberResponse はmodel.SubscriberからAPIレスポンスに変換する。
func toSubscriberResponse(sub *model.Subscriber) subscriberResponse {
	return subscriberResponse{
		ID:             sub.ID,
		Email:          sub.Email,
		Status:         string(sub.Status),
		EmailConfirmed: sub.EmailConfirmed,
		SubscribedAt:   sub.SubscribedAt,
		UnsubscribedAt: sub.UnsubscribedAt,
	}
}
