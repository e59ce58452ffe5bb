package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arnoldmoya/newsroom/internal/content"
	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/notify"
	"github.com/go-chi/chi/v5"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// Create はニュースを作成しスラッグを割り当てる。
	Create(ctx context.Context, input content.NewsInput) (*model.NewsItem, error)
	// Update はニュースを上書き更新する。配信済みフラグは変更しない。
	Update(ctx context.Context, id string, input content.NewsInput) (*model.NewsItem, error)
	// SetPublished は公開状態を切り替える。
	SetPublished(ctx context.Context, id string, published bool) (*model.NewsItem, error)
	// Get は指定IDのニュースを取得する。
	Get(ctx context.Context, id string) (*model.NewsItem, error)
	// GetBySlug は指定スラッグのニュースを取得する。
	GetBySlug(ctx context.Context, slug string) (*model.NewsItem, error)
	// List はニュース一覧を返す。publishedOnlyがtrueの場合は公開済みのみ。
	List(ctx context.Context, publishedOnly bool) ([]*model.NewsItem, error)
	// Delete は指定IDのニュースを削除する。
	Delete(ctx context.Context, id string) error
}

// DispatcherInterface はニュース配信のインターフェース。
type DispatcherInterface interface {
	// Dispatch は指定IDのニュースを確認済み購読者全員に配信する。
	Dispatch(ctx context.Context, id string) (*notify.Result, error)
	// DispatchTest は指定スラッグのニュースを運用者アドレスにテスト配信する。
	DispatchTest(ctx context.Context, slug string) (string, error)
}

// BroadcastRecorder は配信メトリクスの記録インターフェース。
type BroadcastRecorder interface {
	RecordBroadcast(sent, failed int)
	RecordBroadcastLatency(duration time.Duration)
}

// NewsHandler はニュース項目と配信のHTTPハンドラー。
type NewsHandler struct {
	service    NewsServiceInterface
	dispatcher DispatcherInterface
	metrics    BroadcastRecorder
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface, dispatcher DispatcherInterface, metrics BroadcastRecorder) *NewsHandler {
	return &NewsHandler{
		service:    service,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// newsRequest はニュースの作成・更新リクエストのボディ。
type newsRequest struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	Published bool   `json:"published"`
}

// newsResponse はニュース情報のAPIレスポンス。
type newsResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	Language    string     `json:"language"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListPublished は公開済みニュースの一覧を返す。
// GET /api/news
func (h *NewsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), true)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponses(items))
}

// GetBySlug は公開済みニュースをスラッグで取得する。
// GET /api/news/{slug}
func (h *NewsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	item, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 未公開のニュースは公開APIでは存在しないものとして扱う
	if !item.Published {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNewsNotFoundError(slug))
		return
	}

	writeJSON(w, http.StatusOK, toNewsResponse(item))
}

// ListAll は全ニュースの一覧を返す（管理画面用）。
// GET /api/admin/news
func (h *NewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), false)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponses(items))
}

// Get はニュースをIDで取得する（管理画面用）。
// GET /api/admin/news/{id}
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponse(item))
}

// Create はニュースを作成する。
// POST /api/admin/news
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	item, err := h.service.Create(r.Context(), toNewsInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNewsResponse(item))
}

// Update はニュースを更新する。
// PUT /api/admin/news/{id}
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	item, err := h.service.Update(r.Context(), id, toNewsInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponse(item))
}

// SetPublished はニュースの公開状態を切り替える。
// POST /api/admin/news/{id}/publish
func (h *NewsHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setPublishedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	item, err := h.service.SetPublished(r.Context(), id, req.Published)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponse(item))
}

// Delete はニュースを削除する。
// DELETE /api/admin/news/{id}
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send はニュースを確認済み購読者全員に配信する。
// POST /api/admin/news/{id}/send
func (h *NewsHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start := time.Now()
	result, err := h.dispatcher.Dispatch(r.Context(), id)
	if result != nil {
		h.metrics.RecordBroadcast(result.SentCount, len(result.Failed))
		h.metrics.RecordBroadcastLatency(time.Since(start))
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"sent": result.SentCount,
	})
}

// SendTest はニュースを運用者アドレスにテスト配信する。
// 配信済みフラグは変更されず、何度でも実行できる。
// POST /api/admin/news/test-send/{slug}
func (h *NewsHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	sentTo, err := h.dispatcher.DispatchTest(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"sent_to": sentTo,
	})
}

// --- ヘルパー関数 ---

// toNewsInput はAPIリクエストからサービス入力に変換する。
func toNewsInput(req newsRequest) content.NewsInput {
	return content.NewsInput{
		Slug:      req.Slug,
		Title:     req.Title,
		Summary:   req.Summary,
		Content:   req.Content,
		Language:  model.Language(req.Language),
		Published: req.Published,
	}
}

// toNewsResponse はmodel.NewsItemからAPIレスポンスに変換する。
func toNewsResponse(item *model.NewsItem) newsResponse {
	return newsResponse{
		ID:          item.ID,
		Slug:        item.Slug,
		Title:       item.Title,
		Summary:     item.Summary,
		Content:     item.Content,
		Language:    string(item.Language),
		Published:   item.Published,
		PublishedAt: item.PublishedAt,
		EmailSent:   item.EmailSent,
		EmailSentAt: item.EmailSentAt,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toNewsResponses(items []*model.NewsItem) []newsResponse {
	resp := make([]newsResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toNewsResponse(item))
	}
	return resp
}
