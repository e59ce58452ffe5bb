package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arnoldmoya/newsroom/internal/content"
	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/go-chi/chi/v5"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// Create は記事を作成しスラッグを割り当てる。
	Create(ctx context.Context, input content.ArticleInput) (*model.Article, error)
	// Update は記事を上書き更新する。
	Update(ctx context.Context, id string, input content.ArticleInput) (*model.Article, error)
	// SetPublished は公開状態を切り替える。
	SetPublished(ctx context.Context, id string, published bool) (*model.Article, error)
	// Get は指定IDの記事を取得する。
	Get(ctx context.Context, id string) (*model.Article, error)
	// GetBySlug は指定スラッグの記事を取得する。
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	// List は記事一覧を返す。publishedOnlyがtrueの場合は公開済みのみ。
	List(ctx context.Context, publishedOnly bool) ([]*model.Article, error)
	// Delete は指定IDの記事を削除する。
	Delete(ctx context.Context, id string) error
}

// ArticleHandler はブログ記事のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// articleRequest は記事の作成・更新リクエストのボディ。
type articleRequest struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Language    string   `json:"language"`
	Published   bool     `json:"published"`
}

// setPublishedRequest は公開状態の切り替えリクエストのボディ。
type setPublishedRequest struct {
	Published bool `json:"published"`
}

// articleResponse は記事情報のAPIレスポンス。
type articleResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Language    string     `json:"language"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListPublished は公開済み記事の一覧を返す。
// GET /api/articles
func (h *ArticleHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context(), true)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// GetBySlug は公開済み記事をスラッグで取得する。
// GET /api/articles/{slug}
func (h *ArticleHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	article, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 未公開の記事は公開APIでは存在しないものとして扱う
	if !article.Published {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(slug))
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// ListAll は全記事の一覧を返す（管理画面用）。
// GET /api/admin/articles
func (h *ArticleHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context(), false)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// Get は記事をIDで取得する（管理画面用）。
// GET /api/admin/articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// Create は記事を作成する。
// POST /api/admin/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	article, err := h.service.Create(r.Context(), toArticleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toArticleResponse(article))
}

// Update は記事を更新する。
// PUT /api/admin/articles/{id}
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	article, err := h.service.Update(r.Context(), id, toArticleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// SetPublished は記事の公開状態を切り替える。
// POST /api/admin/articles/{id}/publish
func (h *ArticleHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setPublishedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return
	}

	article, err := h.service.SetPublished(r.Context(), id, req.Published)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// Delete は記事を削除する。
// DELETE /api/admin/articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toArticleInput はAPIリクエストからサービス入力に変換する。
func toArticleInput(req articleRequest) content.ArticleInput {
	return content.ArticleInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Tags:        req.Tags,
		Language:    model.Language(req.Language),
		Published:   req.Published,
	}
}

// toArticleResponse はmodel.ArticleからAPIレスポンスに変換する。
func toArticleResponse(article *model.Article) articleResponse {
	return articleResponse{
		ID:          article.ID,
		Slug:        article.Slug,
		Title:       article.Title,
		Description: article.Description,
		Content:     article.Content,
		Tags:        article.Tags,
		Language:    string(article.Language),
		Published:   article.Published,
		PublishedAt: article.PublishedAt,
		CreatedAt:   article.CreatedAt,
		UpdatedAt:   article.UpdatedAt,
	}
}

func toArticleResponses(articles []*model.Article) []articleResponse {
	resp := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, toArticleResponse(a))
	}
	return resp
}
