package content

import (
	"context"
	"testing"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// --- モック ---

type mockNewsRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.NewsItem, error)
	findBySlugFn func(ctx context.Context, slug string) (*model.NewsItem, error)
	slugExistsFn func(ctx context.Context, slug string) (bool, error)
	createFn     func(ctx context.Context, item *model.NewsItem) error
	updateFn     func(ctx context.Context, item *model.NewsItem) error
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockNewsRepo) FindByID(ctx context.Context, id string) (*model.NewsItem, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockNewsRepo) FindBySlug(ctx context.Context, slug string) (*model.NewsItem, error) {
	return m.findBySlugFn(ctx, slug)
}
func (m *mockNewsRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}
func (m *mockNewsRepo) FindLatestPublished(ctx context.Context) (*model.NewsItem, error) {
	return nil, nil
}
func (m *mockNewsRepo) List(ctx context.Context) ([]*model.NewsItem, error) {
	return nil, nil
}
func (m *mockNewsRepo) ListPublished(ctx context.Context) ([]*model.NewsItem, error) {
	return nil, nil
}
func (m *mockNewsRepo) Create(ctx context.Context, item *model.NewsItem) error {
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}
func (m *mockNewsRepo) Update(ctx context.Context, item *model.NewsItem) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, item)
	}
	return nil
}
func (m *mockNewsRepo) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error {
	return nil
}
func (m *mockNewsRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- テスト ---

// TestNewsService_Create はニュース作成とスラッグ導出を検証する。
func TestNewsService_Create(t *testing.T) {
	repo := &mockNewsRepo{}
	svc := NewNewsService(repo)

	news, err := svc.Create(context.Background(), NewsInput{
		Title:   "Resumen del mes",
		Summary: "breve",
		Content: "## Novedades",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !slugPattern.MatchString(news.Slug) {
		t.Errorf("Slug = %q, want lowercase-hyphen form with 4-digit suffix", news.Slug)
	}
	if news.EmailSent || news.EmailSentAt != nil {
		t.Error("expected new news item without email sent state")
	}
}

// TestNewsService_Update_DoesNotTouchEmailSent は更新がメール配信フラグを
// 変更しないことを検証する。
func TestNewsService_Update_DoesNotTouchEmailSent(t *testing.T) {
	sentAt := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var updated *model.NewsItem
	repo := &mockNewsRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.NewsItem, error) {
			return &model.NewsItem{
				ID: id, Slug: "resumen-0001", Title: "Resumen", Content: "x",
				EmailSent: true, EmailSentAt: &sentAt,
			}, nil
		},
		updateFn: func(ctx context.Context, item *model.NewsItem) error {
			updated = item
			return nil
		},
	}
	svc := NewNewsService(repo)

	_, err := svc.Update(context.Background(), "n-1", NewsInput{Title: "Resumen v2", Content: "y"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected repo.Update to be called")
	}
	if !updated.EmailSent || updated.EmailSentAt == nil {
		t.Error("expected EmailSent state to be preserved across update")
	}
}

// TestNewsService_Update_NotFound は存在しないニュースの更新がエラーになることを検証する。
func TestNewsService_Update_NotFound(t *testing.T) {
	repo := &mockNewsRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.NewsItem, error) {
			return nil, nil
		},
	}
	svc := NewNewsService(repo)

	_, err := svc.Update(context.Background(), "missing", NewsInput{Title: "t", Content: "x"})
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeNewsNotFound {
		t.Fatalf("expected NEWS_NOT_FOUND, got %v", err)
	}
}

// TestNewsService_SetPublished_Unpublish は非公開化でPublishedAtがクリアされることを検証する。
func TestNewsService_SetPublished_Unpublish(t *testing.T) {
	published := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockNewsRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.NewsItem, error) {
			return &model.NewsItem{ID: id, Published: true, PublishedAt: &published}, nil
		},
	}
	svc := NewNewsService(repo)

	news, err := svc.SetPublished(context.Background(), "n-1", false)
	if err != nil {
		t.Fatalf("SetPublished returned error: %v", err)
	}
	if news.Published || news.PublishedAt != nil {
		t.Error("expected unpublished news with nil PublishedAt")
	}
}

// TestNewsService_GetBySlug_NotFound は未知のスラッグがエラーになることを検証する。
func TestNewsService_GetBySlug_NotFound(t *testing.T) {
	repo := &mockNewsRepo{
		findBySlugFn: func(ctx context.Context, slug string) (*model.NewsItem, error) {
			return nil, nil
		},
	}
	svc := NewNewsService(repo)

	_, err := svc.GetBySlug(context.Background(), "desconocido-0000")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeNewsNotFound {
		t.Fatalf("expected NEWS_NOT_FOUND, got %v", err)
	}
}
