package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/repository"
	"github.com/arnoldmoya/newsroom/internal/slug"
)

// NewsInput はニュースの作成・更新入力を表す。
// Slugが空の場合はTitleからスラッグを導出する。
type NewsInput struct {
	Slug      string
	Title     string
	Summary   string
	Content   string
	Language  model.Language
	Published bool
}

// NewsService はニュース管理のサービス層。
// メール配信フラグ（EmailSent）はここでは変更しない。配信の一回性は
// 配信処理側が管理する。
type NewsService struct {
	repo repository.NewsRepository
	now  func() time.Time
}

// NewNewsService はNewsServiceの新しいインスタンスを生成する。
func NewNewsService(repo repository.NewsRepository) *NewsService {
	return &NewsService{
		repo: repo,
		now:  time.Now,
	}
}

// Create はニュースを作成する。スラッグの割り当ては記事と同じ規則に従う。
func (s *NewsService) Create(ctx context.Context, input NewsInput) (*model.NewsItem, error) {
	if input.Language == "" {
		input.Language = model.LanguageES
	}
	if err := validateInput(input.Title, input.Content, input.Language); err != nil {
		return nil, err
	}

	now := s.now()
	candidate := slugCandidate(input.Slug, input.Title)

	var lastErr error
	for i := 0; i < createRetries; i++ {
		allocated, err := slug.Allocate(ctx, candidate, s.repo.SlugExists)
		if err != nil {
			return nil, err
		}

		news := &model.NewsItem{
			ID:          uuid.New().String(),
			Slug:        allocated,
			Title:       input.Title,
			Summary:     input.Summary,
			Content:     input.Content,
			Language:    input.Language,
			Published:   input.Published,
			PublishedAt: applyPublishTransition(false, input.Published, nil, now),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.repo.Create(ctx, news)
		if err == nil {
			return news, nil
		}
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("ニュースの作成に失敗しました: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ニュースのスラッグ割り当てが競合しました: %w", lastErr)
}

// Update はニュースを更新する。EmailSent関連のフィールドは変更されない。
func (s *NewsService) Update(ctx context.Context, id string, input NewsInput) (*model.NewsItem, error) {
	if input.Language == "" {
		input.Language = model.LanguageES
	}
	if err := validateInput(input.Title, input.Content, input.Language); err != nil {
		return nil, err
	}

	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil, model.NewNewsNotFoundError(id)
	}

	now := s.now()
	newSlug := news.Slug
	if input.Slug != "" {
		normalized, err := slug.Normalize(input.Slug)
		if err != nil {
			return nil, err
		}
		if normalized != news.Slug {
			newSlug, err = slug.Allocate(ctx, input.Slug, s.repo.SlugExists)
			if err != nil {
				return nil, err
			}
		}
	}

	news.Slug = newSlug
	news.Title = input.Title
	news.Summary = input.Summary
	news.Content = input.Content
	news.Language = input.Language
	news.PublishedAt = applyPublishTransition(news.Published, input.Published, news.PublishedAt, now)
	news.Published = input.Published
	news.UpdatedAt = now

	if err := s.repo.Update(ctx, news); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewSlugExhaustedError(newSlug)
		}
		return nil, fmt.Errorf("ニュースの更新に失敗しました: %w", err)
	}

	return news, nil
}

// SetPublished はニュースの公開フラグを切り替える。
func (s *NewsService) SetPublished(ctx context.Context, id string, published bool) (*model.NewsItem, error) {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil, model.NewNewsNotFoundError(id)
	}

	now := s.now()
	news.PublishedAt = applyPublishTransition(news.Published, published, news.PublishedAt, now)
	news.Published = published
	news.UpdatedAt = now

	if err := s.repo.Update(ctx, news); err != nil {
		return nil, fmt.Errorf("ニュースの更新に失敗しました: %w", err)
	}

	return news, nil
}

// Get は指定IDのニュースを返す。見つからない場合はNEWS_NOT_FOUNDエラーを返す。
func (s *NewsService) Get(ctx context.Context, id string) (*model.NewsItem, error) {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil, model.NewNewsNotFoundError(id)
	}
	return news, nil
}

// GetBySlug は指定スラッグのニュースを返す。見つからない場合はNEWS_NOT_FOUNDエラーを返す。
func (s *NewsService) GetBySlug(ctx context.Context, slugValue string) (*model.NewsItem, error) {
	news, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil, model.NewNewsNotFoundError(slugValue)
	}
	return news, nil
}

// List は全ニュースを返す。publishedOnlyがtrueの場合は公開済みのみを返す。
func (s *NewsService) List(ctx context.Context, publishedOnly bool) ([]*model.NewsItem, error) {
	if publishedOnly {
		return s.repo.ListPublished(ctx)
	}
	return s.repo.List(ctx)
}

// Delete は指定IDのニュースを削除する。
func (s *NewsService) Delete(ctx context.Context, id string) error {
	news, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return model.NewNewsNotFoundError(id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ニュースの削除に失敗しました: %w", err)
	}
	return nil
}
