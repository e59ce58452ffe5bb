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

// ArticleInput は記事の作成・更新入力を表す。
// Slugが空の場合はTitleからスラッグを導出する。
type ArticleInput struct {
	Slug        string
	Title       string
	Description string
	Content     string
	Tags        []string
	Language    model.Language
	Published   bool
}

// ArticleService は記事管理のサービス層。
type ArticleService struct {
	repo repository.ArticleRepository
	now  func() time.Time
}

// NewArticleService はArticleServiceの新しいインスタンスを生成する。
func NewArticleService(repo repository.ArticleRepository) *ArticleService {
	return &ArticleService{
		repo: repo,
		now:  time.Now,
	}
}

// Create は記事を作成する。スラッグは候補（明示指定またはタイトル）から
// 一意に割り当てられる。挿入時の一意制約違反は割り当てからやり直す。
func (s *ArticleService) Create(ctx context.Context, input ArticleInput) (*model.Article, error) {
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

		article := &model.Article{
			ID:          uuid.New().String(),
			Slug:        allocated,
			Title:       input.Title,
			Description: input.Description,
			Content:     input.Content,
			Tags:        input.Tags,
			Language:    input.Language,
			Published:   input.Published,
			PublishedAt: applyPublishTransition(false, input.Published, nil, now),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.repo.Create(ctx, article)
		if err == nil {
			return article, nil
		}
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("記事のスラッグ割り当てが競合しました: %w", lastErr)
}

// Update は記事を更新する。
// スラッグは明示指定があり、かつ正規化結果が現在のスラッグと異なる場合のみ
// 再割り当てされる。公開フラグの遷移に応じてPublishedAtを設定・クリアする。
func (s *ArticleService) Update(ctx context.Context, id string, input ArticleInput) (*model.Article, error) {
	if input.Language == "" {
		input.Language = model.LanguageES
	}
	if err := validateInput(input.Title, input.Content, input.Language); err != nil {
		return nil, err
	}

	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}

	now := s.now()
	newSlug := article.Slug
	if input.Slug != "" {
		normalized, err := slug.Normalize(input.Slug)
		if err != nil {
			return nil, err
		}
		if normalized != article.Slug {
			newSlug, err = slug.Allocate(ctx, input.Slug, s.repo.SlugExists)
			if err != nil {
				return nil, err
			}
		}
	}

	article.Slug = newSlug
	article.Title = input.Title
	article.Description = input.Description
	article.Content = input.Content
	article.Tags = input.Tags
	article.Language = input.Language
	article.PublishedAt = applyPublishTransition(article.Published, input.Published, article.PublishedAt, now)
	article.Published = input.Published
	article.UpdatedAt = now

	if err := s.repo.Update(ctx, article); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewSlugExhaustedError(newSlug)
		}
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	return article, nil
}

// SetPublished は記事の公開フラグを切り替える。
// 非公開→公開の遷移でPublishedAtを設定し、公開→非公開でクリアする。
func (s *ArticleService) SetPublished(ctx context.Context, id string, published bool) (*model.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}

	now := s.now()
	article.PublishedAt = applyPublishTransition(article.Published, published, article.PublishedAt, now)
	article.Published = published
	article.UpdatedAt = now

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	return article, nil
}

// Get は指定IDの記事を返す。見つからない場合はARTICLE_NOT_FOUNDエラーを返す。
func (s *ArticleService) Get(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return article, nil
}

// GetBySlug は指定スラッグの記事を返す。見つからない場合はARTICLE_NOT_FOUNDエラーを返す。
func (s *ArticleService) GetBySlug(ctx context.Context, slugValue string) (*model.Article, error) {
	article, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(slugValue)
	}
	return article, nil
}

// List は全記事を返す。publishedOnlyがtrueの場合は公開済みのみを返す。
func (s *ArticleService) List(ctx context.Context, publishedOnly bool) ([]*model.Article, error) {
	if publishedOnly {
		return s.repo.ListPublished(ctx)
	}
	return s.repo.List(ctx)
}

// Delete は指定IDの記事を削除する。
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if article == nil {
		return model.NewArticleNotFoundError(id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	return nil
}
