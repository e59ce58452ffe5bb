package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, slug, title, description, content, tags, language, published, published_at, created_at, updated_at`

// scanArticle は1行を*model.Articleに読み取る。
func scanArticle(row interface{ Scan(...any) error }) (*model.Article, error) {
	a := &model.Article{}
	err := row.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Description, &a.Content,
		pq.Array(&a.Tags), &a.Language, &a.Published, &a.PublishedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindBySlug は指定スラッグの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindBySlug(ctx context.Context, slug string) (*model.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによる記事の検索に失敗しました: %w", err)
	}
	return a, nil
}

// SlugExists はスラッグが既に使用されているかを返す。
func (r *PostgresArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("スラッグの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// List は全記事を更新日時降順で返す。
func (r *PostgresArticleRepo) List(ctx context.Context) ([]*model.Article, error) {
	return r.list(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY updated_at DESC`)
}

// ListPublished は公開済み記事を公開日時降順で返す。
func (r *PostgresArticleRepo) ListPublished(ctx context.Context) ([]*model.Article, error) {
	return r.list(ctx, `SELECT `+articleColumns+` FROM articles WHERE published = true ORDER BY published_at DESC`)
}

func (r *PostgresArticleRepo) list(ctx context.Context, query string) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return articles, nil
}

// Create は記事を作成する。スラッグの一意制約違反はそのまま返す。
func (r *PostgresArticleRepo) Create(ctx context.Context, a *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Slug, a.Title, a.Description, a.Content,
		pq.Array(a.Tags), a.Language, a.Published, a.PublishedAt,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事を上書き更新する。スラッグの一意制約違反はそのまま返す。
func (r *PostgresArticleRepo) Update(ctx context.Context, a *model.Article) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles
		 SET slug = $2, title = $3, description = $4, content = $5, tags = $6,
		     language = $7, published = $8, published_at = $9, updated_at = $10
		 WHERE id = $1`,
		a.ID, a.Slug, a.Title, a.Description, a.Content, pq.Array(a.Tags),
		a.Language, a.Published, a.PublishedAt, a.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("記事が見つかりません: %s", a.ID)
	}
	return nil
}

// Delete は指定IDの記事を削除する。
func (r *PostgresArticleRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("記事が見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
