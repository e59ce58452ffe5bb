package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュースリポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

const newsColumns = `id, slug, title, summary, content, language, published, published_at, email_sent, email_sent_at, created_at, updated_at`

// scanNews は1行を*model.NewsItemに読み取る。
func scanNews(row interface{ Scan(...any) error }) (*model.NewsItem, error) {
	n := &model.NewsItem{}
	err := row.Scan(
		&n.ID, &n.Slug, &n.Title, &n.Summary, &n.Content, &n.Language,
		&n.Published, &n.PublishedAt, &n.EmailSent, &n.EmailSentAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindByID は指定IDのニュースを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindByID(ctx context.Context, id string) (*model.NewsItem, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news_items WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	return n, nil
}

// FindBySlug は指定スラッグのニュースを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindBySlug(ctx context.Context, slug string) (*model.NewsItem, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news_items WHERE slug = $1`, slug,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによるニュースの検索に失敗しました: %w", err)
	}
	return n, nil
}

// SlugExists はスラッグが既に使用されているかを返す。
func (r *PostgresNewsRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM news_items WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("スラッグの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// FindLatestPublished は公開日時が最新の公開済みニュースを返す。
// 公開済みニュースが存在しない場合はnilを返す。
func (r *PostgresNewsRepo) FindLatestPublished(ctx context.Context) (*model.NewsItem, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news_items
		 WHERE published = true
		 ORDER BY published_at DESC
		 LIMIT 1`,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最新公開ニュースの取得に失敗しました: %w", err)
	}
	return n, nil
}

// List は全ニュースを更新日時降順で返す。
func (r *PostgresNewsRepo) List(ctx context.Context) ([]*model.NewsItem, error) {
	return r.list(ctx, `SELECT `+newsColumns+` FROM news_items ORDER BY updated_at DESC`)
}

// ListPublished は公開済みニュースを公開日時降順で返す。
func (r *PostgresNewsRepo) ListPublished(ctx context.Context) ([]*model.NewsItem, error) {
	return r.list(ctx, `SELECT `+newsColumns+` FROM news_items WHERE published = true ORDER BY published_at DESC`)
}

func (r *PostgresNewsRepo) list(ctx context.Context, query string) ([]*model.NewsItem, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ニュース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.NewsItem
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("ニュース行の読み取りに失敗しました: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ニュース一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はニュースを作成する。スラッグの一意制約違反はそのまま返す。
func (r *PostgresNewsRepo) Create(ctx context.Context, n *model.NewsItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_items (`+newsColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.Slug, n.Title, n.Summary, n.Content, n.Language,
		n.Published, n.PublishedAt, n.EmailSent, n.EmailSentAt,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("ニュースの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はニュースを上書き更新する。スラッグの一意制約違反はそのまま返す。
func (r *PostgresNewsRepo) Update(ctx context.Context, n *model.NewsItem) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news_items
		 SET slug = $2, title = $3, summary = $4, content = $5, language = $6,
		     published = $7, published_at = $8, updated_at = $9
		 WHERE id = $1`,
		n.ID, n.Slug, n.Title, n.Summary, n.Content, n.Language,
		n.Published, n.PublishedAt, n.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("ニュースの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ニュースが見つかりません: %s", n.ID)
	}
	return nil
}

// MarkEmailSent はニュースのメール配信済みフラグと配信日時を設定する。
func (r *PostgresNewsRepo) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news_items
		 SET email_sent = true, email_sent_at = $2, updated_at = NOW()
		 WHERE id = $1`,
		id, sentAt,
	)
	if err != nil {
		return fmt.Errorf("配信済みフラグの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ニュースが見つかりません: %s", id)
	}
	return nil
}

// Delete は指定IDのニュースを削除する。
func (r *PostgresNewsRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ニュースの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ニュースが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ NewsRepository = (*PostgresNewsRepo)(nil)
