// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// ArticleRepository はブログ記事の永続化インターフェース。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// FindBySlug は指定スラッグの記事を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Article, error)

	// SlugExists はスラッグが既に使用されているかを返す。
	SlugExists(ctx context.Context, slug string) (bool, error)

	// List は全記事を更新日時降順で返す（管理画面用）。
	List(ctx context.Context) ([]*model.Article, error)

	// ListPublished は公開済み記事を公開日時降順で返す。
	ListPublished(ctx context.Context) ([]*model.Article, error)

	// Create は記事を作成する。
	// スラッグの一意制約違反はIsUniqueViolationで判定可能なエラーとして返す。
	Create(ctx context.Context, article *model.Article) error

	// Update は記事を上書き更新する。
	// スラッグの一意制約違反はIsUniqueViolationで判定可能なエラーとして返す。
	Update(ctx context.Context, article *model.Article) error

	// Delete は指定IDの記事を削除する。
	Delete(ctx context.Context, id string) error
}

// NewsRepository はニュース項目の永続化インターフェース。
type NewsRepository interface {
	// FindByID は指定IDのニュースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.NewsItem, error)

	// FindBySlug は指定スラッグのニュースを取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.NewsItem, error)

	// SlugExists はスラッグが既に使用されているかを返す。
	SlugExists(ctx context.Context, slug string) (bool, error)

	// FindLatestPublished は公開日時が最新の公開済みニュースを返す。
	// 公開済みニュースが存在しない場合はnilを返す。
	FindLatestPublished(ctx context.Context) (*model.NewsItem, error)

	// List は全ニュースを更新日時降順で返す（管理画面用）。
	List(ctx context.Context) ([]*model.NewsItem, error)

	// ListPublished は公開済みニュースを公開日時降順で返す。
	ListPublished(ctx context.Context) ([]*model.NewsItem, error)

	// Create はニュースを作成する。
	// スラッグの一意制約違反はIsUniqueViolationで判定可能なエラーとして返す。
	Create(ctx context.Context, item *model.NewsItem) error

	// Update はニュースを上書き更新する。
	// スラッグの一意制約違反はIsUniqueViolationで判定可能なエラーとして返す。
	Update(ctx context.Context, item *model.NewsItem) error

	// MarkEmailSent はニュースのメール配信済みフラグと配信日時を設定する。
	MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error

	// Delete は指定IDのニュースを削除する。
	Delete(ctx context.Context, id string) error
}

// SubscriberRepository は購読者の永続化インターフェース。
type SubscriberRepository interface {
	// FindByID は指定IDの購読者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Subscriber, error)

	// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// Create は購読者を作成する。
	// メールアドレスの一意制約違反はIsUniqueViolationで判定可能なエラーとして返す。
	Create(ctx context.Context, sub *model.Subscriber) error

	// Update は購読者のステータスと各タイムスタンプを上書き更新する。
	Update(ctx context.Context, sub *model.Subscriber) error

	// List は全購読者を購読日時降順で返す（管理画面用）。
	List(ctx context.Context) ([]*model.Subscriber, error)

	// ListEligible は配信対象（ACTIVEかつメール確認済み）の購読者を返す。
	ListEligible(ctx context.Context) ([]*model.Subscriber, error)
}

// SessionRepository は管理者セッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
