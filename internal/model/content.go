// Package model はドメインモデルを定義する。
package model

import "time"

// Language はコンテンツの言語タグを表す。
type Language string

const (
	// LanguageES はスペイン語コンテンツを示す。デフォルト値。
	LanguageES Language = "ES"
	// LanguageEN は英語コンテンツを示す。
	LanguageEN Language = "EN"
)

// IsValid は言語タグがサポート対象かどうかを返す。
func (l Language) IsValid() bool {
	return l == LanguageES || l == LanguageEN
}

// Article はブログ記事を表す。
// PublishedAtはPublishedがfalse→trueに遷移した時点で1回だけ設定され、
// true→falseに戻った時点でクリアされる。
type Article struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Content     string // Markdown原文
	Tags        []string
	Language    Language
	Published   bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewsItem はニュースレター配信対象のニュース項目を表す。
// Articleと同形だが、メール配信の一回性を保証するEmailSentフラグを持つ。
// EmailSentは「配信済み」を表す永続フラグで、Publishedとは独立に遷移する。
type NewsItem struct {
	ID          string
	Slug        string
	Title       string
	Summary     string
	Content     string // Markdown原文
	Language    Language
	Published   bool
	PublishedAt *time.Time
	EmailSent   bool
	EmailSentAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
