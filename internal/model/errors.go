// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, subscriber, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeInvalidContent     = "INVALID_CONTENT"
	ErrCodeEmptySlug          = "EMPTY_SLUG"
	ErrCodeSlugExhausted      = "SLUG_EXHAUSTED"
	ErrCodeArticleNotFound    = "ARTICLE_NOT_FOUND"
	ErrCodeNewsNotFound       = "NEWS_NOT_FOUND"
	ErrCodeSubscriberNotFound = "SUBSCRIBER_NOT_FOUND"
	ErrCodeNotPublished       = "NOT_PUBLISHED"
	ErrCodeAlreadySent        = "ALREADY_SENT"
	ErrCodeNoRecipients       = "NO_RECIPIENTS"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewInvalidEmailError は不正なメールアドレスエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewInvalidContentError はコンテンツ入力の検証エラーを生成する。
func NewInvalidContentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContent,
		Message:  fmt.Sprintf("コンテンツの入力が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewEmptySlugError はスラッグの正規化結果が空になった場合のエラーを生成する。
func NewEmptySlugError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptySlug,
		Message:  "スラッグを生成できませんでした。",
		Category: "validation",
		Action:   "英数字を含むタイトルまたはスラッグを指定してください。",
	}
}

// NewSlugExhaustedError はスラッグ割り当ての再試行上限超過エラーを生成する。
func NewSlugExhaustedError(base string) *APIError {
	return &APIError{
		Code:     ErrCodeSlugExhausted,
		Message:  fmt.Sprintf("一意なスラッグを割り当てられませんでした: %s", base),
		Category: "content",
		Action:   "別のタイトルまたはスラッグを指定してください。",
	}
}

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", id),
		Category: "content",
		Action:   "記事IDまたはスラッグを確認してください。",
	}
}

// NewNewsNotFoundError はニュース項目未検出エラーを生成する。
func NewNewsNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeNewsNotFound,
		Message:  fmt.Sprintf("指定されたニュースが見つかりません: %s", id),
		Category: "content",
		Action:   "ニュースIDまたはスラッグを確認してください。",
	}
}

// NewSubscriberNotFoundError は購読者未検出エラーを生成する。
func NewSubscriberNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriberNotFound,
		Message:  fmt.Sprintf("指定された購読者が見つかりません: %s", id),
		Category: "subscriber",
		Action:   "購読者IDを確認してください。",
	}
}

// NewNotPublishedError は未公開のニュースを配信しようとした場合のエラーを生成する。
func NewNotPublishedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotPublished,
		Message:  "このニュースは公開されていません。",
		Category: "content",
		Action:   "公開してから配信してください。",
	}
}

// NewAlreadySentError は配信済みのニュースを再配信しようとした場合のエラーを生成する。
func NewAlreadySentError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySent,
		Message:  "このニュースは既に配信済みです。",
		Category: "content",
		Action:   "配信は1ニュースにつき1回のみ実行できます。",
	}
}

// NewNoRecipientsError は配信対象の購読者が存在しない場合のエラーを生成する。
func NewNoRecipientsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoRecipients,
		Message:  "確認済みの購読者が存在しません。",
		Category: "subscriber",
		Action:   "購読者がメール確認を完了してから配信してください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
