// Package security はアプリケーションのセキュリティ機能を提供する。
//
// EmailSanitizerService はMarkdownレンダリング後のメール本文HTMLをサニタイズし、
// 購読者の受信環境をXSS等のリスクから保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// メールレンダラーが生成するタグとインラインstyle属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// EmailSanitizerService はメール本文HTMLのサニタイズ機能のインターフェースを定義する。
// 配信前のレンダリング済み本文に対して使用される。
type EmailSanitizerService interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（h1〜h6, p, br, hr, a, ul, ol, li, strong, em, code）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// メールクライアント向けのインラインstyle属性は許可する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// emailSanitizer はEmailSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type emailSanitizer struct {
	policy *bluemonday.Policy
}

// NewEmailSanitizer はEmailSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: h1〜h6, p, br, hr, a, ul, ol, li, strong, em, code
//   - style属性: 許可タグ全てに許可（メールはインラインスタイル必須のため）
//   - aタグ: hrefとtargetを許可、rel="noopener noreferrer"を強制付与
//   - script, iframe等は許可リスト外のため自動的に除去される
func NewEmailSanitizer() *emailSanitizer {
	p := bluemonday.NewPolicy()

	allowed := []string{
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr",
		"ul", "ol", "li",
		"strong", "em", "code",
	}
	p.AllowElements(allowed...)
	p.AllowAttrs("style").OnElements(allowed...)
	p.AllowAttrs("style").OnElements("a")

	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(false)
	p.RequireNoReferrerOnLinks(true)

	return &emailSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *emailSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
