// Package content は記事とニュースの管理ロジックを提供する。
//
// スラッグの割り当てはslugパッケージに委譲し、存在確認はリポジトリの
// SlugExistsを述語として注入する。データベースの一意制約違反が
// 競合により発生した場合はスラッグを引き直して再試行する。
package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// maxTitleLength はタイトルの最大文字数。
const maxTitleLength = 200

// createRetries は一意制約違反時の再作成試行回数。
// 存在確認と挿入の間に他リクエストが同じスラッグを取得した場合のみ発生する。
const createRetries = 3

// validateInput はタイトル・本文・言語の共通検証を行う。
func validateInput(title, content string, lang model.Language) error {
	if strings.TrimSpace(title) == "" {
		return model.NewInvalidContentError("タイトルは必須です")
	}
	if len([]rune(title)) > maxTitleLength {
		return model.NewInvalidContentError(fmt.Sprintf("タイトルは%d文字以内で指定してください", maxTitleLength))
	}
	if strings.TrimSpace(content) == "" {
		return model.NewInvalidContentError("本文は必須です")
	}
	if !lang.IsValid() {
		return model.NewInvalidContentError(fmt.Sprintf("サポートされていない言語です: %s", lang))
	}
	return nil
}

// slugCandidate は明示スラッグがあればそれを、なければタイトルを候補として返す。
func slugCandidate(explicit, title string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return title
}

// applyPublishTransition は公開フラグの遷移に応じてPublishedAtを設定・クリアする。
// 公開済みのまま更新された場合はPublishedAtを変更しない。
func applyPublishTransition(wasPublished, published bool, current *time.Time, now time.Time) *time.Time {
	switch {
	case published && !wasPublished:
		return &now
	case !published:
		return nil
	default:
		return current
	}
}
