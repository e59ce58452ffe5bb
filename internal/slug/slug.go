// Package slug はコンテンツのURL安全な一意識別子（スラッグ）の生成を提供する。
//
// スラッグはタイトルまたは明示指定された文字列から正規化によって導出され、
// 4桁のランダムな数字サフィックスで一意性を確保する。
// 存在確認は呼び出し側から述語関数として注入されるため、
// このパッケージはストレージに依存しない。
package slug

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/arnoldmoya/newsroom/internal/model"
)

// maxAttempts は衝突時の再割り当て上限。
// 上限超過時はSLUG_EXHAUSTEDエラーを返す。
const maxAttempts = 50

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
	suffixRe   = regexp.MustCompile(`-\d{4}$`)
)

// ExistsFunc はスラッグが既に使用されているかを返す述語。
// 永続ストアに対する存在確認として呼び出し側が実装する。
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Normalize はフリーテキストをスラッグ形式に正規化する。
// 小文字化・トリムの後、英数字以外の連続を1つのハイフンに畳み込み、
// 先頭と末尾のハイフンを除去する。結果が空の場合はEMPTY_SLUGエラーを返す。
func Normalize(text string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "", model.NewEmptySlugError()
	}
	return s, nil
}

// Allocate は候補文字列から一意なスラッグを割り当てる。
// 正規化結果が4桁数字サフィックスで終わらない場合はランダムな4桁サフィックスを付与し、
// existsが衝突を報告するたびにサフィックスを引き直して再試行する。
// maxAttempts回試行しても一意にならない場合はSLUG_EXHAUSTEDエラーを返す。
func Allocate(ctx context.Context, candidate string, exists ExistsFunc) (string, error) {
	base, err := Normalize(candidate)
	if err != nil {
		return "", err
	}

	if !suffixRe.MatchString(base) {
		base = base + "-" + randomDigits()
	}

	s := base
	for i := 0; i < maxAttempts; i++ {
		taken, err := exists(ctx, s)
		if err != nil {
			return "", fmt.Errorf("スラッグの存在確認に失敗しました: %w", err)
		}
		if !taken {
			return s, nil
		}
		s = suffixRe.ReplaceAllString(base, "") + "-" + randomDigits()
	}

	return "", model.NewSlugExhaustedError(base)
}

// randomDigits はゼロ埋め4桁のランダムな数字列を返す（0000〜9999）。
func randomDigits() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}
