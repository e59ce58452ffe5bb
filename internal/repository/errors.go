package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolationCode はPostgreSQLのunique_violationエラーコード。
const uniqueViolationCode = "23505"

// IsUniqueViolation はエラーが一意制約違反かどうかを返す。
// スラッグや購読者メールアドレスの一意性はストレージ層の制約が最終的な
// 正しさの根拠であり、書き込み時の衝突は呼び出し側で「衝突として再試行」
// の扱いに変換する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
