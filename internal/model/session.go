// Package model はドメインモデルを定義する。
package model

import "time"

// Session は管理者のログインセッションを表す。
type Session struct {
	ID        string
	ExpiresAt time.Time
	CreatedAt time.Time
}
