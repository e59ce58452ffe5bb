// Package model はドメインモデルを定義する。
package model

import "time"

// SubscriberStatus は購読者のステータスを表す。
type SubscriberStatus string

const (
	// SubscriberStatusActive は購読中の状態。
	SubscriberStatusActive SubscriberStatus = "ACTIVE"
	// SubscriberStatusUnsubscribed は購読解除済みの状態。
	SubscriberStatusUnsubscribed SubscriberStatus = "UNSUBSCRIBED"
)

// Subscriber はニュースレター購読者を表す。
// メールアドレスはステータスに関わらず全購読者を通して一意であり、
// 再購読は同一レコードを再利用する。
// EmailConfirmedは確認リンクのクリックでtrueになり、再購読でもリセットされない。
type Subscriber struct {
	ID               string
	Email            string
	Status           SubscriberStatus
	EmailConfirmed   bool
	EmailConfirmedAt *time.Time
	SubscribedAt     time.Time
	UnsubscribedAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Eligible は配信対象かどうかを返す。
// 購読中かつメール確認済みの購読者のみが配信対象となる。
func (s *Subscriber) Eligible() bool {
	return s.Status == SubscriberStatusActive && s.EmailConfirmed
}
