// Package mail はメール送信の抽象とSMTP実装、メールHTMLの組み立てを提供する。
package mail

import "context"

// Message は送信する1通のメールを表す。
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	// Headers は追加ヘッダー（List-Unsubscribe等）。nil可。
	Headers map[string]string
}

// Mailer はメール送信インターフェース。
// 1受信者につき1回の呼び出しで、成否をエラーで返す。
// 送信トランスポートの障害はそのままエラーとして伝播させること。
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
