package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/mail.v2"
)

// SMTPConfig はSMTPトランスポートの接続設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer はgopkg.in/mail.v2によるMailerの実装。
// 呼び出しごとに接続を確立する。配信ループの送信ペースは
// 呼び出し側（Dispatcher）が制御するため、ここでは接続プールを持たない。
type SMTPMailer struct {
	dialer *gomail.Dialer
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send はメッセージを1通送信する。
// コンテキストが既にキャンセルされている場合は送信せずにエラーを返す。
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("送信前にコンテキストが終了しました: %w", err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	for k, v := range msg.Headers {
		gm.SetHeader(k, v)
	}
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("メールの送信に失敗しました (to=%s): %w", msg.To, err)
	}
	return nil
}

// compile-time interface check
var _ Mailer = (*SMTPMailer)(nil)
