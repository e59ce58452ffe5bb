package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// メールはダークテーマの共通レイアウトに載せる。
// 外部CSSが使えないため全てインラインスタイルで記述する。

const confirmTemplateText = `<!DOCTYPE html>
<html lang="es">
<body style="background-color:#000000;font-family:'Inter',Helvetica,Arial,sans-serif;margin:0;padding:0;">
  <div style="max-width:600px;margin:40px auto;padding:24px;">
    <div style="border-radius:20px;border:1px solid rgba(255,255,255,0.1);background-color:#0e121a;overflow:hidden;">
      <div style="padding:36px 32px 40px;">
        <p style="font-family:'JetBrains Mono','Courier New',monospace;font-size:12px;font-weight:600;color:#9ca3af;letter-spacing:0.35em;text-transform:uppercase;margin:0;">Suscríbete a mi boletín</p>
        <p style="font-family:'JetBrains Mono','Courier New',monospace;font-size:24px;font-weight:600;color:#f8fafc;line-height:1.3;margin:22px 0 0;">Confirma tu correo electrónico</p>
        <p style="font-size:16px;line-height:1.7;color:#d1d5db;margin:16px 0 0;">Haz clic en el botón de abajo para confirmar tu dirección de correo electrónico y activar tu suscripción al boletín.</p>
        <div style="margin:24px 0 0;">
          <a href="{{.ConfirmURL}}" style="background-color:#0a0d14;border-radius:999px;padding:12px 26px;font-size:14px;font-weight:600;color:#f8fafc;border:1px solid rgba(255,255,255,0.2);display:inline-block;text-decoration:none;">Confirmar correo electrónico</a>
        </div>
        <p style="font-size:13px;line-height:1.6;color:#9ca3af;margin:22px 0 0;">Si el botón no funciona, copia y pega este enlace en tu navegador:</p>
        <p style="font-family:'JetBrains Mono','Courier New',monospace;font-size:12px;line-height:1.6;color:#cbd5f5;margin:6px 0 0;word-break:break-all;">{{.ConfirmURL}}</p>
        <hr style="border:none;border-top:1px solid rgba(255,255,255,0.08);margin:28px 0 0;" />
        <p style="font-size:12px;line-height:1.6;color:#9ca3af;margin:18px 0 0;">Si no solicitaste esta suscripción, puedes ignorar este mensaje.</p>
      </div>
    </div>
  </div>
</body>
</html>`

const newsTemplateText = `<!DOCTYPE html>
<html lang="es">
<body style="background-color:#000000;font-family:'Inter',Helvetica,Arial,sans-serif;margin:0;padding:0;">
  <div style="max-width:600px;margin:40px auto;padding:24px;">
    <div style="border-radius:20px;border:1px solid rgba(255,255,255,0.1);background-color:#0e121a;overflow:hidden;">
      <div style="padding:32px 32px 12px;">
        <p style="font-family:'JetBrains Mono','Courier New',monospace;font-size:12px;font-weight:600;color:#9ca3af;letter-spacing:0.35em;text-transform:uppercase;margin:0;">Últimas noticias</p>
        <p style="font-family:'JetBrains Mono','Courier New',monospace;font-size:12px;color:#a1a1aa;letter-spacing:0.05em;text-transform:uppercase;margin:12px 0 0;">{{.Date}}</p>
        <h1 style="font-family:'JetBrains Mono','Courier New',monospace;font-size:26px;font-weight:700;color:#f8fafc;line-height:1.3;margin:14px 0 0;">{{.Title}}</h1>
      </div>
      <div style="padding:0 32px;"><hr style="border:none;border-top:1px solid rgba(255,255,255,0.08);margin:0;" /></div>
      <div style="padding:20px 32px 0;">
        <div style="font-size:15px;line-height:1.7;color:#e2e8f0;">{{.Content}}</div>
      </div>
      <div style="padding:28px 32px 0;"><hr style="border:none;border-top:1px solid rgba(255,255,255,0.08);margin:0;" /></div>
      <div style="padding:18px 32px 32px;">
        <p style="font-size:12px;line-height:1.5;color:#9ca3af;margin:0;">Recibiste este correo porque estás suscrito al boletín de arnoldmoya.com</p>
        <a href="{{.UnsubscribeURL}}" style="font-size:12px;color:#cbd5f5;margin-top:8px;display:inline-block;">Cancelar suscripción</a>
      </div>
    </div>
  </div>
</body>
</html>`

var (
	confirmTemplate = template.Must(template.New("confirm").Parse(confirmTemplateText))
	newsTemplate    = template.Must(template.New("news").Parse(newsTemplateText))
)

// confirmData は確認メールテンプレートの埋め込みデータ。
type confirmData struct {
	ConfirmURL string
}

// newsData はニュースメールテンプレートの埋め込みデータ。
// Contentはサニタイズ済みHTMLを前提とする。
type newsData struct {
	Title          string
	Date           string
	Content        template.HTML
	UnsubscribeURL string
}

// BuildConfirmEmail は購読確認メールのHTML本文を組み立てる。
func BuildConfirmEmail(confirmURL string) (string, error) {
	var buf bytes.Buffer
	if err := confirmTemplate.Execute(&buf, confirmData{ConfirmURL: confirmURL}); err != nil {
		return "", fmt.Errorf("確認メールの組み立てに失敗しました: %w", err)
	}
	return buf.String(), nil
}

// BuildNewsEmail はニュース配信メールのHTML本文を組み立てる。
// contentHTMLはレンダリングおよびサニタイズ済みであること。
func BuildNewsEmail(title, date, contentHTML, unsubscribeURL string) (string, error) {
	var buf bytes.Buffer
	data := newsData{
		Title:          title,
		Date:           date,
		Content:        template.HTML(contentHTML),
		UnsubscribeURL: unsubscribeURL,
	}
	if err := newsTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("ニュースメールの組み立てに失敗しました: %w", err)
	}
	return buf.String(), nil
}
