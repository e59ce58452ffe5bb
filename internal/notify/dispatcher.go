// Package notify はニュースレターのメール配信を提供する。
//
// 配信は「1ニュースにつき1回」を原則とし、前提条件
// （存在・公開済み・未配信・配信対象あり）をこの順で検査する。
// 個々の宛先への送信失敗は配信全体を中断せず、1件でも成功すれば
// 配信済みフラグを立てる。全滅した場合のみフラグを立てずエラーを返す。
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arnoldmoya/newsroom/internal/mail"
	"github.com/arnoldmoya/newsroom/internal/markdown"
	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/repository"
	"github.com/arnoldmoya/newsroom/internal/security"
)

// citationRe は下書きに混入する引用マーカーを本文から除去する。
var citationRe = regexp.MustCompile(`:contentReference\[.*?\]\{.*?\}`)

// spanishMonths は配信メールの日付表記に使う月名。
var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// formatSpanishDate は「2 de enero de 2025」形式の日付文字列を返す。
func formatSpanishDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// SendFailure は個別宛先への送信失敗を表す。
type SendFailure struct {
	SubscriberID string
	Email        string
	Err          error
}

// Result は配信結果を表す。
type Result struct {
	SentCount int
	Failed    []SendFailure
}

// Dispatcher はニュースのメール配信を実行する。
type Dispatcher struct {
	newsRepo  repository.NewsRepository
	subRepo   repository.SubscriberRepository
	mailer    mail.Mailer
	sanitizer security.EmailSanitizerService
	limiter   *rate.Limiter
	baseURL   string
	from      string
	testTo    string
	now       func() time.Time
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// sendRatePerSecは外部メールサービスへの送信レート上限（1秒あたりの通数）。
func NewDispatcher(
	newsRepo repository.NewsRepository,
	subRepo repository.SubscriberRepository,
	mailer mail.Mailer,
	sanitizer security.EmailSanitizerService,
	baseURL string,
	from string,
	testTo string,
	sendRatePerSec float64,
) *Dispatcher {
	return &Dispatcher{
		newsRepo:  newsRepo,
		subRepo:   subRepo,
		mailer:    mailer,
		sanitizer: sanitizer,
		limiter:   rate.NewLimiter(rate.Limit(sendRatePerSec), 1),
		baseURL:   strings.TrimRight(baseURL, "/"),
		from:      from,
		testTo:    testTo,
		now:       time.Now,
	}
}

// renderContent は本文Markdownをメール用HTMLに変換する。
// 引用マーカーの除去、Markdown変換、サニタイズをこの順で行う。
func (d *Dispatcher) renderContent(content string) string {
	stripped := citationRe.ReplaceAllString(content, "")
	return d.sanitizer.Sanitize(markdown.Render(stripped))
}

// mailDate は配信メールに表示する日付を返す。公開日時があればそれを使う。
func (d *Dispatcher) mailDate(news *model.NewsItem) string {
	if news.PublishedAt != nil {
		return formatSpanishDate(*news.PublishedAt)
	}
	return formatSpanishDate(d.now())
}

// Dispatch は指定IDのニュースを全配信対象の購読者へ送信する。
// 前提条件は 存在→公開済み→未配信→配信対象あり の順で検査され、
// 最初に満たされなかった条件のエラーを返す。
// 1件でも送信に成功すれば配信済みフラグを立てる。部分的な失敗は
// Resultに記録して返す。全宛先への送信が失敗した場合はフラグを
// 立てずにエラーを返すため、再実行が可能である。
func (d *Dispatcher) Dispatch(ctx context.Context, id string) (*Result, error) {
	news, err := d.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil, model.NewNewsNotFoundError(id)
	}
	if !news.Published {
		return nil, model.NewNotPublishedError()
	}
	if news.EmailSent {
		return nil, model.NewAlreadySentError()
	}

	subs, err := d.subRepo.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("配信対象の取得に失敗しました: %w", err)
	}
	if len(subs) == 0 {
		return nil, model.NewNoRecipientsError()
	}

	contentHTML := d.renderContent(news.Content)
	date := d.mailDate(news)

	result := &Result{}
	for _, sub := range subs {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("配信が中断されました: %w", err)
		}

		if err := d.sendNewsMail(ctx, news, contentHTML, date, news.Title, sub.ID, sub.Email); err != nil {
			slog.Error("購読者への配信に失敗",
				"news_id", news.ID,
				"subscriber_id", sub.ID,
				"error", err,
			)
			result.Failed = append(result.Failed, SendFailure{
				SubscriberID: sub.ID,
				Email:        sub.Email,
				Err:          err,
			})
			continue
		}
		result.SentCount++
	}

	if result.SentCount == 0 {
		return result, fmt.Errorf("全%d件の宛先への送信に失敗しました", len(result.Failed))
	}

	if err := d.newsRepo.MarkEmailSent(ctx, news.ID, d.now()); err != nil {
		// 送信自体は完了しているため結果は返す。フラグ未設定のままだと
		// 再配信が可能になる点は運用ログで追えるようにしておく。
		slog.Error("配信済みフラグの更新に失敗", "news_id", news.ID, "error", err)
		return result, fmt.Errorf("配信済みフラグの更新に失敗しました: %w", err)
	}

	slog.Info("ニュース配信完了",
		"news_id", news.ID,
		"sent", result.SentCount,
		"failed", len(result.Failed),
	)
	return result, nil
}

// DispatchTest は指定スラッグのニュースを運用者のテストアドレスへ送信する。
// 公開状態・配信済みフラグは検査せず、配信済みフラグも変更しない。
func (d *Dispatcher) DispatchTest(ctx context.Context, slug string) (string, error) {
	news, err := d.newsRepo.FindBySlug(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return "", model.NewNewsNotFoundError(slug)
	}

	contentHTML := d.renderContent(news.Content)
	date := d.mailDate(news)
	subject := "[TEST] " + news.Title

	unsubscribeURL := d.baseURL + "/api/unsubscribe/test"
	html, err := mail.BuildNewsEmail(news.Title, date, contentHTML, unsubscribeURL)
	if err != nil {
		return "", fmt.Errorf("テストメールの生成に失敗しました: %w", err)
	}

	msg := mail.Message{
		From:    d.from,
		To:      d.testTo,
		Subject: subject,
		HTML:    html,
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("テストメールの送信に失敗しました: %w", err)
	}

	return d.testTo, nil
}

// SendLatestTo は最新の公開済みニュースを指定購読者へ1通送信する。
// 公開済みニュースが存在しない場合は何もしない。
// 購読確認直後のウェルカム配信として使用される。
func (d *Dispatcher) SendLatestTo(ctx context.Context, sub *model.Subscriber) error {
	news, err := d.newsRepo.FindLatestPublished(ctx)
	if err != nil {
		return fmt.Errorf("最新ニュースの取得に失敗しました: %w", err)
	}
	if news == nil {
		return nil
	}

	contentHTML := d.renderContent(news.Content)
	date := d.mailDate(news)
	return d.sendNewsMail(ctx, news, contentHTML, date, news.Title, sub.ID, sub.Email)
}

// sendNewsMail は1人の購読者へニュースメールを送信する。
// RFC 8058のワンクリック解除ヘッダを付与する。
func (d *Dispatcher) sendNewsMail(ctx context.Context, news *model.NewsItem, contentHTML, date, subject, subscriberID, email string) error {
	unsubscribeURL := fmt.Sprintf("%s/api/unsubscribe/%s", d.baseURL, subscriberID)
	html, err := mail.BuildNewsEmail(news.Title, date, contentHTML, unsubscribeURL)
	if err != nil {
		return fmt.Errorf("配信メールの生成に失敗しました: %w", err)
	}

	msg := mail.Message{
		From:    d.from,
		To:      email,
		Subject: subject,
		HTML:    html,
		Headers: map[string]string{
			"List-Unsubscribe":      fmt.Sprintf("<%s>", unsubscribeURL),
			"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
		},
	}
	return d.mailer.Send(ctx, msg)
}
