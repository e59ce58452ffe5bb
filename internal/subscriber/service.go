// Package subscriber は購読者のライフサイクル管理を提供する。
//
// 購読はダブルオプトイン方式で行われる。登録直後の購読者はACTIVEだが
// メール未確認であり、確認リンクを踏むまで配信対象にならない。
// 各操作は冪等であり、同じリクエストの再実行はエラーにならない。
package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldmoya/newsroom/internal/mail"
	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/repository"
)

// WelcomeSender は確認完了直後の購読者へ最新の公開済みニュースを送る。
// 配信処理側が実装し、循環依存を避けるためここでインターフェースを定義する。
type WelcomeSender interface {
	SendLatestTo(ctx context.Context, sub *model.Subscriber) error
}

// Service は購読者管理のサービス層。
// 登録・確認・解除のビジネスロジックと確認メールの送信を提供する。
type Service struct {
	repo    repository.SubscriberRepository
	mailer  mail.Mailer
	welcome WelcomeSender
	from    string
	baseURL string
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// fromは確認メールの差出人アドレス、baseURLは確認リンクの生成に使用する。
// welcomeはnilでもよく、その場合は確認完了時のウェルカム配信を行わない。
func NewService(
	repo repository.SubscriberRepository,
	mailer mail.Mailer,
	welcome WelcomeSender,
	from string,
	baseURL string,
) *Service {
	return &Service{
		repo:    repo,
		mailer:  mailer,
		welcome: welcome,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// SetWelcomeSender はウェルカム配信の実装を差し替える。
// 配信処理側の初期化が購読者サービスより後になるため、組み立て時に使用する。
func (s *Service) SetWelcomeSender(w WelcomeSender) {
	s.welcome = w
}

// Subscribe はメールアドレスを購読登録する。
//   - 未登録: 新規作成（ACTIVE・メール未確認）し、確認メールを送る。
//   - UNSUBSCRIBED: 再有効化して確認メールを送る。確認済みフラグは維持される。
//   - ACTIVE: 何もしない（冪等）。
func (s *Service) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := netmail.ParseAddress(email); err != nil {
		return model.NewInvalidEmailError()
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}

	now := s.now()
	var sub *model.Subscriber

	switch {
	case existing == nil:
		sub = &model.Subscriber{
			ID:           uuid.New().String(),
			Email:        email,
			Status:       model.SubscriberStatusActive,
			SubscribedAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			if repository.IsUniqueViolation(err) {
				// 同時リクエストが先に登録した場合は冪等に成功とする
				return nil
			}
			return fmt.Errorf("購読者の作成に失敗しました: %w", err)
		}

	case existing.Status == model.SubscriberStatusUnsubscribed:
		existing.Status = model.SubscriberStatusActive
		existing.SubscribedAt = now
		existing.UnsubscribedAt = nil
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("購読者の再有効化に失敗しました: %w", err)
		}
		sub = existing

	default:
		// ACTIVE: 確認メールの再送もしない
		return nil
	}

	return s.sendConfirmEmail(ctx, sub)
}

// sendConfirmEmail は確認リンク付きのメールを送信する。
func (s *Service) sendConfirmEmail(ctx context.Context, sub *model.Subscriber) error {
	confirmURL := fmt.Sprintf("%s/api/subscribe/confirm/%s", s.baseURL, sub.ID)
	html, err := mail.BuildConfirmEmail(confirmURL)
	if err != nil {
		return fmt.Errorf("確認メールの生成に失敗しました: %w", err)
	}

	msg := mail.Message{
		From:    s.from,
		To:      sub.Email,
		Subject: "Confirma tu correo electrónico",
		HTML:    html,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("確認メールの送信に失敗しました: %w", err)
	}
	return nil
}

// Confirm は購読者のメールアドレスを確認済みにする。
// 既に確認済みの場合も成功する（冪等）。確認後のウェルカム配信は
// ベストエフォートであり、失敗してもConfirm自体は成功する。
func (s *Service) Confirm(ctx context.Context, id string) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("購読者の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return model.NewSubscriberNotFoundError(id)
	}

	now := s.now()
	sub.EmailConfirmed = true
	sub.EmailConfirmedAt = &now
	sub.UpdatedAt = now
	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("購読者の確認更新に失敗しました: %w", err)
	}

	if s.welcome != nil {
		if err := s.welcome.SendLatestTo(ctx, sub); err != nil {
			slog.Error("ウェルカム配信に失敗", "subscriber_id", sub.ID, "error", err)
		}
	}

	return nil
}

// Unsubscribe は購読を解除する。既に解除済みの場合も成功し、
// 解除日時は事前のステータスに関わらず常に現在時刻で上書きされる。
func (s *Service) Unsubscribe(ctx context.Context, id string) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("購読者の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return model.NewSubscriberNotFoundError(id)
	}

	now := s.now()
	sub.Status = model.SubscriberStatusUnsubscribed
	sub.UnsubscribedAt = &now
	sub.UpdatedAt = now
	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("購読解除に失敗しました: %w", err)
	}

	return nil
}

// List は全購読者を返す（管理画面用）。
func (s *Service) List(ctx context.Context) ([]*model.Subscriber, error) {
	return s.repo.List(ctx)
}

// ListEligible は配信対象（ACTIVEかつメール確認済み）の購読者を返す。
func (s *Service) ListEligible(ctx context.Context) ([]*model.Subscriber, error) {
	return s.repo.ListEligible(ctx)
}
