package subscriber

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arnoldmoya/newsroom/internal/mail"
	"github.com/arnoldmoya/newsroom/internal/model"
)

// --- モック ---

type mockSubscriberRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.Subscriber, error)
	findByEmailFn func(ctx context.Context, email string) (*model.Subscriber, error)
	createFn      func(ctx context.Context, sub *model.Subscriber) error
	updateFn      func(ctx context.Context, sub *model.Subscriber) error
}

func (m *mockSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}
func (m *mockSubscriberRepo) Update(ctx context.Context, sub *model.Subscriber) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, sub)
	}
	return nil
}
func (m *mockSubscriberRepo) List(ctx context.Context) ([]*model.Subscriber, error) {
	return nil, nil
}
func (m *mockSubscriberRepo) ListEligible(ctx context.Context) ([]*model.Subscriber, error) {
	return nil, nil
}

type mockMailer struct {
	sendFn func(ctx context.Context, msg mail.Message) error
	sent   []mail.Message
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	return nil
}

type mockWelcomeSender struct {
	sendLatestToFn func(ctx context.Context, sub *model.Subscriber) error
	called         bool
}

func (m *mockWelcomeSender) SendLatestTo(ctx context.Context, sub *model.Subscriber) error {
	m.called = true
	if m.sendLatestToFn != nil {
		return m.sendLatestToFn(ctx, sub)
	}
	return nil
}

// --- テスト ---

// TestService_Subscribe_NewEmail は新規メールアドレスの登録を検証する。
func TestService_Subscribe_NewEmail(t *testing.T) {
	var created *model.Subscriber
	repo := &mockSubscriberRepo{
		createFn: func(ctx context.Context, sub *model.Subscriber) error {
			created = sub
			return nil
		},
	}
	mailer := &mockMailer{}
	svc := NewService(repo, mailer, nil, "onboarding@example.com", "https://example.com/")

	err := svc.Subscribe(context.Background(), "Lector@Example.com ")
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected repo.Create to be called")
	}
	if created.Email != "lector@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", created.Email)
	}
	if created.Status != model.SubscriberStatusActive {
		t.Errorf("Status = %q, want ACTIVE", created.Status)
	}
	if created.EmailConfirmed {
		t.Error("expected new subscriber to be unconfirmed")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	wantURL := "https://example.com/api/subscribe/confirm/" + created.ID
	if !strings.Contains(mailer.sent[0].HTML, wantURL) {
		t.Errorf("confirm mail does not contain %q", wantURL)
	}
}

// TestService_Subscribe_InvalidEmail は不正なメールアドレスが拒否されることを検証する。
func TestService_Subscribe_InvalidEmail(t *testing.T) {
	svc := NewService(&mockSubscriberRepo{}, &mockMailer{}, nil, "o@example.com", "https://example.com")

	err := svc.Subscribe(context.Background(), "no-es-un-correo")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeInvalidEmail {
		t.Fatalf("expected INVALID_EMAIL, got %v", err)
	}
}

// TestService_Subscribe_AlreadyActive はACTIVEな購読者の再登録が何もしないことを検証する。
func TestService_Subscribe_AlreadyActive(t *testing.T) {
	repo := &mockSubscriberRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Subscriber, error) {
			return &model.Subscriber{ID: "s-1", Email: email, Status: model.SubscriberStatusActive}, nil
		},
		createFn: func(ctx context.Context, sub *model.Subscriber) error {
			t.Error("unexpected Create call")
			return nil
		},
		updateFn: func(ctx context.Context, sub *model.Subscriber) error {
			t.Error("unexpected Update call")
			return nil
		},
	}
	mailer := &mockMailer{}
	svc := NewService(repo, mailer, nil, "o@example.com", "https://example.com")

	if err := svc.Subscribe(context.Background(), "lector@example.com"); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d mails, want 0", len(mailer.sent))
	}
}

// TestService_Subscribe_Reactivates は解除済み購読者の再登録を検証する。
// 確認済みフラグは維持され、確認メールが再送される。
func TestService_Subscribe_Reactivates(t *testing.T) {
	unsubAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var updated *model.Subscriber
	repo := &mockSubscriberRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Subscriber, error) {
			return &model.Subscriber{
				ID: "s-1", Email: email,
				Status:         model.SubscriberStatusUnsubscribed,
				EmailConfirmed: true,
				UnsubscribedAt: &unsubAt,
			}, nil
		},
		updateFn: func(ctx context.Context, sub *model.Subscriber) error {
			updated = sub
			return nil
		},
	}
	mailer := &mockMailer{}
	svc := NewService(repo, mailer, nil, "o@example.com", "https://example.com")

	if err := svc.Subscribe(context.Background(), "lector@example.com"); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected repo.Update to be called")
	}
	if updated.Status != model.SubscriberStatusActive {
		t.Errorf("Status = %q, want ACTIVE", updated.Status)
	}
	if updated.UnsubscribedAt != nil {
		t.Error("expected UnsubscribedAt to be cleared")
	}
	if !updated.EmailConfirmed {
		t.Error("expected EmailConfirmed to be preserved")
	}
	if len(mailer.sent) != 1 {
		t.Errorf("sent %d mails, want 1", len(mailer.sent))
	}
}

// TestService_Confirm は確認処理とウェルカム配信の呼び出しを検証する。
func TestService_Confirm(t *testing.T) {
	var updated *model.Subscriber
	repo := &mockSubscriberRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Subscriber, error) {
			return &model.Subscriber{ID: id, Email: "lector@example.com", Status: model.SubscriberStatusActive}, nil
		},
		updateFn: func(ctx context.Context, sub *model.Subscriber) error {
			updated = sub
			return nil
		},
	}
	welcome := &mockWelcomeSender{}
	svc := NewService(repo, &mockMailer{}, welcome, "o@example.com", "https://example.com")

	if err := svc.Confirm(context.Background(), "s-1"); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if updated == nil || !updated.EmailConfirmed || updated.EmailConfirmedAt == nil {
		t.Fatal("expected subscriber to be marked confirmed")
	}
	if !welcome.called {
		t.Error("expected welcome sender to be called")
	}
}

// TestService_Confirm_WelcomeFailureIgnored はウェルカム配信の失敗が
// Confirm自体を失敗させないことを検証する。
func TestService_Confirm_WelcomeFailureIgnored(t *testing.T) {
	repo := &mockSubscriberRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Subscriber, error) {
			return &model.Subscriber{ID: id, Email: "lector@example.com", Status: model.SubscriberStatusActive}, nil
		},
	}
	welcome := &mockWelcomeSender{
		sendLatestToFn: func(ctx context.Context, sub *model.Subscriber) error {
			return errors.New("smtp down")
		},
	}
	svc := NewService(repo, &mockMailer{}, welcome, "o@example.com", "https://example.com")

	if err := svc.Confirm(context.Background(), "s-1"); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
}

// TestService_Confirm_NotFound は未知の購読者IDがエラーになることを検証する。
func TestService_Confirm_NotFound(t *testing.T) {
	repo := &mockSubscriberRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Subscriber, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, &mockMailer{}, nil, "o@example.com", "https://example.com")

	err := svc.Confirm(context.Background(), "missing")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeSubscriberNotFound {
		t.Fatalf("expected SUBSCRIBER_NOT_FOUND, got %v", err)
	}
}

// TestService_Unsubscribe は購読解除を検証する。
func TestService_Unsubscribe(t *testing.T) {
	var updated *model.Subscriber
	repo := &mockSubscriberRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Subscriber, error) {
			return &model.Subscriber{ID: id, Status: model.SubscriberStatusActive}, nil
		},
		updateFn: func(ctx context.Context, sub *model.Subscriber) error {
			updated = sub
			return nil
		},
	}
	svc := NewService(repo, &mockMailer{}, nil, "o@example.com", "https://example.com")

	if err := svc.Unsubscribe(context.Background(), "s-1"); err != nil {
		t.Fatalf("Unsubscribe returned error: %v", err)
	}
	if updated == nil || updated.Status != model.SubscriberStatusUnsubscribed || updated.UnsubscribedAt == nil {
		t.Fatal("expected subscriber to be marked unsubscribed")
	}
}

// TestService_Unsubscribe_Idempotent は解除済み購読者の再解除が成功し、
// 解除日時が現在時刻で上書きされることを検証する。
func TestService_Unsubscribe_Idempotent(t *testing.T) {
	oldUnsubAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var updated *model.Subscriber
	repo := &mockSubscriberRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Subscriber, error) {
			return &model.Subscriber{
				ID:             id,
				Status:         model.SubscriberStatusUnsubscribed,
				UnsubscribedAt: &oldUnsubAt,
			}, nil
		},
		updateFn: func(ctx context.Context, sub *model.Subscriber) error {
			updated = sub
			return nil
		},
	}
	svc := NewService(repo, &mockMailer{}, nil, "o@example.com", "https://example.com")
	svc.now = func() time.Time { return fixedNow }

	if err := svc.Unsubscribe(context.Background(), "s-1"); err != nil {
		t.Fatalf("Unsubscribe returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if updated.Status != model.SubscriberStatusUnsubscribed {
		t.Errorf("Status = %q, want UNSUBSCRIBED", updated.Status)
	}
	if updated.UnsubscribedAt == nil || !updated.UnsubscribedAt.Equal(fixedNow) {
		t.Errorf("UnsubscribedAt = %v, want %v", updated.UnsubscribedAt, fixedNow)
	}
}
