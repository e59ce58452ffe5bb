// Package auth は管理者認証とセッション管理を提供する。
//
// 管理者は単一で、bcryptハッシュ化されたパスワードを環境変数で与える。
// ログイン成功時に不透明なセッションIDを発行し、Cookieで保持する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// PasswordHash は管理者パスワードのbcryptハッシュ。
	PasswordHash string
	// SessionMaxAge はセッション有効期間（秒）。
	SessionMaxAge int
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login はパスワードを検証し、セッションを発行する。
// パスワードが一致しない場合はUNAUTHORIZEDエラーを返す。
func (s *Service) Login(ctx context.Context, password string) (*model.Session, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.createSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("管理者ログイン", slog.String("session_id", session.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	slog.Info("管理者ログアウト", slog.String("session_id", sessionID))
	return nil
}

// Verify はセッションIDの有効性を検証する。
// 未知または期限切れのセッションはUNAUTHORIZEDエラーになる。
func (s *Service) Verify(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	return session, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("セッションIDの生成に失敗しました: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの保存に失敗しました: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
