// Package auth はOAuth認証フロー、プロフィール管理、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/tripnavi/internal/model"
	"github.com/hitoshi/tripnavi/internal/repository"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、identityを取得する。
	ExchangeCode(ctx context.Context, code string) (*model.Identity, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	AdminEmail    string // 管理者ロールを付与するメールアドレス
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// identityからプロフィールをUPSERTし、メールアドレスが管理者設定と
// 一致する場合はadminロールを付与する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、identityを取得
	identity, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. プロフィールをUPSERT（ロール導出込み）
	profile, err := s.EnsureProfile(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", profile.ID),
		slog.String("status", string(profile.Status)),
		slog.String("provider", identity.Provider),
	)

	// 3. identityスナップショット付きでセッションを発行
	session, err := s.createSession(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// EnsureProfile はidentityからプロフィールを書き込み、保存後の行を返す。
// ロールはメールアドレスの大文字小文字を無視した比較で決定的に導出されるため、
// 同一identityに対する呼び出しは何度実行しても同じ結果になる。
func (s *Service) EnsureProfile(ctx context.Context, identity *model.Identity) (*model.Profile, error) {
	profile := &model.Profile{
		ID:       identity.ID,
		Email:    identity.Email,
		Name:     identity.Name,
		ImageURL: identity.ImageURL,
		Status:   s.deriveStatus(identity.Email),
		JoinedAt: time.Now(),
	}

	stored, err := s.profileRepo.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return stored, nil
}

// deriveStatus はメールアドレスから付与するロールを決定する。
func (s *Service) deriveStatus(email string) model.ProfileStatus {
	if s.config.AdminEmail != "" && strings.EqualFold(email, s.config.AdminEmail) {
		return model.StatusAdmin
	}
	return model.StatusUser
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentProfile はセッションから現在のプロフィールを取得する。
// プロフィール行が見つからない場合や読み取りに失敗した場合は、
// セッションに保存されたidentityスナップショットから再UPSERTして復旧する。
func (s *Service) GetCurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	profile, err := s.profileRepo.FindByID(ctx, session.UserID)
	if err != nil {
		slog.Warn("profile lookup failed, re-upserting from session identity",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		profile = nil
	}
	if profile != nil {
		return profile, nil
	}

	// 復旧パス: identityスナップショットから再UPSERT
	restored, err := s.EnsureProfile(ctx, &session.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to restore profile: %w", err)
	}

	slog.Info("profile restored from session identity",
		slog.String("user_id", restored.ID),
		slog.String("status", string(restored.Status)),
	)

	return restored, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, identity *model.Identity) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    identity.ID,
		Identity:  *identity,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
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
