// Package auth はログイン・ログアウトの認証ロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
	"github.com/hitoshi/bbsman/internal/session"
)

// RememberedEmailCookieName はログインフォームに再表示するメールアドレスを
// 保持するCookie名。
const RememberedEmailCookieName = "rememberedEmail"

// rememberedEmailTTL はメールアドレス記憶Cookieの有効期間。
const rememberedEmailTTL = 30 * 24 * time.Hour

// loginFailedMessage は認証失敗時の応答メッセージ。
// メールアドレス未登録とパスワード不一致を区別させない。
const loginFailedMessage = "メールアドレスまたはパスワードが正しくありません。"

// SessionDestroyer はセッションの破棄インターフェース。
// session.Managerの部分集合として定義する。
type SessionDestroyer interface {
	Destroy(id string)
}

// FormField はクライアントがフォームを組み立てるためのフィールド記述子。
type FormField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionDestroyer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionDestroyer) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Login はメールアドレスとパスワードで認証し、成功時にセッションへ
// ユーザーIDを記録する。未登録メールアドレスとパスワード不一致は
// 同一メッセージのvalidationエラーとして返す。
func (s *Service) Login(ctx context.Context, sess *session.Session, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードを入力してください。")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || user.IsDeleted() {
		return nil, model.NewValidationError(loginFailedMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewValidationError(loginFailedMessage)
	}

	sess.Set(session.UserIDKey, user.ID)

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Logout はセッションを破棄する。未ログインのセッションに対しても成功する。
func (s *Service) Logout(sess *session.Session) {
	userID := sess.UserID()
	s.sessions.Destroy(sess.ID())

	if userID != "" {
		slog.Info("user logged out",
			slog.String("user_id", userID),
		)
	}
}

// LoginForm はログインフォームのフィールド記述子を返す。
func (s *Service) LoginForm() []FormField {
	return []FormField{
		{Name: "email", Type: "email", Label: "メールアドレス"},
		{Name: "password", Type: "password", Label: "パスワード"},
		{Name: "remember", Type: "checkbox", Label: "メールアドレスを記憶する"},
	}
}

// RegisterForm はユーザー登録フォームのフィールド記述子を返す。
func (s *Service) RegisterForm() []FormField {
	return []FormField{
		{Name: "name", Type: "text", Label: "名前"},
		{Name: "email", Type: "email", Label: "メールアドレス"},
		{Name: "password", Type: "password", Label: "パスワード"},
	}
}

// RememberedEmailCookie はログインメールアドレスを記憶するCookieを生成する。
// emailが空の場合は即時失効するCookieを返し、記憶を解除する。
func RememberedEmailCookie(email, domain string, secure bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     RememberedEmailCookieName,
		Value:    email,
		Path:     "/",
		Domain:   domain,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if email == "" {
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(rememberedEmailTTL)
	}
	return cookie
}
