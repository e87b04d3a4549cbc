package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bbsman/internal/auth"
	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, sess *session.Session, email, password string) (*model.User, error)
	Logout(sess *session.Session)
	LoginForm() []auth.FormField
	RegisterForm() []auth.FormField
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// formResponse はフォーム記述子のペイロード。
type formResponse struct {
	Fields []auth.FormField `json:"fields"`
	Email  string           `json:"email,omitempty"`
}

// RegisterForm はユーザー登録フォームの記述子を返す。
// GET /auth/register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, "ユーザー登録", formResponse{
		Fields: h.service.RegisterForm(),
	})
}

// LoginForm はログインフォームの記述子を返す。
// 記憶済みメールアドレスのCookieがあればペイロードに含める。
// GET /auth/login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	payload := formResponse{Fields: h.service.LoginForm()}
	if cookie, err := r.Cookie(auth.RememberedEmailCookieName); err == nil {
		payload.Email = cookie.Value
	}
	writeResponse(w, http.StatusOK, "ログイン", payload)
}

// Login はログインを処理する。成功時はセッションにユーザーIDを記録し、
// remember指定があればメールアドレス記憶Cookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Login(r.Context(), sess, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if req.Remember {
		http.SetCookie(w, auth.RememberedEmailCookie(user.Email, h.config.CookieDomain, h.config.CookieSecure))
	} else {
		http.SetCookie(w, auth.RememberedEmailCookie("", h.config.CookieDomain, h.config.CookieSecure))
	}

	writeRedirect(w, http.StatusOK, "ログインしました。", toUserResponse(user), "/")
}

// Logout はセッションを破棄してログアウトする。
// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.service.Logout(sess)

	writeRedirect(w, http.StatusOK, "ログアウトしました。", nil, "/")
}
