// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bbsman/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionResolver はCookie値からセッションを解決するインターフェース。
// session.Managerの部分集合として定義する。
type SessionResolver interface {
	Resolve(cookieValue string) (*session.Session, bool, error)
}

// CookieOptions はセッションCookieの発行に使う属性。
type CookieOptions struct {
	Domain string
	Secure bool
}

// NewSessionMiddleware はすべてのリクエストに対してセッションを確立する
// ミドルウェアを返す。Cookieが有効なセッションを指す場合は有効期限を延長して
// 再利用し、欠落・期限切れ・未知のIDの場合は新規セッションを生成する。
// いずれの場合も更新後のCookieをレスポンスに付与し、セッションを
// リクエストコンテキストに注入する。
func NewSessionMiddleware(resolver SessionResolver, opts CookieOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieValue string
			if cookie, err := r.Cookie(session.CookieName); err == nil {
				cookieValue = cookie.Value
			}

			sess, created, err := resolver.Resolve(cookieValue)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"status_code":500,"message":"サーバー内部でエラーが発生しました。"}`))
				return
			}
			if created && cookieValue != "" {
				slog.Debug("session replaced",
					slog.String("path", r.URL.Path),
				)
			}

			// 有効期限の延長を反映するため、毎リクエストでCookieを再発行する
			http.SetCookie(w, sess.Cookie(opts.Domain, opts.Secure))

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok || sess == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return sess, nil
}

// UserIDFromContext はリクエストコンテキストのセッションからログイン中の
// ユーザーIDを取得する。未ログインの場合は空文字列を返す。
func UserIDFromContext(ctx context.Context) string {
	sess, err := SessionFromContext(ctx)
	if err != nil {
		return ""
	}
	return sess.UserID()
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
