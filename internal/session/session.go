// Package session はCookieで識別されるインプロセスのセッション管理を提供する。
// セッションはSessionManagerが排他的に所有し、リクエスト処理中のみ
// ハンドラーへ貸し出される。
package session

import (
	"net/http"
	"sync"
	"time"
)

// CookieName はセッションIDを運ぶCookieの名前。
const CookieName = "sessionId"

// Session はセッションIDに紐づく可変なキー・バリューデータの集まり。
// IDは生成後不変で、生存判定はCookieの有効期限のみを権威とする。
type Session struct {
	id string

	mu        sync.RWMutex
	values    map[string]string
	expiresAt time.Time
}

// newSession は指定IDとTTLでSessionを生成する。生成はManager経由でのみ行う。
func newSession(id string, ttl time.Duration) *Session {
	return &Session{
		id:        id,
		values:    make(map[string]string),
		expiresAt: time.Now().Add(ttl),
	}
}

// ID はセッションIDを返す。
func (s *Session) ID() string {
	return s.id
}

// Get はキーに対応する値を返す。存在しない場合はokがfalseになる。
func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set はキーに値を設定する。既存の値は上書きされる。
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Exists はキーが存在するかどうかを返す。
func (s *Session) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Refresh は有効期限を現在時刻+ttlまで延長する。
func (s *Session) Refresh(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(ttl)
}

// Destroy は全データを破棄し、有効期限を過去に設定する。
// 以降のIsExpiredは常にtrueを返し、スイープが登録を回収する。
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	s.expiresAt = time.Unix(0, 0)
}

// IsExpired は有効期限が現在時刻以前であればtrueを返す。
func (s *Session) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.expiresAt.After(time.Now())
}

// ExpiresAt は現在の有効期限を返す。
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Cookie はこのセッションのSet-Cookie用http.Cookieを構築する。
// domain/secureはデプロイ環境の設定から渡す。
func (s *Session) Cookie(domain string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.id,
		Path:     "/",
		Domain:   domain,
		Expires:  s.ExpiresAt(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// UserIDKey は認証済みユーザーIDを保持するセッションキー。
const UserIDKey = "user_id"

// UserID は認証済みユーザーIDを返す。未ログインの場合は空文字列を返す。
func (s *Session) UserID() string {
	id, _ := s.Get(UserIDKey)
	return id
}
