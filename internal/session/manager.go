package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// maxIDRetries はセッションID衝突時の再生成の上限回数。
const maxIDRetries = 5

// Metrics はセッション数の観測に使うインターフェース。
// metrics.Collectorの部分集合として定義する。
type Metrics interface {
	SetLiveSessions(n int)
}

// Manager はプロセス内の全セッションを所有するレジストリ。
// リクエストからのセッション解決と、期限切れセッションの
// 定期スイープを提供する。プロセス起動時に生成し、終了時にStopを呼ぶ。
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	metrics       Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager はManagerを生成し、バックグラウンドスイープを開始する。
// metricsはnilでもよい。
func NewManager(ttl, sweepInterval time.Duration, metrics Metrics) *Manager {
	m := &Manager{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		metrics:       metrics,
		stopCh:        make(chan struct{}),
	}

	m.wg.Add(1)
	go m.sweepLoop()

	return m
}

// Stop はスイープのバックグラウンドゴルーチンを停止する。
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()
}

// Resolve はCookieで提示されたセッションIDからセッションを解決する。
// 登録済みかつ未期限切れのセッションに一致すれば有効期限を延長して返す。
// 一致しない場合（ID不一致・期限切れ・空）は新規セッションを生成して返す。
// 期限切れの一致は不一致として扱い、残骸エントリはスイープに任せる。
// 戻り値のcreatedは新規生成されたかどうかを示す。
func (m *Manager) Resolve(cookieValue string) (sess *Session, created bool, err error) {
	if cookieValue != "" {
		m.mu.RLock()
		existing, ok := m.sessions[cookieValue]
		m.mu.RUnlock()

		if ok && !existing.IsExpired() {
			existing.Refresh(m.ttl)
			return existing, false, nil
		}
	}

	sess, err = m.create()
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Destroy は指定IDのセッションを破棄する。
// データは即時クリアされ、レジストリからの除去はスイープが行う。
// 未登録IDは何もしない。
func (m *Manager) Destroy(id string) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		sess.Destroy()
	}
}

// Len は登録中のセッション数を返す（期限切れ未回収分を含む）。
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// create は未使用のIDで新規セッションを生成して登録する。
// 生成したIDが既存の生存セッションと衝突した場合は生成失敗として再試行する。
func (m *Manager) create() (*Session, error) {
	for i := 0; i < maxIDRetries; i++ {
		id, err := generateID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session ID: %w", err)
		}

		m.mu.Lock()
		if _, exists := m.sessions[id]; exists {
			m.mu.Unlock()
			continue
		}
		sess := newSession(id, m.ttl)
		m.sessions[id] = sess
		n := len(m.sessions)
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.SetLiveSessions(n)
		}
		return sess, nil
	}

	return nil, fmt.Errorf("session ID collision persisted after %d attempts", maxIDRetries)
}

// sweepLoop は一定間隔で期限切れセッションをレジストリから除去する。
// レジストリを変更する唯一のリクエスト外経路。
func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep は期限切れセッションを即時除去する。スイープループからの定期呼び出しに
// 加え、テストからの直接呼び出しにも使う。除去件数を返す。
func (m *Manager) Sweep() int {
	m.mu.Lock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.IsExpired() {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		slog.Info("session sweep completed",
			slog.Int("removed", removed),
			slog.Int("remaining", n),
		)
	}
	if m.metrics != nil {
		m.metrics.SetLiveSessions(n)
	}
	return removed
}

// generateID は暗号的に安全な32バイトのセッションIDを生成する。
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
