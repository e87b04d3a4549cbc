package session

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	// スイープ間隔は長くし、テストからはSweepを直接呼ぶ
	m := NewManager(ttl, time.Hour, nil)
	t.Cleanup(m.Stop)
	return m
}

// Cookie無しのリクエストごとに異なる新規セッションが生成されることを検証
func TestManager_Resolve_CreatesDistinctSessions(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s1, created1, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	s2, created2, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !created1 || !created2 {
		t.Error("both resolutions should create new sessions")
	}
	if s1.ID() == s2.ID() {
		t.Errorf("session IDs should be distinct, both = %q", s1.ID())
	}
	if len(s1.ID()) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(s1.ID()))
	}
}

// 有効なセッションIDの提示で同一セッションが返り、期限が延長されることを検証
func TestManager_Resolve_ReturnsExistingAndRefreshes(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s1, _, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	before := s1.ExpiresAt()

	time.Sleep(5 * time.Millisecond)

	s2, created, err := m.Resolve(s1.ID())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if created {
		t.Error("resolving a live session should not create a new one")
	}
	if s2.ID() != s1.ID() {
		t.Errorf("resolved session ID = %q, want %q", s2.ID(), s1.ID())
	}
	if !s2.ExpiresAt().After(before) {
		t.Errorf("expiry should be refreshed: before=%v after=%v", before, s2.ExpiresAt())
	}
}

// 期限切れセッションの提示はセッション無しと同一に扱われることを検証
func TestManager_Resolve_ExpiredTreatedAsMiss(t *testing.T) {
	m := newTestManager(t, -time.Second) // 生成直後から期限切れ

	s1, _, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	s2, created, err := m.Resolve(s1.ID())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !created {
		t.Error("expired session should be treated as a miss")
	}
	if s2.ID() == s1.ID() {
		t.Error("a fresh session should replace the expired one")
	}

	// 残骸エントリはスイープまで残る
	if m.Len() < 2 {
		t.Errorf("stale entry should remain until sweep, Len() = %d", m.Len())
	}
}

// 未登録IDの提示で新規セッションが生成されることを検証
func TestManager_Resolve_UnknownID(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s, created, err := m.Resolve("deadbeef")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !created {
		t.Error("unknown ID should create a new session")
	}
	if s.ID() == "deadbeef" {
		t.Error("new session must not adopt the claimed ID")
	}
}

// Destroyでセッションが無効化されることを検証
func TestManager_Destroy(t *testing.T) {
	m := newTestManager(t, time.Hour)

	s, _, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	s.Set("user_id", "user-123")

	m.Destroy(s.ID())

	if !s.IsExpired() {
		t.Error("destroyed session should be expired")
	}
	if s.Exists("user_id") {
		t.Error("destroyed session should hold no data")
	}

	// 破棄後の提示は新規生成になる
	_, created, err := m.Resolve(s.ID())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !created {
		t.Error("resolving a destroyed session should create a new one")
	}
}

// Sweepが期限切れセッションのみを除去することを検証
func TestManager_Sweep(t *testing.T) {
	m := newTestManager(t, time.Hour)

	live, _, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	dead, _, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	m.Destroy(dead.ID())

	removed := m.Sweep()

	if removed != 1 {
		t.Errorf("Sweep() removed = %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len() after sweep = %d, want 1", m.Len())
	}

	// 生存セッションは影響を受けない
	s, created, err := m.Resolve(live.ID())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if created || s.ID() != live.ID() {
		t.Error("live session should survive the sweep")
	}
}

// バックグラウンドスイープが実際に動作することを検証
func TestManager_BackgroundSweep(t *testing.T) {
	m := NewManager(time.Millisecond, 10*time.Millisecond, nil)
	defer m.Stop()

	if _, _, err := m.Resolve(""); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for m.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("background sweep did not reclaim expired session, Len() = %d", m.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
