package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bbsman/internal/auth"
	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/session"
)

// --- モックサービス ---

type mockAuthService struct {
	loginFn func(ctx context.Context, sess *session.Session, email, password string) (*model.User, error)
}

func (m *mockAuthService) Login(ctx context.Context, sess *session.Session, email, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, sess, email, password)
	}
	return &model.User{ID: "user-1", Email: email}, nil
}

func (m *mockAuthService) Logout(sess *session.Session) {}

func (m *mockAuthService) LoginForm() []auth.FormField {
	return []auth.FormField{{Name: "email"}, {Name: "password"}}
}

func (m *mockAuthService) RegisterForm() []auth.FormField {
	return []auth.FormField{{Name: "name"}, {Name: "email"}, {Name: "password"}}
}

type mockUserService struct {
	calls map[string]int
}

func (m *mockUserService) record(op string) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
}

func (m *mockUserService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	m.record("register")
	return &model.User{ID: "user-1", Name: name, Email: email}, nil
}

func (m *mockUserService) Show(ctx context.Context, id string) (*model.User, error) {
	m.record("show")
	return &model.User{ID: id}, nil
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	m.record("list")
	return nil, nil
}

func (m *mockUserService) Update(ctx context.Context, callerID, id, name, email string) (*model.User, error) {
	m.record("update")
	return &model.User{ID: id, Name: name, Email: email}, nil
}

func (m *mockUserService) Delete(ctx context.Context, callerID, id, sessionID string) error {
	m.record("delete")
	return nil
}

func (m *mockUserService) Votes(ctx context.Context, userID string) ([]*model.Vote, error) {
	m.record("votes")
	return nil, nil
}

func (m *mockUserService) BookmarkedPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	m.record("bookmarked_posts")
	return nil, nil
}

func (m *mockUserService) BookmarkedComments(ctx context.Context, userID string) ([]*model.Comment, error) {
	m.record("bookmarked_comments")
	return nil, nil
}

type mockCategoryService struct{}

func (m *mockCategoryService) Create(ctx context.Context, callerID, name, description string) (*model.Category, error) {
	return &model.Category{ID: "cat-1", UserID: callerID, Name: name}, nil
}

func (m *mockCategoryService) Show(ctx context.Context, id string) (*model.Category, error) {
	return &model.Category{ID: id}, nil
}

func (m *mockCategoryService) List(ctx context.Context) ([]*model.Category, error) { return nil, nil }

func (m *mockCategoryService) Update(ctx context.Context, callerID, id, name, description string) (*model.Category, error) {
	return &model.Category{ID: id, Name: name}, nil
}

func (m *mockCategoryService) Delete(ctx context.Context, callerID, id string) error { return nil }

func (m *mockCategoryService) Posts(ctx context.Context, categoryID string) ([]*model.Post, error) {
	return nil, nil
}

type mockPostService struct {
	showFn   func(ctx context.Context, id string) (*model.Post, error)
	deleteFn func(ctx context.Context, callerID, id string) error
	calls    map[string]int
}

func (m *mockPostService) record(op string) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
}

func (m *mockPostService) Create(ctx context.Context, callerID, categoryID, title, content string) (*model.Post, error) {
	m.record("create")
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}
	return &model.Post{ID: "post-1", UserID: callerID, CategoryID: categoryID, Title: title}, nil
}

func (m *mockPostService) Show(ctx context.Context, id string) (*model.Post, error) {
	m.record("show")
	if m.showFn != nil {
		return m.showFn(ctx, id)
	}
	return &model.Post{ID: id}, nil
}

func (m *mockPostService) List(ctx context.Context) ([]*model.Post, error) {
	m.record("list")
	return []*model.Post{{ID: "post-1"}}, nil
}

func (m *mockPostService) Update(ctx context.Context, callerID, id, title, content string) (*model.Post, error) {
	m.record("update")
	return &model.Post{ID: id, Title: title}, nil
}

func (m *mockPostService) Delete(ctx context.Context, callerID, id string) error {
	m.record("delete")
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, id)
	}
	return nil
}

func (m *mockPostService) Comments(ctx context.Context, postID string) ([]*model.Comment, error) {
	m.record("comments")
	return nil, nil
}

type mockCommentService struct{}

func (m *mockCommentService) Create(ctx context.Context, callerID, postID string, parentID *string, content string) (*model.Comment, error) {
	return &model.Comment{ID: "comment-1", UserID: callerID, PostID: postID, ParentID: parentID}, nil
}

func (m *mockCommentService) Show(ctx context.Context, id string) (*model.Comment, error) {
	return &model.Comment{ID: id}, nil
}

func (m *mockCommentService) List(ctx context.Context) ([]*model.Comment, error) {
	return nil, nil
}

func (m *mockCommentService) Update(ctx context.Context, callerID, id, content string) (*model.Comment, error) {
	return &model.Comment{ID: id, Content: content}, nil
}

func (m *mockCommentService) Delete(ctx context.Context, callerID, id string) error { return nil }

func (m *mockCommentService) GetReplies(ctx context.Context, commentID string) ([]*model.Comment, error) {
	return nil, nil
}

type mockVoteEngine struct {
	ops []string
}

func (m *mockVoteEngine) apply(op string, userID string, targetID string) error {
	if userID == "" {
		return model.NewAuthorizationError()
	}
	m.ops = append(m.ops, op+":"+targetID)
	return nil
}

func (m *mockVoteEngine) Upvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return m.apply("upvote", userID, targetID)
}

func (m *mockVoteEngine) Downvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return m.apply("downvote", userID, targetID)
}

func (m *mockVoteEngine) Unvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return m.apply("unvote", userID, targetID)
}

func (m *mockVoteEngine) Bookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return m.apply("bookmark", userID, targetID)
}

func (m *mockVoteEngine) Unbookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return m.apply("unbookmark", userID, targetID)
}

// --- テスト用ルーター組み立て ---

type routerFixture struct {
	router  http.Handler
	manager *session.Manager
	posts   *mockPostService
	users   *mockUserService
	engine  *mockVoteEngine
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	manager := session.NewManager(time.Hour, time.Hour, nil)
	t.Cleanup(manager.Stop)

	posts := &mockPostService{}
	users := &mockUserService{}
	engine := &mockVoteEngine{}

	router := NewRouter(&RouterDeps{
		SessionResolver:   manager,
		CORSAllowedOrigin: "http://localhost:3000",
		AuthService:       &mockAuthService{},
		UserService:       users,
		CategoryService:   &mockCategoryService{},
		PostService:       posts,
		CommentService:    &mockCommentService{},
		VoteEngine:        engine,
	})

	return &routerFixture{
		router:  router,
		manager: manager,
		posts:   posts,
		users:   users,
		engine:  engine,
	}
}

// loginAs はログイン済みセッションのCookieをリクエストに付与する。
func (f *routerFixture) loginAs(t *testing.T, req *http.Request, userID string) {
	t.Helper()
	sess, _, err := f.manager.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	sess.Set(session.UserIDKey, userID)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID()})
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("response should be a JSON envelope: %v\nraw: %s", err, rr.Body.String())
	}
	return env
}

// --- ルーティング表のテスト ---

// ホームが投稿一覧に束縛されることを検証
func TestRouter_Home(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if f.posts.calls["list"] != 1 {
		t.Errorf("post list calls = %d, want 1", f.posts.calls["list"])
	}
}

// パス・メソッドとアクションの束縛を検証
func TestRouter_DispatchTable(t *testing.T) {
	tests := []struct {
		method     string
		path       string
		body       string
		loggedIn   bool
		wantStatus int
		wantCall   func(f *routerFixture) bool
	}{
		{http.MethodGet, "/post/42", "", false, http.StatusOK,
			func(f *routerFixture) bool { return f.posts.calls["show"] == 1 }},
		{http.MethodGet, "/post/42/upvote", "", true, http.StatusOK,
			func(f *routerFixture) bool { return len(f.engine.ops) == 1 && f.engine.ops[0] == "upvote:42" }},
		{http.MethodGet, "/post/42/unbookmark", "", true, http.StatusOK,
			func(f *routerFixture) bool { return len(f.engine.ops) == 1 && f.engine.ops[0] == "unbookmark:42" }},
		{http.MethodGet, "/comment/7/downvote", "", true, http.StatusOK,
			func(f *routerFixture) bool { return len(f.engine.ops) == 1 && f.engine.ops[0] == "downvote:7" }},
		{http.MethodPost, "/post", `{"category_id":"cat-1","title":"t","content":"c"}`, true, http.StatusCreated,
			func(f *routerFixture) bool { return f.posts.calls["create"] == 1 }},
		{http.MethodPut, "/post/42", `{"title":"t","content":"c"}`, true, http.StatusOK,
			func(f *routerFixture) bool { return f.posts.calls["update"] == 1 }},
		{http.MethodGet, "/post/42/edit", "", true, http.StatusOK,
			func(f *routerFixture) bool { return f.posts.calls["show"] == 1 }},
		{http.MethodGet, "/user/u1/votes", "", false, http.StatusOK,
			func(f *routerFixture) bool { return f.users.calls["votes"] == 1 }},
		{http.MethodGet, "/user/u1/bookmarks/posts", "", false, http.StatusOK,
			func(f *routerFixture) bool { return f.users.calls["bookmarked_posts"] == 1 }},
		{http.MethodGet, "/user/u1/bookmarks/comments", "", false, http.StatusOK,
			func(f *routerFixture) bool { return f.users.calls["bookmarked_comments"] == 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			f := newRouterFixture(t)

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.loggedIn {
				f.loginAs(t, req, "user-1")
			}

			rr := httptest.NewRecorder()
			f.router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\nbody: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !tt.wantCall(f) {
				t.Error("expected action was not dispatched")
			}
		})
	}
}

// 未定義パスが404エンベロープになることを検証
func TestRouter_UnknownPath(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	env := decodeEnvelope(t, rr)
	if env["status_code"] != float64(http.StatusNotFound) {
		t.Errorf("envelope status_code = %v, want %v", env["status_code"], http.StatusNotFound)
	}
}

// サポート外メソッドが405エンベロープになることを検証
func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPatch, "/post/42", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
	env := decodeEnvelope(t, rr)
	if env["status_code"] != float64(http.StatusMethodNotAllowed) {
		t.Errorf("envelope status_code = %v, want %v", env["status_code"], http.StatusMethodNotAllowed)
	}
}

// 未ログインの投票が401エンベロープになることを検証
func TestRouter_VoteRequiresLogin(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/post/42/upvote", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if len(f.engine.ops) != 0 {
		t.Errorf("engine ops = %v, want none", f.engine.ops)
	}
}

// 所有者以外の削除が403エンベロープになることを検証
func TestRouter_DeleteByNonOwner(t *testing.T) {
	f := newRouterFixture(t)
	f.posts.deleteFn = func(ctx context.Context, callerID, id string) error {
		return model.NewOwnershipError("投稿")
	}

	req := httptest.NewRequest(http.MethodDelete, "/post/42", nil)
	f.loginAs(t, req, "user-2")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d\nbody: %s", rr.Code, http.StatusForbidden, rr.Body.String())
	}
}

// 全レスポンスにセッションCookieが付与されることを検証
func TestRouter_AlwaysSetsSessionCookie(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return
		}
	}
	t.Errorf("Set-Cookie %q not found in response", session.CookieName)
}

// 作成→投票→取り消し→削除の一連の操作が同じセッションで通ることを検証
func TestRouter_PostLifecycle(t *testing.T) {
	f := newRouterFixture(t)

	sess, _, err := f.manager.Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	sess.Set(session.UserIDKey, "user-1")
	cookie := &http.Cookie{Name: session.CookieName, Value: sess.ID()}

	steps := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodPost, "/post", `{"category_id":"cat-1","title":"t","content":"c"}`, http.StatusCreated},
		{http.MethodGet, "/post/post-1/upvote", "", http.StatusOK},
		{http.MethodGet, "/post/post-1/unvote", "", http.StatusOK},
		{http.MethodDelete, "/post/post-1", "", http.StatusOK},
	}

	for _, step := range steps {
		var req *http.Request
		if step.body != "" {
			req = httptest.NewRequest(step.method, step.path, strings.NewReader(step.body))
		} else {
			req = httptest.NewRequest(step.method, step.path, nil)
		}
		req.AddCookie(cookie)

		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		if rr.Code != step.wantStatus {
			t.Fatalf("%s %s status = %d, want %d\nbody: %s",
				step.method, step.path, rr.Code, step.wantStatus, rr.Body.String())
		}
	}

	if got := f.engine.ops; len(got) != 2 || got[0] != "upvote:post-1" || got[1] != "unvote:post-1" {
		t.Errorf("engine ops = %v, want [upvote:post-1 unvote:post-1]", got)
	}
	if f.posts.calls["create"] != 1 || f.posts.calls["delete"] != 1 {
		t.Errorf("post calls = %v, want create and delete once each", f.posts.calls)
	}
}

// /healthがエンベロープで応答することを検証
func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	env := decodeEnvelope(t, rr)
	if env["message"] != "ok" {
		t.Errorf("message = %v, want ok", env["message"])
	}
}
