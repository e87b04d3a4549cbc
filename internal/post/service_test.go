package post

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/security"
)

// mockPostRepo はPostRepositoryのモック実装。
type mockPostRepo struct {
	createFn     func(ctx context.Context, post *model.Post) error
	findByIDFn   func(ctx context.Context, id string) (*model.Post, error)
	findAllFn    func(ctx context.Context) ([]*model.Post, error)
	updateFn     func(ctx context.Context, post *model.Post) error
	softDeleteFn func(ctx context.Context, id string) error
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	return m.createFn(ctx, post)
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockPostRepo) FindAll(ctx context.Context) ([]*model.Post, error) {
	return m.findAllFn(ctx)
}

func (m *mockPostRepo) FindByCategory(ctx context.Context, categoryID string) ([]*model.Post, error) {
	return nil, nil
}

func (m *mockPostRepo) FindByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	return nil, nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error {
	return m.updateFn(ctx, post)
}

func (m *mockPostRepo) SoftDelete(ctx context.Context, id string) error {
	return m.softDeleteFn(ctx, id)
}

// mockCategoryRepo はCategoryRepositoryのモック実装。
type mockCategoryRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Category, error)
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error { return nil }
func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockCategoryRepo) FindAll(ctx context.Context) ([]*model.Category, error) {
	return nil, nil
}
func (m *mockCategoryRepo) Update(ctx context.Context, category *model.Category) error { return nil }
func (m *mockCategoryRepo) SoftDelete(ctx context.Context, id string) error            { return nil }

// mockCommentRepo はCommentRepositoryのモック実装。
type mockCommentRepo struct {
	findByPostFn func(ctx context.Context, postID string) ([]*model.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error { return nil }
func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) FindAll(ctx context.Context) ([]*model.Comment, error) { return nil, nil }
func (m *mockCommentRepo) FindByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return m.findByPostFn(ctx, postID)
}
func (m *mockCommentRepo) FindByParent(ctx context.Context, parentID string) ([]*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) FindByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) Update(ctx context.Context, comment *model.Comment) error { return nil }
func (m *mockCommentRepo) SoftDelete(ctx context.Context, id string) error          { return nil }

func existingCategory(id string) *mockCategoryRepo {
	return &mockCategoryRepo{
		findByIDFn: func(ctx context.Context, cid string) (*model.Category, error) {
			if cid == id {
				return &model.Category{ID: cid, Name: "雑談"}, nil
			}
			return nil, nil
		},
	}
}

func wantAppError(t *testing.T, err error, kind model.ErrorKind) {
	t.Helper()
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error type = %T, want *model.AppError", err)
	}
	if appErr.Kind != kind {
		t.Errorf("error kind = %q, want %q", appErr.Kind, kind)
	}
}

// 投稿作成が成功し、本文がサニタイズされることを検証
func TestCreate_SanitizesContent(t *testing.T) {
	var created *model.Post
	repo := &mockPostRepo{
		createFn: func(ctx context.Context, post *model.Post) error {
			created = post
			return nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	raw := `<p>こんにちは</p><script>alert("xss")</script>`
	post, err := s.Create(context.Background(), "user-1", "cat-1", "初投稿", raw)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("repository Create should be called")
	}
	if strings.Contains(post.Content, "<script>") {
		t.Errorf("content should be sanitized, got %q", post.Content)
	}
	if !strings.Contains(post.Content, "<p>こんにちは</p>") {
		t.Errorf("allowed markup should survive, got %q", post.Content)
	}
}

// 未ログインの作成がauthorizationエラーになることを検証
func TestCreate_Unauthenticated(t *testing.T) {
	s := NewService(&mockPostRepo{}, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	_, err := s.Create(context.Background(), "", "cat-1", "タイトル", "本文")
	wantAppError(t, err, model.KindAuthorization)
}

// タイトル・本文欠落でvalidationエラーになることを検証
func TestCreate_MissingFields(t *testing.T) {
	s := NewService(&mockPostRepo{}, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	if _, err := s.Create(context.Background(), "user-1", "cat-1", "", "本文"); err == nil {
		t.Error("expected error for missing title")
	}
	// サニタイズ後に空になる本文も欠落扱い
	_, err := s.Create(context.Background(), "user-1", "cat-1", "タイトル", `<script>alert(1)</script>`)
	wantAppError(t, err, model.KindValidation)
}

// 未存在カテゴリへの投稿がnot_foundになることを検証
func TestCreate_CategoryNotFound(t *testing.T) {
	s := NewService(&mockPostRepo{}, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	_, err := s.Create(context.Background(), "user-1", "no-such-category", "タイトル", "本文")
	wantAppError(t, err, model.KindNotFound)
}

// 投稿者による更新が成功することを検証
func TestUpdate_Owner(t *testing.T) {
	var updated *model.Post
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id, UserID: "user-1", Title: "旧題"}, nil
		},
		updateFn: func(ctx context.Context, post *model.Post) error {
			updated = post
			return nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	post, err := s.Update(context.Background(), "user-1", "post-1", "新題", "新しい本文")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated == nil {
		t.Fatal("repository Update should be called")
	}
	if post.Title != "新題" {
		t.Errorf("title = %q, want %q", post.Title, "新題")
	}
}

// 投稿者以外の更新がownershipエラーになることを検証
func TestUpdate_NotOwner(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id, UserID: "user-1"}, nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	_, err := s.Update(context.Background(), "user-2", "post-1", "新題", "本文")
	wantAppError(t, err, model.KindOwnership)
}

// 投稿者以外の削除がownershipエラーになることを検証
func TestDelete_NotOwner(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id, UserID: "user-1"}, nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	err := s.Delete(context.Background(), "user-2", "post-1")
	wantAppError(t, err, model.KindOwnership)
}

// 削除済み投稿の参照がnot_foundになることを検証
func TestShow_NotFound(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return nil, nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), &mockCommentRepo{}, security.NewContentSanitizer())

	_, err := s.Show(context.Background(), "deleted-post")
	wantAppError(t, err, model.KindNotFound)
}

// 投稿へのコメント一覧取得を検証
func TestComments(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Post, error) {
			return &model.Post{ID: id, UserID: "user-1"}, nil
		},
	}
	comments := &mockCommentRepo{
		findByPostFn: func(ctx context.Context, postID string) ([]*model.Comment, error) {
			return []*model.Comment{{ID: "comment-1", PostID: postID}}, nil
		},
	}
	s := NewService(repo, existingCategory("cat-1"), comments, security.NewContentSanitizer())

	got, err := s.Comments(context.Background(), "post-1")
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "comment-1" {
		t.Errorf("comments = %+v, want one comment comment-1", got)
	}
}
