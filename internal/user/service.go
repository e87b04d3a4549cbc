// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
)

// SessionDestroyer はセッションの破棄インターフェース。
// session.Managerの部分集合として定義する。
type SessionDestroyer interface {
	Destroy(id string)
}

// Service はユーザー管理のサービス層。
// 登録・参照・更新・退会と、ユーザーに紐づく投票・ブックマークの
// 一覧取得を提供する。
type Service struct {
	userRepo     repository.UserRepository
	voteRepo     repository.VoteRepository
	bookmarkRepo repository.BookmarkRepository
	sessions     SessionDestroyer
	bcryptCost   int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	voteRepo repository.VoteRepository,
	bookmarkRepo repository.BookmarkRepository,
	sessions SessionDestroyer,
	bcryptCost int,
) *Service {
	return &Service{
		userRepo:     userRepo,
		voteRepo:     voteRepo,
		bookmarkRepo: bookmarkRepo,
		sessions:     sessions,
		bcryptCost:   bcryptCost,
	}
}

// Register は新規ユーザーを登録する。
// 名前・メールアドレス・パスワードはすべて必須で、メールアドレスの
// 重複はvalidationエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, model.NewValidationError("名前を入力してください。")
	}
	if email == "" {
		return nil, model.NewValidationError("メールアドレスを入力してください。")
	}
	if !strings.Contains(email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません。")
	}
	if password == "" {
		return nil, model.NewValidationError("パスワードを入力してください。")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewValidationError("このメールアドレスは既に登録されています。")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Show は指定IDのユーザーを返す。
func (s *Service) Show(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("ユーザー", id)
	}
	return user, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update はユーザー情報を更新する。本人のみが実行できる。
func (s *Service) Update(ctx context.Context, callerID, id, name, email string) (*model.User, error) {
	user, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, model.NewValidationError("名前を入力してください。")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません。")
	}

	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewValidationError("このメールアドレスは既に登録されています。")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete はユーザーを退会（論理削除）させる。本人のみが実行でき、
// 実行後は呼び出し元のセッションを破棄してログアウトさせる。
func (s *Service) Delete(ctx context.Context, callerID, id, sessionID string) error {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if sessionID != "" {
		s.sessions.Destroy(sessionID)
	}

	slog.Info("user withdrawn",
		slog.String("user_id", id),
	)

	return nil
}

// Votes はユーザーの有効な投票一覧を返す。
func (s *Service) Votes(ctx context.Context, userID string) ([]*model.Vote, error) {
	if _, err := s.Show(ctx, userID); err != nil {
		return nil, err
	}
	votes, err := s.voteRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

// BookmarkedPosts はユーザーがブックマークした投稿一覧を返す。
func (s *Service) BookmarkedPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	if _, err := s.Show(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.bookmarkRepo.FindPostsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarked posts: %w", err)
	}
	return posts, nil
}

// BookmarkedComments はユーザーがブックマークしたコメント一覧を返す。
func (s *Service) BookmarkedComments(ctx context.Context, userID string) ([]*model.Comment, error) {
	if _, err := s.Show(ctx, userID); err != nil {
		return nil, err
	}
	comments, err := s.bookmarkRepo.FindCommentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarked comments: %w", err)
	}
	return comments, nil
}

// authorize は変更系操作の前提条件を確認する。
// 未ログインはauthorization、本人以外はownership、対象未存在はnot_found。
func (s *Service) authorize(ctx context.Context, callerID, id string) (*model.User, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("ユーザー", id)
	}
	if callerID != id {
		return nil, model.NewOwnershipError("ユーザー")
	}
	return user, nil
}
