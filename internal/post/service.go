// Package post は投稿のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
	"github.com/hitoshi/bbsman/internal/security"
)

// Service は投稿管理のサービス層。
// 本文はContentSanitizerServiceで正規化してから保存する。
type Service struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	commentRepo  repository.CommentRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	commentRepo repository.CommentRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		commentRepo:  commentRepo,
		sanitizer:    sanitizer,
	}
}

// Create は新しい投稿を作成する。タイトルと本文は必須で、
// カテゴリは存在している必要がある。
func (s *Service) Create(ctx context.Context, callerID, categoryID, title, content string) (*model.Post, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.NewValidationError("タイトルを入力してください。")
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError("本文を入力してください。")
	}

	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ", categoryID)
	}

	now := time.Now()
	post := &model.Post{
		ID:         uuid.New().String(),
		UserID:     callerID,
		CategoryID: categoryID,
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// Show は指定IDの投稿を返す。
func (s *Service) Show(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError("投稿", id)
	}
	return post, nil
}

// List は全投稿を新しい順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.postRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Update は投稿を更新する。投稿者のみが実行できる。
func (s *Service) Update(ctx context.Context, callerID, id, title, content string) (*model.Post, error) {
	post, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.NewValidationError("タイトルを入力してください。")
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError("本文を入力してください。")
	}

	post.Title = title
	post.Content = content
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// Delete は投稿を論理削除する。投稿者のみが実行できる。
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.postRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// Comments は投稿への直下コメント一覧を返す。
func (s *Service) Comments(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.Show(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.FindByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// authorize は変更系操作の前提条件を確認する。
func (s *Service) authorize(ctx context.Context, callerID, id string) (*model.Post, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError("投稿", id)
	}
	if post.UserID != callerID {
		return nil, model.NewOwnershipError("投稿")
	}
	return post, nil
}
