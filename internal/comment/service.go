// Package comment はコメントと返信スレッドのドメインロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
	"github.com/hitoshi/bbsman/internal/security"
)

// Service はコメント管理のサービス層。
// 本文はContentSanitizerServiceで正規化してから保存する。
type Service struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
	}
}

// Create は新しいコメントを作成する。parentIDが非nilの場合は
// 同じ投稿内の既存コメントへの返信となる。
func (s *Service) Create(ctx context.Context, callerID, postID string, parentID *string, content string) (*model.Comment, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError("コメント本文を入力してください。")
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError("投稿", postID)
	}

	if parentID != nil {
		parent, err := s.commentRepo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}
		if parent == nil {
			return nil, model.NewNotFoundError("コメント", *parentID)
		}
		if parent.PostID != postID {
			return nil, model.NewValidationError("返信先コメントは同じ投稿のものである必要があります。")
		}
	}

	now := time.Now()
	comment := &model.Comment{
		ID:        uuid.New().String(),
		UserID:    callerID,
		PostID:    postID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// Show は指定IDのコメントを返す。
func (s *Service) Show(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil {
		return nil, model.NewNotFoundError("コメント", id)
	}
	return comment, nil
}

// List は全コメントを新しい順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Comment, error) {
	comments, err := s.commentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Update はコメントを更新する。コメント投稿者のみが実行できる。
func (s *Service) Update(ctx context.Context, callerID, id, content string) (*model.Comment, error) {
	comment, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError("コメント本文を入力してください。")
	}

	comment.Content = content
	comment.UpdatedAt = time.Now()

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// Delete はコメントを論理削除する。コメント投稿者のみが実行できる。
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.commentRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// GetReplies は指定コメント配下の全返信を深さ優先順で返す。
// スタックによる反復走査で、訪問済みIDをマップで記録して重複を防ぐ。
func (s *Service) GetReplies(ctx context.Context, commentID string) ([]*model.Comment, error) {
	root, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if root == nil {
		return nil, model.NewNotFoundError("コメント", commentID)
	}

	var result []*model.Comment
	visited := map[string]bool{root.ID: true}

	children, err := s.commentRepo.FindByParent(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find replies: %w", err)
	}

	// スタックには未出力のノードを積む。同一深さでは古い返信が先に
	// 出力されるよう、逆順で積む。
	var stack []*model.Comment
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true
		result = append(result, current)

		children, err := s.commentRepo.FindByParent(ctx, current.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to find replies: %w", err)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return result, nil
}

// authorize は変更系操作の前提条件を確認する。
func (s *Service) authorize(ctx context.Context, callerID, id string) (*model.Comment, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil {
		return nil, model.NewNotFoundError("コメント", id)
	}
	if comment.UserID != callerID {
		return nil, model.NewOwnershipError("コメント")
	}
	return comment, nil
}
