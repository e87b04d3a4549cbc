// Package category は投稿カテゴリのドメインロジックを提供する。
package category

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
)

// Service はカテゴリ管理のサービス層。
type Service struct {
	categoryRepo repository.CategoryRepository
	postRepo     repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(categoryRepo repository.CategoryRepository, postRepo repository.PostRepository) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		postRepo:     postRepo,
	}
}

// Create は新しいカテゴリを作成する。名前は必須で、重複は
// validationエラーを返す。作成者が所有者となる。
func (s *Service) Create(ctx context.Context, callerID, name, description string) (*model.Category, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}

	now := time.Now()
	category := &model.Category{
		ID:          uuid.New().String(),
		UserID:      callerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewValidationError("このカテゴリ名は既に使用されています。")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// Show は指定IDのカテゴリを返す。
func (s *Service) Show(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ", id)
	}
	return category, nil
}

// List は全カテゴリを返す。
func (s *Service) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Update はカテゴリを更新する。作成者のみが実行できる。
func (s *Service) Update(ctx context.Context, callerID, id, name, description string) (*model.Category, error) {
	category, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("カテゴリ名を入力してください。")
	}

	category.Name = name
	category.Description = strings.TrimSpace(description)
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewValidationError("このカテゴリ名は既に使用されています。")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// Delete はカテゴリを論理削除する。作成者のみが実行できる。
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.categoryRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// Posts はカテゴリ内の投稿一覧を返す。
func (s *Service) Posts(ctx context.Context, categoryID string) ([]*model.Post, error) {
	if _, err := s.Show(ctx, categoryID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FindByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts in category: %w", err)
	}
	return posts, nil
}

// authorize は変更系操作の前提条件を確認する。
func (s *Service) authorize(ctx context.Context, callerID, id string) (*model.Category, error) {
	if callerID == "" {
		return nil, model.NewAuthorizationError()
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ", id)
	}
	if category.UserID != callerID {
		return nil, model.NewOwnershipError("カテゴリ")
	}
	return category, nil
}
